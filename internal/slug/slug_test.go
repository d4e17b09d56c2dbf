package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ön Fren Balatası", "on-fren-balatasi"},
		{"  Yağ Filtresi - BOSCH  ", "yag-filtresi-bosch"},
		{"Şanzıman Yağı 75W/90", "sanziman-yagi-75w-90"},
		{"İTME ÇUBUĞU", "itme-cubugu"},
		{"Amortisör & Takoz", "amortisor-ve-takoz"},
		{"---", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Make(tt.in), tt.in)
	}
}

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"otomar/internal/config"

	"github.com/stretchr/testify/assert"
)

func recaptchaServer(t *testing.T, result recaptchaResult) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		json.NewEncoder(w).Encode(result)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRecaptchaVerify(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		result  recaptchaResult
		wantErr bool
	}{
		{name: "v3 pass", token: "tok", result: recaptchaResult{Success: true, Score: 0.9}},
		{name: "v2 pass", token: "tok", result: recaptchaResult{Success: true}},
		{name: "low score", token: "tok", result: recaptchaResult{Success: true, Score: 0.1}, wantErr: true},
		{name: "rejected", token: "tok", result: recaptchaResult{ErrorCodes: []string{"invalid-input-response"}}, wantErr: true},
		{name: "missing token", token: "", result: recaptchaResult{Success: true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := recaptchaServer(t, tt.result)
			v := NewRecaptchaVerifier(&config.Recaptcha{Secret: "secret", VerifyURL: srv.URL, MinScore: 0.5})

			err := v.Verify(context.Background(), tt.token, "10.0.0.1")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRecaptchaFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecaptchaDisabledWithoutSecret(t *testing.T) {
	v := NewRecaptchaVerifier(&config.Recaptcha{})
	assert.NoError(t, v.Verify(context.Background(), "", ""))
}

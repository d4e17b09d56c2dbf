package service

import (
	"crypto/rand"
	"fmt"
	"time"
)

// no 0/O or 1/I so codes survive being read over the phone
const orderCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const orderCodeRandomLen = 6

// NewOrderCode returns OT + yymmdd + six random characters, e.g. OT241019K7QH2M.
func NewOrderCode(now time.Time) (string, error) {
	b := make([]byte, orderCodeRandomLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i := range b {
		b[i] = orderCodeAlphabet[int(b[i])%len(orderCodeAlphabet)]
	}
	return "OT" + now.Format("060102") + string(b), nil
}

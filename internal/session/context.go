package session

import (
	"context"
	"errors"
)

var ErrNoSession = errors.New("no session in context")

// ContextCredentialStore reads and writes the credential of the session
// carried by the request context.
type ContextCredentialStore struct{}

func (ContextCredentialStore) Credential(ctx context.Context) *Credential {
	s := FromContext(ctx)
	if s == nil {
		return nil
	}
	return s.Credential()
}

// StoreCredential replaces the credential and persists it immediately.
func (ContextCredentialStore) StoreCredential(ctx context.Context, c Credential) error {
	s := FromContext(ctx)
	if s == nil {
		return ErrNoSession
	}
	s.SetCredential(c)
	return s.Flush(ctx)
}

// ContextCartResolver resolves the cart session id of the request context.
type ContextCartResolver struct{}

// CartSessionID reports false when the context carries no session.
func (ContextCartResolver) CartSessionID(ctx context.Context) (string, bool) {
	s := FromContext(ctx)
	if s == nil {
		return "", false
	}
	return s.CartSessionID(), true
}

// Package session keeps the browser session of the web process: the cart
// session id and the API credential, stored server side and addressed by an
// HttpOnly cookie.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Credential is the API token pair of a signed-in browser. It is never sent
// to the browser.
type Credential struct {
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	// ExpiresAt bounds the whole credential, independent of the token expiries.
	ExpiresAt time.Time `json:"expiresAt"`
}

func (c *Credential) AccessTokenValid(now time.Time) bool {
	return c != nil && c.AccessToken != "" && now.Before(c.AccessTokenExpiresAt)
}

func (c *Credential) HasRefreshToken(now time.Time) bool {
	return c != nil && c.RefreshToken != "" &&
		(c.RefreshTokenExpiresAt.IsZero() || now.Before(c.RefreshTokenExpiresAt))
}

// Data is what the store persists per session.
type Data struct {
	CartSessionID string      `json:"cartSessionId,omitempty"`
	Credential    *Credential `json:"credential,omitempty"`
	UserEmail     string      `json:"userEmail,omitempty"`
	// LastOrder lets a guest see the result of the checkout it just made.
	LastOrder *OrderRef `json:"lastOrder,omitempty"`
}

// Fields names the parts of Data a save writes. Parts left out keep whatever
// the store already holds, so concurrent requests of one browser do not undo
// each other.
type Fields uint8

const (
	FieldCartSessionID Fields = 1 << iota
	FieldCredential
	FieldUserEmail
	FieldLastOrder
)

func (f Fields) Has(field Fields) bool {
	return f&field != 0
}

type OrderRef struct {
	Code  string `json:"code"`
	Email string `json:"email"`
}

// Session is safe for concurrent use by the transports of one request.
type Session struct {
	id    string
	now   func() time.Time
	store Store

	mu        sync.Mutex
	data      Data
	changed   Fields
	persisted bool
}

func New(id string, data Data) *Session {
	return &Session{
		id:   id,
		now:  time.Now,
		data: data,
	}
}

func (s *Session) ID() string {
	return s.id
}

// NewCartSessionID returns 128 random bits as 32 lowercase hex characters.
func NewCartSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CartSessionID returns the anonymous cart identity, creating it on first use.
func (s *Session) CartSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.CartSessionID == "" {
		s.data.CartSessionID = NewCartSessionID()
		s.changed |= FieldCartSessionID
	}
	return s.data.CartSessionID
}

// Credential returns a copy of the stored credential, or nil when there is
// none or its validity window has passed.
func (s *Session) Credential() *Credential {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Credential == nil {
		return nil
	}
	if !s.data.Credential.ExpiresAt.IsZero() && !s.now().Before(s.data.Credential.ExpiresAt) {
		return nil
	}
	c := *s.data.Credential
	return &c
}

// SetCredential replaces the credential wholesale.
func (s *Session) SetCredential(c Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Credential = &c
	s.changed |= FieldCredential
}

func (s *Session) ClearCredential() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Credential = nil
	s.data.UserEmail = ""
	s.changed |= FieldCredential | FieldUserEmail
}

func (s *Session) UserEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UserEmail
}

func (s *Session) SetUserEmail(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.UserEmail = email
	s.changed |= FieldUserEmail
}

func (s *Session) SetLastOrder(code, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.LastOrder = &OrderRef{Code: code, Email: email}
	s.changed |= FieldLastOrder
}

// OrderEmail is the email the last order with this code was placed with, if any.
func (s *Session) OrderEmail(code string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.LastOrder == nil || s.data.LastOrder.Code != code {
		return ""
	}
	return s.data.LastOrder.Email
}

// Flush writes pending changes now instead of when the response is sent.
func (s *Session) Flush(ctx context.Context) error {
	data, fields := s.takeChanges()
	if fields == 0 || s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, s.id, data, fields); err != nil {
		s.mu.Lock()
		s.changed |= fields
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.persisted = true
	s.mu.Unlock()
	return nil
}

func (s *Session) wasPersisted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persisted
}

// takeChanges returns the data to persist with the fields changed since the
// last save, and resets them.
func (s *Session) takeChanges() (Data, Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := s.changed
	if fields == 0 {
		return Data{}, 0
	}
	s.changed = 0

	data := s.data
	if data.Credential != nil {
		c := *data.Credential
		data.Credential = &c
	}
	if data.LastOrder != nil {
		o := *data.LastOrder
		data.LastOrder = &o
	}
	return data, fields
}

type contextKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext is nil outside a browser request, e.g. in background work.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

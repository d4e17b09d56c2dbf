// Package dto holds the wire schema shared by the API and the web client,
// plus the mapping functions from the persistence models.
package dto

// CartSessionHeader carries the anonymous cart identity from the web client.
const CartSessionHeader = "X-Cart-Session-Id"

// RecaptchaProtected is implemented by requests that must pass bot verification.
type RecaptchaProtected interface {
	GetRecaptchaToken() string
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type StatusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

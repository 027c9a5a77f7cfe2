package service

import (
	"fmt"
	"net/http"
)

// Error is a client-safe service error. Description is the only text that
// reaches the response body.
type Error struct {
	Code        string
	Description string
	Status      int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func newError(code, desc string, status int) *Error {
	return &Error{Code: code, Description: desc, Status: status}
}

var (
	ErrInvalidCredentials = newError("invalid_credentials", "Incorrect username or password.", http.StatusUnauthorized)
	ErrUsernameTaken      = newError("username_taken", "Username already registered.", http.StatusConflict)
	ErrEmailTaken         = newError("email_taken", "Email already registered.", http.StatusConflict)
	ErrInvalidToken       = newError("invalid_token", "Invalid or expired token.", http.StatusUnauthorized)
	ErrUnauthenticated    = newError("unauthenticated", "Could not validate credentials.", http.StatusUnauthorized)
	ErrAccountDisabled    = newError("account_disabled", "Account is disabled.", http.StatusForbidden)
	ErrForbidden          = newError("forbidden", "Not enough permissions.", http.StatusForbidden)
	ErrProductNotFound    = newError("product_not_found", "Product not found.", http.StatusNotFound)
)

func invalidRequest(desc string) *Error {
	return newError("invalid_request", desc, http.StatusBadRequest)
}

func paymentFailed(desc string) *Error {
	return newError("payment_failed", desc, http.StatusBadRequest)
}

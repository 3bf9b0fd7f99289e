// Package identity defines the three-operation surface of the external
// identity provider consumed by the authentication gate: email sign-in,
// email sign-up, and session lookup.
//
// The provider owns session storage, token issuance, and cryptography.
// This package only models the request/response envelopes and ships an
// HTTP client ([HTTPClient]) speaking the provider's REST surface.
// A provider-declined attempt is data (an [Error] inside
// [AuthResponse]); only transport-level failures surface as Go errors.
package identity

import (
	"context"
	"net/http"
	"time"
)

// User is the provider's account record as exposed through the session
// and sign-in/sign-up payloads.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

// Session is the provider-confirmed proof of a prior successful
// authentication. The gate observes presence or absence only and never
// mutates it.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// Error is the provider's structured error payload. Code, when present,
// is one of the taxonomy's known values or an unrecognized string;
// Message is free text. Both are optional.
type Error struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// AuthData is the success payload of a sign-in or sign-up operation.
// Token is the opaque session token minted by the provider; the gate
// never stores it.
type AuthData struct {
	Token string `json:"token,omitempty"`
	User  User   `json:"user"`
}

// AuthResponse mirrors the provider's {data, error} envelope. Exactly
// one of Data and Err is set on a well-formed response.
type AuthResponse struct {
	Data *AuthData `json:"data,omitempty"`
	Err  *Error    `json:"error,omitempty"`
}

// SignInInput carries one email sign-in attempt. CallbackURL is the
// post-authentication destination the provider embeds in its flow.
type SignInInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackURL,omitempty"`
}

// SignUpInput carries one email sign-up attempt.
type SignUpInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackURL,omitempty"`
}

// Client is the identity-provider surface the gate depends on. It is
// stateless from the caller's perspective and safe for concurrent use
// by independent submissions.
//
// GetSession reports (nil, nil) when the request carries no active
// session; a non-nil error means the provider could not be consulted.
type Client interface {
	SignInEmail(ctx context.Context, in SignInInput) (*AuthResponse, error)
	SignUpEmail(ctx context.Context, in SignUpInput) (*AuthResponse, error)
	GetSession(ctx context.Context, headers http.Header) (*Session, error)
}

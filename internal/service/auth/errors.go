package auth

import "errors"

// Token validation errors. The middleware maps all of them to 401.
var (
	// ErrInvalidToken covers a malformed token, a bad signature, a token of
	// the wrong type and a token without an owner id.
	ErrInvalidToken = errors.New("invalid authentication token")

	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid means the nbf claim lies beyond the allowed clock skew.
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken means the request carried no bearer token at all.
	ErrMissingToken = errors.New("authentication token is missing")
)

package auth

import "errors"

var (
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrForbidden    = errors.New("auth: forbidden")
	ErrInvalidToken = errors.New("auth: invalid token")

	ErrMissingSignature = errors.New("auth: missing ingest signature")
	ErrInvalidTimestamp = errors.New("auth: invalid ingest timestamp")
	ErrSignatureExpired = errors.New("auth: ingest signature expired")
	ErrInvalidSignature = errors.New("auth: invalid ingest signature")
)

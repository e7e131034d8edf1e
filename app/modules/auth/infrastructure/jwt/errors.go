package authjwt

import "errors"

// Sentinels returned by Provider.ValidateToken. Callers match them with errors.Is.
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
)

package auth

import "errors"

var (
	ErrMissingSecret = errors.New("auth: signing secret is required")
	ErrMissingToken  = errors.New("auth: missing token")
	ErrInvalidToken  = errors.New("auth: invalid or expired token")
	ErrMissingUserID = errors.New("auth: token has no subject")
)

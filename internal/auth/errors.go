package auth

import "errors"

var (
	ErrMissingToken    = errors.New("please login to access this resource")
	ErrInvalidToken    = errors.New("access token is not valid")
	ErrTokenExpired    = errors.New("token expired")
	ErrSessionNotFound = errors.New("session not found, please login to access this resource")
)

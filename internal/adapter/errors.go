package adapter

import "errors"

var (
	ErrBadRequest          = errors.New("bad request")
	ErrInvalidCredentials  = errors.New("invalid login or password")
	ErrLoginAlreadyExists  = errors.New("login already exists")
	ErrInternalServerError = errors.New("internal server error")
	ErrEmptyAddress        = errors.New("empty record store address")
)

package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	ErrWrongPassword       = errors.New("wrong password")

	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrTokenCreationFailed     = errors.New("token creation failed")

	ErrVersionIsNotSpecified = errors.New("app version is not specified")

	// ErrValidation wraps every request validation failure so transport
	// layers can answer 400 without knowing the validator's sentinels.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable is returned when the database failed in a way
	// that may succeed on retry.
	ErrStoreUnavailable = errors.New("record store temporarily unavailable")
)

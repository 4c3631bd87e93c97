package domain

import "errors"

// Error taxonomy shared by the service and the adapters.
// Callers match with errors.Is; wrapped errors keep their cause.
var (
	ErrMalformedPath    = errors.New("malformed path")
	ErrBadRequest       = errors.New("bad request")
	ErrURITooLong       = errors.New("request-uri too long")
	ErrStoreUnavailable = errors.New("reputation store unavailable")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrDuplicateRecord  = errors.New("record already exists")
)

package constituent

import "errors"

// Sentinel errors for the constituent service layer.
var (
	ErrNotFound          = errors.New("constituent not found")
	ErrDuplicateKey      = errors.New("constituent email already exists")
	ErrUnknownFilter     = errors.New("unknown list filter")
	ErrInvalidPagination = errors.New("limit and offset must be non-negative integers")
)

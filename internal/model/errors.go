package model

import "errors"

// Error taxonomy for catalog and sale operations. Callers wrap these with
// fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrValidation        = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrMissingPrice      = errors.New("sale price was not saved in the pending sale step")
	ErrIntegrity         = errors.New("integrity violation")
	ErrNotFound          = errors.New("not found")
)

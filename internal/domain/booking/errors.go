package booking

import "errors"

var (
	ErrValidation              = errors.New("validation error")
	ErrUnauthenticated         = errors.New("unauthenticated")
	ErrForbidden               = errors.New("forbidden")
	ErrNotFound                = errors.New("not_found")
	ErrSlotTaken               = errors.New("slot already taken")
	ErrServiceSalonMismatch    = errors.New("service does not belong to this salon")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrPaymentDeclined         = errors.New("payment declined")
)

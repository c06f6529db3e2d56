package orders

import (
	"errors"
	"fmt"

	"github.com/01moynul/agritech-golang/internal/apperr"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPriceMismatch     = errors.New("price mismatch")
	ErrTotalMismatch     = errors.New("total mismatch")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotParticipant    = errors.New("not a participant of the order")
	ErrStatusChanged     = errors.New("order status changed concurrently")
)

func invalid(field string, sentinel error, format string, args ...any) error {
	return &apperr.Error{Kind: apperr.KindInvalid, Field: field, Message: fmt.Sprintf(format, args...), Err: sentinel}
}

func kindErr(kind apperr.Kind, sentinel error, format string, args ...any) error {
	return &apperr.Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: sentinel}
}

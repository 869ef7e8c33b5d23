package ledger

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the service wraps exactly one of them,
// so callers can branch with errors.Is.
var (
	ErrValidation  = errors.New("invalid input")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("storage failure")
)

var (
	ErrEmptyName           = fmt.Errorf("%w: name can't be empty", ErrValidation)
	ErrEmptyTitle          = fmt.Errorf("%w: title can't be empty", ErrValidation)
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidRate         = fmt.Errorf("%w: exchange rate must be positive", ErrValidation)
	ErrUnsupportedCurrency = fmt.Errorf("%w: unsupported currency", ErrValidation)
	ErrInvalidDate         = fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	ErrEmptyEmail          = fmt.Errorf("%w: email can't be empty", ErrValidation)
	ErrPayerNotMember      = fmt.Errorf("%w: payer is not a member of this group", ErrValidation)
	ErrInvalidPhotoURL     = fmt.Errorf("%w: photo url must be an http(s) url", ErrValidation)

	ErrAmountTooLarge  = fmt.Errorf("%w: at most 999999999999.99", ErrInvalidAmount)
	ErrAmountPrecision = fmt.Errorf("%w: at most 2 decimal places", ErrInvalidAmount)
	ErrRateTooLarge    = fmt.Errorf("%w: at most 9999999999.99999999", ErrInvalidRate)
	ErrRatePrecision   = fmt.Errorf("%w: at most 8 decimal places", ErrInvalidRate)

	ErrNotMember = fmt.Errorf("%w: not a member of this group", ErrForbidden)
	ErrNotAdmin  = fmt.Errorf("%w: only group admins can do this", ErrForbidden)

	ErrGroupNotFound   = fmt.Errorf("group %w", ErrNotFound)
	ErrExpenseNotFound = fmt.Errorf("expense %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// storeErr marks a store failure as a persistence error. Not-found errors
// from the store keep their kind.
func storeErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

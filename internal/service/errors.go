package service

import (
	"errors"
	"fmt"
)

// Categories handlers translate into HTTP statuses.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
)

var (
	ErrProductNotFound      = fmt.Errorf("product %w", ErrNotFound)
	ErrVariationNotFound    = fmt.Errorf("variation %w", ErrNotFound)
	ErrCartItemNotFound     = fmt.Errorf("cart item %w", ErrNotFound)
	ErrWishlistItemNotFound = fmt.Errorf("wishlist item %w", ErrNotFound)

	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	ErrProductInWishlist = fmt.Errorf("product %w in wishlist", ErrAlreadyExists)
	ErrDuplicateSKU      = fmt.Errorf("sku %w", ErrAlreadyExists)
	ErrNoVariations      = fmt.Errorf("%w: product needs at least one variation", ErrInvalidInput)
	ErrNegativeStock     = fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	ErrMissingPrice      = fmt.Errorf("%w: price is required", ErrInvalidInput)
	ErrNegativePrice     = fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	ErrQuantityTooLarge  = fmt.Errorf("%w: quantity exceeds the per-item limit", ErrInvalidInput)
)

// StockError reports a request for more units than a variation holds.
type StockError struct {
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("not enough stock, only %d available", e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// InternalError wraps a storage or transport failure. Its message is never
// shown to clients.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

var categories = []error{ErrNotFound, ErrInsufficientStock, ErrAlreadyExists, ErrInvalidInput, ErrInternal}

// classify passes categorised errors through and wraps anything else as an
// InternalError.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, c := range categories {
		if errors.Is(err, c) {
			return err
		}
	}
	return &InternalError{Op: op, Err: err}
}

// outcome is the metrics label for an operation result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	default:
		return "error"
	}
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrBusy         = errors.New("resource busy")
	ErrInternal     = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
// Details carries per-line messages for aggregate failures (checkout validation).
type AppError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	Status  int      `json:"-"`
	Err     error    `json:"-"`
}

func (e *AppError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Details, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error for an absent resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// NotInCart creates a 404 error for a product that is not in the cart.
func NotInCart(productID string) *AppError {
	return &AppError{
		Code:    "NOT_IN_CART",
		Message: fmt.Sprintf("product %s is not in the cart", productID),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// SoldOut creates a 409 error for a product with no remaining stock.
func SoldOut(name string) *AppError {
	return &AppError{
		Code:    "SOLD_OUT",
		Message: fmt.Sprintf("%s is sold out", name),
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// InsufficientStock creates a 409 error when the requested quantity exceeds live stock.
func InsufficientStock(name string, available int) *AppError {
	return &AppError{
		Code:    "INSUFFICIENT_STOCK",
		Message: fmt.Sprintf("only %d of %s left in stock", available, name),
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// SelfPurchase creates a 403 error for a seller buying their own product.
func SelfPurchase(name string) *AppError {
	return &AppError{
		Code:    "SELF_PURCHASE",
		Message: fmt.Sprintf("you cannot purchase your own product %s", name),
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// EmptyCart creates a 400 error for a checkout attempt on an empty cart.
func EmptyCart() *AppError {
	return &AppError{
		Code:    "EMPTY_CART",
		Message: "your cart is empty",
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// CartExpired creates a 410 error for a cart past its TTL.
func CartExpired() *AppError {
	return &AppError{
		Code:    "CART_EXPIRED",
		Message: "your cart has expired and was cleared",
		Status:  http.StatusGone,
		Err:     ErrInvalidInput,
	}
}

// InvalidQuantity creates a 400 error for a non-positive or unparsable quantity.
func InvalidQuantity(message string) *AppError {
	return &AppError{
		Code:    "INVALID_QUANTITY",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// InvalidStatus creates a 400 error for a value outside the allowed status enum.
func InvalidStatus(status string) *AppError {
	return &AppError{
		Code:    "INVALID_STATUS",
		Message: fmt.Sprintf("%q is not a valid status", status),
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// PermissionDenied creates a 403 error for an unauthorized principal.
func PermissionDenied(message string) *AppError {
	return &AppError{
		Code:    "PERMISSION_DENIED",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// InvalidInput creates a generic 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Busy creates a 503 error for lock contention; the caller may retry.
func Busy(message string) *AppError {
	return &AppError{
		Code:    "BUSY",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrBusy,
	}
}

// Aborted creates a 409 error aggregating all checkout validation failures.
func Aborted(violations []string) *AppError {
	return &AppError{
		Code:    "CHECKOUT_ABORTED",
		Message: "checkout validation failed",
		Details: violations,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Internal creates a 500 error wrapping an unexpected fault.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Package apperror provides structured business errors.
// Every error surfaced by a domain service is an *AppError so the HTTP layer
// can map it to a status code and the POS front end gets machine-readable details.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Error codes.
const (
	// Infrastructure (5xx)
	CodeInternal        = "INTERNAL_ERROR"
	CodeDatabase        = "DATABASE_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"

	// Validation (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeBusinessRule        = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeCreditLimitExceeded = "CREDIT_LIMIT_EXCEEDED"
	CodePaymentMismatch     = "PAYMENT_MISMATCH"
	CodeSaleNotReversible   = "SALE_NOT_REVERSIBLE"

	// Concurrency (409)
	CodeConflict               = "CONFLICT"
	CodeDuplicate              = "DUPLICATE_ENTRY"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the platform.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field names, quantities, headroom)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400). Rejected before any mutation.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422).
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInsufficientStock is returned when an exit would drive stock negative.
// Exits are rejected, never clamped: over-selling must be visible at the till.
func NewInsufficientStock(productID string, requested, available float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewCreditLimitExceeded is returned when a fiado sale would push customer
// debt above the credit limit. Carries the exact headroom for the POS message.
func NewCreditLimitExceeded(customerID string, available decimal.Decimal) *AppError {
	return &AppError{
		Code:       CodeCreditLimitExceeded,
		Message:    fmt.Sprintf("Limite de crédito excedido! Disponível: R$ %s", available.StringFixed(2)),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"customer_id": customerID,
			"available":   available.StringFixed(2),
		},
	}
}

// NewPaymentMismatch is returned when a split payment does not sum to the sale total.
func NewPaymentMismatch(total, paid decimal.Decimal) *AppError {
	return &AppError{
		Code:       CodePaymentMismatch,
		Message:    "Payment breakdown does not match sale total",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"total": total.StringFixed(2),
			"paid":  paid.StringFixed(2),
		},
	}
}

// NewConcurrentModification creates an optimistic locking error (409).
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another terminal. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409).
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewExternalService wraps a failure of an external collaborator (printer, store).
func NewExternalService(service string, err error) *AppError {
	return &AppError{
		Code:       CodeExternalService,
		Message:    "External service failure",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"service": service},
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403).
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// --- Helpers ---

// IsAppError checks if error is AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsInsufficientStock checks if error is CodeInsufficientStock.
func IsInsufficientStock(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeInsufficientStock
	}
	return false
}

// IsCreditLimitExceeded checks if error is CodeCreditLimitExceeded.
func IsCreditLimitExceeded(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeCreditLimitExceeded
	}
	return false
}

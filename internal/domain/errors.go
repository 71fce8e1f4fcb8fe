package domain

import (
	"fmt"
	"strings"
)

// Error taxonomy. Every failure a caller can act on is one of these types;
// persistence errors are wrapped with context and re-thrown as-is.

// ValidationError carries every failing reason collected at the operation
// boundary, not just the first one.
type ValidationError struct {
	Reasons []string
}

func NewValidationError(reasons ...string) *ValidationError {
	return &ValidationError{Reasons: reasons}
}

func (e *ValidationError) Error() string {
	if len(e.Reasons) == 1 {
		return e.Reasons[0]
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Reasons, "; "))
}

type NotFoundError struct {
	Entity string
	Key    string
}

func NewNotFoundError(entity, keyFormat string, args ...any) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: fmt.Sprintf(keyFormat, args...)}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s[%s] not found", e.Entity, e.Key)
}

type ConflictError struct {
	Message string
}

func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func (e *ConflictError) Error() string {
	return e.Message
}

// InsufficientStockError reports the quantity still available so the caller
// can surface it.
type InsufficientStockError struct {
	VariantID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant[%d]: requested %d, available %d",
		e.VariantID, e.Requested, e.Available)
}

// InvalidTransitionError reports the allowed target set so the caller can
// degrade gracefully.
type InvalidTransitionError struct {
	From    OrderStatus
	To      OrderStatus
	Allowed []OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("cannot transition from %s to %s, allowed: [%s]",
		e.From, e.To, strings.Join(allowed, ", "))
}

type AuthorizationError struct {
	Message string
}

func NewAuthorizationError(format string, args ...any) *AuthorizationError {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated: no or invalid identity proof supplied.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotOwner: caller authenticated but does not own the resource.
	ErrNotOwner = errors.New("caller does not own this resource")

	// ErrNotFound: slug or item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSlugTaken: creation collides with another owner's slug.
	ErrSlugTaken = errors.New("slug already taken by another wallet")

	// ErrNotGated: reveal requested for an item that is not token gated
	// or has no stored URL.
	ErrNotGated = errors.New("item is not token gated")

	// ErrInsufficientBalance: the balance check ran and the caller does
	// not meet the threshold. A legitimate negative result, distinct from
	// ErrOracleUnavailable.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrOracleUnavailable: the balance-check upstream failed after
	// retries. Blocks only the gated action, never page viewing.
	ErrOracleUnavailable = errors.New("balance oracle unavailable")

	// ErrStoreUnavailable: the persistence backend failed.
	ErrStoreUnavailable = errors.New("page store unavailable")

	// ErrVersionConflict: optimistic-locking mismatch on write.
	ErrVersionConflict = errors.New("page version conflict")
)

// ValidationError carries field-level detail; safe to expose to callers.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) add(field, reason string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = reason
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

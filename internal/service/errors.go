package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrForbidden means the actor is known to the board but may not do this.
var ErrForbidden = errors.New("forbidden")

// ErrNotMember means the actor has never been granted access to the board.
// It wraps ErrForbidden, so errors.Is(err, ErrForbidden) holds for both.
var ErrNotMember = fmt.Errorf("not a board member: %w", ErrForbidden)

type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func notFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// ValidationError is a request that is well-formed but not acceptable in the
// current state. Fields maps a request field to its messages.
type ValidationError struct {
	Fields map[string][]string
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "Missing data for required field.")
	}
	return nil
}

package service

import (
	"errors"
	"fmt"
)

var (
	// ErrExpired is returned for a link whose expiry is in the past.
	ErrExpired = errors.New("short link has expired")
	// ErrCodeGeneration means every allowed attempt produced an existing short id.
	ErrCodeGeneration = errors.New("failed to generate a unique short id")
)

// ValidationError describes bad client input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

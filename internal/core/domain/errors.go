package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrCodecWrite      = errors.New("codec write failure")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotAZip         = errors.New("not a zip archive")
	ErrExternal        = errors.New("external tool failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

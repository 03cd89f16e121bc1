// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ifd

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader is returned when the byte order mark or the magic number is invalid.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrMalformedEntry is returned when an IFD entry cannot be valid, e.g. a negative count.
	ErrMalformedEntry = errors.New("malformed entry")

	// ErrOutOfRange is returned when a 64-bit unsigned value does not fit in an int64.
	ErrOutOfRange = errors.New("value out of range")

	// ErrIOFailure is returned on short reads and failed seeks.
	ErrIOFailure = errors.New("i/o failure")

	// ErrUnsupportedPointerType is returned when an IFD pointer entry does not hold an unsigned integer scalar.
	ErrUnsupportedPointerType = errors.New("unsupported pointer type")

	// ErrCyclicStructure is returned when an IFD offset is visited twice or the nesting is too deep.
	ErrCyclicStructure = errors.New("cyclic structure")

	// ErrLimitExceeded is returned when one of the limits in Options is exceeded.
	ErrLimitExceeded = errors.New("limit exceeded")
)

// InvalidFormatError is used when the format is invalid.
type InvalidFormatError struct {
	Err error
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("ifd: invalid format: %v", e.Err)
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

// IsInvalidFormat reports whether the error was an InvalidFormatError.
func IsInvalidFormat(err error) bool {
	var e *InvalidFormatError
	return errors.As(err, &e)
}

func newInvalidFormatError(err error) error {
	if IsInvalidFormat(err) {
		return err
	}
	return &InvalidFormatError{Err: err}
}

func newInvalidFormatErrorf(format string, args ...any) error {
	return newInvalidFormatError(fmt.Errorf(format, args...))
}

// isRecoverable reports whether err only invalidates the sub-directory being expanded.
func isRecoverable(err error) bool {
	return errors.Is(err, ErrMalformedEntry) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrUnsupportedPointerType) ||
		errors.Is(err, ErrLimitExceeded)
}

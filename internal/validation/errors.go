// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package validation holds the single caller-visible error kind returned by
// the invitation and membership workflows.
package validation

import (
	"errors"
	"fmt"
)

// Error is a synchronous, human readable rejection of a request. It is never
// retried automatically.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func New(reason string) error {
	return &Error{Reason: reason}
}

func Newf(format string, args ...interface{}) error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether any error in err's chain is a validation Error.
func IsValidationError(err error) bool {
	var vErr *Error
	return errors.As(err, &vErr)
}

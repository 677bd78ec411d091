// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Domain-rule violations. These are reported to the caller as distinguishable
// rejections rather than masked as internal failures.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionInactive  = errors.New("session is inactive")
	ErrMessageNotFound  = errors.New("message not found")
	ErrNoMessages       = errors.New("no messages in session")
	ErrNoKey            = errors.New("no quantum key generated")
	ErrKeyExpired       = errors.New("quantum key expired")
	ErrInvalidMethod    = errors.New("invalid encryption method")
	ErrInvalidSender    = errors.New("invalid sender role")
	ErrInvalidBitLength = errors.New("bit length must be positive")
	ErrInvalidFormat    = errors.New("invalid export format")
)

// Is reports whether err matches target, re-exported so callers only import
// this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

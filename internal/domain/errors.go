package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a wallet session.
	ErrNotAuthenticated = errors.New("please login first")
	// ErrWalletUnavailable indicates the selected wallet transport is not installed or configured.
	ErrWalletUnavailable = errors.New("wallet not detected")
	// ErrUnknownMethod is returned for an auth method with no backend.
	ErrUnknownMethod = errors.New("unknown auth method")
	// ErrMissingCredentials indicates the pinning service has no credentials.
	ErrMissingCredentials = errors.New("pinata jwt not configured")
	// ErrTooLarge is returned for media above the configured upload limit.
	ErrTooLarge = errors.New("file too large")
)

// AuthError reports a failed login or session operation.
type AuthError struct {
	Method AuthMethod
	Err    error
}

func (e *AuthError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("login failed: %v", e.Err)
	}
	return fmt.Sprintf("%s wallet login failed: %v", e.Method.Label(), e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// PaymentError reports a failed transaction construction, signature or broadcast.
type PaymentError struct {
	Action string
	Err    error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment %s failed: %v", e.Action, e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }

// UploadError reports a failed media pin.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("upload failed: %v", e.Err)
	}
	return fmt.Sprintf("upload %s failed: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

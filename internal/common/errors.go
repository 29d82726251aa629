// Package common defines shared constants and sentinel errors used across
// client and server layers of InstaChat. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks user input that is rejected locally. It is reported
	// as a short notice and never retried.
	ErrValidation = errors.New("validation error")

	ErrUsernameEmpty     = fmt.Errorf("%w: please enter a username", ErrValidation)
	ErrUsernameTaken     = fmt.Errorf("%w: this username is taken, please try another", ErrValidation)
	ErrNoActiveChannel   = fmt.Errorf("%w: no channel selected", ErrValidation)
	ErrAlreadyRegistered = fmt.Errorf("%w: already registered", ErrValidation)

	// ErrEmptyMessage is returned by the transaction composer for a blank
	// body. The session treats it as a silent no-op.
	ErrEmptyMessage = errors.New("empty message")

	// ErrNotAuthenticated means no local identity could be resolved.
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrRegistrationRequired means the local identity does not match any
	// known user, e.g. it outlived the store that created it.
	ErrRegistrationRequired = fmt.Errorf("%w: registration required", ErrNotAuthenticated)

	// ErrStorageAccess wraps failures of the local identity backends.
	ErrStorageAccess = errors.New("local storage access error")

	// ErrStoreTransport wraps subscribe/transact failures of the remote store.
	ErrStoreTransport = errors.New("store transport error")

	// ErrInvalidOp is returned by stores for malformed operations or queries.
	ErrInvalidOp = errors.New("invalid operation")
)

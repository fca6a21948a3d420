package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the session manager and authorization engine.
var (
	// ErrInvalidCredentials covers unknown usernames, wrong passwords, and
	// login races; callers must not be able to tell which one occurred.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates no valid session or remember token.
	ErrUnauthenticated = errors.New("not logged in")
	// ErrBanned indicates the account has an active ban.
	ErrBanned = errors.New("account banned")
	// ErrConflict indicates a duplicate username or token.
	ErrConflict = errors.New("already exists")
	// ErrReservedUsername indicates the username is on the blocked list.
	ErrReservedUsername = errors.New("username is reserved")
	// ErrRegistrationClosed indicates the bootstrap account already exists.
	ErrRegistrationClosed = errors.New("registration is closed")
	// ErrNotFound indicates the target entity vanished mid-operation.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("invalid input")
	// ErrSelfAction indicates a destructive action aimed at the actor's own account.
	ErrSelfAction = errors.New("cannot act on own account")
	// ErrPrivilege indicates the target has equal or higher privilege than the actor.
	ErrPrivilege = errors.New("insufficient privilege over target")
)

// BannedError carries the stored ban reason through the denial path.
type BannedError struct {
	Reason string
}

// Error implements the error interface.
func (e *BannedError) Error() string {
	if e.Reason == "" {
		return "account banned"
	}
	return fmt.Sprintf("account banned: %s", e.Reason)
}

// Is makes errors.Is(err, ErrBanned) match.
func (e *BannedError) Is(target error) bool {
	return target == ErrBanned
}

// OpResult reports the outcome of a bulk operation without raising.
type OpResult struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

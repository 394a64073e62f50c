package agents

import "errors"

var (
	// ErrNotFound means an agent/session/proposal id did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied means a promote/demote without authorization.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrTransient means the store or cache was unavailable; callers may retry.
	ErrTransient = errors.New("transient backend error")
	// ErrInvalidState means a transition past the end of the maturity ladder.
	ErrInvalidState = errors.New("invalid state transition")
)

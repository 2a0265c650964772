package domain

import "errors"

// Store-level errors
var (
	ErrDuplicate      = errors.New("duplicate record")
	ErrTooManyRecords = errors.New("too many records returned")
)

// Caller input errors
var (
	ErrInput = errors.New("invalid input")
)

// Not-found errors, one per collection
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrGroupNotFound = errors.New("group not found")
	ErrAppNotFound   = errors.New("app not found")
)

// Action errors: valid input conflicting with current state
var (
	ErrUserAction  = errors.New("user action conflict")
	ErrGroupAction = errors.New("group action conflict")
	ErrAppAction   = errors.New("app action conflict")
)

// Authorization and session errors
var (
	ErrAccessDenied = errors.New("access denied")
	ErrStaleRefresh = errors.New("refresh token superseded")
)

// ErrNotification is surfaced when an outbound notification fails. The
// entity change that triggered it has already committed and is never
// rolled back.
var ErrNotification = errors.New("notification failed")

package punch

import "errors"

var (
	// ErrInvalidTransition wraps every state machine precondition failure.
	ErrInvalidTransition = errors.New("invalid punch transition")

	ErrAlreadyClockedIn = errors.New("you are already clocked in")
	ErrNoActiveSession  = errors.New("no active session")
	ErrEndBreakFirst    = errors.New("end your break before clocking out")
	ErrAlreadyOnBreak   = errors.New("you are already on a break")
	ErrNotOnBreak       = errors.New("you are not on a break")

	// ErrConfirmationRequired is not a failure: the caller should retry with Force set.
	ErrConfirmationRequired = errors.New("a punch was recorded less than a minute ago, confirmation required")

	ErrInvalidPunchType = errors.New("invalid punch type")
	ErrEventNotFound    = errors.New("punch event not found")
)

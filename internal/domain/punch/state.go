package punch

import "fmt"

// Next validates a punch of type t from state s and returns the resulting state.
// Every rejection wraps ErrInvalidTransition together with a specific reason.
func (s State) Next(t Type) (State, error) {
	var reason error
	switch t {
	case TypeIn:
		if s == StateIdle {
			return StateWorking, nil
		}
		reason = ErrAlreadyClockedIn
	case TypeOut:
		switch s {
		case StateWorking:
			return StateIdle, nil
		case StateOnBreak:
			reason = ErrEndBreakFirst
		default:
			reason = ErrNoActiveSession
		}
	case TypeBreakStart:
		switch s {
		case StateWorking:
			return StateOnBreak, nil
		case StateOnBreak:
			reason = ErrAlreadyOnBreak
		default:
			reason = ErrNoActiveSession
		}
	case TypeBreakEnd:
		switch s {
		case StateOnBreak:
			return StateWorking, nil
		case StateWorking:
			reason = ErrNotOnBreak
		default:
			reason = ErrNoActiveSession
		}
	default:
		return s, ErrInvalidPunchType
	}
	return s, fmt.Errorf("%w: %w", ErrInvalidTransition, reason)
}

package punch

import (
	"context"
)

// PunchService is the live punch clock.
type PunchService interface {
	// SubmitPunch validates the transition, applies the duplicate-punch guard and appends one event.
	SubmitPunch(ctx context.Context, req SubmitPunchRequest) (PunchResponse, error)

	// GetStatus returns the current state and live elapsed time of the open session.
	GetStatus(ctx context.Context, userID string, orgID string) (StatusResponse, error)
}

package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, organization.ErrManagerAccessRequired):
		Forbidden(w, err.Error())

	// Input
	case errors.Is(err, calendar.ErrMalformedInput):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, punch.ErrInvalidPunchType):
		BadRequest(w, err.Error(), nil)

	// Punch clock
	case errors.Is(err, punch.ErrInvalidTransition):
		Conflict(w, transitionMessage(err))
	case errors.Is(err, punch.ErrConfirmationRequired):
		PreconditionRequired(w, "CONFIRMATION_REQUIRED", err.Error())

	// Timesheet
	case errors.Is(err, timesheet.ErrWeekendNotAllowed),
		errors.Is(err, timesheet.ErrDateOutsideWeek),
		errors.Is(err, timesheet.ErrDeficitReasonRequired):
		UnprocessableEntity(w, err.Error())
	case errors.Is(err, timesheet.ErrWeekLocked),
		errors.Is(err, timesheet.ErrWeekNotSubmitted):
		Conflict(w, err.Error())

	// Not found
	case errors.Is(err, organization.ErrOrganizationNotFound),
		errors.Is(err, organization.ErrMemberNotFound),
		errors.Is(err, punch.ErrEventNotFound),
		errors.Is(err, timesheet.ErrWeekNotFound),
		errors.Is(err, timesheet.ErrActivityNotFound),
		errors.Is(err, timesheet.ErrCellNotFound),
		errors.Is(err, kpi.ErrSnapshotNotFound):
		NotFound(w, err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

// transitionMessage returns the specific reason of a rejected punch.
func transitionMessage(err error) string {
	for _, reason := range []error{
		punch.ErrAlreadyClockedIn,
		punch.ErrEndBreakFirst,
		punch.ErrNoActiveSession,
		punch.ErrAlreadyOnBreak,
		punch.ErrNotOnBreak,
	} {
		if errors.Is(err, reason) {
			return reason.Error()
		}
	}
	return err.Error()
}

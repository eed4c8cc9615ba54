package punch

import (
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

type SubmitPunchRequest struct {
	UserID string  `json:"-"`
	OrgID  string  `json:"-"`
	Type   Type    `json:"type"`
	Note   *string `json:"note,omitempty"`
	Force  bool    `json:"force"`
	Geo    *Geo    `json:"geo,omitempty"`
}

func (r *SubmitPunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if validator.IsEmpty(r.OrgID) {
		errs = append(errs, validator.ValidationError{
			Field:   "org_id",
			Message: "org_id is required",
		})
	}

	if !r.Type.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of IN, OUT, BREAK_START, BREAK_END",
		})
	}

	if r.Note != nil && !validator.MaxLength(*r.Note, 500) {
		errs = append(errs, validator.ValidationError{
			Field:   "note",
			Message: "note must be at most 500 characters",
		})
	}

	if r.Geo != nil {
		if r.Geo.Lat < -90 || r.Geo.Lat > 90 {
			errs = append(errs, validator.ValidationError{
				Field:   "geo.lat",
				Message: "lat must be between -90 and 90",
			})
		}
		if r.Geo.Lng < -180 || r.Geo.Lng > 180 {
			errs = append(errs, validator.ValidationError{
				Field:   "geo.lng",
				Message: "lng must be between -180 and 180",
			})
		}
		if r.Geo.RadiusMeters < 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "geo.radius_meters",
				Message: "radius_meters must not be negative",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PunchResponse struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	OrgID          string  `json:"org_id"`
	Type           Type    `json:"type"`
	Timestamp      string  `json:"timestamp"`       // RFC3339, UTC
	LocalTimestamp string  `json:"local_timestamp"` // RFC3339, organization timezone
	Note           *string `json:"note,omitempty"`
	Geo            *Geo    `json:"geo,omitempty"`
	State          State   `json:"state"`

	// Set only when the punch carries its own geo and the organization has a geofence.
	GeofenceDistanceMeters *float64 `json:"geofence_distance_meters,omitempty"`
	OutsideGeofence        *bool    `json:"outside_geofence,omitempty"`
}

type StatusResponse struct {
	UserID         string  `json:"user_id"`
	State          State   `json:"state"`
	SessionStart   *string `json:"session_start,omitempty"`
	BreakStart     *string `json:"break_start,omitempty"`
	ElapsedMinutes int     `json:"elapsed_minutes"`
	LastPunchAt    *string `json:"last_punch_at,omitempty"`
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type TimesheetHandler interface {
	GetWeek(w http.ResponseWriter, r *http.Request)
	UpsertCell(w http.ResponseWriter, r *http.Request)
	RemoveCell(w http.ResponseWriter, r *http.Request)
	RemoveActivityCode(w http.ResponseWriter, r *http.Request)
	SendDay(w http.ResponseWriter, r *http.Request)
	AutoSend(w http.ResponseWriter, r *http.Request)
	AddWeekendOverride(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
}

type timesheetHandlerImpl struct {
	timesheetService timesheet.TimesheetService
}

func NewTimesheetHandler(timesheetService timesheet.TimesheetService) TimesheetHandler {
	return &timesheetHandlerImpl{
		timesheetService: timesheetService,
	}
}

// weekRequest resolves the week from the path. Managers may act on another
// member's week with ?user_id=.
func (h *timesheetHandlerImpl) weekRequest(w http.ResponseWriter, r *http.Request) (timesheet.WeekRequest, bool) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return timesheet.WeekRequest{}, false
	}

	userID := identity.UserID
	if target := r.URL.Query().Get("user_id"); target != "" && target != identity.UserID {
		if !identity.Role.CanManage() {
			response.HandleError(w, organization.ErrManagerAccessRequired)
			return timesheet.WeekRequest{}, false
		}
		userID = target
	}

	return timesheet.WeekRequest{
		UserID:    userID,
		OrgID:     identity.OrgID,
		WeekStart: chi.URLParam(r, "weekStart"),
	}, true
}

// decodeBody decodes an optional JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		slog.Debug("Failed to decode timesheet request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

func (h *timesheetHandlerImpl) respond(w http.ResponseWriter, result timesheet.WeekResponse, err error) {
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// GetWeek implements TimesheetHandler.
func (h *timesheetHandlerImpl) GetWeek(w http.ResponseWriter, r *http.Request) {
	week, ok := h.weekRequest(w, r)
	if !ok {
		return
	}

	result, err := h.timesheetService.GetWeek(r.Context(), week)
	h.respond(w, result, err)
}

// UpsertCell implements TimesheetHandler.
func (h *timesheetHandlerImpl) UpsertCell(w http.ResponseWriter, r *http.Request) {
	week, ok := h.weekRequest(w, r)
	if !ok {
		return
	}

	var req timesheet.UpsertCellRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.WeekRequest = week

	result, err := h.timesheetService.UpsertCell(r.Context(), req)
	h.respond(w, result, err)
}

// RemoveCell implements TimesheetHandler.
func (h *timesheetHandlerImpl) RemoveCell(w http.ResponseWriter, r *http.Request) {
	week, ok := h.weekRequest(w, r)
	if !ok {
		return
	}

	req := timesheet.RemoveCellRequest{
		WeekRequest:  week,
		ActivityCode: chi.URLParam(r, "code"),
		Date:         chi.URLParam(r, "date"),
	}

	result, err := h.timesheetService.RemoveCell(r.Context(), req)
	h.respond(w, result, err)
}

// RemoveActivityCode implements TimesheetHandler.
func (h *timesheetHandlerImpl) RemoveActivityCode(w http.ResponseWriter, r *http.Request) {
	week, ok := h.weekRequest(w, r)
	if !ok {
		return
	}

	req := timesheet.RemoveActivityRequest{
		WeekRequest:  week,
		ActivityCode: chi.URLParam(r, "code"),
	}

	result, err := h.timesheetService.RemoveActivityCode(r.Context(), req)
	h.respond(w, result, err)
}

// SendDay implements TimesheetHandler.
func (h *timesheetHandlerImpl) SendDay(w http.ResponseWriter, r *http.Request) {
	week, ok := h.weekRequest(w, r)
	if !ok {
		return
	}

	var req timesheet.SendDayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.WeekRequest = week

	result, err := h.timesheetService.SendDay(r.Context(), req)
	h.respond(w, result, err)
}

// AutoSend implements TimesheetHandler.
func (h *timesheetHandlerImpl) AutoSend(w http.ResponseWriter, r *http.Request) {
	week, ok := h.weekRequest(w, r)
	if !ok {
		return
	}

	result, err := h.timesheetService.AutoSendWeek(r.Context(), week)
	h.respond(w, result, err)
}

// AddWeekendOverride implements TimesheetHandler.
func (h *timesheetHandlerImpl) AddWeekendOverride(w http.ResponseWriter, r *http.Request) {
	week, ok := h.weekRequest(w, r)
	if !ok {
		return
	}

	var req timesheet.OverrideRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.WeekRequest = week

	result, err := h.timesheetService.AddWeekendOverride(r.Context(), req)
	h.respond(w, result, err)
}

// Approve implements TimesheetHandler. The route is manager-only and the
// member is named by ?user_id=.
func (h *timesheetHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("user_id") == "" {
		response.BadRequest(w, "user_id query parameter is required", nil)
		return
	}
	week, ok := h.weekRequest(w, r)
	if !ok {
		return
	}

	result, err := h.timesheetService.ApproveWeek(r.Context(), week)
	h.respond(w, result, err)
}

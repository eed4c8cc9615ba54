package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
)

type KPIHandler interface {
	Snapshot(w http.ResponseWriter, r *http.Request)
	Teams(w http.ResponseWriter, r *http.Request)
	Dates(w http.ResponseWriter, r *http.Request)
	Weekly(w http.ResponseWriter, r *http.Request)
	Live(w http.ResponseWriter, r *http.Request)
}

type kpiHandlerImpl struct {
	kpiService kpi.KPIService
}

func NewKPIHandler(kpiService kpi.KPIService) KPIHandler {
	return &kpiHandlerImpl{
		kpiService: kpiService,
	}
}

// rangeRequest reads ?from=&to= for the caller's organization.
func (h *kpiHandlerImpl) rangeRequest(w http.ResponseWriter, r *http.Request) (kpi.RangeRequest, bool) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return kpi.RangeRequest{}, false
	}
	return kpi.RangeRequest{
		OrgID: identity.OrgID,
		From:  r.URL.Query().Get("from"),
		To:    r.URL.Query().Get("to"),
	}, true
}

// Snapshot implements KPIHandler.
func (h *kpiHandlerImpl) Snapshot(w http.ResponseWriter, r *http.Request) {
	req, ok := h.rangeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.kpiService.GetSnapshot(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Teams implements KPIHandler.
func (h *kpiHandlerImpl) Teams(w http.ResponseWriter, r *http.Request) {
	req, ok := h.rangeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.kpiService.GetTeamBreakdown(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Dates implements KPIHandler.
func (h *kpiHandlerImpl) Dates(w http.ResponseWriter, r *http.Request) {
	req, ok := h.rangeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.kpiService.GetDateBreakdown(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Weekly implements KPIHandler.
func (h *kpiHandlerImpl) Weekly(w http.ResponseWriter, r *http.Request) {
	req, ok := h.rangeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.kpiService.GetWeeklyRows(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Live implements KPIHandler.
func (h *kpiHandlerImpl) Live(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	result, err := h.kpiService.GetLiveBoard(r.Context(), identity.OrgID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

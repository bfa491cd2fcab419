package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/api/dto"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/ports"
)

type ScheduleHandler struct {
	Service ports.ItineraryService
}

// UpdateStop stores new absolute bounds for one stop. The response carries
// conflict info when the edit leaves time order and route order disagreeing.
func (h *ScheduleHandler) UpdateStop(w http.ResponseWriter, r *http.Request) {
	routeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	routePlaceID, err := pathID(r, "routePlaceId")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.StopScheduleRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	switch domain.StopType(req.StopType) {
	case domain.StopTypeOvernight, domain.StopTypeDayStop, domain.StopTypeWaypoint:
	default:
		writeError(w, r, http.StatusBadRequest, "stop_type must be overnight, day_stop, or waypoint")
		return
	}
	if req.PlannedStart.IsZero() {
		writeError(w, r, http.StatusBadRequest, "planned_start is required")
		return
	}
	if !req.PlannedEnd.IsZero() && !req.PlannedEnd.After(req.PlannedStart) {
		writeError(w, r, http.StatusBadRequest, "planned_end must be after planned_start")
		return
	}

	info, err := h.Service.UpdateStopSchedule(r.Context(), routeID, routePlaceID, ports.StopScheduleUpdate{
		StopType:            domain.StopType(req.StopType),
		PlannedStart:        req.PlannedStart,
		PlannedEnd:          req.PlannedEnd,
		StayNights:          req.StayNights,
		StayDurationMinutes: req.StayDurationMinutes,
		IsStartLocked:       req.IsStartLocked,
		IsEndLocked:         req.IsEndLocked,
	})
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "stop not found")
		return
	}
	if err != nil {
		log.Printf("update stop schedule failed: route=%d stop=%d err=%v", routeID, routePlaceID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ScheduleResponse{
		Status:    "ok",
		Conflicts: toConflictResponse(info),
	})
}

// UpdateLeg stores new time bounds for one travel leg. Distance and duration
// are owned by the routing service and cannot be edited here.
func (h *ScheduleHandler) UpdateLeg(w http.ResponseWriter, r *http.Request) {
	routeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	legID, err := pathID(r, "legId")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.LegScheduleRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.PlannedStart.IsZero() || req.PlannedEnd.IsZero() {
		writeError(w, r, http.StatusBadRequest, "planned_start and planned_end are required")
		return
	}
	if !req.PlannedEnd.After(req.PlannedStart) {
		writeError(w, r, http.StatusBadRequest, "planned_end must be after planned_start")
		return
	}

	err = h.Service.UpdateLegSchedule(r.Context(), routeID, legID, ports.LegScheduleUpdate{
		PlannedStart: req.PlannedStart,
		PlannedEnd:   req.PlannedEnd,
	})
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "leg not found")
		return
	}
	if err != nil {
		log.Printf("update leg schedule failed: route=%d leg=%d err=%v", routeID, legID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ScheduleResponse{Status: "ok"})
}

// Reorder rewrites the route's canonical sequence to match the current
// scheduled times and rebuilds the legs for the new order.
func (h *ScheduleHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	routeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.ResolveConflictByReorder(r.Context(), routeID); err != nil {
		log.Printf("reorder by timeline failed: route=%d err=%v", routeID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ScheduleResponse{Status: "ok"})
}

// RebuildLegs recreates travel segments from the current route order.
func (h *ScheduleHandler) RebuildLegs(w http.ResponseWriter, r *http.Request) {
	routeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.RebuildLegs(r.Context(), routeID); err != nil {
		log.Printf("rebuild legs failed: route=%d err=%v", routeID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ScheduleResponse{Status: "ok"})
}

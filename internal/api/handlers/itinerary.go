package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/api/dto"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/ports"
)

type ItineraryHandler struct {
	Service ports.ItineraryService
}

// Get returns the route's stops and legs in route order. With ?conflicts=1 the
// response also reports any disagreement between time order and route order.
func (h *ItineraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	routeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var (
		it        *domain.Itinerary
		conflicts *dto.ConflictInfoResponse
	)
	if r.URL.Query().Get("conflicts") == "1" {
		var info domain.ConflictInfo
		it, info, err = h.Service.GetItineraryWithConflicts(r.Context(), routeID)
		if err == nil {
			conflicts = toConflictResponse(&info)
		}
	} else {
		it, err = h.Service.GetItinerary(r.Context(), routeID)
	}

	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "route not found")
		return
	}
	if err != nil {
		log.Printf("get itinerary failed: route=%d err=%v", routeID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := toItineraryResponse(it)
	res.Conflicts = conflicts
	writeJSON(w, r, http.StatusOK, res)
}

func toItineraryResponse(it *domain.Itinerary) dto.ItineraryResponse {
	res := dto.ItineraryResponse{
		Route: dto.RouteResponse{
			RouteID:       it.Route.RouteID,
			Name:          it.Route.Name,
			StartDateTime: it.Route.StartDateTime,
		},
		Stops: make([]dto.StopResponse, 0, len(it.Stops)),
		Legs:  make([]dto.LegResponse, 0, len(it.Legs)),
	}

	for _, s := range it.Stops {
		res.Stops = append(res.Stops, dto.StopResponse{
			RoutePlaceID:        s.RoutePlaceID,
			PlaceID:             s.PlaceID,
			Name:                s.Name,
			Lon:                 s.Coords.Lon,
			Lat:                 s.Coords.Lat,
			OrderIndex:          s.OrderIndex,
			StopType:            string(s.Type),
			PlannedStart:        s.PlannedStart,
			PlannedEnd:          optionalTime(s.PlannedEnd),
			StayNights:          s.StayNights,
			StayDurationMinutes: s.StayDurationMinutes,
			IsStartLocked:       s.StartLocked,
			IsEndLocked:         s.EndLocked,
		})
	}

	for _, l := range it.Legs {
		res.Legs = append(res.Legs, dto.LegResponse{
			LegID:            l.LegID,
			FromRoutePlaceID: l.FromRoutePlaceID,
			ToRoutePlaceID:   l.ToRoutePlaceID,
			DistanceMeters:   l.DistanceMeters,
			DurationSeconds:  l.DurationSeconds,
			PlannedStart:     optionalTime(l.PlannedStart),
			PlannedEnd:       optionalTime(l.PlannedEnd),
		})
	}

	return res
}

func toConflictResponse(info *domain.ConflictInfo) *dto.ConflictInfoResponse {
	if info == nil {
		return nil
	}
	res := &dto.ConflictInfoResponse{HasConflict: info.HasConflict}
	for _, c := range info.ConflictingStops {
		res.ConflictingStops = append(res.ConflictingStops, dto.ConflictingStopResponse{
			RoutePlaceID:      c.RoutePlaceID,
			PlaceName:         c.PlaceName,
			CurrentOrderIndex: c.CurrentOrderIndex,
			NewTimePosition:   c.NewTimePosition,
		})
	}
	return res
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

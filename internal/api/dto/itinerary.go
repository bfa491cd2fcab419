package dto

import "time"

type RouteResponse struct {
	RouteID       int64     `json:"route_id"`
	Name          string    `json:"name"`
	StartDateTime time.Time `json:"start_date_time"`
}

type StopResponse struct {
	RoutePlaceID        int64      `json:"route_place_id"`
	PlaceID             int64      `json:"place_id"`
	Name                string     `json:"name"`
	Lon                 float64    `json:"lon"`
	Lat                 float64    `json:"lat"`
	OrderIndex          int        `json:"order_index"`
	StopType            string     `json:"stop_type"`
	PlannedStart        time.Time  `json:"planned_start"`
	PlannedEnd          *time.Time `json:"planned_end,omitempty"`
	StayNights          int        `json:"stay_nights,omitempty"`
	StayDurationMinutes int        `json:"stay_duration_minutes,omitempty"`
	IsStartLocked       bool       `json:"is_start_locked"`
	IsEndLocked         bool       `json:"is_end_locked"`
}

type LegResponse struct {
	LegID            int64      `json:"leg_id"`
	FromRoutePlaceID int64      `json:"from_route_place_id"`
	ToRoutePlaceID   int64      `json:"to_route_place_id"`
	DistanceMeters   int        `json:"distance_meters"`
	DurationSeconds  int        `json:"duration_seconds"`
	PlannedStart     *time.Time `json:"planned_start,omitempty"`
	PlannedEnd       *time.Time `json:"planned_end,omitempty"`
}

type ConflictingStopResponse struct {
	RoutePlaceID      int64  `json:"route_place_id"`
	PlaceName         string `json:"place_name"`
	CurrentOrderIndex int    `json:"current_order_index"`
	NewTimePosition   int    `json:"new_time_position"`
}

type ConflictInfoResponse struct {
	HasConflict      bool                      `json:"has_conflict"`
	ConflictingStops []ConflictingStopResponse `json:"conflicting_stops,omitempty"`
}

type ItineraryResponse struct {
	Route     RouteResponse         `json:"route"`
	Stops     []StopResponse        `json:"stops"`
	Legs      []LegResponse         `json:"legs"`
	Conflicts *ConflictInfoResponse `json:"conflicts,omitempty"`
}

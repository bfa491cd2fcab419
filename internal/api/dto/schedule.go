package dto

import "time"

type StopScheduleRequest struct {
	StopType            string    `json:"stop_type"`
	PlannedStart        time.Time `json:"planned_start"`
	PlannedEnd          time.Time `json:"planned_end"`
	StayNights          *int      `json:"stay_nights"`
	StayDurationMinutes *int      `json:"stay_duration_minutes"`
	IsStartLocked       bool      `json:"is_start_locked"`
	IsEndLocked         bool      `json:"is_end_locked"`
}

type LegScheduleRequest struct {
	PlannedStart time.Time `json:"planned_start"`
	PlannedEnd   time.Time `json:"planned_end"`
}

type ScheduleResponse struct {
	Status    string                `json:"status"`
	Conflicts *ConflictInfoResponse `json:"conflicts,omitempty"`
}

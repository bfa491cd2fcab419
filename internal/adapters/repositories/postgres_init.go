package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Initialize the Postgres database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		route_id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date_time TIMESTAMPTZ NOT NULL
	);
	`

	createRoutePlacesQuery := `
	CREATE TABLE IF NOT EXISTS route_places (
		route_place_id BIGINT PRIMARY KEY,
		route_id BIGINT NOT NULL REFERENCES routes(route_id) ON DELETE CASCADE,
		place_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		order_index INTEGER NOT NULL,
		stop_type TEXT NOT NULL,
		planned_start TIMESTAMPTZ NOT NULL,
		planned_end TIMESTAMPTZ,
		stay_nights INTEGER,
		stay_duration_minutes INTEGER,
		is_start_locked BOOLEAN NOT NULL DEFAULT FALSE,
		is_end_locked BOOLEAN NOT NULL DEFAULT FALSE
	);
	`

	createRouteLegsQuery := `
	CREATE TABLE IF NOT EXISTS route_legs (
		leg_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		route_id BIGINT NOT NULL REFERENCES routes(route_id) ON DELETE CASCADE,
		from_route_place_id BIGINT NOT NULL REFERENCES route_places(route_place_id) ON DELETE CASCADE,
		to_route_place_id BIGINT NOT NULL REFERENCES route_places(route_place_id) ON DELETE CASCADE,
		distance_meters INTEGER NOT NULL DEFAULT 0,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		planned_start TIMESTAMPTZ,
		planned_end TIMESTAMPTZ
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_distance_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_meters INTEGER NOT NULL,
        duration_seconds INTEGER NOT NULL,
        PRIMARY KEY (origin, destination)
    );
	`

	createPlacesOrderIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_route_places_route_order
    ON route_places(route_id, order_index);
	`

	createDistanceCacheIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_route_distance_cache_destination_origin
    ON route_distance_cache(destination, origin);
	`

	statements := []string{
		createRoutesQuery,
		createRoutePlacesQuery,
		createRouteLegsQuery,
		createDistanceCacheQuery,
		createPlacesOrderIndexQuery,
		createDistanceCacheIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type StopSeed struct {
	RoutePlaceID        int64   `json:"route_place_id"`
	PlaceID             int64   `json:"place_id"`
	Name                string  `json:"name"`
	Lon                 float64 `json:"lon"`
	Lat                 float64 `json:"lat"`
	StopType            string  `json:"stop_type"`
	PlannedStart        string  `json:"planned_start"`
	PlannedEnd          string  `json:"planned_end,omitempty"`
	StayNights          *int    `json:"stay_nights,omitempty"`
	StayDurationMinutes *int    `json:"stay_duration_minutes,omitempty"`
}

type RouteSeed struct {
	RouteID       int64      `json:"route_id"`
	Name          string     `json:"name"`
	StartDateTime string     `json:"start_date_time"`
	Stops         []StopSeed `json:"stops"`
}

// Populate the database with route data from a JSON file. Stops are assigned
// order indexes from their position in the file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed routes: read %q: %w", jsonPath, err)
	}

	var data []RouteSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed routes: parse json: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed routes: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	routeStmt, err := tx.Prepare(`
	INSERT INTO routes (route_id, name, start_date_time)
	VALUES ($1, $2, $3)
	ON CONFLICT (route_id) DO UPDATE
	SET name = EXCLUDED.name,
		start_date_time = EXCLUDED.start_date_time;
	`)
	if err != nil {
		return fmt.Errorf("seed routes: prepare route insert: %w", err)
	}
	defer routeStmt.Close()

	stopStmt, err := tx.Prepare(`
	INSERT INTO route_places (
		route_place_id,
		route_id,
		place_id,
		name,
		lon,
		lat,
		order_index,
		stop_type,
		planned_start,
		planned_end,
		stay_nights,
		stay_duration_minutes
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (route_place_id) DO UPDATE
	SET order_index = EXCLUDED.order_index,
		stop_type = EXCLUDED.stop_type,
		planned_start = EXCLUDED.planned_start,
		planned_end = EXCLUDED.planned_end,
		stay_nights = EXCLUDED.stay_nights,
		stay_duration_minutes = EXCLUDED.stay_duration_minutes;
	`)
	if err != nil {
		return fmt.Errorf("seed routes: prepare stop insert: %w", err)
	}
	defer stopStmt.Close()

	for i, r := range data {
		if r.RouteID <= 0 {
			return fmt.Errorf("seed routes: invalid route_id at index %d: %d", i+1, r.RouteID)
		}
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("seed routes: route %d: name cannot be empty", r.RouteID)
		}
		start, err := time.Parse(time.RFC3339, r.StartDateTime)
		if err != nil {
			return fmt.Errorf("seed routes: route %d: parse start_date_time: %w", r.RouteID, err)
		}

		if _, err := routeStmt.Exec(r.RouteID, r.Name, start); err != nil {
			return fmt.Errorf("seed routes: insert route_id=%d: %w", r.RouteID, err)
		}

		for j, s := range r.Stops {
			if s.RoutePlaceID <= 0 {
				return fmt.Errorf("seed routes: route %d: invalid route_place_id at index %d", r.RouteID, j+1)
			}
			if strings.TrimSpace(s.Name) == "" {
				return fmt.Errorf("seed routes: route %d: stop name at index %d cannot be empty", r.RouteID, j+1)
			}
			plannedStart, err := time.Parse(time.RFC3339, s.PlannedStart)
			if err != nil {
				return fmt.Errorf("seed routes: stop %d: parse planned_start: %w", s.RoutePlaceID, err)
			}
			var plannedEnd sql.NullTime
			if s.PlannedEnd != "" {
				t, err := time.Parse(time.RFC3339, s.PlannedEnd)
				if err != nil {
					return fmt.Errorf("seed routes: stop %d: parse planned_end: %w", s.RoutePlaceID, err)
				}
				plannedEnd = sql.NullTime{Time: t, Valid: true}
			}

			if _, err := stopStmt.Exec(
				s.RoutePlaceID,
				r.RouteID,
				s.PlaceID,
				s.Name,
				s.Lon,
				s.Lat,
				j,
				s.StopType,
				plannedStart,
				plannedEnd,
				s.StayNights,
				s.StayDurationMinutes,
			); err != nil {
				return fmt.Errorf("seed routes: insert route_place_id=%d: %w", s.RoutePlaceID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed routes: commit tx: %w", err)
	}

	return nil
}

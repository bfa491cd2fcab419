package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/ports"
)

// Postgres-backed implementation of the TripStore port.
type PostgresTripStore struct{ DB *sql.DB }

func NewPostgresTripStore(db *sql.DB) *PostgresTripStore {
	return &PostgresTripStore{DB: db}
}

func (s *PostgresTripStore) GetRoute(ctx context.Context, routeID int64) (domain.Route, error) {
	if s.DB == nil {
		return domain.Route{}, errors.New("trip store: DB is nil")
	}

	q := `
	SELECT route_id, name, start_date_time
	FROM routes
	WHERE route_id = $1;
	`
	var r domain.Route
	err := s.DB.QueryRowContext(ctx, q, routeID).Scan(&r.RouteID, &r.Name, &r.StartDateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Route{}, fmt.Errorf("get route %d: %w", routeID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Route{}, fmt.Errorf("get route %d: %w", routeID, err)
	}
	return r, nil
}

func (s *PostgresTripStore) ListStops(ctx context.Context, routeID int64) ([]*domain.Stop, error) {
	if s.DB == nil {
		return nil, errors.New("trip store: DB is nil")
	}

	q := `
	SELECT
		route_place_id,
		place_id,
		name,
		lon,
		lat,
		order_index,
		stop_type,
		planned_start,
		planned_end,
		COALESCE(stay_nights, 0),
		COALESCE(stay_duration_minutes, 0),
		is_start_locked,
		is_end_locked
	FROM route_places
	WHERE route_id = $1
	ORDER BY order_index;
	`
	rows, err := s.DB.QueryContext(ctx, q, routeID)
	if err != nil {
		return nil, fmt.Errorf("list stops: query route_places table: %w", err)
	}
	defer rows.Close()

	var stops []*domain.Stop
	for rows.Next() {
		var st domain.Stop
		var plannedEnd sql.NullTime
		if err := rows.Scan(
			&st.RoutePlaceID,
			&st.PlaceID,
			&st.Name,
			&st.Coords.Lon,
			&st.Coords.Lat,
			&st.OrderIndex,
			&st.Type,
			&st.PlannedStart,
			&plannedEnd,
			&st.StayNights,
			&st.StayDurationMinutes,
			&st.StartLocked,
			&st.EndLocked,
		); err != nil {
			return nil, fmt.Errorf("list stops: scan rows: %w", err)
		}
		if plannedEnd.Valid {
			st.PlannedEnd = plannedEnd.Time
		}
		stops = append(stops, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stops: row iteration: %w", err)
	}

	return stops, nil
}

func (s *PostgresTripStore) ListLegs(ctx context.Context, routeID int64) ([]*domain.Leg, error) {
	if s.DB == nil {
		return nil, errors.New("trip store: DB is nil")
	}

	q := `
	SELECT
		l.leg_id,
		l.from_route_place_id,
		l.to_route_place_id,
		l.distance_meters,
		l.duration_seconds,
		l.planned_start,
		l.planned_end
	FROM route_legs l
	JOIN route_places f ON f.route_place_id = l.from_route_place_id
	WHERE l.route_id = $1
	ORDER BY f.order_index;
	`
	rows, err := s.DB.QueryContext(ctx, q, routeID)
	if err != nil {
		return nil, fmt.Errorf("list legs: query route_legs table: %w", err)
	}
	defer rows.Close()

	var legs []*domain.Leg
	for rows.Next() {
		var l domain.Leg
		var start, end sql.NullTime
		if err := rows.Scan(
			&l.LegID,
			&l.FromRoutePlaceID,
			&l.ToRoutePlaceID,
			&l.DistanceMeters,
			&l.DurationSeconds,
			&start,
			&end,
		); err != nil {
			return nil, fmt.Errorf("list legs: scan rows: %w", err)
		}
		if start.Valid {
			l.PlannedStart = start.Time
		}
		if end.Valid {
			l.PlannedEnd = end.Time
		}
		legs = append(legs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list legs: row iteration: %w", err)
	}

	return legs, nil
}

func (s *PostgresTripStore) UpdateStopSchedule(
	ctx context.Context,
	routeID, routePlaceID int64,
	upd ports.StopScheduleUpdate,
) error {
	if s.DB == nil {
		return errors.New("trip store: DB is nil")
	}

	q := `
	UPDATE route_places
	SET stop_type = $1,
		planned_start = $2,
		planned_end = $3,
		stay_nights = COALESCE($4, stay_nights),
		stay_duration_minutes = COALESCE($5, stay_duration_minutes),
		is_start_locked = $6,
		is_end_locked = $7
	WHERE route_id = $8 AND route_place_id = $9;
	`
	res, err := s.DB.ExecContext(ctx, q,
		upd.StopType,
		upd.PlannedStart,
		upd.PlannedEnd,
		upd.StayNights,
		upd.StayDurationMinutes,
		upd.IsStartLocked,
		upd.IsEndLocked,
		routeID,
		routePlaceID,
	)
	if err != nil {
		return fmt.Errorf("update stop schedule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update stop schedule: stop %d on route %d: %w", routePlaceID, routeID, domain.ErrNotFound)
	}
	return nil
}

func (s *PostgresTripStore) UpdateLegSchedule(
	ctx context.Context,
	routeID, legID int64,
	upd ports.LegScheduleUpdate,
) error {
	if s.DB == nil {
		return errors.New("trip store: DB is nil")
	}

	// Time bounds only: distance and duration stay with the routing service.
	q := `
	UPDATE route_legs
	SET planned_start = $1,
		planned_end = $2
	WHERE route_id = $3 AND leg_id = $4;
	`
	res, err := s.DB.ExecContext(ctx, q, upd.PlannedStart, upd.PlannedEnd, routeID, legID)
	if err != nil {
		return fmt.Errorf("update leg schedule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update leg schedule: leg %d on route %d: %w", legID, routeID, domain.ErrNotFound)
	}
	return nil
}

func (s *PostgresTripStore) ReplaceLegs(ctx context.Context, routeID int64, legs []*domain.Leg) error {
	if s.DB == nil {
		return errors.New("trip store: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace legs: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM route_legs WHERE route_id = $1;`, routeID); err != nil {
		return fmt.Errorf("replace legs: delete old legs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO route_legs
		(route_id, from_route_place_id, to_route_place_id, distance_meters, duration_seconds, planned_start, planned_end)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`)
	if err != nil {
		return fmt.Errorf("replace legs: db prepare: %w", err)
	}
	defer stmt.Close()

	for _, l := range legs {
		var start, end sql.NullTime
		if !l.PlannedStart.IsZero() {
			start = sql.NullTime{Time: l.PlannedStart, Valid: true}
		}
		if !l.PlannedEnd.IsZero() {
			end = sql.NullTime{Time: l.PlannedEnd, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			routeID, l.FromRoutePlaceID, l.ToRoutePlaceID,
			l.DistanceMeters, l.DurationSeconds, start, end,
		); err != nil {
			return fmt.Errorf("replace legs: insert leg %d -> %d: %w", l.FromRoutePlaceID, l.ToRoutePlaceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace legs: commit: %w", err)
	}
	return nil
}

func (s *PostgresTripStore) UpdateOrderIndexes(ctx context.Context, routeID int64, order map[int64]int) error {
	if s.DB == nil {
		return errors.New("trip store: DB is nil")
	}
	if len(order) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update order indexes: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	UPDATE route_places
	SET order_index = $1
	WHERE route_id = $2 AND route_place_id = $3;
	`)
	if err != nil {
		return fmt.Errorf("update order indexes: db prepare: %w", err)
	}
	defer stmt.Close()

	for routePlaceID, idx := range order {
		if _, err := stmt.ExecContext(ctx, idx, routeID, routePlaceID); err != nil {
			return fmt.Errorf("update order indexes: stop %d: %w", routePlaceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update order indexes: commit: %w", err)
	}
	return nil
}

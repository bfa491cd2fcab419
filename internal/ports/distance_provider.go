package ports

import (
	"context"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
)

// Road distance and travel duration between two geocoordinates.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Contract for retrieving road distance and duration between stop locations.
type RouteDistanceProvider interface {
	// Return road distance and estimated travel duration between two points.
	RoadDistance(ctx context.Context, origin, destination domain.Coordinates) (DistanceResult, error)
}

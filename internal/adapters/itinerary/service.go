package itinerary

import (
	"context"
	"fmt"
	"log"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/ports"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/services"
)

// EventPublisher receives notifications after successful schedule writes.
// Publishing is best-effort: failures are logged, never surfaced to callers.
type EventPublisher interface {
	PublishScheduleUpdated(routeID int64, kind string, id int64) error
	PublishRouteReordered(routeID int64) error
}

// Service wires the schedule operations to a trip store and routing provider.
// It implements ports.ItineraryService for both the HTTP API and the
// in-process timeline.
type Service struct {
	Store    ports.TripStore
	Provider ports.RouteDistanceProvider
	Events   EventPublisher
}

var _ ports.ItineraryService = (*Service)(nil)

func NewService(store ports.TripStore, provider ports.RouteDistanceProvider, events EventPublisher) *Service {
	return &Service{Store: store, Provider: provider, Events: events}
}

func (s *Service) GetItinerary(ctx context.Context, routeID int64) (*domain.Itinerary, error) {
	route, err := s.Store.GetRoute(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("get itinerary: %w", err)
	}
	stops, err := s.Store.ListStops(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("get itinerary: %w", err)
	}
	legs, err := s.Store.ListLegs(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("get itinerary: %w", err)
	}
	return &domain.Itinerary{Route: route, Stops: stops, Legs: legs}, nil
}

func (s *Service) GetItineraryWithConflicts(ctx context.Context, routeID int64) (*domain.Itinerary, domain.ConflictInfo, error) {
	it, err := s.GetItinerary(ctx, routeID)
	if err != nil {
		return nil, domain.ConflictInfo{}, err
	}
	return it, services.DetectConflicts(it.Stops), nil
}

func (s *Service) UpdateStopSchedule(
	ctx context.Context,
	routeID, routePlaceID int64,
	upd ports.StopScheduleUpdate,
) (*domain.ConflictInfo, error) {
	info, err := services.ApplyStopSchedule(ctx, s.Store, routeID, routePlaceID, upd)
	if err != nil {
		return nil, err
	}
	s.publishScheduleUpdated(routeID, "stop", routePlaceID)
	return info, nil
}

func (s *Service) UpdateLegSchedule(
	ctx context.Context,
	routeID, legID int64,
	upd ports.LegScheduleUpdate,
) error {
	if err := services.ApplyLegSchedule(ctx, s.Store, routeID, legID, upd); err != nil {
		return err
	}
	s.publishScheduleUpdated(routeID, "leg", legID)
	return nil
}

func (s *Service) ResolveConflictByReorder(ctx context.Context, routeID int64) error {
	if err := services.ReorderByTimeline(ctx, s.Store, s.Provider, routeID); err != nil {
		return err
	}
	if s.Events != nil {
		if err := s.Events.PublishRouteReordered(routeID); err != nil {
			log.Printf("event=route_reordered route=%d publish failed: %v", routeID, err)
		}
	}
	return nil
}

func (s *Service) RebuildLegs(ctx context.Context, routeID int64) error {
	return services.RebuildLegs(ctx, s.Store, s.Provider, routeID)
}

func (s *Service) publishScheduleUpdated(routeID int64, kind string, id int64) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishScheduleUpdated(routeID, kind, id); err != nil {
		log.Printf("event=schedule_updated route=%d %s=%d publish failed: %v", routeID, kind, id, err)
	}
}

package routing

import (
	"context"
	"fmt"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/ports"
)

type MockPair struct {
	From, To domain.Coordinates
	Meters   int
	Seconds  int
}

// MockProvider serves scripted distances for tests.
type MockProvider struct {
	m map[string]ports.DistanceResult
}

func NewMockProvider(pairs []MockPair) *MockProvider {
	m := make(map[string]ports.DistanceResult, len(pairs))
	for _, p := range pairs {
		m[cacheKey(p.From)+"|"+cacheKey(p.To)] = ports.DistanceResult{
			DistanceMeters:  p.Meters,
			DurationSeconds: p.Seconds,
		}
	}
	return &MockProvider{m: m}
}

func (p *MockProvider) RoadDistance(ctx context.Context, origin, destination domain.Coordinates) (ports.DistanceResult, error) {
	r, ok := p.m[cacheKey(origin)+"|"+cacheKey(destination)]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("missing pair %s -> %s", cacheKey(origin), cacheKey(destination))
	}
	return r, nil
}

package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/adapters/cache"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/platform/obs"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/ports"
)

// OSRMProvider implements RouteDistanceProvider against an OSRM instance.
//
// It coordinates:
//   - Coordinate normalization for stable cache keys
//   - A persistent SQL distance cache
//   - External table-service calls with retry/backoff
//
// The provider is safe for concurrent use.
type OSRMProvider struct {
	session       *http.Client
	baseURL       string
	profile       string
	distanceCache *cache.SQLDistanceCache
}

var _ ports.RouteDistanceProvider = (*OSRMProvider)(nil)

func NewOSRMProvider(baseURL, profile string, distanceCache *cache.SQLDistanceCache) (*OSRMProvider, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("OSRM base URL is empty")
	}
	if profile == "" {
		profile = "driving"
	}

	return &OSRMProvider{
		session:       &http.Client{Timeout: 10 * time.Second},
		baseURL:       strings.TrimRight(baseURL, "/"),
		profile:       profile,
		distanceCache: distanceCache,
	}, nil
}

// cacheKey normalizes a coordinate to 5 decimal places (~1m) so repeated
// lookups for the same place hit the cache.
func cacheKey(c domain.Coordinates) string {
	return fmt.Sprintf("%.5f,%.5f", c.Lon, c.Lat)
}

// Delegate to the batched path to reuse caching and table logic.
func (o *OSRMProvider) RoadDistance(
	ctx context.Context,
	origin, destination domain.Coordinates,
) (ports.DistanceResult, error) {
	results, err := o.RoadDistances(ctx, origin, []domain.Coordinates{destination})
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf(
			"road distance %s -> %s: %w",
			cacheKey(origin), cacheKey(destination), err,
		)
	}
	if len(results) != 1 {
		return ports.DistanceResult{}, fmt.Errorf(
			"no distance result for %s -> %s",
			cacheKey(origin), cacheKey(destination),
		)
	}
	return results[0], nil
}

// RoadDistances computes distances from one origin to many destinations via a
// single table-service row, consulting the persistent cache first.
func (o *OSRMProvider) RoadDistances(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (_ []ports.DistanceResult, err error) {
	defer obs.Time(ctx, "osrm.RoadDistances")(&err)

	if len(destinations) == 0 {
		return []ports.DistanceResult{}, nil
	}

	originKey := cacheKey(origin)
	destKeys := make([]string, len(destinations))
	for i, d := range destinations {
		destKeys[i] = cacheKey(d)
	}

	hits := make(map[string]ports.DistanceResult)
	// Check the persistent distance cache before issuing external calls.
	if o.distanceCache != nil {
		hits, err = o.distanceCache.GetMany(ctx, originKey, destKeys)
		if err != nil {
			return nil, fmt.Errorf("OSRM distance cache: %w", err)
		}
	}

	missIdx := make([]int, 0, len(destinations))
	for i, k := range destKeys {
		if _, ok := hits[k]; !ok {
			missIdx = append(missIdx, i)
		}
	}

	if len(missIdx) > 0 {
		missCoords := make([]domain.Coordinates, len(missIdx))
		for i, idx := range missIdx {
			missCoords[i] = destinations[idx]
		}

		fetched, err := o.fetchTableRow(ctx, origin, missCoords)
		if err != nil {
			return nil, fmt.Errorf("fetching table row: %w", err)
		}

		fresh := make(map[string]ports.DistanceResult, len(fetched))
		for i, idx := range missIdx {
			hits[destKeys[idx]] = fetched[i]
			fresh[destKeys[idx]] = fetched[i]
		}

		if o.distanceCache != nil && len(fresh) > 0 {
			if err := o.distanceCache.PutMany(ctx, originKey, fresh); err != nil {
				log.Printf("distance cache write failed: %v", err)
			}
		}
	}

	out := make([]ports.DistanceResult, len(destinations))
	for i, k := range destKeys {
		out[i] = hits[k]
	}
	return out, nil
}

type osrmTableResponse struct {
	Code      string      `json:"code"`
	Durations [][]float64 `json:"durations"`
	Distances [][]float64 `json:"distances"`
}

// fetchTableRow issues one origin->many table request.
func (o *OSRMProvider) fetchTableRow(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) ([]ports.DistanceResult, error) {
	coords := make([]string, 0, 1+len(destinations))
	coords = append(coords, fmt.Sprintf("%f,%f", origin.Lon, origin.Lat))
	for _, d := range destinations {
		coords = append(coords, fmt.Sprintf("%f,%f", d.Lon, d.Lat))
	}

	q := url.Values{}
	q.Set("sources", "0")
	q.Set("annotations", "duration,distance")

	endpoint := fmt.Sprintf(
		"%s/table/v1/%s/%s?%s",
		o.baseURL, o.profile, strings.Join(coords, ";"), q.Encode(),
	)

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("OSRM table request: %w", err)
	}
	defer resp.Body.Close()

	var table osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("decode OSRM table response: %w", err)
	}
	if table.Code != "Ok" {
		return nil, fmt.Errorf("OSRM table service returned code %q", table.Code)
	}
	if len(table.Durations) == 0 || len(table.Durations[0]) != 1+len(destinations) {
		return nil, errors.New("OSRM table response has unexpected shape")
	}
	if len(table.Distances) == 0 || len(table.Distances[0]) != 1+len(destinations) {
		return nil, errors.New("OSRM table response missing distances")
	}

	out := make([]ports.DistanceResult, len(destinations))
	for i := range destinations {
		// Column 0 is the origin itself.
		out[i] = ports.DistanceResult{
			DistanceMeters:  int(math.Round(table.Distances[0][i+1])),
			DurationSeconds: int(math.Round(table.Durations[0][i+1])),
		}
	}
	return out, nil
}

package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neexbeast/wanderplan/internal/destination"
	"github.com/neexbeast/wanderplan/internal/validation"
)

// Store is the data access the scoring service depends on.
type Store interface {
	// FeatureRows returns city-scoped rows matching the query-level filters
	// (candidate ids, temperature range, food price ceiling).
	FeatureRows(ctx context.Context, f destination.FeatureFilters) ([]destination.FeatureRow, error)
	// SampleAttractions returns up to perID POIs for each id, ordered by POI id.
	// ids are city ids for city scope and country ids for country scope.
	SampleAttractions(ctx context.Context, scope destination.Scope, ids []int64, perID int) (map[int64][]destination.POI, error)
}

// Request asks for scored destinations.
type Request struct {
	Scope string `json:"scope"`
	destination.FeatureFilters
	Weights *RawWeights `json:"weights"`
	Limit   int         `json:"limit"`
}

// Service ranks destinations by weighted feature scores.
type Service struct {
	store        Store
	defaultLimit int
	sampleSize   int
	log          *slog.Logger
}

// NewService constructs a Service. defaultLimit applies when a request has no
// positive limit; sampleSize caps the sample attractions per destination.
func NewService(store Store, defaultLimit, sampleSize int, log *slog.Logger) *Service {
	return &Service{store: store, defaultLimit: defaultLimit, sampleSize: sampleSize, log: log}
}

// ScoreDestinations fetches, filters, scores and ranks destinations, then
// attaches sample attractions to the ranked result only.
func (s *Service) ScoreDestinations(ctx context.Context, req Request) ([]Scored, error) {
	scope, err := destination.ParseScope(req.Scope)
	if err != nil {
		return nil, err
	}
	if req.Weights != nil {
		if err := validation.Struct(req.Weights); err != nil {
			return nil, destination.InvalidArgument("weights: %s", err)
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	rows, err := s.store.FeatureRows(ctx, req.FeatureFilters)
	if err != nil {
		return nil, fmt.Errorf("fetching feature rows: %w", err)
	}

	rows = postFilter(rows, req.FeatureFilters)
	if len(rows) == 0 {
		return []Scored{}, nil
	}

	if scope == destination.ScopeCountry {
		rows = ReduceToCountry(rows)
	}

	ranked := Score(rows, NormalizeWeights(req.Weights))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if err := s.attachSamples(ctx, scope, ranked); err != nil {
		return nil, err
	}

	s.log.Debug("scored destinations", "scope", scope, "candidates", len(rows), "returned", len(ranked))
	return ranked, nil
}

func (s *Service) attachSamples(ctx context.Context, scope destination.Scope, ranked []Scored) error {
	if s.sampleSize <= 0 {
		return nil
	}

	ids := make([]int64, 0, len(ranked))
	for _, d := range ranked {
		ids = append(ids, sampleKey(scope, d.FeatureRow))
	}

	samples, err := s.store.SampleAttractions(ctx, scope, ids, s.sampleSize)
	if err != nil {
		return fmt.Errorf("fetching sample attractions: %w", err)
	}

	for i := range ranked {
		if pois, ok := samples[sampleKey(scope, ranked[i].FeatureRow)]; ok {
			ranked[i].SampleAttractions = pois
		}
	}
	return nil
}

func sampleKey(scope destination.Scope, r destination.FeatureRow) int64 {
	if scope == destination.ScopeCountry {
		return r.CountryID
	}
	return r.ID
}

// postFilter applies the filters that run on city rows before aggregation.
// A row without a hotel rating is not excluded by minHotelRating.
func postFilter(rows []destination.FeatureRow, f destination.FeatureFilters) []destination.FeatureRow {
	out := rows[:0:0]
	for _, r := range rows {
		if f.MinHotelRating != nil && r.AvgHotelRating != nil && *r.AvgHotelRating < *f.MinHotelRating {
			continue
		}
		if f.MinHotelCount != nil && r.HotelCount < *f.MinHotelCount {
			continue
		}
		if f.MinPOICount != nil && r.POICount < *f.MinPOICount {
			continue
		}
		out = append(out, r)
	}
	return out
}

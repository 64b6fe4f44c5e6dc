package api

import (
	"net/http"

	"github.com/neexbeast/wanderplan/internal/destination"
	"github.com/neexbeast/wanderplan/internal/itinerary"
	"github.com/neexbeast/wanderplan/internal/metrics"
	"github.com/neexbeast/wanderplan/internal/scoring"
)

func emptyItinerary() map[string]any {
	e := itinerary.Empty()
	return map[string]any{"itinerary": e.Days, "summary": e.Summary}
}

// PlanItinerary handles POST /api/v1/planning/itineraries.
func (h *Handlers) PlanItinerary(w http.ResponseWriter, r *http.Request) {
	var req itinerary.Request
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, "build itinerary", err, nil)
		return
	}

	it, err := h.builder.Build(r.Context(), req)
	if err != nil {
		h.respondError(w, r, "build itinerary", err, emptyItinerary())
		return
	}

	metrics.ItinerariesBuilt.WithLabelValues(req.Level).Inc()
	writeJSON(w, http.StatusOK, it)
}

// ScoreDestinations handles POST /api/v1/destinations/features.
func (h *Handlers) ScoreDestinations(w http.ResponseWriter, r *http.Request) {
	var req scoring.Request
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, "score destinations", err, nil)
		return
	}

	scored, err := h.scorer.ScoreDestinations(r.Context(), req)
	if err != nil {
		h.respondError(w, r, "score destinations", err, map[string]any{"destinations": []scoring.Scored{}})
		return
	}

	metrics.DestinationsScored.WithLabelValues(req.Scope).Observe(float64(len(scored)))
	writeJSON(w, http.StatusOK, map[string]any{"destinations": scored})
}

// ReachableCities handles POST /api/v1/destinations/availability/cities.
func (h *Handlers) ReachableCities(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OriginCityIDs   []int64 `json:"originCityIds"`
		RequireAllReach bool    `json:"requireAllReach"`
		MaxStop         *int    `json:"maxStop"`
		Limit           int     `json:"limit"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.respondError(w, r, "reachable cities", err, nil)
		return
	}

	origins := uniqueIDs(body.OriginCityIDs)
	if len(origins) == 0 {
		h.respondError(w, r, "reachable cities",
			destination.InvalidArgument("originCityIds must be a non-empty array of integers."), nil)
		return
	}

	q := destination.ReachabilityQuery{
		OriginCityIDs:   origins,
		RequireAllReach: body.RequireAllReach,
		MaxStops:        1,
		Limit:           20,
	}
	if body.MaxStop != nil && *body.MaxStop >= 0 {
		q.MaxStops = *body.MaxStop
	}
	if body.Limit > 0 {
		q.Limit = body.Limit
	}

	cities, err := h.repo.ReachableCities(r.Context(), q)
	if err != nil {
		h.respondError(w, r, "reachable cities", err, map[string]any{"destinations": []destination.ReachableCity{}})
		return
	}
	if cities == nil {
		cities = []destination.ReachableCity{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"destinations": cities})
}

// uniqueIDs drops duplicates while keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

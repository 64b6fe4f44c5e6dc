package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/wanderplan/internal/destination"
)

const (
	defaultListLimit      = 50
	defaultRankingLimit   = 10
	defaultWarmMinTemp    = 18.0
	warmBudgetMinPOICount = 3
	invalidCityIDMessage  = "cityId must be a positive integer."
	cityNotFoundMessage   = "City not found."
)

// GetCity handles GET /api/v1/cities/{cityId}.
// Cache hit → return. DB hit → cache + return. Neither → 404.
func (h *Handlers) GetCity(w http.ResponseWriter, r *http.Request) {
	cityID, ok := pathID(chi.URLParam(r, "cityId"))
	if !ok {
		h.respondError(w, r, "get city", destination.InvalidArgument(invalidCityIDMessage), nil)
		return
	}

	cached, err := h.cache.GetCity(r.Context(), cityID)
	if err != nil {
		h.log.Warn("cache get failed", "city_id", cityID, "err", err)
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	city, err := h.repo.CityDetail(r.Context(), cityID)
	if err != nil {
		h.respondError(w, r, "get city", err, nil)
		return
	}
	if city == nil {
		h.respondError(w, r, "get city", destination.NotFound(cityNotFoundMessage), nil)
		return
	}

	if err := h.cache.SetCity(r.Context(), city); err != nil {
		h.log.Warn("cache set failed after db hit", "city_id", cityID, "err", err)
	}

	writeJSON(w, http.StatusOK, city)
}

// ListCityPOIs handles GET /api/v1/cities/{cityId}/pois.
func (h *Handlers) ListCityPOIs(w http.ResponseWriter, r *http.Request) {
	empty := map[string]any{"pois": []destination.POI{}}

	cityID, ok := pathID(chi.URLParam(r, "cityId"))
	if !ok {
		h.respondError(w, r, "list city pois", destination.InvalidArgument(invalidCityIDMessage), nil)
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	pois, err := h.repo.ListCityPOIs(r.Context(), cityID, category, queryInt(r, "limit", defaultListLimit))
	if err != nil {
		h.respondError(w, r, "list city pois", err, empty)
		return
	}
	if pois == nil {
		pois = []destination.POI{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"pois": pois})
}

// ListCityHotels handles GET /api/v1/cities/{cityId}/hotels.
func (h *Handlers) ListCityHotels(w http.ResponseWriter, r *http.Request) {
	empty := map[string]any{"hotels": []destination.Hotel{}}

	cityID, ok := pathID(chi.URLParam(r, "cityId"))
	if !ok {
		h.respondError(w, r, "list city hotels", destination.InvalidArgument(invalidCityIDMessage), nil)
		return
	}

	hotels, err := h.repo.ListCityHotels(r.Context(), cityID, queryFloat(r, "minRating"), queryInt(r, "limit", defaultListLimit))
	if err != nil {
		h.respondError(w, r, "list city hotels", err, empty)
		return
	}
	if hotels == nil {
		hotels = []destination.Hotel{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"hotels": hotels})
}

// TopAttractionCities handles GET /api/v1/recommendations/cities/top-attractions.
func (h *Handlers) TopAttractionCities(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultRankingLimit)

	cities, err := h.repo.TopAttractionCities(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, "top attraction cities", err, map[string]any{
			"cities": []destination.CityRanking{},
			"limit":  limit,
		})
		return
	}
	if cities == nil {
		cities = []destination.CityRanking{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"cities": cities, "limit": limit})
}

// WarmBudgetCities handles GET /api/v1/recommendations/cities/warm-budget.
func (h *Handlers) WarmBudgetCities(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultRankingLimit)
	minTemp := defaultWarmMinTemp
	if v := queryFloat(r, "minTemp"); v != nil {
		minTemp = *v
	}

	cities, err := h.repo.WarmBudgetCities(r.Context(), minTemp, warmBudgetMinPOICount, limit)
	if err != nil {
		h.respondError(w, r, "warm budget cities", err, map[string]any{
			"cities":  []destination.CityRanking{},
			"limit":   limit,
			"minTemp": minTemp,
		})
		return
	}
	if cities == nil {
		cities = []destination.CityRanking{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"cities": cities, "limit": limit, "minTemp": minTemp})
}

// RandomDestination handles GET /api/v1/destinations/random.
// The body is JSON null when there is nothing to pick from.
func (h *Handlers) RandomDestination(w http.ResponseWriter, r *http.Request) {
	raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("scope")))
	if raw == "" {
		raw = string(destination.ScopeCity)
	}
	scope, err := destination.ParseScope(raw)
	if err != nil {
		h.respondError(w, r, "random destination", err, nil)
		return
	}

	var pick *destination.RandomPick
	if scope == destination.ScopeCountry {
		pick, err = h.repo.RandomCountry(r.Context())
	} else {
		var countryID *int64
		if id, ok := pathID(r.URL.Query().Get("countryId")); ok {
			countryID = &id
		}
		pick, err = h.repo.RandomCity(r.Context(), countryID)
	}
	if err != nil {
		h.respondError(w, r, "random destination", err, nil)
		return
	}

	writeJSON(w, http.StatusOK, pick)
}

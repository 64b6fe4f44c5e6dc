package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/neexbeast/wanderplan/internal/destination"
)

const (
	maxBodyBytes = 1 << 20

	dbFailureMessage = "Database query failed"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	builder ItineraryBuilder
	scorer  DestinationScorer
	repo    CityRepo
	cache   CityCache
	log     *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(builder ItineraryBuilder, scorer DestinationScorer, repo CityRepo, cache CityCache, log *slog.Logger) *Handlers {
	return &Handlers{
		builder: builder,
		scorer:  scorer,
		repo:    repo,
		cache:   cache,
		log:     log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON request body into v. Failures are InvalidArgument.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return destination.InvalidArgument("Invalid JSON body.")
	}
	return nil
}

// respondError maps err onto the error taxonomy. NotFound and data access
// failures carry the endpoint's empty payload so clients always see the same
// shape; the cause of a data access failure is logged, never returned.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, op string, err error, empty map[string]any) {
	status := http.StatusInternalServerError
	body := map[string]any{"error": dbFailureMessage}

	switch {
	case errors.Is(err, destination.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": destination.Message(err, "Invalid request.")})
		return
	case errors.Is(err, destination.ErrNotFound):
		status = http.StatusNotFound
		body["error"] = destination.Message(err, "Not found.")
	default:
		h.log.Error(op+" failed",
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
	}

	for k, v := range empty {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// pathID parses a positive integer URL parameter.
func pathID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt returns the positive integer query parameter name, or def when it
// is missing or not a positive integer.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// queryFloat returns the float query parameter name, or nil when it is
// missing or malformed.
func queryFloat(r *http.Request, name string) *float64 {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

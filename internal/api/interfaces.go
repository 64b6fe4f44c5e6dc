package api

import (
	"context"

	"github.com/neexbeast/wanderplan/internal/destination"
	"github.com/neexbeast/wanderplan/internal/itinerary"
	"github.com/neexbeast/wanderplan/internal/scoring"
)

// ItineraryBuilder builds day-by-day itineraries.
type ItineraryBuilder interface {
	Build(ctx context.Context, req itinerary.Request) (*itinerary.Itinerary, error)
}

// DestinationScorer ranks destinations by weighted feature scores.
type DestinationScorer interface {
	ScoreDestinations(ctx context.Context, req scoring.Request) ([]scoring.Scored, error)
}

// CityRepo defines the storage lookups behind the city, recommendation and
// destination endpoints. Single-row lookups return nil, nil on a miss.
type CityRepo interface {
	CityDetail(ctx context.Context, cityID int64) (*destination.CityDetail, error)
	ListCityPOIs(ctx context.Context, cityID int64, category string, limit int) ([]destination.POI, error)
	ListCityHotels(ctx context.Context, cityID int64, minRating *float64, limit int) ([]destination.Hotel, error)
	TopAttractionCities(ctx context.Context, limit int) ([]destination.CityRanking, error)
	WarmBudgetCities(ctx context.Context, minTemp float64, minPOIs, limit int) ([]destination.CityRanking, error)
	RandomCity(ctx context.Context, countryID *int64) (*destination.RandomPick, error)
	RandomCountry(ctx context.Context) (*destination.RandomPick, error)
	ReachableCities(ctx context.Context, q destination.ReachabilityQuery) ([]destination.ReachableCity, error)
}

// CityCache defines the cache operations used by the city detail handler.
type CityCache interface {
	GetCity(ctx context.Context, cityID int64) (*destination.CityDetail, error)
	SetCity(ctx context.Context, d *destination.CityDetail) error
}

package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/wanderplan/internal/destination"
)

// Store is the data access the builder depends on. Every POI list comes back
// with avoided categories already removed, in the order pools should use.
type Store interface {
	// CityInfo returns nil, nil when the city does not exist.
	CityInfo(ctx context.Context, cityID int64) (*destination.City, error)
	// CityPOIsWithCountryPOIs returns the city's POIs merged with the
	// country-level POIs of its country.
	CityPOIsWithCountryPOIs(ctx context.Context, cityID, countryID int64, avoid []string) ([]destination.POI, error)
	CityPOIs(ctx context.Context, cityID int64, avoid []string) ([]destination.POI, error)
	CountryOnlyPOIs(ctx context.Context, countryID int64, avoid []string) ([]destination.POI, error)
	// CitiesWithPOICounts lists cities holding at least one POI, busiest first.
	CitiesWithPOICounts(ctx context.Context, countryID int64, avoid []string) ([]destination.CityPOICount, error)
}

// Request limits applied when Settings leaves them unset.
const (
	DefaultMaxNumDays    = 365
	DefaultMaxPoisPerDay = 50
)

// Settings holds the builder's defaults and request limits.
type Settings struct {
	// DefaultPoisPerDay applies when a request leaves poisPerDay unset.
	DefaultPoisPerDay int
	MaxNumDays        int
	MaxPoisPerDay     int
}

// Builder assembles day-by-day itineraries.
type Builder struct {
	store    Store
	settings Settings
	log      *slog.Logger
}

// NewBuilder constructs a Builder. Non-positive limits take their defaults.
func NewBuilder(store Store, settings Settings, log *slog.Logger) *Builder {
	if settings.MaxNumDays <= 0 {
		settings.MaxNumDays = DefaultMaxNumDays
	}
	if settings.MaxPoisPerDay <= 0 {
		settings.MaxPoisPerDay = DefaultMaxPoisPerDay
	}
	return &Builder{store: store, settings: settings, log: log}
}

// Build validates req and returns an itinerary with exactly req.NumDays days.
func (b *Builder) Build(ctx context.Context, req Request) (*Itinerary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := req.checkLimits(b.settings.MaxNumDays, b.settings.MaxPoisPerDay); err != nil {
		return nil, err
	}

	poisPerDay := req.PoisPerDay
	if poisPerDay <= 0 {
		poisPerDay = b.settings.DefaultPoisPerDay
	}

	var (
		days []DayPlan
		err  error
	)
	if Level(req.Level) == LevelCity {
		days, err = b.buildCity(ctx, req, poisPerDay)
	} else {
		days, err = b.buildCountry(ctx, req, poisPerDay)
	}
	if err != nil {
		return nil, err
	}

	return &Itinerary{Days: days, Summary: summarize(days)}, nil
}

func (b *Builder) buildCity(ctx context.Context, req Request, poisPerDay int) ([]DayPlan, error) {
	cityID := *req.CityID

	city, err := b.store.CityInfo(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("looking up city %d: %w", cityID, err)
	}
	if city == nil {
		return nil, destination.NotFound("City not found.")
	}

	pois, err := b.store.CityPOIsWithCountryPOIs(ctx, city.CityID, city.CountryID, req.AvoidCategories)
	if err != nil {
		return nil, fmt.Errorf("fetching POIs for city %d: %w", cityID, err)
	}
	if len(pois) == 0 {
		return nil, destination.NotFound("No POIs found for this city (neither city-level nor country-level).")
	}

	pool := NewPool(pois)
	days := make([]DayPlan, 0, req.NumDays)
	for day := 1; day <= req.NumDays; day++ {
		preferred := req.preferredFor(day)
		picked := AllocateDay(pool, nil, preferred, poisPerDay)
		days = append(days, newDayPlan(day, city, city.CountryID, preferred, picked))
	}
	return days, nil
}

func (b *Builder) buildCountry(ctx context.Context, req Request, poisPerDay int) ([]DayPlan, error) {
	countryID := *req.CountryID

	var (
		countryOnly []destination.POI
		cities      []destination.CityPOICount
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pois, err := b.store.CountryOnlyPOIs(gCtx, countryID, req.AvoidCategories)
		if err != nil {
			return fmt.Errorf("fetching country-level POIs for country %d: %w", countryID, err)
		}
		countryOnly = pois
		return nil
	})
	g.Go(func() error {
		cs, err := b.store.CitiesWithPOICounts(gCtx, countryID, req.AvoidCategories)
		if err != nil {
			return fmt.Errorf("fetching cities for country %d: %w", countryID, err)
		}
		cities = cs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fallback := NewPool(countryOnly)

	if len(cities) == 0 {
		if fallback.Len() == 0 {
			return nil, destination.NotFound("No POIs found in this country (neither city-level nor country-level).")
		}

		b.log.Info("no city-level POIs, building country-level itinerary",
			"country_id", countryID, "pois", fallback.Len())

		days := make([]DayPlan, 0, req.NumDays)
		for day := 1; day <= req.NumDays; day++ {
			preferred := req.preferredFor(day)
			picked := AllocateDay(fallback, nil, preferred, poisPerDay)
			days = append(days, newDayPlan(day, nil, countryID, preferred, picked))
		}
		return days, nil
	}

	selected := cities[:citiesToVisit(req.MaxCities, req.NumDays, len(cities))]
	allotted := splitDays(req.NumDays, len(selected))

	days := make([]DayPlan, 0, req.NumDays)
	day := 1
	for i, c := range selected {
		if day > req.NumDays {
			break
		}

		pois, err := b.store.CityPOIs(ctx, c.CityID, req.AvoidCategories)
		if err != nil {
			return nil, fmt.Errorf("fetching POIs for city %d: %w", c.CityID, err)
		}
		pool := NewPool(pois)

		for n := 0; n < allotted[i] && day <= req.NumDays; n++ {
			preferred := req.preferredFor(day)
			picked := AllocateDay(pool, fallback, preferred, poisPerDay)
			days = append(days, newDayPlan(day, &c.City, c.CountryID, preferred, picked))
			day++
		}
	}
	return days, nil
}

// citiesToVisit caps the requested city count to what is available,
// defaulting to one city per two days.
func citiesToVisit(requested, numDays, available int) int {
	if requested <= 0 {
		requested = (numDays + 1) / 2
	}
	return min(requested, available)
}

// splitDays spreads numDays over numCities; the first numDays%numCities
// cities get one extra day.
func splitDays(numDays, numCities int) []int {
	base, extra := numDays/numCities, numDays%numCities
	out := make([]int, numCities)
	for i := range out {
		out[i] = base
		if i < extra {
			out[i]++
		}
	}
	return out
}

func newDayPlan(day int, city *destination.City, countryID int64, focus []string, pois []destination.POI) DayPlan {
	plan := DayPlan{
		DayNumber:     day,
		CountryID:     &countryID,
		CategoryFocus: focus,
		POIs:          pois,
	}
	if city != nil {
		cityID, cityName, countryName := city.CityID, city.CityName, city.CountryName
		plan.CityID = &cityID
		plan.CityName = &cityName
		plan.CountryName = &countryName
	}
	return plan
}

func summarize(days []DayPlan) Summary {
	cities := make(map[int64]struct{})
	categories := make(map[string]struct{})
	total := 0

	for _, d := range days {
		if d.CityID != nil {
			cities[*d.CityID] = struct{}{}
		}
		total += len(d.POIs)
		for _, p := range d.POIs {
			categories[p.Category] = struct{}{}
		}
	}

	used := make([]string, 0, len(categories))
	for c := range categories {
		used = append(used, c)
	}
	sort.Strings(used)

	return Summary{
		TotalDays:      len(days),
		TotalCities:    len(cities),
		TotalPOIs:      total,
		CategoriesUsed: used,
	}
}

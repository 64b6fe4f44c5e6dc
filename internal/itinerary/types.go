package itinerary

import (
	"strconv"

	"github.com/neexbeast/wanderplan/internal/destination"
	"github.com/neexbeast/wanderplan/internal/validation"
)

// Level selects how an itinerary is assembled.
type Level string

const (
	LevelCity    Level = "city"
	LevelCountry Level = "country"
)

// Request describes the itinerary a caller wants built.
// PoisPerDay and MaxCities fall back to defaults when zero or negative.
type Request struct {
	Level                    string     `json:"level"`
	CityID                   *int64     `json:"cityId"`
	CountryID                *int64     `json:"countryId"`
	NumDays                  int        `json:"numDays"`
	MaxCities                int        `json:"maxCities"`
	PoisPerDay               int        `json:"poisPerDay"`
	PreferredCategoriesByDay [][]string `json:"preferredCategoriesByDay"`
	AvoidCategories          []string   `json:"avoidCategories"`
}

// Validate checks the structural arguments in the order they are reported to
// clients: level, then the id the level requires, then numDays.
func (r Request) Validate() error {
	if !validation.Var(r.Level, "required,oneof=city country") {
		return destination.InvalidArgument("level must be either 'city' or 'country'.")
	}

	switch Level(r.Level) {
	case LevelCity:
		if r.CityID == nil || !validation.Var(*r.CityID, "gt=0") {
			return destination.InvalidArgument("cityId is required and must be a positive integer when level = 'city'.")
		}
	case LevelCountry:
		if r.CountryID == nil || !validation.Var(*r.CountryID, "gt=0") {
			return destination.InvalidArgument("countryId is required and must be a positive integer when level = 'country'.")
		}
	}

	if !validation.Var(r.NumDays, "gt=0") {
		return destination.InvalidArgument("numDays must be a positive integer.")
	}
	return nil
}

// checkLimits rejects requests whose size would be unreasonable to build.
func (r Request) checkLimits(maxNumDays, maxPoisPerDay int) error {
	if !validation.Var(r.NumDays, "lte="+strconv.Itoa(maxNumDays)) {
		return destination.InvalidArgument("numDays must be at most %d.", maxNumDays)
	}
	if !validation.Var(r.PoisPerDay, "lte="+strconv.Itoa(maxPoisPerDay)) {
		return destination.InvalidArgument("poisPerDay must be at most %d.", maxPoisPerDay)
	}
	return nil
}

// preferredFor returns the category preferences for a 1-based day number.
// Days without an entry have no preference.
func (r Request) preferredFor(day int) []string {
	if i := day - 1; i >= 0 && i < len(r.PreferredCategoriesByDay) && r.PreferredCategoriesByDay[i] != nil {
		return r.PreferredCategoriesByDay[i]
	}
	return []string{}
}

// DayPlan is the selection for one day. City fields are nil when the day is
// served from country-level POIs only.
type DayPlan struct {
	DayNumber     int               `json:"dayNumber"`
	CityID        *int64            `json:"cityId"`
	CityName      *string           `json:"cityName"`
	CountryID     *int64            `json:"countryId"`
	CountryName   *string           `json:"countryName"`
	CategoryFocus []string          `json:"categoryFocus"`
	POIs          []destination.POI `json:"pois"`
}

// Summary is derived once from the finished day plans.
type Summary struct {
	TotalDays      int      `json:"totalDays"`
	TotalCities    int      `json:"totalCities"`
	TotalPOIs      int      `json:"totalPois"`
	CategoriesUsed []string `json:"categoriesUsed"`
}

// Itinerary is the ordered list of day plans plus its summary.
type Itinerary struct {
	Days    []DayPlan `json:"itinerary"`
	Summary Summary   `json:"summary"`
}

// Empty returns the zero-valued itinerary used in error responses.
func Empty() *Itinerary {
	return &Itinerary{
		Days:    []DayPlan{},
		Summary: Summary{CategoriesUsed: []string{}},
	}
}

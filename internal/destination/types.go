package destination

// Scope is the granularity at which destinations are requested or scored.
type Scope string

const (
	ScopeCity    Scope = "city"
	ScopeCountry Scope = "country"
)

// ParseScope validates a raw scope value.
func ParseScope(raw string) (Scope, error) {
	switch Scope(raw) {
	case ScopeCity, ScopeCountry:
		return Scope(raw), nil
	}
	return "", InvalidArgument(`scope must be "city" or "country"`)
}

// POI is a single point of interest. CityID is nil for country-level POIs.
type POI struct {
	ID        int64    `json:"poiId"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	CityID    *int64   `json:"cityId"`
	Address   *string  `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// City identifies a city together with its country.
type City struct {
	CityID      int64  `json:"cityId"`
	CityName    string `json:"cityName"`
	CountryID   int64  `json:"countryId"`
	CountryName string `json:"countryName"`
}

// CityPOICount is a city annotated with the number of city-scoped POIs it holds.
type CityPOICount struct {
	City
	POICount int `json:"poiCount"`
}

// FeatureRow carries the metrics used to score a city or a country.
// Nil metrics are unknown, not zero.
type FeatureRow struct {
	ID               int64    `json:"id"`
	Scope            Scope    `json:"scope"`
	Name             string   `json:"name"`
	CountryID        int64    `json:"countryId"`
	CountryName      string   `json:"countryName"`
	AvgTemperature   *float64 `json:"avgTemperature"`
	AvgFoodPrice     *float64 `json:"avgFoodPrice"`
	AvgHotelRating   *float64 `json:"avgHotelRating"`
	HotelCount       int      `json:"hotelCount"`
	POICount         int      `json:"poiCount"`
	MatchingPOICount int      `json:"matchingPoiCount"`
}

// FeatureFilters narrows the candidate set of destination feature rows.
type FeatureFilters struct {
	CandidateCityIDs    []int64  `json:"candidateCityIds"`
	MinTemp             *float64 `json:"minTemp"`
	MaxTemp             *float64 `json:"maxTemp"`
	MaxAvgFoodPrice     *float64 `json:"maxAvgFoodPrice"`
	MinHotelRating      *float64 `json:"minHotelRating"`
	MinHotelCount       *int     `json:"minHotelCount"`
	MinPOICount         *int     `json:"minPoiCount"`
	PreferredCategories []string `json:"preferredCategories"`
}

// CityDetail is the full record returned by a city lookup.
type CityDetail struct {
	CityID           int64    `json:"cityId"`
	CountryID        int64    `json:"countryId"`
	Name             string   `json:"name"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	AvgTemperature   *float64 `json:"avgTemperature"`
	LatestTempYear   *int     `json:"latestTempYear"`
	AvgFoodPrice     *float64 `json:"avgFoodPrice"`
	AvgGasPrice      *float64 `json:"avgGasPrice"`
	AvgMonthlySalary *float64 `json:"avgMonthlySalary"`
	POICount         int      `json:"poiCount"`
	HotelCount       int      `json:"hotelCount"`
	AvgHotelRating   *float64 `json:"avgHotelRating"`
}

// Hotel is a single hotel listing.
type Hotel struct {
	HotelID     int64    `json:"hotelId"`
	Name        string   `json:"name"`
	Rating      *float64 `json:"rating"`
	Address     *string  `json:"address"`
	Description *string  `json:"description"`
}

// CityRanking is a city row returned by the recommendation lists.
type CityRanking struct {
	CityID         int64    `json:"cityId"`
	Name           string   `json:"name"`
	CountryID      int64    `json:"countryId"`
	CountryName    string   `json:"countryName"`
	POICount       int      `json:"poiCount"`
	AvgTemperature *float64 `json:"avgTemperature,omitempty"`
	AvgFoodPrice   *float64 `json:"avgFoodPrice,omitempty"`
}

// RandomPick is a randomly chosen city or country.
type RandomPick struct {
	Scope       Scope   `json:"scope"`
	CountryID   int64   `json:"countryId"`
	CountryName string  `json:"countryName"`
	CityID      *int64  `json:"cityId"`
	CityName    *string `json:"cityName"`
}

// ReachableCity is a destination city reachable by air from one or more origin cities.
type ReachableCity struct {
	CityID           int64   `json:"cityId"`
	CityName         string  `json:"cityName"`
	CountryID        int64   `json:"countryId"`
	CountryName      string  `json:"countryName"`
	ReachableFromAll bool    `json:"reachableFromAll"`
	ReachableFrom    []int64 `json:"reachableFrom"`
}

// ReachabilityQuery selects destinations reachable from a set of origin cities.
type ReachabilityQuery struct {
	OriginCityIDs   []int64
	RequireAllReach bool
	MaxStops        int
	Limit           int
}

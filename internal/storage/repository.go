package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/neexbeast/wanderplan/internal/destination"
	"github.com/neexbeast/wanderplan/internal/metrics"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock or a circuit breaker.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository provides read access to the travel dataset.
type Repository struct {
	q Querier
}

// NewRepositoryWithQuerier constructs a Repository over q, usually a pgxpool.Pool
// or a BreakerQuerier wrapping one.
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// query runs sql and records its duration under name.
func (r *Repository) query(ctx context.Context, name, sql string, args ...any) (pgx.Rows, error) {
	start := time.Now()
	rows, err := r.q.Query(ctx, sql, args...)
	observe(name, start, err)
	return rows, err
}

// queryRow runs sql; the duration is recorded when the row is scanned.
func (r *Repository) queryRow(ctx context.Context, name, sql string, args ...any) pgx.Row {
	return &timedRow{name: name, start: time.Now(), row: r.q.QueryRow(ctx, sql, args...)}
}

type timedRow struct {
	name  string
	start time.Time
	row   pgx.Row
}

func (t *timedRow) Scan(dest ...any) error {
	err := t.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		observe(t.name, t.start, nil)
	} else {
		observe(t.name, t.start, err)
	}
	return err
}

func observe(name string, start time.Time, err error) {
	metrics.DBQueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues(name).Inc()
	}
}

// nullIfEmpty lets "$n::text[] IS NULL" skip a filter for empty lists.
func nullIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

func scanPOI(row pgx.CollectableRow) (destination.POI, error) {
	var p destination.POI
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.CityID, &p.Address)
	return p, err
}

// ---- itinerary data ----

// CityInfo returns a city with its country. Returns nil, nil when not found.
func (r *Repository) CityInfo(ctx context.Context, cityID int64) (*destination.City, error) {
	const q = `
		SELECT c.cityid, c.name, c.countryid, co.name
		FROM cities c
		JOIN countries co ON co.countryid = c.countryid
		WHERE c.cityid = $1
	`

	var c destination.City
	err := r.queryRow(ctx, "city_info", q, cityID).Scan(&c.CityID, &c.CityName, &c.CountryID, &c.CountryName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying city %d: %w", cityID, err)
	}
	return &c, nil
}

// CityPOIsWithCountryPOIs returns the city's POIs together with the
// country-level POIs of countryID, in random order.
func (r *Repository) CityPOIsWithCountryPOIs(ctx context.Context, cityID, countryID int64, avoid []string) ([]destination.POI, error) {
	const q = `
		SELECT poiid, name, primarycategory, cityid, address
		FROM pois
		WHERE (cityid = $1 OR (cityid IS NULL AND countryid = $3))
		AND ($2::text[] IS NULL OR NOT (primarycategory = ANY($2::text[])))
		ORDER BY RANDOM()
	`

	rows, err := r.query(ctx, "city_pois_with_country", q, cityID, nullIfEmpty(avoid), countryID)
	if err != nil {
		return nil, fmt.Errorf("querying POIs for city %d: %w", cityID, err)
	}
	pois, err := pgx.CollectRows(rows, scanPOI)
	if err != nil {
		return nil, fmt.Errorf("scanning POIs for city %d: %w", cityID, err)
	}
	return pois, nil
}

// CityPOIs returns the city-scoped POIs of a city, in random order.
func (r *Repository) CityPOIs(ctx context.Context, cityID int64, avoid []string) ([]destination.POI, error) {
	const q = `
		SELECT poiid, name, primarycategory, cityid, address
		FROM pois
		WHERE cityid = $1
		AND ($2::text[] IS NULL OR NOT (primarycategory = ANY($2::text[])))
		ORDER BY RANDOM()
	`

	rows, err := r.query(ctx, "city_pois", q, cityID, nullIfEmpty(avoid))
	if err != nil {
		return nil, fmt.Errorf("querying POIs for city %d: %w", cityID, err)
	}
	pois, err := pgx.CollectRows(rows, scanPOI)
	if err != nil {
		return nil, fmt.Errorf("scanning POIs for city %d: %w", cityID, err)
	}
	return pois, nil
}

// CountryOnlyPOIs returns the POIs of a country that belong to no city, in random order.
func (r *Repository) CountryOnlyPOIs(ctx context.Context, countryID int64, avoid []string) ([]destination.POI, error) {
	const q = `
		SELECT poiid, name, primarycategory, NULL::int8, address
		FROM pois
		WHERE countryid = $1
		AND cityid IS NULL
		AND ($2::text[] IS NULL OR NOT (primarycategory = ANY($2::text[])))
		ORDER BY RANDOM()
	`

	rows, err := r.query(ctx, "country_only_pois", q, countryID, nullIfEmpty(avoid))
	if err != nil {
		return nil, fmt.Errorf("querying country-level POIs for country %d: %w", countryID, err)
	}
	pois, err := pgx.CollectRows(rows, scanPOI)
	if err != nil {
		return nil, fmt.Errorf("scanning country-level POIs for country %d: %w", countryID, err)
	}
	return pois, nil
}

// CitiesWithPOICounts lists the cities of a country that have at least one
// city-scoped POI outside the avoided categories, busiest first.
func (r *Repository) CitiesWithPOICounts(ctx context.Context, countryID int64, avoid []string) ([]destination.CityPOICount, error) {
	const q = `
		SELECT c.cityid, c.name, c.countryid, co.name, COUNT(p.poiid)::int
		FROM cities c
		JOIN countries co ON co.countryid = c.countryid
		LEFT JOIN pois p
			ON p.cityid = c.cityid
			AND ($2::text[] IS NULL OR NOT (p.primarycategory = ANY($2::text[])))
		WHERE c.countryid = $1
		GROUP BY c.cityid, c.name, c.countryid, co.name
		HAVING COUNT(p.poiid) > 0
		ORDER BY COUNT(p.poiid) DESC
	`

	rows, err := r.query(ctx, "cities_with_poi_counts", q, countryID, nullIfEmpty(avoid))
	if err != nil {
		return nil, fmt.Errorf("querying cities for country %d: %w", countryID, err)
	}
	cities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (destination.CityPOICount, error) {
		var c destination.CityPOICount
		err := row.Scan(&c.CityID, &c.CityName, &c.CountryID, &c.CountryName, &c.POICount)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning cities for country %d: %w", countryID, err)
	}
	return cities, nil
}

// ---- scoring data ----

// FeatureRows returns one city-scoped row per city matching the candidate,
// temperature and food price filters, with hotel and POI aggregates joined.
// Hotel rating is NULL for cities without hotels.
func (r *Repository) FeatureRows(ctx context.Context, f destination.FeatureFilters) ([]destination.FeatureRow, error) {
	const q = `
		WITH filtered_cities AS (
			SELECT c.cityid, c.name, c.countryid, c.avgtemperaturelatestyear, c.avgfoodprice
			FROM cities c
			WHERE ($1::int8[] IS NULL OR c.cityid = ANY($1::int8[]))
			AND ($2::float8 IS NULL OR c.avgtemperaturelatestyear >= $2::float8)
			AND ($3::float8 IS NULL OR c.avgtemperaturelatestyear <= $3::float8)
			AND ($4::float8 IS NULL OR c.avgfoodprice <= $4::float8)
		),
		hotel_stats AS (
			SELECT h.cityid, AVG(h.rating) AS avg_rating, COUNT(*) AS hotel_count
			FROM hotel h
			JOIN filtered_cities fc ON fc.cityid = h.cityid
			GROUP BY h.cityid
		),
		poi_stats AS (
			SELECT
				p.cityid,
				COUNT(*) AS poi_count,
				COUNT(*) FILTER (WHERE p.primarycategory = ANY($5::text[])) AS matching_poi_count
			FROM pois p
			JOIN filtered_cities fc ON fc.cityid = p.cityid
			GROUP BY p.cityid
		)
		SELECT
			fc.cityid,
			fc.name,
			co.countryid,
			co.name,
			fc.avgtemperaturelatestyear::float8,
			fc.avgfoodprice::float8,
			hs.avg_rating::float8,
			COALESCE(hs.hotel_count, 0)::int,
			COALESCE(ps.poi_count, 0)::int,
			COALESCE(ps.matching_poi_count, 0)::int
		FROM filtered_cities fc
		JOIN countries co ON co.countryid = fc.countryid
		LEFT JOIN hotel_stats hs ON hs.cityid = fc.cityid
		LEFT JOIN poi_stats ps ON ps.cityid = fc.cityid
		ORDER BY fc.cityid
	`

	rows, err := r.query(ctx, "feature_rows", q,
		nullIfEmpty(f.CandidateCityIDs),
		f.MinTemp,
		f.MaxTemp,
		f.MaxAvgFoodPrice,
		f.PreferredCategories,
	)
	if err != nil {
		return nil, fmt.Errorf("querying feature rows: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (destination.FeatureRow, error) {
		fr := destination.FeatureRow{Scope: destination.ScopeCity}
		err := row.Scan(
			&fr.ID,
			&fr.Name,
			&fr.CountryID,
			&fr.CountryName,
			&fr.AvgTemperature,
			&fr.AvgFoodPrice,
			&fr.AvgHotelRating,
			&fr.HotelCount,
			&fr.POICount,
			&fr.MatchingPOICount,
		)
		return fr, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning feature rows: %w", err)
	}
	return out, nil
}

// SampleAttractions returns up to perID city POIs for each id, ordered by POI
// id. ids are city ids for city scope and country ids for country scope.
// Ids without POIs are absent from the result.
func (r *Repository) SampleAttractions(ctx context.Context, scope destination.Scope, ids []int64, perID int) (map[int64][]destination.POI, error) {
	const byCity = `
		SELECT key, poiid, name, primarycategory, cityid, address FROM (
			SELECT
				p.cityid AS key, p.poiid, p.name, p.primarycategory, p.cityid, p.address,
				ROW_NUMBER() OVER (PARTITION BY p.cityid ORDER BY p.poiid) AS rn
			FROM pois p
			WHERE p.cityid = ANY($1::int8[])
		) sub
		WHERE rn <= $2
		ORDER BY key, rn
	`
	const byCountry = `
		SELECT key, poiid, name, primarycategory, cityid, address FROM (
			SELECT
				c.countryid AS key, p.poiid, p.name, p.primarycategory, p.cityid, p.address,
				ROW_NUMBER() OVER (PARTITION BY c.countryid ORDER BY p.poiid) AS rn
			FROM pois p
			JOIN cities c ON c.cityid = p.cityid
			WHERE c.countryid = ANY($1::int8[])
		) sub
		WHERE rn <= $2
		ORDER BY key, rn
	`

	out := make(map[int64][]destination.POI, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	q := byCity
	if scope == destination.ScopeCountry {
		q = byCountry
	}

	rows, err := r.query(ctx, "sample_attractions", q, ids, perID)
	if err != nil {
		return nil, fmt.Errorf("querying sample attractions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key int64
			p   destination.POI
		)
		if err := rows.Scan(&key, &p.ID, &p.Name, &p.Category, &p.CityID, &p.Address); err != nil {
			return nil, fmt.Errorf("scanning sample attraction row: %w", err)
		}
		out[key] = append(out[key], p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sample attraction rows: %w", err)
	}
	return out, nil
}

// ---- lookups ----

// CityDetail returns the full record for a city. Returns nil, nil when not found.
func (r *Repository) CityDetail(ctx context.Context, cityID int64) (*destination.CityDetail, error) {
	const q = `
		SELECT
			c.cityid,
			c.countryid,
			c.name,
			c.latitude::float8,
			c.longitude::float8,
			c.avgtemperaturelatestyear::float8,
			c.latesttempyear::int,
			c.avgfoodprice::float8,
			c.avggasprice::float8,
			c.avgmonthlysalary::float8,
			(SELECT COUNT(*) FROM pois p WHERE p.cityid = c.cityid)::int,
			(SELECT COUNT(*) FROM hotel h WHERE h.cityid = c.cityid)::int,
			(SELECT AVG(h.rating) FROM hotel h WHERE h.cityid = c.cityid)::float8
		FROM cities c
		WHERE c.cityid = $1
	`

	var d destination.CityDetail
	err := r.queryRow(ctx, "city_detail", q, cityID).Scan(
		&d.CityID,
		&d.CountryID,
		&d.Name,
		&d.Latitude,
		&d.Longitude,
		&d.AvgTemperature,
		&d.LatestTempYear,
		&d.AvgFoodPrice,
		&d.AvgGasPrice,
		&d.AvgMonthlySalary,
		&d.POICount,
		&d.HotelCount,
		&d.AvgHotelRating,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying city detail %d: %w", cityID, err)
	}
	return &d, nil
}

// ListCityPOIs returns up to limit POIs of a city ordered by name, optionally
// restricted to one category.
func (r *Repository) ListCityPOIs(ctx context.Context, cityID int64, category string, limit int) ([]destination.POI, error) {
	const q = `
		SELECT poiid, name, primarycategory, cityid, address, latitude::float8, longitude::float8
		FROM pois
		WHERE cityid = $1
		AND ($2::text IS NULL OR primarycategory = $2::text)
		ORDER BY name
		LIMIT $3
	`

	var cat *string
	if category != "" {
		cat = &category
	}

	rows, err := r.query(ctx, "list_city_pois", q, cityID, cat, limit)
	if err != nil {
		return nil, fmt.Errorf("querying POI list for city %d: %w", cityID, err)
	}
	pois, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (destination.POI, error) {
		var p destination.POI
		err := row.Scan(&p.ID, &p.Name, &p.Category, &p.CityID, &p.Address, &p.Latitude, &p.Longitude)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning POI list for city %d: %w", cityID, err)
	}
	return pois, nil
}

// ListCityHotels returns up to limit hotels of a city, best rated first.
// Unrated hotels sort last and are excluded when minRating is set.
func (r *Repository) ListCityHotels(ctx context.Context, cityID int64, minRating *float64, limit int) ([]destination.Hotel, error) {
	const q = `
		SELECT hotelid, name, rating::float8, address, description
		FROM hotel
		WHERE cityid = $1
		AND ($2::float8 IS NULL OR rating >= $2::float8)
		ORDER BY rating DESC NULLS LAST, name
		LIMIT $3
	`

	rows, err := r.query(ctx, "list_city_hotels", q, cityID, minRating, limit)
	if err != nil {
		return nil, fmt.Errorf("querying hotels for city %d: %w", cityID, err)
	}
	hotels, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (destination.Hotel, error) {
		var h destination.Hotel
		err := row.Scan(&h.HotelID, &h.Name, &h.Rating, &h.Address, &h.Description)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning hotels for city %d: %w", cityID, err)
	}
	return hotels, nil
}

// TopAttractionCities ranks cities by POI count.
func (r *Repository) TopAttractionCities(ctx context.Context, limit int) ([]destination.CityRanking, error) {
	const q = `
		WITH city_poi_counts AS (
			SELECT cityid, COUNT(poiid)::int AS poi_count
			FROM pois
			GROUP BY cityid
		)
		SELECT c.cityid, c.name, co.countryid, co.name, COALESCE(cpc.poi_count, 0)::int AS poi_count
		FROM cities c
		JOIN countries co ON co.countryid = c.countryid
		LEFT JOIN city_poi_counts cpc ON cpc.cityid = c.cityid
		ORDER BY poi_count DESC, c.name
		LIMIT $1
	`

	rows, err := r.query(ctx, "top_attraction_cities", q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top attraction cities: %w", err)
	}
	cities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (destination.CityRanking, error) {
		var c destination.CityRanking
		err := row.Scan(&c.CityID, &c.Name, &c.CountryID, &c.CountryName, &c.POICount)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning top attraction cities: %w", err)
	}
	return cities, nil
}

// WarmBudgetCities lists cities at or above minTemp with a known food price and
// at least minPOIs POIs, cheapest first.
func (r *Repository) WarmBudgetCities(ctx context.Context, minTemp float64, minPOIs, limit int) ([]destination.CityRanking, error) {
	const q = `
		WITH city_poi_counts AS (
			SELECT cityid, COUNT(poiid)::int AS poi_count
			FROM pois
			GROUP BY cityid
		)
		SELECT
			c.cityid,
			c.name,
			co.countryid,
			co.name,
			COALESCE(cpc.poi_count, 0)::int AS poi_count,
			c.avgtemperaturelatestyear::float8,
			c.avgfoodprice::float8
		FROM cities c
		JOIN countries co ON co.countryid = c.countryid
		LEFT JOIN city_poi_counts cpc ON cpc.cityid = c.cityid
		WHERE c.avgtemperaturelatestyear IS NOT NULL
		AND c.avgtemperaturelatestyear >= $2::float8
		AND c.avgfoodprice IS NOT NULL
		AND COALESCE(cpc.poi_count, 0) >= $3
		ORDER BY c.avgfoodprice, poi_count DESC, c.name
		LIMIT $1
	`

	rows, err := r.query(ctx, "warm_budget_cities", q, limit, minTemp, minPOIs)
	if err != nil {
		return nil, fmt.Errorf("querying warm budget cities: %w", err)
	}
	cities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (destination.CityRanking, error) {
		var c destination.CityRanking
		err := row.Scan(&c.CityID, &c.Name, &c.CountryID, &c.CountryName, &c.POICount, &c.AvgTemperature, &c.AvgFoodPrice)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning warm budget cities: %w", err)
	}
	return cities, nil
}

// RandomCity picks a random city, within countryID when given.
// Returns nil, nil when there is no city to pick.
func (r *Repository) RandomCity(ctx context.Context, countryID *int64) (*destination.RandomPick, error) {
	const q = `
		SELECT c.cityid, c.name, co.countryid, co.name
		FROM cities c
		JOIN countries co ON co.countryid = c.countryid
		WHERE ($1::int8 IS NULL OR c.countryid = $1::int8)
		ORDER BY RANDOM()
		LIMIT 1
	`

	var (
		cityID   int64
		cityName string
	)
	pick := destination.RandomPick{Scope: destination.ScopeCity}
	err := r.queryRow(ctx, "random_city", q, countryID).Scan(&cityID, &cityName, &pick.CountryID, &pick.CountryName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying random city: %w", err)
	}
	pick.CityID = &cityID
	pick.CityName = &cityName
	return &pick, nil
}

// RandomCountry picks a random country. Returns nil, nil when there is none.
func (r *Repository) RandomCountry(ctx context.Context) (*destination.RandomPick, error) {
	const q = `
		SELECT countryid, name
		FROM countries
		ORDER BY RANDOM()
		LIMIT 1
	`

	pick := destination.RandomPick{Scope: destination.ScopeCountry}
	err := r.queryRow(ctx, "random_country", q).Scan(&pick.CountryID, &pick.CountryName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying random country: %w", err)
	}
	return &pick, nil
}

// ReachableCities lists destination cities served by routes with at most
// MaxStops stops from airports in the origin cities. Cities reachable from
// every origin sort first.
func (r *Repository) ReachableCities(ctx context.Context, rq destination.ReachabilityQuery) ([]destination.ReachableCity, error) {
	const q = `
		WITH origin_airports AS (
			SELECT DISTINCT o.origin_city_id, a.airportid AS origin_airport_id
			FROM unnest($1::int8[]) AS o(origin_city_id)
			JOIN airports a ON a.cityid = o.origin_city_id
		),
		reachable AS (
			SELECT oa.origin_city_id, a_dest.cityid AS dest_city_id
			FROM origin_airports oa
			JOIN routes r ON r.sourceid = oa.origin_airport_id
			JOIN airports a_dest ON a_dest.airportid = r.destinationid
			WHERE r.stops <= $2
		),
		dest_agg AS (
			SELECT
				dest_city_id,
				array_agg(DISTINCT origin_city_id)::int8[] AS reachable_from,
				COUNT(DISTINCT origin_city_id) AS origin_reach_count
			FROM reachable
			GROUP BY dest_city_id
		)
		SELECT
			c.cityid,
			c.name,
			co.countryid,
			co.name,
			(dest_agg.origin_reach_count = $3) AS reachable_from_all,
			dest_agg.reachable_from
		FROM dest_agg
		JOIN cities c ON c.cityid = dest_agg.dest_city_id
		JOIN countries co ON co.countryid = c.countryid
		WHERE (NOT $4::boolean OR dest_agg.origin_reach_count = $3)
		ORDER BY reachable_from_all DESC, c.name
		LIMIT $5
	`

	rows, err := r.query(ctx, "reachable_cities", q,
		rq.OriginCityIDs,
		rq.MaxStops,
		len(rq.OriginCityIDs),
		rq.RequireAllReach,
		rq.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying reachable cities: %w", err)
	}
	cities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (destination.ReachableCity, error) {
		var c destination.ReachableCity
		err := row.Scan(&c.CityID, &c.CityName, &c.CountryID, &c.CountryName, &c.ReachableFromAll, &c.ReachableFrom)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning reachable cities: %w", err)
	}
	return cities, nil
}

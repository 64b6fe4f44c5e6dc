package scoring

import "github.com/neexbeast/wanderplan/internal/destination"

// mean accumulates an average over the non-nil values it is fed.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

// value returns nil when nothing was added.
func (m *mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

type countryAcc struct {
	row                destination.FeatureRow
	temp, food, rating mean
}

// ReduceToCountry collapses city rows into one row per country. Counts are
// summed; temperature, food price and hotel rating are averaged over the
// cities that report them. Countries appear in order of their first city.
func ReduceToCountry(cityRows []destination.FeatureRow) []destination.FeatureRow {
	byCountry := make(map[int64]*countryAcc)
	var order []int64

	for _, r := range cityRows {
		acc, ok := byCountry[r.CountryID]
		if !ok {
			acc = &countryAcc{row: destination.FeatureRow{
				ID:          r.CountryID,
				Scope:       destination.ScopeCountry,
				Name:        r.CountryName,
				CountryID:   r.CountryID,
				CountryName: r.CountryName,
			}}
			byCountry[r.CountryID] = acc
			order = append(order, r.CountryID)
		}

		acc.temp.add(r.AvgTemperature)
		acc.food.add(r.AvgFoodPrice)
		acc.rating.add(r.AvgHotelRating)
		acc.row.HotelCount += r.HotelCount
		acc.row.POICount += r.POICount
		acc.row.MatchingPOICount += r.MatchingPOICount
	}

	out := make([]destination.FeatureRow, 0, len(order))
	for _, id := range order {
		acc := byCountry[id]
		acc.row.AvgTemperature = acc.temp.value()
		acc.row.AvgFoodPrice = acc.food.value()
		acc.row.AvgHotelRating = acc.rating.value()
		out = append(out, acc.row)
	}
	return out
}

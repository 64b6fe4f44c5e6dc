package scoring

import (
	"sort"

	"github.com/neexbeast/wanderplan/internal/destination"
)

// Scored is a feature row with its normalized sub-scores. Sub-scores are
// relative to the row set they were computed in.
type Scored struct {
	destination.FeatureRow
	FoodScore         float64           `json:"foodScore"`
	AttractionsScore  float64           `json:"attractionsScore"`
	HotelScore        float64           `json:"hotelScore"`
	CompositeScore    float64           `json:"compositeScore"`
	SampleAttractions []destination.POI `json:"sampleAttractions"`
}

// Score computes sub-scores and composite scores for rows and returns them
// sorted by composite score, highest first. Ties keep their input order.
func Score(rows []destination.FeatureRow, w Weights) []Scored {
	maxFood, maxPOI, maxHotels := 1.0, 1.0, 1.0
	for _, r := range rows {
		if r.AvgFoodPrice != nil {
			maxFood = max(maxFood, *r.AvgFoodPrice)
		}
		maxPOI = max(maxPOI, float64(r.POICount))
		maxHotels = max(maxHotels, float64(r.HotelCount))
	}

	out := make([]Scored, 0, len(rows))
	for _, r := range rows {
		s := Scored{FeatureRow: r, SampleAttractions: []destination.POI{}}

		// Cheaper food scores higher.
		if r.AvgFoodPrice != nil {
			s.FoodScore = 1 - clamp01(*r.AvgFoodPrice/maxFood)
		}
		if r.POICount > 0 {
			s.AttractionsScore = clamp01(float64(r.POICount) / maxPOI)
		}
		if r.HotelCount > 0 {
			s.HotelScore = clamp01(float64(r.HotelCount) / maxHotels)
		}

		s.CompositeScore = w.Food*s.FoodScore + w.Attractions*s.AttractionsScore + w.Hotels*s.HotelScore
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompositeScore > out[j].CompositeScore
	})
	return out
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}

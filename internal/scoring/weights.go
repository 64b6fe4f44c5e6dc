package scoring

// Default weights, applied per field when the caller leaves it unset.
const (
	DefaultFoodWeight        = 0.33
	DefaultAttractionsWeight = 0.33
	DefaultHotelsWeight      = 0.34
)

// RawWeights are the caller-supplied weights. Nil fields take their default.
type RawWeights struct {
	Food        *float64 `json:"food" validate:"omitempty,gte=0"`
	Attractions *float64 `json:"attractions" validate:"omitempty,gte=0"`
	Hotels      *float64 `json:"hotels" validate:"omitempty,gte=0"`
}

// Weights are normalized sub-score weights. They sum to 1, or are all zero
// when every raw weight was zero.
type Weights struct {
	Food        float64 `json:"food"`
	Attractions float64 `json:"attractions"`
	Hotels      float64 `json:"hotels"`
}

// NormalizeWeights fills defaults and rescales the weights to sum to 1.
// A zero sum divides by 1 instead, yielding all-zero weights.
func NormalizeWeights(raw *RawWeights) Weights {
	w := Weights{
		Food:        DefaultFoodWeight,
		Attractions: DefaultAttractionsWeight,
		Hotels:      DefaultHotelsWeight,
	}
	if raw != nil {
		if raw.Food != nil {
			w.Food = *raw.Food
		}
		if raw.Attractions != nil {
			w.Attractions = *raw.Attractions
		}
		if raw.Hotels != nil {
			w.Hotels = *raw.Hotels
		}
	}

	sum := w.Food + w.Attractions + w.Hotels
	if sum == 0 {
		sum = 1
	}

	return Weights{
		Food:        w.Food / sum,
		Attractions: w.Attractions / sum,
		Hotels:      w.Hotels / sum,
	}
}

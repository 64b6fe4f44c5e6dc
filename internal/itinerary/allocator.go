package itinerary

import "github.com/neexbeast/wanderplan/internal/destination"

// AllocateDay selects up to poisPerDay POIs for a single day.
//
// The primary pool is drained first: preferred categories, then anything.
// The fallback pool, when given, only covers whatever the primary pool could
// not. A short (or empty) day is a valid result once both pools run dry.
func AllocateDay(primary, fallback *Pool, preferred []string, poisPerDay int) []destination.POI {
	picked := make([]destination.POI, 0, max(min(poisPerDay, primary.Len()+fallback.Len()), 0))

	picked = drawFrom(primary, preferred, poisPerDay, picked)
	if len(picked) < poisPerDay && fallback != nil {
		picked = drawFrom(fallback, preferred, poisPerDay, picked)
	}

	return picked
}

// drawFrom tops picked up to want from pool, preferred categories first.
func drawFrom(pool *Pool, preferred []string, want int, picked []destination.POI) []destination.POI {
	if len(preferred) > 0 && pool.Len() > 0 {
		picked = append(picked, pool.ExtractPreferred(preferred, want-len(picked))...)
	}
	if short := want - len(picked); short > 0 && pool.Len() > 0 {
		picked = append(picked, pool.ExtractAny(short)...)
	}
	return picked
}

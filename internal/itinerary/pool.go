package itinerary

import "github.com/neexbeast/wanderplan/internal/destination"

// Pool is a request-scoped, ordered collection of POIs available for
// allocation. A POI handed to a Pool belongs to it until it is extracted;
// NewPool copies its input so two pools never share backing storage.
type Pool struct {
	items []destination.POI
}

// NewPool builds a pool holding pois in the given order.
func NewPool(pois []destination.POI) *Pool {
	items := make([]destination.POI, len(pois))
	copy(items, pois)
	return &Pool{items: items}
}

// Len reports how many POIs remain. A nil pool is empty.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// ExtractPreferred removes and returns up to count POIs whose category is in
// preferred, in pool order. The POIs left behind are reordered so that the
// remaining matching ones come first, then the non-matching ones, each group
// keeping its relative order.
func (p *Pool) ExtractPreferred(preferred []string, count int) []destination.POI {
	if p.Len() == 0 || count <= 0 || len(preferred) == 0 {
		return nil
	}

	want := make(map[string]struct{}, len(preferred))
	for _, c := range preferred {
		want[c] = struct{}{}
	}

	var matching, rest []destination.POI
	for _, poi := range p.items {
		if _, ok := want[poi.Category]; ok {
			matching = append(matching, poi)
		} else {
			rest = append(rest, poi)
		}
	}

	n := min(count, len(matching))
	picked := matching[:n:n]

	remaining := make([]destination.POI, 0, len(p.items)-n)
	remaining = append(remaining, matching[n:]...)
	remaining = append(remaining, rest...)
	p.items = remaining

	return picked
}

// ExtractAny removes and returns up to count POIs from the front of the pool.
func (p *Pool) ExtractAny(count int) []destination.POI {
	if p.Len() == 0 || count <= 0 {
		return nil
	}

	n := min(count, len(p.items))
	picked := make([]destination.POI, n)
	copy(picked, p.items[:n])
	p.items = p.items[n:]

	return picked
}

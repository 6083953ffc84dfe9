package calendarmodel

import (
	"sort"
	"time"

	"github.com/emersion/go-ical"

	"github.com/calquery/calquery/geo"
)

// GeoOverride distinguishes "occurrence has no geo override" (nil
// *GeoOverride) from "occurrence clears the base geo point" (Cleared)
// from "occurrence sets its own point" (Point).
type GeoOverride struct {
	Cleared bool
	Point   geo.Point
}

// OccurrenceOverride carries the per-occurrence deltas from an event's
// base properties. A nil pointer field means "not overridden, use
// base"; a non-nil pointer to an empty/zero value means "overridden to
// empty", which removes the base property's contribution for this
// occurrence. Grounded on original_source/redical_core's
// EventOccurrenceOverride.
type OccurrenceOverride struct {
	LastModified time.Time

	DTStart  *time.Time
	DTEnd    *time.Time
	Duration *time.Duration

	Categories   *map[string]struct{}
	Class        *string
	LocationType *string
	Geo          *GeoOverride
	RelatedTo    *map[string]map[string]struct{}

	Passive []*ical.Prop
}

// termsFor returns the override's flattened term set for family, and
// whether family is overridden at all for this occurrence.
func (o *OccurrenceOverride) termsFor(family Family) (map[string]struct{}, bool) {
	if o == nil {
		return nil, false
	}
	switch family {
	case FamilyCategories:
		if o.Categories == nil {
			return nil, false
		}
		return *o.Categories, true
	case FamilyClass:
		if o.Class == nil {
			return nil, false
		}
		if *o.Class == "" {
			return nil, true
		}
		return map[string]struct{}{*o.Class: {}}, true
	case FamilyLocationType:
		if o.LocationType == nil {
			return nil, false
		}
		if *o.LocationType == "" {
			return nil, true
		}
		return map[string]struct{}{*o.LocationType: {}}, true
	case FamilyRelatedTo:
		if o.RelatedTo == nil {
			return nil, false
		}
		return relatedToTerms(*o.RelatedTo), true
	case FamilyGeo:
		if o.Geo == nil {
			return nil, false
		}
		if o.Geo.Cleared {
			return nil, true
		}
		return map[string]struct{}{o.Geo.Point.Hash(): {}}, true
	default:
		return nil, false
	}
}

// OverrideMap is the ordered timestamp -> OccurrenceOverride map an
// Event carries. Backed by a plain map plus a maintained-sorted slice
// of keys, since overrides are mutated far less often than they are
// iterated in timestamp order (index rebuild, pruning, instance
// expansion).
type OverrideMap struct {
	byTimestamp map[Timestamp]*OccurrenceOverride
	order       []Timestamp
}

// NewOverrideMap returns an empty map.
func NewOverrideMap() *OverrideMap {
	return &OverrideMap{byTimestamp: make(map[Timestamp]*OccurrenceOverride)}
}

// Get returns the override at ts, if any.
func (m *OverrideMap) Get(ts Timestamp) (*OccurrenceOverride, bool) {
	o, ok := m.byTimestamp[ts]
	return o, ok
}

// Set inserts or replaces the override at ts.
func (m *OverrideMap) Set(ts Timestamp, o *OccurrenceOverride) {
	if _, exists := m.byTimestamp[ts]; !exists {
		i := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= ts })
		m.order = append(m.order, 0)
		copy(m.order[i+1:], m.order[i:])
		m.order[i] = ts
	}
	m.byTimestamp[ts] = o
}

// Delete removes the override at ts, if any, returning it.
func (m *OverrideMap) Delete(ts Timestamp) (*OccurrenceOverride, bool) {
	o, ok := m.byTimestamp[ts]
	if !ok {
		return nil, false
	}
	delete(m.byTimestamp, ts)
	i := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= ts })
	if i < len(m.order) && m.order[i] == ts {
		m.order = append(m.order[:i], m.order[i+1:]...)
	}
	return o, true
}

// Len reports the number of overrides.
func (m *OverrideMap) Len() int {
	return len(m.order)
}

// All returns every override timestamp, ascending.
func (m *OverrideMap) All() []Timestamp {
	return m.order
}

// Range returns the override timestamps within [lower, upper] honoring
// each bound's inclusivity, ascending. Both bounds must be Included or
// Excluded; Unbounded is the caller's responsibility to reject (see
// Prune).
func (m *OverrideMap) Range(lower, upper Bound) []Timestamp {
	lo := sort.Search(len(m.order), func(i int) bool {
		if lower.Kind == Included {
			return m.order[i] >= lower.Value
		}
		return m.order[i] > lower.Value
	})
	hi := sort.Search(len(m.order), func(i int) bool {
		if upper.Kind == Included {
			return m.order[i] > upper.Value
		}
		return m.order[i] >= upper.Value
	})
	if hi < lo {
		return nil
	}
	out := make([]Timestamp, hi-lo)
	copy(out, m.order[lo:hi])
	return out
}

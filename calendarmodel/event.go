package calendarmodel

import (
	"time"

	"github.com/emersion/go-ical"

	"github.com/calquery/calquery/geo"
	"github.com/calquery/calquery/index"
)

// IndexedProperties is the subset of an event's properties the engine
// builds inverted indexes over.
type IndexedProperties struct {
	Categories   map[string]struct{}
	Class        string
	LocationType string
	Geo          *geo.Point
	RelatedTo    map[string]map[string]struct{} // reltype -> related UIDs
}

// NewIndexedProperties returns a zero-value (all properties absent) set.
func NewIndexedProperties() IndexedProperties {
	return IndexedProperties{
		Categories: make(map[string]struct{}),
		RelatedTo:  make(map[string]map[string]struct{}),
	}
}

// relatedToTerms flattens RelatedTo into the encoded term set the
// generic per-family index builder consumes.
func relatedToTerms(m map[string]map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for reltype, uids := range m {
		for uid := range uids {
			out[KeyValuePair{Key: reltype, Value: uid}.Encode()] = struct{}{}
		}
	}
	return out
}

// Family names the property families the generic per-event/per-calendar
// index machinery covers. FamilyGeo rides the same per-event folding
// logic (base term plus override exceptions) as the other four, keyed
// by the point's geohash instead of a literal string value, but is
// consumed by geoindex.GeoIndex rather than index.CalendarIndex, so it
// is deliberately left out of AllFamilies.
type Family string

const (
	FamilyCategories   Family = "categories"
	FamilyClass        Family = "class"
	FamilyLocationType Family = "location-type"
	FamilyRelatedTo    Family = "related-to"
	FamilyGeo          Family = "geo"
)

// AllFamilies lists every string-term family indexed by a plain
// index.CalendarIndex, in a fixed order so callers that fan work out
// across families (index rebuild) get deterministic logging/metrics
// labeling.
var AllFamilies = []Family{FamilyCategories, FamilyClass, FamilyLocationType, FamilyRelatedTo}

// baseTerms returns the event-level (non-override) term set for family.
func (ip IndexedProperties) baseTerms(family Family) map[string]struct{} {
	switch family {
	case FamilyCategories:
		return ip.Categories
	case FamilyClass:
		if ip.Class == "" {
			return nil
		}
		return map[string]struct{}{ip.Class: {}}
	case FamilyLocationType:
		if ip.LocationType == "" {
			return nil
		}
		return map[string]struct{}{ip.LocationType: {}}
	case FamilyRelatedTo:
		return relatedToTerms(ip.RelatedTo)
	case FamilyGeo:
		if ip.Geo == nil {
			return nil
		}
		return map[string]struct{}{ip.Geo.Hash(): {}}
	default:
		return nil
	}
}

// GeoIndexTerms returns the per-occurrence geo conclusion for e, keyed
// by geohash exactly like IndexFor(FamilyGeo), together with the
// coordinate each hash stands for. geoindex.GeoIndex.InsertEvent folds
// this into its shared per-point nodes, so two events (or two
// occurrences of the same event, via an override) at the same geohash
// cell contribute to one spatial node instead of two.
func (e *Event) GeoIndexTerms() (*index.PerEventIndex, map[string]geo.Point) {
	perEvent := e.IndexFor(FamilyGeo)
	points := make(map[string]geo.Point, len(perEvent.Terms))
	if e.Indexed.Geo != nil {
		points[e.Indexed.Geo.Hash()] = *e.Indexed.Geo
	}
	for _, ts := range e.Overrides.All() {
		ov, _ := e.Overrides.Get(ts)
		if ov.Geo == nil || ov.Geo.Cleared {
			continue
		}
		points[ov.Geo.Point.Hash()] = ov.Geo.Point
	}
	return perEvent, points
}

// PassiveProperties holds the properties the engine does not index, kept
// opaque so the event can round-trip back through go-ical without data
// loss.
type PassiveProperties struct {
	Props []*ical.Prop
}

// ScheduleProperties is the raw RFC 5545 recurrence description for one
// event: DTSTART plus the rules/dates that expand or restrict it.
type ScheduleProperties struct {
	DTStart  time.Time
	DTEnd    *time.Time
	Duration *time.Duration
	RRule    string // RRULE value text, e.g. "FREQ=WEEKLY;COUNT=5"; empty if none
	ExRule   string // EXRULE value text; empty if none
	RDates   []time.Time
	ExDates  []time.Time
}

// Event is one calendar component (VEVENT) together with everything the
// engine needs to expand, index and query its occurrences.
type Event struct {
	UID          string
	LastModified time.Time

	Schedule ScheduleProperties
	Indexed  IndexedProperties
	Passive  PassiveProperties

	Overrides *OverrideMap

	// source is the ical.Component this event was parsed from, retained
	// so passive properties and any content lines the model does not
	// itself interpret survive a re-render.
	source *ical.Component

	// perEventIndex caches the built index for each family; set to nil
	// by InvalidateIndex (which Prune calls after removing overrides) and
	// rebuilt lazily on next access. Editing Indexed or Overrides
	// directly does not clear it.
	perEventIndex map[Family]*index.PerEventIndex
}

// NewEvent returns an empty event with uid, ready for properties to be
// filled in.
func NewEvent(uid string) *Event {
	return &Event{
		UID:       uid,
		Indexed:   NewIndexedProperties(),
		Overrides: NewOverrideMap(),
	}
}

// SetSource records the ical.Component this event was parsed from, for
// passive round-trip. It does not copy any properties out of comp --
// callers populate Schedule/Indexed/Passive explicitly.
func (e *Event) SetSource(comp *ical.Component) {
	e.source = comp
}

// Source returns the originating ical.Component, or nil if the event
// was never parsed from one (constructed in memory).
func (e *Event) Source() *ical.Component {
	return e.source
}

// InvalidateIndex drops the cached per-event index for every family,
// forcing the next IndexFor call to rebuild it.
func (e *Event) InvalidateIndex() {
	e.perEventIndex = nil
}

// IndexFor returns (building and caching if necessary) the per-event
// index for family.
func (e *Event) IndexFor(family Family) *index.PerEventIndex {
	if e.perEventIndex == nil {
		e.perEventIndex = make(map[Family]*index.PerEventIndex, len(AllFamilies))
	}
	if idx, ok := e.perEventIndex[family]; ok {
		return idx
	}

	base := e.Indexed.baseTerms(family)
	idx := index.NewPerEventIndexFromBase(base)
	for _, ts := range e.Overrides.All() {
		ov, _ := e.Overrides.Get(ts)
		overrideTerms, overridden := ov.termsFor(family)
		if !overridden {
			continue
		}
		idx.InsertOverride(int64(ts), overrideTerms)
	}
	e.perEventIndex[family] = idx
	return idx
}

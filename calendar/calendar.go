// Package calendar wires the event store together with the inverted
// and geo indexes: one Calendar per spec.md §3's "C9 Calendar" --
// an ordered event map, one CalendarIndex per string-term property
// family, and one GeoIndex.
package calendar

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/calquery/calquery/calendarmodel"
	"github.com/calquery/calquery/calerrors"
	"github.com/calquery/calquery/geoindex"
	"github.com/calquery/calquery/index"
)

// Calendar is the in-memory store for one calendar's events, plus the
// indexes built over them.
type Calendar struct {
	UID string

	events      map[string]*calendarmodel.Event
	eventOrder  []string // insertion order, for deterministic iteration
	indexActive bool

	indexes map[calendarmodel.Family]*index.CalendarIndex
	geo     *geoindex.GeoIndex
}

// New returns an empty calendar with indexing active.
func New(uid string) *Calendar {
	c := &Calendar{
		UID:         uid,
		events:      make(map[string]*calendarmodel.Event),
		indexActive: true,
		indexes:     make(map[calendarmodel.Family]*index.CalendarIndex, len(calendarmodel.AllFamilies)),
		geo:         geoindex.New(),
	}
	for _, family := range calendarmodel.AllFamilies {
		c.indexes[family] = index.NewCalendarIndex()
	}
	return c
}

// Index returns the CalendarIndex for family.
func (c *Calendar) Index(family calendarmodel.Family) *index.CalendarIndex {
	return c.indexes[family]
}

// Geo returns the calendar's GeoIndex.
func (c *Calendar) Geo() *geoindex.GeoIndex {
	return c.geo
}

// Event looks up an event by UID.
func (c *Calendar) Event(uid string) (*calendarmodel.Event, bool) {
	e, ok := c.events[uid]
	return e, ok
}

// Events returns every event, in insertion order.
func (c *Calendar) Events() []*calendarmodel.Event {
	out := make([]*calendarmodel.Event, 0, len(c.eventOrder))
	for _, uid := range c.eventOrder {
		out = append(out, c.events[uid])
	}
	return out
}

// Len reports how many events the calendar holds.
func (c *Calendar) Len() int {
	return len(c.events)
}

// IndexesActive reports whether the calendar-level indexes are
// currently being maintained.
func (c *Calendar) IndexesActive() bool {
	return c.indexActive
}

// DisableIndexes stops index maintenance and discards the existing
// indexes; events remain stored. A subsequent EnableIndexes rebuilds
// from scratch. Matches spec's bulk-load path: disable before a large
// import, enable (triggering one rebuild) afterward.
func (c *Calendar) DisableIndexes() {
	c.indexActive = false
	for _, family := range calendarmodel.AllFamilies {
		c.indexes[family] = index.NewCalendarIndex()
	}
	c.geo = geoindex.New()
}

// EnableIndexes turns index maintenance back on and rebuilds every
// index from the current event set.
func (c *Calendar) EnableIndexes(ctx context.Context) error {
	c.indexActive = true
	return c.Rebuild(ctx)
}

// InsertEvent adds or replaces e in the store. If indexes are active,
// it incrementally maintains them against the previous revision (if
// any) via calendarmodel.DiffEvents, rebuilding only the families and
// the geo index that actually changed.
func (c *Calendar) InsertEvent(e *calendarmodel.Event) {
	old, existed := c.events[e.UID]
	if !existed {
		c.eventOrder = append(c.eventOrder, e.UID)
	}
	c.events[e.UID] = e

	if !c.indexActive {
		return
	}

	if !existed {
		for _, family := range calendarmodel.AllFamilies {
			c.indexes[family].InsertEvent(e.UID, e.IndexFor(family))
		}
		perEvent, points := e.GeoIndexTerms()
		c.geo.InsertEvent(e.UID, perEvent, points)
		return
	}

	diff := calendarmodel.DiffEvents(old, e)
	for _, family := range calendarmodel.AllFamilies {
		if !diff.FamilyChanged[family] {
			continue
		}
		c.indexes[family].ApplyDiff(e.UID, old.IndexFor(family), e.IndexFor(family))
	}
	if diff.GeoChanged {
		perEvent, points := e.GeoIndexTerms()
		c.geo.InsertEvent(e.UID, perEvent, points)
	}
}

// RemoveEvent drops uid from the store and, if indexes are active,
// from every index.
func (c *Calendar) RemoveEvent(uid string) {
	e, ok := c.events[uid]
	if !ok {
		return
	}
	delete(c.events, uid)
	for i, u := range c.eventOrder {
		if u == uid {
			c.eventOrder = append(c.eventOrder[:i], c.eventOrder[i+1:]...)
			break
		}
	}

	if !c.indexActive {
		return
	}
	for _, family := range calendarmodel.AllFamilies {
		c.indexes[family].RemoveEvent(uid, e.IndexFor(family))
	}
	c.geo.Remove(uid)
}

// Rebuild discards and rebuilds every index from the current event
// set, fanning the independent property families out across
// goroutines -- each family only reads the shared event set and writes
// its own CalendarIndex, so there is no cross-family contention. The
// geo index rebuilds on the calling goroutine, since it is cheap
// relative to the four string-term families.
//
// Rebuild either fully succeeds or leaves every index empty; a
// mid-rebuild cancellation (ctx.Err()) does not leave a half-populated
// index for callers to observe.
func (c *Calendar) Rebuild(ctx context.Context) error {
	events := c.Events()

	newIndexes := make(map[calendarmodel.Family]*index.CalendarIndex, len(calendarmodel.AllFamilies))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, family := range calendarmodel.AllFamilies {
		family := family
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ci := index.NewCalendarIndex()
			for _, e := range events {
				ci.InsertEvent(e.UID, e.IndexFor(family))
			}
			mu.Lock()
			newIndexes[family] = ci
			mu.Unlock()
			return nil
		})
	}

	newGeo := geoindex.New()
	for _, e := range events {
		perEvent, points := e.GeoIndexTerms()
		newGeo.InsertEvent(e.UID, perEvent, points)
	}

	if err := g.Wait(); err != nil {
		for _, family := range calendarmodel.AllFamilies {
			c.indexes[family] = index.NewCalendarIndex()
		}
		c.geo = geoindex.New()
		return calerrors.NewIndexState("calendar.Calendar.Rebuild", "index rebuild failed", err)
	}

	c.indexes = newIndexes
	c.geo = newGeo
	return nil
}

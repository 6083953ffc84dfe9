package geoindex

import (
	"testing"

	"github.com/calquery/calquery/geo"
	"github.com/calquery/calquery/index"
)

func mustPoint(t *testing.T, lat, long float64) geo.Point {
	t.Helper()
	p, err := geo.NewPoint(lat, long)
	if err != nil {
		t.Fatalf("NewPoint(%v, %v): %v", lat, long, err)
	}
	return p
}

// insertAt is the test-only shorthand for the common case: uid is
// included at p on every occurrence.
func insertAt(gi *GeoIndex, uid string, p geo.Point) {
	perEvent := index.NewPerEventIndexFromBase(map[string]struct{}{p.Hash(): {}})
	gi.InsertEvent(uid, perEvent, map[string]geo.Point{p.Hash(): p})
}

func TestInsertLookupRemove(t *testing.T) {
	gi := New()
	p := mustPoint(t, 51.5074, -0.1278)

	insertAt(gi, "event-london", p)
	if gi.Len() != 1 {
		t.Fatalf("want 1 indexed event, got %d", gi.Len())
	}
	got, ok := gi.Lookup("event-london")
	if !ok || got != p {
		t.Fatalf("Lookup returned (%v, %v), want (%v, true)", got, ok, p)
	}

	gi.Remove("event-london")
	if gi.Len() != 0 {
		t.Fatalf("want 0 indexed events after remove, got %d", gi.Len())
	}
	if _, ok := gi.Lookup("event-london"); ok {
		t.Fatal("Lookup should report false after removal")
	}
}

func TestInsertEventReplacesPriorLocation(t *testing.T) {
	gi := New()
	insertAt(gi, "event-a", mustPoint(t, 0, 0))
	insertAt(gi, "event-a", mustPoint(t, 10, 10))

	if gi.Len() != 1 {
		t.Fatalf("re-inserting the same uid should not grow the index, got len %d", gi.Len())
	}
	got, _ := gi.Lookup("event-a")
	if got.Lat != 10 || got.Long != 10 {
		t.Fatalf("expected the newer location to win, got %v", got)
	}
}

func TestRemoveUnknownUIDIsNoop(t *testing.T) {
	gi := New()
	gi.Remove("never-inserted")
	if gi.Len() != 0 {
		t.Fatal("removing an unindexed uid must not change Len")
	}
}

func TestLocateWithinDistanceOrdersByDistanceThenUID(t *testing.T) {
	gi := New()
	london := mustPoint(t, 51.5074, -0.1278)
	parisNear := mustPoint(t, 48.8566, 2.3522)
	farAway := mustPoint(t, -33.8688, 151.2093) // Sydney

	insertAt(gi, "paris", parisNear)
	insertAt(gi, "sydney", farAway)
	insertAt(gi, "london", london)

	results := gi.LocateWithinDistance(london, 300)

	if len(results) != 1 {
		t.Fatalf("want 1 result within 300km of London, got %d: %+v", len(results), results)
	}
	if results[0].UID != "london" {
		t.Fatalf("want london (distance 0) first, got %q", results[0].UID)
	}

	wider := gi.LocateWithinDistance(london, 500)
	if len(wider) != 2 {
		t.Fatalf("want 2 results within 500km of London (london, paris), got %d", len(wider))
	}
	if wider[0].UID != "london" || wider[1].UID != "paris" {
		t.Fatalf("want [london, paris] ascending by distance, got [%s, %s]", wider[0].UID, wider[1].UID)
	}
	if wider[0].Distance.Compare(wider[1].Distance) > 0 {
		t.Fatal("results must be ascending by distance")
	}
}

func TestLocateWithinDistanceExcludesBeyondRadius(t *testing.T) {
	gi := New()
	center := mustPoint(t, 0, 0)
	insertAt(gi, "far", mustPoint(t, 10, 10))

	results := gi.LocateWithinDistance(center, 1)
	if len(results) != 0 {
		t.Fatalf("want no results within 1km, got %+v", results)
	}
}

func TestDistanceTo(t *testing.T) {
	gi := New()
	center := mustPoint(t, 0, 0)
	insertAt(gi, "event-a", mustPoint(t, 0, 0))

	d, ok := gi.DistanceTo("event-a", center)
	if !ok {
		t.Fatal("expected DistanceTo to find event-a")
	}
	if d.KilometersFloat() != 0 {
		t.Fatalf("distance from a point to itself should be 0, got %v", d.KilometersFloat())
	}

	if _, ok := gi.DistanceTo("missing", center); ok {
		t.Fatal("DistanceTo should report false for an unindexed uid")
	}
}

func TestInsertEventFoldsSharedPointIntoOneNode(t *testing.T) {
	gi := New()
	p := mustPoint(t, 0, 0)
	insertAt(gi, "event-a", p)
	insertAt(gi, "event-b", p)

	results := gi.LocateWithinDistance(p, 1)
	if len(results) != 2 {
		t.Fatalf("want both co-located events returned, got %d: %+v", len(results), results)
	}
}

func TestInsertEventCarriesOverrideConclusion(t *testing.T) {
	gi := New()
	base := mustPoint(t, 0, 0)
	elsewhere := mustPoint(t, 10, 10)

	// event-a sits at base on every occurrence except ts=100, which an
	// override moves to elsewhere.
	perEvent := index.NewPerEventIndexFromBase(map[string]struct{}{base.Hash(): {}})
	perEvent.InsertOverride(100, map[string]struct{}{elsewhere.Hash(): {}})
	points := map[string]geo.Point{base.Hash(): base, elsewhere.Hash(): elsewhere}
	gi.InsertEvent("event-a", perEvent, points)

	baseHits := gi.LocateWithinDistance(base, 1)
	if len(baseHits) != 1 {
		t.Fatalf("want event-a indexed at base, got %+v", baseHits)
	}
	if baseHits[0].Conclusion.IncludeOccurrence(100) {
		t.Fatal("ts=100 was overridden away from base and must not be included there")
	}
	if !baseHits[0].Conclusion.IncludeOccurrence(200) {
		t.Fatal("every non-overridden occurrence should still be included at base")
	}

	elsewhereHits := gi.LocateWithinDistance(elsewhere, 1)
	if len(elsewhereHits) != 1 {
		t.Fatalf("want event-a indexed at the override point too, got %+v", elsewhereHits)
	}
	if !elsewhereHits[0].Conclusion.IncludeOccurrence(100) {
		t.Fatal("ts=100 should be included at the override point")
	}
	if elsewhereHits[0].Conclusion.IncludeOccurrence(200) {
		t.Fatal("only ts=100 was overridden to the new point")
	}
}

func TestRemoveDropsEveryNodeEventTouches(t *testing.T) {
	gi := New()
	base := mustPoint(t, 0, 0)
	elsewhere := mustPoint(t, 10, 10)

	perEvent := index.NewPerEventIndexFromBase(map[string]struct{}{base.Hash(): {}})
	perEvent.InsertOverride(100, map[string]struct{}{elsewhere.Hash(): {}})
	points := map[string]geo.Point{base.Hash(): base, elsewhere.Hash(): elsewhere}
	gi.InsertEvent("event-a", perEvent, points)

	gi.Remove("event-a")
	if gi.Len() != 0 {
		t.Fatalf("want 0 indexed events after remove, got %d", gi.Len())
	}
	if len(gi.LocateWithinDistance(base, 1)) != 0 || len(gi.LocateWithinDistance(elsewhere, 1)) != 0 {
		t.Fatal("removal must drop the event from every node it touched")
	}
}

package calendarmodel

import (
	"testing"

	"github.com/calquery/calquery/geo"
)

func TestIndexForBuildsFromBaseProperties(t *testing.T) {
	e := NewEvent("event-a")
	e.Indexed.Categories["work"] = struct{}{}

	idx := e.IndexFor(FamilyCategories)
	if !idx.IncludeOccurrence("work", 100) {
		t.Fatal("base category should include every occurrence absent an override")
	}
}

func TestIndexForAppliesOverrides(t *testing.T) {
	e := NewEvent("event-a")
	e.Indexed.Categories["work"] = struct{}{}

	empty := map[string]struct{}{}
	e.Overrides.Set(100, &OccurrenceOverride{Categories: &empty})

	idx := e.IndexFor(FamilyCategories)
	if idx.IncludeOccurrence("work", 100) {
		t.Fatal("occurrence 100 cleared its categories override, should not include work")
	}
	if !idx.IncludeOccurrence("work", 200) {
		t.Fatal("occurrence 200 has no override, should still include work")
	}
}

func TestIndexForIsCachedUntilInvalidated(t *testing.T) {
	e := NewEvent("event-a")
	e.Indexed.Categories["work"] = struct{}{}

	first := e.IndexFor(FamilyCategories)
	second := e.IndexFor(FamilyCategories)
	if first != second {
		t.Fatal("IndexFor should return the cached index on a second call")
	}

	e.InvalidateIndex()
	third := e.IndexFor(FamilyCategories)
	if first == third {
		t.Fatal("IndexFor should rebuild after InvalidateIndex")
	}
}

func TestIndexForSkipsOverrideNotTouchingFamily(t *testing.T) {
	e := NewEvent("event-a")
	e.Indexed.Categories["work"] = struct{}{}

	e.Overrides.Set(100, &OccurrenceOverride{})

	idx := e.IndexFor(FamilyCategories)
	if !idx.IncludeOccurrence("work", 100) {
		t.Fatal("an override that doesn't touch Categories should not affect occurrence 100's categories")
	}
}

func TestGeoIndexTermsFoldsBaseAndOverridePoints(t *testing.T) {
	base, err := geo.NewPoint(51.5, -0.12)
	if err != nil {
		t.Fatal(err)
	}
	elsewhere, err := geo.NewPoint(48.85, 2.35)
	if err != nil {
		t.Fatal(err)
	}

	e := NewEvent("event-a")
	e.Indexed.Geo = &base
	e.Overrides.Set(100, &OccurrenceOverride{Geo: &GeoOverride{Point: elsewhere}})

	perEvent, points := e.GeoIndexTerms()
	if len(perEvent.Terms) != 2 {
		t.Fatalf("want a term for both the base point and the override point, got %d", len(perEvent.Terms))
	}
	if points[base.Hash()] != base || points[elsewhere.Hash()] != elsewhere {
		t.Fatalf("want both hashes mapped to their coordinates, got %+v", points)
	}
	if perEvent.IncludeOccurrence(base.Hash(), 100) {
		t.Fatal("occurrence 100 moved to elsewhere, should not still include the base point")
	}
	if !perEvent.IncludeOccurrence(elsewhere.Hash(), 100) {
		t.Fatal("occurrence 100 should include the override point")
	}
	if !perEvent.IncludeOccurrence(base.Hash(), 200) {
		t.Fatal("occurrence 200 has no override, should still include the base point")
	}
}

func TestGeoIndexTermsClearedOverrideDropsThatOccurrence(t *testing.T) {
	base, err := geo.NewPoint(51.5, -0.12)
	if err != nil {
		t.Fatal(err)
	}

	e := NewEvent("event-a")
	e.Indexed.Geo = &base
	e.Overrides.Set(100, &OccurrenceOverride{Geo: &GeoOverride{Cleared: true}})

	perEvent, _ := e.GeoIndexTerms()
	if perEvent.IncludeOccurrence(base.Hash(), 100) {
		t.Fatal("a cleared geo override should drop the base point for that occurrence")
	}
	if !perEvent.IncludeOccurrence(base.Hash(), 200) {
		t.Fatal("occurrence 200 has no override, should still include the base point")
	}
}

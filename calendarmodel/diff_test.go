package calendarmodel

import (
	"testing"
	"time"

	"github.com/calquery/calquery/geo"
)

func baseTestEvent() *Event {
	e := NewEvent("event-a")
	e.Schedule = ScheduleProperties{DTStart: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	e.Indexed.Categories["work"] = struct{}{}
	return e
}

func TestDiffEventsNoChange(t *testing.T) {
	a := baseTestEvent()
	b := baseTestEvent()

	d := DiffEvents(a, b)
	if d.ScheduleChanged {
		t.Fatal("identical schedules should not be flagged as changed")
	}
	if d.GeoChanged {
		t.Fatal("identical (absent) geo should not be flagged as changed")
	}
	for family, changed := range d.FamilyChanged {
		if changed {
			t.Fatalf("family %q unexpectedly flagged as changed", family)
		}
	}
}

func TestDiffEventsDetectsScheduleChange(t *testing.T) {
	a := baseTestEvent()
	b := baseTestEvent()
	b.Schedule.DTStart = a.Schedule.DTStart.Add(time.Hour)

	d := DiffEvents(a, b)
	if !d.ScheduleChanged {
		t.Fatal("a changed DTSTART should flag ScheduleChanged")
	}
}

func TestDiffEventsDetectsGeoChange(t *testing.T) {
	a := baseTestEvent()
	b := baseTestEvent()
	p, err := geo.NewPoint(51.5, -0.12)
	if err != nil {
		t.Fatal(err)
	}
	b.Indexed.Geo = &p

	d := DiffEvents(a, b)
	if !d.GeoChanged {
		t.Fatal("adding a geo point should flag GeoChanged")
	}
}

func TestDiffEventsDetectsGeoOverrideChange(t *testing.T) {
	base, err := geo.NewPoint(51.5, -0.12)
	if err != nil {
		t.Fatal(err)
	}
	a := baseTestEvent()
	a.Indexed.Geo = &base
	b := baseTestEvent()
	b.Indexed.Geo = &base
	b.Overrides.Set(Timestamp(a.Schedule.DTStart.Unix()), &OccurrenceOverride{Geo: &GeoOverride{Cleared: true}})

	d := DiffEvents(a, b)
	if !d.GeoChanged {
		t.Fatal("adding a geo override should flag GeoChanged even though the base point is unchanged")
	}
}

func TestDiffEventsDetectsCategoryChange(t *testing.T) {
	a := baseTestEvent()
	b := baseTestEvent()
	b.Indexed.Categories["travel"] = struct{}{}

	d := DiffEvents(a, b)
	if !d.FamilyChanged[FamilyCategories] {
		t.Fatal("adding a category should flag FamilyCategories as changed")
	}
	if d.FamilyChanged[FamilyClass] {
		t.Fatal("FamilyClass is untouched and should not be flagged")
	}
}

func TestDiffEventsDetectsOverrideChangeForFamily(t *testing.T) {
	a := baseTestEvent()
	b := baseTestEvent()

	empty := map[string]struct{}{}
	b.Overrides.Set(100, &OccurrenceOverride{Categories: &empty})

	d := DiffEvents(a, b)
	if !d.FamilyChanged[FamilyCategories] {
		t.Fatal("a new override touching categories should flag FamilyCategories as changed")
	}
}

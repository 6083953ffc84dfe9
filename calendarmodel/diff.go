package calendarmodel

import (
	"time"

	"github.com/calquery/calquery/geo"
)

// Diff records which parts of an event changed between two revisions,
// so the calendar layer can skip rebuilding indexes for families that
// did not change. Grounded on
// original_source/src/data_types/event_diff.rs's EventDiff, simplified
// from a full set-membership diff to the per-family/schedule change
// flags the index maintenance path actually needs.
type Diff struct {
	ScheduleChanged bool
	GeoChanged      bool
	FamilyChanged   map[Family]bool
}

// DiffEvents compares old and updated, both describing the same UID at
// different revisions.
func DiffEvents(old, updated *Event) Diff {
	d := Diff{FamilyChanged: make(map[Family]bool, len(AllFamilies))}

	d.ScheduleChanged = !scheduleEqual(old.Schedule, updated.Schedule)
	d.GeoChanged = !geoEqual(old.Indexed.Geo, updated.Indexed.Geo) ||
		!overridesEqualForFamily(old, updated, FamilyGeo)

	for _, family := range AllFamilies {
		d.FamilyChanged[family] = !termSetEqual(old.Indexed.baseTerms(family), updated.Indexed.baseTerms(family)) ||
			!overridesEqualForFamily(old, updated, family)
	}

	return d
}

func scheduleEqual(a, b ScheduleProperties) bool {
	if !a.DTStart.Equal(b.DTStart) || a.RRule != b.RRule || a.ExRule != b.ExRule {
		return false
	}
	if (a.DTEnd == nil) != (b.DTEnd == nil) {
		return false
	}
	if a.DTEnd != nil && !a.DTEnd.Equal(*b.DTEnd) {
		return false
	}
	if (a.Duration == nil) != (b.Duration == nil) {
		return false
	}
	if a.Duration != nil && *a.Duration != *b.Duration {
		return false
	}
	return timeSliceEqual(a.RDates, b.RDates) && timeSliceEqual(a.ExDates, b.ExDates)
}

func timeSliceEqual(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func geoEqual(a, b *geo.Point) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.Equal(*b)
}

func termSetEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for t := range a {
		if _, ok := b[t]; !ok {
			return false
		}
	}
	return true
}

// overridesEqualForFamily reports whether every override timestamp
// present in either event has the same family override (or lack of
// one) in both.
func overridesEqualForFamily(old, updated *Event, family Family) bool {
	seen := make(map[Timestamp]struct{})
	for _, ts := range old.Overrides.All() {
		seen[ts] = struct{}{}
	}
	for _, ts := range updated.Overrides.All() {
		seen[ts] = struct{}{}
	}
	for ts := range seen {
		oldOv, _ := old.Overrides.Get(ts)
		newOv, _ := updated.Overrides.Get(ts)
		oldTerms, oldSet := oldOv.termsFor(family)
		newTerms, newSet := newOv.termsFor(family)
		if oldSet != newSet || !termSetEqual(oldTerms, newTerms) {
			return false
		}
	}
	return true
}

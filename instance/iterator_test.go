package instance

import (
	"strconv"
	"testing"
	"time"

	"github.com/calquery/calquery/calendarmodel"
	"github.com/calquery/calquery/conclusion"
)

func newWeeklyEvent(uid string, start time.Time, count int) *calendarmodel.Event {
	e := calendarmodel.NewEvent(uid)
	end := start.Add(time.Hour)
	e.Schedule = calendarmodel.ScheduleProperties{
		DTStart: start,
		DTEnd:   &end,
		RRule:   "FREQ=WEEKLY;COUNT=" + strconv.Itoa(count),
	}
	return e
}

func collect(t *testing.T, it *Iterator, max int) []calendarmodel.EventInstance {
	t.Helper()
	var out []calendarmodel.EventInstance
	for i := 0; i < max; i++ {
		inst, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, inst)
	}
	return out
}

func TestIteratorExpandsAllOccurrences(t *testing.T) {
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	e := newWeeklyEvent("event-a", start, 3)

	it, err := New(e, 0, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := collect(t, it, 10)
	if len(got) != 3 {
		t.Fatalf("want 3 occurrences, got %d", len(got))
	}
	for i, inst := range got {
		want := start.AddDate(0, 0, 7*i)
		if !inst.DTStart.Equal(want) {
			t.Fatalf("occurrence %d: got %v, want %v", i, inst.DTStart, want)
		}
	}
}

func TestIteratorRespectsLimit(t *testing.T) {
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	e := newWeeklyEvent("event-a", start, 5)

	it, err := New(e, 2, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := collect(t, it, 10)
	if len(got) != 2 {
		t.Fatalf("want 2 occurrences under limit=2, got %d", len(got))
	}
}

func TestIteratorAppliesUntilBound(t *testing.T) {
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	e := newWeeklyEvent("event-a", start, 5)

	until := &FilterCondition{Op: LessThan, Property: DTStart, Value: start.AddDate(0, 0, 14).Unix()}
	it, err := New(e, 0, nil, until, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := collect(t, it, 10)
	if len(got) != 2 {
		t.Fatalf("want 2 occurrences strictly before day 14, got %d", len(got))
	}
	for _, inst := range got {
		if !inst.DTStart.Before(until.dtstartTime()) {
			t.Fatalf("occurrence %v should be strictly before the until bound", inst.DTStart)
		}
	}
}

func TestIteratorAppliesFromBound(t *testing.T) {
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	e := newWeeklyEvent("event-a", start, 5)

	from := &FilterCondition{Op: GreaterEqualThan, Property: DTStart, Value: start.AddDate(0, 0, 7).Unix()}
	it, err := New(e, 0, from, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := collect(t, it, 10)
	if len(got) != 4 {
		t.Fatalf("want 4 occurrences from week 2 onward, got %d", len(got))
	}
	if !got[0].DTStart.Equal(start.AddDate(0, 0, 7)) {
		t.Fatalf("first admitted occurrence should be week 2, got %v", got[0].DTStart)
	}
}

func TestIteratorAppliesFilteringConclusion(t *testing.T) {
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	e := newWeeklyEvent("event-a", start, 3)

	excluded := start.AddDate(0, 0, 7).Unix()
	filtering := conclusion.NewInclude(excluded)

	it, err := New(e, 0, nil, nil, &filtering)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := collect(t, it, 10)
	if len(got) != 2 {
		t.Fatalf("want 2 occurrences with the second week excluded, got %d", len(got))
	}
	for _, inst := range got {
		if inst.DTStart.Unix() == excluded {
			t.Fatal("the filtering conclusion's excepted occurrence must not be yielded")
		}
	}
}

func TestIteratorDoesNotRestartAfterExhaustion(t *testing.T) {
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	e := newWeeklyEvent("event-a", start, 1)

	it, err := New(e, 0, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first := collect(t, it, 10)
	if len(first) != 1 {
		t.Fatalf("want 1 occurrence, got %d", len(first))
	}
	if _, ok := it.Next(); ok {
		t.Fatal("a single-pass iterator must keep returning false after exhaustion")
	}
}

func TestIteratorAppliesOverrideDuration(t *testing.T) {
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	e := newWeeklyEvent("event-a", start, 2)

	longer := 3 * time.Hour
	e.Overrides.Set(calendarmodel.FromTime(start), &calendarmodel.OccurrenceOverride{Duration: &longer})

	it, err := New(e, 0, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := collect(t, it, 10)
	if len(got) != 2 {
		t.Fatalf("want 2 occurrences, got %d", len(got))
	}
	if got[0].Duration != longer {
		t.Fatalf("first occurrence should use the overridden duration, got %v", got[0].Duration)
	}
	if got[1].Duration != time.Hour {
		t.Fatalf("second occurrence should keep the base duration, got %v", got[1].Duration)
	}
}

func (fc *FilterCondition) dtstartTime() time.Time {
	return time.Unix(fc.Value, 0).UTC()
}

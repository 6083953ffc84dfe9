package index

import (
	"testing"

	"github.com/calquery/calquery/conclusion"
)

func TestCalendarIndexInsertAndRemoveEvent(t *testing.T) {
	ci := NewCalendarIndex()
	pe := NewPerEventIndexFromBase(map[string]struct{}{"work": {}})

	ci.InsertEvent("event-a", pe)
	term := ci.Term("work")
	if term == nil {
		t.Fatal("expected term \"work\" to exist after insert")
	}
	if !term.IncludeOccurrence("event-a", 100) {
		t.Fatal("event-a should include occurrence 100 for term work")
	}

	ci.RemoveEvent("event-a", pe)
	if ci.Term("work") != nil {
		t.Fatal("term should be dropped once its last event is removed")
	}
}

func TestCalendarIndexRemoveEventKeepsSharedTerm(t *testing.T) {
	ci := NewCalendarIndex()
	peA := NewPerEventIndexFromBase(map[string]struct{}{"work": {}})
	peB := NewPerEventIndexFromBase(map[string]struct{}{"work": {}})

	ci.InsertEvent("event-a", peA)
	ci.InsertEvent("event-b", peB)
	ci.RemoveEvent("event-a", peA)

	term := ci.Term("work")
	if term == nil {
		t.Fatal("term should survive while event-b still references it")
	}
	if !term.IncludeOccurrence("event-b", 100) {
		t.Fatal("event-b's conclusion should be unaffected by event-a's removal")
	}
	if term.IncludeOccurrence("event-a", 100) {
		t.Fatal("event-a's entry should be gone")
	}
}

func TestCalendarIndexApplyDiffAddedAndRemovedTerm(t *testing.T) {
	ci := NewCalendarIndex()
	oldIdx := NewPerEventIndexFromBase(map[string]struct{}{"work": {}})
	ci.InsertEvent("event-a", oldIdx)

	newIdx := NewPerEventIndexFromBase(map[string]struct{}{"travel": {}})
	ci.ApplyDiff("event-a", oldIdx, newIdx)

	if ci.Term("work") != nil {
		t.Fatal("work term should be gone after event-a no longer touches it")
	}
	travel := ci.Term("travel")
	if travel == nil || !travel.IncludeOccurrence("event-a", 100) {
		t.Fatal("travel term should now include event-a")
	}
}

func TestCalendarIndexApplyDiffUpdatesSharedTerm(t *testing.T) {
	ci := NewCalendarIndex()
	oldIdx := NewPerEventIndexFromBase(map[string]struct{}{"work": {}})
	ci.InsertEvent("event-a", oldIdx)

	newIdx := oldIdx.Clone()
	newIdx.InsertOverride(100, map[string]struct{}{})
	ci.ApplyDiff("event-a", oldIdx, newIdx)

	term := ci.Term("work")
	if term == nil {
		t.Fatal("work term should still exist")
	}
	if term.IncludeOccurrence("event-a", 100) {
		t.Fatal("occurrence 100 should now be excluded per the override")
	}
	if !term.IncludeOccurrence("event-a", 200) {
		t.Fatal("occurrence 200 should remain included")
	}
}

func TestCalendarIndexInsertEventOverwritesPriorEntry(t *testing.T) {
	ci := NewCalendarIndex()
	pe := NewPerEventIndexFromBase(map[string]struct{}{"work": {}})
	ci.InsertEvent("event-a", pe)

	pe2 := NewPerEventIndex()
	pe2.Terms["work"] = conclusion.NewInclude(100)
	ci.InsertEvent("event-a", pe2)

	term := ci.Term("work")
	if term.IncludeOccurrence("event-a", 100) {
		t.Fatal("re-inserting event-a should overwrite its prior conclusion")
	}
	if !term.IncludeOccurrence("event-a", 200) {
		t.Fatal("occurrence 200 should be included under the new Include(100) conclusion")
	}
}

package index

import "github.com/calquery/calquery/conclusion"

// CalendarIndex is the inverted index for one property family across an
// entire calendar: term -> the conclusion.Term recording which events
// participate and under what conditions. Grounded on
// original_source/src/data_types/inverted_index.rs's
// InvertedCalendarIndex.
type CalendarIndex struct {
	Terms map[string]*conclusion.Term
}

// NewCalendarIndex returns an empty index.
func NewCalendarIndex() *CalendarIndex {
	return &CalendarIndex{Terms: make(map[string]*conclusion.Term)}
}

// Term returns the term entry for name, or nil if the term is untouched
// by any event.
func (ci *CalendarIndex) Term(name string) *conclusion.Term {
	return ci.Terms[name]
}

// InsertEvent folds one event's per-event index into the calendar
// index, overwriting any prior entry the event had for each term.
func (ci *CalendarIndex) InsertEvent(uid string, perEvent *PerEventIndex) {
	for term, c := range perEvent.Terms {
		t, ok := ci.Terms[term]
		if !ok {
			t = conclusion.NewTerm()
			ci.Terms[term] = t
		}
		t.Set(uid, c)
	}
}

// RemoveEvent strips uid out of every term perEvent names, dropping any
// term left with no participating events.
func (ci *CalendarIndex) RemoveEvent(uid string, perEvent *PerEventIndex) {
	for term := range perEvent.Terms {
		t, ok := ci.Terms[term]
		if !ok {
			continue
		}
		t.Remove(uid)
		if t.IsEmpty() {
			delete(ci.Terms, term)
		}
	}
}

// ApplyDiff moves uid's entry from oldIdx's term set to newIdx's: terms
// only oldIdx names lose uid's entry (and are dropped once empty), and
// every term newIdx names gets uid's new conclusion -- the incremental
// update path used when an event's properties or overrides
// change without a full calendar rebuild.
func (ci *CalendarIndex) ApplyDiff(uid string, oldIdx, newIdx *PerEventIndex) {
	touched := make(map[string]struct{}, len(oldIdx.Terms)+len(newIdx.Terms))
	for term := range oldIdx.Terms {
		touched[term] = struct{}{}
	}
	for term := range newIdx.Terms {
		touched[term] = struct{}{}
	}

	for term := range touched {
		newC, inNew := newIdx.Terms[term]
		if !inNew {
			if t, ok := ci.Terms[term]; ok {
				t.Remove(uid)
				if t.IsEmpty() {
					delete(ci.Terms, term)
				}
			}
			continue
		}
		t, ok := ci.Terms[term]
		if !ok {
			t = conclusion.NewTerm()
			ci.Terms[term] = t
		}
		t.Set(uid, newC)
	}
}

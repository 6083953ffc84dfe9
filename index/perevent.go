// Package index implements the inverted-index layer: a per-event index
// mapping the terms one event touches in a single property family to
// their conclusion, and a per-calendar index merging those per-event
// indexes into one map from term to InvertedIndexTerm.
//
// Grounded on original_source/src/data_types/inverted_index.rs
// (InvertedEventIndex / InvertedCalendarIndex).
package index

import "github.com/calquery/calquery/conclusion"

// PerEventIndex is the per-event, per-family inverted index: for each
// term value the event's base properties or occurrence overrides touch,
// whether the event includes that term on every occurrence or only on
// the ones named as exceptions.
type PerEventIndex struct {
	Terms map[string]conclusion.Conclusion
}

// NewPerEventIndex returns an empty index.
func NewPerEventIndex() *PerEventIndex {
	return &PerEventIndex{Terms: make(map[string]conclusion.Conclusion)}
}

// NewPerEventIndexFromBase seeds an index from the event's base term
// set: every base term starts as Include(none), i.e. every occurrence
// includes it until an override says otherwise.
func NewPerEventIndexFromBase(base map[string]struct{}) *PerEventIndex {
	idx := NewPerEventIndex()
	for term := range base {
		idx.Terms[term] = conclusion.NewInclude()
	}
	return idx
}

// IncludeOccurrence reports whether occurrence ts includes term.
func (idx *PerEventIndex) IncludeOccurrence(term string, ts int64) bool {
	c, ok := idx.Terms[term]
	if !ok {
		return false
	}
	return c.IncludeOccurrence(ts)
}

// currentlyIncludedTerms returns the terms presently indexed as Include
// (regardless of their exception set) -- the "B" side of the insert
// algorithm.
func (idx *PerEventIndex) currentlyIncludedTerms() map[string]struct{} {
	out := make(map[string]struct{})
	for term, c := range idx.Terms {
		if c.Variant == conclusion.Include {
			out[term] = struct{}{}
		}
	}
	return out
}

// InsertOverride folds one occurrence override's term set into the
// index at timestamp ts. Terms currently included but absent from the
// override (B \ O_t) gain ts as an exception to their inclusion; terms
// present in the override but not currently included (O_t \ B) either
// gain ts as an exception to an existing exclusion or are created fresh
// as Exclude(all except ts).
func (idx *PerEventIndex) InsertOverride(ts int64, overrideTerms map[string]struct{}) {
	current := idx.currentlyIncludedTerms()

	for term := range current {
		if _, ok := overrideTerms[term]; ok {
			continue
		}
		c := idx.Terms[term]
		c.InsertException(ts)
		idx.Terms[term] = c
	}

	for term := range overrideTerms {
		if _, ok := current[term]; ok {
			continue
		}
		if c, exists := idx.Terms[term]; exists {
			c.InsertException(ts)
			idx.Terms[term] = c
		} else {
			idx.Terms[term] = conclusion.NewExclude(ts)
		}
	}
}

// RemoveOverride undoes InsertOverride for timestamp ts: it strips ts
// from every term's exception set, and drops any Exclude term whose
// exception set has become empty again (it no longer carries any
// information distinct from the term being absent).
func (idx *PerEventIndex) RemoveOverride(ts int64) {
	for term, c := range idx.Terms {
		if !c.RemoveException(ts) {
			continue
		}
		if c.Variant == conclusion.Exclude && c.IsEmptyExceptions() {
			delete(idx.Terms, term)
			continue
		}
		idx.Terms[term] = c
	}
}

// Clone deep-copies the index.
func (idx *PerEventIndex) Clone() *PerEventIndex {
	out := NewPerEventIndex()
	for term, c := range idx.Terms {
		out.Terms[term] = c.Clone()
	}
	return out
}

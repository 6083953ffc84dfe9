package conclusion

// Term is an inverted-index term: the mapping from event UID to the
// conclusion that event contributes for this term (a category value, a
// class value, a reltype+uid pair, ...). Grounded on
// original_source/src/data_types/inverted_index.rs's
// InvertedCalendarIndexTerm.
type Term struct {
	Events map[string]Conclusion
}

// NewTerm returns an empty term.
func NewTerm() *Term {
	return &Term{Events: make(map[string]Conclusion)}
}

// NewTermWithEvent returns a term containing a single event's conclusion.
func NewTermWithEvent(uid string, c Conclusion) *Term {
	t := NewTerm()
	t.Events[uid] = c
	return t
}

// IsEmpty reports whether the term has no event entries.
func (t *Term) IsEmpty() bool {
	return t == nil || len(t.Events) == 0
}

// InsertInclude sets uid's conclusion to an Include with the given
// exceptions.
func (t *Term) InsertInclude(uid string, exceptions ...int64) {
	t.Events[uid] = NewInclude(exceptions...)
}

// InsertExclude sets uid's conclusion to an Exclude with the given
// exceptions.
func (t *Term) InsertExclude(uid string, exceptions ...int64) {
	t.Events[uid] = NewExclude(exceptions...)
}

// Set overwrites uid's conclusion outright.
func (t *Term) Set(uid string, c Conclusion) {
	t.Events[uid] = c
}

// Remove drops uid's entry entirely.
func (t *Term) Remove(uid string) {
	delete(t.Events, uid)
}

// IncludeOccurrence reports whether uid includes occurrence ts under this
// term; an event with no entry is not included.
func (t *Term) IncludeOccurrence(uid string, ts int64) bool {
	if t == nil {
		return false
	}
	c, ok := t.Events[uid]
	if !ok {
		return false
	}
	return c.IncludeOccurrence(ts)
}

// Clone deep-copies the term.
func (t *Term) Clone() *Term {
	out := NewTerm()
	for uid, c := range t.Events {
		out.Events[uid] = c.Clone()
	}
	return out
}

// MergeAnd combines two terms under AND: an event present in both terms
// merges its conclusions with conclusion.Merge(AND); an event present in
// only one term is left out of the result, which IncludeOccurrence reads
// the same as an Exclude(none) entry.
func MergeAnd(a, b *Term) *Term {
	out := NewTerm()
	for uid, ca := range a.Events {
		if cb, ok := b.Events[uid]; ok {
			out.Events[uid] = Merge(ca, cb, AND)
		}
	}
	// Events present in only one side are not carried into an AND result:
	// the AND of "participates" and "unknown" is "does not participate",
	// which for an unindexed property family is simply absence from the
	// term, not a synthesized Exclude(none) entry (that would grow the
	// term with noise for every event not touched by either side).
	return out
}

// MergeOr combines two terms under OR: an event present in both terms
// merges its conclusions with conclusion.Merge(OR); an event present in
// only one term copies through unchanged (spec.md §8 invariant 2:
// "...copies through for OR").
func MergeOr(a, b *Term) *Term {
	out := NewTerm()
	for uid, ca := range a.Events {
		out.Events[uid] = ca.Clone()
	}
	for uid, cb := range b.Events {
		if ca, ok := a.Events[uid]; ok {
			out.Events[uid] = Merge(ca, cb, OR)
		} else {
			out.Events[uid] = cb.Clone()
		}
	}
	return out
}

// Package conclusion implements the indexed-conclusion algebra: a
// compressed include/exclude verdict for an event (or, one layer up, an
// inverted-index term) together with a per-occurrence exception set.
//
// Grounded on original_source's src/data_types/inverted_index.rs
// (IndexedEvent::merge) and spec.md §3's merge laws.
package conclusion

// Variant distinguishes an Include conclusion from an Exclude one.
type Variant int

const (
	Include Variant = iota
	Exclude
)

func (v Variant) String() string {
	if v == Include {
		return "INCLUDE"
	}
	return "EXCLUDE"
}

// Op is a boolean combination operator used when merging two conclusions
// or two inverted-index terms.
type Op int

const (
	AND Op = iota
	OR
)

// Conclusion is an Include or Exclude verdict with an optional set of
// occurrence timestamps that are exceptions to it. A nil/empty Exceptions
// set is the "none" case from spec.md §3.
type Conclusion struct {
	Variant    Variant
	Exceptions map[int64]struct{}
}

// NewInclude builds an Include conclusion, collapsing an empty exception
// set to "none".
func NewInclude(exceptions ...int64) Conclusion {
	return Conclusion{Variant: Include, Exceptions: toSet(exceptions)}
}

// NewExclude builds an Exclude conclusion, collapsing an empty exception
// set to "none".
func NewExclude(exceptions ...int64) Conclusion {
	return Conclusion{Variant: Exclude, Exceptions: toSet(exceptions)}
}

func toSet(ts []int64) map[int64]struct{} {
	if len(ts) == 0 {
		return nil
	}
	set := make(map[int64]struct{}, len(ts))
	for _, t := range ts {
		set[t] = struct{}{}
	}
	return set
}

// IncludeOccurrence reports whether occurrence t is included under this
// conclusion, per spec.md §3's semantics table.
func (c Conclusion) IncludeOccurrence(t int64) bool {
	_, exception := c.Exceptions[t]
	if c.Variant == Include {
		return !exception
	}
	return exception
}

// IsEmptyExceptions reports whether the exception set collapses to "none".
func (c Conclusion) IsEmptyExceptions() bool {
	return len(c.Exceptions) == 0
}

// InsertException adds t to the exception set, returning whether the set
// changed.
func (c *Conclusion) InsertException(t int64) bool {
	if c.Exceptions == nil {
		c.Exceptions = make(map[int64]struct{}, 1)
	}
	if _, ok := c.Exceptions[t]; ok {
		return false
	}
	c.Exceptions[t] = struct{}{}
	return true
}

// RemoveException removes t from the exception set, returning whether the
// set changed. Removing the last element collapses the set to "none".
func (c *Conclusion) RemoveException(t int64) bool {
	if _, ok := c.Exceptions[t]; !ok {
		return false
	}
	delete(c.Exceptions, t)
	if len(c.Exceptions) == 0 {
		c.Exceptions = nil
	}
	return true
}

// Clone returns a deep copy.
func (c Conclusion) Clone() Conclusion {
	out := Conclusion{Variant: c.Variant}
	if len(c.Exceptions) > 0 {
		out.Exceptions = make(map[int64]struct{}, len(c.Exceptions))
		for t := range c.Exceptions {
			out.Exceptions[t] = struct{}{}
		}
	}
	return out
}

func unionSets(a, b map[int64]struct{}) map[int64]struct{} {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[int64]struct{}, len(a)+len(b))
	for t := range a {
		out[t] = struct{}{}
	}
	for t := range b {
		out[t] = struct{}{}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func intersectSets(a, b map[int64]struct{}) map[int64]struct{} {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	out := make(map[int64]struct{})
	for t := range small {
		if _, ok := big[t]; ok {
			out[t] = struct{}{}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func diffSets(a, b map[int64]struct{}) map[int64]struct{} {
	if len(a) == 0 {
		return nil
	}
	out := make(map[int64]struct{}, len(a))
	for t := range a {
		if _, ok := b[t]; !ok {
			out[t] = struct{}{}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Merge combines two conclusions under op, per spec.md §3's merge laws,
// derived directly from the include_occurrence truth table (verified
// against spec.md §8's worked example "AND of Include({100,200}) with
// Exclude({100,200}) yields Exclude(none)"; see DESIGN.md for the one
// worked example this contradicts, which appears to be a transcription
// error in spec.md rather than a distinct rule):
//
//	AND: same-variant merges union on Include, intersect on Exclude;
//	     cross-variant yields Exclude with exceptions =
//	     (Exclude-exceptions) \ (Include-exceptions).
//	OR:  same-variant merges intersect on Include, union on Exclude;
//	     cross-variant yields Include with exceptions =
//	     (Include-exceptions) \ (Exclude-exceptions).
func Merge(a, b Conclusion, op Op) Conclusion {
	if op == AND {
		switch {
		case a.Variant == Include && b.Variant == Include:
			return Conclusion{Variant: Include, Exceptions: unionSets(a.Exceptions, b.Exceptions)}
		case a.Variant == Exclude && b.Variant == Exclude:
			return Conclusion{Variant: Exclude, Exceptions: intersectSets(a.Exceptions, b.Exceptions)}
		case a.Variant == Include && b.Variant == Exclude:
			return Conclusion{Variant: Exclude, Exceptions: diffSets(b.Exceptions, a.Exceptions)}
		default: // Exclude, Include
			return Conclusion{Variant: Exclude, Exceptions: diffSets(a.Exceptions, b.Exceptions)}
		}
	}

	// OR
	switch {
	case a.Variant == Include && b.Variant == Include:
		return Conclusion{Variant: Include, Exceptions: intersectSets(a.Exceptions, b.Exceptions)}
	case a.Variant == Exclude && b.Variant == Exclude:
		return Conclusion{Variant: Exclude, Exceptions: unionSets(a.Exceptions, b.Exceptions)}
	case a.Variant == Exclude && b.Variant == Include:
		return Conclusion{Variant: Include, Exceptions: diffSets(b.Exceptions, a.Exceptions)}
	default: // Include, Exclude
		return Conclusion{Variant: Include, Exceptions: diffSets(a.Exceptions, b.Exceptions)}
	}
}

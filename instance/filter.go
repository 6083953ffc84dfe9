// Package instance implements the per-event occurrence iterator: a
// lazy, bounded, filtered expansion of one event's schedule into
// materialized EventInstance values. Grounded on
// original_source/src/data_types/event_occurrence_iterator.rs.
package instance

// Property names which materialized instant a FilterCondition compares
// against: the occurrence's start, or its computed end.
type Property int

const (
	DTStart Property = iota
	DTEnd
)

// CompareOp is a bound's comparison direction.
type CompareOp int

const (
	LessThan CompareOp = iota
	LessEqualThan
	GreaterThan
	GreaterEqualThan
)

// FilterCondition is one bound on the occurrence stream: "DTSTART must
// be greater than X", "DTEND must be less than or equal to Y", and so
// on. Value is Unix seconds UTC.
type FilterCondition struct {
	Op       CompareOp
	Property Property
	Value    int64
}

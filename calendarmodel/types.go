// Package calendarmodel holds the event data model: the base and
// per-occurrence-override properties of one event, the schedule
// expansion engine binding, and the structural diff used to maintain
// the inverted indexes incrementally. Grounded on spec.md §3 and
// original_source's event/prune/event_diff modules, expressed in terms
// of github.com/emersion/go-ical's Component/Prop model the way the
// teacher (emersion/go-webdav) does in caldav/match.go.
package calendarmodel

import "time"

// Timestamp is seconds since epoch in UTC, the canonical occurrence key
// used throughout the index and query layers.
type Timestamp int64

// FromTime truncates t to a Timestamp, converting to UTC first.
func FromTime(t time.Time) Timestamp {
	return Timestamp(t.UTC().Unix())
}

// Time renders the timestamp back as a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

// KeyValuePair is a (key, value) pair of strings with a total order
// first by key, then by value. Used to index relationship properties
// (RELTYPE, related UID) as a single compound term.
type KeyValuePair struct {
	Key   string
	Value string
}

// Compare returns -1, 0 or 1 per the key-then-value total order.
func (p KeyValuePair) Compare(other KeyValuePair) int {
	if p.Key != other.Key {
		if p.Key < other.Key {
			return -1
		}
		return 1
	}
	switch {
	case p.Value < other.Value:
		return -1
	case p.Value > other.Value:
		return 1
	default:
		return 0
	}
}

// encodedSeparator joins a KeyValuePair into the flat string used as an
// inverted-index term key. \x1f (unit separator) cannot appear in a
// RELTYPE token or a UID, so this round-trips unambiguously.
const encodedSeparator = "\x1f"

// Encode renders the pair as a single inverted-index term string.
func (p KeyValuePair) Encode() string {
	return p.Key + encodedSeparator + p.Value
}

// BoundKind distinguishes the three ways a prune bound can be
// specified, mirroring Rust's std::ops::Bound.
type BoundKind int

const (
	Unbounded BoundKind = iota
	Included
	Excluded
)

// Bound is one side of a prune range.
type Bound struct {
	Kind  BoundKind
	Value Timestamp
}

package instance

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/calquery/calquery/calendarmodel"
	"github.com/calquery/calquery/conclusion"
)

// Iterator lazily expands one event's occurrences in ascending DTSTART
// order, applying optional from/until bounds, an optional filtering
// conclusion (excluding occurrences the conclusion says not to
// include), and an optional admission limit. A single pass,
// non-restartable: once Next returns false, it keeps returning false.
type Iterator struct {
	event *calendarmodel.Event
	rset  *rrule.Set

	cursor          time.Time
	cursorInclusive bool

	baseDuration time.Duration
	limit        int // 0 means unlimited
	count        int
	ended        bool

	from      *FilterCondition
	until     *FilterCondition
	filtering *conclusion.Conclusion
}

// New builds an iterator over event's occurrences. limit <= 0 means
// unlimited. from/until/filtering may be nil.
func New(event *calendarmodel.Event, limit int, from, until *FilterCondition, filtering *conclusion.Conclusion) (*Iterator, error) {
	rset, err := event.RecurrenceSet()
	if err != nil {
		return nil, err
	}
	return &Iterator{
		event:           event,
		rset:            rset,
		cursorInclusive: true,
		baseDuration:    event.Schedule.EffectiveDuration(),
		limit:           limit,
		from:            from,
		until:           until,
		filtering:       filtering,
	}, nil
}

func (it *Iterator) withinLimit() bool {
	return it.limit <= 0 || it.count < it.limit
}

// nextCandidate asks the schedule expansion engine for the next
// recurrence instant strictly after the last one yielded, the same way
// caldav.matchCompTimeRange asks for "the first occurrence after
// start": rset.After(cursor, inclusive).
func (it *Iterator) nextCandidate() (time.Time, bool) {
	next := it.rset.After(it.cursor, it.cursorInclusive)
	if next.IsZero() {
		return time.Time{}, false
	}
	it.cursor = next
	it.cursorInclusive = false
	return next, true
}

// Next returns the next materialized occurrence, or (zero, false) when
// the stream is exhausted.
func (it *Iterator) Next() (calendarmodel.EventInstance, bool) {
	if it.ended {
		return calendarmodel.EventInstance{}, false
	}

	for it.withinLimit() {
		dtstart, ok := it.nextCandidate()
		if !ok {
			it.ended = true
			break
		}

		dtstartSec := dtstart.Unix()
		duration := it.baseDuration

		if it.excludedByPreOverrideFilters(dtstartSec, int64(duration/time.Second)) {
			if it.hasReachedEnd(dtstartSec) {
				it.ended = true
				break
			}
			continue
		}

		ts := calendarmodel.FromTime(dtstart)
		override, hasOverride := it.event.Overrides.Get(ts)
		if hasOverride {
			switch {
			case override.Duration != nil:
				duration = *override.Duration
			case override.DTEnd != nil:
				duration = override.DTEnd.Sub(dtstart)
			}
		}

		if it.excludedByPostOverrideFilters(dtstartSec, int64(duration/time.Second)) {
			if it.hasReachedEnd(dtstartSec) {
				it.ended = true
				break
			}
			continue
		}

		if it.filtering != nil && !it.filtering.IncludeOccurrence(int64(ts)) {
			continue
		}

		it.count++
		var ov *calendarmodel.OccurrenceOverride
		if hasOverride {
			ov = override
		}
		return calendarmodel.Assemble(it.event, dtstart, ov), true
	}

	return calendarmodel.EventInstance{}, false
}

func (it *Iterator) isGreaterThanLowerBound(dtstart, duration int64) bool {
	if it.from == nil {
		return true
	}
	switch {
	case it.from.Op == GreaterThan && it.from.Property == DTStart:
		return dtstart > it.from.Value
	case it.from.Op == GreaterThan && it.from.Property == DTEnd:
		return dtstart > it.from.Value || (dtstart+duration) > it.from.Value
	case it.from.Op == GreaterEqualThan && it.from.Property == DTStart:
		return dtstart >= it.from.Value
	case it.from.Op == GreaterEqualThan && it.from.Property == DTEnd:
		return dtstart >= it.from.Value || (dtstart+duration) >= it.from.Value
	default:
		return true
	}
}

// isLessThanUpperBound checks dtstart/duration against the upper
// bound. The original iterator this is grounded on reads its own
// lower-bound field here by mistake, which silently disables the
// upper-bound pre/post filter entirely; this reads the upper bound, as
// the surrounding logic clearly intends (see DESIGN.md).
func (it *Iterator) isLessThanUpperBound(dtstart, duration int64) bool {
	if it.until == nil {
		return true
	}
	switch {
	case it.until.Op == LessThan && it.until.Property == DTStart:
		return dtstart < it.until.Value
	case it.until.Op == LessThan && it.until.Property == DTEnd:
		if dtstart > it.until.Value {
			return false
		}
		return (dtstart + duration) < it.until.Value
	case it.until.Op == LessEqualThan && it.until.Property == DTStart:
		return dtstart <= it.until.Value
	case it.until.Op == LessEqualThan && it.until.Property == DTEnd:
		if dtstart > it.until.Value {
			return false
		}
		return (dtstart + duration) <= it.until.Value
	default:
		return true
	}
}

// hasReachedEnd reports whether dtstart is far enough past the upper
// bound that no later occurrence (ascending order) could possibly
// satisfy it either, letting the iterator stop early instead of
// scanning the rest of an unbounded recurrence.
func (it *Iterator) hasReachedEnd(dtstart int64) bool {
	if it.until == nil {
		return false
	}
	switch {
	case it.until.Op == LessThan && it.until.Property == DTStart:
		return dtstart > it.until.Value
	case it.until.Op == LessThan && it.until.Property == DTEnd:
		return dtstart > it.until.Value
	case it.until.Op == LessEqualThan && it.until.Property == DTStart:
		return dtstart >= it.until.Value
	case it.until.Op == LessEqualThan && it.until.Property == DTEnd:
		return dtstart > it.until.Value
	default:
		return false
	}
}

func (it *Iterator) excludedByPreOverrideFilters(dtstart, duration int64) bool {
	if it.from != nil && it.from.Property == DTStart && !it.isGreaterThanLowerBound(dtstart, duration) {
		return true
	}
	if it.until != nil && it.until.Property == DTStart && !it.isLessThanUpperBound(dtstart, duration) {
		return true
	}
	return false
}

func (it *Iterator) excludedByPostOverrideFilters(dtstart, duration int64) bool {
	if it.from != nil && it.from.Property == DTEnd && !it.isGreaterThanLowerBound(dtstart, duration) {
		return true
	}
	if it.until != nil && it.until.Property == DTEnd && !it.isLessThanUpperBound(dtstart, duration) {
		return true
	}
	return false
}

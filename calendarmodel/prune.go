package calendarmodel

import (
	"fmt"

	"github.com/calquery/calquery/calerrors"
)

func errEqualExcludedBounds(from, until Timestamp) string {
	return fmt.Sprintf("lower bound (excluded) value: %d cannot be equal to upper bound (excluded) value: %d", from, until)
}

func errLowerGreaterThanUpper(from, until Timestamp) string {
	return fmt.Sprintf("lower bound value: %d cannot be greater than upper bound value: %d", from, until)
}

// Prune removes every override whose timestamp falls within [from,
// until] (honoring each bound's inclusivity), invoking callback for
// each removed override in ascending timestamp order. Both bounds must
// be Included or Excluded -- Unbounded is rejected, matching
// original_source/redical_core/src/prune.rs's validation exactly (an
// unbounded prune range has no defined extent to remove).
func (e *Event) Prune(from, until Bound, callback func(ts Timestamp, o *OccurrenceOverride)) error {
	const op = "calendarmodel.Event.Prune"

	if from.Kind == Unbounded {
		return calerrors.NewValidation(op, "lower bound cannot be unbounded and have no value")
	}
	if until.Kind == Unbounded {
		return calerrors.NewValidation(op, "upper bound cannot be unbounded and have no value")
	}

	if from.Kind == Excluded && until.Kind == Excluded && from.Value == until.Value {
		return calerrors.NewValidation(op, errEqualExcludedBounds(from.Value, until.Value))
	}
	if from.Value > until.Value {
		return calerrors.NewValidation(op, errLowerGreaterThanUpper(from.Value, until.Value))
	}

	toRemove := e.Overrides.Range(from, until)
	for _, ts := range toRemove {
		removed, ok := e.Overrides.Delete(ts)
		if !ok {
			continue
		}
		callback(ts, removed)
	}
	if len(toRemove) > 0 {
		e.InvalidateIndex()
	}
	return nil
}

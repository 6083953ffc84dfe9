// Package query implements the WhereTree evaluator (C8) and the
// top-level QueryExecutor (C9): given a parsed calqueryparse.Query and
// a calendar.Calendar, it drives one of the three result orderings,
// applies the offset/limit/distinct admission policy, and produces an
// ordered slice of Results. Grounded on spec.md §4.6/§4.7; the AST node
// shapes this evaluates are a generalization of the teacher's
// CompFilter/PropFilter match-tree evaluation in caldav/match.go, from
// "does this component match" to "what is the InvertedIndexTerm for
// this predicate".
package query

import (
	"github.com/calquery/calquery/calendar"
	"github.com/calquery/calquery/calendarmodel"
	"github.com/calquery/calquery/calerrors"
	"github.com/calquery/calquery/calqueryparse"
	"github.com/calquery/calquery/conclusion"
	"github.com/calquery/calquery/geo"
)

// Evaluate recursively evaluates a WhereTree node against cal, per
// spec.md §4.6: a Property leaf performs the matching CalendarIndex/
// GeoIndex lookup, an Operator node merges both children's terms, and a
// Group node evaluates its single child. Evaluation is strict -- both
// operator children are always evaluated, even if the left side alone
// would already decide a short-circuitable outcome -- so parse/runtime
// errors on the right side are never silently skipped.
func Evaluate(cal *calendar.Calendar, n *calqueryparse.Node) (*conclusion.Term, error) {
	if n == nil {
		return nil, nil
	}

	switch n.Kind {
	case calqueryparse.NodeGroup:
		return Evaluate(cal, n.Child)

	case calqueryparse.NodeOperator:
		lhs, err := Evaluate(cal, n.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := Evaluate(cal, n.RHS)
		if err != nil {
			return nil, err
		}
		if n.Op == conclusion.AND {
			return conclusion.MergeAnd(lhs, rhs), nil
		}
		return conclusion.MergeOr(lhs, rhs), nil

	case calqueryparse.NodeProperty:
		return evaluateProperty(cal, n)

	default:
		return nil, calerrors.NewValidation("query.Evaluate", "unknown WhereTree node kind")
	}
}

func evaluateProperty(cal *calendar.Calendar, n *calqueryparse.Node) (*conclusion.Term, error) {
	switch n.PropKind {
	case calqueryparse.PropUID:
		return conclusion.NewTermWithEvent(n.Value, conclusion.NewInclude()), nil

	case calqueryparse.PropCategories:
		return lookupTerm(cal, calendarmodel.FamilyCategories, n.Value), nil

	case calqueryparse.PropLocationType:
		return lookupTerm(cal, calendarmodel.FamilyLocationType, n.Value), nil

	case calqueryparse.PropClass:
		return lookupTerm(cal, calendarmodel.FamilyClass, n.Value), nil

	case calqueryparse.PropRelatedTo:
		key := calendarmodel.KeyValuePair{Key: n.RelType, Value: n.Value}.Encode()
		return lookupTerm(cal, calendarmodel.FamilyRelatedTo, key), nil

	case calqueryparse.PropGeo:
		center, err := geo.NewPoint(n.GeoLat, n.GeoLong)
		if err != nil {
			return nil, calerrors.NewValidation("query.Evaluate", err.Error())
		}
		hits := cal.Geo().LocateWithinDistance(center, n.GeoDistKM)
		term := conclusion.NewTerm()
		for _, h := range hits {
			// A uid can surface at more than one in-radius point (an
			// override moves it there for some occurrences): an
			// occurrence is within the radius if it is within the
			// radius at *any* of its points, so repeats OR together
			// rather than overwrite.
			if existing, ok := term.Events[h.UID]; ok {
				term.Set(h.UID, conclusion.Merge(existing, h.Conclusion, conclusion.OR))
			} else {
				term.Set(h.UID, h.Conclusion)
			}
		}
		return term, nil

	default:
		return nil, calerrors.NewValidation("query.Evaluate", "unknown property kind")
	}
}

// lookupTerm returns the CalendarIndex entry for value under family, or
// an empty term if the value is not indexed -- per spec.md §4.7's
// failure semantics: "an index lookup for a non-existent term yields an
// empty term (not an error)".
func lookupTerm(cal *calendar.Calendar, family calendarmodel.Family, value string) *conclusion.Term {
	t := cal.Index(family).Term(value)
	if t == nil {
		return conclusion.NewTerm()
	}
	return t
}

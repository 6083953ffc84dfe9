package query

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/calquery/calquery/calendar"
	"github.com/calquery/calquery/calendarmodel"
	"github.com/calquery/calquery/calerrors"
	"github.com/calquery/calquery/calqueryparse"
	"github.com/calquery/calquery/calquerylog"
	"github.com/calquery/calquery/calquerymetrics"
	"github.com/calquery/calquery/conclusion"
	"github.com/calquery/calquery/geo"
	"github.com/calquery/calquery/instance"
	"github.com/calquery/calquery/merge"
)

// maxEarthDistanceKM safely exceeds the greatest great-circle distance
// geo.Haversine can return (half the circumference of its 6371.0088km
// sphere, ~20015km), so it can stand in for "unbounded radius"
// when an ordering needs every indexed point sorted by distance rather
// than just those within a caller-given radius.
const maxEarthDistanceKM = 20040.0

// Result is one admitted occurrence, paired with its distance from the
// query's ordering center when the ordering involves one.
type Result struct {
	Instance calendarmodel.EventInstance
	Distance *geo.Distance
}

// Executor runs parsed queries against one Calendar.
type Executor struct {
	cal    *calendar.Calendar
	logger *zap.Logger
}

// NewExecutor returns an Executor bound to cal, logging to a no-op
// logger until WithLogger is called.
func NewExecutor(cal *calendar.Calendar) *Executor {
	return &Executor{cal: cal, logger: zap.NewNop()}
}

// WithLogger sets the logger dangling index references are reported
// to, per the skip-and-log resolution in DESIGN.md's Open Question 1.
func (ex *Executor) WithLogger(logger *zap.Logger) *Executor {
	ex.logger = logger
	return ex
}

// Execute runs q to completion, per spec.md §4.7: evaluate the
// WhereTree (if any) into a term, select the matching event set, then
// drive one of the three orderings with the offset/distinct/limit
// admission policy applied to a lazily pulled occurrence stream -- a
// query against an unbounded recurring event never forces full
// expansion, since the executor stops pulling the instant it has
// enough admitted results.
func (ex *Executor) Execute(q *calqueryparse.Query) ([]Result, error) {
	orderingLabel := orderingMetricLabel(q.OrderBy.Kind)
	start := time.Now()
	defer func() {
		calquerymetrics.QueryDuration.WithLabelValues(orderingLabel).Observe(time.Since(start).Seconds())
	}()
	calquerymetrics.QueriesTotal.WithLabelValues(orderingLabel).Inc()

	results, err := ex.execute(q)
	if err == nil {
		calquerymetrics.ResultsReturned.Observe(float64(len(results)))
	}
	return results, err
}

func orderingMetricLabel(kind calqueryparse.OrderKind) string {
	switch kind {
	case calqueryparse.OrderDtStartThenGeoDist:
		return "dtstart-geodist"
	case calqueryparse.OrderGeoDistThenDtStart:
		return "geodist-dtstart"
	default:
		return "dtstart"
	}
}

func (ex *Executor) execute(q *calqueryparse.Query) ([]Result, error) {
	if q.Limit <= 0 {
		return nil, nil
	}

	var term *conclusion.Term
	if q.Where != nil {
		t, err := Evaluate(ex.cal, q.Where)
		if err != nil {
			return nil, err
		}
		term = t
	}

	switch q.OrderBy.Kind {
	case calqueryparse.OrderGeoDistThenDtStart:
		return ex.executeGeoDistThenDtStart(q, term)
	case calqueryparse.OrderDtStartThenGeoDist:
		return ex.executeDtStartOrdering(q, term, true)
	default:
		return ex.executeDtStartOrdering(q, term, false)
	}
}

// candidateUIDs returns every event UID the where-term admits -- every
// event in the calendar if there is no predicate at all.
func (ex *Executor) candidateUIDs(term *conclusion.Term) []string {
	if term == nil {
		out := make([]string, 0, ex.cal.Len())
		for _, e := range ex.cal.Events() {
			out = append(out, e.UID)
		}
		return out
	}
	out := make([]string, 0, len(term.Events))
	for uid := range term.Events {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// buildIterator constructs the bounded, filtered occurrence iterator
// for one candidate event, or (nil, false) if the uid is a dangling
// index reference -- an event the index names but the store no longer
// holds, per spec.md §4.7's failure semantics: skip and move on rather
// than fail the whole query.
func (ex *Executor) buildIterator(uid string, q *calqueryparse.Query, term *conclusion.Term) (*instance.Iterator, bool) {
	e, ok := ex.cal.Event(uid)
	if !ok {
		calquerylog.DanglingReference(ex.logger, "", "", uid)
		calquerymetrics.DanglingReferencesTotal.WithLabelValues("unknown").Inc()
		return nil, false
	}

	var from, until *instance.FilterCondition
	if q.From != nil {
		from = &instance.FilterCondition{Op: compareOpFrom(q.From.Op), Property: rangeProperty(q.From.Property), Value: q.From.Value}
	}
	if q.Until != nil {
		until = &instance.FilterCondition{Op: compareOpFrom(q.Until.Op), Property: rangeProperty(q.Until.Property), Value: q.Until.Value}
	}

	var filtering *conclusion.Conclusion
	if term != nil {
		c, participates := term.Events[uid]
		if !participates {
			return nil, false
		}
		filtering = &c
	}

	limit := 0
	if q.Distinct {
		// Only a uid's first admissible occurrence can be admitted, so its
		// stream is not pulled past that one.
		limit = 1
	}
	it, err := instance.New(e, limit, from, until, filtering)
	if err != nil {
		return nil, false
	}
	return it, true
}

func compareOpFrom(op calqueryparse.CompareOp) instance.CompareOp {
	switch op {
	case calqueryparse.GT:
		return instance.GreaterThan
	case calqueryparse.GTE:
		return instance.GreaterEqualThan
	case calqueryparse.LT:
		return instance.LessThan
	default:
		return instance.LessEqualThan
	}
}

func rangeProperty(p calqueryparse.RangeProperty) instance.Property {
	if p == calqueryparse.RangeDTEnd {
		return instance.DTEnd
	}
	return instance.DTStart
}

// executeDtStartOrdering handles OrderDtStart and OrderDtStartThenGeoDist.
// Both merge every candidate event's occurrence stream into one
// ascending-dtstart sequence; the GeoDist variant additionally holds
// back truncation until every occurrence sharing the limit-th admitted
// DTSTART has been considered, per spec.md §4.7's tie-group rule.
func (ex *Executor) executeDtStartOrdering(q *calqueryparse.Query, term *conclusion.Term, withGeo bool) ([]Result, error) {
	var center geo.Point
	if withGeo {
		p, err := geo.NewPoint(q.OrderBy.Lat, q.OrderBy.Long)
		if err != nil {
			return nil, calerrors.NewValidation("query.Execute", err.Error())
		}
		center = p
	}

	m := merge.New(func(a, b merge.Item) bool {
		return a.(calendarmodel.EventInstance).DTStart.Before(b.(calendarmodel.EventInstance).DTStart)
	})
	for _, uid := range ex.candidateUIDs(term) {
		it, ok := ex.buildIterator(uid, q, term)
		if !ok {
			continue
		}
		m.AddSource(uid, it.AsSource())
	}

	var admitted []Result
	seen := make(map[string]bool)
	admissionCount := 0
	haveTieDTStart := false
	var lastAdmittedDTStart int64
	for {
		item, uid, ok := m.Next()
		if !ok {
			break
		}
		inst := item.(calendarmodel.EventInstance)

		if q.Distinct {
			if seen[uid] {
				continue
			}
			// Mark seen before the offset test below: a uid whose only
			// occurrence here is dropped by the offset has still used
			// its one distinct slot and must not be re-admitted via a
			// later occurrence of the same uid.
			seen[uid] = true
		}
		admissionCount++
		if admissionCount <= q.Offset {
			continue
		}

		var dist *geo.Distance
		if withGeo {
			if d, ok := ex.cal.Geo().DistanceTo(uid, center); ok {
				dist = &d
			}
		}
		admitted = append(admitted, Result{Instance: inst, Distance: dist})

		if !withGeo {
			if len(admitted) >= q.Limit {
				break
			}
			continue
		}

		// GeoDist-then-DtStart's sibling, DtStart-then-GeoDist, must not
		// cut a dtstart tie group in half: once the limit-th result is
		// admitted, keep draining until dtstart advances past it.
		if len(admitted) == q.Limit && !haveTieDTStart {
			haveTieDTStart = true
			lastAdmittedDTStart = inst.DTStart.Unix()
		} else if haveTieDTStart && inst.DTStart.Unix() != lastAdmittedDTStart {
			admitted = admitted[:len(admitted)-1]
			break
		}
	}

	sortResults(admitted, q.OrderBy.Kind)
	return truncate(admitted, q.Limit), nil
}

// executeGeoDistThenDtStart drives the outer loop from the geo index's
// nearest-to-center ordering: for each indexed point (nearest first),
// AND its static presence with the where-term (if any), then lazily
// drain that event's occurrence stream before moving to the next
// point. Stops the instant the admitted result count reaches the
// query's offset+limit target, so a calendar with many more events
// than the query needs never has its tail materialized.
func (ex *Executor) executeGeoDistThenDtStart(q *calqueryparse.Query, term *conclusion.Term) ([]Result, error) {
	center, err := geo.NewPoint(q.OrderBy.Lat, q.OrderBy.Long)
	if err != nil {
		return nil, calerrors.NewValidation("query.Execute", err.Error())
	}

	hits := ex.cal.Geo().LocateWithinDistance(center, maxEarthDistanceKM)

	var admitted []Result
	seen := make(map[string]bool)
	admissionCount := 0

	for _, hit := range hits {
		if term != nil {
			if _, participates := term.Events[hit.UID]; !participates {
				continue
			}
		}
		it, ok := ex.buildIterator(hit.UID, q, term)
		if !ok {
			continue
		}

		dist := hit.Distance
		for {
			inst, ok := it.Next()
			if !ok {
				break
			}
			if q.Distinct {
				if seen[hit.UID] {
					continue
				}
				seen[hit.UID] = true
			}
			admissionCount++
			if admissionCount <= q.Offset {
				continue
			}
			admitted = append(admitted, Result{Instance: inst, Distance: &dist})
			if len(admitted) >= q.Limit {
				break
			}
		}
		if len(admitted) >= q.Limit {
			break
		}
	}

	sortResults(admitted, q.OrderBy.Kind)
	return truncate(admitted, q.Limit), nil
}

// sortResults imposes the ordering's final total order (including the
// UID tiebreaker) over the admitted set, used both for the tie-group
// truncation pass and as the result's final presentation order.
func sortResults(results []Result, kind calqueryparse.OrderKind) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch kind {
		case calqueryparse.OrderDtStartThenGeoDist:
			if !a.Instance.DTStart.Equal(b.Instance.DTStart) {
				return a.Instance.DTStart.Before(b.Instance.DTStart)
			}
			if c := compareDistance(a.Distance, b.Distance); c != 0 {
				return c < 0
			}
		case calqueryparse.OrderGeoDistThenDtStart:
			if c := compareDistance(a.Distance, b.Distance); c != 0 {
				return c < 0
			}
			if !a.Instance.DTStart.Equal(b.Instance.DTStart) {
				return a.Instance.DTStart.Before(b.Instance.DTStart)
			}
		default:
			if !a.Instance.DTStart.Equal(b.Instance.DTStart) {
				return a.Instance.DTStart.Before(b.Instance.DTStart)
			}
		}
		return a.Instance.UID < b.Instance.UID
	})
}

// compareDistance orders two optional distances, with an absent
// distance sorting after every present one (spec.md §4.7: "an event
// with no indexed geo point sorts as greater than any present
// distance").
func compareDistance(a, b *geo.Distance) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}
	return a.Compare(*b)
}

// truncate drops highest-keyed entries until the result set has at
// most n entries; results is assumed already sorted ascending.
func truncate(results []Result, n int) []Result {
	if n >= 0 && len(results) > n {
		return results[:n]
	}
	return results
}

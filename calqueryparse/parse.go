package calqueryparse

import (
	"strconv"
	"strings"
	"time"

	"github.com/calquery/calquery/calerrors"
	"github.com/calquery/calquery/conclusion"
	"github.com/calquery/calquery/geo"
)

const op = "calqueryparse.Parse"

// Parse scans and parses a full query string per spec.md §6.1: a
// whitespace-separated sequence of top-level directives plus an
// optional predicate group built from X-CATEGORIES/X-LOCATION-TYPE/
// X-CLASS/X-RELATED-TO/X-GEO/X-UID joined by (implicit or explicit)
// AND/OR and arbitrarily nested parentheses.
func Parse(input string) (*Query, error) {
	q := &Query{TZID: "UTC", Limit: defaultLimit, OrderBy: Ordering{Kind: OrderDtStart}}

	toks := tokenize(input)
	var predicateToks []token

	for _, t := range toks {
		if t.text == "(" || t.text == ")" || t.text == "AND" || t.text == "OR" {
			predicateToks = append(predicateToks, t)
			continue
		}

		name := propertyName(t.text)
		switch name {
		case "X-LIMIT":
			_, _, value := splitToken(t.text)
			n, err := parseUnsigned(value, t)
			if err != nil {
				return nil, err
			}
			q.Limit = n
		case "X-OFFSET":
			_, _, value := splitToken(t.text)
			n, err := parseUnsigned(value, t)
			if err != nil {
				return nil, err
			}
			q.Offset = n
		case "X-TZID":
			_, _, value := splitToken(t.text)
			q.TZID = value
		case "X-DISTINCT":
			_, _, value := splitToken(t.text)
			if value != "UID" {
				return nil, parseErr(t, "X-DISTINCT only supports UID")
			}
			q.Distinct = true
		case "X-FROM":
			b, err := parseBound(t, map[string]CompareOp{"GT": GT, "GTE": GTE})
			if err != nil {
				return nil, err
			}
			q.From = b
		case "X-UNTIL":
			b, err := parseBound(t, map[string]CompareOp{"LT": LT, "LTE": LTE})
			if err != nil {
				return nil, err
			}
			q.Until = b
		case "X-ORDER-BY":
			ord, err := parseOrdering(t)
			if err != nil {
				return nil, err
			}
			q.OrderBy = ord
		case "X-CATEGORIES", "X-LOCATION-TYPE", "X-CLASS", "X-RELATED-TO", "X-GEO", "X-UID":
			predicateToks = append(predicateToks, t)
		default:
			return nil, parseErr(t, "unrecognized query property "+name)
		}
	}

	if len(predicateToks) > 0 {
		node, pos, err := parseSequence(predicateToks, 0)
		if err != nil {
			return nil, err
		}
		if pos != len(predicateToks) {
			return nil, parseErr(predicateToks[pos], "unexpected token; expected end of predicate group")
		}
		q.Where = node
	}

	return q, nil
}

func parseErr(t token, msg string) error {
	return calerrors.NewParse(op, msg, calerrors.Span{Start: t.start, End: t.end})
}

func parseUnsigned(value string, t token) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, parseErr(t, "expected an unsigned integer, got "+value)
	}
	return n, nil
}

// parseBound parses an X-FROM/X-UNTIL clause, resolving its datetime
// value through its own TZID param (default UTC) into a Unix-seconds
// bound. Per spec.md §8's worked example, a bound's TZID is
// self-contained and independent of the query's overall X-TZID.
func parseBound(t token, ops map[string]CompareOp) (*Bound, error) {
	_, params, value := splitToken(t.text)

	var prop RangeProperty
	switch params["PROP"] {
	case "DTSTART", "":
		prop = RangeDTStart
	case "DTEND":
		prop = RangeDTEnd
	default:
		return nil, parseErr(t, "unknown PROP "+params["PROP"])
	}

	cmp, ok := ops[params["OP"]]
	if !ok {
		return nil, parseErr(t, "unknown or missing OP "+params["OP"])
	}

	tzid := params["TZID"]
	if tzid == "" {
		tzid = "UTC"
	}
	loc, err := time.LoadLocation(tzid)
	if err != nil {
		return nil, parseErr(t, "unknown timezone "+tzid)
	}

	ts, err := time.ParseInLocation("20060102T150405", value, loc)
	if err != nil {
		return nil, parseErr(t, "malformed datetime "+value)
	}

	return &Bound{Op: cmp, Property: prop, Value: ts.UTC().Unix()}, nil
}

func parseOrdering(t token) (Ordering, error) {
	_, _, value := splitToken(t.text)
	parts := strings.Split(value, ";")

	switch parts[0] {
	case "DTSTART":
		return Ordering{Kind: OrderDtStart}, nil
	case "DTSTART-GEO-DIST", "GEO-DIST-DTSTART":
		if len(parts) != 3 {
			return Ordering{}, parseErr(t, "expected <lat>;<long> after "+parts[0])
		}
		lat, err1 := strconv.ParseFloat(parts[1], 64)
		long, err2 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil {
			return Ordering{}, parseErr(t, "malformed lat/long in X-ORDER-BY")
		}
		kind := OrderDtStartThenGeoDist
		if parts[0] == "GEO-DIST-DTSTART" {
			kind = OrderGeoDistThenDtStart
		}
		return Ordering{Kind: kind, Lat: lat, Long: long}, nil
	default:
		return Ordering{}, parseErr(t, "unknown X-ORDER-BY mode "+parts[0])
	}
}

// parseSequence parses a predicate sequence starting at pos, consuming
// tokens joined by (explicit or implicit-AND) AND/OR until it hits a
// ")" or runs out of tokens.
func parseSequence(toks []token, pos int) (*Node, int, error) {
	left, pos, err := parsePrimary(toks, pos)
	if err != nil {
		return nil, pos, err
	}

	for pos < len(toks) && toks[pos].text != ")" {
		combineOp := conclusion.AND
		if toks[pos].text == "AND" {
			pos++
		} else if toks[pos].text == "OR" {
			combineOp = conclusion.OR
			pos++
		}
		right, next, err := parsePrimary(toks, pos)
		if err != nil {
			return nil, next, err
		}
		left = &Node{Kind: NodeOperator, Op: combineOp, LHS: left, RHS: right}
		pos = next
	}
	return left, pos, nil
}

func parsePrimary(toks []token, pos int) (*Node, int, error) {
	if pos >= len(toks) {
		return nil, pos, calerrors.NewParse(op, "unexpected end of predicate group", calerrors.Span{})
	}

	if toks[pos].text == "(" {
		child, next, err := parseSequence(toks, pos+1)
		if err != nil {
			return nil, next, err
		}
		if next >= len(toks) || toks[next].text != ")" {
			return nil, next, parseErr(toks[pos], "unterminated parenthesized group")
		}
		return &Node{Kind: NodeGroup, Child: child}, next + 1, nil
	}

	node, err := parsePredicateToken(toks[pos])
	if err != nil {
		return nil, pos, err
	}
	return node, pos + 1, nil
}

func parsePredicateToken(t token) (*Node, error) {
	name, params, value := splitToken(t.text)

	switch name {
	case "X-UID":
		return &Node{Kind: NodeProperty, PropKind: PropUID, Value: value}, nil

	case "X-CATEGORIES", "X-LOCATION-TYPE", "X-CLASS":
		kind := PropCategories
		if name == "X-LOCATION-TYPE" {
			kind = PropLocationType
		} else if name == "X-CLASS" {
			kind = PropClass
		}
		values := strings.Split(value, ",")
		combineOp := conclusion.AND
		if params["OP"] == "OR" {
			combineOp = conclusion.OR
		}
		return buildValueList(kind, values, combineOp), nil

	case "X-RELATED-TO":
		return &Node{Kind: NodeProperty, PropKind: PropRelatedTo, RelType: params["RELTYPE"], Value: value}, nil

	case "X-GEO":
		lat, long, err := parseLatLong(t, value)
		if err != nil {
			return nil, err
		}
		distKM, err := parseDistanceKM(t, params["DIST"])
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeProperty, PropKind: PropGeo, GeoLat: lat, GeoLong: long, GeoDistKM: distKM}, nil

	default:
		return nil, parseErr(t, "unknown predicate property "+name)
	}
}

// buildValueList expands a list predicate (spec.md §6.1: "a list
// predicate with OP=OR expands to the OR of its per-value properties;
// OP=AND expands to their AND") into a left-folded Operator tree,
// wrapped in a Group when it has more than one value -- matching the
// worked example in spec.md §8, where a two-value X-CATEGORIES clause
// parses to Group(Operator(Cat(a), Cat(b), OR)).
func buildValueList(kind PropertyKind, values []string, combineOp conclusion.Op) *Node {
	nodes := make([]*Node, len(values))
	for i, v := range values {
		nodes[i] = &Node{Kind: NodeProperty, PropKind: kind, Value: v}
	}
	tree := nodes[0]
	for _, n := range nodes[1:] {
		tree = &Node{Kind: NodeOperator, Op: combineOp, LHS: tree, RHS: n}
	}
	if len(nodes) == 1 {
		return tree
	}
	return &Node{Kind: NodeGroup, Child: tree}
}

func parseLatLong(t token, value string) (lat, long float64, err error) {
	parts := strings.Split(value, ";")
	if len(parts) != 2 {
		return 0, 0, parseErr(t, "expected <lat>;<long>")
	}
	lat, err1 := strconv.ParseFloat(parts[0], 64)
	long, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, parseErr(t, "malformed lat/long")
	}
	return lat, long, nil
}

func parseDistanceKM(t token, s string) (float64, error) {
	unit := geo.Kilometers
	switch {
	case strings.HasSuffix(s, "km"):
		s = strings.TrimSuffix(s, "km")
	case strings.HasSuffix(s, "mi"):
		s = strings.TrimSuffix(s, "mi")
		unit = geo.Miles
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, parseErr(t, "malformed DIST value")
	}
	if unit == geo.Miles {
		return geo.NewDistanceMiles(v).Kilometers().KilometersFloat(), nil
	}
	return v, nil
}

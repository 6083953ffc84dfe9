// Package geoindex implements the geospatial index: an R-tree over
// event coordinates (for the X-GEO;DIST= radius predicate) backed by
// geohash point equality and haversine distance, per spec §4.3 and
// original_source/src/data_types/geo_index.rs.
package geoindex

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/calquery/calquery/conclusion"
	"github.com/calquery/calquery/geo"
	"github.com/calquery/calquery/index"
)

// pointTolerance inflates each indexed point into a near-zero-area
// bounding box; rtreego requires non-degenerate rectangles.
const pointTolerance = 0.0000001

// degreesPerKM approximates the latitude-degree span of one kilometer,
// used to size the R-tree's candidate search box before the exact
// haversine filter narrows it down.
const degreesPerKM = 1.0 / 111.045

// node is one spatial index entry: every event at the same geohash
// cell shares one node and one conclusion.Term, so spec §4.3's
// "locate existing node at point; if present, fold the new conclusion
// into its term; else add a new node" only grows the R-tree by
// distinct coordinates, never by event count.
type node struct {
	hash  string
	point geo.Point
	term  *conclusion.Term
}

func (n *node) Bounds() *rtreego.Rect {
	p := rtreego.Point{n.point.Lat, n.point.Long}
	r, err := p.ToRect(pointTolerance)
	if err != nil {
		// n.point is always finite (validated by geo.NewPoint at
		// insert time); ToRect only fails on a negative tolerance.
		panic(err)
	}
	return r
}

// Result is one hit from a radius query: the event's own per-occurrence
// conclusion at the matched point, alongside the distance from the
// query center, so a caller can tell which of the event's occurrences
// actually sit at that point.
type Result struct {
	UID        string
	Point      geo.Point
	Distance   geo.Distance
	Conclusion conclusion.Conclusion
}

// GeoIndex maps event UIDs to coordinates and answers radius queries,
// carrying a conclusion.Term per distinct point (one GeoIndex exists
// per calendar, spec §3's "C5 GeoIndex"), analogous to how
// index.CalendarIndex carries one per string term for the other four
// indexed families.
type GeoIndex struct {
	tree      *rtreego.Rtree
	byHash    map[string]*node
	uidHashes map[string]map[string]struct{} // uid -> every hash it currently has a conclusion entry in
	uidPoint  map[string]geo.Point           // uid -> representative point, for Lookup/DistanceTo
}

// New returns an empty index.
func New() *GeoIndex {
	return &GeoIndex{
		tree:      rtreego.NewTree(2, 25, 50),
		byHash:    make(map[string]*node),
		uidHashes: make(map[string]map[string]struct{}),
		uidPoint:  make(map[string]geo.Point),
	}
}

// InsertEvent folds uid's per-occurrence geo conclusion -- keyed by
// point geohash, from calendarmodel.Event.GeoIndexTerms -- into the
// shared node at each hash, replacing uid's prior entries entirely.
// points supplies the coordinate for every hash perEvent.Terms names;
// a hash absent from points (should not happen for a well-formed
// PerEventIndex) is silently skipped.
func (gi *GeoIndex) InsertEvent(uid string, perEvent *index.PerEventIndex, points map[string]geo.Point) {
	gi.Remove(uid)
	if len(perEvent.Terms) == 0 {
		return
	}

	hashes := make(map[string]struct{}, len(perEvent.Terms))
	var representative geo.Point
	haveRepresentative := false
	for hash, c := range perEvent.Terms {
		p, ok := points[hash]
		if !ok {
			continue
		}
		n, ok := gi.byHash[hash]
		if !ok {
			n = &node{hash: hash, point: p, term: conclusion.NewTerm()}
			gi.tree.Insert(n)
			gi.byHash[hash] = n
		}
		n.term.Set(uid, c)
		hashes[hash] = struct{}{}
		if !haveRepresentative || c.Variant == conclusion.Include {
			representative = p
			haveRepresentative = true
		}
	}
	if len(hashes) == 0 {
		return
	}
	gi.uidHashes[uid] = hashes
	gi.uidPoint[uid] = representative
}

// Remove drops uid from every node it participates in. A no-op if uid
// was never indexed.
func (gi *GeoIndex) Remove(uid string) {
	hashes, ok := gi.uidHashes[uid]
	if !ok {
		return
	}
	delete(gi.uidHashes, uid)
	delete(gi.uidPoint, uid)
	for hash := range hashes {
		n, ok := gi.byHash[hash]
		if !ok {
			continue
		}
		n.term.Remove(uid)
		if n.term.IsEmpty() {
			gi.tree.Delete(n)
			delete(gi.byHash, hash)
		}
	}
}

// Len reports how many events are indexed.
func (gi *GeoIndex) Len() int {
	return len(gi.uidHashes)
}

// Lookup returns uid's representative indexed point, if any -- the
// base point when one is set, otherwise whichever override point was
// folded in.
func (gi *GeoIndex) Lookup(uid string) (geo.Point, bool) {
	p, ok := gi.uidPoint[uid]
	return p, ok
}

// LocateWithinDistance returns every indexed event within maxKM
// kilometers of center, ascending by distance. It first narrows the
// candidate set with an R-tree box search over spatial nodes, then
// filters and sorts by exact haversine distance, yielding one Result
// per (node, uid) pair so a uid present at more than one point (via a
// geo override) can appear once per matching point with that point's
// own conclusion.
func (gi *GeoIndex) LocateWithinDistance(center geo.Point, maxKM float64) []Result {
	span := maxKM * degreesPerKM
	if span <= 0 {
		span = pointTolerance
	}
	box, err := rtreego.NewRect(
		rtreego.Point{center.Lat - span, center.Long - span},
		[]float64{span * 2, span * 2},
	)
	if err != nil {
		return nil
	}

	candidates := gi.tree.SearchIntersect(box)
	out := make([]Result, 0, len(candidates))
	for _, cand := range candidates {
		n := cand.(*node)
		d := geo.Haversine(center, n.point)
		if d.KilometersFloat() > maxKM {
			continue
		}
		for uid, c := range n.term.Events {
			out = append(out, Result{UID: uid, Point: n.point, Distance: d, Conclusion: c})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Distance.Compare(out[j].Distance); cmp != 0 {
			return cmp < 0
		}
		return out[i].UID < out[j].UID
	})
	return out
}

// DistanceTo computes the distance from center to uid's representative
// indexed point. The second return is false if uid is not indexed.
func (gi *GeoIndex) DistanceTo(uid string, center geo.Point) (geo.Distance, bool) {
	p, ok := gi.uidPoint[uid]
	if !ok {
		return geo.Distance{}, false
	}
	return geo.Haversine(center, p), true
}

// Package geo provides the spatial primitives shared by the indexed
// properties model and the geo index: points, distances, and the
// geohash-based equality used to collapse near-identical coordinates.
package geo

import (
	"fmt"
	"math"

	"github.com/mmcloughlin/geohash"
)

// hashPrecision is the number of geohash characters used for point
// equality. 12 characters gives a cell of roughly 3.7cm x 1.9cm at the
// equator, close enough to "indistinguishable" for calendar venues.
const hashPrecision = 12

// Point is a WGS-84 coordinate. Two points are equal, and hash equal, if
// they fall in the same geohash cell at hashPrecision.
type Point struct {
	Lat  float64
	Long float64
}

// NewPoint validates the coordinate ranges from spec: lat in [-90,90],
// long in [-180,180].
func NewPoint(lat, long float64) (Point, error) {
	if lat < -90 || lat > 90 {
		return Point{}, fmt.Errorf("latitude %v out of range [-90,90]", lat)
	}
	if long < -180 || long > 180 {
		return Point{}, fmt.Errorf("longitude %v out of range [-180,180]", long)
	}
	return Point{Lat: lat, Long: long}, nil
}

// Hash returns the fixed-precision geohash used for equality.
func (p Point) Hash() string {
	return geohash.EncodeWithPrecision(p.Lat, p.Long, hashPrecision)
}

// Equal reports whether p and other round to the same geohash cell.
func (p Point) Equal(other Point) bool {
	return p.Hash() == other.Hash()
}

// String renders the point as "lat;long", matching the query language's
// X-GEO property value.
func (p Point) String() string {
	return fmt.Sprintf("%g;%g", p.Lat, p.Long)
}

const (
	earthRadiusKM  = 6371.0088
	fractionalPrec = 1000000.0
	kmToMile       = 1.609344
	mileToKM       = 1 / kmToMile
)

// Unit is the rendering unit for a Distance.
type Unit int

const (
	Kilometers Unit = iota
	Miles
)

// Distance is a non-negative distance stored as (whole units, fractional
// millionths), per spec §3/§9: this avoids floating-point equality hazards
// while still giving a total order. The canonical form for ordering is
// always kilometers.
type Distance struct {
	unit       Unit
	whole      uint32
	fractional uint32 // 0..999999, six decimal places
}

// NewDistanceKM builds a Distance from a kilometer float.
func NewDistanceKM(km float64) Distance {
	whole, frac := split(km)
	return Distance{unit: Kilometers, whole: whole, fractional: frac}
}

// NewDistanceMiles builds a Distance from a miles float.
func NewDistanceMiles(mi float64) Distance {
	whole, frac := split(mi)
	return Distance{unit: Miles, whole: whole, fractional: frac}
}

func split(v float64) (uint32, uint32) {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	whole := math.Floor(v)
	frac := math.Round((v - whole) * fractionalPrec)
	if frac >= fractionalPrec {
		whole++
		frac = 0
	}
	return uint32(whole), uint32(frac)
}

func (d Distance) toFloat() float64 {
	return float64(d.whole) + float64(d.fractional)/fractionalPrec
}

// Kilometers returns the canonical kilometer form.
func (d Distance) Kilometers() Distance {
	if d.unit == Kilometers {
		return d
	}
	return NewDistanceKM(d.toFloat() * kmToMile)
}

// Miles returns the distance rendered in miles.
func (d Distance) Miles() Distance {
	if d.unit == Miles {
		return d
	}
	return NewDistanceMiles(d.toFloat() * mileToKM)
}

// KilometersFloat returns the canonical kilometer value as a float64,
// the form all ordering comparisons use.
func (d Distance) KilometersFloat() float64 {
	return d.Kilometers().toFloat()
}

// Compare orders two distances by their canonical kilometer form.
func (d Distance) Compare(other Distance) int {
	a, b := d.KilometersFloat(), other.KilometersFloat()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String renders the distance in its own unit with six decimal places,
// e.g. "12.500000km" or "3.200000mi".
func (d Distance) String() string {
	suffix := "km"
	if d.unit == Miles {
		suffix = "mi"
	}
	return fmt.Sprintf("%d.%06d%s", d.whole, d.fractional, suffix)
}

// Haversine computes the great-circle distance between two points, in
// kilometers, on the WGS-84 mean sphere radius.
func Haversine(a, b Point) Distance {
	const deg2rad = math.Pi / 180

	lat1, lat2 := a.Lat*deg2rad, b.Lat*deg2rad
	dLat := (b.Lat - a.Lat) * deg2rad
	dLong := (b.Long - a.Long) * deg2rad

	sinDLat := math.Sin(dLat / 2)
	sinDLong := math.Sin(dLong / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLong*sinDLong
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return NewDistanceKM(earthRadiusKM * c)
}

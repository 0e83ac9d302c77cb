package main

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// metersPerDegree is the length of one degree of latitude used by the local
// equirectangular approximation.
const metersPerDegree = 111320.0

// minCosLatitude keeps longitude conversions finite near the poles.
const minCosLatitude = 0.00001

// LatLng is a coordinate as exchanged with clients (lat first).
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts to an orb point, which is ordered [lng, lat].
func (ll LatLng) Point() orb.Point {
	return orb.Point{ll.Lng, ll.Lat}
}

func latLngOf(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// metersToLatDegrees converts a north/south distance into degrees of latitude
func metersToLatDegrees(m float64) float64 {
	return m / metersPerDegree
}

// metersToLngDegrees converts an east/west distance at the given latitude
// into degrees of longitude
func metersToLngDegrees(m, lat float64) float64 {
	return m / metersPerDegree / math.Max(math.Cos(lat*math.Pi/180), minCosLatitude)
}

// DistanceMeters returns the great-circle distance between two points
func DistanceMeters(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b)
}

// LineSegment represents a line segment between two points
type LineSegment struct {
	P1, P2 orb.Point
}

// DoSegmentsIntersect checks if two line segments intersect or touch
func DoSegmentsIntersect(seg1, seg2 LineSegment) bool {
	p1, p2 := seg1.P1, seg1.P2
	p3, p4 := seg2.P1, seg2.P2

	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear cases
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}

	return false
}

// direction calculates the cross product to determine orientation
func direction(p1, p2, p3 orb.Point) float64 {
	return (p3.X()-p1.X())*(p2.Y()-p1.Y()) - (p2.X()-p1.X())*(p3.Y()-p1.Y())
}

// onSegment checks if point q lies within the bounding box of segment pr
func onSegment(p, r, q orb.Point) bool {
	return q.X() <= math.Max(p.X(), r.X()) && q.X() >= math.Min(p.X(), r.X()) &&
		q.Y() <= math.Max(p.Y(), r.Y()) && q.Y() >= math.Min(p.Y(), r.Y())
}

// IsPointInRing checks if a point is inside a ring using ray casting.
// The ring may be open or closed; rings with fewer than 3 vertices contain
// nothing.
func IsPointInRing(point orb.Point, ring orb.Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}

	count := 0
	for i := 0; i < n; i++ {
		v1 := ring[i]
		v2 := ring[(i+1)%n]

		// Check if the ray from point to the right crosses the edge
		if (v1.Y() > point.Y()) != (v2.Y() > point.Y()) {
			slope := (point.X()-v1.X())*(v2.Y()-v1.Y()) - (v2.X()-v1.X())*(point.Y()-v1.Y())
			if v2.Y() > v1.Y() {
				if slope > 0 {
					count++
				}
			} else {
				if slope < 0 {
					count++
				}
			}
		}
	}

	return count%2 == 1
}

// DoesSegmentIntersectRing checks if a line segment crosses any edge of a ring
func DoesSegmentIntersectRing(seg LineSegment, ring orb.Ring) bool {
	n := len(ring)
	if n < 2 {
		return false
	}
	for i := 0; i < n; i++ {
		edge := LineSegment{
			P1: ring[i],
			P2: ring[(i+1)%n],
		}
		if DoSegmentsIntersect(seg, edge) {
			return true
		}
	}
	return false
}

// signedArea returns twice the signed planar area of a ring in degree units.
// Positive means counter-clockwise when x is longitude and y is latitude.
func signedArea(ring orb.Ring) float64 {
	n := len(ring)
	area := 0.0
	for i := 0; i < n; i++ {
		a := ring[i]
		b := ring[(i+1)%n]
		area += a.X()*b.Y() - b.X()*a.Y()
	}
	return area
}

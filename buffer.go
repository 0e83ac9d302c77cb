package main

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// DefaultBufferMeters is the safety margin added around every hazard.
	DefaultBufferMeters = 50.0

	// circleSegments is the vertex count of buffered circles
	circleSegments = 64

	// arcStep is the angular resolution of round joins
	arcStep = math.Pi / 16
)

// BufferedGeometry is a hazard expanded by a safety margin. The ring is open
// (first vertex not repeated) and ordered [lng, lat].
//
// For polygon hazards the ring is only an outline: around narrow notches the
// offset edges cross each other, so membership is decided against Source
// and Margin instead. Circles and collapsed rings have no Source and are
// tested against the ring.
type BufferedGeometry struct {
	HazardID string
	Ring     orb.Ring
	Bound    orb.Bound
	Source   orb.Ring
	Margin   float64
}

// Contains reports whether p lies inside the hazard or within Margin of it
func (g BufferedGeometry) Contains(p orb.Point) bool {
	if len(g.Ring) < 3 || !g.Bound.Contains(p) {
		return false
	}
	if len(g.Source) < 3 {
		return IsPointInRing(p, g.Ring)
	}
	if IsPointInRing(p, g.Source) {
		return true
	}
	frame, pts := g.localSource()
	q := frame.toLocal(p)
	n := len(pts)
	for i := 0; i < n; i++ {
		if pointSegmentDistance(q, pts[i], pts[(i+1)%n]) <= g.Margin {
			return true
		}
	}
	return false
}

// IntersectsSegment reports whether any point of the segment a-b lies in
// the buffered region
func (g BufferedGeometry) IntersectsSegment(a, b orb.Point) bool {
	if g.Contains(a) || g.Contains(b) {
		return true
	}
	if len(g.Source) < 3 {
		return DoesSegmentIntersectRing(LineSegment{P1: a, P2: b}, g.Ring)
	}
	frame, pts := g.localSource()
	la, lb := frame.toLocal(a), frame.toLocal(b)
	n := len(pts)
	for i := 0; i < n; i++ {
		if segmentDistance(la, lb, pts[i], pts[(i+1)%n]) <= g.Margin {
			return true
		}
	}
	return false
}

// localSource projects Source into the frame it was buffered in
func (g BufferedGeometry) localSource() (localFrame, []vec) {
	frame := newLocalFrame(centroid(g.Source))
	pts := make([]vec, len(g.Source))
	for i, p := range g.Source {
		pts[i] = frame.toLocal(p)
	}
	return frame, pts
}

// BufferHazard expands a single hazard by bufferMeters. Negative margins are
// treated as zero.
func BufferHazard(h Hazard, bufferMeters float64) BufferedGeometry {
	margin := math.Max(bufferMeters, 0)
	g := h.toBufferedRing(margin)
	g.HazardID = h.ID

	if len(g.Ring) > 0 {
		g.Bound = g.Ring.Bound()
		if g.Source != nil {
			g.Bound = g.Bound.Union(paddedBound(g.Source, margin))
		}
	}
	return g
}

// toBufferedRing dispatches on Kind. Unknown kinds yield an empty ring.
func (h Hazard) toBufferedRing(margin float64) BufferedGeometry {
	var g BufferedGeometry
	switch h.Kind {
	case KindPolygon, KindRectangle:
		src := h.points()
		ring, exact := bufferRing(src, margin)
		g.Ring = ring
		if exact {
			g.Source = src
			g.Margin = margin
		}
	case KindCircle:
		g.Ring = circleRing(h.Center.Point(), h.RadiusMeters+margin)
	}
	return g
}

// BufferHazards expands every hazard by the same margin, preserving order.
func BufferHazards(hazards []Hazard, bufferMeters float64) []BufferedGeometry {
	return BufferHazardsFunc(hazards, func(Hazard) float64 { return bufferMeters })
}

// BufferHazardsFunc expands every hazard by a per-hazard margin.
func BufferHazardsFunc(hazards []Hazard, margin func(Hazard) float64) []BufferedGeometry {
	out := make([]BufferedGeometry, 0, len(hazards))
	for _, h := range hazards {
		out = append(out, BufferHazard(h, margin(h)))
	}
	return out
}

// vec is a planar offset in metres (x east, y north)
type vec struct{ x, y float64 }

func (a vec) add(b vec) vec       { return vec{a.x + b.x, a.y + b.y} }
func (a vec) sub(b vec) vec       { return vec{a.x - b.x, a.y - b.y} }
func (a vec) scale(s float64) vec { return vec{a.x * s, a.y * s} }
func (a vec) dot(b vec) float64   { return a.x*b.x + a.y*b.y }
func (a vec) cross(b vec) float64 { return a.x*b.y - a.y*b.x }
func (a vec) length() float64     { return math.Hypot(a.x, a.y) }
func (a vec) unit() (vec, bool) {
	l := a.length()
	if l == 0 {
		return vec{}, false
	}
	return a.scale(1 / l), true
}

// localFrame is an equirectangular projection centred on a reference point
type localFrame struct {
	origin       orb.Point
	metersPerLng float64
}

func newLocalFrame(origin orb.Point) localFrame {
	return localFrame{
		origin:       origin,
		metersPerLng: metersPerDegree * math.Max(math.Cos(origin.Lat()*math.Pi/180), minCosLatitude),
	}
}

func (f localFrame) toLocal(p orb.Point) vec {
	return vec{
		x: (p.Lon() - f.origin.Lon()) * f.metersPerLng,
		y: (p.Lat() - f.origin.Lat()) * metersPerDegree,
	}
}

func (f localFrame) toGeo(v vec) orb.Point {
	return orb.Point{
		f.origin.Lon() + v.x/f.metersPerLng,
		f.origin.Lat() + v.y/metersPerDegree,
	}
}

// bufferRing offsets every edge of ring outward by margin metres. Convex
// corners get round joins, reflex corners get mitre joins. exact is false
// when the ring had no area and was replaced by its enclosing circle.
func bufferRing(ring orb.Ring, margin float64) (out orb.Ring, exact bool) {
	n := len(ring)
	if n < 3 {
		return nil, false
	}

	frame := newLocalFrame(centroid(ring))
	pts := make([]vec, n)
	for i, p := range ring {
		pts[i] = frame.toLocal(p)
	}

	area := 0.0
	for i := 0; i < n; i++ {
		area += pts[i].cross(pts[(i+1)%n])
	}
	if math.Abs(area) < 1e-9 {
		// Collinear or collapsed rings have no interior to offset from.
		return enclosingCircle(frame, pts, margin), false
	}
	orient := 1.0
	if area < 0 {
		orient = -1.0
	}

	// outward normal of a directed edge
	outward := func(e vec) (vec, bool) {
		u, ok := e.unit()
		if !ok {
			return vec{}, false
		}
		return vec{u.y * orient, -u.x * orient}, true
	}

	out = make(orb.Ring, 0, n*4)
	for i := 0; i < n; i++ {
		prev := pts[(i-1+n)%n]
		curr := pts[i]
		next := pts[(i+1)%n]
		e1 := curr.sub(prev)
		e2 := next.sub(curr)

		n1, ok1 := outward(e1)
		n2, ok2 := outward(e2)
		switch {
		case !ok1 && !ok2:
			continue
		case !ok1:
			n1 = n2
		case !ok2:
			n2 = n1
		}

		if margin == 0 {
			out = append(out, frame.toGeo(curr))
			continue
		}

		turn := e1.cross(e2) * orient
		switch {
		case turn > 0 || (turn == 0 && n1.dot(n2) < 0):
			for _, v := range arc(curr, n1, n2, margin, orient) {
				out = append(out, frame.toGeo(v))
			}
		case turn == 0:
			out = append(out, frame.toGeo(curr.add(n1.scale(margin))))
		default:
			denom := 1 + n1.dot(n2)
			if denom < 1e-9 {
				out = append(out, frame.toGeo(curr.add(n1.scale(margin))))
				continue
			}
			out = append(out, frame.toGeo(curr.add(n1.add(n2).scale(margin/denom))))
		}
	}

	if len(out) < 3 {
		return nil, false
	}
	return out, true
}

// arc samples a round join around centre from normal n1 to n2, sweeping in
// the ring's winding direction.
func arc(centre, n1, n2 vec, radius, orient float64) []vec {
	a1 := math.Atan2(n1.y, n1.x)
	a2 := math.Atan2(n2.y, n2.x)
	sweep := (a2 - a1) * orient
	for sweep <= 0 {
		sweep += 2 * math.Pi
	}
	if sweep > 2*math.Pi-1e-9 {
		// n1 and n2 agree up to rounding
		sweep = 0
	}
	steps := int(math.Ceil(sweep / arcStep))
	if steps < 1 {
		steps = 1
	}
	pts := make([]vec, 0, steps+1)
	for s := 0; s <= steps; s++ {
		a := a1 + orient*sweep*float64(s)/float64(steps)
		pts = append(pts, centre.add(vec{math.Cos(a), math.Sin(a)}.scale(radius)))
	}
	return pts
}

// enclosingCircle buffers a ring with no area as the circle around its
// centroid that covers every vertex plus the margin.
func enclosingCircle(frame localFrame, pts []vec, margin float64) orb.Ring {
	reach := 0.0
	for _, p := range pts {
		reach = math.Max(reach, p.length())
	}
	return circleRing(frame.origin, reach+margin)
}

// circleRing approximates a circle with a polygon that circumscribes it, so
// every point of the true circle lies inside the ring.
func circleRing(center orb.Point, radiusMeters float64) orb.Ring {
	if radiusMeters <= 0 {
		return nil
	}
	r := radiusMeters / math.Cos(math.Pi/circleSegments)
	ring := make(orb.Ring, circleSegments)
	for i := 0; i < circleSegments; i++ {
		theta := 2 * math.Pi * float64(i) / circleSegments
		ring[i] = orb.Point{
			center.Lon() + metersToLngDegrees(r*math.Cos(theta), center.Lat()),
			center.Lat() + metersToLatDegrees(r*math.Sin(theta)),
		}
	}
	return ring
}

// paddedBound is the bound of ring grown by margin metres on every side
func paddedBound(ring orb.Ring, margin float64) orb.Bound {
	frame := newLocalFrame(centroid(ring))
	lo := vec{math.Inf(1), math.Inf(1)}
	hi := vec{math.Inf(-1), math.Inf(-1)}
	for _, p := range ring {
		v := frame.toLocal(p)
		lo = vec{math.Min(lo.x, v.x), math.Min(lo.y, v.y)}
		hi = vec{math.Max(hi.x, v.x), math.Max(hi.y, v.y)}
	}
	pad := vec{margin, margin}
	return orb.Bound{Min: frame.toGeo(lo.sub(pad)), Max: frame.toGeo(hi.add(pad))}
}

// pointSegmentDistance is the distance in metres from p to the segment a-b
func pointSegmentDistance(p, a, b vec) float64 {
	ab := b.sub(a)
	l2 := ab.dot(ab)
	if l2 == 0 {
		return p.sub(a).length()
	}
	t := math.Max(0, math.Min(1, p.sub(a).dot(ab)/l2))
	return p.sub(a.add(ab.scale(t))).length()
}

// segmentDistance is the shortest distance in metres between segments a-b
// and c-d
func segmentDistance(a, b, c, d vec) float64 {
	d1 := b.sub(a).cross(c.sub(a))
	d2 := b.sub(a).cross(d.sub(a))
	d3 := d.sub(c).cross(a.sub(c))
	d4 := d.sub(c).cross(b.sub(c))
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return 0
	}
	return math.Min(
		math.Min(pointSegmentDistance(a, c, d), pointSegmentDistance(b, c, d)),
		math.Min(pointSegmentDistance(c, a, b), pointSegmentDistance(d, a, b)),
	)
}

// centroid is the vertex average of a ring
func centroid(ring orb.Ring) orb.Point {
	if len(ring) == 0 {
		return orb.Point{}
	}
	var sx, sy float64
	for _, p := range ring {
		sx += p.X()
		sy += p.Y()
	}
	return orb.Point{sx / float64(len(ring)), sy / float64(len(ring))}
}

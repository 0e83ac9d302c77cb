package main

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	DefaultSampleStep    = 4
	DefaultMaxCandidates = 24
	DefaultOffsetMeters  = 120.0
)

// CandidateOptions tunes waypoint generation. Zero values select defaults.
type CandidateOptions struct {
	SampleStep    int
	MaxCandidates int
	OffsetMeters  float64
}

func (o CandidateOptions) withDefaults() CandidateOptions {
	if o.SampleStep <= 0 {
		o.SampleStep = DefaultSampleStep
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = DefaultMaxCandidates
	}
	if o.OffsetMeters < 0 || !finite(o.OffsetMeters) {
		o.OffsetMeters = 0
	}
	return o
}

// GenerateCandidates proposes detour waypoints ([lng, lat]) just outside each
// hazard, in hazard order, truncated at MaxCandidates.
//
// Polygon vertices are sampled every SampleStep and pushed outward along an
// approximate vertex normal; vertices without a normal are skipped, so a
// ring collapsed to one point yields nothing. Circles yield one point due
// east. The points are
// hints only: a route through them may still cross a hazard.
func GenerateCandidates(hazards []Hazard, opts CandidateOptions) []orb.Point {
	opts = opts.withDefaults()
	candidates := make([]orb.Point, 0, opts.MaxCandidates)

	for _, h := range hazards {
		if len(candidates) >= opts.MaxCandidates {
			break
		}
		switch h.Kind {
		case KindPolygon, KindRectangle:
			candidates = appendRingCandidates(candidates, h.points(), opts)
		case KindCircle:
			c := h.Center.Point()
			candidates = append(candidates, orb.Point{
				c.Lon() + metersToLngDegrees(h.RadiusMeters+opts.OffsetMeters, c.Lat()),
				c.Lat(),
			})
		}
	}
	return candidates
}

// appendRingCandidates samples ring vertices with stride opts.SampleStep
func appendRingCandidates(candidates []orb.Point, ring orb.Ring, opts CandidateOptions) []orb.Point {
	n := len(ring)
	if n == 0 {
		return candidates
	}

	// Rotating the summed edge vector by +90° points left of travel, which is
	// outside for a clockwise ring.
	orient := -1.0
	if signedArea(ring) < 0 {
		orient = 1.0
	}

	for i := 0; i < n && len(candidates) < opts.MaxCandidates; i += opts.SampleStep {
		prev := ring[(i-1+n)%n]
		curr := ring[i]
		next := ring[(i+1)%n]

		ax, ay := curr.Lon()-prev.Lon(), curr.Lat()-prev.Lat()
		bx, by := next.Lon()-curr.Lon(), next.Lat()-curr.Lat()
		nx := -(ay + by) * orient
		ny := (ax + bx) * orient

		length := math.Hypot(nx, ny)
		if length == 0 {
			// no direction to push along; the vertex would sit on the hazard
			continue
		}
		ux, uy := nx/length, ny/length

		candidates = append(candidates, orb.Point{
			curr.Lon() + ux*metersToLngDegrees(opts.OffsetMeters, curr.Lat()),
			curr.Lat() + uy*metersToLatDegrees(opts.OffsetMeters),
		})
	}
	return candidates
}

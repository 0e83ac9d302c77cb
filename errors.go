package main

import "errors"

var (
	// ErrProviderUnavailable covers transport failures and non-2xx answers
	// from the routing provider.
	ErrProviderUnavailable = errors.New("routing provider unavailable")

	// ErrMalformedResponse means the provider answered but without a usable
	// route.
	ErrMalformedResponse = errors.New("malformed routing response")

	// ErrNoCandidatesAvailable is reported when the baseline crosses a hazard
	// but no detour waypoint could be generated.
	ErrNoCandidatesAvailable = errors.New("no waypoint candidates available")

	// ErrAvoidanceUnresolved is reported when every candidate still produced
	// an intersecting route. It describes an outcome, not a failed request.
	ErrAvoidanceUnresolved = errors.New("hazard avoidance unresolved")

	// ErrSuperseded is returned for attempts overtaken by a newer attempt in
	// the same session.
	ErrSuperseded = errors.New("routing attempt superseded")

	ErrHazardNotFound = errors.New("hazard not found")
	ErrInvalidHazard  = errors.New("invalid hazard")
	ErrInvalidRequest = errors.New("invalid request")
)

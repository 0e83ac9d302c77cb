package main

import "sync"

// AttemptTracker hands out increasing sequence numbers per session so that a
// result can be checked against the newest attempt before it is delivered.
// Attempts without a session are numbered but never superseded.
type AttemptTracker struct {
	mu        sync.Mutex
	latest    map[string]uint64
	anonymous uint64
}

// NewAttemptTracker creates an empty tracker
func NewAttemptTracker() *AttemptTracker {
	return &AttemptTracker{latest: make(map[string]uint64)}
}

// Begin starts a new attempt for session and returns its sequence number.
// Every earlier attempt of the session becomes stale.
func (t *AttemptTracker) Begin(session string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if session == "" {
		t.anonymous++
		return t.anonymous
	}
	t.latest[session]++
	return t.latest[session]
}

// IsCurrent reports whether seq is still the newest attempt of session
func (t *AttemptTracker) IsCurrent(session string, seq uint64) bool {
	if session == "" {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest[session] == seq
}

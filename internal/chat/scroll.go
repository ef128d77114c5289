package chat

import "sync"

// bottomSlack is how close to the bottom (in client layout units) a reported
// scroll position may be and still count as pinned.
const bottomSlack = 40.0

// ScrollCoordinator decides whether newly arriving content should force the
// client viewport to the bottom. The client reports its scroll position; once
// the user scrolls up past the slack, autoscroll is suppressed until they
// return to the bottom or the engine force-scrolls.
type ScrollCoordinator struct {
	mu       sync.Mutex
	pinned   bool
	offset   float64
	viewport float64
	content  float64
}

// NewScrollCoordinator starts pinned to the bottom
func NewScrollCoordinator() *ScrollCoordinator {
	return &ScrollCoordinator{pinned: true}
}

// ReportScroll records a user-initiated scroll position
func (s *ScrollCoordinator) ReportScroll(offset, viewport, content float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = offset
	s.viewport = viewport
	if content > 0 {
		s.content = content
	}
	s.pinned = s.content-(offset+viewport) <= bottomSlack
}

// ContentGrew records new content height and reports whether the viewport
// should be force-scrolled to the bottom.
func (s *ScrollCoordinator) ContentGrew(content float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if content > 0 {
		s.content = content
	}
	return s.pinned
}

// ForceBottom marks a programmatic scroll to the bottom; it re-pins the
// viewport without registering user intent.
func (s *ScrollCoordinator) ForceBottom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned = true
	if s.content >= s.viewport {
		s.offset = s.content - s.viewport
	}
}

// Pinned reports whether the viewport follows new content
func (s *ScrollCoordinator) Pinned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pinned
}

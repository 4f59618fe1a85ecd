package paging

import "sync"

// Sentinel is the infinite-scroll trigger placed after the last item.
// It is level-triggered: each layout change re-evaluates the last known
// visibility, and a visible sentinel asks for the next page. Duplicate
// requests are absorbed by the fetcher's in-flight guard.
type Sentinel struct {
	mu      sync.Mutex
	visible bool
	load    func() bool
}

// SetVisible records the viewport visibility and evaluates it.
// It reports whether a page fetch was started.
func (s *Sentinel) SetVisible(visible bool) bool {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
	return s.Evaluate()
}

// Visible returns the last recorded visibility.
func (s *Sentinel) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Evaluate is called on every layout change.
func (s *Sentinel) Evaluate() bool {
	if !s.Visible() {
		return false
	}
	return s.load()
}

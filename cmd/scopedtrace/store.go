package main

import (
	"sync"

	"github.com/getsentry/scopedtrace"
)

// traceStore keeps the most recent traces, evicting the oldest one once
// capacity is reached.
type traceStore struct {
	lock     sync.RWMutex
	traces   map[string]*scopedtrace.Trace
	order    []string
	capacity int
}

func newTraceStore(capacity int) *traceStore {
	if capacity < 1 {
		capacity = 1
	}
	return &traceStore{
		traces:   make(map[string]*scopedtrace.Trace, capacity),
		order:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

func (s *traceStore) Put(t *scopedtrace.Trace) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, exists := s.traces[t.ID()]; exists {
		return
	}
	if len(s.order) == s.capacity {
		delete(s.traces, s.order[0])
		s.order = s.order[1:]
	}
	s.traces[t.ID()] = t
	s.order = append(s.order, t.ID())
}

func (s *traceStore) Get(id string) (*scopedtrace.Trace, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	t, ok := s.traces[id]
	return t, ok
}

func (s *traceStore) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.order)
}

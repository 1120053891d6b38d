// Package gns implements the global namespace (spec §3, §4.3, C4): the
// space/model directory, its DDL event log, and the restore-time conflict
// checks that replay enforces.
package gns

import (
	"sync"

	"github.com/google/uuid"

	"github.com/nsdb/nsdb/internal/value"
)

// Space is a named container of models plus a property dict (env, max
// models, and whatever other settings CreateSpace/AlterSpace carry).
type Space struct {
	UUID  uuid.UUID
	Name  string
	Props map[string]value.Datacell

	mu     sync.RWMutex
	models map[string]struct{}
}

// NewSpace constructs an empty space.
func NewSpace(name string, props map[string]value.Datacell) *Space {
	if props == nil {
		props = make(map[string]value.Datacell)
	}
	return &Space{
		UUID:   uuid.New(),
		Name:   name,
		Props:  props,
		models: make(map[string]struct{}),
	}
}

func (s *Space) addModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[name] = struct{}{}
}

func (s *Space) removeModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.models, name)
}

func (s *Space) hasModel(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.models[name]
	return ok
}

// ModelNames returns the space's model names in no particular order.
func (s *Space) ModelNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.models))
	for n := range s.models {
		out = append(out, n)
	}
	return out
}

// mergeProps applies an AlterSpace property delta in place.
func (s *Space) mergeProps(delta map[string]value.Datacell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range delta {
		s.Props[k] = v
	}
}

package gns

import (
	"sync"

	"github.com/nsdb/nsdb/internal/model"
)

type modelKey struct {
	space string
	model string
}

// GNSData is the in-memory global namespace: every space and every model,
// keyed for O(1) DDL and entity-resolution lookups. It is guarded by a
// single RWMutex — DDL is rare relative to DML, so a coarse lock here costs
// nothing the per-model primary index doesn't already pay for on the hot
// path.
type GNSData struct {
	mu        sync.RWMutex
	idx       map[string]*Space
	idxModels map[modelKey]*model.Model
}

// New constructs an empty namespace.
func New() *GNSData {
	return &GNSData{
		idx:       make(map[string]*Space),
		idxModels: make(map[modelKey]*model.Model),
	}
}

// Space looks up a space by name.
func (g *GNSData) Space(name string) (*Space, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.idx[name]
	return s, ok
}

// SpaceNames returns every registered space's name, in no particular order.
func (g *GNSData) SpaceNames() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.idx))
	for n := range g.idx {
		out = append(out, n)
	}
	return out
}

// Model looks up a model within a space.
func (g *GNSData) Model(spaceName, modelName string) (*model.Model, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.idxModels[modelKey{spaceName, modelName}]
	return m, ok
}

// ModelRef names one registered model alongside the space it lives in, for
// callers (the restore path) that need to enumerate every model rather than
// look one up by name.
type ModelRef struct {
	Space string
	Model string
	M     *model.Model
}

// AllModels returns every currently registered (space, model) pair.
func (g *GNSData) AllModels() []ModelRef {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ModelRef, 0, len(g.idxModels))
	for k, m := range g.idxModels {
		out = append(out, ModelRef{Space: k.space, Model: k.model, M: m})
	}
	return out
}

// ApplyLive decodes and applies one DDL event against live traffic. The
// caller is responsible for having journaled the event first (spec §4.3:
// GNS mutations are durable before they take effect in memory).
func (g *GNSData) ApplyLive(payload []byte) error {
	ev, err := DecodeEvent(payload)
	if err != nil {
		return err
	}
	return ev.ApplyLive(g)
}

// ApplyRestore decodes and applies one DDL event during journal replay,
// using the stricter restore-conflict error family instead of ApplyLive's
// ordinary validation errors. This is the ApplyFunc handed to the storage
// package's journal reader to avoid storage importing gns directly.
func (g *GNSData) ApplyRestore(payload []byte) error {
	ev, err := DecodeEvent(payload)
	if err != nil {
		return err
	}
	return ev.ApplyRestore(g)
}

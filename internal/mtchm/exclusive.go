package mtchm

// ExclusiveGuard is the coarse "acquire_exclusive" handle spec §4.1 calls
// for: it holds every shard's write lock for the duration of a full scan,
// so mutators cannot race the scan, and iteration yields a snapshot of the
// set of entries live at acquisition time.
type ExclusiveGuard[K Keyer[K], V any] struct {
	m        *Map[K, V]
	released bool
}

// AcquireExclusive locks all shards in a fixed order (index order, so two
// concurrent callers never deadlock against each other) and returns a
// guard that must be released exactly once.
func (m *Map[K, V]) AcquireExclusive() *ExclusiveGuard[K, V] {
	for _, s := range m.shards {
		s.mu.Lock()
	}
	return &ExclusiveGuard[K, V]{m: m}
}

// Release unlocks every shard. Calling it twice panics.
func (g *ExclusiveGuard[K, V]) Release() {
	if g.released {
		panic("mtchm: exclusive guard released twice")
	}
	g.released = true
	for _, s := range g.m.shards {
		s.mu.Unlock()
	}
}

// Len returns the exact live-entry count under the latch.
func (g *ExclusiveGuard[K, V]) Len() int {
	total := 0
	for _, s := range g.m.shards {
		total += s.count
	}
	return total
}

// Iterate walks every live entry in an unspecified order, calling fn for
// each. It stops early if fn returns false. The limit, if > 0, caps the
// number of entries visited (used by SelectAll's bound, spec §4.5).
func (g *ExclusiveGuard[K, V]) Iterate(limit int, fn func(K, V) bool) {
	visited := 0
	for _, s := range g.m.shards {
		for _, bucket := range s.buckets {
			for _, e := range bucket {
				if limit > 0 && visited >= limit {
					return
				}
				visited++
				if !fn(e.key, e.val) {
					return
				}
			}
		}
	}
}

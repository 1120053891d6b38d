// Package exec implements the query executor (spec §4.5, C6): statement
// dispatch against the in-memory namespace, entity resolution, DDL
// journal-then-apply, DML against the primary index, and response framing.
// It is the sole netsvc.QueryRunner implementation — netsvc only sees it
// through that interface, per the dependency-injection seam storage and gns
// already use.
package exec

import (
	"fmt"
	"os"
	"sync"

	"github.com/nsdb/nsdb/internal/gns"
	"github.com/nsdb/nsdb/internal/model"
	"github.com/nsdb/nsdb/internal/storage"
	"github.com/nsdb/nsdb/internal/value"
)

// Store owns every on-disk handle the executor touches: the single GNS
// journal and one batch journal per model, opened lazily on the model's
// first row append and kept open for the life of the process.
type Store struct {
	dataDir    string
	gnsJournal *storage.Journal

	mu      sync.Mutex
	batches map[modelKey]*storage.BatchWriter
}

type modelKey struct {
	space string
	model string
}

func batchPath(dataDir, space, modelName string) string {
	return storage.JoinDataPath(dataDir, space+"."+modelName+".batch")
}

// OpenStore opens (or initializes) the GNS journal at dataDir, replaying it
// into gnsData, then replays every existing model's batch journal so the
// primary indexes reflect whatever was durable at last shutdown.
func OpenStore(dataDir string, gnsData *gns.GNSData) (*Store, error) {
	if err := storage.EnsureDir(dataDir); err != nil {
		return nil, fmt.Errorf("exec: preparing data directory: %w", err)
	}

	gnsPath := storage.JoinDataPath(dataDir, "gns.journal")
	journal, err := openOrCreateGNSJournal(gnsPath, gnsData)
	if err != nil {
		return nil, fmt.Errorf("exec: opening gns journal: %w", err)
	}

	s := &Store{dataDir: dataDir, gnsJournal: journal, batches: make(map[modelKey]*storage.BatchWriter)}

	for _, ref := range gnsData.AllModels() {
		if err := s.restoreModelRows(ref); err != nil {
			return nil, fmt.Errorf("exec: restoring rows for %s.%s: %w", ref.Space, ref.Model, err)
		}
	}
	return s, nil
}

func openOrCreateGNSJournal(path string, gnsData *gns.GNSData) (*storage.Journal, error) {
	if _, err := os.Stat(path); err == nil {
		return storage.OpenJournal(path, gnsData.ApplyRestore)
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	return storage.CreateJournal(path)
}

// restoreModelRows replays a model's batch journal (if one exists yet) into
// its in-memory primary index.
func (s *Store) restoreModelRows(ref gns.ModelRef) error {
	path := batchPath(s.dataDir, ref.Space, ref.Model)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return storage.ReadAllBatches(path, func(entries []storage.BatchEntry) error {
		for _, e := range entries {
			if err := applyRestoredEntry(ref.M, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyRestoredEntry(m *model.Model, e storage.BatchEntry) error {
	switch e.Op {
	case storage.BatchInsert:
		pk, fields, err := decodeRowPayload(e.Payload)
		if err != nil {
			return err
		}
		key, err := value.NewPrimaryIndexKey(pk)
		if err != nil {
			return err
		}
		m.Index.Insert(key, model.NewRow(key, fields, m.SchemaVersion()))
	case storage.BatchUpdate:
		pk, fields, err := decodeRowPayload(e.Payload)
		if err != nil {
			return err
		}
		key, err := value.NewPrimaryIndexKey(pk)
		if err != nil {
			return err
		}
		if row, ok := m.Index.Get(key); ok {
			row.Data.Fields = fields
			row.Data.TxnRevised++
		} else {
			m.Index.Insert(key, model.NewRow(key, fields, m.SchemaVersion()))
		}
	case storage.BatchDelete:
		pk, err := decodePKPayload(e.Payload)
		if err != nil {
			return err
		}
		key, err := value.NewPrimaryIndexKey(pk)
		if err != nil {
			return err
		}
		m.Index.Delete(key)
	}
	return nil
}

// AppendDDL journals one DDL event, then applies it live. The caller must
// not have mutated gnsData yet — the event's own ApplyLive does that, after
// the append (and its fsync) has made the mutation durable, per spec §4.3.
func (s *Store) AppendDDL(gnsData *gns.GNSData, e gns.Event) error {
	payload := gns.EncodeEvent(e)
	if err := s.gnsJournal.Append(payload); err != nil {
		return err
	}
	return gnsData.ApplyLive(payload)
}

// modelBatch returns the batch journal writer for one model, opening or
// creating it on first use.
func (s *Store) modelBatch(space, modelName string) (*storage.BatchWriter, error) {
	key := modelKey{space, modelName}
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.batches[key]; ok {
		return w, nil
	}
	path := batchPath(s.dataDir, space, modelName)
	var w *storage.BatchWriter
	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		w, err = storage.OpenBatchJournalAppend(path)
	} else {
		w, err = storage.CreateBatchJournal(path)
	}
	if err != nil {
		return nil, err
	}
	s.batches[key] = w
	return w, nil
}

// AppendRow durably records one row mutation before the caller applies it to
// the in-memory primary index.
func (s *Store) AppendRow(space, modelName string, entry storage.BatchEntry) error {
	w, err := s.modelBatch(space, modelName)
	if err != nil {
		return err
	}
	return w.WriteBatch([]storage.BatchEntry{entry})
}

// Close closes every open handle, appending the GNS journal's
// clean-shutdown terminal marker.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, w := range s.batches {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.gnsJournal.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

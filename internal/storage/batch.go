package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// BatchOp identifies the row-level mutation a batch entry records.
type BatchOp uint8

const (
	BatchInsert BatchOp = iota
	BatchUpdate
	BatchDelete
)

// batchEntryHeaderSize is the per-entry framing: one op byte and a 64-bit
// payload length. Entries carry no CRC of their own; one CRC32 trails the
// whole batch.
const batchEntryHeaderSize = 1 + 8

// RawJournalDecodeBatchIntegrityFailure is returned when a batch's trailing
// integrity record doesn't match the entries actually read — the file was
// truncated mid-batch (e.g. a crash between entries and the closing
// record).
type RawJournalDecodeBatchIntegrityFailure struct{ Want, Got uint32 }

func (e *RawJournalDecodeBatchIntegrityFailure) Error() string {
	return fmt.Sprintf("storage: batch integrity failure: want checksum %08x, got %08x", e.Want, e.Got)
}

// RawJournalRuntimeDirty marks a batch writer that hit a write error
// mid-append: the in-memory accumulator no longer corresponds one-to-one
// with what's on disk, so any further Append must be refused until the
// caller reopens the file.
type RawJournalRuntimeDirty struct{}

func (e *RawJournalRuntimeDirty) Error() string {
	return "storage: batch journal is dirty after a prior write failure"
}

// BatchEntry is one row mutation within a model's batch journal.
type BatchEntry struct {
	Op      BatchOp
	Payload []byte // persist-encoded (PrimaryIndexKey, row fields) pair
}

// BatchWriter appends row-mutation batches to a single model's journal
// file. Each call to WriteBatch is one committed unit: every entry in it,
// followed by a running CRC32 over the whole batch so replay can detect a
// batch that was only partially flushed before a crash.
type BatchWriter struct {
	f     *File
	dirty bool
}

// CreateBatchJournal initializes a fresh per-model batch journal file.
func CreateBatchJournal(path string) (*BatchWriter, error) {
	f, err := CreateRW(path)
	if err != nil {
		return nil, err
	}
	if err := WriteHeader(f, FileKindBatchJournal, 2); err != nil {
		return nil, err
	}
	return &BatchWriter{f: f}, nil
}

// WriteBatch appends entries as one integrity-checked unit.
func (w *BatchWriter) WriteBatch(entries []BatchEntry) error {
	if w.dirty {
		return &RawJournalRuntimeDirty{}
	}
	crc := crc32.NewIEEE()
	var buf []byte
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(entries)))
	for _, e := range entries {
		entryBuf := make([]byte, batchEntryHeaderSize+len(e.Payload))
		entryBuf[0] = byte(e.Op)
		binary.LittleEndian.PutUint64(entryBuf[1:9], uint64(len(e.Payload)))
		copy(entryBuf[batchEntryHeaderSize:], e.Payload)
		buf = append(buf, entryBuf...)
	}
	crc.Write(buf)
	buf = binary.LittleEndian.AppendUint32(buf, crc.Sum32())

	if _, err := w.f.Write(buf); err != nil {
		w.dirty = true
		return err
	}
	if err := w.f.SyncWriteCache(); err != nil {
		w.dirty = true
		return err
	}
	return nil
}

// OpenBatchJournalAppend reopens an existing model batch journal positioned
// at end-of-file, ready for further WriteBatch calls (used on restart, after
// ReadAllBatches has replayed it into memory).
func OpenBatchJournalAppend(path string) (*BatchWriter, error) {
	f, err := OpenRW(path)
	if err != nil {
		return nil, err
	}
	if _, err := ReadHeader(f, FileKindBatchJournal, 2); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, err
	}
	return &BatchWriter{f: f}, nil
}

func (w *BatchWriter) Close() error { return w.f.Close() }

// ReadAllBatches replays every batch in a model's journal file in order,
// validating each batch's trailing integrity record before handing its
// entries to apply.
func ReadAllBatches(path string, apply func([]BatchEntry) error) error {
	f, err := OpenRW(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := ReadHeader(f, FileKindBatchJournal, 2); err != nil {
		return err
	}

	for {
		countBuf := make([]byte, 8)
		if err := f.ReadExact(countBuf); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		count := binary.LittleEndian.Uint64(countBuf)

		crc := crc32.NewIEEE()
		crc.Write(countBuf)

		entries := make([]BatchEntry, 0, count)
		for i := uint64(0); i < count; i++ {
			entryHeader := make([]byte, batchEntryHeaderSize)
			if err := f.ReadExact(entryHeader); err != nil {
				return &RawJournalDecodeBatchIntegrityFailure{}
			}
			op := BatchOp(entryHeader[0])
			length := binary.LittleEndian.Uint64(entryHeader[1:9])
			payload := make([]byte, length)
			if length > 0 {
				if err := f.ReadExact(payload); err != nil {
					return &RawJournalDecodeBatchIntegrityFailure{}
				}
			}
			crc.Write(entryHeader)
			crc.Write(payload)
			entries = append(entries, BatchEntry{Op: op, Payload: payload})
		}

		trailerBuf := make([]byte, 4)
		if err := f.ReadExact(trailerBuf); err != nil {
			return &RawJournalDecodeBatchIntegrityFailure{}
		}
		wantCRC := binary.LittleEndian.Uint32(trailerBuf)
		gotCRC := crc.Sum32()
		if wantCRC != gotCRC {
			return &RawJournalDecodeBatchIntegrityFailure{Want: wantCRC, Got: gotCRC}
		}
		if err := apply(entries); err != nil {
			return err
		}
	}
	return nil
}

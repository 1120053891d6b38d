package storage

import (
	"fmt"

	"github.com/nsdb/nsdb/internal/auth"
	"github.com/nsdb/nsdb/internal/persist"
)

const sysDBVersion = 1

// ReconcileState reports what OpenOrInit found relative to the
// currently-configured root credential, so the caller knows whether a
// config-driven password change needs to be written back.
type ReconcileState int

const (
	Unchanged ReconcileState = iota
	UpdatedRoot
	UpdatedAuthEnabled
	UpdatedAuthDisabled
)

// sysDBObject is the persist.Object sys.db's content round-trips through:
// a startup counter (bumped every clean open, mostly diagnostic) and the
// settings version, followed by the SysAuth credential dict.
type sysDBObject struct {
	startupCounter uint64
	settingsVer    uint64
	authEnabled    bool
	users          map[string][]byte
}

func (o *sysDBObject) PersistVersion() uint32 { return sysDBVersion }

func (o *sysDBObject) EncodeObject(w *persist.Writer) {
	w.U64(o.startupCounter)
	w.U64(o.settingsVer)
	w.Bool(o.authEnabled)
	w.U64(uint64(len(o.users)))
	for user, hash := range o.users {
		w.String(user)
		w.RawBytes(hash)
	}
}

func decodeSysDBObject(r *persist.Reader) (*sysDBObject, error) {
	o := &sysDBObject{users: make(map[string][]byte)}
	var err error
	if o.startupCounter, err = r.U64(); err != nil {
		return nil, err
	}
	if o.settingsVer, err = r.U64(); err != nil {
		return nil, err
	}
	if o.authEnabled, err = r.Bool(); err != nil {
		return nil, err
	}
	n, err := r.U64()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < n; i++ {
		user, err := r.String()
		if err != nil {
			return nil, err
		}
		hash, err := r.RawBytes()
		if err != nil {
			return nil, err
		}
		o.users[user] = hash
	}
	return o, nil
}

// SysDB owns the flat sys.db file: startup counter, settings version, and
// the SysAuth credential store. Every write goes through a copy-on-write
// swap (write sys.db.cow, fsync, atomic rename over sys.db) so a crash
// mid-write never leaves a torn file in place of the original.
type SysDB struct {
	path    string
	Auth    *auth.SysAuth
	counter uint64
	verSeq  uint64
}

// OpenOrInit opens an existing sys.db, or initializes a fresh one seeded
// with rootPassword if none exists. It returns the reconciliation state so
// the caller can decide whether to log a root-password or auth-toggle
// change.
func OpenOrInit(dataDir, rootPassword string, authEnabled bool) (*SysDB, ReconcileState, error) {
	path := JoinDataPath(dataDir, "sys.db")
	f, disposition, err := OpenOrCreateRW(path)
	if err != nil {
		return nil, Unchanged, err
	}
	defer f.Close()

	if disposition == Created {
		sysAuth, err := auth.NewSysAuth(rootPassword)
		if err != nil {
			return nil, Unchanged, err
		}
		sysAuth.SetEnabled(authEnabled)
		db := &SysDB{path: path, Auth: sysAuth, counter: 1, verSeq: 1}
		if err := db.writeCow(f); err != nil {
			return nil, Unchanged, err
		}
		return db, Unchanged, nil
	}

	if _, err := ReadHeader(f, FileKindSysDB, 1); err != nil {
		return nil, Unchanged, err
	}
	length, err := f.Length()
	if err != nil {
		return nil, Unchanged, err
	}
	payload := make([]byte, length-HeaderSize())
	if err := f.ReadExact(payload); err != nil {
		return nil, Unchanged, err
	}
	obj, err := persist.FullDecode(payload, sysDBVersion, decodeSysDBObject)
	if err != nil {
		return nil, Unchanged, err
	}

	sysAuth, err := auth.NewSysAuth(rootPassword)
	if err != nil {
		return nil, Unchanged, err
	}
	for user, hash := range obj.users {
		sysAuth.RestoreHash(user, hash)
	}

	state := Unchanged
	if rootHash, ok := obj.users["root"]; ok {
		if !sysAuth.Verify("root", rootPassword) {
			if err := sysAuth.SetPassword("root", rootPassword); err != nil {
				return nil, Unchanged, err
			}
			state = UpdatedRoot
		} else {
			sysAuth.RestoreHash("root", rootHash)
		}
	}
	if obj.authEnabled != authEnabled {
		sysAuth.SetEnabled(authEnabled)
		if authEnabled {
			state = UpdatedAuthEnabled
		} else {
			state = UpdatedAuthDisabled
		}
	} else {
		sysAuth.SetEnabled(obj.authEnabled)
	}

	db := &SysDB{path: path, Auth: sysAuth, counter: obj.startupCounter + 1, verSeq: obj.settingsVer}
	if state != Unchanged {
		if err := db.Flush(); err != nil {
			return nil, Unchanged, err
		}
	}
	return db, state, nil
}

// Flush performs the copy-on-write swap: write sys.db.cow fully, fsync it,
// then atomically rename it over sys.db.
func (db *SysDB) Flush() error {
	cowPath := db.path + ".cow"
	f, err := CreateRW(cowPath)
	if err != nil {
		return err
	}
	if err := db.writeCow(f); err != nil {
		f.Close()
		RemoveFile(cowPath)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return RenameFile(cowPath, db.path)
}

func (db *SysDB) writeCow(f *File) error {
	if err := WriteHeader(f, FileKindSysDB, 1); err != nil {
		return err
	}
	db.verSeq++
	obj := &sysDBObject{
		startupCounter: db.counter,
		settingsVer:    db.verSeq,
		authEnabled:    db.Auth.Enabled(),
		users:          make(map[string][]byte),
	}
	for _, u := range db.Auth.Users() {
		hash, _ := db.Auth.Hash(u)
		obj.users[u] = hash
	}
	buf := persist.FullEncode(obj)
	if _, err := f.Write(buf); err != nil {
		return err
	}
	return f.SyncWriteCache()
}

// RotateRootPassword changes the root credential and durably persists it.
func (db *SysDB) RotateRootPassword(newPassword string) error {
	if err := db.Auth.SetPassword("root", newPassword); err != nil {
		return fmt.Errorf("storage: rotating root password: %w", err)
	}
	return db.Flush()
}

package model

import (
	"fmt"

	"github.com/nsdb/nsdb/internal/value"
)

// AlterAction classifies the three shapes an alter statement can take.
type AlterAction int

const (
	ActionAdd AlterAction = iota
	ActionRemove
	ActionUpdate
)

// AlterPlan is the computed effect of an alter statement, ready for the
// executor/GNS layer to apply and journal. NoLock is true when the change
// touches only non-PK fields in a storage-layout-compatible way, so callers
// may skip a global write barrier (spec §4.2).
type AlterPlan struct {
	Action  AlterAction
	Add     map[string]Field // ActionAdd
	Remove  []string         // ActionRemove
	Update  map[string]Field // ActionUpdate: new definitions, keyed by name
	NoLock  bool
}

// ErrDdlModelAlterBadTypedef is returned when an update's new type is not a
// legal direct cast of the field's current type.
var ErrDdlModelAlterBadTypedef = fmt.Errorf("model: illegal type cast in alter")

// PlanAdd validates an add-statement: no name may already exist or equal
// the primary key name.
func PlanAdd(fields *FieldMap, pkName string, add map[string]Field) (*AlterPlan, error) {
	for name := range add {
		if name == pkName {
			return nil, fmt.Errorf("model: cannot add a field named after the primary key %q", pkName)
		}
		if fields.Has(name) {
			return nil, fmt.Errorf("model: field %q already exists", name)
		}
	}
	return &AlterPlan{Action: ActionAdd, Add: add, NoLock: true}, nil
}

// PlanRemove validates a remove-statement: every target must exist and not
// be the primary key.
func PlanRemove(fields *FieldMap, pkName string, remove []string) (*AlterPlan, error) {
	for _, name := range remove {
		if name == pkName {
			return nil, fmt.Errorf("model: cannot remove the primary key field %q", pkName)
		}
		if !fields.Has(name) {
			return nil, fmt.Errorf("model: field %q does not exist", name)
		}
	}
	return &AlterPlan{Action: ActionRemove, Remove: remove, NoLock: true}, nil
}

// PlanUpdate validates an update-statement: every target must exist, must
// not be the primary key, and its new type must be a legal direct cast of
// the old type.
func PlanUpdate(fields *FieldMap, pkName string, update map[string]Field) (*AlterPlan, error) {
	for name, newField := range update {
		if name == pkName {
			return nil, fmt.Errorf("model: cannot update the primary key field %q", pkName)
		}
		old, ok := fields.Get(name)
		if !ok {
			return nil, fmt.Errorf("model: field %q does not exist", name)
		}
		if !legalCast(old, newField) {
			return nil, ErrDdlModelAlterBadTypedef
		}
	}
	return &AlterPlan{Action: ActionUpdate, Update: update, NoLock: true}, nil
}

// legalCast implements the direct-cast matrix from spec §4.2: bool->bool
// only; uintN->uint(M>=N) only; sintN->sint(M>=N) only; floatN->float(M>=N)
// only; bin->bin; str->str; list->list of a recursively compatible inner.
// Any cross-class cast is illegal.
func legalCast(old, new_ Field) bool {
	return legalCastLayers(old.Layers, new_.Layers)
}

func legalCastLayers(old, new_ []Layer) bool {
	if len(old) == 0 || len(new_) == 0 {
		return false
	}
	if old[0].IsList != new_[0].IsList {
		return false
	}
	if old[0].IsList {
		return legalCastLayers(old[1:], new_[1:])
	}
	return legalLeafCast(old[0].Tag, new_[0].Tag)
}

func legalLeafCast(old, new_ value.FullTag) bool {
	if old.Class() != new_.Class() {
		return false
	}
	// Bool/Bin/Str each have exactly one selector, so same-class already
	// implies identical width; UInt/SInt/Float additionally require the
	// new width to be no narrower than the old one.
	return old.Selector.Width() <= new_.Selector.Width()
}

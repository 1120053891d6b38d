// Package model implements the model/schema layer (spec §3, §4.2, C3):
// Field/Layer type definitions, alter-plan legality, schema-delta
// versioning, and the row type with its per-row lock.
package model

import (
	"fmt"

	"github.com/nsdb/nsdb/internal/value"
)

// Layer is one level of a composite type: either a list wrapper (IsList,
// Inner described by the next Layer in a Field's slice) or a leaf scalar
// carrying a concrete FullTag.
type Layer struct {
	IsList bool
	Tag    value.FullTag // meaningful only when !IsList
}

func ListLayer() Layer                  { return Layer{IsList: true} }
func LeafLayer(tag value.FullTag) Layer { return Layer{Tag: tag} }

// Field is an ordered stack of layers plus a nullable flag. A bare scalar
// field has exactly one (leaf) layer; `list { type: list { type: string } }`
// has two list layers followed by a string leaf.
type Field struct {
	Layers   []Layer
	Nullable bool
}

// NewScalarField builds a single-layer field.
func NewScalarField(tag value.FullTag, nullable bool) Field {
	return Field{Layers: []Layer{LeafLayer(tag)}, Nullable: nullable}
}

// Validate implements vt_data_fpath: walk a datacell against the field's
// layers, recursing element-by-element through nested lists.
func (f Field) Validate(d value.Datacell) error {
	if !d.IsInit() {
		if f.Nullable {
			return nil
		}
		return fmt.Errorf("model: field is not nullable")
	}
	return validateLayers(f.Layers, d)
}

func validateLayers(layers []Layer, d value.Datacell) error {
	if len(layers) == 0 {
		return fmt.Errorf("model: field has no layers")
	}
	l := layers[0]
	if l.IsList {
		if d.Tag().Class() != value.ClassList {
			return fmt.Errorf("model: expected a list, got %s", d.Tag())
		}
		for _, item := range d.List().Snapshot() {
			if err := validateLayers(layers[1:], item); err != nil {
				return err
			}
		}
		return nil
	}
	if len(layers) != 1 {
		return fmt.Errorf("model: malformed field: leaf layer is not terminal")
	}
	if d.Tag() != l.Tag {
		return fmt.Errorf("model: expected %s, got %s", l.Tag, d.Tag())
	}
	return nil
}

// LeafTag returns the innermost leaf's tag (after unwrapping any list
// layers), used by the alter-plan cast matrix.
func (f Field) LeafTag() value.FullTag {
	return f.Layers[len(f.Layers)-1].Tag
}

// ListDepth reports how many nested list layers wrap the leaf.
func (f Field) ListDepth() int {
	n := 0
	for _, l := range f.Layers {
		if l.IsList {
			n++
		}
	}
	return n
}

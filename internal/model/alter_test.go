package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsdb/nsdb/internal/value"
)

func TestAlterPlanAddRejectsDuplicateAndPK(t *testing.T) {
	fields := NewFieldMap()
	fields.Set("x", NewScalarField(value.TagOf(value.SelectorBool), false))

	_, err := PlanAdd(fields, "k", map[string]Field{"x": NewScalarField(value.TagOf(value.SelectorStr), false)})
	assert.Error(t, err)

	_, err = PlanAdd(fields, "k", map[string]Field{"k": NewScalarField(value.TagOf(value.SelectorStr), false)})
	assert.Error(t, err)

	plan, err := PlanAdd(fields, "k", map[string]Field{"y": NewScalarField(value.TagOf(value.SelectorStr), false)})
	require.NoError(t, err)
	assert.Equal(t, ActionAdd, plan.Action)
}

func TestAlterPlanRemoveRejectsPKAndMissing(t *testing.T) {
	fields := NewFieldMap()
	fields.Set("x", NewScalarField(value.TagOf(value.SelectorBool), false))

	_, err := PlanRemove(fields, "k", []string{"k"})
	assert.Error(t, err)
	_, err = PlanRemove(fields, "k", []string{"missing"})
	assert.Error(t, err)

	plan, err := PlanRemove(fields, "k", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, ActionRemove, plan.Action)
}

// TestAlterPlanUpdateLegalCastMatrix is the direct testable property from
// spec §8: for every (old,new) pair not in the direct-cast matrix, planning
// returns ErrDdlModelAlterBadTypedef; for pairs in the matrix it succeeds.
func TestAlterPlanUpdateLegalCastMatrix(t *testing.T) {
	cases := []struct {
		name  string
		old   value.Selector
		new_  value.Selector
		legal bool
	}{
		{"uint widen", value.SelectorUInt8, value.SelectorUInt64, true},
		{"uint narrow", value.SelectorUInt64, value.SelectorUInt8, false},
		{"uint same", value.SelectorUInt32, value.SelectorUInt32, true},
		{"sint widen", value.SelectorSInt16, value.SelectorSInt32, true},
		{"sint narrow", value.SelectorSInt64, value.SelectorSInt8, false},
		{"float widen", value.SelectorFloat32, value.SelectorFloat64, true},
		{"float narrow", value.SelectorFloat64, value.SelectorFloat32, false},
		{"bool to bool", value.SelectorBool, value.SelectorBool, true},
		{"str to str", value.SelectorStr, value.SelectorStr, true},
		{"bin to bin", value.SelectorBin, value.SelectorBin, true},
		{"cross class uint to sint", value.SelectorUInt32, value.SelectorSInt32, false},
		{"cross class str to bin", value.SelectorStr, value.SelectorBin, false},
		{"cross class bool to uint", value.SelectorBool, value.SelectorUInt8, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields := NewFieldMap()
			fields.Set("x", NewScalarField(value.TagOf(tc.old), false))
			plan, err := PlanUpdate(fields, "k", map[string]Field{"x": NewScalarField(value.TagOf(tc.new_), false)})
			if tc.legal {
				require.NoError(t, err)
				assert.Equal(t, ActionUpdate, plan.Action)
			} else {
				assert.ErrorIs(t, err, ErrDdlModelAlterBadTypedef)
			}
		})
	}
}

func TestAlterPlanUpdateRejectsPKAndMissing(t *testing.T) {
	fields := NewFieldMap()
	fields.Set("x", NewScalarField(value.TagOf(value.SelectorBool), false))

	_, err := PlanUpdate(fields, "k", map[string]Field{"k": NewScalarField(value.TagOf(value.SelectorBool), false)})
	assert.Error(t, err)
	_, err = PlanUpdate(fields, "k", map[string]Field{"missing": NewScalarField(value.TagOf(value.SelectorBool), false)})
	assert.Error(t, err)
}

func TestFieldValidateNestedList(t *testing.T) {
	f := Field{Layers: []Layer{ListLayer(), ListLayer(), LeafLayer(value.TagOf(value.SelectorStr))}}
	inner := value.NewList([]value.Datacell{value.NewStr("a"), value.NewStr("b")})
	outer := value.NewList([]value.Datacell{inner})
	assert.NoError(t, f.Validate(outer))

	badInner := value.NewList([]value.Datacell{value.NewUInt8(1)})
	badOuter := value.NewList([]value.Datacell{badInner})
	assert.Error(t, f.Validate(badOuter))
}

func TestFieldValidateNullable(t *testing.T) {
	f := NewScalarField(value.TagOf(value.SelectorStr), true)
	assert.NoError(t, f.Validate(value.Null(value.TagOf(value.SelectorStr))))

	f2 := NewScalarField(value.TagOf(value.SelectorStr), false)
	assert.Error(t, f2.Validate(value.Null(value.TagOf(value.SelectorStr))))
}

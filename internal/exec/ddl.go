package exec

import (
	nsdberrors "github.com/nsdb/nsdb/internal/errors"
	"github.com/nsdb/nsdb/internal/gns"
	"github.com/nsdb/nsdb/internal/model"
	"github.com/nsdb/nsdb/internal/ql"
)

// journalDDL appends and live-applies one GNS event, wrapping any durability
// failure as a TxnIoError.
func (s *Session) journalDDL(e gns.Event) (result, error) {
	if err := s.store.AppendDDL(s.gnsData, e); err != nil {
		return result{}, nsdberrors.New(nsdberrors.TxnIoError, "journaling ddl event: %v", err)
	}
	return okResult(), nil
}

func (s *Session) execUse(st *ql.UseStatement) (result, error) {
	if _, ok := s.gnsData.Space(st.Name); !ok {
		return result{}, nsdberrors.New(nsdberrors.QExecObjectNotFound, "space %q does not exist", st.Name)
	}
	s.setCurrentSpace(st.Name)
	return okResult(), nil
}

func (s *Session) execCreateSpace(st *ql.CreateSpaceStatement) (result, error) {
	if _, exists := s.gnsData.Space(st.Name); exists {
		return result{}, nsdberrors.New(nsdberrors.QExecDdlObjectAlreadyExists, "space %q already exists", st.Name)
	}
	return s.journalDDL(&gns.CreateSpaceEvent{Name: st.Name, Props: st.Props})
}

func (s *Session) execAlterSpace(st *ql.AlterSpaceStatement) (result, error) {
	if _, exists := s.gnsData.Space(st.Name); !exists {
		return result{}, nsdberrors.New(nsdberrors.QExecObjectNotFound, "space %q does not exist", st.Name)
	}
	return s.journalDDL(&gns.AlterSpaceEvent{Name: st.Name, Props: st.Props})
}

func (s *Session) execDropSpace(st *ql.DropSpaceStatement) (result, error) {
	sp, exists := s.gnsData.Space(st.Name)
	if !exists {
		return result{}, nsdberrors.New(nsdberrors.QExecObjectNotFound, "space %q does not exist", st.Name)
	}
	if !st.Force && len(sp.ModelNames()) != 0 {
		return result{}, nsdberrors.New(nsdberrors.QExecDdlNotEmpty, "space %q is not empty", st.Name)
	}
	return s.journalDDL(&gns.DropSpaceEvent{Name: st.Name, Force: st.Force})
}

func (s *Session) execCreateModel(st *ql.CreateModelStatement) (result, error) {
	space, name, err := s.resolveEntity(st.Entity)
	if err != nil {
		return result{}, err
	}
	if _, exists := s.gnsData.Model(space, name); exists {
		return result{}, nsdberrors.New(nsdberrors.QExecDdlObjectAlreadyExists, "model %q already exists in space %q", name, space)
	}
	if _, ok := s.gnsData.Space(space); !ok {
		return result{}, nsdberrors.New(nsdberrors.QExecObjectNotFound, "space %q does not exist", space)
	}

	fields := model.NewFieldMap()
	for _, fd := range st.Fields {
		if fd.Name == st.PKColumn {
			return result{}, nsdberrors.New(nsdberrors.QExecDdlModelBadDefinition, "field %q collides with the primary key column", fd.Name)
		}
		if fields.Has(fd.Name) {
			return result{}, nsdberrors.New(nsdberrors.QExecDdlModelBadDefinition, "field %q declared twice", fd.Name)
		}
		fields.Set(fd.Name, fd.Field)
	}
	if !st.PKTag.Unique() {
		return result{}, nsdberrors.New(nsdberrors.QExecDdlInvalidTypeDefinition, "primary key type %s is not unique-eligible", st.PKTag)
	}

	return s.journalDDL(&gns.CreateModelEvent{
		Space:    space,
		Model:    name,
		PKColumn: st.PKColumn,
		PKTag:    st.PKTag,
		Fields:   fields,
	})
}

func (s *Session) execAlterModel(st *ql.AlterModelStatement) (result, error) {
	space, name, m, err := s.resolveModel(st.Entity)
	if err != nil {
		return result{}, err
	}

	fields := m.Fields()
	switch st.Kind {
	case ql.AlterAdd:
		add := make(map[string]model.Field, len(st.Add))
		for _, fd := range st.Add {
			add[fd.Name] = fd.Field
		}
		if _, err := model.PlanAdd(fields, m.PKColumn, add); err != nil {
			return result{}, nsdberrors.New(nsdberrors.QExecDdlModelAlterIllegal, "%v", err)
		}
		return s.journalDDL(gns.NewAlterModelAddEvent(space, name, add))
	case ql.AlterRemove:
		if _, err := model.PlanRemove(fields, m.PKColumn, st.Remove); err != nil {
			return result{}, nsdberrors.New(nsdberrors.QExecDdlModelAlterIllegal, "%v", err)
		}
		return s.journalDDL(gns.NewAlterModelRemoveEvent(space, name, st.Remove))
	case ql.AlterUpdate:
		update := make(map[string]model.Field, len(st.Update))
		for _, fd := range st.Update {
			update[fd.Name] = fd.Field
		}
		if _, err := model.PlanUpdate(fields, m.PKColumn, update); err != nil {
			if err == model.ErrDdlModelAlterBadTypedef {
				return result{}, nsdberrors.New(nsdberrors.QExecDdlModelAlterBadTypedef, "%v", err)
			}
			return result{}, nsdberrors.New(nsdberrors.QExecDdlModelAlterIllegal, "%v", err)
		}
		return s.journalDDL(gns.NewAlterModelUpdateEvent(space, name, update))
	default:
		return result{}, nsdberrors.New(nsdberrors.SysServerError, "unrecognized alter kind")
	}
}

func (s *Session) execDropModel(st *ql.DropModelStatement) (result, error) {
	space, name, m, err := s.resolveModel(st.Entity)
	if err != nil {
		return result{}, err
	}
	if !st.Force && m.Index.Len() != 0 {
		return result{}, nsdberrors.New(nsdberrors.QExecDdlNotEmpty, "model %q is not empty", name)
	}
	return s.journalDDL(&gns.DropModelEvent{Space: space, Model: name, Force: st.Force})
}

func (s *Session) execInspectSpaces(_ *ql.InspectSpacesStatement) (result, error) {
	names := s.gnsData.SpaceNames()
	items := make([]string, len(names))
	copy(items, names)
	return encodeStringListResult(items), nil
}

func (s *Session) execInspectSpace(st *ql.InspectSpaceStatement) (result, error) {
	sp, ok := s.gnsData.Space(st.Name)
	if !ok {
		return result{}, nsdberrors.New(nsdberrors.QExecObjectNotFound, "space %q does not exist", st.Name)
	}
	return encodeStringListResult(sp.ModelNames()), nil
}

func (s *Session) execInspectModel(st *ql.InspectModelStatement) (result, error) {
	_, _, m, err := s.resolveModel(st.Entity)
	if err != nil {
		return result{}, err
	}
	names := append([]string{m.PKColumn}, m.Fields().Names()...)
	return encodeStringListResult(names), nil
}

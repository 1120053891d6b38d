package exec

import (
	nsdberrors "github.com/nsdb/nsdb/internal/errors"
	"github.com/nsdb/nsdb/internal/model"
	"github.com/nsdb/nsdb/internal/ql"
)

// resolveEntity turns a parsed ql.Entity into a concrete (space, name) pair,
// reading the session's current space for the Current/Partial variants
// (spec §4.4's Entity lookahead dispatch; the actual model lookup is left to
// the caller via GNSData.Model, matching §4.5's with_model seam).
func (s *Session) resolveEntity(e ql.Entity) (string, string, error) {
	switch e.Kind {
	case ql.EntityFull:
		return e.Space, e.Name, nil
	case ql.EntityCurrent, ql.EntityPartial:
		space := s.getCurrentSpace()
		if space == "" {
			return "", "", nsdberrors.New(nsdberrors.QExecObjectNotFound, "no space selected: use a full entity name or issue USE first")
		}
		return space, e.Name, nil
	default:
		return "", "", nsdberrors.New(nsdberrors.SysServerError, "unrecognized entity kind")
	}
}

// resolveModel resolves an entity then looks up its backing Model.
func (s *Session) resolveModel(e ql.Entity) (string, string, *model.Model, error) {
	space, name, err := s.resolveEntity(e)
	if err != nil {
		return "", "", nil, err
	}
	m, ok := s.gnsData.Model(space, name)
	if !ok {
		return "", "", nil, nsdberrors.New(nsdberrors.QExecObjectNotFound, "model %q not found in space %q", name, space)
	}
	return space, name, m, nil
}

package gns

import (
	"fmt"

	"github.com/nsdb/nsdb/internal/model"
	"github.com/nsdb/nsdb/internal/persist"
	"github.com/nsdb/nsdb/internal/value"
)

// EventKind tags the on-disk event variant, stable across releases (new
// kinds are only ever appended) so a journal written by an older build
// still replays.
type EventKind uint8

const (
	EventCreateSpace EventKind = iota
	EventAlterSpace
	EventDropSpace
	EventCreateModel
	EventAlterModelAdd
	EventAlterModelRemove
	EventAlterModelUpdate
	EventDropModel
)

// Event is one DDL mutation: it can serialize its own payload and apply
// itself against a namespace, either live (ApplyLive) or during journal
// replay (ApplyRestore, which additionally enforces restore-conflict
// invariants).
type Event interface {
	Kind() EventKind
	EncodePayload(w *persist.Writer)
	ApplyLive(g *GNSData) error
	ApplyRestore(g *GNSData) error
}

// EncodeEvent writes an event's kind byte followed by its payload.
func EncodeEvent(e Event) []byte {
	w := persist.NewWriter()
	w.U8(uint8(e.Kind()))
	e.EncodePayload(w)
	return w.Bytes()
}

// DecodeEvent reads a kind byte and dispatches to the matching payload
// decoder.
func DecodeEvent(buf []byte) (Event, error) {
	r := persist.NewReader(buf)
	kindByte, err := r.U8()
	if err != nil {
		return nil, err
	}
	switch EventKind(kindByte) {
	case EventCreateSpace:
		return decodeCreateSpace(r)
	case EventAlterSpace:
		return decodeAlterSpace(r)
	case EventDropSpace:
		return decodeDropSpace(r)
	case EventCreateModel:
		return decodeCreateModel(r)
	case EventAlterModelAdd:
		return decodeAlterModelAdd(r)
	case EventAlterModelRemove:
		return decodeAlterModelRemove(r)
	case EventAlterModelUpdate:
		return decodeAlterModelUpdate(r)
	case EventDropModel:
		return decodeDropModel(r)
	default:
		return nil, fmt.Errorf("gns: unknown event kind %d", kindByte)
	}
}

// --- CreateSpace --------------------------------------------------------

type CreateSpaceEvent struct {
	Name  string
	Props map[string]value.Datacell
}

func (e *CreateSpaceEvent) Kind() EventKind { return EventCreateSpace }

func (e *CreateSpaceEvent) EncodePayload(w *persist.Writer) {
	w.String(e.Name)
	persist.EncodeDict(w, e.Props)
}

func decodeCreateSpace(r *persist.Reader) (Event, error) {
	name, err := r.String()
	if err != nil {
		return nil, err
	}
	props, err := persist.DecodeDict(r)
	if err != nil {
		return nil, err
	}
	return &CreateSpaceEvent{Name: name, Props: props}, nil
}

func (e *CreateSpaceEvent) ApplyLive(g *GNSData) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.idx[e.Name]; exists {
		return fmt.Errorf("gns: space %q already exists", e.Name)
	}
	g.idx[e.Name] = NewSpace(e.Name, e.Props)
	return nil
}

func (e *CreateSpaceEvent) ApplyRestore(g *GNSData) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.idx[e.Name]; exists {
		return OnRestoreDataConflictAlreadyExists("space", e.Name)
	}
	g.idx[e.Name] = NewSpace(e.Name, e.Props)
	return nil
}

// --- AlterSpace -----------------------------------------------------------

type AlterSpaceEvent struct {
	Name  string
	Props map[string]value.Datacell
}

func (e *AlterSpaceEvent) Kind() EventKind { return EventAlterSpace }

func (e *AlterSpaceEvent) EncodePayload(w *persist.Writer) {
	w.String(e.Name)
	persist.EncodeDict(w, e.Props)
}

func decodeAlterSpace(r *persist.Reader) (Event, error) {
	name, err := r.String()
	if err != nil {
		return nil, err
	}
	props, err := persist.DecodeDict(r)
	if err != nil {
		return nil, err
	}
	return &AlterSpaceEvent{Name: name, Props: props}, nil
}

func (e *AlterSpaceEvent) ApplyLive(g *GNSData) error {
	g.mu.RLock()
	s, ok := g.idx[e.Name]
	g.mu.RUnlock()
	if !ok {
		return fmt.Errorf("gns: space %q does not exist", e.Name)
	}
	s.mergeProps(e.Props)
	return nil
}

func (e *AlterSpaceEvent) ApplyRestore(g *GNSData) error {
	g.mu.RLock()
	s, ok := g.idx[e.Name]
	g.mu.RUnlock()
	if !ok {
		return OnRestoreDataMissing("space", e.Name)
	}
	s.mergeProps(e.Props)
	return nil
}

// --- DropSpace ------------------------------------------------------------

type DropSpaceEvent struct {
	Name  string
	Force bool
}

func (e *DropSpaceEvent) Kind() EventKind { return EventDropSpace }

func (e *DropSpaceEvent) EncodePayload(w *persist.Writer) {
	w.String(e.Name)
	w.Bool(e.Force)
}

func decodeDropSpace(r *persist.Reader) (Event, error) {
	name, err := r.String()
	if err != nil {
		return nil, err
	}
	force, err := r.Bool()
	if err != nil {
		return nil, err
	}
	return &DropSpaceEvent{Name: name, Force: force}, nil
}

func (e *DropSpaceEvent) ApplyLive(g *GNSData) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.idx[e.Name]
	if !ok {
		return fmt.Errorf("gns: space %q does not exist", e.Name)
	}
	if !e.Force && len(s.ModelNames()) != 0 {
		return fmt.Errorf("gns: space %q is not empty", e.Name)
	}
	for _, m := range s.ModelNames() {
		delete(g.idxModels, modelKey{e.Name, m})
	}
	delete(g.idx, e.Name)
	return nil
}

func (e *DropSpaceEvent) ApplyRestore(g *GNSData) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.idx[e.Name]
	if !ok {
		return OnRestoreDataMissing("space", e.Name)
	}
	for _, m := range s.ModelNames() {
		delete(g.idxModels, modelKey{e.Name, m})
	}
	delete(g.idx, e.Name)
	return nil
}

// --- CreateModel ------------------------------------------------------------

type CreateModelEvent struct {
	Space    string
	Model    string
	PKColumn string
	PKTag    value.FullTag
	Fields   *model.FieldMap
}

func (e *CreateModelEvent) Kind() EventKind { return EventCreateModel }

func (e *CreateModelEvent) EncodePayload(w *persist.Writer) {
	w.String(e.Space)
	w.String(e.Model)
	w.String(e.PKColumn)
	w.Selector(e.PKTag.Selector)
	persist.EncodeFieldMap(w, e.Fields)
}

func decodeCreateModel(r *persist.Reader) (Event, error) {
	space, err := r.String()
	if err != nil {
		return nil, err
	}
	modelName, err := r.String()
	if err != nil {
		return nil, err
	}
	pkColumn, err := r.String()
	if err != nil {
		return nil, err
	}
	pkSel, err := r.Selector()
	if err != nil {
		return nil, err
	}
	fields, err := persist.DecodeFieldMap(r)
	if err != nil {
		return nil, err
	}
	return &CreateModelEvent{Space: space, Model: modelName, PKColumn: pkColumn, PKTag: value.TagOf(pkSel), Fields: fields}, nil
}

func (e *CreateModelEvent) apply(g *GNSData, onExists func() error, onMissingSpace func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.idx[e.Space]
	if !ok {
		return onMissingSpace()
	}
	key := modelKey{e.Space, e.Model}
	if _, exists := g.idxModels[key]; exists {
		return onExists()
	}
	g.idxModels[key] = model.New(e.Model, e.PKColumn, e.PKTag, e.Fields.Clone())
	s.addModel(e.Model)
	return nil
}

func (e *CreateModelEvent) ApplyLive(g *GNSData) error {
	return e.apply(g,
		func() error { return fmt.Errorf("gns: model %q already exists in space %q", e.Model, e.Space) },
		func() error { return fmt.Errorf("gns: space %q does not exist", e.Space) },
	)
}

func (e *CreateModelEvent) ApplyRestore(g *GNSData) error {
	return e.apply(g,
		func() error { return OnRestoreDataConflictAlreadyExists("model", e.Space+"."+e.Model) },
		func() error { return OnRestoreDataMissing("space", e.Space) },
	)
}

// --- AlterModel (Add/Remove/Update) ----------------------------------------

type alterModelEvent struct {
	kind   EventKind
	Space  string
	Model  string
	Add    map[string]model.Field
	Remove []string
	Update map[string]model.Field
}

// NewAlterModelAddEvent builds the event for an ALTER MODEL ... ADD.
func NewAlterModelAddEvent(space, modelName string, add map[string]model.Field) Event {
	return &alterModelEvent{kind: EventAlterModelAdd, Space: space, Model: modelName, Add: add}
}

// NewAlterModelRemoveEvent builds the event for an ALTER MODEL ... REMOVE.
func NewAlterModelRemoveEvent(space, modelName string, remove []string) Event {
	return &alterModelEvent{kind: EventAlterModelRemove, Space: space, Model: modelName, Remove: remove}
}

// NewAlterModelUpdateEvent builds the event for an ALTER MODEL ... UPDATE.
func NewAlterModelUpdateEvent(space, modelName string, update map[string]model.Field) Event {
	return &alterModelEvent{kind: EventAlterModelUpdate, Space: space, Model: modelName, Update: update}
}

func (e *alterModelEvent) Kind() EventKind { return e.kind }

func (e *alterModelEvent) EncodePayload(w *persist.Writer) {
	w.String(e.Space)
	w.String(e.Model)
	switch e.kind {
	case EventAlterModelAdd:
		persist.EncodeFieldMap(w, fieldMapFrom(e.Add))
	case EventAlterModelRemove:
		w.U64(uint64(len(e.Remove)))
		for _, n := range e.Remove {
			w.String(n)
		}
	case EventAlterModelUpdate:
		persist.EncodeFieldMap(w, fieldMapFrom(e.Update))
	}
}

func fieldMapFrom(m map[string]model.Field) *model.FieldMap {
	fm := model.NewFieldMap()
	for k, v := range m {
		fm.Set(k, v)
	}
	return fm
}

func decodeAlterModelAdd(r *persist.Reader) (Event, error) {
	space, model_, fm, err := decodeSpaceModelFieldMap(r)
	if err != nil {
		return nil, err
	}
	return &alterModelEvent{kind: EventAlterModelAdd, Space: space, Model: model_, Add: toFieldMapGo(fm)}, nil
}

func decodeAlterModelUpdate(r *persist.Reader) (Event, error) {
	space, model_, fm, err := decodeSpaceModelFieldMap(r)
	if err != nil {
		return nil, err
	}
	return &alterModelEvent{kind: EventAlterModelUpdate, Space: space, Model: model_, Update: toFieldMapGo(fm)}, nil
}

func decodeSpaceModelFieldMap(r *persist.Reader) (string, string, *model.FieldMap, error) {
	space, err := r.String()
	if err != nil {
		return "", "", nil, err
	}
	modelName, err := r.String()
	if err != nil {
		return "", "", nil, err
	}
	fm, err := persist.DecodeFieldMap(r)
	if err != nil {
		return "", "", nil, err
	}
	return space, modelName, fm, nil
}

func toFieldMapGo(fm *model.FieldMap) map[string]model.Field {
	out := make(map[string]model.Field, fm.Len())
	for _, n := range fm.Names() {
		f, _ := fm.Get(n)
		out[n] = f
	}
	return out
}

func decodeAlterModelRemove(r *persist.Reader) (Event, error) {
	space, err := r.String()
	if err != nil {
		return nil, err
	}
	modelName, err := r.String()
	if err != nil {
		return nil, err
	}
	n, err := r.U64()
	if err != nil {
		return nil, err
	}
	remove := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		name, err := r.String()
		if err != nil {
			return nil, err
		}
		remove = append(remove, name)
	}
	return &alterModelEvent{kind: EventAlterModelRemove, Space: space, Model: modelName, Remove: remove}, nil
}

func (e *alterModelEvent) lookupAndPlan(g *GNSData) (*model.Model, *model.AlterPlan, error) {
	g.mu.RLock()
	m, ok := g.idxModels[modelKey{e.Space, e.Model}]
	g.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("gns: model %q does not exist in space %q", e.Model, e.Space)
	}
	fields := m.Fields()
	var plan *model.AlterPlan
	var err error
	switch e.kind {
	case EventAlterModelAdd:
		plan, err = model.PlanAdd(fields, m.PKColumn, e.Add)
	case EventAlterModelRemove:
		plan, err = model.PlanRemove(fields, m.PKColumn, e.Remove)
	case EventAlterModelUpdate:
		plan, err = model.PlanUpdate(fields, m.PKColumn, e.Update)
	}
	return m, plan, err
}

func (e *alterModelEvent) ApplyLive(g *GNSData) error {
	m, plan, err := e.lookupAndPlan(g)
	if err != nil {
		return err
	}
	return m.Apply(plan)
}

func (e *alterModelEvent) ApplyRestore(g *GNSData) error {
	g.mu.RLock()
	m, ok := g.idxModels[modelKey{e.Space, e.Model}]
	g.mu.RUnlock()
	if !ok {
		return OnRestoreDataMissing("model", e.Space+"."+e.Model)
	}
	_, plan, err := e.lookupAndPlan(g)
	if err != nil {
		return OnRestoreDataConflictMismatch(err.Error())
	}
	return m.Apply(plan)
}

// --- DropModel --------------------------------------------------------------

type DropModelEvent struct {
	Space string
	Model string
	Force bool
}

func (e *DropModelEvent) Kind() EventKind { return EventDropModel }

func (e *DropModelEvent) EncodePayload(w *persist.Writer) {
	w.String(e.Space)
	w.String(e.Model)
	w.Bool(e.Force)
}

func decodeDropModel(r *persist.Reader) (Event, error) {
	space, err := r.String()
	if err != nil {
		return nil, err
	}
	modelName, err := r.String()
	if err != nil {
		return nil, err
	}
	force, err := r.Bool()
	if err != nil {
		return nil, err
	}
	return &DropModelEvent{Space: space, Model: modelName, Force: force}, nil
}

func (e *DropModelEvent) ApplyLive(g *GNSData) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.idx[e.Space]
	if !ok {
		return fmt.Errorf("gns: space %q does not exist", e.Space)
	}
	key := modelKey{e.Space, e.Model}
	m, ok := g.idxModels[key]
	if !ok {
		return fmt.Errorf("gns: model %q does not exist in space %q", e.Model, e.Space)
	}
	if !e.Force && m.Index.Len() != 0 {
		return fmt.Errorf("gns: model %q is not empty", e.Model)
	}
	delete(g.idxModels, key)
	s.removeModel(e.Model)
	return nil
}

func (e *DropModelEvent) ApplyRestore(g *GNSData) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.idx[e.Space]
	if !ok {
		return OnRestoreDataMissing("space", e.Space)
	}
	key := modelKey{e.Space, e.Model}
	if _, ok := g.idxModels[key]; !ok {
		return OnRestoreDataMissing("model", e.Space+"."+e.Model)
	}
	delete(g.idxModels, key)
	s.removeModel(e.Model)
	return nil
}

// Package step reads and writes ISO 10303-21 ("Part 21") exchange files,
// the clear-text encoding used by STEP.
//
// The package works on the instance graph only: entities are kept as typed
// records and references, without interpreting any application protocol.
package step

import (
	"fmt"
	"sort"
)

// Kind identifies the type of a parameter value
type Kind int

const (
	KindUnset   Kind = iota // $
	KindDerived             // *
	KindRef                 // #123
	KindString              // 'text'
	KindEnum                // .ENUM.
	KindInteger             // 42
	KindReal                // 4.2
	KindList                // (a, b)
	KindTyped               // LENGTH_MEASURE(1.)
	KindBinary              // "0FF"
)

// Param is a single parameter of a record.
//
// Strings keep their encoded form (quotes doubled, \X2\ escapes intact) so
// that they are written back byte for byte.
type Param struct {
	Kind Kind
	Ref  int
	Str  string
	Int  int64
	Real float64
	List []Param
	// Type names the defined type of a KindTyped value; List holds its argument.
	Type string
	// Text is the original spelling of a number, reused on write while the
	// value is unchanged.
	Text string
}

// Record is an entity type name with its parameters
type Record struct {
	Type   string
	Params []Param
}

// Entity is one instance of the data section
type Entity struct {
	ID int
	// Records has one element for simple instances and several for complex
	// (multi-leaf) instances.
	Records []Record
	Complex bool
}

// Model is a parsed exchange file
type Model struct {
	Header   []Record
	entities map[int]*Entity
	order    []int
	maxID    int
}

// NewModel creates an empty model
func NewModel() *Model {
	return &Model{entities: make(map[int]*Entity)}
}

// Len returns the number of entities
func (m *Model) Len() int {
	return len(m.order)
}

// Get returns the entity with the given instance id
func (m *Model) Get(id int) (*Entity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// Entities returns all entities in file order
func (m *Model) Entities() []*Entity {
	out := make([]*Entity, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entities[id])
	}
	return out
}

// OfType returns all simple entities of the given type, in file order
func (m *Model) OfType(typ string) []*Entity {
	var out []*Entity
	for _, id := range m.order {
		if e := m.entities[id]; e.Is(typ) {
			out = append(out, e)
		}
	}
	return out
}

// Insert adds an entity with an explicit id
func (m *Model) Insert(e *Entity) error {
	if e.ID <= 0 {
		return fmt.Errorf("invalid instance id #%d", e.ID)
	}
	if _, exists := m.entities[e.ID]; exists {
		return fmt.Errorf("duplicate instance id #%d", e.ID)
	}
	m.entities[e.ID] = e
	m.order = append(m.order, e.ID)
	if e.ID > m.maxID {
		m.maxID = e.ID
	}
	return nil
}

// Add appends a simple entity and returns its newly allocated id
func (m *Model) Add(typ string, params ...Param) int {
	m.maxID++
	e := &Entity{ID: m.maxID, Records: []Record{{Type: typ, Params: params}}}
	m.entities[e.ID] = e
	m.order = append(m.order, e.ID)
	return e.ID
}

// Remove deletes entities by id. Unknown ids are ignored.
func (m *Model) Remove(ids ...int) {
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		if _, ok := m.entities[id]; ok {
			drop[id] = true
			delete(m.entities, id)
		}
	}
	if len(drop) == 0 {
		return
	}
	kept := m.order[:0]
	for _, id := range m.order {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	m.order = kept
}

// HeaderRecord returns the header record of the given type
func (m *Model) HeaderRecord(typ string) (*Record, bool) {
	for i := range m.Header {
		if m.Header[i].Type == typ {
			return &m.Header[i], true
		}
	}
	return nil, false
}

// SetHeaderRecord replaces or appends a header record
func (m *Model) SetHeaderRecord(r Record) {
	if existing, ok := m.HeaderRecord(r.Type); ok {
		*existing = r
		return
	}
	m.Header = append(m.Header, r)
}

// Clone returns a deep copy of the model
func (m *Model) Clone() *Model {
	c := &Model{
		Header:   cloneRecords(m.Header),
		entities: make(map[int]*Entity, len(m.entities)),
		order:    append([]int(nil), m.order...),
		maxID:    m.maxID,
	}
	for id, e := range m.entities {
		c.entities[id] = &Entity{ID: e.ID, Records: cloneRecords(e.Records), Complex: e.Complex}
	}
	return c
}

// Reachable returns the ids of every entity reachable from roots through
// references, including the roots, in ascending order
func (m *Model) Reachable(roots ...int) []int {
	seen := make(map[int]bool)
	stack := append([]int(nil), roots...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		e, ok := m.entities[id]
		if !ok {
			continue
		}
		seen[id] = true
		for _, r := range e.Records {
			stack = appendRefs(stack, r.Params)
		}
	}

	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func appendRefs(dst []int, params []Param) []int {
	for _, p := range params {
		switch p.Kind {
		case KindRef:
			dst = append(dst, p.Ref)
		case KindList, KindTyped:
			dst = appendRefs(dst, p.List)
		}
	}
	return dst
}

func cloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = Record{Type: r.Type, Params: cloneParams(r.Params)}
	}
	return out
}

func cloneParams(in []Param) []Param {
	if in == nil {
		return nil
	}
	out := make([]Param, len(in))
	for i, p := range in {
		out[i] = p
		out[i].List = cloneParams(p.List)
	}
	return out
}

// Type returns the entity type of a simple instance, or the first leaf
// type of a complex one
func (e *Entity) Type() string {
	if len(e.Records) == 0 {
		return ""
	}
	return e.Records[0].Type
}

// Is reports whether the entity is a simple instance of typ
func (e *Entity) Is(typ string) bool {
	return !e.Complex && e.Type() == typ
}

// Has reports whether any record of the entity has type typ
func (e *Entity) Has(typ string) bool {
	_, ok := e.Record(typ)
	return ok
}

// Record returns the record of type typ
func (e *Entity) Record(typ string) (*Record, bool) {
	for i := range e.Records {
		if e.Records[i].Type == typ {
			return &e.Records[i], true
		}
	}
	return nil, false
}

// Params returns the parameters of a simple instance
func (e *Entity) Params() []Param {
	if len(e.Records) == 0 {
		return nil
	}
	return e.Records[0].Params
}

// Param returns parameter i of a simple instance
func (e *Entity) Param(i int) (Param, error) {
	params := e.Params()
	if i < 0 || i >= len(params) {
		return Param{}, fmt.Errorf("#%d %s: missing parameter %d", e.ID, e.Type(), i)
	}
	return params[i], nil
}

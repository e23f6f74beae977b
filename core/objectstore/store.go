package objectstore

import "fmt"

// record is implemented by every entity type stored in a Table. Concrete
// entities live in schema.go; setID stays unexported so only this package
// can assign identifiers.
type record interface {
	GetID() ID
	setID(ID)
}

// cloneable additionally requires a deep-copy method returning the same
// (pointer) type, used to snapshot values across undo-session boundaries.
type cloneable[T any] interface {
	record
	Clone() T
}

// Store owns every table plus the active undo-session stack. There is one
// Store per chain instance; it is not safe for concurrent use without the
// caller-provided lock the chain controller already holds (see spec §5).
type Store struct {
	tables        map[string]tableOps
	cur           *Session
	headRevision  uint64
	blockSessions []*Session
}

// tableOps is the type-erased subset of Table[T] the Store needs for
// wipe/reindex support, independent of T.
type tableOps interface {
	name() string
	wipe()
}

// NewStore constructs an empty object store.
func NewStore() *Store {
	return &Store{tables: make(map[string]tableOps)}
}

// Wipe clears every registered table and resets the undo stack. Used by
// the chain controller's `wipe`/`reindex` support.
func (s *Store) Wipe() {
	for _, t := range s.tables {
		t.wipe()
	}
	s.cur = nil
	s.headRevision = 0
	s.blockSessions = nil
}

// Table is a generic, indexed collection of one entity type.
type Table[T cloneable[T]] struct {
	tableName string
	store     *Store
	byID      map[ID]T
	nextID    ID
	indexes   map[string]*tableIndex[T]
}

type tableIndex[T any] struct {
	name   string
	unique bool
	keyFn  func(T) string
	unique_ map[string]ID
	multi   map[string]map[ID]struct{}
}

// NewTable registers and returns a new table under name. Registering two
// tables under the same name on one Store panics: that is a programmer
// error caught at wiring time, not a runtime condition to recover from.
func NewTable[T cloneable[T]](store *Store, name string) *Table[T] {
	if _, exists := store.tables[name]; exists {
		panic(fmt.Sprintf("objectstore: table %q already registered", name))
	}
	t := &Table[T]{
		tableName: name,
		store:     store,
		byID:      make(map[ID]T),
		indexes:   make(map[string]*tableIndex[T]),
	}
	store.tables[name] = t
	return t
}

func (t *Table[T]) name() string { return t.tableName }

func (t *Table[T]) wipe() {
	t.byID = make(map[ID]T)
	t.nextID = 0
	for _, idx := range t.indexes {
		idx.unique_ = make(map[string]ID)
		idx.multi = make(map[string]map[ID]struct{})
	}
}

// AddIndex registers a secondary index computed by keyFn. Non-unique
// indexes may map many objects to the same key; unique indexes reject a
// second insert under an already-used key by panicking, since that
// indicates a validation bug upstream (evaluators must check uniqueness
// themselves before calling Create).
func (t *Table[T]) AddIndex(name string, unique bool, keyFn func(T) string) {
	t.indexes[name] = &tableIndex[T]{
		name:    name,
		unique:  unique,
		keyFn:   keyFn,
		unique_: make(map[string]ID),
		multi:   make(map[string]map[ID]struct{}),
	}
}

func (t *Table[T]) indexInsert(v T) {
	for _, idx := range t.indexes {
		key := idx.keyFn(v)
		if idx.unique {
			if _, exists := idx.unique_[key]; exists {
				panic(fmt.Sprintf("objectstore: duplicate key %q on unique index %s.%s", key, t.tableName, idx.name))
			}
			idx.unique_[key] = v.GetID()
			continue
		}
		set := idx.multi[key]
		if set == nil {
			set = make(map[ID]struct{})
			idx.multi[key] = set
		}
		set[v.GetID()] = struct{}{}
	}
}

func (t *Table[T]) indexRemove(v T) {
	for _, idx := range t.indexes {
		key := idx.keyFn(v)
		if idx.unique {
			delete(idx.unique_, key)
			continue
		}
		if set, ok := idx.multi[key]; ok {
			delete(set, v.GetID())
			if len(set) == 0 {
				delete(idx.multi, key)
			}
		}
	}
}

// Create allocates the next id for blank, applies init, inserts it, and
// returns the live stored reference. Further mutation must go through
// Modify so undo tracking stays correct.
func (t *Table[T]) Create(blank T, init func(T)) T {
	if init != nil {
		init(blank)
	}
	t.nextID++
	id := t.nextID
	blank.setID(id)
	t.byID[id] = blank
	t.indexInsert(blank)
	tbl, capturedID := t, id
	t.store.recordUndo(func() {
		v := tbl.byID[capturedID]
		tbl.indexRemove(v)
		delete(tbl.byID, capturedID)
	})
	return blank
}

// Modify mutates ref in place and records its prior value for undo.
func (t *Table[T]) Modify(ref T, mutator func(T)) {
	id := ref.GetID()
	current, ok := t.byID[id]
	if !ok {
		panic(fmt.Sprintf("objectstore: modify of unknown id %d in table %s", id, t.tableName))
	}
	before := current.Clone()
	t.indexRemove(current)
	mutator(current)
	t.indexInsert(current)
	tbl := t
	t.store.recordUndo(func() {
		live := tbl.byID[id]
		tbl.indexRemove(live)
		tbl.byID[id] = before
		tbl.indexInsert(before)
	})
}

// Remove deletes ref and records its value for undo.
func (t *Table[T]) Remove(ref T) {
	id := ref.GetID()
	removed, ok := t.byID[id]
	if !ok {
		return
	}
	delete(t.byID, id)
	t.indexRemove(removed)
	tbl := t
	t.store.recordUndo(func() {
		tbl.byID[id] = removed
		tbl.indexInsert(removed)
	})
}

// Get looks up a record by primary id.
func (t *Table[T]) Get(id ID) (T, bool) {
	v, ok := t.byID[id]
	return v, ok
}

// MustGet looks up a record by primary id, panicking if absent. Reserved
// for call sites that already validated existence via an index lookup.
func (t *Table[T]) MustGet(id ID) T {
	v, ok := t.byID[id]
	if !ok {
		panic(fmt.Sprintf("objectstore: missing id %d in table %s", id, t.tableName))
	}
	return v
}

// Find resolves a unique-index lookup.
func (t *Table[T]) Find(index, key string) (T, bool) {
	idx, ok := t.indexes[index]
	var zero T
	if !ok || !idx.unique {
		return zero, false
	}
	id, ok := idx.unique_[key]
	if !ok {
		return zero, false
	}
	return t.Get(id)
}

// FindAll resolves a non-unique index lookup, order unspecified.
func (t *Table[T]) FindAll(index, key string) []T {
	idx, ok := t.indexes[index]
	if !ok {
		return nil
	}
	var set map[ID]struct{}
	if idx.unique {
		if id, ok := idx.unique_[key]; ok {
			if v, ok := t.Get(id); ok {
				return []T{v}
			}
		}
		return nil
	}
	set = idx.multi[key]
	out := make([]T, 0, len(set))
	for id := range set {
		if v, ok := t.Get(id); ok {
			out = append(out, v)
		}
	}
	return out
}

// Len returns the number of live records.
func (t *Table[T]) Len() int { return len(t.byID) }

// All returns every live record, order unspecified. Used by state-root
// commitment and the invariant auditor, both of which sort deterministically
// downstream.
func (t *Table[T]) All() []T {
	out := make([]T, 0, len(t.byID))
	for _, v := range t.byID {
		out = append(out, v)
	}
	return out
}

func (s *Store) recordUndo(fn func()) {
	if s.cur != nil {
		s.cur.log = append(s.cur.log, fn)
	}
}

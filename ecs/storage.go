package ecs

import "unsafe"

const defaultStorageCapacity = 8

// zeroSized backs pointers to components of size zero.
var zeroSized [0]uint64

// column is a byte arena holding one component for every row of a storage.
type column struct {
	id   ComponentId
	size uintptr
	data []byte
}

// newArena allocates capacity*size bytes aligned to maxAlign.
func newArena(size uintptr, capacity int) []byte {
	n := int(size) * capacity
	if n == 0 {
		return nil
	}
	words := make([]uint64, (n+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), n)
}

func (c *column) at(row int) []byte {
	sz := int(c.size)
	off := row * sz
	return c.data[off : off+sz : off+sz]
}

// bytePointer returns the address of a component's bytes, valid for zero sized
// components as well.
func bytePointer(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return unsafe.Pointer(&zeroSized)
	}
	return unsafe.Pointer(unsafe.SliceData(b))
}

// storage holds the entities of one archetype in columns. Rows [0,count) are
// live and densely packed.
type storage struct {
	archetype  ArchetypeId
	components componentSet
	columns    []column
	entities   []EntityId
	count      int
	capacity   int
}

// newStorage creates a storage for an archetype. sizes is parallel to the
// archetype's component list.
func newStorage(id ArchetypeId, a Archetype, sizes []uintptr, capacity int) *storage {
	if capacity <= 0 {
		capacity = defaultStorageCapacity
	}
	s := &storage{
		archetype:  id,
		components: a.components,
		columns:    make([]column, len(a.components)),
		entities:   make([]EntityId, capacity),
		capacity:   capacity,
	}
	for i, c := range a.components {
		s.columns[i] = column{id: c, size: sizes[i], data: newArena(sizes[i], capacity)}
	}
	return s
}

// grow doubles every buffer together.
func (s *storage) grow() {
	capacity := s.capacity * 2
	for i := range s.columns {
		col := &s.columns[i]
		data := newArena(col.size, capacity)
		copy(data, col.data[:s.count*int(col.size)])
		col.data = data
	}
	entities := make([]EntityId, capacity)
	copy(entities, s.entities[:s.count])
	s.entities = entities
	s.capacity = capacity
}

// addEntity appends a zero-filled row for id and returns its index.
func (s *storage) addEntity(id EntityId) int {
	if s.count == s.capacity {
		s.grow()
	}
	row := s.count
	s.entities[row] = id
	for i := range s.columns {
		clear(s.columns[i].at(row))
	}
	s.count++
	return row
}

// removeEntity swaps the last row into row and shrinks the storage. When a row
// moved it returns the entity that now lives at row, and the caller must
// update that entity's record.
func (s *storage) removeEntity(row int) (EntityId, bool) {
	last := s.count - 1
	if row == last {
		s.count--
		return 0, false
	}
	for i := range s.columns {
		col := &s.columns[i]
		copy(col.at(row), col.at(last))
	}
	moved := s.entities[last]
	s.entities[row] = moved
	s.count--
	return moved, true
}

func (s *storage) component(row int, c ComponentId) ([]byte, bool) {
	i := s.components.indexOf(c)
	if i < 0 {
		return nil, false
	}
	return s.columns[i].at(row), true
}

func (s *storage) setComponent(row int, c ComponentId, data []byte) bool {
	i := s.components.indexOf(c)
	if i < 0 {
		return false
	}
	copy(s.columns[i].at(row), data)
	return true
}

// column returns the live bytes of component c across all rows.
func (s *storage) column(c ComponentId) ([]byte, bool) {
	i := s.components.indexOf(c)
	if i < 0 {
		return nil, false
	}
	col := &s.columns[i]
	n := s.count * int(col.size)
	return col.data[:n:n], true
}

func (s *storage) entity(row int) EntityId {
	return s.entities[row]
}

// moveEntity migrates the entity at row of from into to. Components present in
// both storages are copied, components only in from are dropped, and
// components only in to are left zeroed. It returns the row in to and, like
// removeEntity, the entity that was swapped into row of from.
func moveEntity(from, to *storage, id EntityId, row int) (int, EntityId, bool) {
	newRow := to.addEntity(id)

	i, j := 0, 0
	for i < len(from.components) && j < len(to.components) {
		switch a, b := from.components[i], to.components[j]; {
		case a == b:
			copy(to.columns[j].at(newRow), from.columns[i].at(row))
			i++
			j++
		case a < b:
			i++
		default:
			j++
		}
	}

	moved, ok := from.removeEntity(row)
	return newRow, moved, ok
}

package ecs

import (
	"fmt"
	"unsafe"
)

// Iterator exposes the columns of one archetype's storage to a system
// callback. Everything it returns is valid only until the callback returns.
type Iterator struct {
	storage  *storage
	commands *Commands
	dt       float64
}

// Archetype returns the id of the archetype being iterated.
func (it *Iterator) Archetype() ArchetypeId {
	return it.storage.archetype
}

// Has reports whether the archetype being iterated contains c.
func (it *Iterator) Has(c ComponentId) bool {
	return it.storage.components.has(c)
}

// Count returns the number of entities in the archetype.
func (it *Iterator) Count() int {
	return it.storage.count
}

// Entities returns the entity id of every row.
func (it *Iterator) Entities() []EntityId {
	n := it.storage.count
	return it.storage.entities[:n:n]
}

// ComponentArray returns the raw bytes of component c for every row, laid out
// back to back with the component's size as stride.
func (it *Iterator) ComponentArray(c ComponentId) ([]byte, bool) {
	return it.storage.column(c)
}

// DeltaTime returns the delta time passed to the current step.
func (it *Iterator) DeltaTime() float64 {
	return it.dt
}

// Commands returns the buffer for structural changes, applied once the step
// completes.
func (it *Iterator) Commands() *Commands {
	return it.commands
}

// Column views component c of every row as a []T. It returns nil if the
// archetype lacks c and panics if T's size differs from the registered size.
func Column[T any](it *Iterator, c ComponentId) []T {
	i := it.storage.components.indexOf(c)
	if i < 0 {
		return nil
	}
	col := &it.storage.columns[i]
	var zero T
	if unsafe.Sizeof(zero) != col.size {
		panic(fmt.Sprintf("ecs: component %d has size %d, %T has size %d", c, col.size, zero, unsafe.Sizeof(zero)))
	}
	n := it.storage.count
	if n == 0 {
		return nil
	}
	if col.size == 0 {
		return make([]T, n)
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(col.data))), n)
}

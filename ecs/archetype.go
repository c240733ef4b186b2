package ecs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/plus3/colecs/ecs/internal/hashmap"
)

// componentSet is an ascending, duplicate-free list of component ids.
type componentSet []ComponentId

// insert returns the set with c added at its sorted position. The receiver is
// never modified; a new backing array is allocated when c is absent.
func (s componentSet) insert(c ComponentId) (componentSet, bool) {
	i, found := slices.BinarySearch(s, c)
	if found {
		return s, false
	}
	out := make(componentSet, len(s)+1)
	copy(out, s[:i])
	out[i] = c
	copy(out[i+1:], s[i:])
	return out, true
}

// remove returns the set without c.
func (s componentSet) remove(c ComponentId) (componentSet, bool) {
	i, found := slices.BinarySearch(s, c)
	if !found {
		return s, false
	}
	out := make(componentSet, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...), true
}

// indexOf scans the set for c. Sets are small enough that the scan stays in
// cache.
func (s componentSet) indexOf(c ComponentId) int {
	for i, id := range s {
		if id == c {
			return i
		}
		if id > c {
			break
		}
	}
	return -1
}

func (s componentSet) has(c ComponentId) bool {
	return s.indexOf(c) >= 0
}

// equal compares lengths before elements, so a set is never equal to one of
// its prefixes.
func (s componentSet) equal(o componentSet) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// hash mixes every id into a seeded multiplicative hash.
func (s componentSet) hash(seed uint64) uint64 {
	h := seed
	for _, id := range s {
		h ^= uint64(id)
		h *= 0x100000001b3
	}
	h ^= uint64(len(s))
	h *= 0x100000001b3
	return h ^ (h >> 29)
}

func (s componentSet) supersetOf(o componentSet) bool {
	if len(o) > len(s) {
		return false
	}
	for _, c := range o {
		if !s.has(c) {
			return false
		}
	}
	return true
}

func buildSet(ids []ComponentId) componentSet {
	var s componentSet
	for _, id := range ids {
		s, _ = s.insert(id)
	}
	return s
}

// Archetype is the sorted set of component ids shared by a group of entities.
// The zero value is the empty archetype.
type Archetype struct {
	components componentSet
}

// BuildArchetype returns the archetype containing ids. Order and duplicates in
// ids do not matter.
func BuildArchetype(ids ...ComponentId) Archetype {
	return Archetype{components: buildSet(ids)}
}

// Components returns a copy of the archetype's component ids in ascending order.
func (a Archetype) Components() []ComponentId {
	return slices.Clone(a.components)
}

// Len returns the number of components in the archetype.
func (a Archetype) Len() int {
	return len(a.components)
}

// Has reports whether the archetype contains c.
func (a Archetype) Has(c ComponentId) bool {
	return a.components.has(c)
}

// Equal reports whether both archetypes hold the same component set.
func (a Archetype) Equal(o Archetype) bool {
	return a.components.equal(o.components)
}

// With returns the archetype with c added.
func (a Archetype) With(c ComponentId) Archetype {
	s, _ := a.components.insert(c)
	return Archetype{components: s}
}

// Without returns the archetype with c removed.
func (a Archetype) Without(c ComponentId) Archetype {
	s, _ := a.components.remove(c)
	return Archetype{components: s}
}

func (a Archetype) String() string {
	parts := make([]string, len(a.components))
	for i, c := range a.components {
		parts[i] = fmt.Sprint(uint32(c))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

type archetypeHasher struct{}

func (archetypeHasher) Hash(a Archetype, seed uint64) uint64 {
	return a.components.hash(seed)
}

func (archetypeHasher) Equal(a, b Archetype) bool {
	return a.Equal(b)
}

var _ hashmap.Hasher[Archetype] = archetypeHasher{}

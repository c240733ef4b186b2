// Package hashmap implements an open-addressing hash map whose collision
// resolution re-hashes the key with a perturbed seed instead of stepping
// linearly through the table.
//
// The map tracks the longest probe sequence any insertion has needed since the
// last resize. Lookups never probe further than that, so a miss terminates in a
// bounded number of steps even when the table contains tombstones.
package hashmap

import "iter"

// Hasher is the capability set a key type must provide.
type Hasher[K any] interface {
	Hash(key K, seed uint64) uint64
	Equal(a, b K) bool
}

const (
	// BaseSeed is the seed used for the first probe of every key.
	BaseSeed uint64 = 0xcbf29ce484222325

	minCapacity   = 8
	maxLoadFactor = 0.7
)

// NextSeed derives the seed for the probe following the one that used seed.
func NextSeed(seed uint64) uint64 {
	return seed*0x5851f42d4c957f2d + 0x14057b7ef767814f
}

type slotState uint8

const (
	slotEmpty slotState = iota
	slotFilled
	slotDeleted
)

type entry[K, V any] struct {
	key   K
	value V
	state slotState
}

// Map is an open-addressing hash map. The zero value is not usable; create
// maps with New.
type Map[K, V any] struct {
	hasher     Hasher[K]
	entries    []entry[K, V]
	mask       uint64
	count      int
	tombstones int
	maxProbe   int
}

// New creates a map able to hold capacity keys before its first resize.
func New[K, V any](capacity int, hasher Hasher[K]) *Map[K, V] {
	m := &Map[K, V]{hasher: hasher}
	m.alloc(slotsFor(capacity))
	return m
}

func slotsFor(capacity int) int {
	want := int(float64(capacity)/maxLoadFactor) + 1
	n := minCapacity
	for n < want {
		n <<= 1
	}
	return n
}

func (m *Map[K, V]) alloc(slots int) {
	m.entries = make([]entry[K, V], slots)
	m.mask = uint64(slots - 1)
	m.count = 0
	m.tombstones = 0
	m.maxProbe = 0
}

// find returns the slot holding key, probing at most maxProbe+1 slots.
func (m *Map[K, V]) find(key K) (int, bool) {
	seed := BaseSeed
	for probe := 0; probe <= m.maxProbe; probe++ {
		i := m.hasher.Hash(key, seed) & m.mask
		e := &m.entries[i]
		switch e.state {
		case slotEmpty:
			return -1, false
		case slotFilled:
			if m.hasher.Equal(e.key, key) {
				return int(i), true
			}
		}
		seed = NextSeed(seed)
	}
	return -1, false
}

// insert places a key known to be absent into the first free slot of its probe
// sequence. It reports false if no free slot was reached within one probe per
// slot, in which case the caller must grow the table.
func (m *Map[K, V]) insert(key K, value V) bool {
	seed := BaseSeed
	for probe := 0; probe < len(m.entries); probe++ {
		i := m.hasher.Hash(key, seed) & m.mask
		e := &m.entries[i]
		if e.state != slotFilled {
			if e.state == slotDeleted {
				m.tombstones--
			}
			*e = entry[K, V]{key: key, value: value, state: slotFilled}
			m.count++
			if probe > m.maxProbe {
				m.maxProbe = probe
			}
			return true
		}
		seed = NextSeed(seed)
	}
	return false
}

func (m *Map[K, V]) resize(slots int) {
	old := m.entries
	for {
		m.alloc(slots)
		ok := true
		for i := range old {
			if old[i].state != slotFilled {
				continue
			}
			if !m.insert(old[i].key, old[i].value) {
				ok = false
				break
			}
		}
		if ok {
			return
		}
		slots <<= 1
	}
}

// Put inserts or replaces the value stored under key. It reports whether the
// key was newly inserted.
func (m *Map[K, V]) Put(key K, value V) bool {
	if i, ok := m.find(key); ok {
		m.entries[i].value = value
		return false
	}
	if float64(m.count+m.tombstones+1) > maxLoadFactor*float64(len(m.entries)) {
		m.resize(len(m.entries) << 1)
	}
	for !m.insert(key, value) {
		m.resize(len(m.entries) << 1)
	}
	return true
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if i, ok := m.find(key); ok {
		return m.entries[i].value, true
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.find(key)
	return ok
}

// Delete removes key, leaving a tombstone so that longer probe sequences
// passing through its slot stay intact. It reports whether the key existed.
func (m *Map[K, V]) Delete(key K) bool {
	i, ok := m.find(key)
	if !ok {
		return false
	}
	m.entries[i] = entry[K, V]{state: slotDeleted}
	m.count--
	m.tombstones++
	return true
}

// Len returns the number of stored keys.
func (m *Map[K, V]) Len() int {
	return m.count
}

// Capacity returns the number of slots in the table.
func (m *Map[K, V]) Capacity() int {
	return len(m.entries)
}

// MaxProbe returns the worst-case probe index observed since the last resize.
func (m *Map[K, V]) MaxProbe() int {
	return m.maxProbe
}

// All iterates over every key/value pair in slot order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := range m.entries {
			if m.entries[i].state != slotFilled {
				continue
			}
			if !yield(m.entries[i].key, m.entries[i].value) {
				return
			}
		}
	}
}

// StringHasher hashes strings with a seeded FNV-1a.
type StringHasher struct{}

func (StringHasher) Hash(key string, seed uint64) uint64 {
	h := seed
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= 0x100000001b3
	}
	return h ^ (h >> 32)
}

func (StringHasher) Equal(a, b string) bool {
	return a == b
}

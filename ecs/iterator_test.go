package ecs_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/colecs/ecs"
)

func TestIteratorColumns(t *testing.T) {
	w, ids := newTestWorld(t)
	arch := mustArchetype(t, w, ids.Health, ids.Frozen)

	var want []ecs.EntityId
	for i := int32(0); i < 4; i++ {
		e := mustEntity(t, w, arch)
		require.NoError(t, ecs.Set(w, e, ids.Health, Health{Current: i, Max: 10 * i}))
		want = append(want, e)
	}

	ran := false
	_, err := w.RegisterSystem("inspect", ecs.NewQueryBuilder().With(ids.Health).Build(), func(it *ecs.Iterator, count int, dt float64) {
		ran = true
		assert.Equal(t, arch, it.Archetype())
		assert.True(t, it.Has(ids.Frozen))
		assert.False(t, it.Has(ids.Position))
		assert.Equal(t, want, it.Entities())

		raw, ok := it.ComponentArray(ids.Health)
		require.True(t, ok)
		require.Len(t, raw, 8*count)
		for i := 0; i < count; i++ {
			assert.Equal(t, uint32(i), binary.LittleEndian.Uint32(raw[8*i:]))
			assert.Equal(t, uint32(10*i), binary.LittleEndian.Uint32(raw[8*i+4:]))
		}

		_, ok = it.ComponentArray(ids.Position)
		assert.False(t, ok)

		healths := ecs.Column[Health](it, ids.Health)
		require.Len(t, healths, count)
		assert.Equal(t, Health{Current: 3, Max: 30}, healths[3])

		assert.Len(t, ecs.Column[Frozen](it, ids.Frozen), count)
		assert.Nil(t, ecs.Column[Position](it, ids.Position))
		assert.Panics(t, func() { ecs.Column[Position](it, ids.Health) })
	})
	require.NoError(t, err)

	w.Step(0)
	assert.True(t, ran)
}

func TestIteratorVisitsEmptyArchetypes(t *testing.T) {
	w, ids := newTestWorld(t)
	arch := mustArchetype(t, w, ids.Score)

	counts := []int{}
	_, err := w.RegisterSystem("empty", ecs.NewQueryBuilder().With(ids.Score).Build(), func(it *ecs.Iterator, count int, dt float64) {
		counts = append(counts, count)
		assert.Empty(t, it.Entities())
		assert.Nil(t, ecs.Column[Score](it, ids.Score))
	})
	require.NoError(t, err)

	w.Step(0)
	mustEntity(t, w, arch)
	w.Step(0)
	assert.Equal(t, []int{0, 1}, counts)
}

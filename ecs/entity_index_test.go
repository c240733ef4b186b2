package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityIndexRecyclesIds(t *testing.T) {
	ei := newEntityIndex(1)
	s := &storage{}

	a := ei.newEntity()
	b := ei.newEntity()
	c := ei.newEntity()
	assert.Equal(t, []EntityId{0, 1, 2}, []EntityId{a, b, c})
	for _, e := range []EntityId{a, b, c} {
		ei.set(e, int(e), 0, s)
	}

	ei.remove(b)
	assert.False(t, ei.alive(b))
	assert.Equal(t, entityRecord{}, ei.get(b))
	assert.Equal(t, 2, ei.len())

	assert.Equal(t, b, ei.newEntity(), "freed ids are reused first")
	assert.Equal(t, EntityId(3), ei.newEntity())
	assert.Equal(t, 4, ei.len())
}

func TestEntityIndexFreeListIsLastInFirstOut(t *testing.T) {
	ei := newEntityIndex(4)
	for i := 0; i < 4; i++ {
		ei.set(ei.newEntity(), i, 0, &storage{})
	}
	ei.remove(1)
	ei.remove(3)

	assert.Equal(t, EntityId(3), ei.newEntity())
	assert.Equal(t, EntityId(1), ei.newEntity())
	assert.Equal(t, EntityId(4), ei.newEntity())
}

func TestEntityIndexAliveBounds(t *testing.T) {
	ei := newEntityIndex(0)
	assert.False(t, ei.alive(0))
	assert.False(t, ei.alive(1000))

	e := ei.newEntity()
	assert.False(t, ei.alive(e), "an entity without a location is not alive")
	ei.set(e, 0, 0, &storage{})
	assert.True(t, ei.alive(e))
}

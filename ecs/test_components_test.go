package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plus3/colecs/ecs"
	"github.com/plus3/colecs/ecs/ecslog"
)

// Common test component types
type Position struct {
	X, Y, Z float32
}

type Velocity struct {
	DX, DY, DZ float32
}

type Health struct {
	Current int32
	Max     int32
}

type Frozen struct{}

type Score int64

type testIds struct {
	Position ecs.ComponentId
	Velocity ecs.ComponentId
	Health   ecs.ComponentId
	Frozen   ecs.ComponentId
	Score    ecs.ComponentId
}

func newTestWorld(t testing.TB) (*ecs.World, testIds) {
	t.Helper()
	w := ecs.NewWorld(ecs.WorldConfig{Logger: ecslog.Nop})

	var ids testIds
	var err error
	ids.Position, err = ecs.RegisterComponentFor[Position](w)
	require.NoError(t, err)
	ids.Velocity, err = ecs.RegisterComponentFor[Velocity](w)
	require.NoError(t, err)
	ids.Health, err = ecs.RegisterComponentFor[Health](w)
	require.NoError(t, err)
	ids.Frozen, err = ecs.RegisterComponentFor[Frozen](w)
	require.NoError(t, err)
	ids.Score, err = ecs.RegisterComponentFor[Score](w)
	require.NoError(t, err)
	return w, ids
}

func mustArchetype(t testing.TB, w *ecs.World, components ...ecs.ComponentId) ecs.ArchetypeId {
	t.Helper()
	id, err := w.RegisterArchetype(ecs.BuildArchetype(components...))
	require.NoError(t, err)
	return id
}

func mustEntity(t testing.TB, w *ecs.World, archetype ecs.ArchetypeId) ecs.EntityId {
	t.Helper()
	e, err := w.CreateEntity(archetype)
	require.NoError(t, err)
	return e
}

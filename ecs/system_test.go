package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/colecs/ecs"
)

func TestSystemMovesPositions(t *testing.T) {
	w, ids := newTestWorld(t)
	arch := mustArchetype(t, w, ids.Position, ids.Velocity)

	var entities []ecs.EntityId
	for i := 0; i < 20; i++ {
		e := mustEntity(t, w, arch)
		require.NoError(t, ecs.Set(w, e, ids.Velocity, Velocity{DX: float32(i), DY: 1}))
		entities = append(entities, e)
	}

	q := ecs.NewQueryBuilder().With(ids.Position).With(ids.Velocity).Build()
	_, err := w.RegisterSystem("movement", q, func(it *ecs.Iterator, count int, dt float64) {
		pos := ecs.Column[Position](it, ids.Position)
		vel := ecs.Column[Velocity](it, ids.Velocity)
		for i := 0; i < count; i++ {
			pos[i].X += vel[i].DX * float32(dt)
			pos[i].Y += vel[i].DY * float32(dt)
		}
	})
	require.NoError(t, err)

	w.Step(0.5)
	w.Step(0.5)

	for i, e := range entities {
		p := ecs.Get[Position](w, e, ids.Position)
		require.NotNil(t, p)
		assert.Equal(t, Position{X: float32(i), Y: 1}, *p)
	}
}

func TestSystemRunsOncePerArchetype(t *testing.T) {
	w, ids := newTestWorld(t)
	a := mustArchetype(t, w, ids.Position)
	ab := mustArchetype(t, w, ids.Position, ids.Velocity)
	mustArchetype(t, w, ids.Velocity)
	for i := 0; i < 3; i++ {
		mustEntity(t, w, a)
	}
	for i := 0; i < 5; i++ {
		mustEntity(t, w, ab)
	}

	seen := map[ecs.ArchetypeId]int{}
	calls := 0
	_, err := w.RegisterSystem("count", ecs.NewQueryBuilder().With(ids.Position).Build(), func(it *ecs.Iterator, count int, dt float64) {
		calls++
		seen[it.Archetype()] = count
		assert.Equal(t, count, it.Count())
		assert.Len(t, it.Entities(), count)
	})
	require.NoError(t, err)

	w.Step(0)
	assert.Equal(t, 2, calls)
	assert.Equal(t, map[ecs.ArchetypeId]int{a: 3, ab: 5}, seen)
}

func TestSystemSeesArchetypesRegisteredLater(t *testing.T) {
	w, ids := newTestWorld(t)

	var seen []ecs.ArchetypeId
	_, err := w.RegisterSystem("health", ecs.NewQueryBuilder().With(ids.Health).Build(), func(it *ecs.Iterator, count int, dt float64) {
		seen = append(seen, it.Archetype())
	})
	require.NoError(t, err)

	w.Step(0)
	assert.Empty(t, seen)

	late := mustArchetype(t, w, ids.Health, ids.Score)
	e := mustEntity(t, w, mustArchetype(t, w, ids.Position))
	require.NoError(t, w.AddEntityComponent(e, ids.Health))
	derived, _ := w.EntityArchetype(e)

	w.Step(0)
	assert.ElementsMatch(t, []ecs.ArchetypeId{late, derived}, seen)
}

func TestSystemsRunInRegistrationOrder(t *testing.T) {
	w, ids := newTestWorld(t)
	mustEntity(t, w, mustArchetype(t, w, ids.Score))

	var order []string
	q := ecs.NewQueryBuilder().With(ids.Score).Build()
	for _, name := range []string{"first", "second", "third"} {
		_, err := w.RegisterSystem(name, q, func(it *ecs.Iterator, count int, dt float64) {
			order = append(order, name)
		})
		require.NoError(t, err)
	}

	w.Step(0)
	w.Step(0)
	assert.Equal(t, []string{"first", "second", "third", "first", "second", "third"}, order)
}

func TestSystemReceivesDeltaTime(t *testing.T) {
	w, ids := newTestWorld(t)
	mustEntity(t, w, mustArchetype(t, w, ids.Score))

	var got []float64
	_, err := w.RegisterSystem("dt", ecs.NewQueryBuilder().With(ids.Score).Build(), func(it *ecs.Iterator, count int, dt float64) {
		assert.Equal(t, dt, it.DeltaTime())
		got = append(got, dt)
	})
	require.NoError(t, err)

	w.Step(0.016)
	w.Step(0.25)
	assert.Equal(t, []float64{0.016, 0.25}, got)
}

func TestRegisterSystemErrors(t *testing.T) {
	w, ids := newTestWorld(t)

	_, err := w.RegisterSystem("nil", ecs.NewQueryBuilder().With(ids.Score).Build(), nil)
	assert.ErrorIs(t, err, ecs.ErrInvalidOperation)

	_, err = w.RegisterSystem("unknown", ecs.NewQueryBuilder().With(77).Build(), func(*ecs.Iterator, int, float64) {})
	assert.ErrorIs(t, err, ecs.ErrNotFound)
}

func TestStructuralChangesAreLockedDuringStep(t *testing.T) {
	w, ids := newTestWorld(t)
	arch := mustArchetype(t, w, ids.Position)
	e := mustEntity(t, w, arch)

	var errs []error
	_, err := w.RegisterSystem("mutator", ecs.NewQueryBuilder().With(ids.Position).Build(), func(it *ecs.Iterator, count int, dt float64) {
		_, err := w.CreateEntity(arch)
		errs = append(errs, err)
		errs = append(errs, w.DestroyEntity(e))
		errs = append(errs, w.AddEntityComponent(e, ids.Velocity))
		errs = append(errs, w.RemoveEntityComponent(e, ids.Position))
		_, err = w.RegisterArchetype(ecs.BuildArchetype(ids.Health))
		errs = append(errs, err)

		require.NoError(t, ecs.Set(w, e, ids.Position, Position{X: 4}))
	})
	require.NoError(t, err)

	w.Step(0)
	require.Len(t, errs, 5)
	for _, err := range errs {
		assert.ErrorIs(t, err, ecs.ErrWorldLocked)
	}

	assert.True(t, w.Alive(e))
	assert.Equal(t, Position{X: 4}, *ecs.Get[Position](w, e, ids.Position))
	_, err = w.CreateEntity(arch)
	assert.NoError(t, err, "the lock is released after the step")
}

func TestStepFromInsideSystemIsIgnored(t *testing.T) {
	w, ids := newTestWorld(t)
	mustEntity(t, w, mustArchetype(t, w, ids.Score))

	calls := 0
	_, err := w.RegisterSystem("reentrant", ecs.NewQueryBuilder().With(ids.Score).Build(), func(it *ecs.Iterator, count int, dt float64) {
		calls++
		w.Step(dt)
	})
	require.NoError(t, err)

	w.Step(0)
	assert.Equal(t, 1, calls)
}

func TestPanickingSystemReleasesLock(t *testing.T) {
	w, ids := newTestWorld(t)
	arch := mustArchetype(t, w, ids.Score)
	mustEntity(t, w, arch)

	fail := true
	_, err := w.RegisterSystem("faulty", ecs.NewQueryBuilder().With(ids.Score).Build(), func(it *ecs.Iterator, count int, dt float64) {
		if fail {
			panic("boom")
		}
	})
	require.NoError(t, err)

	assert.Panics(t, func() { w.Step(0) })

	_, err = w.CreateEntity(arch)
	assert.NoError(t, err, "the lock is released after a recovered panic")

	fail = false
	w.Step(0)
	assert.Equal(t, 2, w.CollectStats().TotalEntityCount)
}

func TestStats(t *testing.T) {
	w, ids := newTestWorld(t)
	mustEntity(t, w, mustArchetype(t, w, ids.Score))
	mustArchetype(t, w, ids.Score, ids.Health)

	fast, err := w.RegisterSystem("fast", ecs.NewQueryBuilder().With(ids.Score).Build(), func(*ecs.Iterator, int, float64) {})
	require.NoError(t, err)
	_, err = w.RegisterSystem("slow", ecs.NewQueryBuilder().With(ids.Health).Build(), func(*ecs.Iterator, int, float64) {
		time.Sleep(time.Millisecond)
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		w.Step(0)
	}

	stats := w.Stats()
	assert.Equal(t, 2, stats.SystemCount)
	assert.Equal(t, int64(6), stats.TotalExecutions)
	require.Len(t, stats.Systems, 2)

	assert.Equal(t, fast, stats.Systems[0].Id)
	assert.Equal(t, "fast", stats.Systems[0].Name)
	assert.Equal(t, 2, stats.Systems[0].Archetypes)
	assert.Equal(t, int64(3), stats.Systems[0].ExecutionCount)

	slow := stats.Systems[1]
	assert.Equal(t, 1, slow.Archetypes)
	assert.GreaterOrEqual(t, slow.MinDuration, time.Millisecond)
	assert.LessOrEqual(t, slow.MinDuration, slow.AvgDuration)
	assert.LessOrEqual(t, slow.AvgDuration, slow.MaxDuration)
	assert.Equal(t, slow.TotalDuration/3, slow.AvgDuration)
}

func TestRunStepsUntilCancelled(t *testing.T) {
	w, ids := newTestWorld(t)
	mustEntity(t, w, mustArchetype(t, w, ids.Score))

	ctx, cancel := context.WithCancel(context.Background())
	steps := 0
	_, err := w.RegisterSystem("ticker", ecs.NewQueryBuilder().With(ids.Score).Build(), func(it *ecs.Iterator, count int, dt float64) {
		assert.Greater(t, dt, 0.0)
		steps++
		if steps == 3 {
			cancel()
		}
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		w.Run(ctx, time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 3, steps)
}

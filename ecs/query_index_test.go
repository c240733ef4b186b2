package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/colecs/ecs/ecslog"
)

func newPlanner() (*archetypeIndex, *dependencyIndex, *queryIndex) {
	ai := newArchetypeIndex(ecslog.Nop)
	di := newDependencyIndex()
	qi := newQueryIndex(ai, di)
	ai.onRegister = func(id ArchetypeId, a Archetype) {
		di.add(id, a)
		qi.onArchetype(id, a)
	}
	return ai, di, qi
}

func TestDependencyIndexListsContainingArchetypes(t *testing.T) {
	ai, di, _ := newPlanner()
	ab := ai.register(BuildArchetype(1, 2))
	bc := ai.register(BuildArchetype(2, 3))
	abc := ai.register(BuildArchetype(1, 2, 3))

	assert.Equal(t, []ArchetypeId{ab, abc}, di.dependencies(1))
	assert.Equal(t, []ArchetypeId{ab, bc, abc}, di.dependencies(2))
	assert.Equal(t, []ArchetypeId{bc, abc}, di.dependencies(3))
	assert.Nil(t, di.dependencies(40))

	least, ok := di.leastDependencies([]ComponentId{2, 3, 1})
	require.True(t, ok)
	assert.Equal(t, ComponentId(3), least)

	least, _ = di.leastDependencies([]ComponentId{2, 40})
	assert.Equal(t, ComponentId(40), least)

	_, ok = di.leastDependencies(nil)
	assert.False(t, ok)
}

func TestQueryPlanMatchesSupersets(t *testing.T) {
	ai, _, qi := newPlanner()
	a := ai.register(BuildArchetype(1))
	ab := ai.register(BuildArchetype(1, 2))
	bc := ai.register(BuildArchetype(2, 3))
	abc := ai.register(BuildArchetype(1, 2, 3))

	cq := qi.resolve(NewQueryBuilder().With(2).With(1).Build())
	assert.Equal(t, []ArchetypeId{ab, abc}, cq.archetypes)

	all := qi.resolve(NewQueryBuilder().Build())
	assert.Equal(t, []ArchetypeId{a, ab, bc, abc}, all.archetypes)

	none := qi.resolve(NewQueryBuilder().With(9).Build())
	assert.Empty(t, none.archetypes)
}

func TestQueryResolveSharesIdenticalQueries(t *testing.T) {
	ai, _, qi := newPlanner()
	ai.register(BuildArchetype(1, 2))

	first := qi.resolve(NewQueryBuilder().With(1).With(2).Build())
	second := qi.resolve(NewQueryBuilder().With(2).With(1).With(2).Build())
	other := qi.resolve(NewQueryBuilder().With(1).Build())

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, qi.count())
}

func TestLaterArchetypesAttachToExistingQueries(t *testing.T) {
	ai, _, qi := newPlanner()
	cq := qi.resolve(NewQueryBuilder().With(1).With(2).Build())
	assert.Empty(t, cq.archetypes)

	ai.register(BuildArchetype(1))
	abc := ai.register(BuildArchetype(1, 2, 3))
	origin := ai.register(BuildArchetype(2, 5))
	derived, _ := ai.addComponent(origin, 1)

	assert.Equal(t, []ArchetypeId{abc, derived}, cq.archetypes)
}

func TestQueryPlanSkipsRemovedArchetypes(t *testing.T) {
	ai, _, qi := newPlanner()
	ab := ai.register(BuildArchetype(1, 2))
	abc := ai.register(BuildArchetype(1, 2, 3))
	ai.remove(ab)

	cq := qi.resolve(NewQueryBuilder().With(1).Build())
	assert.Equal(t, []ArchetypeId{abc}, cq.archetypes)
}

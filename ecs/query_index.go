package ecs

import (
	"github.com/kamstrup/intmap"

	"github.com/plus3/colecs/ecs/internal/hashmap"
)

// cachedQuery is a query together with every archetype known to satisfy it,
// in registration order.
type cachedQuery struct {
	query      Query
	archetypes []ArchetypeId
}

// queryIndex plans queries once and keeps their archetype lists current as
// new archetypes appear. Identical queries share a single cached list.
type queryIndex struct {
	queries    []*cachedQuery
	byHash     *intmap.Map[uint64, []int]
	archetypes *archetypeIndex
	deps       *dependencyIndex
}

func newQueryIndex(archetypes *archetypeIndex, deps *dependencyIndex) *queryIndex {
	return &queryIndex{
		byHash:     intmap.New[uint64, []int](16),
		archetypes: archetypes,
		deps:       deps,
	}
}

// resolve returns the cached entry for q, planning it on first use.
func (qi *queryIndex) resolve(q Query) *cachedQuery {
	h := q.components.hash(hashmap.BaseSeed)
	slots, _ := qi.byHash.Get(h)
	for _, i := range slots {
		if qi.queries[i].query.Equal(q) {
			return qi.queries[i]
		}
	}

	cq := &cachedQuery{query: q, archetypes: qi.plan(q)}
	qi.byHash.Put(h, append(slots, len(qi.queries)))
	qi.queries = append(qi.queries, cq)
	return cq
}

// plan narrows the candidates to the archetypes of the query's rarest
// component, then checks the remaining components against each candidate.
// An empty query matches every archetype.
func (qi *queryIndex) plan(q Query) []ArchetypeId {
	var matched []ArchetypeId

	rarest, ok := qi.deps.leastDependencies(q.components)
	if !ok {
		for _, info := range qi.archetypes.infos {
			if info != nil {
				matched = append(matched, info.id)
			}
		}
		return matched
	}

	for _, id := range qi.deps.dependencies(rarest) {
		info, ok := qi.archetypes.info(id)
		if !ok {
			continue
		}
		if q.Matches(info.archetype) {
			matched = append(matched, id)
		}
	}
	return matched
}

// onArchetype attaches a newly registered archetype to every existing query it
// satisfies. Queries planned afterwards find it through the dependency index.
func (qi *queryIndex) onArchetype(id ArchetypeId, a Archetype) {
	for _, cq := range qi.queries {
		if cq.query.Matches(a) {
			cq.archetypes = append(cq.archetypes, id)
		}
	}
}

func (qi *queryIndex) count() int {
	return len(qi.queries)
}

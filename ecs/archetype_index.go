package ecs

import (
	"github.com/plus3/colecs/ecs/ecslog"
	"github.com/plus3/colecs/ecs/internal/hashmap"
)

// archetypeInfo is a node of the transition graph. onAdd[c] and onRemove[c]
// memoize the archetype reached by adding or removing component c.
type archetypeInfo struct {
	id        ArchetypeId
	archetype Archetype
	onAdd     []ArchetypeId
	onRemove  []ArchetypeId
}

func newNavTable(n int) []ArchetypeId {
	t := make([]ArchetypeId, n)
	for i := range t {
		t[i] = invalidArchetype
	}
	return t
}

func navGet(table []ArchetypeId, c ComponentId) (ArchetypeId, bool) {
	if int(c) >= len(table) || table[c] == invalidArchetype {
		return invalidArchetype, false
	}
	return table[c], true
}

// navSet grows the table to at least c+1 entries before writing.
func navSet(table *[]ArchetypeId, c ComponentId, id ArchetypeId) {
	if int(c) >= len(*table) {
		n := max(2*len(*table), int(c)+1)
		grown := newNavTable(n)
		copy(grown, *table)
		*table = grown
	}
	(*table)[c] = id
}

// archetypeIndex maps component sets to archetype ids and owns the transition
// graph between them.
type archetypeIndex struct {
	infos  []*archetypeInfo
	ids    *hashmap.Map[Archetype, ArchetypeId]
	live   int
	logger ecslog.Logger

	// onRegister is called once for every archetype the index creates, whether
	// registered explicitly or derived from a transition.
	onRegister func(ArchetypeId, Archetype)
}

func newArchetypeIndex(logger ecslog.Logger) *archetypeIndex {
	return &archetypeIndex{
		infos:  make([]*archetypeInfo, 0, 16),
		ids:    hashmap.New[Archetype, ArchetypeId](16, archetypeHasher{}),
		logger: logger,
	}
}

// register returns the id of a, allocating the next sequential id on a miss.
func (ai *archetypeIndex) register(a Archetype) ArchetypeId {
	if id, ok := ai.ids.Get(a); ok {
		return id
	}

	id := ArchetypeId(len(ai.infos))
	info := &archetypeInfo{
		id:        id,
		archetype: a,
		onAdd:     newNavTable(a.Len()),
		onRemove:  newNavTable(a.Len()),
	}
	ai.infos = append(ai.infos, info)
	ai.ids.Put(a, id)
	ai.live++

	ai.logger.Debug("archetype registered", "archetype", id, "components", a.String(), "max_probe", ai.ids.MaxProbe())
	if ai.onRegister != nil {
		ai.onRegister(id, a)
	}
	return id
}

// id looks a up without registering it.
func (ai *archetypeIndex) id(a Archetype) (ArchetypeId, bool) {
	return ai.ids.Get(a)
}

func (ai *archetypeIndex) info(id ArchetypeId) (*archetypeInfo, bool) {
	if int(id) >= len(ai.infos) || ai.infos[id] == nil {
		return nil, false
	}
	return ai.infos[id], true
}

func (ai *archetypeIndex) link(from ArchetypeId, c ComponentId, to ArchetypeId) {
	navSet(&ai.infos[from].onAdd, c, to)
	navSet(&ai.infos[to].onRemove, c, from)
}

// addComponent follows or creates the edge origin --(+c)--> target. Both
// directions of the edge are memoized. Adding a component the origin already
// has returns the origin.
func (ai *archetypeIndex) addComponent(origin ArchetypeId, c ComponentId) (ArchetypeId, bool) {
	info, ok := ai.info(origin)
	if !ok {
		return invalidArchetype, false
	}
	if id, ok := navGet(info.onAdd, c); ok {
		return id, true
	}

	next, changed := info.archetype.components.insert(c)
	if !changed {
		return origin, true
	}
	target := ai.register(Archetype{components: next})
	ai.link(origin, c, target)
	return target, true
}

// removeComponent follows or creates the edge origin --(-c)--> target.
func (ai *archetypeIndex) removeComponent(origin ArchetypeId, c ComponentId) (ArchetypeId, bool) {
	info, ok := ai.info(origin)
	if !ok {
		return invalidArchetype, false
	}
	if id, ok := navGet(info.onRemove, c); ok {
		return id, true
	}

	next, changed := info.archetype.components.remove(c)
	if !changed {
		return origin, true
	}
	target := ai.register(Archetype{components: next})
	ai.link(target, c, origin)
	return target, true
}

// remove forgets an archetype. Edges of neighbouring archetypes that lead to
// it are cleared so every remaining edge still agrees with a fresh derivation.
// Dependency lists and cached query results are not touched.
func (ai *archetypeIndex) remove(id ArchetypeId) bool {
	info, ok := ai.info(id)
	if !ok {
		return false
	}
	for c, to := range info.onAdd {
		if n, ok := ai.info(to); ok {
			if back, ok := navGet(n.onRemove, ComponentId(c)); ok && back == id {
				n.onRemove[c] = invalidArchetype
			}
		}
	}
	for c, from := range info.onRemove {
		if n, ok := ai.info(from); ok {
			if fwd, ok := navGet(n.onAdd, ComponentId(c)); ok && fwd == id {
				n.onAdd[c] = invalidArchetype
			}
		}
	}
	ai.ids.Delete(info.archetype)
	ai.infos[id] = nil
	ai.live--
	return true
}

func (ai *archetypeIndex) count() int {
	return ai.live
}

func (ai *archetypeIndex) maxProbe() int {
	return ai.ids.MaxProbe()
}

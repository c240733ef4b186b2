package ecs

// dependencyIndex is the reverse index component -> archetypes containing it.
// Query planning walks the list of the rarest required component instead of
// every archetype.
type dependencyIndex struct {
	lists [][]ArchetypeId
}

func newDependencyIndex() *dependencyIndex {
	return &dependencyIndex{}
}

func (di *dependencyIndex) add(id ArchetypeId, a Archetype) {
	for _, c := range a.components {
		for int(c) >= len(di.lists) {
			di.lists = append(di.lists, nil)
		}
		di.lists[c] = append(di.lists[c], id)
	}
}

func (di *dependencyIndex) dependencies(c ComponentId) []ArchetypeId {
	if int(c) >= len(di.lists) {
		return nil
	}
	return di.lists[c]
}

// leastDependencies returns the component of components with the shortest
// archetype list.
func (di *dependencyIndex) leastDependencies(components []ComponentId) (ComponentId, bool) {
	if len(components) == 0 {
		return 0, false
	}
	best := components[0]
	bestLen := len(di.dependencies(best))
	for _, c := range components[1:] {
		if n := len(di.dependencies(c)); n < bestLen {
			best, bestLen = c, n
		}
	}
	return best, true
}

package ecs

import (
	"github.com/rotisserie/eris"

	"github.com/plus3/colecs/ecs/ecslog"
	"github.com/plus3/colecs/ecs/internal/hashmap"
)

// maxAlign is the strongest alignment column arenas guarantee.
const maxAlign = 8

// ComponentInfo describes a registered component type.
type ComponentInfo struct {
	Id    ComponentId
	Name  string
	Size  uintptr
	Align uintptr
}

type componentMeta struct {
	name  string
	size  uintptr
	align uintptr
	live  bool
}

// componentIndex assigns stable ids to component types. Removed slots are
// retired, never compacted.
type componentIndex struct {
	metas  []componentMeta
	names  *hashmap.Map[string, ComponentId]
	live   int
	logger ecslog.Logger
}

func newComponentIndex(logger ecslog.Logger) *componentIndex {
	return &componentIndex{
		metas:  make([]componentMeta, 0, 16),
		names:  hashmap.New[string, ComponentId](16, hashmap.StringHasher{}),
		logger: logger,
	}
}

// register is idempotent by name: a second registration returns the original
// id and ignores size and align.
func (ci *componentIndex) register(name string, size, align uintptr) (ComponentId, error) {
	if name == "" {
		return 0, eris.Wrap(ErrInvalidOperation, "component name is empty")
	}
	if id, ok := ci.names.Get(name); ok {
		return id, nil
	}
	if align == 0 || align&(align-1) != 0 || align > maxAlign {
		return 0, eris.Wrapf(ErrInvalidOperation, "component %q: alignment %d must be a power of two no greater than %d", name, align, maxAlign)
	}
	if size%align != 0 {
		return 0, eris.Wrapf(ErrInvalidOperation, "component %q: size %d is not a multiple of alignment %d", name, size, align)
	}

	if len(ci.metas) == cap(ci.metas) {
		grown := make([]componentMeta, len(ci.metas), 2*cap(ci.metas)+1)
		copy(grown, ci.metas)
		ci.metas = grown
	}
	id := ComponentId(len(ci.metas))
	ci.metas = append(ci.metas, componentMeta{name: name, size: size, align: align, live: true})
	ci.names.Put(name, id)
	ci.live++

	ci.logger.Debug("component registered", "component", name, "id", id, "size", size, "align", align)
	return id, nil
}

func (ci *componentIndex) lookup(id ComponentId) (componentMeta, bool) {
	if int(id) >= len(ci.metas) || !ci.metas[id].live {
		ci.logger.Warn("unknown component id", "component", id)
		return componentMeta{}, false
	}
	return ci.metas[id], true
}

func (ci *componentIndex) id(name string) (ComponentId, bool) {
	id, ok := ci.names.Get(name)
	if !ok {
		ci.logger.Warn("unknown component name", "component", name)
	}
	return id, ok
}

func (ci *componentIndex) size(id ComponentId) (uintptr, bool) {
	m, ok := ci.lookup(id)
	return m.size, ok
}

func (ci *componentIndex) align(id ComponentId) (uintptr, bool) {
	m, ok := ci.lookup(id)
	return m.align, ok
}

func (ci *componentIndex) name(id ComponentId) (string, bool) {
	m, ok := ci.lookup(id)
	return m.name, ok
}

func (ci *componentIndex) valid(id ComponentId) bool {
	return int(id) < len(ci.metas) && ci.metas[id].live
}

func (ci *componentIndex) info(id ComponentId) (ComponentInfo, bool) {
	m, ok := ci.lookup(id)
	if !ok {
		return ComponentInfo{}, false
	}
	return ComponentInfo{Id: id, Name: m.name, Size: m.size, Align: m.align}, true
}

// remove retires the slot. Archetypes that already reference id keep doing so.
func (ci *componentIndex) remove(id ComponentId) error {
	m, ok := ci.lookup(id)
	if !ok {
		return eris.Wrapf(ErrNotFound, "component %d", id)
	}
	ci.names.Delete(m.name)
	ci.metas[id] = componentMeta{}
	ci.live--
	return nil
}

func (ci *componentIndex) count() int {
	return ci.live
}

package ecs

import (
	"context"
	"log/slog"
	"reflect"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/plus3/colecs/ecs/ecslog"
	"github.com/plus3/colecs/ecs/ecslog/slogadapter"
)

// WorldConfig configures a World. Zero fields take defaults.
type WorldConfig struct {
	// ID identifies the world in logs and stats. A random id is generated when
	// left as uuid.Nil.
	ID uuid.UUID
	// Logger receives diagnostics. Defaults to slog.Default().
	Logger ecslog.Logger
	// InitialCapacity is the number of rows every new storage starts with.
	InitialCapacity int
}

// World owns every index of the runtime and is the only handle callers use.
// A World is not safe for concurrent use.
type World struct {
	id       uuid.UUID
	logger   ecslog.Logger
	capacity int

	components *componentIndex
	archetypes *archetypeIndex
	entities   *entityIndex
	storages   *storageIndex
	deps       *dependencyIndex
	queries    *queryIndex
	systems    *systemIndex

	iterator *Iterator
	commands *Commands
	stepping bool
	closed   bool
}

// NewWorld creates an empty world.
func NewWorld(cfg WorldConfig) *World {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slogadapter.New(slog.Default())
	}
	if cfg.InitialCapacity <= 0 {
		cfg.InitialCapacity = defaultStorageCapacity
	}
	logger := ecslog.With(cfg.Logger, "world", cfg.ID.String())

	w := &World{
		id:         cfg.ID,
		logger:     logger,
		capacity:   cfg.InitialCapacity,
		components: newComponentIndex(logger),
		archetypes: newArchetypeIndex(logger),
		entities:   newEntityIndex(cfg.InitialCapacity),
		storages:   newStorageIndex(),
		deps:       newDependencyIndex(),
		systems:    newSystemIndex(logger),
		commands:   newCommands(),
	}
	w.queries = newQueryIndex(w.archetypes, w.deps)
	w.iterator = &Iterator{commands: w.commands}
	w.archetypes.onRegister = w.archetypeRegistered

	logger.Debug("world created")
	return w
}

// ID returns the world's identity.
func (w *World) ID() uuid.UUID {
	return w.id
}

// Close releases every index. All later calls fail with ErrClosed or report
// not found.
func (w *World) Close() {
	if w.closed {
		return
	}
	w.logger.Debug("world closed", "entities", w.entities.len(), "archetypes", w.archetypes.count())
	w.closed = true
	w.components = newComponentIndex(w.logger)
	w.archetypes = newArchetypeIndex(w.logger)
	w.entities = newEntityIndex(0)
	w.storages = newStorageIndex()
	w.deps = newDependencyIndex()
	w.queries = newQueryIndex(w.archetypes, w.deps)
	w.systems = newSystemIndex(w.logger)
	w.commands = newCommands()
	w.iterator = &Iterator{commands: w.commands}
}

func (w *World) checkOpen(op string) error {
	if w.closed {
		return eris.Wrap(ErrClosed, op)
	}
	return nil
}

// checkStructural guards calls that may reallocate storages.
func (w *World) checkStructural(op string) error {
	if err := w.checkOpen(op); err != nil {
		return err
	}
	if w.stepping {
		return eris.Wrap(ErrWorldLocked, op)
	}
	return nil
}

// archetypeRegistered gives every new archetype its storage, indexes it by
// component and attaches it to the queries that already exist.
func (w *World) archetypeRegistered(id ArchetypeId, a Archetype) {
	sizes := make([]uintptr, a.Len())
	for i, c := range a.components {
		size, ok := w.components.size(c)
		if !ok {
			w.logger.Warn("archetype references a removed component", "archetype", id, "component", c)
		}
		sizes[i] = size
	}
	w.storages.put(id, newStorage(id, a, sizes, w.capacity))
	w.deps.add(id, a)
	w.queries.onArchetype(id, a)
}

// RegisterComponent registers a component type. Registering a name twice
// returns the id of the first registration.
func (w *World) RegisterComponent(name string, size, align uintptr) (ComponentId, error) {
	if err := w.checkOpen("register component"); err != nil {
		return 0, err
	}
	return w.components.register(name, size, align)
}

// RegisterComponentFor registers T under its Go type name. T must not contain
// Go pointers, strings, slices, maps or interfaces.
func RegisterComponentFor[T any](w *World) (ComponentId, error) {
	return w.registerType(reflect.TypeFor[T]())
}

// ComponentIdFor looks up the id RegisterComponentFor assigned to T.
func ComponentIdFor[T any](w *World) (ComponentId, bool) {
	return w.ComponentId(reflect.TypeFor[T]().String())
}

// UnregisterComponent retires a component id. Archetypes, storages, dependency
// lists and systems that already reference it are left as they are.
func (w *World) UnregisterComponent(c ComponentId) error {
	if err := w.checkStructural("unregister component"); err != nil {
		return err
	}
	if err := w.components.remove(c); err != nil {
		return err
	}
	if n := len(w.deps.dependencies(c)); n > 0 {
		w.logger.Warn("removed component is still referenced", "component", c, "archetypes", n)
	}
	return nil
}

// ComponentId returns the id registered for name.
func (w *World) ComponentId(name string) (ComponentId, bool) {
	return w.components.id(name)
}

// ComponentInfo returns the metadata of a registered component.
func (w *World) ComponentInfo(c ComponentId) (ComponentInfo, bool) {
	return w.components.info(c)
}

// RegisterArchetype returns the id of a, registering it on first use. Every
// component of a must be registered.
func (w *World) RegisterArchetype(a Archetype) (ArchetypeId, error) {
	if err := w.checkStructural("register archetype"); err != nil {
		return 0, err
	}
	for _, c := range a.components {
		if !w.components.valid(c) {
			return 0, eris.Wrapf(ErrNotFound, "archetype %s: component %d", a, c)
		}
	}
	return w.archetypes.register(a), nil
}

// ArchetypeId looks a up without registering it.
func (w *World) ArchetypeId(a Archetype) (ArchetypeId, bool) {
	return w.archetypes.id(a)
}

// Archetype returns the component set of a registered archetype.
func (w *World) Archetype(id ArchetypeId) (Archetype, bool) {
	info, ok := w.archetypes.info(id)
	if !ok {
		return Archetype{}, false
	}
	return info.archetype, true
}

// UnregisterArchetype forgets an archetype that holds no entities. Systems
// that matched it keep it in their lists and skip it from then on.
func (w *World) UnregisterArchetype(id ArchetypeId) error {
	if err := w.checkStructural("unregister archetype"); err != nil {
		return err
	}
	s, ok := w.storages.get(id)
	if !ok {
		return eris.Wrapf(ErrNotFound, "archetype %d", id)
	}
	if s.count > 0 {
		return eris.Wrapf(ErrInvalidOperation, "archetype %d still holds %d entities", id, s.count)
	}
	w.archetypes.remove(id)
	w.storages.remove(id)
	w.logger.Warn("archetype removed; dependency lists and systems keep stale references", "archetype", id)
	return nil
}

// CreateEntity creates an entity in archetype. Its components start zeroed.
func (w *World) CreateEntity(archetype ArchetypeId) (EntityId, error) {
	if err := w.checkStructural("create entity"); err != nil {
		return 0, err
	}
	s, ok := w.storages.get(archetype)
	if !ok {
		return 0, eris.Wrapf(ErrNotFound, "archetype %d", archetype)
	}
	e := w.entities.newEntity()
	row := s.addEntity(e)
	w.entities.set(e, row, archetype, s)
	if w.logger.Enabled(ecslog.LevelTrace) {
		w.logger.Trace("entity created", "entity", e, "archetype", archetype, "row", row)
	}
	return e, nil
}

func (w *World) record(e EntityId) (entityRecord, error) {
	if !w.entities.alive(e) {
		return entityRecord{}, eris.Wrapf(ErrInvalidOperation, "entity %d is not alive", e)
	}
	return w.entities.get(e), nil
}

// DestroyEntity removes an entity and recycles its id.
func (w *World) DestroyEntity(e EntityId) error {
	if err := w.checkStructural("destroy entity"); err != nil {
		return err
	}
	rec, err := w.record(e)
	if err != nil {
		return err
	}
	if moved, ok := rec.storage.removeEntity(rec.row); ok {
		w.entities.set(moved, rec.row, rec.archetype, rec.storage)
	}
	w.entities.remove(e)
	if w.logger.Enabled(ecslog.LevelTrace) {
		w.logger.Trace("entity destroyed", "entity", e, "archetype", rec.archetype)
	}
	return nil
}

// Alive reports whether e refers to a live entity.
func (w *World) Alive(e EntityId) bool {
	return w.entities.alive(e)
}

// EntityArchetype returns the archetype e currently belongs to.
func (w *World) EntityArchetype(e EntityId) (ArchetypeId, bool) {
	if !w.entities.alive(e) {
		return 0, false
	}
	return w.entities.get(e).archetype, true
}

// EntityComponent returns the bytes of component c of e. The slice aliases
// storage and is invalidated by the next structural change.
func (w *World) EntityComponent(e EntityId, c ComponentId) ([]byte, bool) {
	if !w.entities.alive(e) {
		w.logger.Warn("component read on dead entity", "entity", e, "component", c)
		return nil, false
	}
	rec := w.entities.get(e)
	return rec.storage.component(rec.row, c)
}

// SetEntityComponent overwrites component c of e with data, which must be
// exactly the component's size.
func (w *World) SetEntityComponent(e EntityId, c ComponentId, data []byte) error {
	if err := w.checkOpen("set component"); err != nil {
		return err
	}
	rec, err := w.record(e)
	if err != nil {
		return err
	}
	size, ok := w.components.size(c)
	if !ok {
		return eris.Wrapf(ErrNotFound, "component %d", c)
	}
	if uintptr(len(data)) != size {
		return eris.Wrapf(ErrInvalidOperation, "component %d has size %d, got %d bytes", c, size, len(data))
	}
	if !rec.storage.setComponent(rec.row, c, data) {
		return eris.Wrapf(ErrNotFound, "entity %d has no component %d", e, c)
	}
	return nil
}

// AddEntityComponent moves e to the archetype that also has c. The new
// component starts zeroed; every other component keeps its bytes. Adding a
// component e already has does nothing.
func (w *World) AddEntityComponent(e EntityId, c ComponentId) error {
	if err := w.checkStructural("add component"); err != nil {
		return err
	}
	rec, err := w.record(e)
	if err != nil {
		return err
	}
	if !w.components.valid(c) {
		return eris.Wrapf(ErrNotFound, "component %d", c)
	}
	if rec.storage.components.has(c) {
		return nil
	}
	target, ok := w.archetypes.addComponent(rec.archetype, c)
	if !ok {
		return eris.Wrapf(ErrInvalidOperation, "entity %d: archetype %d is gone", e, rec.archetype)
	}
	return w.migrate(e, rec, target)
}

// RemoveEntityComponent moves e to the archetype without c.
func (w *World) RemoveEntityComponent(e EntityId, c ComponentId) error {
	if err := w.checkStructural("remove component"); err != nil {
		return err
	}
	rec, err := w.record(e)
	if err != nil {
		return err
	}
	if !rec.storage.components.has(c) {
		return eris.Wrapf(ErrNotFound, "entity %d has no component %d", e, c)
	}
	target, ok := w.archetypes.removeComponent(rec.archetype, c)
	if !ok {
		return eris.Wrapf(ErrInvalidOperation, "entity %d: archetype %d is gone", e, rec.archetype)
	}
	return w.migrate(e, rec, target)
}

func (w *World) migrate(e EntityId, rec entityRecord, target ArchetypeId) error {
	dst, ok := w.storages.get(target)
	if !ok {
		return eris.Wrapf(ErrNotFound, "storage for archetype %d", target)
	}
	row, moved, ok := moveEntity(rec.storage, dst, e, rec.row)
	if ok {
		w.entities.set(moved, rec.row, rec.archetype, rec.storage)
	}
	w.entities.set(e, row, target, dst)
	if w.logger.Enabled(ecslog.LevelTrace) {
		w.logger.Trace("entity migrated", "entity", e, "from", rec.archetype, "to", target)
	}
	return nil
}

// Get returns component c of e as a *T, or nil if e lacks it. The pointer is
// invalidated by the next structural change.
func Get[T any](w *World, e EntityId, c ComponentId) *T {
	b, ok := w.EntityComponent(e, c)
	if !ok {
		return nil
	}
	var zero T
	if uintptr(len(b)) != unsafe.Sizeof(zero) {
		w.logger.Warn("component size mismatch", "component", c, "size", len(b), "type", reflect.TypeFor[T]().String())
		return nil
	}
	return (*T)(bytePointer(b))
}

// Set writes v into component c of e.
func Set[T any](w *World, e EntityId, c ComponentId, v T) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
	return w.SetEntityComponent(e, c, b)
}

// RegisterSystem binds fn to q. The system sees every archetype matching q,
// including archetypes registered later.
func (w *World) RegisterSystem(name string, q Query, fn SystemFunc) (SystemId, error) {
	if err := w.checkStructural("register system"); err != nil {
		return 0, err
	}
	if fn == nil {
		return 0, eris.Wrapf(ErrInvalidOperation, "system %q has no callback", name)
	}
	for _, c := range q.components {
		if !w.components.valid(c) {
			return 0, eris.Wrapf(ErrNotFound, "system %q: component %d", name, c)
		}
	}
	return w.systems.register(name, w.queries.resolve(q), fn), nil
}

// Step runs every system once, then applies the commands they queued.
func (w *World) Step(dt float64) {
	if w.closed {
		return
	}
	if w.stepping {
		w.logger.Error("step called from inside a system")
		return
	}

	w.runSystems(dt)

	if err := w.commands.flush(w); err != nil {
		w.logger.Error("applying queued commands", "error", err)
	}
}

// runSystems holds the structural lock for the duration of the systems. The
// lock is released even if a system panics.
func (w *World) runSystems(dt float64) {
	w.stepping = true
	defer func() {
		w.iterator.storage = nil
		w.stepping = false
	}()
	w.systems.step(w.storages, w.iterator, dt)
}

// Run steps the world at the given interval until the context is cancelled.
func (w *World) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			w.Step(dt)
		}
	}
}

// Stats returns statistics about system execution.
func (w *World) Stats() *SchedulerStats {
	return w.systems.stats()
}

package ecs

import (
	"errors"
	"slices"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

// Commands provides a buffer for structural changes requested while systems
// run. They are applied when the step completes, so no storage is reallocated
// under an in-flight iterator.
type Commands struct {
	queued   commandBuffer
	applying commandBuffer
}

// maxFlushRounds bounds how many times flush drains commands queued by the
// commands it is applying.
const maxFlushRounds = 64

func newCommands() *Commands {
	return &Commands{}
}

type commandBuffer struct {
	creates []createCommand
	deletes []EntityId
	adds    []componentCommand
	removes []componentCommand
	sets    []setCommand
	defers  []func()
}

func (b *commandBuffer) len() int {
	return len(b.creates) + len(b.deletes) + len(b.adds) + len(b.removes) + len(b.sets) + len(b.defers)
}

func (b *commandBuffer) reset() {
	clear(b.creates)
	clear(b.sets)
	clear(b.defers)
	b.creates = b.creates[:0]
	b.deletes = b.deletes[:0]
	b.adds = b.adds[:0]
	b.removes = b.removes[:0]
	b.sets = b.sets[:0]
	b.defers = b.defers[:0]
}

type createCommand struct {
	archetype ArchetypeId
	init      func(EntityId)
}

type componentCommand struct {
	entity    EntityId
	component ComponentId
}

type setCommand struct {
	entity    EntityId
	component ComponentId
	data      []byte
}

// CreateEntity queues the creation of an entity in archetype. init, if not
// nil, is called with the new entity once it exists.
func (c *Commands) CreateEntity(archetype ArchetypeId, init func(EntityId)) {
	c.queued.creates = append(c.queued.creates, createCommand{archetype: archetype, init: init})
}

// DestroyEntity queues an entity deletion.
func (c *Commands) DestroyEntity(entity EntityId) {
	c.queued.deletes = append(c.queued.deletes, entity)
}

// AddComponent queues a component addition.
func (c *Commands) AddComponent(entity EntityId, component ComponentId) {
	c.queued.adds = append(c.queued.adds, componentCommand{entity: entity, component: component})
}

// RemoveComponent queues a component removal.
func (c *Commands) RemoveComponent(entity EntityId, component ComponentId) {
	c.queued.removes = append(c.queued.removes, componentCommand{entity: entity, component: component})
}

// SetComponent queues a component write applied after additions, so it can
// target a component added in the same step. data is copied.
func (c *Commands) SetComponent(entity EntityId, component ComponentId, data []byte) {
	c.queued.sets = append(c.queued.sets, setCommand{entity: entity, component: component, data: slices.Clone(data)})
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.queued.defers = append(c.queued.defers, fn)
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return c.queued.len()
}

// flush applies every queued operation to w and resets the buffer. Commands
// queued while flushing, from create callbacks or deferred functions, are
// applied by the same flush in a later round. Operations targeting an entity
// deleted in the same flush are skipped. Failures do not stop the flush; they
// are joined into the returned error.
func (c *Commands) flush(w *World) error {
	if c.Len() == 0 {
		return nil
	}

	var errs []error
	deleted := intmap.New[EntityId, struct{}](len(c.queued.deletes))

	for round := 0; c.Len() > 0; round++ {
		if round == maxFlushRounds {
			errs = append(errs, eris.Wrapf(ErrInvalidOperation, "%d commands still queued after %d rounds", c.Len(), round))
			break
		}
		c.queued, c.applying = c.applying, c.queued
		errs = c.applying.apply(w, deleted, errs)
		c.applying.reset()
	}
	return errors.Join(errs...)
}

func (b *commandBuffer) apply(w *World, deleted *intmap.Map[EntityId, struct{}], errs []error) []error {
	for _, e := range b.deletes {
		if deleted.Has(e) {
			continue
		}
		if err := w.DestroyEntity(e); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted.Put(e, struct{}{})
	}

	for _, cmd := range b.removes {
		if !deleted.Has(cmd.entity) {
			if err := w.RemoveEntityComponent(cmd.entity, cmd.component); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, cmd := range b.adds {
		if !deleted.Has(cmd.entity) {
			if err := w.AddEntityComponent(cmd.entity, cmd.component); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, cmd := range b.sets {
		if !deleted.Has(cmd.entity) {
			if err := w.SetEntityComponent(cmd.entity, cmd.component, cmd.data); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, cmd := range b.creates {
		e, err := w.CreateEntity(cmd.archetype)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if cmd.init != nil {
			cmd.init(e)
		}
	}

	for _, fn := range b.defers {
		fn()
	}
	return errs
}

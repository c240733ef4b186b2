package ecs

import "math"

// ComponentId identifies a registered component type. Ids are never reassigned
// while the world lives.
type ComponentId uint32

// ArchetypeId identifies a registered archetype.
type ArchetypeId uint32

// EntityId identifies an entity. Ids of destroyed entities are recycled.
type EntityId uint32

// SystemId identifies a registered system.
type SystemId uint32

const invalidArchetype = ArchetypeId(math.MaxUint32)

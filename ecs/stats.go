package ecs

import "github.com/google/uuid"

// StorageStats is a snapshot of the world's storage layout.
type StorageStats struct {
	WorldID            uuid.UUID
	ComponentCount     int
	ArchetypeCount     int
	QueryCount         int
	TotalEntityCount   int
	ArchetypeMaxProbe  int
	ArchetypeBreakdown []ArchetypeStats
}

// ArchetypeStats describes one archetype's storage.
type ArchetypeStats struct {
	Id          ArchetypeId
	Components  []string
	EntityCount int
	Capacity    int
	BytesPerRow uintptr
}

// CollectStats walks every storage. It is meant for diagnostics, not for the
// hot path.
func (w *World) CollectStats() StorageStats {
	stats := StorageStats{
		WorldID:           w.id,
		ComponentCount:    w.components.count(),
		ArchetypeCount:    w.archetypes.count(),
		QueryCount:        w.queries.count(),
		TotalEntityCount:  w.entities.len(),
		ArchetypeMaxProbe: w.archetypes.maxProbe(),
	}

	for id, s := range w.storages.all() {
		arch := ArchetypeStats{
			Id:          id,
			Components:  make([]string, 0, len(s.components)),
			EntityCount: s.count,
			Capacity:    s.capacity,
		}
		for i, c := range s.components {
			name := w.components.metas[c].name
			if name == "" {
				name = "<removed>"
			}
			arch.Components = append(arch.Components, name)
			arch.BytesPerRow += s.columns[i].size
		}
		stats.ArchetypeBreakdown = append(stats.ArchetypeBreakdown, arch)
	}
	return stats
}

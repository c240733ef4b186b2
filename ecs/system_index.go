package ecs

import (
	"time"

	"github.com/plus3/colecs/ecs/ecslog"
)

// SystemFunc is invoked once per matched archetype per step, never once per
// entity. It owns the loop over the iterator's columns.
type SystemFunc func(it *Iterator, count int, dt float64)

// SchedulerStats provides statistics about system execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Id             SystemId
	Name           string
	Archetypes     int
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (s *systemStatsInternal) record(d time.Duration) {
	s.executionCount++
	s.lastDuration = d
	s.totalDuration += d
	if d < s.minDuration {
		s.minDuration = d
	}
	if d > s.maxDuration {
		s.maxDuration = d
	}
}

// runner binds a system callback to its cached query.
type runner struct {
	id    SystemId
	name  string
	query *cachedQuery
	fn    SystemFunc
	stats systemStatsInternal
}

// systemIndex runs systems in registration order.
type systemIndex struct {
	runners []*runner
	logger  ecslog.Logger
}

func newSystemIndex(logger ecslog.Logger) *systemIndex {
	return &systemIndex{logger: logger}
}

func (si *systemIndex) register(name string, cq *cachedQuery, fn SystemFunc) SystemId {
	id := SystemId(len(si.runners))
	si.runners = append(si.runners, &runner{
		id:    id,
		name:  name,
		query: cq,
		fn:    fn,
		stats: systemStatsInternal{minDuration: time.Duration(1<<63 - 1)},
	})
	si.logger.Debug("system registered", "system", name, "id", id, "archetypes", len(cq.archetypes))
	return id
}

// step runs every runner over every matched archetype, strictly in order.
func (si *systemIndex) step(storages *storageIndex, it *Iterator, dt float64) {
	it.dt = dt
	for _, r := range si.runners {
		start := time.Now()
		for _, id := range r.query.archetypes {
			s, ok := storages.get(id)
			if !ok {
				if si.logger.Enabled(ecslog.LevelTrace) {
					si.logger.Trace("skipping archetype without storage", "system", r.name, "archetype", id)
				}
				continue
			}
			it.storage = s
			r.fn(it, s.count, dt)
		}
		it.storage = nil
		r.stats.record(time.Since(start))
	}
}

func (si *systemIndex) stats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(si.runners),
		Systems:     make([]SystemStats, len(si.runners)),
	}

	var totalExecs int64
	for i, r := range si.runners {
		internal := &r.stats
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}

		stats.Systems[i] = SystemStats{
			Id:             r.id,
			Name:           r.name,
			Archetypes:     len(r.query.archetypes),
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}

package main

import (
	"cmp"
	"fmt"
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/colecs/ecs"
)

// topSystems is how many systems the report lists.
const topSystems = 10

type Report struct {
	Config Config

	// Results
	TotalUpdates  int64
	TotalTime     time.Duration
	UpdateTime    Stats
	MemStatsStart runtime.MemStats
	MemStatsEnd   runtime.MemStats
	Storage       ecs.StorageStats
	Scheduler     *ecs.SchedulerStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	P99     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))

	sorted := slices.Clone(s.Samples)
	slices.Sort(sorted)
	s.P99 = sorted[(len(sorted)-1)*99/100]
}

// SlowestSystems returns up to topSystems systems ordered by total duration.
func (r *Report) SlowestSystems() []ecs.SystemStats {
	if r.Scheduler == nil {
		return nil
	}
	systems := slices.Clone(r.Scheduler.Systems)
	slices.SortFunc(systems, func(a, b ecs.SystemStats) int {
		return cmp.Compare(b.TotalDuration, a.TotalDuration)
	})
	if len(systems) > topSystems {
		systems = systems[:topSystems]
	}
	return systems
}

// LargestArchetypes returns up to topSystems archetypes ordered by entity count.
func (r *Report) LargestArchetypes() []ecs.ArchetypeStats {
	archetypes := slices.Clone(r.Storage.ArchetypeBreakdown)
	slices.SortStableFunc(archetypes, func(a, b ecs.ArchetypeStats) int {
		return cmp.Compare(b.EntityCount, a.EntityCount)
	})
	if len(archetypes) > topSystems {
		archetypes = archetypes[:topSystems]
	}
	return archetypes
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **World:** {{.Storage.WorldID}}
- **Run Duration:** {{.Config.Duration}}
- **Initial Entities:** {{.Config.Entities}}
- **Generated Components:** {{.Config.Components}}
- **Generated Systems:** {{.Config.Systems}}
- **Churn Rate:** {{.Config.ChurnRate}}
- **Seed:** {{.Config.Seed}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
  - **P99:** {{.UpdateTime.P99}}

## Storage
- **Components:** {{.Storage.ComponentCount}}
- **Archetypes:** {{.Storage.ArchetypeCount}}
- **Cached Queries:** {{.Storage.QueryCount}}
- **Live Entities:** {{.Storage.TotalEntityCount}}
- **Archetype Table Max Probe:** {{.Storage.ArchetypeMaxProbe}}
{{range .LargestArchetypes}}  - archetype {{.Id}}: {{.EntityCount}}/{{.Capacity}} rows, {{.BytesPerRow}} bytes/row, {{len .Components}} components
{{end}}
{{with .Scheduler}}## Systems
- **Systems:** {{.SystemCount}}
- **Total Executions:** {{.TotalExecutions}}
{{end}}{{range .SlowestSystems}}  - {{.Name}} ({{.Archetypes}} archetypes): total {{.TotalDuration}}, avg {{.AvgDuration}}, max {{.MaxDuration}}
{{end}}
## Memory Usage
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} MB (start) -> {{mb .MemStatsEnd.HeapAlloc}} MB (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .Config.GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

	fm := template.FuncMap{
		"mb": func(v any) string {
			switch val := v.(type) {
			case uint64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			case int64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			default:
				return "N/A"
			}
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}

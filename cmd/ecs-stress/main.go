package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/profile"

	"github.com/plus3/colecs/ecs"
	"github.com/plus3/colecs/ecs/ecslog/slogadapter"
)

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		slog.Error("stress test failed", "error", err)
		os.Exit(1)
	}
}

// profileOption maps a profile mode to its pkg/profile option.
func profileOption(mode string) func(*profile.Profile) {
	switch mode {
	case "cpu":
		return profile.CPUProfile
	case "mem":
		return profile.MemProfile
	case "alloc":
		return profile.MemProfileAllocs
	case "block":
		return profile.BlockProfile
	case "mutex":
		return profile.MutexProfile
	case "trace":
		return profile.TraceProfile
	}
	return nil
}

func run(cfg Config) error {
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("starting ECS stress test", "entities", cfg.Entities, "components", cfg.Components, "systems", cfg.Systems)

	// 1. Setup the world and the generated components and systems
	world := ecs.NewWorld(ecs.WorldConfig{
		ID:     uuid.New(),
		Logger: slogadapter.New(logger),
	})
	defer world.Close()

	gen := NewGenerator(world, cfg)
	if err := gen.RegisterComponents(); err != nil {
		return err
	}
	if err := gen.RegisterSystems(); err != nil {
		return err
	}

	// 2. Populate the world with initial entities
	logger.Info("populating world", "entities", cfg.Entities)
	if err := gen.Populate(cfg.Entities); err != nil {
		return err
	}
	logger.Info("population complete")

	// 3. Run the simulation loop
	report := &Report{
		Config: cfg,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	if opt := profileOption(cfg.Profile); opt != nil {
		p := profile.Start(opt, profile.ProfilePath(cfg.ProfilePath), profile.NoShutdownHook, profile.Quiet)
		defer p.Stop()
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info("running simulation", "duration", cfg.Duration)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	startTime := time.Now()
	var totalUpdates int64
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			world.Step(deltaTime.Seconds())
			updateDuration := time.Since(updateStart)

			report.UpdateTime.Samples = append(report.UpdateTime.Samples, updateDuration)
			totalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = totalUpdates
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)
	report.Storage = world.CollectStats()
	report.Scheduler = world.Stats()

	logger.Info("simulation finished", "updates", totalUpdates)

	// 4. Generate Report to Console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Println("--- End of Report ---")
	return nil
}

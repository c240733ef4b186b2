package main

import (
	"fmt"
	"math/rand"

	"github.com/plus3/colecs/ecs"
)

// Generator registers synthetic components and systems and spawns entities
// over them. It is deterministic for a given seed.
type Generator struct {
	world      *ecs.World
	rng        *rand.Rand
	cfg        Config
	components []ecs.ComponentId
}

func NewGenerator(w *ecs.World, cfg Config) *Generator {
	return &Generator{
		world: w,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		cfg:   cfg,
	}
}

// componentShape returns the size and alignment of the i-th generated
// component: sizes cycle through 4..64 bytes.
func componentShape(i int) (size, align uintptr) {
	size = uintptr(4 * (1 + i%16))
	align = 4
	if size%8 == 0 {
		align = 8
	}
	return size, align
}

// RegisterComponents registers cfg.Components components named stress.C<i>.
func (g *Generator) RegisterComponents() error {
	g.components = make([]ecs.ComponentId, 0, g.cfg.Components)
	for i := 0; i < g.cfg.Components; i++ {
		size, align := componentShape(i)
		id, err := g.world.RegisterComponent(fmt.Sprintf("stress.C%d", i), size, align)
		if err != nil {
			return err
		}
		g.components = append(g.components, id)
	}
	return nil
}

// pick returns n distinct random components.
func (g *Generator) pick(n int) []ecs.ComponentId {
	picked := make([]ecs.ComponentId, 0, n)
	for _, i := range g.rng.Perm(len(g.components))[:n] {
		picked = append(picked, g.components[i])
	}
	return picked
}

// RegisterSystems registers cfg.Systems systems that each rewrite every byte
// of the columns they query, plus the churn system when ChurnRate is set.
func (g *Generator) RegisterSystems() error {
	for i := 0; i < g.cfg.Systems; i++ {
		qb := ecs.NewQueryBuilder()
		for _, c := range g.pick(g.cfg.ComponentsPerSystem) {
			qb.With(c)
		}
		q := qb.Build()
		cols := q.Components()
		_, err := g.world.RegisterSystem(fmt.Sprintf("stress.S%d", i), q, func(it *ecs.Iterator, count int, dt float64) {
			for _, c := range cols {
				data, _ := it.ComponentArray(c)
				for j := range data {
					data[j]++
				}
			}
		})
		if err != nil {
			return err
		}
	}

	if g.cfg.ChurnRate > 0 {
		if _, err := g.world.RegisterSystem("stress.churn", ecs.NewQueryBuilder().Build(), g.churn); err != nil {
			return err
		}
	}
	return nil
}

// churn queues structural changes for a fraction of the entities of every
// archetype: adding or removing a component, or replacing the entity.
func (g *Generator) churn(it *ecs.Iterator, count int, dt float64) {
	arch, ok := g.world.Archetype(it.Archetype())
	if !ok {
		return
	}
	have := arch.Components()
	cmd := it.Commands()

	for _, e := range it.Entities() {
		if g.rng.Float64() >= g.cfg.ChurnRate {
			continue
		}
		switch g.rng.Intn(3) {
		case 0:
			if len(have) < g.cfg.MaxComponentsPerEntity {
				cmd.AddComponent(e, g.components[g.rng.Intn(len(g.components))])
			}
		case 1:
			if len(have) > 1 {
				cmd.RemoveComponent(e, have[g.rng.Intn(len(have))])
			}
		default:
			cmd.DestroyEntity(e)
			a := g.randomSet()
			if target, ok := g.world.ArchetypeId(a); ok {
				cmd.CreateEntity(target, nil)
				continue
			}
			cmd.Defer(func() {
				if target, err := g.world.RegisterArchetype(a); err == nil {
					_, _ = g.world.CreateEntity(target)
				}
			})
		}
	}
}

// randomSet returns an archetype of 1..MaxComponentsPerEntity random components.
func (g *Generator) randomSet() ecs.Archetype {
	return ecs.BuildArchetype(g.pick(1 + g.rng.Intn(g.cfg.MaxComponentsPerEntity))...)
}

// Populate spawns n entities over random archetypes.
func (g *Generator) Populate(n int) error {
	for i := 0; i < n; i++ {
		target, err := g.world.RegisterArchetype(g.randomSet())
		if err != nil {
			return err
		}
		if _, err := g.world.CreateEntity(target); err != nil {
			return err
		}
	}
	return nil
}

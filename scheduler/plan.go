// Package scheduler turns the channel accesses of a list of systems into a dependency graph that
// lets non-conflicting systems run at the same time.
package scheduler

import (
	"slices"

	"pkg.world.dev/world-engine/strata/query"
	"pkg.world.dev/world-engine/strata/types"
)

// Spec describes one registered system to the planner.
type Spec struct {
	Name      string
	Exclusive bool
	// Accesses is ignored for exclusive systems.
	Accesses []query.Access
}

// Node is a system inside a phase. WaitingOn counts the nodes that must finish before it starts and
// Wakes lists the nodes whose count drops when it finishes.
type Node struct {
	// System is the registration index, or -1 for the root of a phase without an exclusive system.
	System    int
	WaitingOn int
	Wakes     []int
}

// Phase is the part of a schedule between two exclusive systems. Nodes[0] is the phase root: the
// exclusive system that opened the phase, or a no-op for the first phase. Phases run one after
// another.
type Phase struct {
	Exclusive int
	Nodes     []Node
}

// Plan is the result of Build.
type Plan struct {
	phases []Phase
	names  []string
}

type resource struct {
	archetype types.ArchetypeIndex
	channel   int
}

// group tracks the systems that last touched a resource.
type group struct {
	mutable bool
	// waitingOn is the writer every reader of the current reader group depends on.
	waitingOn int
	systems   []int
}

type phaseBuilder struct {
	nodes     []Node
	wakes     []map[int]struct{}
	resources map[resource]*group
}

func newPhaseBuilder() *phaseBuilder {
	return &phaseBuilder{
		nodes:     []Node{{System: -1}},
		wakes:     []map[int]struct{}{{}},
		resources: make(map[resource]*group),
	}
}

// wake records that node waits on from and reports whether the edge is new.
func (b *phaseBuilder) wake(from, node int) bool {
	if _, ok := b.wakes[from][node]; ok {
		return false
	}
	b.wakes[from][node] = struct{}{}
	return true
}

func (b *phaseBuilder) add(system int, accesses []query.Access) {
	node := len(b.nodes)
	waiting := 0
	for _, a := range accesses {
		key := resource{archetype: a.Archetype, channel: a.Channel}
		g, ok := b.resources[key]
		if !ok {
			// the phase root counts as the previous writer of every resource
			g = &group{mutable: true, systems: []int{0}}
			b.resources[key] = g
		}

		switch {
		case a.Mutable:
			for _, other := range g.systems {
				if b.wake(other, node) {
					waiting++
				}
			}
			g.systems = append(g.systems[:0], node)
			g.mutable = true
		case g.mutable:
			for _, writer := range g.systems {
				if b.wake(writer, node) {
					waiting++
				}
				g.waitingOn = writer
			}
			g.systems = append(g.systems[:0], node)
			g.mutable = false
		default:
			if b.wake(g.waitingOn, node) {
				waiting++
			}
			g.systems = append(g.systems, node)
		}
	}
	if waiting == 0 {
		// systems touching nothing still start from the phase root
		b.wake(0, node)
		waiting = 1
	}
	b.nodes = append(b.nodes, Node{System: system, WaitingOn: waiting})
	b.wakes = append(b.wakes, map[int]struct{}{})
}

func (b *phaseBuilder) build(exclusive int) Phase {
	for i := range b.nodes {
		wakes := make([]int, 0, len(b.wakes[i]))
		for n := range b.wakes[i] {
			wakes = append(wakes, n)
		}
		slices.Sort(wakes)
		b.nodes[i].Wakes = wakes
	}
	b.nodes[0].System = exclusive
	return Phase{Exclusive: exclusive, Nodes: b.nodes}
}

// Build plans specs in registration order. Every exclusive system closes the current phase and
// becomes the root of the next one, so it runs after everything registered before it and before
// everything registered after it.
func Build(specs []Spec) *Plan {
	p := &Plan{names: make([]string, len(specs))}
	exclusive := -1
	b := newPhaseBuilder()
	for i, spec := range specs {
		p.names[i] = spec.Name
		if spec.Exclusive {
			p.phases = append(p.phases, b.build(exclusive))
			exclusive = i
			b = newPhaseBuilder()
			continue
		}
		b.add(i, spec.Accesses)
	}
	p.phases = append(p.phases, b.build(exclusive))
	return p
}

func (p *Plan) Phases() []Phase {
	return p.phases
}

// Len is the number of systems in the plan.
func (p *Plan) Len() int {
	return len(p.names)
}

func (p *Plan) Name(system int) string {
	return p.names[system]
}

// Waves groups registration indices into the rounds a pool with unlimited workers would run them
// in. Exclusive systems always form a wave of their own.
func (p *Plan) Waves() [][]int {
	var waves [][]int
	for _, phase := range p.phases {
		if phase.Exclusive >= 0 {
			waves = append(waves, []int{phase.Exclusive})
		}
		counts := make([]int, len(phase.Nodes))
		for i, n := range phase.Nodes {
			counts[i] = n.WaitingOn
		}
		next := []int{0}
		first := true
		for len(next) > 0 {
			var ready []int
			for _, node := range next {
				for _, w := range phase.Nodes[node].Wakes {
					counts[w]--
					if counts[w] == 0 {
						ready = append(ready, w)
					}
				}
			}
			if !first {
				wave := make([]int, len(next))
				for i, node := range next {
					wave[i] = phase.Nodes[node].System
				}
				waves = append(waves, wave)
			}
			first = false
			slices.Sort(ready)
			next = ready
		}
	}
	return waves
}

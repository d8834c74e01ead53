// Package sched implements the six-phase system scheduler (spec.md
// §4.2 "Scheduler"). Systems run synchronously in a fixed, deterministic
// order every tick — the same discipline the teacher's frame loop uses
// to walk scanlines in a fixed order with fixed-point cycle accounting
// (see EmulatorBase.runScanlines), generalized here from "scanlines" to
// "registered systems".
package sched

import (
	"fmt"
	"sort"

	"github.com/lockstep/kernel/ecs"
)

// Phase is one of the six fixed points in a tick a system can be
// registered into (spec.md §4.2).
type Phase int

const (
	Input Phase = iota
	Update
	PrePhysics
	Physics
	PostPhysics
	Render

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case Input:
		return "input"
	case Update:
		return "update"
	case PrePhysics:
		return "prePhysics"
	case Physics:
		return "physics"
	case PostPhysics:
		return "postPhysics"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// System is one unit of per-tick work. It runs synchronously against the
// world; there is no async variant (spec.md §4.2 "Returning a
// promise-like from a system is an error — no async systems" — in Go
// terms this means a System simply never spawns a goroutine it waits on,
// and must not return before its phase's work is complete).
type System func(w *ecs.World) error

type registeredSystem struct {
	phase Phase
	order int
	id    uint64
	name  string
	fn    System
}

// Scheduler holds the registered systems and runs them in the
// deterministic order spec.md §4.2 requires: sorted stable by
// (phase, user-order, id), where id is a monotonic counter assigned at
// registration time so that ties within a (phase, order) pair — which
// shouldn't occur under normal use, since order is itself assigned at
// add-time — still resolve the same way on every peer.
type Scheduler struct {
	systems []registeredSystem
	nextID  uint64
	sorted  bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// AddSystem registers fn into phase, running after every system already
// registered in that phase. name is used only for diagnostics (panic
// messages, logging); it has no effect on ordering.
func (s *Scheduler) AddSystem(phase Phase, name string, fn System) {
	if phase < Input || phase >= phaseCount {
		panic(fmt.Sprintf("sched: invalid phase %d for system %q", phase, name))
	}
	s.systems = append(s.systems, registeredSystem{
		phase: phase,
		order: len(s.systems),
		id:    s.nextID,
		name:  name,
		fn:    fn,
	})
	s.nextID++
	s.sorted = false
}

func (s *Scheduler) ensureSorted() {
	if s.sorted {
		return
	}
	sort.SliceStable(s.systems, func(i, j int) bool {
		a, b := s.systems[i], s.systems[j]
		if a.phase != b.phase {
			return a.phase < b.phase
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.id < b.id
	})
	s.sorted = true
}

// Run executes every registered system once, in phase order. If
// isClient is false, the render phase is skipped entirely (spec.md §4.2
// "The render phase is skipped on non-client hosts") — a headless
// server build never constructs renderer-dependent state in the first
// place, so skipping here is just "don't call it", not a conditional
// inside render systems.
func (s *Scheduler) Run(w *ecs.World, isClient bool) error {
	s.ensureSorted()
	for _, sys := range s.systems {
		if sys.phase == Render && !isClient {
			continue
		}
		if err := sys.fn(w); err != nil {
			return fmt.Errorf("sched: system %q (phase %s): %w", sys.name, sys.phase, err)
		}
	}
	w.ClearInputs()
	return nil
}

// Systems returns the registered systems in their resolved execution
// order, for diagnostics and tests.
func (s *Scheduler) Systems() []string {
	s.ensureSorted()
	out := make([]string, len(s.systems))
	for i, sys := range s.systems {
		out[i] = sys.name
	}
	return out
}

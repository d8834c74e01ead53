// Package render implements the renderer/HUD collaborator spec.md §6
// describes: code outside the kernel module boundary that reads
// Transform2D/Sprite through the query API and draws an interpolated
// frame between two confirmed ticks. Nothing in this package is part of
// simulation state — a renderer that crashes or runs behind never
// affects determinism, the same separation bridge/ebiten/emulator.go
// draws between VDP framebuffer state and its Ebiten-specific
// presentation.
package render

import (
	"github.com/lockstep/kernel/ecs"
	"github.com/lockstep/kernel/facade"
	"github.com/lockstep/kernel/fixed"
)

// Pose is one entity's interpolatable transform at a point in time.
type Pose struct {
	X, Y, Angle float64
}

// Interpolator keeps the previous and current tick's Transform2D poses
// so a renderer can blend between them using a wall-clock-derived alpha
// (spec.md §6 "receiving an interpolation α ∈ [0,1] computed from
// wall-clock time since the last tick"). The kernel itself never
// computes alpha — that calculation lives in the host's render loop,
// which is the only place wall-clock time is allowed to appear
// (spec.md §9).
type Interpolator struct {
	prev map[ecs.EntityID]Pose
	curr map[ecs.EntityID]Pose
}

// NewInterpolator creates an empty interpolator; call Capture once after
// the first tick before interpolating.
func NewInterpolator() *Interpolator {
	return &Interpolator{
		prev: make(map[ecs.EntityID]Pose),
		curr: make(map[ecs.EntityID]Pose),
	}
}

// Capture advances curr to prev and recomputes curr from w's live
// transform2d entities. Call this once per confirmed tick, never per
// render call — interpolation blends between two simulation states, not
// between two render calls.
func (in *Interpolator) Capture(w *ecs.World) {
	in.prev, in.curr = in.curr, make(map[ecs.EntityID]Pose, len(in.curr))
	w.QueryComponent(facade.CompTransform2D).Each(func(id ecs.EntityID) {
		acc, err := w.Get(id, facade.CompTransform2D)
		if err != nil {
			return
		}
		in.curr[id] = Pose{
			X:     fixed.ToFloat(acc.Fixed("x")),
			Y:     fixed.ToFloat(acc.Fixed("y")),
			Angle: fixed.ToFloat(acc.Fixed("angle")),
		}
	})
}

// At returns id's pose linearly interpolated between the previous and
// current capture by alpha (clamped to [0,1]). An entity present only in
// curr (freshly spawned since the last capture) is returned at its
// current pose with no blending; an entity present only in prev (just
// destroyed) is not returned at all, matching a renderer's expectation
// that it can stop drawing a destroyed entity immediately.
func (in *Interpolator) At(id ecs.EntityID, alpha float64) (Pose, bool) {
	curr, ok := in.curr[id]
	if !ok {
		return Pose{}, false
	}
	prev, ok := in.prev[id]
	if !ok {
		return curr, true
	}
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	return Pose{
		X:     lerp(prev.X, curr.X, alpha),
		Y:     lerp(prev.Y, curr.Y, alpha),
		Angle: lerp(prev.Angle, curr.Angle, alpha),
	}, true
}

func lerp(a, b, alpha float64) float64 {
	return a + (b-a)*alpha
}

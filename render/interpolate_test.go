package render

import (
	"testing"

	"github.com/lockstep/kernel/ecs"
	"github.com/lockstep/kernel/facade"
	"github.com/lockstep/kernel/fixed"
)

func newTransformWorld(t *testing.T) (*ecs.World, ecs.EntityID) {
	t.Helper()
	w := ecs.NewWorld(8)
	if err := facade.DefineComponents(w); err != nil {
		t.Fatalf("DefineComponents: %v", err)
	}
	if _, err := w.DefineEntity("marker").With(facade.CompTransform2D).Register(); err != nil {
		t.Fatalf("DefineEntity: %v", err)
	}
	id, err := w.Spawn("marker", map[string]any{"transform2d.x": 0.0, "transform2d.y": 0.0})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	return w, id
}

func setX(t *testing.T, w *ecs.World, id ecs.EntityID, x float64) {
	t.Helper()
	acc, err := w.Get(id, facade.CompTransform2D)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	acc.SetFixed("x", fixed.FromFloat(x))
}

func TestInterpolatorBlendsBetweenTwoCaptures(t *testing.T) {
	w, id := newTransformWorld(t)
	in := NewInterpolator()

	in.Capture(w) // curr = x:0, prev = empty
	setX(t, w, id, 10)
	in.Capture(w) // prev = x:0, curr = x:10

	pose, ok := in.At(id, 0.5)
	if !ok {
		t.Fatalf("expected pose for %v", id)
	}
	if pose.X < 4.99 || pose.X > 5.01 {
		t.Fatalf("pose.X = %v, want ~5", pose.X)
	}
}

func TestInterpolatorClampsAlpha(t *testing.T) {
	w, id := newTransformWorld(t)
	in := NewInterpolator()
	in.Capture(w)
	setX(t, w, id, 10)
	in.Capture(w)

	below, _ := in.At(id, -5)
	above, _ := in.At(id, 5)
	if below.X != 0 {
		t.Fatalf("At(-5).X = %v, want 0 (clamped)", below.X)
	}
	if above.X != 10 {
		t.Fatalf("At(5).X = %v, want 10 (clamped)", above.X)
	}
}

func TestInterpolatorFreshEntityReturnsCurrentNoBlend(t *testing.T) {
	w, id := newTransformWorld(t)
	in := NewInterpolator()
	in.Capture(w) // first capture, nothing in prev yet

	pose, ok := in.At(id, 0.1)
	if !ok {
		t.Fatalf("expected pose for freshly captured entity")
	}
	if pose.X != 0 {
		t.Fatalf("pose.X = %v, want 0 (no prior pose to blend from)", pose.X)
	}
}

func TestInterpolatorUnknownEntityMiss(t *testing.T) {
	w, _ := newTransformWorld(t)
	in := NewInterpolator()
	in.Capture(w)
	if _, ok := in.At(ecs.EntityID(999), 0.5); ok {
		t.Fatalf("expected no pose for an id never captured")
	}
}

func TestInterpolatorDestroyedEntityDropsOut(t *testing.T) {
	w, id := newTransformWorld(t)
	in := NewInterpolator()
	in.Capture(w)
	w.Destroy(id)
	in.Capture(w)

	if _, ok := in.At(id, 0.5); ok {
		t.Fatalf("expected destroyed entity to be absent from interpolation")
	}
}

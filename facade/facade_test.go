package facade

import (
	"context"
	"testing"

	"github.com/lockstep/kernel/ecs"
	"github.com/lockstep/kernel/fixed"
	"github.com/lockstep/kernel/physics"
)

func newFallingBallWorld(t *testing.T) (*ecs.World, *PhysicsPlugin, *physics.World) {
	t.Helper()
	w := ecs.NewWorld(16)
	if err := DefineComponents(w); err != nil {
		t.Fatalf("DefineComponents: %v", err)
	}
	if _, err := w.DefineEntity("ball").With(CompTransform2D).With(CompRigidBody).Register(); err != nil {
		t.Fatalf("DefineEntity: %v", err)
	}

	physicsWorld := physics.NewWorld()
	physicsWorld.Gravity = fixed.V2(0, fixed.FromFloat(-1))
	plugin := NewPhysicsPlugin(physicsWorld, fixed.FromFloat(1.0/30.0))
	return w, plugin, physicsWorld
}

func TestPhysicsPluginPairsAndMirrorsPosition(t *testing.T) {
	w, plugin, physicsWorld := newFallingBallWorld(t)

	id, err := w.Spawn("ball", map[string]any{
		"transform2d.x": 0.0,
		"transform2d.y": 10.0,
		"rigidbody.kind": int(physics.Dynamic),
		"rigidbody.shape": int(physics.ShapeCircle),
		"rigidbody.radius": 1.0,
		"rigidbody.mass": 1.0,
		"rigidbody.layer": int(1),
		"rigidbody.mask": int(0xFF),
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	if err := plugin.prePhysics(w); err != nil {
		t.Fatalf("prePhysics: %v", err)
	}
	if _, ok := plugin.Body(id); !ok {
		t.Fatalf("expected body paired with entity after prePhysics")
	}
	if len(physicsWorld.Bodies()) != 1 {
		t.Fatalf("len(Bodies()) = %d, want 1", len(physicsWorld.Bodies()))
	}

	if err := plugin.step(w); err != nil {
		t.Fatalf("step: %v", err)
	}
	if err := plugin.postPhysics(w); err != nil {
		t.Fatalf("postPhysics: %v", err)
	}

	tr, err := w.Get(id, CompTransform2D)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tr.Fixed("y") >= fixed.FromFloat(10.0) {
		t.Fatalf("y = %v, expected ball to have fallen below its start height", tr.Fixed("y"))
	}
}

func TestPhysicsPluginRemovesBodyWhenEntityDestroyed(t *testing.T) {
	w, plugin, physicsWorld := newFallingBallWorld(t)
	id, err := w.Spawn("ball", map[string]any{"rigidbody.kind": int(physics.Dynamic), "rigidbody.shape": int(physics.ShapeCircle), "rigidbody.radius": 1.0, "rigidbody.mass": 1.0})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if err := plugin.prePhysics(w); err != nil {
		t.Fatalf("prePhysics: %v", err)
	}
	if len(physicsWorld.Bodies()) != 1 {
		t.Fatalf("expected 1 body before destroy")
	}

	w.Destroy(id)
	if err := plugin.prePhysics(w); err != nil {
		t.Fatalf("prePhysics after destroy: %v", err)
	}
	if len(physicsWorld.Bodies()) != 0 {
		t.Fatalf("expected body removed after entity destroyed, got %d", len(physicsWorld.Bodies()))
	}
	if _, ok := plugin.Body(id); ok {
		t.Fatalf("plugin should have forgotten the destroyed entity's body")
	}
}

func TestPhysicsPluginConsumesImpulse(t *testing.T) {
	w, plugin, _ := newFallingBallWorld(t)
	id, err := w.Spawn("ball", map[string]any{"rigidbody.kind": int(physics.Dynamic), "rigidbody.shape": int(physics.ShapeCircle), "rigidbody.radius": 1.0, "rigidbody.mass": 1.0})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if err := w.AddComponent(id, CompImpulse); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	imp, err := w.Get(id, CompImpulse)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	imp.SetFixed("fx", fixed.FromFloat(5.0))

	if err := plugin.prePhysics(w); err != nil {
		t.Fatalf("prePhysics: %v", err)
	}

	imp2, err := w.Get(id, CompImpulse)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if imp2.Fixed("fx") != 0 {
		t.Fatalf("impulse fx = %v, want 0 after being consumed", imp2.Fixed("fx"))
	}
}

func TestPrefabRegistrySpawnMergesOverrides(t *testing.T) {
	w := ecs.NewWorld(16)
	if err := DefineComponents(w); err != nil {
		t.Fatalf("DefineComponents: %v", err)
	}
	if _, err := w.DefineEntity("marker").With(CompTransform2D).Register(); err != nil {
		t.Fatalf("DefineEntity: %v", err)
	}

	reg := NewPrefabRegistry()
	reg.Register("marker", EntityPrefab("marker", map[string]any{"transform2d.x": 1.0, "transform2d.y": 2.0}))

	id, err := reg.Spawn(w, "marker", map[string]any{"transform2d.y": 9.0})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	tr, err := w.Get(id, CompTransform2D)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tr.Fixed("x") != fixed.FromFloat(1.0) || tr.Fixed("y") != fixed.FromFloat(9.0) {
		t.Fatalf("tr = {x:%v y:%v}, want x=1 (default), y=9 (overridden)", tr.Fixed("x"), tr.Fixed("y"))
	}
}

func TestPrefabRegistryUnknownPrefab(t *testing.T) {
	w := ecs.NewWorld(16)
	reg := NewPrefabRegistry()
	if _, err := reg.Spawn(w, "nope", nil); err != ErrUnknownPrefab {
		t.Fatalf("err = %v, want ErrUnknownPrefab", err)
	}
}

func TestAuthorityElectsLexicographicMinimum(t *testing.T) {
	a := NewAuthority()
	a.Join("zeta")
	a.Join("alpha")
	a.Join("mike")
	got, ok := a.Current()
	if !ok || got != "alpha" {
		t.Fatalf("Current() = (%q, %v), want (alpha, true)", got, ok)
	}
	if !a.IsAuthority("alpha") || a.IsAuthority("zeta") {
		t.Fatalf("IsAuthority mismatch")
	}
}

func TestAuthorityReelectsOnLeave(t *testing.T) {
	a := NewAuthority()
	a.Join("alpha")
	a.Join("beta")
	a.Leave("alpha")
	got, ok := a.Current()
	if !ok || got != "beta" {
		t.Fatalf("Current() = (%q, %v), want (beta, true)", got, ok)
	}
}

func TestAuthorityNoClientsElectsNone(t *testing.T) {
	a := NewAuthority()
	if _, ok := a.Current(); ok {
		t.Fatalf("expected no authority with zero clients")
	}
}

func TestCollisionRegistrySameTypeDoubleDispatch(t *testing.T) {
	typeOf := func(label string) (string, bool) {
		if label == "a" || label == "b" {
			return "asteroid", true
		}
		return "", false
	}
	reg := NewCollisionRegistry(typeOf)

	var calls [][2]string
	reg.On("asteroid", "asteroid", func(self, other *physics.Body, e physics.ContactEvent) {
		calls = append(calls, [2]string{self.Label, other.Label})
	})

	bodyA := &physics.Body{Label: "a"}
	bodyB := &physics.Body{Label: "b"}
	reg.Dispatch(physics.ContactEvent{A: bodyA, B: bodyB})

	if len(calls) != 2 {
		t.Fatalf("len(calls) = %d, want 2", len(calls))
	}
	if calls[0] != [2]string{"a", "b"} || calls[1] != [2]string{"b", "a"} {
		t.Fatalf("calls = %v, want [[a b] [b a]]", calls)
	}
}

func TestCollisionRegistryDistinctTypesOneDirection(t *testing.T) {
	typeOf := func(label string) (string, bool) {
		switch label {
		case "ship":
			return "ship", true
		case "rock":
			return "asteroid", true
		}
		return "", false
	}
	reg := NewCollisionRegistry(typeOf)

	var hit bool
	reg.On("ship", "asteroid", func(self, other *physics.Body, e physics.ContactEvent) {
		hit = true
		if self.Label != "ship" || other.Label != "rock" {
			t.Fatalf("self/other = %s/%s, want ship/rock", self.Label, other.Label)
		}
	})

	reg.Dispatch(physics.ContactEvent{A: &physics.Body{Label: "ship"}, B: &physics.Body{Label: "rock"}})
	if !hit {
		t.Fatalf("expected (ship,asteroid) handler to fire")
	}
}

func TestBroadcasterShouldBroadcast(t *testing.T) {
	b := NewBroadcaster()
	if !b.ShouldBroadcast(0) || !b.ShouldBroadcast(100) || !b.ShouldBroadcast(200) {
		t.Fatalf("expected multiples of 100 to trigger broadcast")
	}
	if b.ShouldBroadcast(1) || b.ShouldBroadcast(99) {
		t.Fatalf("expected non-multiples to not trigger broadcast")
	}
}

func TestBroadcasterReceivePeerSnapshotReportsOnlyOnDriftAtCurrentFrame(t *testing.T) {
	b := NewBroadcaster()
	var reports []DriftReport
	b.OnDrift(func(r DriftReport) { reports = append(reports, r) })

	b.ReceivePeerSnapshot(50, "localhash", "peer-a", 49, "peerhash")
	if len(reports) != 0 {
		t.Fatalf("should not report drift for a non-current frame")
	}

	b.ReceivePeerSnapshot(50, "localhash", "peer-a", 50, "localhash")
	if len(reports) != 0 {
		t.Fatalf("should not report drift when hashes match")
	}

	b.ReceivePeerSnapshot(50, "localhash", "peer-a", 50, "peerhash")
	if len(reports) != 1 {
		t.Fatalf("expected exactly one drift report, got %d", len(reports))
	}
	if reports[0].Frame != 50 || reports[0].PeerID != "peer-a" {
		t.Fatalf("reports[0] = %+v", reports[0])
	}
}

type fakeSender struct {
	sent map[string]uint32
}

func (f *fakeSender) SendSnapshot(ctx context.Context, peerID string, frame uint32, hash string, blob []byte) error {
	if f.sent == nil {
		f.sent = make(map[string]uint32)
	}
	f.sent[peerID] = frame
	return nil
}

func TestBroadcasterBroadcastFansOutToEveryPeer(t *testing.T) {
	w := ecs.NewWorld(4)
	if err := DefineComponents(w); err != nil {
		t.Fatalf("DefineComponents: %v", err)
	}
	prng := fixed.NewPRNG(1)
	b := NewBroadcaster()
	sender := &fakeSender{}

	if err := b.Broadcast(context.Background(), w, prng, sender, []string{"p1", "p2", "p3"}); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if len(sender.sent) != 3 {
		t.Fatalf("len(sent) = %d, want 3", len(sender.sent))
	}
}

func TestFacadeNewWiresPhysicsAndRollback(t *testing.T) {
	f, err := New(Config{Dt: fixed.FromFloat(1.0 / 30.0), HistoryBound: 8, SnapshotBound: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := f.World.DefineEntity("ball").With(CompTransform2D).With(CompRigidBody).Register(); err != nil {
		t.Fatalf("DefineEntity: %v", err)
	}
	id, err := f.World.Spawn("ball", map[string]any{
		"rigidbody.kind":   int(physics.Dynamic),
		"rigidbody.shape":  int(physics.ShapeCircle),
		"rigidbody.radius": 1.0,
		"rigidbody.mass":   1.0,
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if err := f.Rollback.OnServerTick(0, nil); err != nil {
		t.Fatalf("OnServerTick: %v", err)
	}
	if _, ok := f.PhysicsBody(id); !ok {
		t.Fatalf("expected ball to be paired with a physics body after a tick")
	}
}

package facade

import (
	"github.com/lockstep/kernel/ecs"
	"github.com/lockstep/kernel/fixed"
	"github.com/lockstep/kernel/physics"
	"github.com/lockstep/kernel/sched"
)

// PhysicsPlugin keeps a physics.World's body list in lockstep with every
// ecs.World entity carrying a rigidbody component (spec.md §4.6 "registers
// prePhysics/physics/postPhysics systems that ensure each entity with a
// body has a matching physics body, mirrors velocities/forces/impulses
// in and positions out"). Every prePhysics pass re-reads each body's
// position and angle from transform2d and its velocities from rigidbody,
// so columns restored by snapshot.Decode take effect on the next step.
type PhysicsPlugin struct {
	dt     fixed.Scalar
	world  *physics.World
	bodies map[ecs.EntityID]*physics.Body
}

// NewPhysicsPlugin creates a plugin stepping physicsWorld by dt each
// tick.
func NewPhysicsPlugin(physicsWorld *physics.World, dt fixed.Scalar) *PhysicsPlugin {
	return &PhysicsPlugin{
		dt:     dt,
		world:  physicsWorld,
		bodies: make(map[ecs.EntityID]*physics.Body),
	}
}

// Attach registers the plugin's three systems on s, in the phases
// spec.md §4.2 reserves for physics.
func (p *PhysicsPlugin) Attach(s *sched.Scheduler) {
	s.AddSystem(sched.PrePhysics, "facade.physicsPairing", p.prePhysics)
	s.AddSystem(sched.Physics, "facade.physicsStep", p.step)
	s.AddSystem(sched.PostPhysics, "facade.physicsMirrorOut", p.postPhysics)
}

// prePhysics ensures pairing, consumes impulses, and mirrors
// velocity/angularV from the rigidbody component into each body.
func (p *PhysicsPlugin) prePhysics(w *ecs.World) error {
	live := make(map[ecs.EntityID]bool)

	var outerErr error
	w.QueryComponent(CompRigidBody).Each(func(id ecs.EntityID) {
		if outerErr != nil {
			return
		}
		live[id] = true

		body, ok := p.bodies[id]
		if !ok {
			b, err := p.spawnBody(w, id)
			if err != nil {
				outerErr = err
				return
			}
			body = b
			p.bodies[id] = body
			p.world.AddBody(body)
		}

		tr, err := w.Get(id, CompTransform2D)
		if err != nil {
			outerErr = err
			return
		}
		body.Position = fixed.V2(tr.Fixed("x"), tr.Fixed("y"))
		body.Angle = tr.Fixed("angle")

		rb, err := w.Get(id, CompRigidBody)
		if err != nil {
			outerErr = err
			return
		}
		body.SetVelocity(fixed.V2(rb.Fixed("vx"), rb.Fixed("vy")))
		body.AngularV = rb.Fixed("angularV")

		if w.HasComponent(id, CompImpulse) {
			imp, err := w.Get(id, CompImpulse)
			if err != nil {
				outerErr = err
				return
			}
			fx, fy := imp.Fixed("fx"), imp.Fixed("fy")
			if fx != 0 || fy != 0 {
				body.ApplyForce(fixed.V2(fx, fy))
				imp.SetFixed("fx", 0)
				imp.SetFixed("fy", 0)
			}
		}
	})
	if outerErr != nil {
		return outerErr
	}

	for id, body := range p.bodies {
		if !live[id] {
			p.world.RemoveBody(body)
			delete(p.bodies, id)
		}
	}
	return nil
}

func (p *PhysicsPlugin) spawnBody(w *ecs.World, id ecs.EntityID) (*physics.Body, error) {
	rb, err := w.Get(id, CompRigidBody)
	if err != nil {
		return nil, err
	}
	tr, err := w.Get(id, CompTransform2D)
	if err != nil {
		return nil, err
	}

	body := &physics.Body{
		Label:        entityLabel(id),
		Kind:         physics.BodyKind(rb.U8("kind")),
		Shape:        physics.ShapeKind(rb.U8("shape")),
		Position:     fixed.V2(tr.Fixed("x"), tr.Fixed("y")),
		Angle:        tr.Fixed("angle"),
		Radius:       rb.Fixed("radius"),
		HalfW:        rb.Fixed("halfW"),
		HalfH:        rb.Fixed("halfH"),
		Restitution:  rb.Fixed("restitution"),
		Friction:     rb.Fixed("friction"),
		Layer:        uint16(rb.U8("layer")),
		Mask:         uint16(rb.U8("mask")),
		IsSensor:     rb.Bool("isSensor"),
		LockRotation: rb.Bool("lockRotation"),
	}
	body.SetMass(rb.Fixed("mass"))
	return body, nil
}

func (p *PhysicsPlugin) step(w *ecs.World) error {
	p.world.Step(p.dt)
	return nil
}

// postPhysics mirrors each body's resolved position/angle/velocity back
// into its entity's transform2d and rigidbody components.
func (p *PhysicsPlugin) postPhysics(w *ecs.World) error {
	for id, body := range p.bodies {
		tr, err := w.Get(id, CompTransform2D)
		if err != nil {
			continue
		}
		tr.SetFixed("x", body.Position.X)
		tr.SetFixed("y", body.Position.Y)
		tr.SetFixed("angle", body.Angle)

		rb, err := w.Get(id, CompRigidBody)
		if err != nil {
			continue
		}
		rb.SetFixed("vx", body.Velocity.X)
		rb.SetFixed("vy", body.Velocity.Y)
		rb.SetFixed("angularV", body.AngularV)
	}
	return nil
}

// Body returns the physics body currently paired with id, if any.
func (p *PhysicsPlugin) Body(id ecs.EntityID) (*physics.Body, bool) {
	b, ok := p.bodies[id]
	return b, ok
}

func entityLabel(id ecs.EntityID) string {
	const hexDigits = "0123456789abcdef"
	if id == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	v := uint32(id)
	for v > 0 {
		i--
		buf[i] = hexDigits[v&0xF]
		v >>= 4
	}
	return string(buf[i:])
}

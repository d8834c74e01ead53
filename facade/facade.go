package facade

import (
	"github.com/lockstep/kernel/ecs"
	"github.com/lockstep/kernel/fixed"
	"github.com/lockstep/kernel/physics"
	"github.com/lockstep/kernel/rollback"
	"github.com/lockstep/kernel/sched"
)

// Facade is the thin top-level assembly spec.md §4.6 describes: it owns
// the entity store, scheduler, physics world, rollback controller, and
// the façade-level registries (prefabs, collision handlers, authority),
// the way ui.App owns the emulator plus every surrounding manager in one
// driver struct, and cli.Runner owns just enough of that to run headless.
type Facade struct {
	// Core simulation.
	World     *ecs.World
	Scheduler *sched.Scheduler
	Physics   *physics.World
	PRNG      *fixed.PRNG
	Rollback  *rollback.Controller

	// Façade-level registries.
	Prefabs    *PrefabRegistry
	Collisions *CollisionRegistry
	Authority  *Authority
	Broadcast  *Broadcaster

	physicsPlugin *PhysicsPlugin
}

// Config bundles the constructor arguments for New.
type Config struct {
	Capacity uint32 // entity capacity; 0 uses ecs.OperationalCap
	Dt       fixed.Scalar
	IsClient bool

	HistoryBound    uint32
	SnapshotBound   uint32
	OnMisprediction rollback.MispredictionHandler
}

// New assembles a Facade: defines the standard component set, wires the
// physics-mirroring plugin into the scheduler, and constructs a rollback
// controller over the result. Game code registers its own systems and
// entity types on the returned World/Scheduler before running the first
// tick.
func New(cfg Config) (*Facade, error) {
	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = ecs.OperationalCap
	}

	world := ecs.NewWorld(capacity)
	if err := DefineComponents(world); err != nil {
		return nil, err
	}

	scheduler := sched.NewScheduler()
	physicsWorld := physics.NewWorld()
	plugin := NewPhysicsPlugin(physicsWorld, cfg.Dt)
	plugin.Attach(scheduler)

	f := &Facade{
		World:         world,
		Scheduler:     scheduler,
		Physics:       physicsWorld,
		PRNG:          fixed.NewPRNG(1),
		Prefabs:       NewPrefabRegistry(),
		Authority:     NewAuthority(),
		Broadcast:     NewBroadcaster(),
		physicsPlugin: plugin,
	}
	f.Collisions = NewCollisionRegistry(f.typeOfLabel)
	physicsWorld.SetContactListener(f.Collisions.Dispatch)

	f.Rollback = rollback.NewController(rollback.Config{
		World:           world,
		Scheduler:       scheduler,
		PRNG:            f.PRNG,
		HistoryBound:    cfg.HistoryBound,
		SnapshotBound:   cfg.SnapshotBound,
		IsClient:        cfg.IsClient,
		OnMisprediction: cfg.OnMisprediction,
	})

	return f, nil
}

// typeOfLabel resolves a physics body's Label (the hex entity id the
// physics plugin assigns) back to its entity type name, the lookup the
// collision registry needs to key handlers by (typeA, typeB).
func (f *Facade) typeOfLabel(label string) (string, bool) {
	id, ok := parseEntityLabel(label)
	if !ok {
		return "", false
	}
	name := f.World.TypeName(id)
	if name == "" {
		return "", false
	}
	return name, true
}

func parseEntityLabel(label string) (ecs.EntityID, bool) {
	if label == "" {
		return 0, false
	}
	var v uint32
	for i := 0; i < len(label); i++ {
		c := label[i]
		var digit uint32
		switch {
		case c >= '0' && c <= '9':
			digit = uint32(c - '0')
		case c >= 'a' && c <= 'f':
			digit = uint32(c-'a') + 10
		default:
			return 0, false
		}
		v = v<<4 | digit
	}
	return ecs.EntityID(v), true
}

// PhysicsBody returns the physics body currently paired with id, if any.
func (f *Facade) PhysicsBody(id ecs.EntityID) (*physics.Body, bool) {
	return f.physicsPlugin.Body(id)
}

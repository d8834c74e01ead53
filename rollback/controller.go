package rollback

import (
	"github.com/lockstep/kernel/ecs"
	"github.com/lockstep/kernel/fixed"
	"github.com/lockstep/kernel/sched"
	"github.com/lockstep/kernel/snapshot"
)

// Prediction is one entry on the pending-prediction queue (spec.md §4.5
// "push {frame, input, hash} onto a pending-prediction queue").
type Prediction struct {
	Frame uint32
	Input any
	Hash  string
}

// MispredictionReport describes a detected prediction/authority disagreement
// (Scenario E). The controller surfaces this rather than swallowing it,
// matching the kernel-wide policy that divergence is reported, never
// silently absorbed.
type MispredictionReport struct {
	Frame         uint32
	PredictedHash string
	AuthorityHash string
}

// MispredictionHandler is invoked once per detected misprediction.
type MispredictionHandler func(MispredictionReport)

// Controller is the rollback/prediction collaborator described in
// spec.md §4.5. It wraps a Scheduler+World pair, taking a snapshot before
// advancing every tick and rewinding/resimulating when a late-confirmed
// input disagrees with what was locally predicted.
type Controller struct {
	world *ecs.World
	sched *sched.Scheduler
	prng  *fixed.PRNG

	history *InputHistory
	ring    *SnapshotRing

	pending []Prediction
	onMisp  MispredictionHandler

	isClient bool
}

// Config bundles Controller construction parameters.
type Config struct {
	World           *ecs.World
	Scheduler       *sched.Scheduler
	PRNG            *fixed.PRNG
	HistoryBound    uint32 // default 120
	SnapshotBound   uint32 // default 60
	IsClient        bool
	OnMisprediction MispredictionHandler
}

// NewController builds a Controller from cfg, defaulting HistoryBound to
// 120 and SnapshotBound to 60 when left zero (spec.md §4.5 defaults).
func NewController(cfg Config) *Controller {
	hb := cfg.HistoryBound
	if hb == 0 {
		hb = 120
	}
	sb := cfg.SnapshotBound
	if sb == 0 {
		sb = 60
	}
	return &Controller{
		world:    cfg.World,
		sched:    cfg.Scheduler,
		prng:     cfg.PRNG,
		history:  NewInputHistory(hb),
		ring:     NewSnapshotRing(sb),
		onMisp:   cfg.OnMisprediction,
		isClient: cfg.IsClient,
	}
}

// CurrentFrame returns the world's current frame counter.
func (c *Controller) CurrentFrame() uint32 { return c.world.Frame() }

// snapshotNow saves the current frame's world+PRNG state into the ring.
func (c *Controller) snapshotNow() error {
	blob, err := snapshot.Encode(c.world, c.prng)
	if err != nil {
		return err
	}
	st := c.prng.Save()
	c.ring.Put(c.world.Frame(), blob, st.S0, st.S1)
	return nil
}

// tick applies inputs for the current frame, runs one scheduler pass, and
// advances the frame counter — the driver's per-tick control flow from
// spec.md §4.1: "apply network inputs ... run phases ... clear per-tick
// inputs ... advance frame counter".
func (c *Controller) tick(inputs map[uint32]any) error {
	for client, input := range inputs {
		c.world.RouteInput(client, input)
	}
	if err := c.sched.Run(c.world, c.isClient); err != nil {
		return err
	}
	c.world.SetFrame(c.world.Frame() + 1)
	return nil
}

// OnLocalInput applies a locally-originated input immediately (client-side
// prediction), records it as unconfirmed history, and pushes a prediction
// entry for later reconciliation against the authority (spec.md §4.5 "On
// local input").
func (c *Controller) OnLocalInput(client uint32, input any) error {
	frame := c.world.Frame()
	if err := c.snapshotNow(); err != nil {
		return err
	}
	c.history.SetInput(frame, client, input)
	if err := c.tick(map[uint32]any{client: input}); err != nil {
		return err
	}
	hash := snapshot.StateHash(c.world)
	c.pending = append(c.pending, Prediction{Frame: frame, Input: input, Hash: hash})
	c.history.PruneToBound(c.world.Frame())
	return nil
}

// OnServerTick processes one authority-confirmed tick at serverFrame with
// the authority's input map (spec.md §4.5 "On server tick"). If the frame
// was never locally predicted it is simply applied; if it was predicted,
// the pre-simulation snapshot is reloaded, the confirmed inputs are
// replayed, and the resulting hash is compared against the stored
// prediction. A mismatch triggers resimulateFrom and reports a
// MispredictionReport; matching predictions at or before serverFrame are
// dropped either way, since they're now settled.
func (c *Controller) OnServerTick(serverFrame uint32, inputs map[uint32]any) error {
	if err := c.snapshotNow(); err != nil {
		return err
	}
	c.history.ConfirmFrame(serverFrame, inputs)

	predIdx := -1
	for i, p := range c.pending {
		if p.Frame == serverFrame {
			predIdx = i
			break
		}
	}

	if predIdx < 0 {
		if err := c.tick(inputs); err != nil {
			return err
		}
		c.history.PruneToBound(c.world.Frame())
		return nil
	}

	currentFrame := c.world.Frame()
	blob, s0, s1, ok := c.ring.Get(serverFrame)
	if !ok {
		// The pre-simulation snapshot already aged out of the bounded
		// ring; nothing to reconcile against, fall back to applying the
		// confirmed tick going forward.
		if err := c.tick(inputs); err != nil {
			return err
		}
		c.dropPendingUpTo(serverFrame)
		c.history.PruneToBound(c.world.Frame())
		return nil
	}

	if _, err := snapshot.Decode(c.world, blob); err != nil {
		return err
	}
	c.prng.Load(fixed.State{S0: s0, S1: s1})

	if err := c.tick(inputs); err != nil {
		return err
	}
	authorityHash := snapshot.StateHash(c.world)
	predictedHash := c.pending[predIdx].Hash

	if authorityHash != predictedHash {
		if c.onMisp != nil {
			c.onMisp(MispredictionReport{Frame: serverFrame, PredictedHash: predictedHash, AuthorityHash: authorityHash})
		}
	}
	// Whether or not the hash matched, the frames between serverFrame and
	// currentFrame must be re-ticked on top of whichever state serverFrame's
	// tick just produced (authoritative, possibly different from what local
	// prediction had there before) — fast-forwarding back to currentFrame
	// so the caller-visible frame counter is unchanged by the rewind.
	if err := c.resimulateFrom(serverFrame, currentFrame); err != nil {
		return err
	}

	c.dropPendingUpTo(serverFrame)
	c.history.PruneToBound(c.world.Frame())
	return nil
}

// resimulateFrom re-ticks every frame after serverFrame (whose own
// confirmed tick the caller already applied) up to targetFrame-1 using
// inputHistory.range, leaving the world at frame targetFrame — preserving
// the caller-visible frame counter across the rewind (spec.md §4.5
// "Resimulation").
func (c *Controller) resimulateFrom(serverFrame, targetFrame uint32) error {
	if targetFrame == 0 {
		return nil
	}
	return c.replayRange(c.world.Frame(), targetFrame-1)
}

// replayRange re-ticks frames [from, to], using the recorded history's
// confirmed-or-best-known inputs for each, per spec.md §4.5.
func (c *Controller) replayRange(from, to uint32) error {
	if from > to {
		return nil
	}
	for _, fr := range c.history.Range(from, to) {
		inputs := make(map[uint32]any, len(fr.Clients))
		for i, cl := range fr.Clients {
			inputs[cl] = fr.Inputs[i]
		}
		if err := c.tick(inputs); err != nil {
			return err
		}
	}
	return nil
}

// dropPendingUpTo removes every pending prediction at or before frame,
// since it is now settled one way or another (spec.md §4.5 "all pending
// predictions at or before this frame are dropped").
func (c *Controller) dropPendingUpTo(frame uint32) {
	kept := c.pending[:0]
	for _, p := range c.pending {
		if p.Frame > frame {
			kept = append(kept, p)
		}
	}
	c.pending = kept
}

// PendingCount reports the number of unsettled predictions, for tests and
// diagnostics.
func (c *Controller) PendingCount() int { return len(c.pending) }

// History exposes the input history for replay/late-join serialisation.
func (c *Controller) History() *InputHistory { return c.history }

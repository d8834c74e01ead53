package facade

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/lockstep/kernel/ecs"
	"github.com/lockstep/kernel/fixed"
	"github.com/lockstep/kernel/snapshot"
)

// snapshotBroadcastInterval is the authority's periodic checkpoint
// period (spec.md §4.6 "periodic snapshot broadcast by the authority,
// every ~100 frames"). config.Config.SnapshotBroadcastInterval is the
// host-tunable equivalent; this is the façade's own default for callers
// that build one without wiring a Config through.
const snapshotBroadcastInterval = 100

// PeerSender delivers an encoded snapshot to one connected peer. It is
// the façade's only outward-facing dependency on the transport
// collaborator (spec.md §6); the façade never imports net or a socket
// library itself.
type PeerSender interface {
	SendSnapshot(ctx context.Context, peerID string, frame uint32, hash string, blob []byte) error
}

// DriftReport describes a mismatch between the locally computed state
// hash and a peer's reported hash for the same frame (spec.md §4.6
// "state-hash drift report when a peer snapshot is received for the
// exact current frame").
type DriftReport struct {
	Frame     uint32
	PeerID    string
	LocalHash string
	PeerHash  string
}

// DriftHandler is invoked once per detected drift.
type DriftHandler func(DriftReport)

// Broadcaster owns the authority's periodic snapshot fan-out and a
// receiving peer's drift comparison.
type Broadcaster struct {
	interval uint32
	onDrift  DriftHandler
}

// NewBroadcaster creates a broadcaster using the default ~100 frame
// interval.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{interval: snapshotBroadcastInterval}
}

// SetInterval overrides the default broadcast period.
func (b *Broadcaster) SetInterval(frames uint32) { b.interval = frames }

// OnDrift registers the handler invoked on a detected state-hash
// mismatch, replacing any previously registered handler.
func (b *Broadcaster) OnDrift(handler DriftHandler) { b.onDrift = handler }

// ShouldBroadcast reports whether frame is one of the authority's
// periodic checkpoint frames.
func (b *Broadcaster) ShouldBroadcast(frame uint32) bool {
	interval := b.interval
	if interval == 0 {
		interval = snapshotBroadcastInterval
	}
	return frame%interval == 0
}

// Broadcast encodes w's current state and fans it out concurrently to
// every peer in peers, using errgroup (spec.md §5 "suspension points
// exist only at the collaborator boundary" — this fan-out runs between
// ticks, never inside one). A send failure to one peer doesn't cancel
// sends to the others; the first error is returned after every send has
// been attempted.
func (b *Broadcaster) Broadcast(ctx context.Context, w *ecs.World, prng *fixed.PRNG, sender PeerSender, peers []string) error {
	blob, err := snapshot.Encode(w, prng)
	if err != nil {
		return err
	}
	hash := snapshot.StateHash(w)
	frame := w.Frame()

	var g errgroup.Group
	for _, peerID := range peers {
		peerID := peerID
		g.Go(func() error {
			return sender.SendSnapshot(ctx, peerID, frame, hash, blob)
		})
	}
	return g.Wait()
}

// ReceivePeerSnapshot compares a peer's reported (frame, hash) against
// the local state hash, reporting drift only when the peer's frame
// equals currentFrame exactly — a peer snapshot for any other frame
// carries no information about whether the two sides agree right now.
func (b *Broadcaster) ReceivePeerSnapshot(currentFrame uint32, localHash string, peerID string, peerFrame uint32, peerHash string) {
	if peerFrame != currentFrame {
		return
	}
	if peerHash == localHash {
		return
	}
	if b.onDrift != nil {
		b.onDrift(DriftReport{Frame: currentFrame, PeerID: peerID, LocalHash: localHash, PeerHash: peerHash})
	}
}

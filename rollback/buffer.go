package rollback

// snapshotEntry is one frame's saved binary snapshot plus the PRNG state
// needed to replay deterministically from it.
type snapshotEntry struct {
	frame   uint32
	blob    []byte
	prngS0  uint32
	prngS1  uint32
	present bool
}

// SnapshotRing is a fixed-size ring buffer of the most recent N frame
// snapshots (spec.md §4.5 "Rollback snapshot buffer", default bound 60).
// Older entries are simply overwritten rather than tracked individually,
// since the controller only ever needs to roll back to the oldest
// unconfirmed frame, which is always within the bound by construction.
type SnapshotRing struct {
	bound   uint32
	entries []snapshotEntry
}

// NewSnapshotRing creates a ring sized to hold `bound` frames (pass 60
// for the spec default).
func NewSnapshotRing(bound uint32) *SnapshotRing {
	if bound == 0 {
		bound = 1
	}
	return &SnapshotRing{bound: bound, entries: make([]snapshotEntry, bound)}
}

// Put stores blob/prng state as the snapshot for frame, evicting
// whatever previously occupied that slot.
func (r *SnapshotRing) Put(frame uint32, blob []byte, prngS0, prngS1 uint32) {
	r.entries[frame%r.bound] = snapshotEntry{frame: frame, blob: blob, prngS0: prngS0, prngS1: prngS1, present: true}
}

// Get returns the snapshot stored for frame, if the slot is both present
// and still holds that exact frame (it may have been overwritten by a
// later frame that landed on the same slot modulo bound).
func (r *SnapshotRing) Get(frame uint32) (blob []byte, prngS0, prngS1 uint32, ok bool) {
	e := r.entries[frame%r.bound]
	if !e.present || e.frame != frame {
		return nil, 0, 0, false
	}
	return e.blob, e.prngS0, e.prngS1, true
}

// Bound reports the configured ring size.
func (r *SnapshotRing) Bound() uint32 { return r.bound }

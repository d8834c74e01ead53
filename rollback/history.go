// Package rollback implements the prediction/rollback controller that
// drives the simulation kernel over an unreliable network: a bounded
// input history, a bounded snapshot ring, a pending-prediction queue,
// and the resimulation loop (spec.md §4.5).
package rollback

import "sort"

// FrameInputs is one frame's recorded client inputs plus whether they
// are confirmed by the authority or still speculative.
type FrameInputs struct {
	Inputs    map[uint32]any // client id -> opaque input
	Confirmed bool
}

// InputHistory is a bounded map frame -> FrameInputs (spec.md §4.5
// "Input history"). The default bound is 120 frames; entries older than
// the horizon are pruned so the history never grows unbounded on a long
// session.
type InputHistory struct {
	bound  uint32
	frames map[uint32]*FrameInputs
}

// NewInputHistory creates an input history bounded to the given number
// of frames (pass 120 for the spec default).
func NewInputHistory(bound uint32) *InputHistory {
	return &InputHistory{bound: bound, frames: make(map[uint32]*FrameInputs)}
}

// SetInput records an unconfirmed local or speculative input for
// (frame, client). It never overwrites an already-confirmed entry for
// that client at that frame, matching confirmFrame's higher authority.
func (h *InputHistory) SetInput(frame uint32, client uint32, input any) {
	f, ok := h.frames[frame]
	if !ok {
		f = &FrameInputs{Inputs: make(map[uint32]any)}
		h.frames[frame] = f
	}
	if _, exists := f.Inputs[client]; exists && f.Confirmed {
		return
	}
	f.Inputs[client] = input
}

// ConfirmFrame replaces frame's entry with a confirmed one sourced from
// the authority, overwriting any speculative inputs previously recorded.
func (h *InputHistory) ConfirmFrame(frame uint32, inputs map[uint32]any) {
	cp := make(map[uint32]any, len(inputs))
	for k, v := range inputs {
		cp[k] = v
	}
	h.frames[frame] = &FrameInputs{Inputs: cp, Confirmed: true}
}

// Get returns the recorded inputs for frame, if any.
func (h *InputHistory) Get(frame uint32) (*FrameInputs, bool) {
	f, ok := h.frames[frame]
	return f, ok
}

// FrameRange is one frame's inputs in the ascending-client-id order
// Range returns, matching spec.md §4.5's serialisation determinism
// contract.
type FrameRange struct {
	Frame     uint32
	Confirmed bool
	Clients   []uint32
	Inputs    []any
}

// Range returns frames in [from, to] ascending, each with its inputs
// iterated in ascending client-id order (spec.md §4.5 "range(from, to)").
func (h *InputHistory) Range(from, to uint32) []FrameRange {
	var out []FrameRange
	for frame := from; frame <= to; frame++ {
		f, ok := h.frames[frame]
		if !ok {
			out = append(out, FrameRange{Frame: frame})
			if frame == ^uint32(0) {
				break // avoid wraparound if to is the max uint32
			}
			continue
		}
		clients := make([]uint32, 0, len(f.Inputs))
		for c := range f.Inputs {
			clients = append(clients, c)
		}
		sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })
		inputs := make([]any, len(clients))
		for i, c := range clients {
			inputs[i] = f.Inputs[c]
		}
		out = append(out, FrameRange{Frame: frame, Confirmed: f.Confirmed, Clients: clients, Inputs: inputs})
		if frame == ^uint32(0) {
			break // avoid wraparound if to is the max uint32
		}
	}
	return out
}

// Prune removes all frames with frame < before (spec.md §4.5
// "prune(before)").
func (h *InputHistory) Prune(before uint32) {
	for frame := range h.frames {
		if frame < before {
			delete(h.frames, frame)
		}
	}
}

// PruneToBound drops frames older than the configured bound relative to
// currentFrame, keeping only frame >= currentFrame - bound + 1.
func (h *InputHistory) PruneToBound(currentFrame uint32) {
	if currentFrame+1 < h.bound {
		return
	}
	h.Prune(currentFrame - h.bound + 1)
}

// Serialize produces frames in ascending order, and within each, inputs
// in ascending client-id order — the exact iteration order a late
// joiner must reproduce (spec.md §4.5).
func (h *InputHistory) Serialize() []FrameRange {
	frames := make([]uint32, 0, len(h.frames))
	for f := range h.frames {
		frames = append(frames, f)
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i] < frames[j] })
	if len(frames) == 0 {
		return nil
	}
	return h.Range(frames[0], frames[len(frames)-1])
}

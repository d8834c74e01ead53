package ecs

import "sort"

const (
	indexBits = 20
	indexMask = (1 << indexBits) - 1
	genBits   = 12
	genMod    = 1 << genBits

	// MaxCapacity is the structural 20-bit index space (2^20).
	MaxCapacity = 1 << indexBits
	// OperationalCap is the default spawn ceiling (spec.md §3): the index
	// space is much larger, but callers create worlds and allocators with
	// this capacity, and an allocator refuses to hand out indices beyond
	// the capacity it was created with.
	OperationalCap = 10000
)

// EntityID is a generational handle: a 20-bit index into the component
// columns packed with a 12-bit generation counter that detects
// use-after-free (spec.md §3 "Generational id").
type EntityID uint32

// Index returns the 20-bit slot index.
func (id EntityID) Index() uint32 { return uint32(id) & indexMask }

// Generation returns the 12-bit generation.
func (id EntityID) Generation() uint32 { return uint32(id) >> indexBits }

func makeID(index, generation uint32) EntityID {
	return EntityID((generation << indexBits) | (index & indexMask))
}

// Allocator hands out generational EntityIDs over a fixed-capacity index
// space. Freeing an index bumps its generation (mod 4096) and reinserts
// the index into a sorted free list so that allocation order — and
// therefore snapshot content — never depends on the order entities were
// freed in (spec.md §3).
type Allocator struct {
	generations []uint16 // generation currently live at each index
	occupied    []bool
	freeList    []uint32 // ascending sorted
	nextIndex   uint32   // high-water mark: indices >= nextIndex were never used
	cap         uint32
}

// NewAllocator creates an allocator with the given capacity (callers pass
// OperationalCap unless they have a specific reason to shrink it further).
func NewAllocator(capacity uint32) *Allocator {
	if capacity > MaxCapacity {
		capacity = MaxCapacity
	}
	return &Allocator{
		generations: make([]uint16, capacity),
		occupied:    make([]bool, capacity),
		cap:         capacity,
	}
}

// Alloc reserves the next available index and returns a fresh handle.
func (a *Allocator) Alloc() (EntityID, error) {
	var index uint32
	if n := len(a.freeList); n > 0 {
		index = a.freeList[0]
		a.freeList = a.freeList[1:]
	} else {
		if a.nextIndex >= a.cap {
			return 0, ErrCapacityExceeded
		}
		index = a.nextIndex
		a.nextIndex++
	}
	a.occupied[index] = true
	return makeID(index, uint32(a.generations[index])), nil
}

// AllocSpecific reserves an externally chosen id (used by snapshot
// restore), forcing the generation at that index to the handle's
// generation and advancing nextIndex if necessary. It removes the index
// from the free list if present.
func (a *Allocator) AllocSpecific(id EntityID) error {
	index := id.Index()
	if index >= a.cap {
		return ErrCapacityExceeded
	}
	a.generations[index] = uint16(id.Generation())
	a.occupied[index] = true
	if index >= a.nextIndex {
		a.nextIndex = index + 1
	}
	a.removeFromFreeList(index)
	return nil
}

// Free releases id back to the pool, bumping the generation at its index
// (mod genMod) and inserting the index into the sorted free list.
// Freeing an already-free or stale index is a no-op (idempotent per
// spec.md §4.2 destroy contract).
func (a *Allocator) Free(id EntityID) {
	index := id.Index()
	if index >= a.cap || !a.occupied[index] {
		return
	}
	if uint32(a.generations[index]) != id.Generation() {
		return
	}
	a.occupied[index] = false
	a.generations[index] = uint16((uint32(a.generations[index]) + 1) % genMod)
	a.insertFreeList(index)
}

// IsAlive reports whether id still refers to a live entity: the index is
// within the allocated range and the stored generation matches.
func (a *Allocator) IsAlive(id EntityID) bool {
	index := id.Index()
	if index >= a.nextIndex || index >= a.cap {
		return false
	}
	return a.occupied[index] && uint32(a.generations[index]) == id.Generation()
}

func (a *Allocator) insertFreeList(index uint32) {
	i := sort.Search(len(a.freeList), func(i int) bool { return a.freeList[i] >= index })
	a.freeList = append(a.freeList, 0)
	copy(a.freeList[i+1:], a.freeList[i:])
	a.freeList[i] = index
}

func (a *Allocator) removeFromFreeList(index uint32) {
	i := sort.Search(len(a.freeList), func(i int) bool { return a.freeList[i] >= index })
	if i < len(a.freeList) && a.freeList[i] == index {
		a.freeList = append(a.freeList[:i], a.freeList[i+1:]...)
	}
}

// NextIndex returns the allocator's high-water mark, part of snapshot
// state (spec.md §4.4).
func (a *Allocator) NextIndex() uint32 { return a.nextIndex }

// FreeList returns a copy of the sorted free list, part of snapshot state.
func (a *Allocator) FreeList() []uint32 {
	out := make([]uint32, len(a.freeList))
	copy(out, a.freeList)
	return out
}

// Generations returns a copy of the live generation table up to
// nextIndex, part of snapshot state.
func (a *Allocator) Generations() []uint16 {
	out := make([]uint16, a.nextIndex)
	copy(out, a.generations[:a.nextIndex])
	return out
}

// Occupied returns a copy of the occupied table up to nextIndex, letting
// a snapshot reconstruct which indices within [0,nextIndex) are live.
func (a *Allocator) Occupied() []bool {
	out := make([]bool, a.nextIndex)
	copy(out, a.occupied[:a.nextIndex])
	return out
}

// RestoreState rebuilds allocator bookkeeping from snapshot data, used by
// snapshot.Decode. It does not allocate or free anything; it directly
// overwrites the bookkeeping tables.
func (a *Allocator) RestoreState(nextIndex uint32, freeList []uint32, generations []uint16, occupied []bool) {
	if nextIndex > a.cap {
		nextIndex = a.cap
	}
	a.nextIndex = nextIndex
	a.freeList = append([]uint32(nil), freeList...)
	for i := range a.generations {
		a.generations[i] = 0
		a.occupied[i] = false
	}
	for i, g := range generations {
		if uint32(i) < a.cap {
			a.generations[i] = g
		}
	}
	for i, occ := range occupied {
		if uint32(i) < a.cap {
			a.occupied[i] = occ
		}
	}
}

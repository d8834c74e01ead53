package physics

import (
	"sort"

	"github.com/lockstep/kernel/fixed"
)

// cellKey packs a grid cell coordinate the way spec.md §4.3 specifies:
// "(⌊x/cell⌋ & 0xFFFF) << 16 | (⌊y/cell⌋ & 0xFFFF)".
func cellKey(cx, cy int32) uint32 {
	return (uint32(cx)&0xFFFF)<<16 | (uint32(cy) & 0xFFFF)
}

func cellCoord(v fixed.Scalar) int32 {
	cell := fixed.FromInt(cellSize)
	return int32(fixed.Floor(fixed.Div(v, cell)).ToInt())
}

// pair is an unordered candidate pair, always stored with the
// lower-indexed body first so equality comparisons in tests are stable.
type pair struct {
	a, b int
}

// broadPhase buckets bodies into a spatial hash and emits each candidate
// pair exactly once, per spec.md §4.3: regular bodies are paired against
// four neighbour cells (right, below, below-right, below-left); together
// with the within-cell pass this visits each adjacent cell pair once, so
// no deduplication set is needed. Oversized bodies (bounding
// radius > cell size) are always paired against every regular body plus
// each other.
func broadPhase(bodies []*Body) []pair {
	type cellEntry struct {
		key uint32
		idx int
	}

	grid := make(map[uint32][]int)
	var oversized []int

	for i, b := range bodies {
		if b.boundingRadius() > fixed.FromInt(cellSize) {
			oversized = append(oversized, i)
			continue
		}
		cx := cellCoord(b.Position.X)
		cy := cellCoord(b.Position.Y)
		k := cellKey(cx, cy)
		grid[k] = append(grid[k], i)
	}

	var pairs []pair

	admissible := func(i, j int) bool {
		a, b := bodies[i], bodies[j]
		if a.Kind == Static && b.Kind == Static {
			return false
		}
		return (a.Mask&b.Layer) != 0 && (b.Mask&a.Layer) != 0
	}

	addPair := func(i, j int) {
		if i == j {
			return
		}
		if !admissible(i, j) {
			return
		}
		if i < j {
			pairs = append(pairs, pair{i, j})
		} else {
			pairs = append(pairs, pair{j, i})
		}
	}

	// Within-cell pairs: every distinct ordered pair in the bucket,
	// lower index first.
	for _, idxs := range grid {
		for x := 0; x < len(idxs); x++ {
			for y := x + 1; y < len(idxs); y++ {
				addPair(idxs[x], idxs[y])
			}
		}
	}

	// Cross-cell pairs against right / below / below-right / below-left
	// neighbours only; this plus the within-cell pass visits every
	// adjacent cell pair exactly once without a dedup set.
	neighbourOffsets := [4][2]int32{
		{1, 0},  // right
		{0, 1},  // below
		{1, 1},  // below-right
		{-1, 1}, // below-left
	}
	for key, idxs := range grid {
		cx := int32(key >> 16)
		cy := int32(key & 0xFFFF)
		for _, off := range neighbourOffsets {
			nk := cellKey(cx+off[0], cy+off[1])
			nIdxs, ok := grid[nk]
			if !ok {
				continue
			}
			for _, i := range idxs {
				for _, j := range nIdxs {
					addPair(i, j)
				}
			}
		}
	}

	// Oversized bodies pair against every regular body and each other.
	for oi, i := range oversized {
		for _, idxs := range grid {
			for _, j := range idxs {
				addPair(i, j)
			}
		}
		for _, j := range oversized[oi+1:] {
			addPair(i, j)
		}
	}

	// Map iteration order over grid is randomized per run, so the pass
	// above emits pairs in a non-deterministic order even though the set
	// of pairs is fixed; sort by (a, b) — addPair always stores the
	// lower index first — so the resolver sees pairs in ascending body
	// index order on every run. This is not cell-key order: pairs are not
	// grouped by the cell they were found in.
	sort.Slice(pairs, func(x, y int) bool {
		if pairs[x].a != pairs[y].a {
			return pairs[x].a < pairs[y].a
		}
		return pairs[x].b < pairs[y].b
	})

	return pairs
}

package ecs

// Query is a lazy ascending-id iterator over a captured candidate slice.
// The candidate set is snapshotted when the query is built; entities
// destroyed afterward are skipped as they're encountered rather than
// removed up front, so a query started mid-system sees a consistent view
// even if a system destroys entities while iterating (spec.md §9 Design
// Notes: "capture the candidate slice up front and skip entries whose
// entity has been destroyed since capture").
type Query struct {
	world      *World
	candidates []EntityID
	pos        int
}

// QueryType returns a query over every live entity of the given type, in
// ascending id order.
func (w *World) QueryType(typeName string) *Query {
	ts, ok := w.typeIndex[typeName]
	if !ok {
		return &Query{world: w}
	}
	return &Query{world: w, candidates: ts.snapshot()}
}

// QueryComponent returns a query over every live entity currently
// carrying compName, in ascending id order.
func (w *World) QueryComponent(compName string) *Query {
	cs, ok := w.componentIndex[compName]
	if !ok {
		return &Query{world: w}
	}
	return &Query{world: w, candidates: cs.snapshot()}
}

// Query implements the general public contract of spec.md §4.2: if
// first names a registered entity type, iteration is over that type's id
// set intersected with every component in rest; otherwise first is
// treated as a component name and iteration is over entities carrying
// every one of first plus rest. The probe is the smallest of the
// involved sets, tested for membership against the others, so cost is
// bounded by the rarest constraint rather than the most common one.
func (w *World) Query(first string, rest ...string) *Query {
	sets := make([]*idSet, 0, 1+len(rest))
	if ts, ok := w.typeIndex[first]; ok {
		sets = append(sets, ts)
	} else if cs, ok := w.componentIndex[first]; ok {
		sets = append(sets, cs)
	} else {
		return &Query{world: w}
	}
	for _, name := range rest {
		cs, ok := w.componentIndex[name]
		if !ok {
			return &Query{world: w}
		}
		sets = append(sets, cs)
	}

	probe := sets[0]
	for _, s := range sets[1:] {
		if len(s.ids) < len(probe.ids) {
			probe = s
		}
	}

	candidates := probe.snapshot()
	if len(sets) > 1 {
		filtered := candidates[:0]
		for _, id := range candidates {
			inAll := true
			for _, s := range sets {
				if s == probe {
					continue
				}
				if !s.contains(id) {
					inAll = false
					break
				}
			}
			if inAll {
				filtered = append(filtered, id)
			}
		}
		candidates = filtered
	}
	return &Query{world: w, candidates: candidates}
}

// Next advances the query and reports whether another live entity was
// found. Destroyed entities encountered along the way are skipped
// silently.
func (q *Query) Next() (EntityID, bool) {
	for q.pos < len(q.candidates) {
		id := q.candidates[q.pos]
		q.pos++
		if q.world.IsAlive(id) {
			return id, true
		}
	}
	return 0, false
}

// Each invokes fn for every live entity in the query, in ascending id
// order. fn may destroy entities (including the current one) without
// corrupting iteration.
func (q *Query) Each(fn func(EntityID)) {
	for {
		id, ok := q.Next()
		if !ok {
			return
		}
		fn(id)
	}
}

// Count returns the number of live entities remaining in the query
// without consuming it, by scanning the remaining candidates without
// advancing the query's position.
func (q *Query) Count() int {
	n := 0
	for _, id := range q.candidates[q.pos:] {
		if q.world.IsAlive(id) {
			n++
		}
	}
	return n
}

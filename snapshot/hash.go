package snapshot

import (
	"fmt"
	"sort"

	"github.com/lockstep/kernel/ecs"
)

// StateHash folds w's synchronised state into a 32-bit hash, ascending
// by entity id, then by each entity's components in registration order
// (skipping components with sync=false), then by each component's
// fields in name-sorted order (spec.md §4.5 "State hash"). It is the
// primary drift detector for both rollback misprediction and the debug
// HUD.
func StateHash(w *ecs.World) string {
	var hash uint32
	for _, id := range w.ActiveIDs() {
		hash = hash*31 + uint32(id)
		for _, compName := range w.EntityComponents(id) {
			def, ok := w.Component(compName)
			if !ok || !def.Sync {
				continue
			}
			col := w.Column(compName)
			index := id.Index()

			fields := append([]ecs.FieldSchema(nil), def.Fields...)
			sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

			for _, f := range fields {
				fieldIdx := fieldIndexOf(def, f.Name)
				switch f.Type {
				case ecs.FieldFixed:
					hash = hash*31 + uint32(col.GetFixed(index, fieldIdx))
				case ecs.FieldU8:
					hash = hash*31 + uint32(col.GetU8(index, fieldIdx))
				case ecs.FieldBool:
					v := uint32(0)
					if col.GetBool(index, fieldIdx) {
						v = 1
					}
					hash = hash*31 + v
				case ecs.FieldF32:
					// render-only state, never folded into the
					// synchronised hash.
				}
			}
		}
	}
	return fmt.Sprintf("%08x", hash)
}

func fieldIndexOf(def *ecs.ComponentDef, name string) int {
	for i, f := range def.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

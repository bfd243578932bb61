package solve

// RestoreTree rebuilds a Tree from previously exported tables, e.g. a
// distance/predecessor pair deserialized from a route-table cache. The
// maps are copied; the caller keeps ownership of its arguments.
//
// RestoreTree trusts its input: the tables are assumed to originate
// from a Tree computed over the same graph (callers key caches by graph
// fingerprint to guarantee that).
func RestoreTree(source int, dist map[int]int64, pred map[int]int) *Tree {
	t := &Tree{
		source: source,
		dist:   make(map[int]int64, len(dist)),
		pred:   make(map[int]int, len(pred)),
	}
	for v, d := range dist {
		t.dist[v] = d
	}
	for v, p := range pred {
		t.pred[v] = p
	}
	return t
}

// Pred returns a copy of the predecessor table, covering every reached
// node except the source. Paired with Distances, it is the Tree's full
// exportable state.
func (t *Tree) Pred() map[int]int {
	out := make(map[int]int, len(t.pred))
	for v, p := range t.pred {
		out[v] = p
	}
	return out
}

package graph

// Edge is a directed link in the mesh: one service calling another with
// a measured one-hop latency. Latency is a non-negative integer in
// whatever unit the mesh was measured in (typically microseconds).
//
// Edge is the canonical serialization type for API responses, storage,
// and network files; see pkg/io for the file format.
type Edge struct {
	From    int   `json:"from" bson:"from"`
	To      int   `json:"to" bson:"to"`
	Latency int64 `json:"latency" bson:"latency"`
}

// Mesh is the serialization form of a full latency network: the node
// count plus the edge list. Round-trips through pkg/io: import → build →
// export produces an equivalent (deduplicated, sorted) mesh.
type Mesh struct {
	Nodes int    `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// FromGraph converts a built Graph back to its serialization form.
// The edge list is the canonical deduplicated one.
func FromGraph(g *Graph) Mesh {
	return Mesh{Nodes: g.NodeCount(), Edges: g.Edges()}
}

// Package io reads and writes latency mesh files.
//
// The file format is a JSON object with a node count and an edge list:
//
//	{
//	  "nodes": 4,
//	  "edges": [
//	    {"from": 1, "to": 2, "latency": 100},
//	    {"from": 3, "to": 4, "latency": 200}
//	  ]
//	}
//
// Import validates through graph.Build, so a loaded file carries the
// same guarantees as a programmatic build: in-range endpoints,
// non-negative latencies, deduplicated edges. Export writes the
// canonical deduplicated form; import → export round-trips to an
// equivalent mesh.
package io

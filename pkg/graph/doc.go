// Package graph holds the pipeline graph being edited: its nodes and edges,
// the rules that govern connections, and its canonical serialization.
//
// # Architecture
//
// The package sits between the editing session and everything that reads or
// stores graphs:
//
//   - [Model]: the authoritative node and edge collections
//   - [Validator]: port compatibility and per-handle connection limits
//   - [Serializer]: canonical snapshots for dirty tracking and save payloads
//   - [Check]: whole-graph inspection before save or run
//
// Node types and their ports come from pkg/registry. The model holds the
// registry by reference through its validator and never mutates it.
//
// # Connections
//
// Every edge goes through [Model.AddEdge], which resolves omitted handles,
// checks the source handle limit, the target handle limit and the port
// types, in that order:
//
//	m := graph.NewModel(graph.NewValidator(reg))
//	_, err := m.AddEdge(graph.Edge{Source: "a", Target: "b"})
//	var rej *graph.Rejection
//	if errors.As(err, &rej) {
//	    // rej.Reason is ReasonLimitExceeded or ReasonIncompatiblePorts
//	}
//
// Port types are comma-separated tag sets. Two ports are compatible when
// their tag sets intersect or either side carries "any". Missing registry
// information is permissive.
//
// # Snapshots
//
// [Serializer.Serialize] produces a JSON string that is identical for
// graphs that differ only in ordering or sub-millimetre position noise:
//
//	{
//	  "name": "Support bot",
//	  "description": "",
//	  "nodes": [{"id": "a", "type": "llm.prompt", "position": {"x": 0, "y": 0}, "data": {}}],
//	  "edges": [{"id": "e1", "source": "a", "sourceHandle": "out", "target": "b", "targetHandle": "in"}]
//	}
//
// The editing session compares the current snapshot to the one taken at the
// last load or save to decide whether there are unsaved changes.
//
// # Concurrency
//
// [Validator] and [Serializer] are safe for concurrent use. [Model] is not;
// the editing session serializes access to it.
package graph

// Package pkg provides the libraries behind flowbuilder, the editing core
// of a visual pipeline builder.
//
// # Overview
//
// A pipeline is a directed graph of typed steps. Nodes come from a palette
// described by a node registry; edges connect an output handle of one node
// to an input handle of another. The pkg directory is organized as:
//
//  1. [graph] - The graph model, port compatibility, checks and the
//     canonical snapshot and save payload
//  2. [editor] - An editing session tying the model to undo history, the
//     clipboard, layout and notices
//  3. [layout] - Layered auto-layout plus align and distribute helpers
//  4. [cache] and [store] - Layout caching and draft persistence
//
// # Architecture
//
// Every edit flows through one [editor.Session]:
//
//	palette drop / connect / drag / shortcut
//	         ↓
//	    [graph.Model] (validated by [graph.Validator])
//	         ↓
//	    [history.Manager] (debounced snapshots, undo/redo)
//	         ↓
//	    [graph.Serializer] (canonical snapshot, save payload)
//
// # Quick Start
//
//	reg, _ := registry.ReadFile("registry.json")
//	s := editor.New(editor.Options{Registry: reg})
//	defer s.Close()
//
//	src, _ := s.HandleTouchDrop(editor.TouchDrop{NodeType: "telegram.webhook"})
//	dst, _ := s.HandleTouchDrop(editor.TouchDrop{NodeType: "llm.prompt"})
//	if _, err := s.Connect(graph.Edge{Source: src.ID, Target: dst.ID}); err != nil {
//	    // rejected: incompatible ports or a saturated handle
//	}
//	_ = s.AutoLayout(ctx)
//	payload := s.Payload()
//
// # Main Packages
//
// [registry] - Node type definitions: ports with type tags, connection
// limits and config schemas with defaults.
//
// [graph] - Nodes, edges and the [graph.Model]. [graph.Validator] decides
// whether two ports may connect; [graph.Check] reports structural problems
// such as cycles and dangling edges.
//
// [history] - Bounded undo/redo over graph snapshots with debounced
// commits and drag suppression.
//
// [clipboard] - Copy, paste and duplicate with fresh ids and a cumulative
// paste offset.
//
// [layout] - Rank assignment, crossing reduction and coordinates for the
// whole graph; alignment and distribution of a selection.
//
// [editor] - The session that the CLI and the HTTP server drive.
//
// ## Infrastructure
//
// [cache] - File, Redis and no-op caches for layouts and check reports.
//
// [store] - Draft storage on the filesystem, Redis or MongoDB.
//
// [config] - TOML configuration with XDG lookup.
//
// [errors] - Structured errors with codes and input validation.
//
// [observability] - Hooks for editor, layout, cache and store events.
//
// # Testing
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/layout/...     # Specific package
//	go test -run Example ./...   # Examples only
package pkg

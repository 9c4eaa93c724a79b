// Package editor ties the graph model, connection validation, history,
// clipboard and layout into one editing session.
//
// A [Session] is what a UI talks to. Every operation goes through a
// validated entry point of [graph.Model], is offered to the undo history,
// and reports rejections through a [Notifier] instead of failing: the
// session stays usable after any single failed operation.
//
//	s := editor.New(editor.Options{Registry: reg, Notifier: ui})
//	defer s.Close()
//
//	s.Drop([]byte(`{"type":"llm.prompt","meta":{}}`), graph.Position{X: 120, Y: 40})
//	if _, err := s.Connect(graph.Edge{Source: a, Target: b}); err != nil {
//	    // already reported to ui as a warning
//	}
//	s.Undo()
//
// All methods are safe for concurrent use. The history's debounce timer
// fires on its own goroutine and captures under the session lock.
package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowbuilder/pkg/cache"
	"github.com/matzehuels/flowbuilder/pkg/clipboard"
	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/history"
	"github.com/matzehuels/flowbuilder/pkg/layout"
	"github.com/matzehuels/flowbuilder/pkg/observability"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// Session is one editing session over one graph.
type Session struct {
	mu sync.Mutex

	model      *graph.Model
	validator  *graph.Validator
	serializer *graph.Serializer
	history    *history.Manager
	clip       *clipboard.Manager

	layoutOpts layout.Options
	cache      cache.Cache
	keyer      cache.Keyer
	newID      func(nodeType string) string

	logger   *log.Logger
	notifier Notifier

	name        string
	description string
	baseline    string

	selected      map[string]bool
	selectedEdges map[string]bool
	dragging      bool

	// rev counts mutations; a layout computed against an older revision
	// is discarded.
	rev          uint64
	cancelLayout context.CancelFunc
	closed       bool
}

// New creates an empty session. Its baseline is the empty graph, so a new
// session is not dirty.
func New(opts Options) *Session {
	opts = opts.withDefaults()
	v := graph.NewValidator(opts.Registry, opts.ValidatorOptions...)
	s := &Session{
		model:         graph.NewModel(v),
		validator:     v,
		serializer:    graph.NewSerializer(v),
		layoutOpts:    opts.Layout,
		cache:         opts.Cache,
		keyer:         opts.Keyer,
		newID:         opts.NewID,
		logger:        opts.Logger,
		notifier:      opts.Notifier,
		name:          opts.Name,
		description:   opts.Description,
		selected:      map[string]bool{},
		selectedEdges: map[string]bool{},
	}
	s.clip = clipboard.New(
		clipboard.WithOffset(opts.PasteOffset),
		clipboard.WithIDFunc(opts.NewID),
		clipboard.WithLogger(opts.Logger),
	)

	histOpts := []history.Option{
		history.WithLimit(opts.HistoryLimit),
		history.WithDebounce(opts.Debounce),
		history.WithSync(func(f func()) {
			s.mu.Lock()
			defer s.mu.Unlock()
			f()
		}),
		history.WithEqual(s.sameEntry),
		history.OnCommit(func(index, size int) {
			observability.Editor().OnHistoryCommit(index, size)
		}),
	}
	if opts.Clock != nil {
		histOpts = append(histOpts, history.WithClock(opts.Clock))
	}
	s.history = history.New(s.capture, histOpts...)
	s.history.Reset(s.capture())
	s.baseline = s.snapshotLocked()
	return s
}

// capture runs with the session lock held: either inside a session method
// or through the history's sync wrapper.
func (s *Session) capture() history.Entry {
	return history.NewEntry(s.model.Nodes(), s.model.Edges())
}

// sameEntry compares entries by canonical snapshot, so that ordering and
// float noise do not create spurious undo steps.
func (s *Session) sameEntry(a, b history.Entry) bool {
	return s.serializer.Serialize(a.Nodes, a.Edges, "", "") == s.serializer.Serialize(b.Nodes, b.Edges, "", "")
}

// touch records a mutation.
func (s *Session) touch() {
	s.rev++
	s.history.Touch()
}

func (s *Session) notify(n Notice) {
	if n.Level >= LevelWarning {
		s.logger.Debug("notice", "level", n.Level, "code", n.Code, "msg", n.Message)
	}
	s.notifier.Notify(n)
}

func (s *Session) warn(err error) {
	s.notify(noticeFor(err))
}

// =============================================================================
// Loading and Saving
// =============================================================================

// Load replaces the session's graph with p and makes it the new baseline:
// history restarts, the clipboard is kept and the session is clean. It
// returns the number of dropped invalid nodes and edges.
func (s *Session) Load(p graph.Payload) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if err := ferrors.ValidateGraphName(p.Name); err != nil {
		return 0, err
	}

	nodes, edges := p.Graph()
	dropped := s.model.ReplaceAll(nodes, edges)
	if dropped > 0 {
		s.logger.Warn("load: dropped invalid items", "count", dropped)
	}
	s.name = p.Name
	s.description = p.DescriptionText()
	s.clearSelectionLocked()
	s.rev++
	s.history.Reset(s.capture())
	s.baseline = s.snapshotLocked()
	n, e := s.model.Len()
	s.logger.Info("graph loaded", "name", s.name, "nodes", n, "edges", e)
	return dropped, nil
}

// Snapshot returns the canonical snapshot of the current graph.
func (s *Session) Snapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() string {
	return s.serializer.Serialize(s.model.Nodes(), s.model.Edges(), s.name, s.description)
}

// Dirty reports whether the graph, name or description differ from the
// last load or save.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked() != s.baseline
}

// MarkSaved makes the current state the clean baseline.
func (s *Session) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseline = s.snapshotLocked()
}

// Payload returns the persistence payload of the current graph.
func (s *Session) Payload() graph.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serializer.Payload(s.model.Nodes(), s.model.Edges(), s.name, s.description)
}

// SetName sets the graph name. Names are part of the dirty check but not
// of undo history.
func (s *Session) SetName(name string) error {
	if err := ferrors.ValidateGraphName(name); err != nil {
		s.warn(err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	return nil
}

// SetDescription sets the graph description.
func (s *Session) SetDescription(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.description = description
}

// Name returns the graph name.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// =============================================================================
// Read Access
// =============================================================================

// Nodes returns copies of the nodes in insertion order.
func (s *Session) Nodes() []graph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Nodes()
}

// Edges returns copies of the edges in insertion order.
func (s *Session) Edges() []graph.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Edges()
}

// Node returns a copy of the node with the given id.
func (s *Session) Node(id string) (graph.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Node(id)
}

// Validator returns the session's connection validator.
func (s *Session) Validator() *graph.Validator { return s.validator }

// Check validates the whole graph.
func (s *Session) Check() graph.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return graph.Check(s.model.Nodes(), s.model.Edges(), s.validator)
}

// AllowedTargets lists the (node, input handle) pairs a new edge from
// (srcID, srcHandle) may connect to.
func (s *Session) AllowedTargets(srcID, srcHandle string) []graph.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validator.AllowedTargets(srcID, srcHandle, s.model.Nodes(), s.model.Edges())
}

// =============================================================================
// Selection
// =============================================================================

// Select replaces the node selection. Unknown ids are ignored.
func (s *Session) Select(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.selected)
	for _, id := range ids {
		if s.model.HasNode(id) {
			s.selected[id] = true
		}
	}
}

// SelectEdges replaces the edge selection. Unknown ids are ignored.
func (s *Session) SelectEdges(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.selectedEdges)
	for _, id := range ids {
		if _, ok := s.model.Edge(id); ok {
			s.selectedEdges[id] = true
		}
	}
}

// ClearSelection deselects everything.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSelectionLocked()
}

func (s *Session) clearSelectionLocked() {
	clear(s.selected)
	clear(s.selectedEdges)
}

// Selection returns the selected node ids in model order.
func (s *Session) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectionLocked()
}

func (s *Session) selectionLocked() []string {
	var ids []string
	for _, n := range s.model.Nodes() {
		if s.selected[n.ID] {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// SelectedEdges returns the selected edge ids in model order.
func (s *Session) SelectedEdges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, e := range s.model.Edges() {
		if s.selectedEdges[e.ID] {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// pruneSelectionLocked forgets selected ids that no longer exist.
func (s *Session) pruneSelectionLocked() {
	for id := range s.selected {
		if !s.model.HasNode(id) {
			delete(s.selected, id)
		}
	}
	for id := range s.selectedEdges {
		if _, ok := s.model.Edge(id); !ok {
			delete(s.selectedEdges, id)
		}
	}
}

// =============================================================================
// History
// =============================================================================

// Undo reverts to the previous history entry. A pending edit is recorded
// first so that undo reverts it. It reports false when there is nothing to
// undo or a drag is in progress.
func (s *Session) Undo() bool {
	return s.step("undo", s.history.Undo)
}

// Redo re-applies the next history entry.
func (s *Session) Redo() bool {
	return s.step("redo", s.history.Redo)
}

func (s *Session) step(op string, fn func(func(history.Entry)) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	ok := fn(func(e history.Entry) {
		s.model.ReplaceAll(e.Nodes, e.Edges)
	})
	if !ok {
		return false
	}
	s.rev++
	s.pruneSelectionLocked()
	observability.Editor().OnHistoryApply(op, s.history.Index())
	s.logger.Debug(op, "index", s.history.Index(), "size", s.history.Len())
	return true
}

// CanUndo reports whether Undo would do something.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether Redo would do something.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// Flush records a pending edit in history immediately.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Flush()
}

// HistoryLen returns the number of history entries.
func (s *Session) HistoryLen() int { return s.history.Len() }

// =============================================================================
// Lifecycle
// =============================================================================

// Close cancels a running layout and the pending history capture. Later
// edits are refused.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cancelLayout != nil {
		s.cancelLayout()
		s.cancelLayout = nil
	}
	s.history.Close()
	return nil
}

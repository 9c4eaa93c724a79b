// Package history records graph snapshots for undo and redo.
//
// Edits do not push entries directly. Each edit calls [Manager.Touch], which
// (re)starts a debounce timer; when the timer fires without further edits
// the manager captures one entry. A burst of edits inside the debounce
// window therefore yields one entry. While a node drag is in progress,
// touches are ignored and a single entry is captured on release.
//
// The manager cycles through these states:
//
//	idle --Touch--> pending --timer--> idle (entry captured)
//	idle/pending --BeginDrag--> dragging --EndDrag--> idle (entry captured)
//	idle --Undo/Redo--> applying --apply returns--> idle
//
// Touches received while applying are dropped, so restoring an entry can
// never record itself as a new edit.
package history

import (
	"reflect"
	"sync"
	"time"

	"github.com/matzehuels/flowbuilder/pkg/graph"
)

// Defaults for [New].
const (
	DefaultLimit    = 50
	DefaultDebounce = time.Second
)

// State is the phase of the capture state machine.
type State int

const (
	StateIdle State = iota
	StatePending
	StateDragging
	StateApplying
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDragging:
		return "dragging"
	case StateApplying:
		return "applying"
	default:
		return "idle"
	}
}

// Entry is one recorded graph state.
type Entry struct {
	Nodes []graph.Node
	Edges []graph.Edge
}

// NewEntry returns an entry holding deep copies of nodes and edges.
func NewEntry(nodes []graph.Node, edges []graph.Edge) Entry {
	return Entry{Nodes: graph.CloneNodes(nodes), Edges: graph.CloneEdges(edges)}
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry { return NewEntry(e.Nodes, e.Edges) }

// Empty reports whether the entry has no nodes and no edges.
func (e Entry) Empty() bool { return len(e.Nodes) == 0 && len(e.Edges) == 0 }

// Capture returns the current graph state. It is called with the manager's
// lock held and must not call back into the manager.
type Capture func() Entry

// Option configures a Manager.
type Option func(*Manager)

// WithLimit caps the number of retained entries. The oldest entries are
// evicted first. Values below 2 are ignored.
func WithLimit(n int) Option {
	return func(m *Manager) {
		if n >= 2 {
			m.limit = n
		}
	}
}

// WithDebounce sets the quiet period after the last edit before an entry is
// captured. Negative values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.debounce = d
		}
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithSync wraps timer callbacks. The editing session passes a function
// that runs the callback under its own lock, so a capture never observes a
// half-applied edit.
func WithSync(sync func(func())) Option {
	return func(m *Manager) {
		if sync != nil {
			m.sync = sync
		}
	}
}

// WithEqual replaces the entry comparison used to skip duplicate entries.
func WithEqual(eq func(a, b Entry) bool) Option {
	return func(m *Manager) {
		if eq != nil {
			m.equal = eq
		}
	}
}

// OnCommit registers a callback invoked after an entry is recorded, with the
// new index and stack size. It runs with the manager's lock held.
func OnCommit(fn func(index, size int)) Option {
	return func(m *Manager) { m.onCommit = fn }
}

// Manager is a bounded undo/redo stack with debounced capture.
//
// All methods are safe for concurrent use. Timer callbacks run on their own
// goroutine through the sync function given with [WithSync].
type Manager struct {
	mu      sync.Mutex
	entries []Entry
	index   int
	state   State
	timer   Timer
	gen     uint64
	closed  bool

	capture  Capture
	limit    int
	debounce time.Duration
	clock    Clock
	sync     func(func())
	equal    func(a, b Entry) bool
	onCommit func(index, size int)
}

// New returns a manager that captures entries with capture.
func New(capture Capture, opts ...Option) *Manager {
	m := &Manager{
		index:    -1,
		capture:  capture,
		limit:    DefaultLimit,
		debounce: DefaultDebounce,
		clock:    SystemClock{},
		sync:     func(f func()) { f() },
		equal:    func(a, b Entry) bool { return reflect.DeepEqual(a, b) },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reset discards all entries and records e as the baseline. Any pending
// capture or drag is cancelled.
func (m *Manager) Reset(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked()
	m.state = StateIdle
	m.entries = []Entry{e.Clone()}
	m.index = 0
}

// Touch notes that the graph changed. The entry is captured once the
// debounce period passes without another touch.
func (m *Manager) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state == StateDragging || m.state == StateApplying {
		return
	}
	m.cancelTimerLocked()
	m.state = StatePending
	gen := m.gen
	m.timer = m.clock.AfterFunc(m.debounce, func() {
		m.sync(func() { m.settle(gen) })
	})
}

// BeginDrag suspends capture until [Manager.EndDrag]. A pending capture is
// folded into the drag's entry.
func (m *Manager) BeginDrag() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state == StateApplying {
		return
	}
	m.cancelTimerLocked()
	m.state = StateDragging
}

// EndDrag captures one entry for the finished drag.
func (m *Manager) EndDrag() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateDragging {
		return
	}
	m.state = StateIdle
	if !m.closed {
		m.commitLocked()
	}
}

// Flush captures a pending entry immediately.
func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushLocked()
}

// Undo steps back one entry and passes it to apply. A pending capture is
// flushed first so that the undo reverts the latest edit. It reports false
// when there is nothing to undo or a drag is in progress.
func (m *Manager) Undo(apply func(Entry)) bool {
	return m.step(-1, apply)
}

// Redo steps forward one entry and passes it to apply. It reports false
// when there is nothing to redo or a drag is in progress.
func (m *Manager) Redo(apply func(Entry)) bool {
	return m.step(+1, apply)
}

func (m *Manager) step(delta int, apply func(Entry)) bool {
	m.mu.Lock()
	if m.closed || m.state == StateDragging || m.state == StateApplying {
		m.mu.Unlock()
		return false
	}
	m.flushLocked()
	next := m.index + delta
	if next < 0 || next >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = next
	entry := m.entries[next].Clone()
	m.state = StateApplying
	m.mu.Unlock()

	apply(entry)

	m.mu.Lock()
	m.state = StateIdle
	m.mu.Unlock()
	return true
}

// CanUndo reports whether an older entry exists.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index > 0 || (m.state == StatePending && m.index >= 0)
}

// CanRedo reports whether a newer entry exists.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != StatePending && m.index < len(m.entries)-1
}

// Len returns the number of recorded entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Index returns the position of the current entry, or -1 when empty.
func (m *Manager) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// State returns the current capture state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close cancels any pending capture. Later touches are ignored.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked()
	m.closed = true
	if m.state != StateApplying {
		m.state = StateIdle
	}
}

func (m *Manager) settle(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen || m.state != StatePending {
		return
	}
	m.timer = nil
	m.state = StateIdle
	m.commitLocked()
}

func (m *Manager) flushLocked() {
	if m.state != StatePending {
		return
	}
	m.cancelTimerLocked()
	m.state = StateIdle
	m.commitLocked()
}

// cancelTimerLocked stops the timer and invalidates any callback that
// already fired but has not yet acquired the lock.
func (m *Manager) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}

func (m *Manager) commitLocked() {
	if m.capture == nil {
		return
	}
	e := m.capture().Clone()
	if m.index >= 0 && m.equal(m.entries[m.index], e) {
		return
	}
	m.entries = append(m.entries[:m.index+1], e)
	if over := len(m.entries) - m.limit; over > 0 {
		clear(m.entries[:over])
		m.entries = m.entries[over:]
	}
	m.index = len(m.entries) - 1
	if m.onCommit != nil {
		m.onCommit(m.index, len(m.entries))
	}
}

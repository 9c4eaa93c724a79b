package editor

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/history"
	"github.com/matzehuels/flowbuilder/pkg/layout"
	"github.com/matzehuels/flowbuilder/pkg/registry"
)

const testRegistry = `{
  "nodes": {
    "text.source": {"outputs": {"out": {"type": "text"}}},
    "llm.prompt": {
      "inputs":  {"in": {"type": "text"}},
      "outputs": {"out": {"type": "text"}},
      "config_schema": {
        "temperature": {"type": "number", "default": 0.7, "minimum": 0, "maximum": 2},
        "model": {"enum": ["small", "large"], "default": "small"}
      }
    },
    "image.render": {"inputs": {"in": {"type": "image"}}}
  }
}`

// manualClock fires timers only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) history.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

// recorder collects notices.
type recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

type fixture struct {
	*Session
	clock *manualClock
	rec   *recorder
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{clock: &manualClock{}, rec: &recorder{}}
	opts.Clock = f.clock
	opts.Notifier = f.rec
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	f.Session = New(opts)
	t.Cleanup(func() { f.Close() })
	return f
}

func withRegistry(t *testing.T) Options {
	t.Helper()
	reg, err := registry.Parse([]byte(testRegistry))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return Options{Registry: reg}
}

func (f *fixture) add(t *testing.T, id, typ string, x, y float64) {
	t.Helper()
	if _, err := f.AddNode(graph.Node{ID: id, Type: typ, Position: graph.Position{X: x, Y: y}}); err != nil {
		t.Fatalf("AddNode(%s): %v", id, err)
	}
}

func (f *fixture) connect(t *testing.T, src, dst string) graph.Edge {
	t.Helper()
	e, err := f.Connect(graph.Edge{Source: src, Target: dst})
	if err != nil {
		t.Fatalf("Connect(%s, %s): %v", src, dst, err)
	}
	return e
}

func ids(nodes []graph.Node) string {
	var parts []string
	for _, n := range nodes {
		parts = append(parts, n.ID)
	}
	return strings.Join(parts, ",")
}

// =============================================================================
// Nodes and Drops
// =============================================================================

func TestDropUsesSchemaDefaults(t *testing.T) {
	f := newFixture(t, withRegistry(t))

	n, err := f.Drop([]byte(`{"type":"llm.prompt","meta":{"name":"Prompt"}}`), graph.Position{X: 120, Y: 40})
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if !strings.HasPrefix(n.ID, "llm.prompt-") {
		t.Errorf("ID = %q, want llm.prompt-<uuid>", n.ID)
	}
	if n.Position != (graph.Position{X: 120, Y: 40}) {
		t.Errorf("Position = %v", n.Position)
	}
	if n.Data["temperature"] != 0.7 || n.Data["model"] != "small" {
		t.Errorf("Data = %v, want schema defaults", n.Data)
	}
	if f.rec.count() != 0 {
		t.Errorf("unexpected notices: %v", f.rec.notices)
	}
}

func TestDropRejected(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"type":`},
		{"empty type", `{"type":"","meta":{}}`},
		{"unknown type", `{"type":"video.encode","meta":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, withRegistry(t))
			_, err := f.Drop([]byte(tt.data), graph.Position{})
			if !ferrors.Is(err, ferrors.ErrCodeInvalidDrop) {
				t.Fatalf("err = %v, want INVALID_DROP", err)
			}
			n, ok := f.rec.last()
			if !ok || n.Level != LevelWarning || n.Code != ferrors.ErrCodeInvalidDrop {
				t.Errorf("notice = %+v, want INVALID_DROP warning", n)
			}
			if len(f.Nodes()) != 0 {
				t.Error("graph must be unchanged")
			}
		})
	}
}

func TestTouchDrop(t *testing.T) {
	f := newFixture(t, Options{})
	n, err := f.HandleTouchDrop(TouchDrop{NodeType: "custom.step", Position: graph.Position{X: 5, Y: 6}})
	if err != nil {
		t.Fatalf("HandleTouchDrop: %v", err)
	}
	if n.Type != "custom.step" || n.Position.X != 5 {
		t.Errorf("node = %+v", n)
	}
}

func TestAddNodeDuplicate(t *testing.T) {
	f := newFixture(t, Options{})
	f.add(t, "a", "", 0, 0)
	if _, err := f.AddNode(graph.Node{ID: "a"}); !ferrors.Is(err, ferrors.ErrCodeDuplicateID) {
		t.Errorf("err = %v, want DUPLICATE_ID", err)
	}
	if n, _ := f.rec.last(); n.Code != ferrors.ErrCodeDuplicateID {
		t.Errorf("notice code = %q", n.Code)
	}
}

func TestUpdateNodeData(t *testing.T) {
	f := newFixture(t, withRegistry(t))
	f.add(t, "p", "llm.prompt", 0, 0)

	if err := f.UpdateNodeData("p", graph.Data{"temperature": 5.0}); !ferrors.Is(err, ferrors.ErrCodeInvalidNode) {
		t.Errorf("out of range: err = %v", err)
	}
	if err := f.UpdateNodeData("p", graph.Data{"model": "large", "note": "free"}); err != nil {
		t.Fatalf("UpdateNodeData: %v", err)
	}
	n, _ := f.Node("p")
	if n.Data["model"] != "large" || n.Data["note"] != "free" {
		t.Errorf("Data = %v", n.Data)
	}
	if err := f.UpdateNodeData("ghost", graph.Data{"x": 1}); !ferrors.Is(err, ferrors.ErrCodeNotFound) {
		t.Errorf("missing node: err = %v", err)
	}
}

// =============================================================================
// Connections
// =============================================================================

func TestConnectRejections(t *testing.T) {
	f := newFixture(t, withRegistry(t))
	f.add(t, "src", "text.source", 0, 0)
	f.add(t, "p1", "llm.prompt", 0, 100)
	f.add(t, "p2", "llm.prompt", 100, 100)
	f.add(t, "img", "image.render", 200, 100)

	e := f.connect(t, "src", "p1")
	if e.SourceHandle != "out" || e.TargetHandle != "in" {
		t.Errorf("handles = %s/%s, want out/in", e.SourceHandle, e.TargetHandle)
	}

	tests := []struct {
		name string
		edge graph.Edge
		code ferrors.Code
	}{
		{"incompatible", graph.Edge{Source: "p2", Target: "img"}, ferrors.ErrCodeIncompatiblePorts},
		{"source saturated", graph.Edge{Source: "src", Target: "p2"}, ferrors.ErrCodeLimitExceeded},
		{"target saturated", graph.Edge{Source: "p2", Target: "p1"}, ferrors.ErrCodeLimitExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Connect(tt.edge)
			var rej *graph.Rejection
			if !errors.As(err, &rej) {
				t.Fatalf("err = %v, want *graph.Rejection", err)
			}
			n, _ := f.rec.last()
			if n.Level != LevelWarning || n.Code != tt.code {
				t.Errorf("notice = %+v, want %s warning", n, tt.code)
			}
			if got := len(f.Edges()); got != 1 {
				t.Errorf("edges = %d, want 1", got)
			}
		})
	}
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t, Options{})
	f.add(t, "a", "", 0, 0)
	f.add(t, "b", "", 0, 100)
	e := f.connect(t, "a", "b")
	if n := f.Disconnect(e.ID, "missing"); n != 1 {
		t.Errorf("Disconnect = %d, want 1", n)
	}
	if len(f.Edges()) != 0 {
		t.Error("edge should be gone")
	}
}

func TestAllowedTargets(t *testing.T) {
	f := newFixture(t, withRegistry(t))
	f.add(t, "src", "text.source", 0, 0)
	f.add(t, "p", "llm.prompt", 0, 100)
	f.add(t, "img", "image.render", 100, 100)

	got := f.AllowedTargets("src", "")
	if len(got) != 1 || got[0] != (graph.Target{NodeID: "p", Handle: "in"}) {
		t.Errorf("AllowedTargets = %v", got)
	}
}

// =============================================================================
// Selection and Deletion
// =============================================================================

func TestDeleteSelectionCascades(t *testing.T) {
	f := newFixture(t, Options{})
	for _, id := range []string{"hub", "x", "y", "z"} {
		f.add(t, id, "", 0, 0)
	}
	f.connect(t, "hub", "x")
	if _, err := f.Connect(graph.Edge{Source: "hub", SourceHandle: "alt", Target: "y"}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	f.connect(t, "z", "hub")
	f.connect(t, "x", "z")

	f.Select("hub", "ghost")
	if got := f.Selection(); len(got) != 1 || got[0] != "hub" {
		t.Fatalf("Selection = %v", got)
	}
	if !f.DeleteSelection() {
		t.Fatal("DeleteSelection reported no change")
	}
	if got := ids(f.Nodes()); got != "x,y,z" {
		t.Errorf("nodes = %s", got)
	}
	if edges := f.Edges(); len(edges) != 1 || edges[0].Source != "x" {
		t.Errorf("edges = %v, want only x->z", edges)
	}
	if len(f.Selection()) != 0 {
		t.Error("selection should be pruned")
	}
	if f.DeleteSelection() {
		t.Error("empty selection should be a no-op")
	}
}

func TestDeleteSelectedEdges(t *testing.T) {
	f := newFixture(t, Options{})
	f.add(t, "a", "", 0, 0)
	f.add(t, "b", "", 0, 0)
	e := f.connect(t, "a", "b")
	f.SelectEdges(e.ID)
	if !f.DeleteSelection() {
		t.Fatal("DeleteSelection reported no change")
	}
	if len(f.Edges()) != 0 || len(f.Nodes()) != 2 {
		t.Errorf("nodes=%d edges=%d", len(f.Nodes()), len(f.Edges()))
	}
}

// =============================================================================
// History
// =============================================================================

func TestUndoRedoDebounced(t *testing.T) {
	f := newFixture(t, Options{})
	if f.CanUndo() || f.Undo() {
		t.Fatal("nothing to undo on a new session")
	}

	f.add(t, "a", "", 0, 0)
	f.clock.Advance(time.Second)
	if got := f.HistoryLen(); got != 2 {
		t.Fatalf("HistoryLen after settle = %d, want 2", got)
	}

	f.add(t, "b", "", 0, 0)
	f.add(t, "c", "", 0, 0)
	f.clock.Advance(500 * time.Millisecond)
	if got := f.HistoryLen(); got != 2 {
		t.Fatalf("HistoryLen before debounce = %d, want 2", got)
	}

	if !f.Undo() {
		t.Fatal("Undo failed")
	}
	if got := ids(f.Nodes()); got != "a" {
		t.Errorf("after undo: %s, want a", got)
	}
	if !f.Redo() {
		t.Fatal("Redo failed")
	}
	if got := ids(f.Nodes()); got != "a,b,c" {
		t.Errorf("after redo: %s, want a,b,c", got)
	}
	if f.Redo() {
		t.Error("Redo at the end should be a no-op")
	}

	f.clock.Advance(time.Hour)
	if got := f.HistoryLen(); got != 3 {
		t.Errorf("applying history must not record entries: len = %d", got)
	}
}

func TestUndoTruncatesRedo(t *testing.T) {
	f := newFixture(t, Options{})
	f.add(t, "a", "", 0, 0)
	f.Flush()
	f.add(t, "b", "", 0, 0)
	f.Flush()
	f.Undo()
	f.add(t, "c", "", 0, 0)
	f.Flush()
	if f.CanRedo() {
		t.Error("a new edit should drop the redo tail")
	}
	if got := ids(f.Nodes()); got != "a,c" {
		t.Errorf("nodes = %s", got)
	}
}

func TestHistoryBound(t *testing.T) {
	f := newFixture(t, Options{})
	for i := range 60 {
		f.add(t, "n"+strings.Repeat("x", i), "", 0, 0)
		f.Flush()
	}
	if got := f.HistoryLen(); got != history.DefaultLimit {
		t.Errorf("HistoryLen = %d, want %d", got, history.DefaultLimit)
	}
	undos := 0
	for f.Undo() {
		undos++
	}
	if undos != history.DefaultLimit-1 {
		t.Errorf("undos = %d, want %d", undos, history.DefaultLimit-1)
	}
}

func TestDragIsOneEntry(t *testing.T) {
	f := newFixture(t, Options{})
	f.add(t, "a", "", 0, 0)
	f.Flush()
	before := f.HistoryLen()

	f.DragStart()
	for range 3 {
		f.DragMove(graph.Position{X: 10}, "a")
	}
	f.clock.Advance(time.Hour)
	if f.Undo() {
		t.Error("Undo during a drag should be refused")
	}
	f.DragEnd()

	if got := f.HistoryLen(); got != before+1 {
		t.Errorf("HistoryLen = %d, want %d", got, before+1)
	}
	if n, _ := f.Node("a"); n.Position.X != 30 {
		t.Errorf("X = %g, want 30", n.Position.X)
	}
	f.Undo()
	if n, _ := f.Node("a"); n.Position.X != 0 {
		t.Errorf("after undo X = %g, want 0", n.Position.X)
	}
}

func TestDirtyTracking(t *testing.T) {
	f := newFixture(t, Options{})
	if f.Dirty() {
		t.Fatal("new session should be clean")
	}
	f.add(t, "a", "", 1, 2)
	if !f.Dirty() {
		t.Fatal("edit should make the session dirty")
	}
	f.MarkSaved()
	if f.Dirty() {
		t.Fatal("MarkSaved should clean the session")
	}
	if err := f.SetName("Renamed"); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	if !f.Dirty() {
		t.Error("renaming should make the session dirty")
	}

	// Moving a node back to where it was is not a change.
	f.MarkSaved()
	f.Move("a", graph.Position{X: 9, Y: 9})
	f.Move("a", graph.Position{X: 1, Y: 2})
	if f.Dirty() {
		t.Error("round-trip move should compare equal to the baseline")
	}
}

func TestLoad(t *testing.T) {
	f := newFixture(t, Options{})
	f.add(t, "old", "", 0, 0)
	f.Flush()

	desc := "imported"
	dropped, err := f.Load(graph.Payload{
		Name:        "Pipeline",
		Description: &desc,
		Nodes: []graph.Node{
			{ID: "a", Type: "custom"},
			{ID: "b", Type: "custom"},
			{ID: "a", Type: "custom"},
		},
		Edges: []graph.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "a", Target: "ghost"},
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
	if f.Dirty() || f.CanUndo() {
		t.Error("a loaded graph is the clean baseline")
	}
	p := f.Payload()
	if p.Name != "Pipeline" || p.DescriptionText() != "imported" || len(p.Nodes) != 2 || len(p.Edges) != 1 {
		t.Errorf("Payload = %+v", p)
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestClosedSession(t *testing.T) {
	f := newFixture(t, Options{})
	f.add(t, "a", "", 0, 0)
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := f.AddNode(graph.Node{ID: "b"}); !errors.Is(err, ErrClosed) {
		t.Errorf("AddNode err = %v, want ErrClosed", err)
	}
	if err := f.AutoLayout(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("AutoLayout err = %v, want ErrClosed", err)
	}
	f.clock.Advance(time.Hour)
	if got := f.HistoryLen(); got != 1 {
		t.Errorf("pending capture should be cancelled: len = %d", got)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.HistoryLimit != history.DefaultLimit || o.Debounce != history.DefaultDebounce {
		t.Errorf("history defaults = %d, %v", o.HistoryLimit, o.Debounce)
	}
	if o.Layout != layout.DefaultOptions() {
		t.Errorf("layout defaults = %+v", o.Layout)
	}
	if o.Cache == nil || o.Keyer == nil || o.NewID == nil || o.Logger == nil || o.Notifier == nil {
		t.Error("defaults should fill every collaborator")
	}
}

package cli

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/matzehuels/flowbuilder/pkg/cache"
	"github.com/matzehuels/flowbuilder/pkg/editor"
	"github.com/matzehuels/flowbuilder/pkg/graph"
)

// fileSession is an editor session over a payload file.
type fileSession struct {
	*editor.Session
	path    string
	cache   *hitCache
	dropped int
}

// openSession loads the payload at path into a new session. tweak, if
// not nil, adjusts the session options first.
func (c *CLI) openSession(ctx context.Context, path string, noCache bool, tweak func(*editor.Options)) (*fileSession, error) {
	p, err := graph.ReadPayloadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", path, err)
	}
	opts, cc, err := c.editorOptions(ctx, noCache)
	if err != nil {
		return nil, err
	}
	hc := &hitCache{Cache: cc}
	opts.Cache = hc
	if tweak != nil {
		tweak(&opts)
	}

	sess := editor.New(opts)
	dropped, err := sess.Load(p)
	if err != nil {
		sess.Close()
		hc.Close()
		return nil, fmt.Errorf("load graph %s: %w", path, err)
	}
	if dropped > 0 {
		printWarning("Dropped %d invalid nodes or edges from %s", dropped, path)
	}
	return &fileSession{Session: sess, path: path, cache: hc, dropped: dropped}, nil
}

// save writes the session's payload to output, or back to the file it was
// loaded from.
func (s *fileSession) save(output string) (string, error) {
	if output == "" {
		output = s.path
	}
	if err := graph.WritePayloadFile(s.Payload(), output); err != nil {
		return "", fmt.Errorf("write output %s: %w", output, err)
	}
	s.MarkSaved()
	return output, nil
}

func (s *fileSession) Close() error {
	s.Session.Close()
	return s.cache.Close()
}

// hitCache counts cache hits so commands can report them.
type hitCache struct {
	cache.Cache
	hits atomic.Int64
}

func (c *hitCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if ok {
		c.hits.Add(1)
	}
	return data, ok, err
}

package cache

// ScopedKeyer wraps a Keyer with a prefix, so that several workspaces can
// share one cache directory without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "flowbuilder:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key. A nil
// inner keyer means the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) LayoutKey(snapshotHash, optsKey string) string {
	return k.prefix + k.inner.LayoutKey(snapshotHash, optsKey)
}

func (k *ScopedKeyer) CheckKey(snapshotHash, registryHash string) string {
	return k.prefix + k.inner.CheckKey(snapshotHash, registryHash)
}

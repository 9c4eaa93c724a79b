package cache

import "strings"

// Key types reported to cache hooks.
const (
	KeyTypeLayout = "layout"
	KeyTypeCheck  = "check"
)

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies a layout result for a snapshot hash and an
	// options key (see layout.Options.Key).
	LayoutKey(snapshotHash, optsKey string) string

	// CheckKey identifies a validation report for a snapshot hash and a
	// registry fingerprint.
	CheckKey(snapshotHash, registryHash string) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(snapshotHash, optsKey string) string {
	return hashKey(KeyTypeLayout, snapshotHash, optsKey)
}

func (DefaultKeyer) CheckKey(snapshotHash, registryHash string) string {
	return hashKey(KeyTypeCheck, snapshotHash, registryHash)
}

// KeyType returns the key type of a key built by a Keyer, ignoring any
// scope prefix.
func KeyType(key string) string {
	for _, t := range []string{KeyTypeLayout, KeyTypeCheck} {
		if strings.Contains(key, t+":") {
			return t
		}
	}
	return "unknown"
}

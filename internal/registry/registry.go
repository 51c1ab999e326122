// Package registry holds the static dataset and model catalogs used to
// resolve a plan's free-text identifiers onto concrete code-generator
// backends. Registries are metadata only: nothing here touches the network
// or the filesystem, and a constructed registry is read-only, so unlimited
// concurrent lookups need no locking.
package registry

import (
	"fmt"
	"strings"
)

// Normalize lowercases a raw identifier and strips every non-alphanumeric
// character, so "SST-2", "sst_2" and " sst 2 " all collapse to "sst2".
// It is a pure function and performs no alias resolution.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// index maps normalized canonical keys and aliases to canonical keys,
// rejecting any key or alias claimed twice. Shared by both registries.
type index struct {
	kind    string
	keys    map[string]struct{}
	aliases map[string]string
}

func newIndex(kind string) *index {
	return &index{
		kind:    kind,
		keys:    make(map[string]struct{}),
		aliases: make(map[string]string),
	}
}

func (ix *index) add(canonical string, aliases []string) error {
	key := Normalize(canonical)
	if key == "" {
		return fmt.Errorf("%s registry entry has empty canonical key", ix.kind)
	}
	if _, exists := ix.keys[key]; exists {
		return fmt.Errorf("%s registry claims key %q more than once", ix.kind, key)
	}
	if owner, exists := ix.aliases[key]; exists {
		return fmt.Errorf("%s registry key %q already claimed as alias of %q", ix.kind, key, owner)
	}
	ix.keys[key] = struct{}{}

	for _, alias := range aliases {
		a := Normalize(alias)
		if a == "" || a == key {
			continue
		}
		if _, exists := ix.keys[a]; exists {
			return fmt.Errorf("%s registry alias %q collides with key %q", ix.kind, alias, a)
		}
		if owner, exists := ix.aliases[a]; exists && owner != key {
			return fmt.Errorf("%s registry alias %q claimed by both %q and %q", ix.kind, alias, owner, key)
		}
		ix.aliases[a] = key
	}
	return nil
}

// canonical resolves a raw name to its canonical key, or returns the
// normalized input unchanged when nothing matches.
func (ix *index) canonical(raw string) string {
	key := Normalize(raw)
	if _, ok := ix.keys[key]; ok {
		return key
	}
	if owner, ok := ix.aliases[key]; ok {
		return owner
	}
	return key
}

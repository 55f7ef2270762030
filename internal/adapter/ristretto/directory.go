// Package ristretto caches hot directory lookups (display names, custom
// field definitions) in front of the PostgreSQL store.
package ristretto

import (
	"context"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Kondo2021/redmine-messenger/internal/domain/tracker"
)

// Directory decorates another tracker.Directory with an in-process TTL
// cache. Only the small, stable lookups are cached; issues and users carry
// recipient state and always go to the store.
type Directory struct {
	next  tracker.Directory
	cache *ristretto.Cache[string, string]
	ttl   time.Duration
}

var _ tracker.Directory = (*Directory)(nil)

// New builds the caching decorator. maxEntries bounds the number of cached
// strings.
func New(next tracker.Directory, maxEntries int64, ttl time.Duration) (*Directory, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Directory{next: next, cache: cache, ttl: ttl}, nil
}

// DisplayName serves reference names from cache when possible. Misses in
// the underlying store are not cached; a freshly created status or version
// should resolve on the next event.
func (d *Directory) DisplayName(ctx context.Context, kind tracker.RefKind, id string) (string, bool) {
	key := "ref:" + string(kind) + ":" + id
	if v, ok := d.cache.Get(key); ok {
		return v, true
	}
	name, ok := d.next.DisplayName(ctx, kind, id)
	if ok {
		d.cache.SetWithTTL(key, name, 1, d.ttl)
	}
	return name, ok
}

// User is a pass-through: platform ids and names must be current.
func (d *Directory) User(ctx context.Context, id string) (tracker.UserRef, bool) {
	return d.next.User(ctx, id)
}

// Issue is a pass-through: watchers and assignee change between events.
func (d *Directory) Issue(ctx context.Context, id int64) (*tracker.Issue, bool) {
	return d.next.Issue(ctx, id)
}

// CustomField caches definitions, encoded as name and format joined by a
// unit separator.
func (d *Directory) CustomField(ctx context.Context, id string) (tracker.CustomFieldDef, bool) {
	key := "cf:" + id
	if v, ok := d.cache.Get(key); ok {
		name, format, found := strings.Cut(v, "\x1f")
		if found {
			return tracker.CustomFieldDef{ID: id, Name: name, Format: format}, true
		}
	}
	def, ok := d.next.CustomField(ctx, id)
	if ok {
		d.cache.SetWithTTL(key, def.Name+"\x1f"+def.Format, 1, d.ttl)
	}
	return def, ok
}

// CustomOption caches list option labels.
func (d *Directory) CustomOption(ctx context.Context, fieldID, value string) (string, bool) {
	key := "opt:" + fieldID + ":" + value
	if v, ok := d.cache.Get(key); ok {
		return v, true
	}
	label, ok := d.next.CustomOption(ctx, fieldID, value)
	if ok {
		d.cache.SetWithTTL(key, label, 1, d.ttl)
	}
	return label, ok
}

// Close releases the cache resources.
func (d *Directory) Close() {
	d.cache.Close()
}

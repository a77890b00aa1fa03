package host

import (
	"context"
	"time"

	"github.com/dotcommander/nowpanel/internal/models"
	"github.com/dotcommander/nowpanel/pkg/blockcache"
)

// Lookup resolves single blocks without children through a short-lived
// cache. Misses are cached too, so a deleted parent is not re-fetched for
// every sibling in a cycle.
type Lookup struct {
	doc   Document
	cache *blockcache.Cache[*models.Block]
}

// NewLookup caches up to maxEntries blocks for ttl.
func NewLookup(doc Document, maxEntries int, ttl time.Duration) *Lookup {
	return &Lookup{doc: doc, cache: blockcache.New[*models.Block](maxEntries, ttl)}
}

// Block returns the block with id, or (nil, nil) if the host has none.
// Errors are not cached.
func (l *Lookup) Block(ctx context.Context, id string) (*models.Block, error) {
	if id == "" {
		return nil, nil
	}
	if b, ok := l.cache.Get(id); ok {
		return b, nil
	}
	b, err := l.doc.GetBlock(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if b != nil {
		b.Children = nil
	}
	l.cache.Set(id, b)
	return b, nil
}

// Parent returns b's parent block, or nil when b is top-level or its parent
// no longer exists.
func (l *Lookup) Parent(ctx context.Context, b *models.Block) (*models.Block, error) {
	pid := b.ParentID()
	if pid == "" || pid == b.ID {
		return nil, nil
	}
	return l.Block(ctx, pid)
}

// Purge forgets every cached block. Called after mutations.
func (l *Lookup) Purge() { l.cache.Purge() }

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dotcommander/nowpanel/internal/host"
	"github.com/dotcommander/nowpanel/internal/models"
)

// BlockStore serves the document half of host.Host from the SQLite store.
type BlockStore struct {
	db *sql.DB
}

var _ host.Document = (*BlockStore)(nil)

// NewBlockStore wraps an initialized database.
func NewBlockStore(db *sql.DB) *BlockStore {
	return &BlockStore{db: db}
}

// DB exposes the underlying handle for CLI commands that manage pages.
func (s *BlockStore) DB() *sql.DB { return s.db }

// Ping reports host.ErrUnavailable while the database cannot be reached.
func (s *BlockStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", host.ErrUnavailable, err)
	}
	return nil
}

func (s *BlockStore) QueryTasks(ctx context.Context, q models.TaskQuery) ([]models.Block, error) {
	return QueryBlocks(ctx, s.db, q)
}

// GetBlock returns (nil, nil) for an unknown id.
func (s *BlockStore) GetBlock(ctx context.Context, id string, includeChildren bool) (*models.Block, error) {
	b, err := GetBlock(ctx, s.db, id, includeChildren)
	if errors.Is(err, ErrBlockNotFound) {
		return nil, nil
	}
	return b, err
}

// GetPageBlockTree returns (nil, nil) for an unknown page.
func (s *BlockStore) GetPageBlockTree(ctx context.Context, page string) ([]models.Block, error) {
	tree, err := GetPageTree(ctx, s.db, page)
	if errors.Is(err, ErrPageNotFound) {
		return nil, nil
	}
	return tree, err
}

func (s *BlockStore) UpdateBlockText(ctx context.Context, id, text string) error {
	return notFound(id, UpdateBlockContent(ctx, s.db, id, text))
}

func (s *BlockStore) SetAnnotation(ctx context.Context, id, key string, value any) error {
	return notFound(id, SetProperty(ctx, s.db, id, key, value))
}

func (s *BlockStore) RemoveAnnotation(ctx context.Context, id, key string) error {
	return notFound(id, RemoveProperty(ctx, s.db, id, key))
}

// notFound converts the sentinel into the structured error the CLI renders.
func notFound(id string, err error) error {
	if errors.Is(err, ErrBlockNotFound) {
		return &models.BlockNotFoundError{ID: id}
	}
	return err
}

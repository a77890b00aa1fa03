// Package host defines the editor/document interface the panel consumes and
// the decorators that harden calls into it.
package host

import (
	"context"
	"errors"

	"github.com/dotcommander/nowpanel/internal/models"
)

// ErrUnavailable is returned while the host API is not ready.
var ErrUnavailable = errors.New("host unavailable")

// Document is the block store side of the host.
//
// Missing entities are not errors: GetBlock returns (nil, nil) for an unknown
// id and GetPageBlockTree returns (nil, nil) for an unknown page.
type Document interface {
	QueryTasks(ctx context.Context, q models.TaskQuery) ([]models.Block, error)
	GetBlock(ctx context.Context, id string, includeChildren bool) (*models.Block, error)
	GetPageBlockTree(ctx context.Context, page string) ([]models.Block, error)
	UpdateBlockText(ctx context.Context, id, text string) error
	SetAnnotation(ctx context.Context, id, key string, value any) error
	RemoveAnnotation(ctx context.Context, id, key string) error
}

// UI is the editor chrome side of the host.
type UI interface {
	GetCurrentEditingBlock(ctx context.Context) (*models.Block, error)
	GetOpenSidePanelItems(ctx context.Context) ([]models.SidePanelItem, error)
	CurrentRoute(ctx context.Context) (models.Route, error)
	// DateFormat is the user's journal title format; "" means the default.
	DateFormat() string
	// OnNavigationChanged registers fn and returns a function that removes it.
	OnNavigationChanged(fn func()) (unsubscribe func())
}

// Host is the full collaborator surface.
type Host interface {
	Document
	UI
}

type composed struct {
	Document
	UI
}

// Compose joins a document store and a UI source into one Host.
func Compose(doc Document, ui UI) Host {
	return composed{Document: doc, UI: ui}
}

func isUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

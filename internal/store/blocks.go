package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dotcommander/nowpanel/internal/content"
	"github.com/dotcommander/nowpanel/internal/models"
)

// NewBlock describes a block to insert. ParentID "" appends a top-level block.
type NewBlock struct {
	PageID     string
	ParentID   string
	Content    string
	Properties map[string]any
}

// CreateBlock inserts a block as the last child of its parent and returns it.
// When ParentID is set the page is taken from the parent.
func CreateBlock(ctx context.Context, db *sql.DB, nb NewBlock) (*models.Block, error) {
	props := "{}"
	if len(nb.Properties) > 0 {
		b, err := json.Marshal(nb.Properties)
		if err != nil {
			return nil, fmt.Errorf("failed to encode properties: %w", err)
		}
		props = string(b)
	}

	id := uuid.NewString()
	err := Transact(ctx, db, func(tx *sql.Tx) error {
		pageID := nb.PageID
		var parentVal any
		if nb.ParentID != "" {
			if err := tx.QueryRowContext(ctx, `SELECT page_id FROM blocks WHERE id = ?`, nb.ParentID).Scan(&pageID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("parent %s: %w", nb.ParentID, ErrBlockNotFound)
				}
				return fmt.Errorf("failed to look up parent: %w", err)
			}
			parentVal = nb.ParentID
		}
		if pageID == "" {
			return errors.New("block needs a page or a parent")
		}

		var position int64
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(position), -1) + 1 FROM blocks
			WHERE page_id = ? AND parent_id IS ?
		`, pageID, parentVal).Scan(&position); err != nil {
			return fmt.Errorf("failed to compute position: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO blocks (id, page_id, parent_id, position, content, marker, properties)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, pageID, parentVal, position, nb.Content, content.LeadingMarker(nb.Content), props)
		if err != nil {
			return fmt.Errorf("failed to insert block: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetBlock(ctx, db, id, false)
}

// GetBlock loads one block, optionally with its full subtree.
func GetBlock(ctx context.Context, db *sql.DB, id string, includeChildren bool) (*models.Block, error) {
	var r blockRow
	err := r.scan(db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM blocks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block: %w", err)
	}

	b := r.block()
	if !includeChildren {
		return &b, nil
	}

	rows, err := db.QueryContext(ctx, `
		WITH RECURSIVE sub(id, depth) AS (
			SELECT id, 0 FROM blocks WHERE parent_id = ?
			UNION ALL
			SELECT b.id, sub.depth + 1 FROM blocks b JOIN sub ON b.parent_id = sub.id
			WHERE sub.depth < 100
		)
		SELECT `+prefixed("b", blockColumns)+`
		FROM blocks b JOIN sub ON sub.id = b.id
		ORDER BY b.position, b.seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load subtree: %w", err)
	}
	desc, err := scanBlockRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan subtree: %w", err)
	}
	b.Children = buildTree(desc, id)
	return &b, nil
}

// GetPageTree returns the top-level blocks of the named page with their
// descendants attached.
func GetPageTree(ctx context.Context, db *sql.DB, pageName string) ([]models.Block, error) {
	pageID, err := pageIDByName(ctx, db, pageName)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+blockColumns+` FROM blocks WHERE page_id = ? ORDER BY position, seq
	`, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load page blocks: %w", err)
	}
	all, err := scanBlockRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan page blocks: %w", err)
	}
	return buildTree(all, ""), nil
}

// buildTree nests rows under rootParent ("" = page level). Rows whose parent
// is not in the set are dropped.
func buildTree(rows []blockRow, rootParent string) []models.Block {
	byParent := make(map[string][]blockRow, len(rows))
	for _, r := range rows {
		key := scanNullString(r.parentID)
		byParent[key] = append(byParent[key], r)
	}

	seen := make(map[string]bool, len(rows))
	var attach func(parent string) []models.Block
	attach = func(parent string) []models.Block {
		kids := byParent[parent]
		if len(kids) == 0 {
			return nil
		}
		out := make([]models.Block, 0, len(kids))
		for _, r := range kids {
			if seen[r.id] {
				continue
			}
			seen[r.id] = true
			b := r.block()
			b.Children = attach(r.id)
			out = append(out, b)
		}
		return out
	}
	return attach(rootParent)
}

func prefixed(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// QueryBlocks selects blocks by leading marker and/or annotation presence,
// oldest first.
func QueryBlocks(ctx context.Context, db *sql.DB, q models.TaskQuery) ([]models.Block, error) {
	var (
		where []string
		args  []any
	)
	if len(q.Markers) > 0 {
		marks := make([]string, 0, len(q.Markers))
		for _, m := range q.Markers {
			marks = append(marks, "?")
			args = append(args, strings.ToUpper(strings.TrimSpace(m)))
		}
		where = append(where, "marker IN ("+strings.Join(marks, ", ")+")")
	}
	if q.Annotation != "" {
		where = append(where, "json_extract(properties, '$.' || ?) IS NOT NULL")
		args = append(args, q.Annotation)
	}
	if len(where) == 0 {
		return nil, errors.New("query needs markers or an annotation")
	}

	rows, err := db.QueryContext(ctx, `SELECT `+blockColumns+` FROM blocks WHERE `+strings.Join(where, " AND ")+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocks: %w", err)
	}
	found, err := scanBlockRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan blocks: %w", err)
	}
	out := make([]models.Block, 0, len(found))
	for i := range found {
		out = append(out, found[i].block())
	}
	return out, nil
}

// UpdateBlockContent replaces a block's text and re-derives its marker.
func UpdateBlockContent(ctx context.Context, db *sql.DB, id, text string) error {
	return RetryWithBackoff(func() error {
		res, err := db.ExecContext(ctx, `
			UPDATE blocks SET content = ?, marker = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
		`, text, content.LeadingMarker(text), id)
		if err != nil {
			return fmt.Errorf("failed to update block: %w", err)
		}
		return requireRow(res, id)
	})
}

// SetProperty stores value under key in the block's property object.
func SetProperty(ctx context.Context, db *sql.DB, id, key string, value any) error {
	expr, arg, err := jsonValue(value)
	if err != nil {
		return err
	}
	return RetryWithBackoff(func() error {
		res, err := db.ExecContext(ctx, `
			UPDATE blocks
			SET properties = json_set(properties, '$.' || ?, `+expr+`), updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, key, arg, id)
		if err != nil {
			return fmt.Errorf("failed to set property %s: %w", key, err)
		}
		return requireRow(res, id)
	})
}

// RemoveProperty deletes key from the block's property object. Removing an
// absent key is a no-op.
func RemoveProperty(ctx context.Context, db *sql.DB, id, key string) error {
	return RetryWithBackoff(func() error {
		res, err := db.ExecContext(ctx, `
			UPDATE blocks
			SET properties = json_remove(properties, '$.' || ?), updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, key, id)
		if err != nil {
			return fmt.Errorf("failed to remove property %s: %w", key, err)
		}
		return requireRow(res, id)
	})
}

// jsonValue picks the SQL expression that stores value with its JSON type.
func jsonValue(value any) (string, any, error) {
	switch v := value.(type) {
	case string, int, int64, float64:
		return "?", v, nil
	case bool:
		if v {
			return "json(?)", "true", nil
		}
		return "json(?)", "false", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode property: %w", err)
		}
		return "json(?)", string(b), nil
	}
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrBlockNotFound)
	}
	return nil
}

package store

import (
	"database/sql"
	"encoding/json"

	"github.com/dotcommander/nowpanel/internal/models"
)

const blockColumns = `seq, id, page_id, parent_id, position, content, properties`

// scanNullString converts sql.NullString to string (empty if NULL)
func scanNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// blockRow is one blocks row before tree assembly.
type blockRow struct {
	seq        int64
	id         string
	pageID     string
	parentID   sql.NullString
	position   int64
	content    string
	properties string
}

func (r *blockRow) scan(row interface {
	Scan(dest ...any) error
}) error {
	return row.Scan(&r.seq, &r.id, &r.pageID, &r.parentID, &r.position, &r.content, &r.properties)
}

// block converts the row to the host record shape. A top-level block's
// parent pointer names its page, the way outliners report it.
func (r *blockRow) block() models.Block {
	b := models.Block{
		ID:      r.id,
		Text:    r.content,
		PageRef: &models.Ref{ID: r.pageID},
		Order:   r.seq,
	}
	if parent := scanNullString(r.parentID); parent != "" {
		b.ParentRef = &models.Ref{ID: parent}
	} else {
		b.ParentRef = &models.Ref{ID: r.pageID}
	}
	if r.properties != "" && r.properties != "{}" {
		var props models.Annotations
		if err := json.Unmarshal([]byte(r.properties), &props); err == nil && len(props) > 0 {
			b.Annotations = props
		}
	}
	return b
}

func scanBlockRows(rows *sql.Rows) ([]blockRow, error) {
	defer func() { _ = rows.Close() }()
	var out []blockRow
	for rows.Next() {
		var r blockRow
		if err := r.scan(rows); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

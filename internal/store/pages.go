package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Page is one row of the pages table.
type Page struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	JournalDay int    `json:"journal_day,omitempty"`
	Blocks     int    `json:"blocks"`
}

// EnsurePage returns the id of the page named name, creating it if needed.
// Names are matched case-insensitively.
func EnsurePage(ctx context.Context, db *sql.DB, name string) (string, error) {
	return ensurePage(ctx, db, name, 0)
}

// EnsureJournalPage is EnsurePage for a journal day; title is the rendered
// journal name for day.
func EnsureJournalPage(ctx context.Context, db *sql.DB, title string, day time.Time) (string, error) {
	return ensurePage(ctx, db, title, journalDay(day))
}

func journalDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

func ensurePage(ctx context.Context, db *sql.DB, name string, day int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("page name is required")
	}

	var pageID string
	err := Transact(ctx, db, func(tx *sql.Tx) error {
		id, err := ensurePageTx(ctx, tx, name, day)
		if err != nil {
			return err
		}
		pageID = id
		return nil
	})
	return pageID, err
}

func ensurePageTx(ctx context.Context, tx *sql.Tx, name string, day int) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM pages WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to look up page: %w", err)
	}

	id = uuid.NewString()
	var dayVal any
	if day > 0 {
		dayVal = day
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO pages (id, name, journal_day) VALUES (?, ?, ?)`, id, name, dayVal); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return "", &PageConflictError{Name: name}
		}
		return "", fmt.Errorf("failed to insert page: %w", err)
	}
	return id, nil
}

// pageIDByName resolves a page name case-insensitively.
func pageIDByName(ctx context.Context, db *sql.DB, name string) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, `SELECT id FROM pages WHERE name = ?`, strings.TrimSpace(name)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrPageNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up page: %w", err)
	}
	return id, nil
}

// ListPages returns every page with its block count, journals last.
func ListPages(ctx context.Context, db *sql.DB) ([]Page, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT p.id, p.name, COALESCE(p.journal_day, 0), COUNT(b.seq)
		FROM pages p
		LEFT JOIN blocks b ON b.page_id = p.id
		GROUP BY p.id
		ORDER BY p.journal_day IS NOT NULL, p.journal_day DESC, p.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.ID, &p.Name, &p.JournalDay, &p.Blocks); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

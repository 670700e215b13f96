package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CardRow represents a row in the cards table.
type CardRow struct {
	Path      string
	Title     string
	Checksum  string
	Tags      []string
	Draft     bool
	Image     string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ListQuery selects and orders a page of cards.
type ListQuery struct {
	Limit  int
	Offset int
	Tag    string // filter: cards carrying this tag
	Sort   string // "updated_at" (default, newest first), "title", "path"
	Draft  *bool  // filter: nil for all, otherwise drafts / published only
}

// DefaultPageSize is the grid page size used when a query has no limit.
const DefaultPageSize = 50

// UpsertCard inserts or replaces a card, its FTS entry, and its embed edges
// within a transaction.
func (db *DB) UpsertCard(c CardRow, body string, embeds []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(c.Tags)

	_, err = tx.Exec(`
		INSERT INTO cards (path, title, checksum, tags, draft, image, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			draft      = excluded.draft,
			image      = excluded.image,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, c.Path, c.Title, c.Checksum, string(tagsJSON), boolToInt(c.Draft), c.Image, body, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert card: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, c.Path, c.Title, body, c.Tags); err != nil {
		return err
	}

	// Replace embed edges: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM embeds WHERE source = ?`, c.Path)
	if len(embeds) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO embeds (source, target, origin) VALUES (?, ?, 'embed')`)
		if err != nil {
			return fmt.Errorf("index: prepare embed insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range embeds {
			if _, err := stmt.Exec(c.Path, target); err != nil {
				return fmt.Errorf("index: insert embed: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteCard removes a card, its FTS entry, and its outgoing embed edges.
func (db *DB) DeleteCard(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM embeds WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM cards WHERE path = ?`, path)

	return tx.Commit()
}

// GetCard returns one indexed card, or nil when the path is not indexed.
func (db *DB) GetCard(path string) (*CardRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, title, checksum, tags, draft, image, updated_at
		FROM cards WHERE path = ?
	`, path)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get card: %w", err)
	}
	return c, nil
}

// GetChecksum returns the stored checksum for a card, or empty string if not
// found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM cards WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// ListCards returns one page of cards plus the total count matching the
// filters.
func (db *DB) ListCards(q ListQuery) ([]CardRow, int, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	where := "1=1"
	var args []any
	if q.Tag != "" {
		// Tags are stored as a JSON string array; match the quoted element.
		where += ` AND tags LIKE ?`
		args = append(args, `%"`+q.Tag+`"%`)
	}
	if q.Draft != nil {
		where += ` AND draft = ?`
		args = append(args, boolToInt(*q.Draft))
	}

	var order string
	switch q.Sort {
	case "title":
		order = "title COLLATE NOCASE ASC, path ASC"
	case "path":
		order = "path ASC"
	default:
		order = "updated_at DESC, path ASC"
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM cards WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count cards: %w", err)
	}

	//nolint:gosec // order is chosen from a fixed set above.
	rows, err := db.conn.Query(`
		SELECT path, title, checksum, tags, draft, image, updated_at
		FROM cards WHERE `+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list cards: %w", err)
	}
	defer rows.Close()

	var out []CardRow
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// EmbedSources returns all note paths whose body embeds the given target.
func (db *DB) EmbedSources(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM embeds WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: embed sources: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AllPaths returns every indexed card path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM cards`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed card.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM cards`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(r rowScanner) (*CardRow, error) {
	var c CardRow
	var tagsJSON string
	var draft int
	if err := r.Scan(&c.Path, &c.Title, &c.Checksum, &tagsJSON, &draft, &c.Image, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Draft = draft != 0
	if err := json.Unmarshal([]byte(tagsJSON), &c.Tags); err != nil {
		c.Tags = nil
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

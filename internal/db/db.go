package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

const memoryPath = ":memory:"

func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}

	// every pooled connection to :memory: would get its own empty database
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := applySchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func dsn(path string) string {
	if path == memoryPath {
		return path
	}
	params := url.Values{}
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "journal_mode(WAL)")
	return "file:" + path + "?" + params.Encode()
}

func applySchema(ctx context.Context, db *sql.DB) error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	if err := ensureSearchTextColumn(ctx, db); err != nil {
		return err
	}

	return nil
}

// ensureSearchTextColumn upgrades databases created before search folding
// was stored alongside each row, and backfills rows that were never folded.
func ensureSearchTextColumn(ctx context.Context, db *sql.DB) error {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM pragma_table_info('tasks') WHERE name = 'search_text' LIMIT 1").Scan(&exists)
	if err == sql.ErrNoRows {
		if _, err := db.ExecContext(ctx, "ALTER TABLE tasks ADD COLUMN search_text TEXT NOT NULL DEFAULT ''"); err != nil {
			return fmt.Errorf("add tasks.search_text column: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("check tasks.search_text column: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT row_id, title, description FROM tasks WHERE search_text = '' AND (COALESCE(title, '') != '' OR COALESCE(description, '') != '')")
	if err != nil {
		return fmt.Errorf("scan unfolded rows: %w", err)
	}
	type pending struct {
		rowID int64
		text  string
	}
	var backfill []pending
	for rows.Next() {
		var rowID int64
		var title, description sql.NullString
		if err := rows.Scan(&rowID, &title, &description); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan unfolded row: %w", err)
		}
		backfill = append(backfill, pending{rowID: rowID, text: searchText(title.String, description.String)})
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return fmt.Errorf("scan unfolded rows: %w", err)
	}

	for _, row := range backfill {
		if _, err := db.ExecContext(ctx, "UPDATE tasks SET search_text = ? WHERE row_id = ?", row.text, row.rowID); err != nil {
			return fmt.Errorf("backfill search_text for row %d: %w", row.rowID, err)
		}
	}

	return nil
}

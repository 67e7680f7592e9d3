package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultExportLimit is the default number of exports listed.
	DefaultExportLimit = 50
	// MaxExportLimit is the maximum number of exports listed.
	MaxExportLimit = 500
)

// timeLayout is fixed width so stored timestamps sort
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const exportCols = `id, created_at, source, archive_name, location,
	file_count, candidate_count, rejected_count`

// Export is one archive produced from a transcript.
type Export struct {
	ID             string       `json:"id"`
	CreatedAt      time.Time    `json:"created_at"`
	Source         string       `json:"source"`
	ArchiveName    string       `json:"archive_name"`
	Location       string       `json:"location"`
	FileCount      int          `json:"file_count"`
	CandidateCount int          `json:"candidate_count"`
	RejectedCount  int          `json:"rejected_count"`
	Files          []ExportFile `json:"files,omitempty"`
}

// ExportFile is one entry of an exported archive.
type ExportFile struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExportRow(rs rowScanner) (Export, error) {
	var (
		e       Export
		created string
	)
	err := rs.Scan(
		&e.ID, &created, &e.Source, &e.ArchiveName, &e.Location,
		&e.FileCount, &e.CandidateCount, &e.RejectedCount,
	)
	if err != nil {
		return e, err
	}
	e.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return e, fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	return e, nil
}

// RecordExport stores e and its files. A missing ID is filled
// with a new UUID and a zero CreatedAt with the current time;
// both are written back to e.
func (db *DB) RecordExport(ctx context.Context, e *Export) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	if e.FileCount == 0 {
		e.FileCount = len(e.Files)
	}

	return db.Update(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO exports ("+exportCols+")"+
				" VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			e.ID, e.CreatedAt.Format(timeLayout),
			e.Source, e.ArchiveName, e.Location,
			e.FileCount, e.CandidateCount, e.RejectedCount,
		)
		if err != nil {
			return fmt.Errorf("inserting export: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO export_files"+
				" (export_id, ordinal, path, size) VALUES (?, ?, ?, ?)",
		)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for i, f := range e.Files {
			if _, err := stmt.ExecContext(
				ctx, e.ID, i, f.Path, f.Size,
			); err != nil {
				return fmt.Errorf(
					"inserting export file %s: %w", f.Path, err,
				)
			}
		}
		return nil
	})
}

// ListExports returns up to limit exports, newest first,
// without their file lists.
func (db *DB) ListExports(
	ctx context.Context, limit int,
) ([]Export, error) {
	if limit <= 0 {
		limit = DefaultExportLimit
	}
	limit = min(limit, MaxExportLimit)

	rows, err := db.reader.QueryContext(ctx,
		"SELECT "+exportCols+" FROM exports"+
			" ORDER BY created_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	defer rows.Close()

	exports := []Export{}
	for rows.Next() {
		e, err := scanExportRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning export: %w", err)
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

// GetExport returns a single export with its files, or nil if
// it does not exist.
func (db *DB) GetExport(
	ctx context.Context, id string,
) (*Export, error) {
	row := db.reader.QueryRowContext(ctx,
		"SELECT "+exportCols+" FROM exports WHERE id = ?", id,
	)
	e, err := scanExportRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting export %s: %w", id, err)
	}

	rows, err := db.reader.QueryContext(ctx,
		"SELECT path, size FROM export_files"+
			" WHERE export_id = ? ORDER BY ordinal",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("listing export files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f ExportFile
		if err := rows.Scan(&f.Path, &f.Size); err != nil {
			return nil, fmt.Errorf("scanning export file: %w", err)
		}
		e.Files = append(e.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteExportsBefore removes exports created before t and
// returns how many were deleted.
func (db *DB) DeleteExportsBefore(
	ctx context.Context, t time.Time,
) (int64, error) {
	var n int64
	err := db.Update(func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM exports WHERE created_at < ?",
			t.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("deleting exports: %w", err)
		}
		n, _ = res.RowsAffected()
		return nil
	})
	return n, err
}

// CountExportsBefore returns how many exports were created
// before t.
func (db *DB) CountExportsBefore(
	ctx context.Context, t time.Time,
) (int, error) {
	var n int
	err := db.reader.QueryRowContext(ctx,
		"SELECT count(*) FROM exports WHERE created_at < ?",
		t.UTC().Format(timeLayout),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting exports: %w", err)
	}
	return n, nil
}

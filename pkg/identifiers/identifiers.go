package identifiers

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Handle length bounds; anything outside is dropped during cleaning.
const (
	minHandleLen = 3
	maxHandleLen = 39
)

// Source supplies the raw identifier strings for one run. A source
// failure is fatal to the run; cleaning of individual entries is not.
type Source interface {
	Identifiers(ctx context.Context) ([]string, error)
}

// Static is a fixed in-memory list, used for CLI-provided handles.
type Static []string

func (s Static) Identifiers(ctx context.Context) ([]string, error) {
	return []string(s), nil
}

// File reads handles from the first column of a CSV file, one per row.
type File struct {
	Path string
}

func (f File) Identifiers(ctx context.Context) ([]string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open identifier file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse identifier file: %w", err)
	}

	handles := make([]string, 0, len(records))
	for _, row := range records {
		if len(row) > 0 {
			handles = append(handles, row[0])
		}
	}
	return handles, nil
}

// Query reads handles discovered by the search crawler from the
// username_search table.
type Query struct {
	Pool     *pgxpool.Pool
	Platform string
}

func (q Query) Identifiers(ctx context.Context) ([]string, error) {
	column := q.Platform + "_username"
	sql := fmt.Sprintf("SELECT %s FROM username_search WHERE %s IS NOT NULL", column, column)

	rows, err := q.Pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query identifiers: %w", err)
	}
	defer rows.Close()

	var handles []string
	for rows.Next() {
		var handle string
		if err := rows.Scan(&handle); err != nil {
			return nil, fmt.Errorf("failed to scan identifier row: %w", err)
		}
		handles = append(handles, handle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("identifier query failed: %w", err)
	}
	return handles, nil
}

// Clean normalizes raw handles: trim, strip a leading "@", lowercase,
// then drop empty, too-short, too-long and reserved entries. Duplicates
// keep their first occurrence; input order is otherwise preserved.
func Clean(raw []string, reserved map[string]bool) []string {
	cleaned := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for _, r := range raw {
		h := strings.TrimSpace(r)
		h = strings.TrimPrefix(h, "@")
		h = strings.ToLower(h)

		if len(h) < minHandleLen || len(h) > maxHandleLen {
			continue
		}
		if reserved[h] {
			continue
		}
		if seen[h] {
			continue
		}

		seen[h] = true
		cleaned = append(cleaned, h)
	}

	return cleaned
}

// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

// Package sheets provides the tabular store abstraction over the
// operator-curated spreadsheet: header-aware reads, append-only header
// management with synonym resolution, and bulk body writes.
package sheets

import "context"

// Store is the tabular store contract the sync engine depends on.
//
// The spreadsheet is partially operator-managed: EnsureHeaders never removes
// or reorders existing columns, and WriteRows replaces only the data body.
// WriteTable replaces headers and body together and exists solely for tables
// whose header set is recomputed each run (the skills matrix prune).
type Store interface {
	// ReadTable returns the table's header row and data rows. A missing
	// worksheet yields an empty table, not an error.
	ReadTable(ctx context.Context, name string) (*Table, error)

	// EnsureHeaders appends any missing required header at the end of the
	// header row and returns a required-name -> column-index map. Existing
	// headers are matched case-insensitively and through the synonym table;
	// they are never renamed, removed, or reordered.
	EnsureHeaders(ctx context.Context, name string, required []string) (map[string]int, error)

	// WriteRows replaces the entire data body (everything below the header
	// row) in one logical bulk operation and resizes the table to exactly
	// fit the row and column count.
	WriteRows(ctx context.Context, name string, rows [][]string) error

	// WriteTable replaces headers and body together, resizing exactly.
	WriteTable(ctx context.Context, name string, headers []string, rows [][]string) error
}

// Table is an in-memory snapshot of one worksheet.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ColumnIndex resolves a logical column name against the header row using
// case-insensitive and synonym-aware matching. Returns -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	return ResolveColumn(t.Headers, name)
}

// Cell returns the value at (row, col), tolerating ragged rows.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

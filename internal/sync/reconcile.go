// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package sync

import (
	"strings"

	"github.com/aruizcam/rostersync/internal/sheets"
)

// indexedTable wraps an in-memory worksheet with a key index over one or more
// columns. The index is rebuilt in full after every structural mutation, so
// row positions can never go stale between a delete and the reinsert that
// follows it.
type indexedTable struct {
	table   *sheets.Table
	keyCols []int
	index   map[string][]int
}

func newIndexedTable(t *sheets.Table, keyCols ...int) *indexedTable {
	it := &indexedTable{table: t, keyCols: keyCols}
	it.rebuild()
	return it
}

func (it *indexedTable) rebuild() {
	it.index = make(map[string][]int, len(it.table.Rows))
	for i := range it.table.Rows {
		key := it.keyAt(i)
		it.index[key] = append(it.index[key], i)
	}
}

func (it *indexedTable) keyAt(row int) string {
	parts := make([]string, len(it.keyCols))
	for i, col := range it.keyCols {
		parts[i] = strings.TrimSpace(it.table.Cell(row, col))
	}
	return strings.Join(parts, "\x00")
}

// lookup returns the row positions currently holding the given key parts.
func (it *indexedTable) lookup(parts ...string) []int {
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return it.index[strings.Join(parts, "\x00")]
}

// deleteWhere removes every row matching the predicate and rebuilds the
// index. Returns the number of rows removed.
func (it *indexedTable) deleteWhere(pred func(row []string) bool) int {
	kept := it.table.Rows[:0]
	removed := 0
	for _, row := range it.table.Rows {
		if pred(row) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	it.table.Rows = kept
	if removed > 0 {
		it.rebuild()
	}
	return removed
}

// deleteGuildRows removes every row whose guild cell matches any of the
// names. Matching on both the stored and the freshly fetched name keeps the
// delete exhaustive across guild renames.
func (it *indexedTable) deleteGuildRows(guildCol int, names ...string) int {
	return it.deleteWhere(func(row []string) bool {
		return matchesGuild(cellAt(row, guildCol), names)
	})
}

// appendRow adds a row and rebuilds the index.
func (it *indexedTable) appendRow(row []string) {
	it.table.Rows = append(it.table.Rows, row)
	it.rebuild()
}

// appendRows adds a batch of rows with a single index rebuild.
func (it *indexedTable) appendRows(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	it.table.Rows = append(it.table.Rows, rows...)
	it.rebuild()
}

// width returns the current column count of the table.
func (it *indexedTable) width() int {
	return len(it.table.Headers)
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// setCell writes a value into a row, growing it as needed.
func setCell(row []string, col int, v string) []string {
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = v
	return row
}

// newRow builds an empty row of the given width.
func newRow(width int) []string {
	return make([]string, width)
}

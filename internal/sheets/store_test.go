// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package sheets

import (
	"context"
	"reflect"
	"testing"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Guild GP", "guild gp"},
		{"  Ally   Code  ", "ally code"},
		{"ROLE", "role"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeHeader(tt.input); got != tt.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestResolveColumn(t *testing.T) {
	headers := []string{"Guild Id", "Guild Name", "Members", "GP", "Last Raid Id", "Notas"}

	tests := []struct {
		name string
		want int
	}{
		{"guild id", 0},
		{"GUILD NAME", 1},
		{"Number of members", 2}, // synonym
		{"Guild GP", 3},          // synonym
		{"gp", 3},                // exact normalized
		{"Last Raid Id", 4},
		{"Notas", 5},
		{"Last Raid Score", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveColumn(headers, tt.name); got != tt.want {
				t.Errorf("ResolveColumn(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}

func TestResolveColumn_ExactBeatsSynonym(t *testing.T) {
	// Both "GP" and "Guild GP" present: asking for "Guild GP" must hit the
	// exact column, not the synonym.
	headers := []string{"GP", "Guild GP"}
	if got := ResolveColumn(headers, "Guild GP"); got != 1 {
		t.Errorf("ResolveColumn = %d, want 1", got)
	}
	if got := ResolveColumn(headers, "GP"); got != 0 {
		t.Errorf("ResolveColumn = %d, want 0", got)
	}
}

func TestFindColumnBySubstrings(t *testing.T) {
	headers := []string{"Unit Base_ID", "Friendly Name", "Alignment"}

	tests := []struct {
		name       string
		candidates []string
		want       int
	}{
		{"base id variants", []string{"base_id", "baseid", "base id"}, 0},
		{"name variants", []string{"name", "friendly", "display"}, 1},
		{"alignment", []string{"alignment"}, 2},
		{"absent", []string{"omicronmode"}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindColumnBySubstrings(headers, tt.candidates...); got != tt.want {
				t.Errorf("FindColumnBySubstrings = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMemoryStore_EnsureHeadersAppendOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed("Guilds", []string{"Guild Id", "Notas", "GP"}, nil)

	indices, err := store.EnsureHeaders(ctx, "Guilds", []string{"Guild Id", "Guild Name", "Guild GP", "Last Update"})
	if err != nil {
		t.Fatalf("EnsureHeaders: %v", err)
	}

	// Existing headers keep their positions; "Guild GP" resolves to "GP".
	want := map[string]int{"Guild Id": 0, "Guild GP": 2, "Guild Name": 3, "Last Update": 4}
	if !reflect.DeepEqual(indices, want) {
		t.Errorf("indices = %v, want %v", indices, want)
	}

	headers := store.Snapshot("Guilds").Headers
	wantHeaders := []string{"Guild Id", "Notas", "GP", "Guild Name", "Last Update"}
	if !reflect.DeepEqual(headers, wantHeaders) {
		t.Errorf("headers = %v, want %v", headers, wantHeaders)
	}
}

func TestMemoryStore_EnsureHeadersIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.EnsureHeaders(ctx, "Players", []string{"Player Id", "Player Name"})
	if err != nil {
		t.Fatalf("EnsureHeaders: %v", err)
	}
	second, err := store.EnsureHeaders(ctx, "Players", []string{"Player Id", "Player Name"})
	if err != nil {
		t.Fatalf("EnsureHeaders: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeat EnsureHeaders changed indices: %v vs %v", first, second)
	}
	if len(store.Snapshot("Players").Headers) != 2 {
		t.Errorf("headers grew on repeat: %v", store.Snapshot("Players").Headers)
	}
}

func TestMemoryStore_WriteRowsReplacesBody(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed("Players", []string{"A", "B"}, [][]string{{"old1", "x"}, {"old2", "y"}, {"old3", "z"}})

	if err := store.WriteRows(ctx, "Players", [][]string{{"new1", "n"}}); err != nil {
		t.Fatalf("WriteRows: %v", err)
	}

	got := store.Snapshot("Players")
	if !reflect.DeepEqual(got.Headers, []string{"A", "B"}) {
		t.Errorf("headers changed: %v", got.Headers)
	}
	if len(got.Rows) != 1 || got.Rows[0][0] != "new1" {
		t.Errorf("body not replaced exactly: %v", got.Rows)
	}
}

func TestMemoryStore_WriteRowsPadsRagged(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed("T", []string{"A", "B", "C"}, nil)

	if err := store.WriteRows(ctx, "T", [][]string{{"only-a"}}); err != nil {
		t.Fatalf("WriteRows: %v", err)
	}

	rows := store.Snapshot("T").Rows
	if len(rows) != 1 || len(rows[0]) != 3 {
		t.Fatalf("row not padded to column count: %v", rows)
	}
	if rows[0][1] != "" || rows[0][2] != "" {
		t.Errorf("padding cells not empty: %v", rows[0])
	}
}

func TestMemoryStore_WriteTableReplacesHeadersAndBody(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed("Skills", []string{"Player Guild", "Player Name", "Old|Skill"}, [][]string{{"G", "P", "7"}})

	err := store.WriteTable(ctx, "Skills", []string{"Player Guild", "Player Name", "New|Skill"},
		[][]string{{"G", "P", "3"}})
	if err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	got := store.Snapshot("Skills")
	if !reflect.DeepEqual(got.Headers, []string{"Player Guild", "Player Name", "New|Skill"}) {
		t.Errorf("headers = %v", got.Headers)
	}
	if len(got.Rows) != 1 || got.Rows[0][2] != "3" {
		t.Errorf("rows = %v", got.Rows)
	}
}

func TestMemoryStore_ReadMissingTableIsEmpty(t *testing.T) {
	store := NewMemoryStore()
	table, err := store.ReadTable(context.Background(), "Nope")
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(table.Headers) != 0 || len(table.Rows) != 0 {
		t.Errorf("missing table should read empty: %+v", table)
	}
}

func TestTable_Cell(t *testing.T) {
	table := &Table{
		Headers: []string{"A", "B"},
		Rows:    [][]string{{"1"}, {"2", "3"}},
	}

	tests := []struct {
		row, col int
		want     string
	}{
		{0, 0, "1"},
		{0, 1, ""}, // ragged row
		{1, 1, "3"},
		{-1, 0, ""},
		{5, 0, ""},
	}
	for _, tt := range tests {
		if got := table.Cell(tt.row, tt.col); got != tt.want {
			t.Errorf("Cell(%d,%d) = %q, want %q", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestColLetter(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "A"}, {2, "B"}, {26, "Z"}, {27, "AA"}, {52, "AZ"}, {53, "BA"}, {702, "ZZ"}, {703, "AAA"},
	}
	for _, tt := range tests {
		if got := colLetter(tt.n); got != tt.want {
			t.Errorf("colLetter(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

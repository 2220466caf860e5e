// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package sheets

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests. It mirrors the semantics
// of GoogleStore: append-only headers, exact-fit body replacement, and
// missing tables reading as empty.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string]*Table
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*Table)}
}

// Seed replaces a table's full contents directly, bypassing Store semantics.
// Test setup only.
func (m *MemoryStore) Seed(name string, headers []string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = &Table{Headers: cloneRow(headers), Rows: cloneRows(rows)}
}

// Snapshot returns a deep copy of a table's current contents for assertions.
func (m *MemoryStore) Snapshot(name string) *Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	if !ok {
		return &Table{}
	}
	return &Table{Headers: cloneRow(t.Headers), Rows: cloneRows(t.Rows)}
}

// ReadTable implements Store.
func (m *MemoryStore) ReadTable(_ context.Context, name string) (*Table, error) {
	return m.Snapshot(name), nil
}

// EnsureHeaders implements Store.
func (m *MemoryStore) EnsureHeaders(_ context.Context, name string, required []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[name]
	if !ok {
		t = &Table{}
		m.tables[name] = t
	}

	indices, missing := resolveRequired(t.Headers, required)
	for _, req := range missing {
		indices[req] = len(t.Headers)
		t.Headers = append(t.Headers, req)
	}
	return indices, nil
}

// WriteRows implements Store.
func (m *MemoryStore) WriteRows(_ context.Context, name string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[name]
	if !ok {
		t = &Table{}
		m.tables[name] = t
	}

	ncols := len(t.Headers)
	for _, r := range rows {
		if len(r) > ncols {
			ncols = len(r)
		}
	}
	t.Rows = padRows(cloneRows(rows), ncols)
	return nil
}

// WriteTable implements Store.
func (m *MemoryStore) WriteTable(_ context.Context, name string, headers []string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tables[name] = &Table{
		Headers: cloneRow(headers),
		Rows:    padRows(cloneRows(rows), len(headers)),
	}
	return nil
}

func cloneRow(r []string) []string {
	out := make([]string, len(r))
	copy(out, r)
	return out
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}
	return out
}

// padRows extends every row to ncols cells, matching the exact-fit grid the
// production store produces.
func padRows(rows [][]string, ncols int) [][]string {
	for i, r := range rows {
		for len(r) < ncols {
			r = append(r, "")
		}
		rows[i] = r
	}
	return rows
}

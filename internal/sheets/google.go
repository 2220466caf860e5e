// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package sheets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/aruizcam/rostersync/internal/config"
	"github.com/aruizcam/rostersync/internal/logging"
	"github.com/aruizcam/rostersync/internal/metrics"
)

// GoogleStore implements Store against the Google Sheets v4 API.
//
// Writes are issued in row chunks (sheets.write_chunk_size) to stay under the
// API's per-request payload limits while remaining one logical bulk replace
// per table per run. The worksheet grid is resized to exactly fit the written
// row/column count so no orphan cells survive a shrink.
//
// Thread Safety: safe for concurrent use, though the engine is sequential.
type GoogleStore struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	chunkSize     int

	mu       sync.Mutex
	sheetIDs map[string]int64 // worksheet title -> sheetId
}

// NewGoogleStore creates a Store backed by a Google Spreadsheet, authorized
// with a service-account credentials file.
func NewGoogleStore(ctx context.Context, cfg *config.SheetsConfig) (*GoogleStore, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &GoogleStore{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		chunkSize:     cfg.WriteChunkSize,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// loadSheetIDs refreshes the title -> sheetId cache from spreadsheet metadata.
func (g *GoogleStore) loadSheetIDs(ctx context.Context) error {
	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sheetIDs = make(map[string]int64, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			g.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	return nil
}

// sheetID returns the sheetId for a worksheet title. When create is set a
// missing worksheet is added with a minimal 1x1 grid, mirroring the
// open-or-create behavior operators expect.
func (g *GoogleStore) sheetID(ctx context.Context, title string, create bool) (int64, bool, error) {
	g.mu.Lock()
	id, ok := g.sheetIDs[title]
	g.mu.Unlock()
	if ok {
		return id, true, nil
	}

	if err := g.loadSheetIDs(ctx); err != nil {
		return 0, false, err
	}
	g.mu.Lock()
	id, ok = g.sheetIDs[title]
	g.mu.Unlock()
	if ok {
		return id, true, nil
	}
	if !create {
		return 0, false, nil
	}

	resp, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{
					Title: title,
					GridProperties: &sheetsapi.GridProperties{
						RowCount:    1,
						ColumnCount: 1,
					},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("failed to create worksheet %q: %w", title, err)
	}

	id = resp.Replies[0].AddSheet.Properties.SheetId
	g.mu.Lock()
	g.sheetIDs[title] = id
	g.mu.Unlock()
	logging.Info().Str("worksheet", title).Msg("Created missing worksheet")
	return id, true, nil
}

// ReadTable implements Store. A missing worksheet yields an empty table.
func (g *GoogleStore) ReadTable(ctx context.Context, name string) (*Table, error) {
	start := time.Now()
	table, err := g.readTable(ctx, name)
	metrics.RecordSheetsOperation("read", name, time.Since(start), err)
	return table, err
}

func (g *GoogleStore) readTable(ctx context.Context, name string) (*Table, error) {
	_, exists, err := g.sheetID(ctx, name, false)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &Table{}, nil
	}

	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, quoteRange(name)).
		ValueRenderOption("FORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", name, err)
	}

	table := &Table{}
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		if i == 0 {
			table.Headers = cells
		} else {
			table.Rows = append(table.Rows, cells)
		}
	}
	return table, nil
}

// EnsureHeaders implements Store.
func (g *GoogleStore) EnsureHeaders(ctx context.Context, name string, required []string) (map[string]int, error) {
	start := time.Now()
	indices, err := g.ensureHeaders(ctx, name, required)
	metrics.RecordSheetsOperation("ensure_headers", name, time.Since(start), err)
	return indices, err
}

func (g *GoogleStore) ensureHeaders(ctx context.Context, name string, required []string) (map[string]int, error) {
	if _, _, err := g.sheetID(ctx, name, true); err != nil {
		return nil, err
	}

	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, quoteRange(name)+"!1:1").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row of %q: %w", name, err)
	}

	var headers []string
	if len(resp.Values) > 0 {
		headers = make([]string, len(resp.Values[0]))
		for i, v := range resp.Values[0] {
			headers[i] = fmt.Sprint(v)
		}
	}

	indices, missing := resolveRequired(headers, required)
	if len(missing) == 0 {
		return indices, nil
	}

	for _, m := range missing {
		indices[m] = len(headers)
		headers = append(headers, m)
	}

	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	_, err = g.svc.Spreadsheets.Values.Update(g.spreadsheetID, quoteRange(name)+"!1:1",
		&sheetsapi.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to append headers to %q: %w", name, err)
	}

	logging.Debug().Str("worksheet", name).Strs("appended", missing).Msg("Appended missing headers")
	return indices, nil
}

// WriteRows implements Store.
func (g *GoogleStore) WriteRows(ctx context.Context, name string, rows [][]string) error {
	start := time.Now()
	err := g.writeRows(ctx, name, rows)
	metrics.RecordSheetsOperation("write_rows", name, time.Since(start), err)
	if err == nil {
		metrics.SheetsRowsWritten.WithLabelValues(name).Add(float64(len(rows)))
	}
	return err
}

func (g *GoogleStore) writeRows(ctx context.Context, name string, rows [][]string) error {
	// The body replace keeps the existing header row, so column count comes
	// from the header, widened if any data row is wider.
	table, err := g.readTable(ctx, name)
	if err != nil {
		return err
	}
	ncols := len(table.Headers)
	for _, r := range rows {
		if len(r) > ncols {
			ncols = len(r)
		}
	}
	if ncols < 1 {
		ncols = 1
	}

	if err := g.resize(ctx, name, len(rows)+1, ncols); err != nil {
		return err
	}
	return g.writeBody(ctx, name, 2, ncols, rows)
}

// WriteTable implements Store.
func (g *GoogleStore) WriteTable(ctx context.Context, name string, headers []string, rows [][]string) error {
	start := time.Now()
	err := g.writeTable(ctx, name, headers, rows)
	metrics.RecordSheetsOperation("write_table", name, time.Since(start), err)
	if err == nil {
		metrics.SheetsRowsWritten.WithLabelValues(name).Add(float64(len(rows)))
	}
	return err
}

func (g *GoogleStore) writeTable(ctx context.Context, name string, headers []string, rows [][]string) error {
	ncols := len(headers)
	if ncols < 1 {
		ncols = 1
	}

	if err := g.resize(ctx, name, len(rows)+1, ncols); err != nil {
		return err
	}

	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, quoteRange(name)+"!A1",
		&sheetsapi.ValueRange{Values: [][]interface{}{headerRow}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write header row of %q: %w", name, err)
	}

	return g.writeBody(ctx, name, 2, ncols, rows)
}

// resize sets the worksheet grid to exactly rowCount x colCount.
func (g *GoogleStore) resize(ctx context.Context, name string, rowCount, colCount int) error {
	id, _, err := g.sheetID(ctx, name, true)
	if err != nil {
		return err
	}

	_, err = g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			UpdateSheetProperties: &sheetsapi.UpdateSheetPropertiesRequest{
				Properties: &sheetsapi.SheetProperties{
					SheetId: id,
					GridProperties: &sheetsapi.GridProperties{
						RowCount:    int64(rowCount),
						ColumnCount: int64(colCount),
					},
				},
				Fields: "gridProperties(rowCount,columnCount)",
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to resize worksheet %q: %w", name, err)
	}
	return nil
}

// writeBody writes rows starting at startRow (1-based) in chunks, padding
// ragged rows to colCount so every grid cell in range is overwritten.
func (g *GoogleStore) writeBody(ctx context.Context, name string, startRow, colCount int, rows [][]string) error {
	chunk := g.chunkSize
	if chunk < 1 {
		chunk = len(rows)
	}

	for offset := 0; offset < len(rows); offset += chunk {
		end := offset + chunk
		if end > len(rows) {
			end = len(rows)
		}
		block := rows[offset:end]

		values := make([][]interface{}, len(block))
		for i, r := range block {
			row := make([]interface{}, colCount)
			for j := 0; j < colCount; j++ {
				if j < len(r) {
					row[j] = r[j]
				} else {
					row[j] = ""
				}
			}
			values[i] = row
		}

		first := startRow + offset
		last := first + len(block) - 1
		rng := fmt.Sprintf("%s!A%d:%s%d", quoteRange(name), first, colLetter(colCount), last)

		_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, rng,
			&sheetsapi.ValueRange{Values: values}).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to write rows %d-%d of %q: %w", first, last, name, err)
		}
	}
	return nil
}

// quoteRange wraps a worksheet title in single quotes for A1 notation.
func quoteRange(title string) string {
	return "'" + title + "'"
}

// colLetter converts a 1-based column number to its A1 letter form
// (1 -> A, 26 -> Z, 27 -> AA).
func colLetter(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

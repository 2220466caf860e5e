// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package sync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aruizcam/rostersync/internal/catalog"
	"github.com/aruizcam/rostersync/internal/sheets"
)

// matrixKeyHeaders are the identity columns of both wide matrices.
var matrixKeyHeaders = []string{"Player Guild", "Player Name"}

// unitColumn binds a catalog unit to its matrix column header.
type unitColumn struct {
	BaseID string
	Header string
}

// unitColumns derives the units matrix columns from the catalog, in stable
// base-id order. When two units share a friendly name, later ones get the
// base id appended so every header stays unique.
func unitColumns(cat *catalog.Catalog) []unitColumn {
	ids := cat.UnitIDs()
	cols := make([]unitColumn, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		header := cat.FriendlyName(id)
		if seen[header] {
			header = fmt.Sprintf("%s (%s)", header, id)
		}
		seen[header] = true
		cols = append(cols, unitColumn{BaseID: id, Header: header})
	}
	return cols
}

// skillColumn binds a tracked skill to its matrix column header.
type skillColumn struct {
	SkillID string
	Header  string
}

// skillColumns derives the skills matrix columns from the catalog, in stable
// skill-id order, disambiguating duplicate display names with the skill id.
func skillColumns(cat *catalog.Catalog) []skillColumn {
	ids := cat.SkillIDs()
	cols := make([]skillColumn, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		header := cat.Skills[id].DisplayName
		if header == "" {
			header = id
		}
		if seen[header] {
			header = fmt.Sprintf("%s (%s)", header, id)
		}
		seen[header] = true
		cols = append(cols, skillColumn{SkillID: id, Header: header})
	}
	return cols
}

// matrixRow is one (guild, player) row of the skills matrix with its cells
// keyed by column header.
type matrixRow struct {
	Guild  string
	Player string
	Values map[string]string
}

// skillsMatrix is the in-memory model of the skills worksheet. Unlike the
// units matrix, which only ever grows, this matrix is rebuilt each run:
// values merge upward (a stored tier is never lowered) and columns with no
// remaining value are pruned on render.
type skillsMatrix struct {
	rows []*matrixRow
	// columnOrder preserves the worksheet's existing column order; columns
	// introduced during the run append after it.
	columnOrder []string
	knownCols   map[string]bool
}

// newSkillsMatrix parses the stored worksheet contents. Every header beyond
// the identity columns is treated as a skill column.
func newSkillsMatrix(t *sheets.Table) *skillsMatrix {
	m := &skillsMatrix{knownCols: make(map[string]bool)}

	guildCol := sheets.ResolveColumn(t.Headers, matrixKeyHeaders[0])
	playerCol := sheets.ResolveColumn(t.Headers, matrixKeyHeaders[1])
	if guildCol < 0 || playerCol < 0 {
		// Empty or foreign worksheet; start from scratch.
		return m
	}

	for i, h := range t.Headers {
		if i == guildCol || i == playerCol {
			continue
		}
		if strings.TrimSpace(h) == "" {
			continue
		}
		m.addColumn(h)
	}

	for i := range t.Rows {
		row := &matrixRow{
			Guild:  strings.TrimSpace(t.Cell(i, guildCol)),
			Player: strings.TrimSpace(t.Cell(i, playerCol)),
			Values: make(map[string]string),
		}
		if row.Guild == "" && row.Player == "" {
			continue
		}
		for j, h := range t.Headers {
			if j == guildCol || j == playerCol || strings.TrimSpace(h) == "" {
				continue
			}
			if v := t.Cell(i, j); v != "" {
				row.Values[h] = v
			}
		}
		m.rows = append(m.rows, row)
	}
	return m
}

func (m *skillsMatrix) addColumn(header string) {
	if m.knownCols[header] {
		return
	}
	m.knownCols[header] = true
	m.columnOrder = append(m.columnOrder, header)
}

// snapshotGuild captures the current cell values of a guild's rows, keyed by
// player name. Taken before deleteGuild so the max-merge can compare against
// what was stored.
func (m *skillsMatrix) snapshotGuild(names ...string) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, row := range m.rows {
		if !matchesGuild(row.Guild, names) {
			continue
		}
		dst, ok := out[row.Player]
		if !ok {
			dst = make(map[string]string)
			out[row.Player] = dst
		}
		for h, v := range row.Values {
			dst[h] = maxTierValue(dst[h], v)
		}
	}
	return out
}

// deleteGuild removes every row belonging to any of the given guild names.
func (m *skillsMatrix) deleteGuild(names ...string) {
	kept := m.rows[:0]
	for _, row := range m.rows {
		if !matchesGuild(row.Guild, names) {
			kept = append(kept, row)
		}
	}
	m.rows = kept
}

// insert appends a fresh row for a member, merging each observed tier with
// the stored value so a previously recorded higher tier survives.
func (m *skillsMatrix) insert(guild, player string, observed map[string]string, stored map[string]string) {
	row := &matrixRow{Guild: guild, Player: player, Values: make(map[string]string, len(observed)+len(stored))}
	for h, v := range stored {
		if v != "" {
			row.Values[h] = v
			m.addColumn(h)
		}
	}
	for h, v := range observed {
		if v == "" {
			continue
		}
		row.Values[h] = maxTierValue(row.Values[h], v)
		m.addColumn(h)
	}
	m.rows = append(m.rows, row)
}

// render produces the worksheet headers and body. Columns with no non-empty
// value anywhere in the merged dataset are pruned.
func (m *skillsMatrix) render() (headers []string, rows [][]string) {
	live := make(map[string]bool, len(m.columnOrder))
	for _, row := range m.rows {
		for h, v := range row.Values {
			if v != "" {
				live[h] = true
			}
		}
	}

	headers = append(headers, matrixKeyHeaders...)
	for _, h := range m.columnOrder {
		if live[h] {
			headers = append(headers, h)
		}
	}

	rows = make([][]string, 0, len(m.rows))
	for _, row := range m.rows {
		out := make([]string, len(headers))
		out[0] = row.Guild
		out[1] = row.Player
		for i, h := range headers[2:] {
			out[i+2] = row.Values[h]
		}
		rows = append(rows, out)
	}
	return headers, rows
}

// matchesGuild reports whether a row's guild cell equals any of the names,
// ignoring surrounding whitespace.
func matchesGuild(guild string, names []string) bool {
	guild = strings.TrimSpace(guild)
	for _, n := range names {
		if n != "" && guild == strings.TrimSpace(n) {
			return true
		}
	}
	return false
}

// maxTierValue picks the numerically higher of two tier cells. Empty or
// non-numeric cells lose to any parseable tier; two unparseable cells keep
// the first non-empty one.
func maxTierValue(a, b string) string {
	av, aok := parseTier(a)
	bv, bok := parseTier(b)
	switch {
	case aok && bok:
		if bv > av {
			return b
		}
		return a
	case aok:
		return a
	case bok:
		return b
	case a != "":
		return a
	default:
		return b
	}
}

func parseTier(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

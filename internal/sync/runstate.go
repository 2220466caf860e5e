// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package sync

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/aruizcam/rostersync/internal/catalog"
	models "github.com/aruizcam/rostersync/internal/models/comlink"
)

// Guilds worksheet columns owned by the engine. Operator columns beyond these
// are never touched.
const (
	colGuildID       = "Guild Id"
	colGuildName     = "Guild Name"
	colMembers       = "Members"
	colGuildGP       = "Guild GP"
	colLastRaidID    = "Last Raid Id"
	colLastRaidScore = "Last Raid Score"
	colLastUpdate    = "Last Update"
)

var guildSheetHeaders = []string{
	colGuildID, colGuildName, colMembers, colGuildGP,
	colLastRaidID, colLastRaidScore, colLastUpdate,
}

// Players worksheet columns owned by the engine.
const (
	colPlayerGuild = "Guild Name"
	colPlayerName  = "Player Name"
	colPlayerID    = "Player Id"
	colAllyCode    = "Ally code"
	colPlayerGP    = "GP"
	colRole        = "Role"
	colGACLeague   = "GAC League"
	colLevel       = "Level"
)

var playerSheetHeaders = []string{
	colPlayerGuild, colPlayerName, colPlayerID, colAllyCode,
	colPlayerGP, colRole, colGACLeague, colLevel,
}

var errNoGuildPayload = errors.New("guild response carried no guild payload")

// runState holds the in-memory copies of the four target worksheets for one
// sync run. Guilds mutate these copies sequentially; the manager flushes each
// table back to the store once, at the end of the run.
type runState struct {
	cat *catalog.Catalog

	unitCols    []unitColumn
	skillHeader map[string]string // skillId -> skills-matrix column header

	guilds    *indexedTable
	guildsIdx map[string]int

	players    *indexedTable
	playersIdx map[string]int

	units    *indexedTable
	unitsIdx map[string]int

	skills *skillsMatrix

	now time.Time
}

// guildIDsFromSheet returns the guild ids listed in the Guilds worksheet, in
// row order, deduplicated.
func (st *runState) guildIDsFromSheet() []string {
	col := st.guildsIdx[colGuildID]
	seen := make(map[string]bool)
	var ids []string
	for i := range st.guilds.table.Rows {
		id := strings.TrimSpace(st.guilds.table.Cell(i, col))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// storedGuildRow returns the stored guild name and Last Update stamp for a
// guild id, or empty strings when the guild has no row yet.
func (st *runState) storedGuildRow(guildID string) (name, lastUpdate string) {
	rows := st.guilds.lookup(guildID)
	if len(rows) == 0 {
		return "", ""
	}
	row := rows[0]
	return st.guilds.table.Cell(row, st.guildsIdx[colGuildName]),
		st.guilds.table.Cell(row, st.guildsIdx[colLastUpdate])
}

// upsertGuildRow writes the guild aggregate columns into the guild's row,
// appending a new row when the guild is not yet listed. Cells outside the
// engine-owned columns keep their values.
func (st *runState) upsertGuildRow(guildID, name string, guild *models.GuildPayload) {
	var idx int
	if rows := st.guilds.lookup(guildID); len(rows) > 0 {
		idx = rows[0]
	} else {
		st.guilds.appendRow(newRow(st.guilds.width()))
		idx = len(st.guilds.table.Rows) - 1
	}

	row := st.guilds.table.Rows[idx]
	set := func(header, v string) {
		if col, ok := st.guildsIdx[header]; ok {
			row = setCell(row, col, v)
		}
	}

	set(colGuildID, guildID)
	set(colGuildName, name)
	set(colMembers, strconv.Itoa(guild.MemberCount()))
	set(colGuildGP, strconv.FormatInt(guild.GalacticPower(), 10))
	if raid, ok := guild.LastRaid(); ok {
		set(colLastRaidID, compactRaidID(raid.Identifier))
		set(colLastRaidScore, strconv.FormatInt(raid.TotalPoints.Int64(), 10))
	} else {
		set(colLastRaidID, "")
		set(colLastRaidScore, "")
	}
	set(colLastUpdate, st.now.Format("2006-01-02 15:04:05"))

	st.guilds.table.Rows[idx] = row
	st.guilds.rebuild()
}

// buildPlayerRows assembles the Players worksheet rows for a guild's members.
func (st *runState) buildPlayerRows(guildName string, recs []memberRecord) [][]string {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		row := newRow(st.players.width())
		set := func(header, v string) {
			if col, ok := st.playersIdx[header]; ok {
				row = setCell(row, col, v)
			}
		}
		set(colPlayerGuild, guildName)
		set(colPlayerName, rec.Name)
		set(colPlayerID, rec.PlayerID)
		set(colAllyCode, rec.AllyCode)
		set(colPlayerGP, strconv.FormatInt(rec.GP, 10))
		set(colRole, rec.Role)
		set(colGACLeague, rec.GACLeague)
		if rec.Level > 0 {
			set(colLevel, strconv.Itoa(rec.Level))
		}
		rows = append(rows, row)
	}
	return rows
}

// buildUnitRows assembles the units matrix rows for a guild's members. Every
// catalog column gets a cell; units missing from a roster stay empty.
func (st *runState) buildUnitRows(guildName string, recs []memberRecord) [][]string {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		row := newRow(st.units.width())
		if col, ok := st.unitsIdx[matrixKeyHeaders[0]]; ok {
			row = setCell(row, col, guildName)
		}
		if col, ok := st.unitsIdx[matrixKeyHeaders[1]]; ok {
			row = setCell(row, col, rec.Name)
		}
		for _, uc := range st.unitCols {
			cell := rec.UnitCells[uc.BaseID]
			if cell == "" {
				continue
			}
			if col, ok := st.unitsIdx[uc.Header]; ok {
				row = setCell(row, col, cell)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// replaceGuildRows swaps a guild's rows in the per-player tables: delete by
// both the stored and the fetched guild name, then insert the fresh rows. The
// skills matrix snapshot is taken before the delete so stored tiers can only
// be raised, never lowered.
func (st *runState) replaceGuildRows(oldName, newName string, playerRows, unitRows [][]string, recs []memberRecord) {
	st.players.deleteGuildRows(st.playersIdx[colPlayerGuild], oldName, newName)
	st.players.appendRows(playerRows)

	st.units.deleteGuildRows(st.unitsIdx[matrixKeyHeaders[0]], oldName, newName)
	st.units.appendRows(unitRows)

	stored := st.skills.snapshotGuild(oldName, newName)
	st.skills.deleteGuild(oldName, newName)
	for _, rec := range recs {
		st.skills.insert(newName, rec.Name, rec.SkillObs, stored[rec.Name])
	}
}

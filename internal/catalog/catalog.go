// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

// Package catalog builds the display catalog consumed by the sync engine:
// unit base ids with friendly names, and the zeta/omicron skill set.
//
// Catalog sources are operator-edited worksheets with variable headers, so
// columns are located by candidate substrings rather than exact names.
// Catalog building is best-effort: a malformed or missing source contributes
// nothing this run and never aborts the sync.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/aruizcam/rostersync/internal/config"
	"github.com/aruizcam/rostersync/internal/logging"
	"github.com/aruizcam/rostersync/internal/metrics"
	"github.com/aruizcam/rostersync/internal/sheets"
)

// Unit is a catalog entry from the Characters or Ships worksheet.
type Unit struct {
	BaseID       string
	FriendlyName string
	Alignment    string
	IsShip       bool
}

// Skill is a zeta/omicron-eligible skill entry.
type Skill struct {
	SkillID     string
	DisplayName string // "CharacterName|SkillName"
	IsOmicron   bool
}

// Catalog is the immutable per-run display catalog. It is built once per run
// and passed by value into the orchestrator so runs stay independently
// testable and repeatable.
type Catalog struct {
	Units  map[string]Unit  // baseId (UPPER) -> entry
	Skills map[string]Skill // skillId -> entry
}

// UnitIDs returns all unit base ids in stable sorted order. This order
// defines the units matrix column order.
func (c *Catalog) UnitIDs() []string {
	ids := make([]string, 0, len(c.Units))
	for id := range c.Units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SkillIDs returns all tracked skill ids in stable sorted order.
func (c *Catalog) SkillIDs() []string {
	ids := make([]string, 0, len(c.Skills))
	for id := range c.Skills {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FriendlyName returns the unit's display name, falling back to the base id.
func (c *Catalog) FriendlyName(baseID string) string {
	if u, ok := c.Units[baseID]; ok && u.FriendlyName != "" {
		return u.FriendlyName
	}
	return baseID
}

// IsShip reports whether a base id belongs to a ship.
func (c *Catalog) IsShip(baseID string) bool {
	u, ok := c.Units[baseID]
	return ok && u.IsShip
}

// Loader reads the catalog worksheets from the tabular store.
type Loader struct {
	store   sheets.Store
	tables  config.TableNamesConfig
	exclude []string // upper-cased base-id substrings to drop
}

// NewLoader creates a catalog loader. Exclusion substrings are matched
// case-insensitively against unit base ids.
func NewLoader(store sheets.Store, tables config.TableNamesConfig, exclude []string) *Loader {
	upper := make([]string, 0, len(exclude))
	for _, e := range exclude {
		e = strings.ToUpper(strings.TrimSpace(e))
		if e != "" {
			upper = append(upper, e)
		}
	}
	return &Loader{store: store, tables: tables, exclude: upper}
}

// Load builds the catalog from the four source worksheets.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	cat := &Catalog{
		Units:  make(map[string]Unit),
		Skills: make(map[string]Skill),
	}

	characters := l.loadUnits(ctx, l.tables.Characters, false, cat.Units)
	ships := l.loadUnits(ctx, l.tables.Ships, true, cat.Units)
	zetas := l.loadSkills(ctx, l.tables.Zetas, false, cat)
	omicrons := l.loadSkills(ctx, l.tables.Omicrons, true, cat)

	metrics.UpdateCatalogSizes(characters, ships, zetas, omicrons)
	logging.Info().
		Int("characters", characters).
		Int("ships", ships).
		Int("zetas", zetas).
		Int("omicrons", omicrons).
		Msg("Catalog loaded")

	return cat, nil
}

// excluded reports whether a base id matches a configured exclusion substring.
func (l *Loader) excluded(baseID string) bool {
	for _, e := range l.exclude {
		if strings.Contains(baseID, e) {
			return true
		}
	}
	return false
}

// loadUnits merges one unit worksheet into the units map and returns the
// number of entries contributed.
func (l *Loader) loadUnits(ctx context.Context, worksheet string, isShip bool, out map[string]Unit) int {
	table, err := l.store.ReadTable(ctx, worksheet)
	if err != nil {
		logging.Warn().Err(err).Str("worksheet", worksheet).Msg("Catalog source unreadable, skipping")
		return 0
	}

	idCol := sheets.FindColumnBySubstrings(table.Headers, "base_id", "baseid", "base id", "unit id", "unit_base_id")
	nameCol := sheets.FindColumnBySubstrings(table.Headers, "name", "friendly", "display", "ui name", "uiname")
	if idCol < 0 || nameCol < 0 {
		logging.Warn().Str("worksheet", worksheet).Strs("headers", table.Headers).Msg("Catalog source missing expected columns, skipping")
		return 0
	}
	alignCol := sheets.FindColumnBySubstrings(table.Headers, "alignment")

	count := 0
	for i := range table.Rows {
		baseID := strings.ToUpper(strings.TrimSpace(table.Cell(i, idCol)))
		name := strings.TrimSpace(table.Cell(i, nameCol))
		if baseID == "" || name == "" {
			continue
		}
		if l.excluded(baseID) {
			continue
		}

		unit := Unit{BaseID: baseID, FriendlyName: name, IsShip: isShip}
		if alignCol >= 0 {
			unit.Alignment = strings.TrimSpace(table.Cell(i, alignCol))
		}
		out[baseID] = unit
		count++
	}
	return count
}

// loadSkills merges one skill worksheet into the catalog and returns the
// number of entries contributed. Display names take the form
// "CharacterName|SkillName" unless the source already carries the separator.
func (l *Loader) loadSkills(ctx context.Context, worksheet string, isOmicron bool, cat *Catalog) int {
	table, err := l.store.ReadTable(ctx, worksheet)
	if err != nil {
		logging.Warn().Err(err).Str("worksheet", worksheet).Msg("Catalog source unreadable, skipping")
		return 0
	}

	idCol := sheets.FindColumnBySubstrings(table.Headers, "skillid", "skill_id", "skill id")
	nameCol := sheets.FindColumnBySubstrings(table.Headers, "skillname", "skill_name", "skill name")
	if idCol < 0 || nameCol < 0 {
		logging.Warn().Str("worksheet", worksheet).Strs("headers", table.Headers).Msg("Catalog source missing expected columns, skipping")
		return 0
	}
	baseCol := sheets.FindColumnBySubstrings(table.Headers, "base_id", "baseid", "base id")

	count := 0
	for i := range table.Rows {
		skillID := strings.TrimSpace(table.Cell(i, idCol))
		skillName := strings.TrimSpace(table.Cell(i, nameCol))
		if skillID == "" || skillName == "" {
			continue
		}

		var baseID string
		if baseCol >= 0 {
			baseID = strings.ToUpper(strings.TrimSpace(table.Cell(i, baseCol)))
		}
		if baseID != "" && l.excluded(baseID) {
			continue
		}

		display := skillName
		if !strings.Contains(skillName, "|") && baseID != "" {
			display = cat.FriendlyName(baseID) + "|" + skillName
		}

		if existing, ok := cat.Skills[skillID]; ok {
			// A skill can be both zeta and omicron; keep the flag sticky.
			existing.IsOmicron = existing.IsOmicron || isOmicron
			cat.Skills[skillID] = existing
			continue
		}
		cat.Skills[skillID] = Skill{SkillID: skillID, DisplayName: display, IsOmicron: isOmicron}
		count++
	}
	return count
}

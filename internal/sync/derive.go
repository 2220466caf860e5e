// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package sync

import (
	"strconv"
	"strings"
)

// relicLabels maps the wire relic tier to its displayed label. Tiers 0 and 1
// encode "not yet at relic level" states.
var relicLabels = map[int]string{
	11: "R9",
	10: "R8",
	9:  "R7",
	8:  "R6",
	7:  "R5",
	6:  "R4",
	5:  "R3",
	4:  "R2",
	3:  "R1",
	2:  "R0",
	1:  "G12",
	0:  "<G12",
}

// shipCellLabel is the fixed label for ships in the units matrix; ships have
// no relic progression.
const shipCellLabel = "Nave"

// RelicLabel converts a relic tier to its display label. Unknown tiers pass
// through as their numeric string so new game tiers are never silently lost.
func RelicLabel(tier int) string {
	if label, ok := relicLabels[tier]; ok {
		return label
	}
	return strconv.Itoa(tier)
}

// UnitCell derives the units-matrix cell for one roster unit. Ships always
// get the literal ship label regardless of tier; characters get the relic
// label, or empty when the roster entry carries no relic signal.
func UnitCell(isShip bool, tier int, hasTier bool) string {
	if isShip {
		return shipCellLabel
	}
	if !hasTier {
		return ""
	}
	return RelicLabel(tier)
}

// roleNames maps the guild payload's memberLevel to a role label.
var roleNames = map[int]string{
	2: "Member",
	3: "Officer",
	4: "Leader",
}

// RoleLabel derives the role column value from memberLevel. Unmapped values
// fall back to the raw numeric string so unexpected levels stay visible
// instead of being coerced to Member.
func RoleLabel(memberLevel int) string {
	if memberLevel == 0 {
		// Absent in the payload; every guild member is at least a member.
		memberLevel = 2
	}
	if role, ok := roleNames[memberLevel]; ok {
		return role
	}
	return strconv.Itoa(memberLevel)
}

// divisionNumbers maps the wire division code to the displayed division.
var divisionNumbers = map[int]int{
	25: 1,
	20: 2,
	15: 3,
	10: 4,
	5:  5,
}

// LeagueLabel formats the GAC league column: "LEAGUE D" when both parts are
// present, league alone when the division is missing or unmapped, and the
// empty string when the league is missing (never a stray separator).
func LeagueLabel(league string, divisionCode int) string {
	league = strings.ToUpper(strings.TrimSpace(league))
	if league == "" {
		return ""
	}
	if div, ok := divisionNumbers[divisionCode]; ok {
		return league + " " + strconv.Itoa(div)
	}
	return league
}

// allyCodeDigits normalizes an ally code to its digits only, so formatted
// values like "123-456-789" compare and store consistently.
func allyCodeDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

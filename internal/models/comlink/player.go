// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package comlink

import "strings"

// PlayerResponse is the POST /player response. Like /guild, the player object
// may arrive flat or wrapped in a "payload" envelope.
type PlayerResponse struct {
	Name          string        `json:"name"`
	PlayerID      string        `json:"playerId"`
	AllyCode      FlexInt       `json:"allyCode"`
	Level         FlexInt       `json:"level"`
	GalacticPower FlexInt       `json:"galacticPower"`
	Statistics    *PlayerStats  `json:"statistics,omitempty"`
	RosterUnit    []RosterUnit  `json:"rosterUnit"`
	PlayerRating  *PlayerRating `json:"playerRating,omitempty"`

	Payload *PlayerEnvelope `json:"payload,omitempty"`
}

// PlayerEnvelope is the nested form of the /player response.
type PlayerEnvelope struct {
	Name          string        `json:"name"`
	PlayerID      string        `json:"playerId"`
	AllyCode      FlexInt       `json:"allyCode"`
	Level         FlexInt       `json:"level"`
	GalacticPower FlexInt       `json:"galacticPower"`
	RosterUnit    []RosterUnit  `json:"rosterUnit"`
	PlayerRating  *PlayerRating `json:"playerRating,omitempty"`
}

// PlayerStats is an alternate carrier for aggregate player numbers.
type PlayerStats struct {
	GalacticPower FlexInt `json:"galacticPower"`
}

// DisplayName resolves the player's name across envelope variants.
func (p *PlayerResponse) DisplayName() string {
	var nested string
	if p.Payload != nil {
		nested = p.Payload.Name
	}
	return firstNonEmpty(p.Name, nested)
}

// GP resolves the player's galactic power.
func (p *PlayerResponse) GP() int64 {
	candidates := []FlexInt{p.GalacticPower}
	if p.Statistics != nil {
		candidates = append(candidates, p.Statistics.GalacticPower)
	}
	if p.Payload != nil {
		candidates = append(candidates, p.Payload.GalacticPower)
	}
	return firstNonZero(candidates...).Int64()
}

// PlayerLevel resolves the player's account level.
func (p *PlayerResponse) PlayerLevel() int {
	candidates := []FlexInt{p.Level}
	if p.Payload != nil {
		candidates = append(candidates, p.Payload.Level)
	}
	return firstNonZero(candidates...).Int()
}

// Roster resolves the roster unit list across envelope variants.
func (p *PlayerResponse) Roster() []RosterUnit {
	if len(p.RosterUnit) > 0 {
		return p.RosterUnit
	}
	if p.Payload != nil {
		return p.Payload.RosterUnit
	}
	return nil
}

// RankStatus resolves the GAC rank status, or nil when the player is unranked.
func (p *PlayerResponse) RankStatus() *PlayerRankStatus {
	if p.PlayerRating != nil && p.PlayerRating.PlayerRankStatus != nil {
		return p.PlayerRating.PlayerRankStatus
	}
	if p.Payload != nil && p.Payload.PlayerRating != nil {
		return p.Payload.PlayerRating.PlayerRankStatus
	}
	return nil
}

// PlayerRating wraps the GAC ladder placement.
type PlayerRating struct {
	PlayerRankStatus *PlayerRankStatus `json:"playerRankStatus,omitempty"`
}

// PlayerRankStatus carries the GAC league and division. League and division
// field names vary by provider version; the division value is a code
// (25/20/15/10/5), not the displayed division number.
type PlayerRankStatus struct {
	LeagueIDField  string  `json:"leagueId"`
	LeagueField    string  `json:"league"`
	LeagueName     string  `json:"leagueName"`
	DivisionID     FlexInt `json:"divisionId"`
	Division       FlexInt `json:"division"`
	DivisionNumber FlexInt `json:"divisionNumber"`
}

// League resolves the league identifier.
func (r *PlayerRankStatus) League() string {
	return firstNonEmpty(r.LeagueIDField, r.LeagueField, r.LeagueName)
}

// DivisionCode resolves the raw division code; zero means absent.
func (r *PlayerRankStatus) DivisionCode() int {
	return firstNonZero(r.DivisionID, r.Division, r.DivisionNumber).Int()
}

// RosterUnit is a character or ship owned by the player.
type RosterUnit struct {
	// "BASEID:SEVEN_STAR" on current versions; older ones carry a bare id.
	DefinitionID string `json:"definitionId"`
	DefID        string `json:"defId"`
	BaseIDField  string `json:"baseId"`
	IDField      string `json:"id"`

	Relic            *RelicState  `json:"relic,omitempty"`
	CurrentRelicTier FlexInt      `json:"currentRelicTier"`
	RelicTierField   FlexInt      `json:"relicTier"`
	CurrentTier      FlexInt      `json:"currentTier"`
	CurrentRarity    FlexInt      `json:"currentRarity"`
	Skill            []SkillEntry `json:"skill"`
}

// RelicState is the nested relic object.
type RelicState struct {
	CurrentTier FlexInt `json:"currentTier"`
	Tier        FlexInt `json:"tier"`
}

// BaseID resolves the unit's catalog key, upper-cased. The definitionId form
// "BARRISSOFFEE:SEVEN_STAR" is cut at the first colon.
func (u *RosterUnit) BaseID() string {
	if u.DefinitionID != "" {
		base, _, _ := strings.Cut(u.DefinitionID, ":")
		return strings.ToUpper(strings.TrimSpace(base))
	}
	return strings.ToUpper(strings.TrimSpace(firstNonEmpty(u.DefID, u.BaseIDField, u.IDField)))
}

// RelicTier resolves the relic tier across field variants. The second return
// is false when no relic field is present at all.
func (u *RosterUnit) RelicTier() (int, bool) {
	if u.Relic != nil {
		if v := firstNonZero(u.Relic.CurrentTier, u.Relic.Tier); v != 0 {
			return v.Int(), true
		}
		// A present relic object with tier 0 is still a signal.
		return 0, true
	}
	if v := firstNonZero(u.CurrentRelicTier, u.RelicTierField); v != 0 {
		return v.Int(), true
	}
	return 0, false
}

// SkillEntry is a single ability with its current upgrade tier.
type SkillEntry struct {
	ID   string  `json:"id"`
	Tier FlexInt `json:"tier"`
}

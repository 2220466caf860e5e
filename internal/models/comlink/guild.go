// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package comlink

// GuildResponse is the POST /guild response. The guild object may arrive at
// the top level, under "guild", or under "payload.guild".
type GuildResponse struct {
	Guild   *GuildPayload  `json:"guild,omitempty"`
	Payload *GuildEnvelope `json:"payload,omitempty"`

	// Flattened form: some versions return the guild object directly.
	Profile *GuildProfile `json:"profile,omitempty"`
	Members []GuildMember `json:"members,omitempty"`
}

// GuildEnvelope is the nested form of the /guild response.
type GuildEnvelope struct {
	Guild *GuildPayload `json:"guild,omitempty"`
}

// Resolve returns the guild object regardless of envelope variant.
func (g *GuildResponse) Resolve() *GuildPayload {
	if g.Guild != nil {
		return g.Guild
	}
	if g.Payload != nil && g.Payload.Guild != nil {
		return g.Payload.Guild
	}
	if g.Profile != nil || len(g.Members) > 0 {
		return &GuildPayload{Profile: g.Profile, Members: g.Members}
	}
	return nil
}

// GuildPayload is the guild object with profile, member list, and raid summary.
type GuildPayload struct {
	Profile *GuildProfile `json:"profile,omitempty"`

	// "member" vs "members" varies by provider version.
	Member  []GuildMember `json:"member,omitempty"`
	Members []GuildMember `json:"members,omitempty"`

	GuildName string `json:"guildName,omitempty"`

	LastRaidPointsSummary []RaidPointsSummary `json:"lastRaidPointsSummary,omitempty"`
}

// MemberList resolves the member list across field-name variants.
func (g *GuildPayload) MemberList() []GuildMember {
	if len(g.Members) > 0 {
		return g.Members
	}
	return g.Member
}

// Name resolves the guild display name.
func (g *GuildPayload) Name() string {
	var profileName string
	if g.Profile != nil {
		profileName = g.Profile.Name
	}
	return firstNonEmpty(profileName, g.GuildName)
}

// MemberCount resolves the member count, falling back to the member list length.
func (g *GuildPayload) MemberCount() int {
	if g.Profile != nil && g.Profile.MemberCount != 0 {
		return g.Profile.MemberCount.Int()
	}
	return len(g.MemberList())
}

// GalacticPower resolves the guild's total galactic power.
func (g *GuildPayload) GalacticPower() int64 {
	if g.Profile == nil {
		return 0
	}
	return firstNonZero(g.Profile.GuildGalacticPower, g.Profile.GalacticPower).Int64()
}

// LastRaid returns the first raid points summary entry, preferring the guild
// object's list over the profile's.
func (g *GuildPayload) LastRaid() (RaidPointsSummary, bool) {
	if len(g.LastRaidPointsSummary) > 0 {
		return g.LastRaidPointsSummary[0], true
	}
	if g.Profile != nil && len(g.Profile.LastRaidPointsSummary) > 0 {
		return g.Profile.LastRaidPointsSummary[0], true
	}
	return RaidPointsSummary{}, false
}

// GuildProfile holds guild-level aggregate fields.
type GuildProfile struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	MemberCount        FlexInt `json:"memberCount"`
	GuildGalacticPower FlexInt `json:"guildGalacticPower"`
	GalacticPower      FlexInt `json:"galacticPower"`

	LastRaidPointsSummary []RaidPointsSummary `json:"lastRaidPointsSummary,omitempty"`
}

// RaidPointsSummary describes the most recent guild raid result.
type RaidPointsSummary struct {
	Identifier  map[string]any `json:"identifier"`
	TotalPoints FlexInt        `json:"totalPoints"`
}

// GuildMember is a roster entry from the guild payload. memberLevel encodes
// the guild role (2 member, 3 officer, 4 leader).
type GuildMember struct {
	PlayerIDField   string  `json:"playerId"`
	IDField         string  `json:"id"`
	PlayerNameField string  `json:"playerName"`
	NameField       string  `json:"name"`
	AllyCodeField   FlexInt `json:"allyCode"`
	AllyField       FlexInt `json:"ally"`
	MemberLevel     FlexInt `json:"memberLevel"`
	PlayerLevel     FlexInt `json:"playerLevel"`
	GalacticPower   FlexInt `json:"galacticPower"`
	GPField         FlexInt `json:"gp"`
}

// PlayerID resolves the member's stable player id.
func (m *GuildMember) PlayerID() string {
	return firstNonEmpty(m.PlayerIDField, m.IDField)
}

// PlayerName resolves the member's display name.
func (m *GuildMember) PlayerName() string {
	return firstNonEmpty(m.PlayerNameField, m.NameField)
}

// AllyCode resolves the member's ally code; zero means absent.
func (m *GuildMember) AllyCode() int64 {
	return firstNonZero(m.AllyCodeField, m.AllyField).Int64()
}

// GP resolves the member's galactic power from the guild payload.
func (m *GuildMember) GP() int64 {
	return firstNonZero(m.GalacticPower, m.GPField).Int64()
}

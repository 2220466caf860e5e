// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package sync

import (
	"context"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/aruizcam/rostersync/internal/logging"
	"github.com/aruizcam/rostersync/internal/metrics"
	models "github.com/aruizcam/rostersync/internal/models/comlink"
)

// guildState tracks a guild's progress through one sync attempt. Transitions
// are logged so a stalled or failed guild can be located in the run log.
type guildState string

const (
	statePending          guildState = "PENDING"
	stateFetching         guildState = "FETCHING"
	stateFetchFailed      guildState = "FETCH_FAILED"
	stateFetched          guildState = "FETCHED"
	stateMemberResolution guildState = "MEMBER_RESOLUTION"
	stateAggregating      guildState = "AGGREGATING"
	stateUpserting        guildState = "UPSERTING"
	stateDone             guildState = "DONE"
	stateSkipped          guildState = "SKIPPED"
)

// Guild sync outcomes as reported in metrics and the run result.
const (
	outcomeSuccess = "success"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// guildResult is the per-guild summary collected into the run result.
type guildResult struct {
	GuildID        string
	GuildName      string
	Outcome        string
	Members        int
	MemberFailures int
	Err            error
}

// memberRecord holds one member's derived fields, ready for table assembly.
type memberRecord struct {
	PlayerID  string
	Name      string
	AllyCode  string
	Role      string
	GACLeague string
	Level     int
	GP        int64

	// UnitCells maps catalog base id to the units-matrix cell value.
	UnitCells map[string]string
	// SkillObs maps skills-matrix column header to the observed tier.
	SkillObs map[string]string
}

// syncGuild runs the full state machine for one guild against the in-memory
// run state. Guild-level failures are contained: the tables are only mutated
// once every member has been resolved, so a failed guild leaves its stored
// rows exactly as they were.
func (m *Manager) syncGuild(ctx context.Context, st *runState, guildID string) guildResult {
	start := time.Now()
	res := guildResult{GuildID: guildID}
	state := statePending

	transition := func(to guildState) {
		logging.Debug().
			Str("guild_id", guildID).
			Str("from", string(state)).
			Str("to", string(to)).
			Msg("Guild sync state change")
		state = to
	}

	log := logging.Logger().With().Str("guild_id", guildID).Logger()

	// The stored row, if any, carries the previous guild name and the last
	// update stamp used by the skip guard.
	oldName, lastUpdate := st.storedGuildRow(guildID)

	if m.cfg.Sync.SkipIfSyncedToday && alreadySyncedToday(lastUpdate, st.now) {
		transition(stateSkipped)
		log.Info().Str("guild_name", oldName).Str("last_update", lastUpdate).Msg("Guild already synced today, skipping")
		res.Outcome = outcomeSkipped
		res.GuildName = oldName
		metrics.RecordGuildSync(outcomeSkipped, time.Since(start))
		return res
	}

	transition(stateFetching)
	resp, err := m.client.FetchGuild(ctx, guildID)
	if err != nil {
		transition(stateFetchFailed)
		log.Error().Err(err).Msg("Guild fetch failed")
		metrics.RecordSyncError("comlink")
		metrics.RecordGuildSync(outcomeFailed, time.Since(start))
		res.Outcome = outcomeFailed
		res.Err = err
		return res
	}
	guild := resp.Resolve()
	if guild == nil {
		transition(stateFetchFailed)
		log.Error().Msg("Guild response carried no guild object")
		metrics.RecordSyncError("validation")
		metrics.RecordGuildSync(outcomeFailed, time.Since(start))
		res.Outcome = outcomeFailed
		res.Err = errNoGuildPayload
		return res
	}
	transition(stateFetched)

	name := guild.Name()
	if name == "" {
		// Keep rows addressable even when the profile omits the name.
		name = oldName
		if name == "" {
			name = guildID
		}
	}
	res.GuildName = name

	transition(stateMemberResolution)
	members := guild.MemberList()
	records := make([]memberRecord, 0, len(members))
	for i := range members {
		member := &members[i]
		pid := member.PlayerID()
		if pid == "" {
			log.Warn().Str("player_name", member.PlayerName()).Msg("Guild member without player id, skipping")
			res.MemberFailures++
			metrics.SyncMemberFailures.Inc()
			continue
		}

		player, err := m.client.FetchPlayer(ctx, pid)
		if err != nil {
			res.MemberFailures++
			metrics.SyncMemberFailures.Inc()
			metrics.RecordSyncError("comlink")
			// A cancelled run should stop, not burn through the roster.
			if ctx.Err() != nil {
				res.Outcome = outcomeFailed
				res.Err = ctx.Err()
				metrics.RecordGuildSync(outcomeFailed, time.Since(start))
				return res
			}
			// The member still appears in the guild payload, so their rows
			// must survive the reinsert. Guild-payload fields fill the
			// Players row; stored skill tiers survive through the merge.
			log.Warn().Err(err).Str("player_id", pid).Msg("Player fetch failed, keeping member row from guild data")
			records = append(records, fallbackMemberRecord(member))
			continue
		}

		records = append(records, buildMemberRecord(st, member, player))
		res.Members++
		metrics.SyncMembersProcessed.Inc()
	}

	transition(stateAggregating)
	playerRows := st.buildPlayerRows(name, records)
	unitRows := st.buildUnitRows(name, records)

	transition(stateUpserting)
	st.upsertGuildRow(guildID, name, guild)
	st.replaceGuildRows(oldName, name, playerRows, unitRows, records)

	transition(stateDone)
	log.Info().
		Str("guild_name", name).
		Int("members", res.Members).
		Int("member_failures", res.MemberFailures).
		Dur("duration", time.Since(start)).
		Msg("Guild synchronized")
	res.Outcome = outcomeSuccess
	metrics.RecordGuildSync(outcomeSuccess, time.Since(start))
	return res
}

// buildMemberRecord derives the display fields and matrix cells for one
// member from the guild payload and the player's own roster.
func buildMemberRecord(st *runState, member *models.GuildMember, player *models.PlayerResponse) memberRecord {
	ally := member.AllyCode()
	if ally == 0 {
		ally = player.AllyCode.Int64()
		if ally == 0 && player.Payload != nil {
			ally = player.Payload.AllyCode.Int64()
		}
	}
	allyStr := ""
	if ally != 0 {
		allyStr = allyCodeDigits(strconv.FormatInt(ally, 10))
	}

	name := member.PlayerName()
	if name == "" {
		name = player.DisplayName()
	}
	if name == "" {
		name = allyStr
	}
	if name == "" {
		name = member.PlayerID()
	}

	gp := member.GP()
	if gp == 0 {
		gp = player.GP()
	}

	level := player.PlayerLevel()
	if level == 0 {
		level = member.PlayerLevel.Int()
	}

	gac := ""
	if rank := player.RankStatus(); rank != nil {
		gac = LeagueLabel(rank.League(), rank.DivisionCode())
	}

	rec := memberRecord{
		PlayerID:  member.PlayerID(),
		Name:      name,
		AllyCode:  allyStr,
		Role:      RoleLabel(member.MemberLevel.Int()),
		GACLeague: gac,
		Level:     level,
		GP:        gp,
		UnitCells: make(map[string]string),
		SkillObs:  make(map[string]string),
	}

	roster := player.Roster()
	for i := range roster {
		unit := &roster[i]
		baseID := unit.BaseID()
		if baseID == "" {
			continue
		}
		if _, tracked := st.cat.Units[baseID]; tracked {
			tier, hasTier := unit.RelicTier()
			if cell := UnitCell(st.cat.IsShip(baseID), tier, hasTier); cell != "" {
				rec.UnitCells[baseID] = cell
			}
		}
		for _, sk := range unit.Skill {
			header, tracked := st.skillHeader[sk.ID]
			if !tracked || sk.Tier.Int() <= 0 {
				continue
			}
			tier := strconv.Itoa(sk.Tier.Int())
			rec.SkillObs[header] = maxTierValue(rec.SkillObs[header], tier)
		}
	}
	return rec
}

// fallbackMemberRecord builds a member record from the guild payload alone,
// for members whose roster fetch failed. Unit cells stay empty and no skill
// tiers are observed, so stored skills-matrix values carry over unchanged.
func fallbackMemberRecord(member *models.GuildMember) memberRecord {
	allyStr := ""
	if ally := member.AllyCode(); ally != 0 {
		allyStr = allyCodeDigits(strconv.FormatInt(ally, 10))
	}

	name := member.PlayerName()
	if name == "" {
		name = allyStr
	}
	if name == "" {
		name = member.PlayerID()
	}

	return memberRecord{
		PlayerID:  member.PlayerID(),
		Name:      name,
		AllyCode:  allyStr,
		Role:      RoleLabel(member.MemberLevel.Int()),
		Level:     member.PlayerLevel.Int(),
		GP:        member.GP(),
		UnitCells: make(map[string]string),
		SkillObs:  make(map[string]string),
	}
}

// alreadySyncedToday compares the date prefix of a Last Update stamp against
// today in the configured timezone.
func alreadySyncedToday(lastUpdate string, now time.Time) bool {
	if len(lastUpdate) < 10 {
		return false
	}
	return lastUpdate[:10] == now.Format("2006-01-02")
}

// compactRaidID serializes the raid identifier object to a compact JSON
// string for the Last Raid Id column.
func compactRaidID(identifier map[string]any) string {
	if len(identifier) == 0 {
		return ""
	}
	b, err := json.Marshal(identifier)
	if err != nil {
		return ""
	}
	return string(b)
}

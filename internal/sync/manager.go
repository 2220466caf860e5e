// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

// Package sync implements the guild roster synchronization engine.
//
// A run proceeds in phases:
//
//  1. Load the display catalog from the reference worksheets.
//  2. Read the four target worksheets into memory, growing their header rows
//     as the catalog requires (headers are append-only; operator columns are
//     never moved or removed).
//  3. For each guild id, run the per-guild state machine: fetch the guild,
//     resolve every member's roster, derive display fields, and replace the
//     guild's rows in the in-memory tables. Guild and member failures are
//     contained; they never abort the run.
//  4. Flush each table back to the spreadsheet in one bulk write.
//
// The delete-then-reinsert per guild is keyed by both the stored and the
// freshly fetched guild name, so a guild rename cannot strand stale rows.
// Reruns on unchanged upstream data are idempotent except for Last Update.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aruizcam/rostersync/internal/catalog"
	"github.com/aruizcam/rostersync/internal/comlink"
	"github.com/aruizcam/rostersync/internal/config"
	"github.com/aruizcam/rostersync/internal/logging"
	"github.com/aruizcam/rostersync/internal/metrics"
	"github.com/aruizcam/rostersync/internal/sheets"
)

// GuildOutcome summarizes one guild's result within a run.
type GuildOutcome struct {
	GuildID   string `json:"guild_id"`
	GuildName string `json:"guild_name,omitempty"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
}

// RunResult summarizes a full sync run. Exposed through the health endpoint.
type RunResult struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	GuildsSynced  int `json:"guilds_synced"`
	GuildsSkipped int `json:"guilds_skipped"`
	GuildsFailed  int `json:"guilds_failed"`

	MembersProcessed int `json:"members_processed"`
	MemberFailures   int `json:"member_failures"`

	Outcomes     []GuildOutcome `json:"outcomes,omitempty"`
	FailedWrites []string       `json:"failed_writes,omitempty"`
}

// Manager orchestrates sync runs. It owns no long-lived table state: every
// run reads the worksheets fresh, so operator edits between runs are always
// picked up.
type Manager struct {
	cfg    *config.Config
	client comlink.Service
	store  sheets.Store
	loader *catalog.Loader
	loc    *time.Location

	mu      sync.Mutex
	lastRun *RunResult
}

// New creates a sync manager from configuration and wired collaborators.
func New(cfg *config.Config, client comlink.Service, store sheets.Store, loader *catalog.Loader) (*Manager, error) {
	loc, err := time.LoadLocation(cfg.Sync.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid sync timezone %q: %w", cfg.Sync.Timezone, err)
	}
	return &Manager{
		cfg:    cfg,
		client: client,
		store:  store,
		loader: loader,
		loc:    loc,
	}, nil
}

// LastRun returns the most recent run result, or nil before the first run.
func (m *Manager) LastRun() *RunResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRun
}

func (m *Manager) setLastRun(res *RunResult) {
	m.mu.Lock()
	m.lastRun = res
	m.mu.Unlock()
}

// RunOnce executes one full sync run. It returns an error only for run-level
// failures (catalog store unreachable, target worksheets unreadable); guild
// and member failures are contained and reported in the result.
func (m *Manager) RunOnce(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	res := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: started,
	}
	defer func() {
		res.FinishedAt = time.Now()
		m.setLastRun(res)
	}()

	log := logging.Logger().With().Str("run_id", res.RunID).Logger()
	log.Info().Msg("Sync run starting")

	cat, err := m.loader.Load(ctx)
	if err != nil {
		metrics.RecordSyncError("catalog")
		return res, fmt.Errorf("catalog load failed: %w", err)
	}

	st, err := m.loadRunState(ctx, cat)
	if err != nil {
		metrics.RecordSyncError("sheets")
		return res, fmt.Errorf("worksheet preparation failed: %w", err)
	}

	guildIDs := m.cfg.Sync.GuildIDs
	if len(guildIDs) == 0 {
		guildIDs = st.guildIDsFromSheet()
	}
	if len(guildIDs) == 0 {
		log.Warn().Msg("No guild ids configured or listed in the roster sheet, nothing to do")
		return res, nil
	}

	for _, gid := range guildIDs {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("Run cancelled, remaining guilds not processed")
			break
		}
		r := m.syncGuild(ctx, st, gid)

		outcome := GuildOutcome{GuildID: r.GuildID, GuildName: r.GuildName, Outcome: r.Outcome}
		if r.Err != nil {
			outcome.Error = r.Err.Error()
		}
		res.Outcomes = append(res.Outcomes, outcome)
		res.MembersProcessed += r.Members
		res.MemberFailures += r.MemberFailures
		switch r.Outcome {
		case outcomeSuccess:
			res.GuildsSynced++
		case outcomeSkipped:
			res.GuildsSkipped++
		default:
			res.GuildsFailed++
		}
	}

	m.flush(ctx, st, res)

	metrics.RecordSyncRun(time.Since(started), res.GuildsFailed+len(res.FailedWrites))
	log.Info().
		Int("guilds_synced", res.GuildsSynced).
		Int("guilds_skipped", res.GuildsSkipped).
		Int("guilds_failed", res.GuildsFailed).
		Int("members", res.MembersProcessed).
		Int("member_failures", res.MemberFailures).
		Strs("failed_writes", res.FailedWrites).
		Dur("duration", time.Since(started)).
		Msg("Sync run finished")
	return res, nil
}

// loadRunState prepares the in-memory worksheet copies for a run. Header rows
// are ensured before reading so row widths already include any new columns.
func (m *Manager) loadRunState(ctx context.Context, cat *catalog.Catalog) (*runState, error) {
	t := m.cfg.Sheets.Tables

	guildsIdx, err := m.store.EnsureHeaders(ctx, t.Guilds, guildSheetHeaders)
	if err != nil {
		return nil, fmt.Errorf("guilds headers: %w", err)
	}
	guildsTable, err := m.store.ReadTable(ctx, t.Guilds)
	if err != nil {
		return nil, fmt.Errorf("guilds read: %w", err)
	}

	playersIdx, err := m.store.EnsureHeaders(ctx, t.Players, playerSheetHeaders)
	if err != nil {
		return nil, fmt.Errorf("players headers: %w", err)
	}
	playersTable, err := m.store.ReadTable(ctx, t.Players)
	if err != nil {
		return nil, fmt.Errorf("players read: %w", err)
	}

	unitCols := unitColumns(cat)
	unitHeaders := make([]string, 0, len(matrixKeyHeaders)+len(unitCols))
	unitHeaders = append(unitHeaders, matrixKeyHeaders...)
	for _, uc := range unitCols {
		unitHeaders = append(unitHeaders, uc.Header)
	}
	unitsIdx, err := m.store.EnsureHeaders(ctx, t.PlayerUnits, unitHeaders)
	if err != nil {
		return nil, fmt.Errorf("units headers: %w", err)
	}
	unitsTable, err := m.store.ReadTable(ctx, t.PlayerUnits)
	if err != nil {
		return nil, fmt.Errorf("units read: %w", err)
	}

	// The skills matrix is rebuilt wholesale on flush, so no header ensure.
	skillsTable, err := m.store.ReadTable(ctx, t.PlayerSkills)
	if err != nil {
		return nil, fmt.Errorf("skills read: %w", err)
	}

	skillHeader := make(map[string]string)
	for _, sc := range skillColumns(cat) {
		skillHeader[sc.SkillID] = sc.Header
	}

	return &runState{
		cat:         cat,
		unitCols:    unitCols,
		skillHeader: skillHeader,
		guilds:      newIndexedTable(guildsTable, guildsIdx[colGuildID]),
		guildsIdx:   guildsIdx,
		players:     newIndexedTable(playersTable, playersIdx[colPlayerGuild], playersIdx[colPlayerName]),
		playersIdx:  playersIdx,
		units:       newIndexedTable(unitsTable, unitsIdx[matrixKeyHeaders[0]], unitsIdx[matrixKeyHeaders[1]]),
		unitsIdx:    unitsIdx,
		skills:      newSkillsMatrix(skillsTable),
		now:         time.Now().In(m.loc),
	}, nil
}

// flush writes the mutated tables back to the store, one bulk write per
// table. A failed write is recorded and the remaining tables are still
// written; there is no cross-table atomicity.
func (m *Manager) flush(ctx context.Context, st *runState, res *RunResult) {
	t := m.cfg.Sheets.Tables

	write := func(table string, err error) {
		if err == nil {
			return
		}
		logging.Error().Err(err).Str("table", table).Msg("Table write failed")
		metrics.RecordSyncError("sheets")
		res.FailedWrites = append(res.FailedWrites, table)
	}

	write(t.Guilds, m.store.WriteRows(ctx, t.Guilds, st.guilds.table.Rows))
	write(t.Players, m.store.WriteRows(ctx, t.Players, st.players.table.Rows))
	write(t.PlayerUnits, m.store.WriteRows(ctx, t.PlayerUnits, st.units.table.Rows))

	skillHeaders, skillRows := st.skills.render()
	write(t.PlayerSkills, m.store.WriteTable(ctx, t.PlayerSkills, skillHeaders, skillRows))
}

// Serve runs the manager as a supervised service: an optional startup run,
// then one run per interval tick until the context is cancelled.
func (m *Manager) Serve(ctx context.Context) error {
	if m.cfg.Sync.RunOnStartup {
		if _, err := m.RunOnce(ctx); err != nil {
			logging.Error().Err(err).Msg("Startup sync run failed")
		}
	}

	if m.cfg.Sync.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(m.cfg.Sync.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.RunOnce(ctx); err != nil {
				logging.Error().Err(err).Msg("Scheduled sync run failed")
			}
		}
	}
}

// String names the service in supervisor logs.
func (m *Manager) String() string {
	return "sync-manager"
}

// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package sync

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/aruizcam/rostersync/internal/catalog"
	"github.com/aruizcam/rostersync/internal/config"
	models "github.com/aruizcam/rostersync/internal/models/comlink"
	"github.com/aruizcam/rostersync/internal/sheets"
)

// fakeComlink is a scripted game-data service for orchestrator tests.
type fakeComlink struct {
	guilds    map[string]*models.GuildResponse
	players   map[string]*models.PlayerResponse
	guildErr  map[string]error
	playerErr map[string]error

	guildCalls  int
	playerCalls int
}

func newFakeComlink() *fakeComlink {
	return &fakeComlink{
		guilds:    make(map[string]*models.GuildResponse),
		players:   make(map[string]*models.PlayerResponse),
		guildErr:  make(map[string]error),
		playerErr: make(map[string]error),
	}
}

func (f *fakeComlink) FetchMetadata(context.Context) (*models.MetadataResponse, error) {
	return &models.MetadataResponse{}, nil
}

func (f *fakeComlink) FetchDataItems(context.Context, string, string) (*models.DataResponse, error) {
	return &models.DataResponse{}, nil
}

func (f *fakeComlink) FetchGuild(_ context.Context, guildID string) (*models.GuildResponse, error) {
	f.guildCalls++
	if err := f.guildErr[guildID]; err != nil {
		return nil, err
	}
	resp, ok := f.guilds[guildID]
	if !ok {
		return nil, fmt.Errorf("unknown guild %s", guildID)
	}
	return resp, nil
}

func (f *fakeComlink) FetchPlayer(_ context.Context, playerID string) (*models.PlayerResponse, error) {
	f.playerCalls++
	if err := f.playerErr[playerID]; err != nil {
		return nil, err
	}
	resp, ok := f.players[playerID]
	if !ok {
		return nil, fmt.Errorf("unknown player %s", playerID)
	}
	return resp, nil
}

func guildResp(name string, gp int64, members ...models.GuildMember) *models.GuildResponse {
	return &models.GuildResponse{Guild: &models.GuildPayload{
		Profile: &models.GuildProfile{
			Name:               name,
			MemberCount:        models.FlexInt(len(members)),
			GuildGalacticPower: models.FlexInt(gp),
		},
		Members: members,
		LastRaidPointsSummary: []models.RaidPointsSummary{
			{Identifier: map[string]any{"campaignId": "SPEEDERBIKE"}, TotalPoints: 123456},
		},
	}}
}

func member(pid, name string, ally int64, level int) models.GuildMember {
	return models.GuildMember{
		PlayerIDField:   pid,
		PlayerNameField: name,
		AllyCodeField:   models.FlexInt(ally),
		MemberLevel:     models.FlexInt(level),
	}
}

func playerResp(name string, gp int64, units ...models.RosterUnit) *models.PlayerResponse {
	return &models.PlayerResponse{
		Name:          name,
		GalacticPower: models.FlexInt(gp),
		Level:         85,
		RosterUnit:    units,
		PlayerRating: &models.PlayerRating{PlayerRankStatus: &models.PlayerRankStatus{
			LeagueIDField: "KYBER",
			DivisionID:    25,
		}},
	}
}

func relicUnit(baseID string, tier int, skills ...models.SkillEntry) models.RosterUnit {
	return models.RosterUnit{
		DefinitionID: baseID + ":SEVEN_STAR",
		Relic:        &models.RelicState{CurrentTier: models.FlexInt(tier)},
		Skill:        skills,
	}
}

func testSyncConfig() *config.Config {
	return &config.Config{
		Sheets: config.SheetsConfig{
			Tables: config.TableNamesConfig{
				Guilds:       "Guilds",
				Players:      "Players",
				PlayerUnits:  "Player_Units",
				PlayerSkills: "Player_Skills",
				Characters:   "Characters",
				Ships:        "Ships",
				Zetas:        "CharactersZetas",
				Omicrons:     "CharactersOmicrons",
			},
		},
		Sync: config.SyncConfig{Timezone: "UTC"},
	}
}

// testFixture wires a memory store with a small catalog and two seeded guilds
// against a scripted comlink service.
func testFixture(t *testing.T) (*fakeComlink, *sheets.MemoryStore, *config.Config) {
	t.Helper()

	store := sheets.NewMemoryStore()
	store.Seed("Characters", []string{"base_id", "Name", "Alignment"}, [][]string{
		{"VADER", "Darth Vader", "Dark Side"},
	})
	store.Seed("Ships", []string{"base_id", "Name", "Alignment"}, [][]string{
		{"MILLENNIUMFALCON", "Millennium Falcon", "Light Side"},
	})
	store.Seed("CharactersZetas", []string{"base_id", "skillId", "skillName"}, [][]string{
		{"VADER", "specialskill_VADER01", "Culling Blade"},
	})
	store.Seed("Guilds", []string{"Guild Id", "Guild Name", "Notes", "Last Update"}, [][]string{
		{"G1", "Alpha", "operator note", ""},
		{"G2", "Beta", "", ""},
	})

	client := newFakeComlink()
	client.guilds["G1"] = guildResp("Alpha", 200000000,
		member("P1", "Han", 123456789, 4),
		member("P2", "Luke", 987654321, 2),
	)
	client.guilds["G2"] = guildResp("Beta", 150000000,
		member("P3", "Leia", 111222333, 3),
	)
	client.players["P1"] = playerResp("Han", 5000000,
		relicUnit("VADER", 11, models.SkillEntry{ID: "specialskill_VADER01", Tier: 7}),
		models.RosterUnit{DefinitionID: "MILLENNIUMFALCON:SEVEN_STAR"},
	)
	client.players["P2"] = playerResp("Luke", 4000000,
		relicUnit("VADER", 2, models.SkillEntry{ID: "specialskill_VADER01", Tier: 3}),
	)
	client.players["P3"] = playerResp("Leia", 3000000)

	return client, store, testSyncConfig()
}

func newTestManager(t *testing.T, client *fakeComlink, store *sheets.MemoryStore, cfg *config.Config) *Manager {
	t.Helper()
	loader := catalog.NewLoader(store, cfg.Sheets.Tables, cfg.Sync.ExcludeBaseIDContains)
	m, err := New(cfg, client, store, loader)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func findRow(t *testing.T, table *sheets.Table, col int, value string) int {
	t.Helper()
	for i := range table.Rows {
		if table.Cell(i, col) == value {
			return i
		}
	}
	return -1
}

func TestRunOnce_FullSync(t *testing.T) {
	client, store, cfg := testFixture(t)
	m := newTestManager(t, client, store, cfg)

	res, err := m.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.GuildsSynced != 2 || res.GuildsFailed != 0 {
		t.Fatalf("result = %+v", res)
	}
	if res.MembersProcessed != 3 || res.MemberFailures != 0 {
		t.Errorf("members = %d/%d failures", res.MembersProcessed, res.MemberFailures)
	}

	guilds := store.Snapshot("Guilds")
	row := findRow(t, guilds, guilds.ColumnIndex("Guild Id"), "G1")
	if row < 0 {
		t.Fatal("G1 row missing")
	}
	if got := guilds.Cell(row, guilds.ColumnIndex("Members")); got != "2" {
		t.Errorf("Members = %q, want 2", got)
	}
	if got := guilds.Cell(row, guilds.ColumnIndex("Guild GP")); got != "200000000" {
		t.Errorf("Guild GP = %q", got)
	}
	if got := guilds.Cell(row, guilds.ColumnIndex("Last Raid Score")); got != "123456" {
		t.Errorf("Last Raid Score = %q", got)
	}
	if got := guilds.Cell(row, guilds.ColumnIndex("Last Raid Id")); got != `{"campaignId":"SPEEDERBIKE"}` {
		t.Errorf("Last Raid Id = %q", got)
	}
	// Operator column untouched.
	if got := guilds.Cell(row, guilds.ColumnIndex("Notes")); got != "operator note" {
		t.Errorf("operator column overwritten: %q", got)
	}
	if got := guilds.Cell(row, guilds.ColumnIndex("Last Update")); len(got) < 10 {
		t.Errorf("Last Update not stamped: %q", got)
	}

	players := store.Snapshot("Players")
	if len(players.Rows) != 3 {
		t.Fatalf("players rows = %d, want 3: %v", len(players.Rows), players.Rows)
	}
	hanRow := findRow(t, players, players.ColumnIndex("Player Name"), "Han")
	if hanRow < 0 {
		t.Fatal("Han row missing")
	}
	if got := players.Cell(hanRow, players.ColumnIndex("Role")); got != "Leader" {
		t.Errorf("Role = %q, want Leader", got)
	}
	if got := players.Cell(hanRow, players.ColumnIndex("GAC League")); got != "KYBER 1" {
		t.Errorf("GAC League = %q, want KYBER 1", got)
	}
	if got := players.Cell(hanRow, players.ColumnIndex("Ally code")); got != "123456789" {
		t.Errorf("Ally code = %q", got)
	}

	units := store.Snapshot("Player_Units")
	uHan := findRow(t, units, units.ColumnIndex("Player Name"), "Han")
	if got := units.Cell(uHan, units.ColumnIndex("Darth Vader")); got != "R9" {
		t.Errorf("Darth Vader cell = %q, want R9", got)
	}
	if got := units.Cell(uHan, units.ColumnIndex("Millennium Falcon")); got != "Nave" {
		t.Errorf("ship cell = %q, want Nave", got)
	}
	uLuke := findRow(t, units, units.ColumnIndex("Player Name"), "Luke")
	if got := units.Cell(uLuke, units.ColumnIndex("Darth Vader")); got != "R0" {
		t.Errorf("Luke's Vader cell = %q, want R0", got)
	}
	if got := units.Cell(uLuke, units.ColumnIndex("Millennium Falcon")); got != "" {
		t.Errorf("missing unit cell = %q, want empty", got)
	}

	skills := store.Snapshot("Player_Skills")
	sHan := findRow(t, skills, skills.ColumnIndex("Player Name"), "Han")
	if got := skills.Cell(sHan, skills.ColumnIndex("Darth Vader|Culling Blade")); got != "7" {
		t.Errorf("skill tier = %q, want 7", got)
	}
}

func TestRunOnce_IdempotentExceptLastUpdate(t *testing.T) {
	client, store, cfg := testFixture(t)
	m := newTestManager(t, client, store, cfg)
	ctx := context.Background()

	if _, err := m.RunOnce(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := map[string]*sheets.Table{
		"Players":       store.Snapshot("Players"),
		"Player_Units":  store.Snapshot("Player_Units"),
		"Player_Skills": store.Snapshot("Player_Skills"),
	}
	firstGuilds := store.Snapshot("Guilds")

	if _, err := m.RunOnce(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}

	for name, want := range first {
		got := store.Snapshot(name)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s changed on rerun:\nfirst  %v\nsecond %v", name, want, got)
		}
	}

	// The Guilds table may only differ in the Last Update column.
	secondGuilds := store.Snapshot("Guilds")
	luCol := firstGuilds.ColumnIndex("Last Update")
	for i := range firstGuilds.Rows {
		for j := range firstGuilds.Rows[i] {
			if j == luCol {
				continue
			}
			if firstGuilds.Cell(i, j) != secondGuilds.Cell(i, j) {
				t.Errorf("Guilds[%d][%d] changed on rerun: %q -> %q",
					i, j, firstGuilds.Cell(i, j), secondGuilds.Cell(i, j))
			}
		}
	}
}

func TestRunOnce_DeletionScopedToSyncedGuild(t *testing.T) {
	client, store, cfg := testFixture(t)
	// Pre-seed player rows: a stale Alpha member and a foreign guild's row.
	store.Seed("Players",
		[]string{"Guild Name", "Player Name", "Player Id", "Ally code", "GP", "Role", "GAC League", "Level"},
		[][]string{
			{"Alpha", "Departed", "PX", "000", "1", "Member", "", "85"},
			{"Unmanaged", "Visitor", "PV", "111", "2", "Member", "", "85"},
		})
	cfg.Sync.GuildIDs = []string{"G1"}
	m := newTestManager(t, client, store, cfg)

	if _, err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	players := store.Snapshot("Players")
	nameCol := players.ColumnIndex("Player Name")
	if findRow(t, players, nameCol, "Departed") >= 0 {
		t.Error("stale row of synced guild survived")
	}
	if findRow(t, players, nameCol, "Visitor") < 0 {
		t.Error("row of unsynced guild was deleted")
	}
	if findRow(t, players, nameCol, "Han") < 0 {
		t.Error("fresh member row missing")
	}
	// G2 was filtered out and must not have been touched.
	if findRow(t, players, nameCol, "Leia") >= 0 {
		t.Error("guild outside the filter was synced")
	}
}

func TestRunOnce_PartialFailureContainment(t *testing.T) {
	client, store, cfg := testFixture(t)
	store.Seed("Players",
		[]string{"Guild Name", "Player Name", "Player Id", "Ally code", "GP", "Role", "GAC League", "Level"},
		[][]string{
			{"Alpha", "OldHan", "P1", "123456789", "9", "Member", "", "85"},
		})
	client.guildErr["G1"] = errors.New("comlink down")
	m := newTestManager(t, client, store, cfg)

	res, err := m.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce must contain guild failures: %v", err)
	}
	if res.GuildsFailed != 1 || res.GuildsSynced != 1 {
		t.Fatalf("result = %+v", res)
	}

	players := store.Snapshot("Players")
	nameCol := players.ColumnIndex("Player Name")
	// The failed guild keeps its stored rows untouched.
	if findRow(t, players, nameCol, "OldHan") < 0 {
		t.Error("failed guild's stored rows were modified")
	}
	// The healthy guild still synced.
	if findRow(t, players, nameCol, "Leia") < 0 {
		t.Error("healthy guild was not synced")
	}
}

func TestRunOnce_MemberFetchFailureKeepsStoredRows(t *testing.T) {
	client, store, cfg := testFixture(t)
	// Luke already has rows from an earlier run, including a skill tier
	// higher than anything this run could observe.
	store.Seed("Players",
		[]string{"Guild Name", "Player Name", "Player Id", "Ally code", "GP", "Role", "GAC League", "Level"},
		[][]string{
			{"Alpha", "Luke", "P2", "987654321", "4000000", "Member", "KYBER 1", "85"},
		})
	store.Seed("Player_Skills",
		[]string{"Player Guild", "Player Name", "Darth Vader|Culling Blade"},
		[][]string{
			{"Alpha", "Luke", "8"},
		})
	client.playerErr["P2"] = errors.New("roster unavailable")
	m := newTestManager(t, client, store, cfg)

	res, err := m.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.GuildsFailed != 0 {
		t.Fatalf("member failure must not fail the guild: %+v", res)
	}
	if res.MemberFailures != 1 {
		t.Errorf("member failures = %d, want 1", res.MemberFailures)
	}

	// The member still appears in the guild payload, so the Players row is
	// rebuilt from guild-payload fields rather than deleted.
	players := store.Snapshot("Players")
	nameCol := players.ColumnIndex("Player Name")
	if findRow(t, players, nameCol, "Han") < 0 {
		t.Error("healthy member missing")
	}
	lukeRow := findRow(t, players, nameCol, "Luke")
	if lukeRow < 0 {
		t.Fatal("failed member's row was deleted")
	}
	if got := players.Cell(lukeRow, players.ColumnIndex("Ally code")); got != "987654321" {
		t.Errorf("Ally code = %q", got)
	}
	if got := players.Cell(lukeRow, players.ColumnIndex("Role")); got != "Member" {
		t.Errorf("Role = %q, want Member", got)
	}

	// Stored skill tiers survive the merge untouched.
	skills := store.Snapshot("Player_Skills")
	sLuke := findRow(t, skills, skills.ColumnIndex("Player Name"), "Luke")
	if sLuke < 0 {
		t.Fatal("failed member's skills row was deleted")
	}
	if got := skills.Cell(sLuke, skills.ColumnIndex("Darth Vader|Culling Blade")); got != "8" {
		t.Errorf("stored skill tier = %q, want 8", got)
	}
}

func TestRunOnce_MemberWithoutPlayerIDSkipped(t *testing.T) {
	client, store, cfg := testFixture(t)
	client.guilds["G2"] = guildResp("Beta", 150000000,
		member("P3", "Leia", 111222333, 3),
		models.GuildMember{PlayerNameField: "Ghost"},
	)
	m := newTestManager(t, client, store, cfg)

	res, err := m.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.MemberFailures != 1 {
		t.Errorf("member failures = %d, want 1", res.MemberFailures)
	}
	players := store.Snapshot("Players")
	if findRow(t, players, players.ColumnIndex("Player Name"), "Ghost") >= 0 {
		t.Error("member without player id got a row")
	}
}

func TestRunOnce_SkipIfSyncedToday(t *testing.T) {
	client, store, cfg := testFixture(t)
	today := time.Now().UTC().Format("2006-01-02")
	store.Seed("Guilds", []string{"Guild Id", "Guild Name", "Last Update"}, [][]string{
		{"G1", "Alpha", today + " 06:00:00"},
		{"G2", "Beta", "2020-01-01 06:00:00"},
	})
	cfg.Sync.SkipIfSyncedToday = true
	m := newTestManager(t, client, store, cfg)

	res, err := m.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.GuildsSkipped != 1 || res.GuildsSynced != 1 {
		t.Fatalf("result = %+v", res)
	}

	guilds := store.Snapshot("Guilds")
	row := findRow(t, guilds, guilds.ColumnIndex("Guild Id"), "G1")
	if got := guilds.Cell(row, guilds.ColumnIndex("Last Update")); got != today+" 06:00:00" {
		t.Errorf("skipped guild's row was touched: %q", got)
	}
}

func TestRunOnce_GuildRenameLeavesNoStaleRows(t *testing.T) {
	client, store, cfg := testFixture(t)
	// Stored under the old name; the fetch returns the new one.
	store.Seed("Guilds", []string{"Guild Id", "Guild Name"}, [][]string{{"G1", "OldAlpha"}})
	store.Seed("Players",
		[]string{"Guild Name", "Player Name", "Player Id", "Ally code", "GP", "Role", "GAC League", "Level"},
		[][]string{
			{"OldAlpha", "Han", "P1", "123456789", "9", "Member", "", "85"},
		})
	cfg.Sync.GuildIDs = []string{"G1"}
	m := newTestManager(t, client, store, cfg)

	if _, err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	players := store.Snapshot("Players")
	guildCol := players.ColumnIndex("Guild Name")
	if findRow(t, players, guildCol, "OldAlpha") >= 0 {
		t.Error("rows under the old guild name survived the rename")
	}
	if findRow(t, players, guildCol, "Alpha") < 0 {
		t.Error("rows under the new guild name missing")
	}

	guilds := store.Snapshot("Guilds")
	row := findRow(t, guilds, guilds.ColumnIndex("Guild Id"), "G1")
	if got := guilds.Cell(row, guilds.ColumnIndex("Guild Name")); got != "Alpha" {
		t.Errorf("guild name not updated: %q", got)
	}
}

func TestRunOnce_SkillTierSurvivesLowerObservation(t *testing.T) {
	client, store, cfg := testFixture(t)
	store.Seed("Player_Skills",
		[]string{"Player Guild", "Player Name", "Darth Vader|Culling Blade"},
		[][]string{{"Alpha", "Han", "8"}})
	m := newTestManager(t, client, store, cfg)

	// The fixture observes tier 7 for Han; the stored 8 must win.
	if _, err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	skills := store.Snapshot("Player_Skills")
	row := findRow(t, skills, skills.ColumnIndex("Player Name"), "Han")
	if got := skills.Cell(row, skills.ColumnIndex("Darth Vader|Culling Blade")); got != "8" {
		t.Errorf("stored tier lowered: %q, want 8", got)
	}
}

func TestRunOnce_NewGuildGetsRow(t *testing.T) {
	client, store, cfg := testFixture(t)
	cfg.Sync.GuildIDs = []string{"G1", "G2", "G9"}
	client.guilds["G9"] = guildResp("Gamma", 99, member("P9", "Rey", 555, 2))
	client.players["P9"] = playerResp("Rey", 1000)
	m := newTestManager(t, client, store, cfg)

	if _, err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	guilds := store.Snapshot("Guilds")
	row := findRow(t, guilds, guilds.ColumnIndex("Guild Id"), "G9")
	if row < 0 {
		t.Fatal("new guild did not get a row")
	}
	if got := guilds.Cell(row, guilds.ColumnIndex("Guild Name")); got != "Gamma" {
		t.Errorf("Guild Name = %q", got)
	}
}

func TestAlreadySyncedToday(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		lastUpdate string
		want       bool
	}{
		{"2026-08-29 06:00:00", true},
		{"2026-08-29", true},
		{"2026-08-28 23:59:59", false},
		{"", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := alreadySyncedToday(tt.lastUpdate, now); got != tt.want {
			t.Errorf("alreadySyncedToday(%q) = %v, want %v", tt.lastUpdate, got, tt.want)
		}
	}
}

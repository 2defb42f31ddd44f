package gormrepo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"fableturn/internal/app/ports"
	"fableturn/internal/domain/narrate"
	"fableturn/internal/domain/rng"
)

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("FABLETURN_DB_DSN")
	if dsn == "" {
		t.Skip("FABLETURN_DB_DSN is required for integration test")
	}
	return dsn
}

func TestBoardRepo_RoundTripAndVersionConflict(t *testing.T) {
	dsn := requireDSN(t)
	db, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	boardID := "it-board-roundtrip"
	ctx := context.Background()
	_ = db.Exec("DELETE FROM boards WHERE board_id = ?", boardID).Error

	repo := NewBoardRepo(db)
	seed := ports.BoardRecord{
		BoardID:    boardID,
		CampaignID: "it-camp",
		Mode:       "town",
		Title:      "Greyharbor",
		Vendors:    []narrate.Vendor{{ID: "vendor-1", Name: "Maren"}},
		Tension:    4,
		Presentation: narrate.PresentationState{
			LastTone:         "wary",
			RecentLineHashes: []string{"abc123"},
		},
		WorldTime: 100,
		Heat:      2,
		Version:   1,
	}
	if err := repo.SaveWithVersion(ctx, seed, 0); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := repo.GetByID(ctx, boardID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Greyharbor" || len(got.Vendors) != 1 || got.Vendors[0].ID != "vendor-1" {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if got.Presentation.LastTone != "wary" {
		t.Fatalf("presentation not persisted: %+v", got.Presentation)
	}

	got.Version = 2
	if err := repo.SaveWithVersion(ctx, got, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.SaveWithVersion(ctx, got, 1); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("stale version: want ErrConflict, got %v", err)
	}
}

func TestTurnRepo_CommitUniquePerIndex(t *testing.T) {
	dsn := requireDSN(t)
	db, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	campaignID := "it-camp-turns"
	ctx := context.Background()
	_ = db.Exec("DELETE FROM turns WHERE campaign_id = ?", campaignID).Error

	repo := NewTurnRepo(db)
	if _, err := repo.MaxIndex(ctx, campaignID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("empty campaign: want ErrNotFound, got %v", err)
	}

	rec := ports.TurnRecord{
		TurnID:      "it-turn-1",
		CampaignID:  campaignID,
		PlayerID:    "it-player",
		BoardID:     "it-board",
		TurnIndex:   0,
		Seed:        "00000000deadbeef",
		Request:     []byte(`{"message":"hello"}`),
		Response:    []byte(`{"narration":"..."}`),
		RollLog:     []rng.RollLogEntry{{Label: "recovery.tone", Context: "town", Value: 0.25}},
		CommittedAt: time.Now().UTC(),
	}
	if err := repo.Commit(ctx, rec); err != nil {
		t.Fatalf("commit: %v", err)
	}

	dup := rec
	dup.TurnID = "it-turn-2"
	if err := repo.Commit(ctx, dup); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("same index twice: want ErrConflict, got %v", err)
	}

	max, err := repo.MaxIndex(ctx, campaignID)
	if err != nil || max != 0 {
		t.Fatalf("max index = %d, %v", max, err)
	}

	list, err := repo.ListByCampaign(ctx, campaignID, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if len(list[0].RollLog) != 1 || list[0].RollLog[0].Label != "recovery.tone" {
		t.Fatalf("roll log not persisted: %+v", list[0].RollLog)
	}
}

func TestRewardGrantRepo_DuplicateGuard(t *testing.T) {
	dsn := requireDSN(t)
	db, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	ctx := context.Background()
	_ = db.Exec("DELETE FROM reward_grants WHERE turn_id = ?", "it-turn-grant").Error

	repo := NewRewardGrantRepo(db)
	rec := ports.RewardGrantRecord{
		GuardID:     "it-guard-1",
		TurnID:      "it-turn-grant",
		CharacterID: "it-char",
		RewardKey:   "turn_xp",
		GrantedAt:   time.Now().UTC(),
	}
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	dup := rec
	dup.GuardID = "it-guard-2"
	if err := repo.Insert(ctx, dup); !errors.Is(err, ports.ErrDuplicate) {
		t.Fatalf("duplicate triple: want ErrDuplicate, got %v", err)
	}
	if err := repo.Delete(ctx, "it-guard-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Insert(ctx, dup); err != nil {
		t.Fatalf("re-insert after rollback: %v", err)
	}
}

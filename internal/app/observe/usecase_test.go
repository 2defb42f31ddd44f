package observe

import (
	"context"
	"errors"
	"testing"

	"fableturn/internal/app/ports"
	"fableturn/internal/domain/narrate"
)

type fakeBoardRepo struct {
	board ports.BoardRecord
}

func (r fakeBoardRepo) GetByID(_ context.Context, boardID string) (ports.BoardRecord, error) {
	if r.board.BoardID != boardID {
		return ports.BoardRecord{}, ports.ErrNotFound
	}
	return r.board, nil
}

func (r fakeBoardRepo) SaveWithVersion(context.Context, ports.BoardRecord, int64) error {
	return nil
}

type fakeTurnRepo struct {
	max    int64
	hasAny bool
}

func (r fakeTurnRepo) MaxIndex(context.Context, string) (int64, error) {
	if !r.hasAny {
		return 0, ports.ErrNotFound
	}
	return r.max, nil
}

func (r fakeTurnRepo) Commit(context.Context, ports.TurnRecord) error { return nil }

func (r fakeTurnRepo) ListByCampaign(context.Context, string, int) ([]ports.TurnRecord, error) {
	return nil, ports.ErrNotFound
}

func testBoard() ports.BoardRecord {
	return ports.BoardRecord{
		BoardID:    "board-1",
		CampaignID: "camp-1",
		Mode:       "town",
		Title:      "Greyharbor",
		Vendors:    []narrate.Vendor{{ID: "vendor-1", Name: "Maren"}},
		Tension:    4,
		Presentation: narrate.PresentationState{
			LastTone:         "wary",
			RecentLineHashes: []string{"a", "b"},
		},
		WorldTime: 120,
		Heat:      2,
		Version:   3,
	}
}

func TestExecute_SnapshotsBoard(t *testing.T) {
	uc := UseCase{
		BoardRepo: fakeBoardRepo{board: testBoard()},
		TurnRepo:  fakeTurnRepo{max: 7, hasAny: true},
	}

	resp, err := uc.Execute(context.Background(), Request{CampaignID: "camp-1", BoardID: "board-1"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Board.Title != "Greyharbor" || resp.Board.Mode != "town" {
		t.Fatalf("board view: %+v", resp.Board)
	}
	if len(resp.Board.Vendors) != 1 || resp.Board.Vendors[0].ID != "vendor-1" {
		t.Fatalf("vendors: %+v", resp.Board.Vendors)
	}
	if resp.Presentation.LastTone != "wary" || resp.Presentation.RecentLineCount != 2 {
		t.Fatalf("presentation: %+v", resp.Presentation)
	}
	if resp.LastTurnIndex != 7 {
		t.Fatalf("last turn index = %d", resp.LastTurnIndex)
	}
}

func TestExecute_NoTurnsYet(t *testing.T) {
	uc := UseCase{
		BoardRepo: fakeBoardRepo{board: testBoard()},
		TurnRepo:  fakeTurnRepo{},
	}

	resp, err := uc.Execute(context.Background(), Request{CampaignID: "camp-1", BoardID: "board-1"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.LastTurnIndex != -1 {
		t.Fatalf("last turn index = %d, want -1", resp.LastTurnIndex)
	}
}

func TestExecute_CampaignMismatch(t *testing.T) {
	uc := UseCase{
		BoardRepo: fakeBoardRepo{board: testBoard()},
		TurnRepo:  fakeTurnRepo{},
	}

	_, err := uc.Execute(context.Background(), Request{CampaignID: "camp-other", BoardID: "board-1"})
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestExecute_BlankRequest(t *testing.T) {
	uc := UseCase{BoardRepo: fakeBoardRepo{}, TurnRepo: fakeTurnRepo{}}
	if _, err := uc.Execute(context.Background(), Request{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("want ErrInvalidRequest, got %v", err)
	}
}

package status

import (
	"context"
	"errors"
	"testing"

	"fableturn/internal/app/ports"
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
	max int64
}

func (r fakeTurnRepo) MaxIndex(context.Context, string) (int64, error) { return r.max, nil }
func (r fakeTurnRepo) Commit(context.Context, ports.TurnRecord) error  { return nil }
func (r fakeTurnRepo) ListByCampaign(context.Context, string, int) ([]ports.TurnRecord, error) {
	return nil, ports.ErrNotFound
}

type fakeCharacterRepo struct {
	chars []ports.CharacterRecord
}

func (r fakeCharacterRepo) ListByCampaign(context.Context, string) ([]ports.CharacterRecord, error) {
	return r.chars, nil
}

func (r fakeCharacterRepo) AddExperience(context.Context, string, int64) error { return nil }

func TestExecute_ReportsCampaignStatus(t *testing.T) {
	uc := UseCase{
		BoardRepo: fakeBoardRepo{board: ports.BoardRecord{
			BoardID:    "board-1",
			CampaignID: "camp-1",
			Mode:       "dungeon",
			WorldTime:  450,
			Heat:       6,
		}},
		TurnRepo: fakeTurnRepo{max: 12},
		CharacterRepo: fakeCharacterRepo{chars: []ports.CharacterRecord{
			{CharacterID: "char-1", Name: "Riva", Level: 3, XP: 410, HP: 7, MaxHP: 12},
		}},
	}

	resp, err := uc.Execute(context.Background(), Request{CampaignID: "camp-1", BoardID: "board-1"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Mode != "dungeon" || resp.WorldTime != 450 || resp.Heat != 6 {
		t.Fatalf("status: %+v", resp)
	}
	if resp.LastTurnIndex != 12 {
		t.Fatalf("last turn index = %d", resp.LastTurnIndex)
	}
	if len(resp.Characters) != 1 || resp.Characters[0].Name != "Riva" || resp.Characters[0].XP != 410 {
		t.Fatalf("characters: %+v", resp.Characters)
	}
}

func TestExecute_UnknownBoard(t *testing.T) {
	uc := UseCase{
		BoardRepo:     fakeBoardRepo{},
		TurnRepo:      fakeTurnRepo{},
		CharacterRepo: fakeCharacterRepo{},
	}
	_, err := uc.Execute(context.Background(), Request{CampaignID: "camp-1", BoardID: "board-404"})
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestExecute_BlankRequest(t *testing.T) {
	uc := UseCase{}
	if _, err := uc.Execute(context.Background(), Request{CampaignID: " "}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("want ErrInvalidRequest, got %v", err)
	}
}

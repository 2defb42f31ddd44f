package observe

import (
	"context"
	"errors"
	"strings"

	"fableturn/internal/app/ports"
	"fableturn/internal/domain/narrate"
)

var ErrInvalidRequest = errors.New("invalid observe request")

type Request struct {
	CampaignID string
	BoardID    string
}

type VendorView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BoardView struct {
	BoardID      string       `json:"board_id"`
	Mode         string       `json:"mode"`
	Title        string       `json:"title"`
	Vendors      []VendorView `json:"vendors"`
	Tension      int          `json:"tension"`
	BossActive   bool         `json:"boss_active"`
	PartyHPRatio float64      `json:"party_hp_ratio"`
	WorldTime    int64        `json:"world_time"`
	Heat         int          `json:"heat"`
}

type PresentationView struct {
	LastTone        string              `json:"last_tone,omitempty"`
	RecentLineCount int                 `json:"recent_line_count"`
	LastEventCursor narrate.EventCursor `json:"last_event_cursor"`
}

type Response struct {
	Board         BoardView        `json:"board"`
	Presentation  PresentationView `json:"presentation"`
	LastTurnIndex int64            `json:"last_turn_index"`
}

type UseCase struct {
	BoardRepo ports.BoardRepository
	TurnRepo  ports.TurnRepository
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.CampaignID) == "" || strings.TrimSpace(req.BoardID) == "" {
		return Response{}, ErrInvalidRequest
	}
	board, err := u.BoardRepo.GetByID(ctx, req.BoardID)
	if err != nil {
		return Response{}, err
	}
	if board.CampaignID != req.CampaignID {
		return Response{}, ports.ErrNotFound
	}

	lastIdx, err := u.TurnRepo.MaxIndex(ctx, req.CampaignID)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			return Response{}, err
		}
		lastIdx = -1
	}

	vendors := make([]VendorView, 0, len(board.Vendors))
	for _, v := range board.Vendors {
		vendors = append(vendors, VendorView{ID: v.ID, Name: v.Name})
	}

	return Response{
		Board: BoardView{
			BoardID:      board.BoardID,
			Mode:         board.Mode,
			Title:        board.Title,
			Vendors:      vendors,
			Tension:      board.Tension,
			BossActive:   board.BossActive,
			PartyHPRatio: board.PartyHPRatio,
			WorldTime:    board.WorldTime,
			Heat:         board.Heat,
		},
		Presentation: PresentationView{
			LastTone:        board.Presentation.LastTone,
			RecentLineCount: len(board.Presentation.RecentLineHashes),
			LastEventCursor: board.Presentation.LastEventCursor,
		},
		LastTurnIndex: lastIdx,
	}, nil
}

package status

import (
	"context"
	"errors"
	"strings"

	"fableturn/internal/app/ports"
)

var ErrInvalidRequest = errors.New("invalid status request")

type Request struct {
	CampaignID string
	BoardID    string
}

type CharacterView struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Level       int    `json:"level"`
	XP          int64  `json:"xp"`
	HP          int    `json:"hp"`
	MaxHP       int    `json:"max_hp"`
}

type Response struct {
	Mode          string          `json:"mode"`
	WorldTime     int64           `json:"world_time"`
	Heat          int             `json:"heat"`
	LastTurnIndex int64           `json:"last_turn_index"`
	Characters    []CharacterView `json:"characters"`
}

type UseCase struct {
	BoardRepo     ports.BoardRepository
	TurnRepo      ports.TurnRepository
	CharacterRepo ports.CharacterRepository
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

	chars, err := u.CharacterRepo.ListByCampaign(ctx, req.CampaignID)
	if err != nil {
		return Response{}, err
	}
	views := make([]CharacterView, 0, len(chars))
	for _, c := range chars {
		views = append(views, CharacterView{
			CharacterID: c.CharacterID,
			Name:        c.Name,
			Level:       c.Level,
			XP:          c.XP,
			HP:          c.HP,
			MaxHP:       c.MaxHP,
		})
	}

	return Response{
		Mode:          board.Mode,
		WorldTime:     board.WorldTime,
		Heat:          board.Heat,
		LastTurnIndex: lastIdx,
		Characters:    views,
	}, nil
}

package replay

import (
	"context"
	"errors"
	"strings"
	"time"

	"fableturn/internal/app/ports"
	"fableturn/internal/domain/narrate"
	"fableturn/internal/domain/rng"
)

var ErrInvalidRequest = errors.New("invalid replay request")

const defaultLimit = 50

type Request struct {
	CampaignID string
	Limit      int
	FromIndex  int64
	ToIndex    int64
}

type TurnView struct {
	TurnID      string               `json:"turn_id"`
	TurnIndex   int64                `json:"turn_index"`
	PlayerID    string               `json:"player_id"`
	BoardID     string               `json:"board_id"`
	Seed        string               `json:"seed"`
	RollLog     []rng.RollLogEntry   `json:"roll_log"`
	Patches     []narrate.WorldPatch `json:"patches,omitempty"`
	CommittedAt time.Time            `json:"committed_at"`
}

type Response struct {
	Turns []TurnView `json:"turns"`
}

// UseCase exposes the committed turn ledger for replay and audit: given
// the stored seed and roll log, a reader can re-derive every random
// outcome of a turn.
type UseCase struct {
	Turns ports.TurnRepository
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.CampaignID) == "" {
		return Response{}, ErrInvalidRequest
	}
	limit := req.Limit
	if limit <= 0 || limit > defaultLimit {
		limit = defaultLimit
	}

	records, err := u.Turns.ListByCampaign(ctx, req.CampaignID, limit)
	if err != nil {
		return Response{}, err
	}

	views := make([]TurnView, 0, len(records))
	for _, rec := range records {
		if req.FromIndex > 0 && rec.TurnIndex < req.FromIndex {
			continue
		}
		if req.ToIndex > 0 && rec.TurnIndex > req.ToIndex {
			continue
		}
		views = append(views, TurnView{
			TurnID:      rec.TurnID,
			TurnIndex:   rec.TurnIndex,
			PlayerID:    rec.PlayerID,
			BoardID:     rec.BoardID,
			Seed:        rec.Seed,
			RollLog:     rec.RollLog,
			Patches:     rec.Patches,
			CommittedAt: rec.CommittedAt,
		})
	}
	return Response{Turns: views}, nil
}

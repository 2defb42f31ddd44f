package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"fableturn/internal/adapter/repo/gorm/model"
	"fableturn/internal/app/ports"
	"fableturn/internal/domain/narrate"
	"fableturn/internal/domain/rng"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TurnRepo struct {
	db *gorm.DB
}

func NewTurnRepo(db *gorm.DB) TurnRepo {
	return TurnRepo{db: db}
}

func (r TurnRepo) MaxIndex(ctx context.Context, campaignID string) (int64, error) {
	var max *int64
	err := dbFrom(ctx, r.db).
		Model(&model.Turn{}).
		Where("campaign_id = ?", campaignID).
		Select("MAX(turn_index)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, ports.ErrNotFound
	}
	return *max, nil
}

func (r TurnRepo) Commit(ctx context.Context, rec ports.TurnRecord) error {
	patchesJSON, _ := json.Marshal(rec.Patches)
	rollLogJSON, _ := json.Marshal(rec.RollLog)
	m := model.Turn{
		TurnID:      rec.TurnID,
		CampaignID:  rec.CampaignID,
		PlayerID:    rec.PlayerID,
		BoardID:     rec.BoardID,
		TurnIndex:   rec.TurnIndex,
		Seed:        rec.Seed,
		Request:     rec.Request,
		Response:    rec.Response,
		Patches:     patchesJSON,
		RollLog:     rollLogJSON,
		CommittedAt: rec.CommittedAt,
	}
	// The unique (campaign_id, turn_index) index is the last line of
	// defense against two writers committing the same index.
	if err := dbFrom(ctx, r.db).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}

func (r TurnRepo) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]ports.TurnRecord, error) {
	rows := []model.Turn{}
	query := dbFrom(ctx, r.db).
		Where("campaign_id = ?", campaignID).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "turn_index"}, Desc: true}},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ports.ErrNotFound
	}

	out := make([]ports.TurnRecord, 0, len(rows))
	for _, row := range rows {
		var patches []narrate.WorldPatch
		if len(row.Patches) > 0 {
			_ = json.Unmarshal(row.Patches, &patches)
		}
		var rollLog []rng.RollLogEntry
		if len(row.RollLog) > 0 {
			_ = json.Unmarshal(row.RollLog, &rollLog)
		}
		out = append(out, ports.TurnRecord{
			TurnID:      row.TurnID,
			CampaignID:  row.CampaignID,
			PlayerID:    row.PlayerID,
			BoardID:     row.BoardID,
			TurnIndex:   row.TurnIndex,
			Seed:        row.Seed,
			Request:     row.Request,
			Response:    row.Response,
			Patches:     patches,
			RollLog:     rollLog,
			CommittedAt: row.CommittedAt,
		})
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

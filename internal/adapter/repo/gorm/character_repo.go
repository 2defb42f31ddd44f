package gormrepo

import (
	"context"

	"fableturn/internal/adapter/repo/gorm/model"
	"fableturn/internal/app/ports"

	"gorm.io/gorm"
)

type CharacterRepo struct {
	db *gorm.DB
}

func NewCharacterRepo(db *gorm.DB) CharacterRepo {
	return CharacterRepo{db: db}
}

func (r CharacterRepo) ListByCampaign(ctx context.Context, campaignID string) ([]ports.CharacterRecord, error) {
	rows := []model.Character{}
	err := dbFrom(ctx, r.db).
		Where("campaign_id = ?", campaignID).
		Order("character_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]ports.CharacterRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.CharacterRecord{
			CharacterID: row.CharacterID,
			CampaignID:  row.CampaignID,
			Name:        row.Name,
			Level:       int(row.Level),
			XP:          row.XP,
			HP:          int(row.HP),
			MaxHP:       int(row.MaxHP),
		})
	}
	return out, nil
}

func (r CharacterRepo) AddExperience(ctx context.Context, characterID string, xp int64) error {
	res := dbFrom(ctx, r.db).
		Model(&model.Character{}).
		Where("character_id = ?", characterID).
		Update("xp", gorm.Expr("xp + ?", xp))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

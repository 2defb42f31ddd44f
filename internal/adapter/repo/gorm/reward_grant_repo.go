package gormrepo

import (
	"context"
	"encoding/json"

	"fableturn/internal/adapter/repo/gorm/model"
	"fableturn/internal/app/ports"

	"gorm.io/gorm"
)

type RewardGrantRepo struct {
	db *gorm.DB
}

func NewRewardGrantRepo(db *gorm.DB) RewardGrantRepo {
	return RewardGrantRepo{db: db}
}

func (r RewardGrantRepo) Insert(ctx context.Context, rec ports.RewardGrantRecord) error {
	payloadJSON, _ := json.Marshal(rec.Payload)
	m := model.RewardGrant{
		GuardID:     rec.GuardID,
		TurnID:      rec.TurnID,
		CharacterID: rec.CharacterID,
		RewardKey:   rec.RewardKey,
		Payload:     payloadJSON,
		GrantedAt:   rec.GrantedAt,
	}
	if err := dbFrom(ctx, r.db).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r RewardGrantRepo) Delete(ctx context.Context, guardID string) error {
	res := dbFrom(ctx, r.db).
		Where("guard_id = ?", guardID).
		Delete(&model.RewardGrant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

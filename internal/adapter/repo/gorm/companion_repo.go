package gormrepo

import (
	"context"
	"errors"

	"fableturn/internal/adapter/repo/gorm/model"
	"fableturn/internal/app/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompanionRepo struct {
	db *gorm.DB
}

func NewCompanionRepo(db *gorm.DB) CompanionRepo {
	return CompanionRepo{db: db}
}

func (r CompanionRepo) LatestUnresolved(ctx context.Context, campaignID string) (ports.CompanionRecord, error) {
	var m model.Companion
	err := dbFrom(ctx, r.db).
		Where("campaign_id = ? AND resolved = FALSE", campaignID).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "created_at"}, Desc: true}},
		}).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CompanionRecord{}, ports.ErrNotFound
		}
		return ports.CompanionRecord{}, err
	}
	return ports.CompanionRecord{
		CompanionID: m.CompanionID,
		CampaignID:  m.CampaignID,
		Name:        m.Name,
		Line:        m.Line,
		Resolved:    m.Resolved,
	}, nil
}

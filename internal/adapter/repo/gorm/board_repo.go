package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fableturn/internal/adapter/repo/gorm/model"
	"fableturn/internal/app/ports"
	"fableturn/internal/domain/narrate"

	"gorm.io/gorm"
)

type BoardRepo struct {
	db *gorm.DB
}

func NewBoardRepo(db *gorm.DB) BoardRepo {
	return BoardRepo{db: db}
}

func (r BoardRepo) GetByID(ctx context.Context, boardID string) (ports.BoardRecord, error) {
	var m model.Board
	if err := dbFrom(ctx, r.db).Where("board_id = ?", boardID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.BoardRecord{}, ports.ErrNotFound
		}
		return ports.BoardRecord{}, err
	}

	var vendors []narrate.Vendor
	if len(m.Vendors) > 0 {
		_ = json.Unmarshal(m.Vendors, &vendors)
	}
	var presentation narrate.PresentationState
	if len(m.Presentation) > 0 {
		_ = json.Unmarshal(m.Presentation, &presentation)
	}

	return ports.BoardRecord{
		BoardID:      m.BoardID,
		CampaignID:   m.CampaignID,
		Mode:         m.Mode,
		Title:        m.Title,
		Vendors:      vendors,
		Tension:      int(m.Tension),
		BossActive:   m.BossActive,
		PartyHPRatio: m.PartyHPRatio,
		Presentation: presentation,
		WorldTime:    m.WorldTime,
		Heat:         int(m.Heat),
		Version:      m.Version,
	}, nil
}

func (r BoardRepo) SaveWithVersion(ctx context.Context, rec ports.BoardRecord, expectedVersion int64) error {
	db := dbFrom(ctx, r.db)
	vendorsJSON, _ := json.Marshal(rec.Vendors)
	presentationJSON, _ := json.Marshal(rec.Presentation)

	if expectedVersion == 0 {
		m := model.Board{
			BoardID:      rec.BoardID,
			CampaignID:   rec.CampaignID,
			Mode:         rec.Mode,
			Title:        rec.Title,
			Vendors:      vendorsJSON,
			Tension:      int32(rec.Tension),
			BossActive:   rec.BossActive,
			PartyHPRatio: rec.PartyHPRatio,
			Presentation: presentationJSON,
			WorldTime:    rec.WorldTime,
			Heat:         int32(rec.Heat),
			Version:      rec.Version,
			UpdatedAt:    time.Now().UTC(),
		}
		return db.Create(&m).Error
	}

	updates := map[string]any{
		"mode":           rec.Mode,
		"title":          rec.Title,
		"vendors":        vendorsJSON,
		"tension":        int32(rec.Tension),
		"boss_active":    rec.BossActive,
		"party_hp_ratio": rec.PartyHPRatio,
		"presentation":   presentationJSON,
		"world_time":     rec.WorldTime,
		"heat":           int32(rec.Heat),
		"version":        rec.Version,
		"updated_at":     time.Now().UTC(),
	}

	res := db.Model(&model.Board{}).
		Where("board_id = ? AND version = ?", rec.BoardID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return nil
}

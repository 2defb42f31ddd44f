package turn

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fableturn/internal/app/ports"
	"fableturn/internal/domain/narrate"
	"fableturn/internal/domain/rng"
)

const (
	rewardKeyTurn = "turn_xp"
	lootChance    = 0.25
)

var lootTable = []string{
	"healing draught",
	"whetstone",
	"torch bundle",
	"silver ring",
	"trail rations",
	"lockpick set",
}

func xpForMode(mode narrate.BoardMode) int64 {
	switch mode {
	case narrate.ModeCombat:
		return 120
	case narrate.ModeDungeon:
		return 80
	case narrate.ModeTravel:
		return 40
	default:
		return 25
	}
}

// applyRewards grants per-character turn rewards behind a unique guard
// row so a replayed or raced turn can never double-pay. Reward failures
// are folded into the summary, never into the turn result.
func (u UseCase) applyRewards(ctx context.Context, turnID, campaignID string, seed rng.Seed, mode narrate.BoardMode, now time.Time, log *zap.Logger) RewardSummary {
	if u.CharacterRepo == nil || u.RewardRepo == nil {
		return RewardSummary{Reason: "rewards_disabled"}
	}

	chars, err := u.CharacterRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		log.Warn("reward character lookup failed", zap.Error(err))
		return RewardSummary{Reason: "character_lookup_failed"}
	}
	if len(chars) == 0 {
		return RewardSummary{Reason: "no_characters"}
	}

	var summary RewardSummary
	for _, ch := range chars {
		guardID := uuid.NewString()
		err := u.RewardRepo.Insert(ctx, ports.RewardGrantRecord{
			GuardID:     guardID,
			TurnID:      turnID,
			CharacterID: ch.CharacterID,
			RewardKey:   rewardKeyTurn,
			Payload:     map[string]any{"mode": string(mode)},
			GrantedAt:   now,
		})
		if errors.Is(err, ports.ErrDuplicate) {
			summary.Reason = "duplicate_grant"
			continue
		}
		if err != nil {
			log.Warn("reward guard insert failed", zap.String("character_id", ch.CharacterID), zap.Error(err))
			summary.Reason = "guard_insert_failed"
			continue
		}

		xp := xpForMode(mode)
		if err := u.CharacterRepo.AddExperience(ctx, ch.CharacterID, xp); err != nil {
			// Release the guard so a later retry of this turn can
			// grant cleanly.
			if delErr := u.RewardRepo.Delete(ctx, guardID); delErr != nil {
				log.Warn("reward guard rollback failed", zap.String("guard_id", guardID), zap.Error(delErr))
			}
			log.Warn("reward apply failed", zap.String("character_id", ch.CharacterID), zap.Error(err))
			summary.Reason = "apply_failed"
			continue
		}

		summary.Granted = true
		summary.XP += xp
		if rng.Derived01(seed, "reward.loot_chance", ch.CharacterID) < lootChance {
			idx := int(rng.Derived01(seed, "reward.loot_item", ch.CharacterID) * float64(len(lootTable)))
			if idx >= len(lootTable) {
				idx = len(lootTable) - 1
			}
			summary.Loot = append(summary.Loot, lootTable[idx])
		}
	}
	return summary
}

package turn

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fableturn/internal/app/ports"
	"fableturn/internal/domain/narrate"
	"fableturn/internal/domain/rng"
)

var ErrInvalidRequest = errors.New("invalid turn request")

const schemaVersion = 1

type Config struct {
	SeedSalt          string
	Temperature       float32
	MinNarrationWords int
	MaxNarrationWords int
	// Intro turns get a wider band; they carry scene-setting weight.
	IntroMinWords int
	IntroMaxWords int
}

func (c Config) bandFor(mode narrate.BoardMode) wordBand {
	if mode == narrate.ModeIntro && c.IntroMaxWords > 0 {
		return wordBand{Min: c.IntroMinWords, Max: c.IntroMaxWords}
	}
	return wordBand{Min: c.MinNarrationWords, Max: c.MaxNarrationWords}
}

type UseCase struct {
	TxManager     ports.TxManager
	BoardRepo     ports.BoardRepository
	TurnRepo      ports.TurnRepository
	CharacterRepo ports.CharacterRepository
	CompanionRepo ports.CompanionRepository
	RewardRepo    ports.RewardGrantRepository
	Narrator      ports.Narrator
	Cache         ports.ResponseCache
	Metrics       ports.TurnMetrics
	Logger        *zap.Logger
	Config        Config
	Now           func() time.Time
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.CampaignID = strings.TrimSpace(req.CampaignID)
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	req.BoardID = strings.TrimSpace(req.BoardID)
	req.ClientKey = strings.TrimSpace(req.ClientKey)
	if req.CampaignID == "" || req.PlayerID == "" || req.BoardID == "" {
		return Response{}, ErrInvalidRequest
	}

	log := u.logger().With(
		zap.String("campaign_id", req.CampaignID),
		zap.String("player_id", req.PlayerID),
	)
	nowFn := u.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	cacheKey := req.PlayerID + "::" + req.ClientKey
	if req.ClientKey != "" && u.Cache != nil {
		if body, ok := u.Cache.Get(cacheKey); ok {
			var resp Response
			if err := json.Unmarshal(body, &resp); err == nil {
				resp.Raw = body
				log.Info("replayed idempotent turn response", zap.String("turn_id", resp.Meta.TurnID))
				return resp, nil
			}
		}
	}

	board, err := u.BoardRepo.GetByID(ctx, req.BoardID)
	if err != nil {
		return Response{}, err
	}
	if board.CampaignID != req.CampaignID {
		return Response{}, ports.ErrNotFound
	}

	maxIdx, err := u.TurnRepo.MaxIndex(ctx, req.CampaignID)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			return Response{}, err
		}
		maxIdx = -1
	}
	expectedIndex := maxIdx + 1

	seed := rng.DeriveSeed(req.CampaignID, expectedIndex, req.PlayerID, u.Config.SeedSalt)
	if seed.Weak {
		log.Warn("determinism_weak: turn seed derived without a salt")
	}
	prng := rng.New(seed)

	summary := boardSummary(board)
	mode := requestMode(req, summary)
	band := u.Config.bandFor(mode)
	contract := narrate.ContractConfig{
		MinNarrationWords: band.Min,
		MaxNarrationWords: band.Max,
		Board:             summary,
	}

	outcome := u.generateValidated(ctx, req, summary, contract, band, log)

	var out narrate.Output
	var presentation narrate.PresentationState
	if outcome.Recovered {
		out, presentation = narrate.Synthesize(narrate.RecoveryInput{
			Reason:       outcome.RecoveryReason,
			Mode:         mode,
			Board:        summary,
			Presentation: board.Presentation,
			Companion:    u.latestCompanion(ctx, req.CampaignID),
			Events:       req.Events,
			DeadActors:   req.DeadActors,
			ActionIntent: req.ActionIntent,
			Contract:     contract,
			PRNG:         prng,
			Seed:         seed,
		})
	} else {
		out = outcome.Output
		presentation = mergeGeneratedPresentation(board.Presentation, out, req.Events)
	}
	if len(out.UIActions) > 4 {
		out.UIActions = out.UIActions[:4]
	}

	turnID := uuid.NewString()
	now := nowFn().UTC()
	worldTime := board.WorldTime + turnMinutes(mode)
	heat := nextHeat(board.Heat, mode)

	reqJSON, _ := json.Marshal(map[string]any{
		"message":       req.Message,
		"mode":          req.Mode,
		"action_intent": req.ActionIntent,
		"client_key":    req.ClientKey,
	})
	outJSON, _ := json.Marshal(out)

	err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		cur, err := u.TurnRepo.MaxIndex(txCtx, req.CampaignID)
		if err != nil {
			if !errors.Is(err, ports.ErrNotFound) {
				return err
			}
			cur = -1
		}
		// The generator ran outside any lock; another turn may have
		// landed meanwhile. Stale expectations are conflicts, not
		// retries.
		if cur+1 != expectedIndex {
			return ports.ErrConflict
		}

		if err := u.TurnRepo.Commit(txCtx, ports.TurnRecord{
			TurnID:      turnID,
			CampaignID:  req.CampaignID,
			PlayerID:    req.PlayerID,
			BoardID:     req.BoardID,
			TurnIndex:   expectedIndex,
			Seed:        seed.String(),
			Request:     reqJSON,
			Response:    outJSON,
			Patches:     out.Patches,
			RollLog:     prng.Log(),
			CommittedAt: now,
		}); err != nil {
			return err
		}

		expectedVersion := board.Version
		board.Presentation = presentation
		board.WorldTime = worldTime
		board.Heat = heat
		board.Version = expectedVersion + 1
		return u.BoardRepo.SaveWithVersion(txCtx, board, expectedVersion)
	})
	if err != nil {
		if errors.Is(err, ports.ErrConflict) {
			if u.Metrics != nil {
				u.Metrics.RecordConflict()
			}
			log.Info("turn commit conflict", zap.Int64("expected_index", expectedIndex))
		} else {
			if u.Metrics != nil {
				u.Metrics.RecordFailure()
			}
			log.Error("turn commit failed", zap.Error(err))
		}
		return Response{}, err
	}

	rewards := u.applyRewards(ctx, turnID, req.CampaignID, seed, mode, now, log)

	resp := Response{
		SchemaVersion: schemaVersion,
		Narration:     out.Narration,
		Scene:         out.Scene,
		RuntimeDelta:  out.RuntimeDelta,
		UIActions:     out.UIActions,
		Patches:       out.Patches,
		RollLog:       prng.Log(),
		Meta: Meta{
			TurnID:             turnID,
			TurnIndex:          expectedIndex,
			TurnSeed:           seed.String(),
			WorldTime:          worldTime,
			Heat:               heat,
			ValidationAttempts: outcome.Attempts,
			RecoveryUsed:       outcome.Recovered,
			RecoveryReason:     outcome.RecoveryReason,
			RewardSummary:      rewards,
		},
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return Response{}, err
	}
	resp.Raw = raw

	if req.ClientKey != "" && u.Cache != nil {
		u.Cache.Put(cacheKey, raw)
	}
	if u.Metrics != nil {
		u.Metrics.RecordCommit(outcome.Attempts, outcome.Recovered)
	}
	log.Info("turn committed",
		zap.String("turn_id", turnID),
		zap.Int64("turn_index", expectedIndex),
		zap.Int("attempts", outcome.Attempts),
		zap.Bool("recovered", outcome.Recovered),
	)
	return resp, nil
}

func (u UseCase) logger() *zap.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return zap.NewNop()
}

func (u UseCase) latestCompanion(ctx context.Context, campaignID string) *narrate.CompanionCheckin {
	if u.CompanionRepo == nil {
		return nil
	}
	rec, err := u.CompanionRepo.LatestUnresolved(ctx, campaignID)
	if err != nil {
		return nil
	}
	return &narrate.CompanionCheckin{
		CompanionID: rec.CompanionID,
		Name:        rec.Name,
		Line:        rec.Line,
		Resolved:    rec.Resolved,
	}
}

func boardSummary(board ports.BoardRecord) narrate.BoardSummary {
	return narrate.BoardSummary{
		BoardID:      board.BoardID,
		Mode:         narrate.BoardMode(board.Mode),
		Title:        board.Title,
		Vendors:      board.Vendors,
		Tension:      board.Tension,
		BossActive:   board.BossActive,
		PartyHPRatio: board.PartyHPRatio,
	}
}

// mergeGeneratedPresentation folds a generative output into the rolling
// presentation memory the same way the recovery path does.
func mergeGeneratedPresentation(cur narrate.PresentationState, out narrate.Output, events []narrate.CombatEvent) narrate.PresentationState {
	delta := narrate.PresentationDelta{
		EventCursor: narrate.AdvanceCursor(events, cur.LastEventCursor),
	}
	if tone, ok := out.Scene["tone"].(string); ok {
		delta.Tone = tone
	}
	for _, line := range splitSentences(out.Narration) {
		delta.LineHashes = append(delta.LineHashes, narrate.LineHash(line))
		if vk := narrate.VerbKey(line); vk != "" {
			delta.VerbKeys = append(delta.VerbKeys, vk)
		}
	}
	return narrate.MergePresentation(cur, delta)
}

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func turnMinutes(mode narrate.BoardMode) int64 {
	switch mode {
	case narrate.ModeCombat:
		return 5
	case narrate.ModeDungeon:
		return 15
	case narrate.ModeTravel:
		return 60
	default:
		return 30
	}
}

func nextHeat(heat int, mode narrate.BoardMode) int {
	if mode == narrate.ModeCombat {
		return heat + 2
	}
	if heat > 0 {
		return heat - 1
	}
	return 0
}

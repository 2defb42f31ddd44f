package turn

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"fableturn/internal/app/ports"
	"fableturn/internal/domain/narrate"
)

// fastRecoveryFloor is the attempt number from which a structural or
// word-count failure aborts straight into recovery instead of spending
// the remaining budget on a provider that is clearly off the rails.
const fastRecoveryFloor = 2

type wordBand struct {
	Min int
	Max int
}

type genOutcome struct {
	Output         narrate.Output
	Attempts       int
	Recovered      bool
	RecoveryReason string
}

func maxAttemptsFor(mode narrate.BoardMode, freeform bool) int {
	if mode == narrate.ModeIntro || freeform {
		return 3
	}
	return 2
}

// generateValidated drives the bounded retry state machine around the
// generative provider. It never returns an error: when the budget is
// exhausted or a fast-recovery class fires, the caller falls back to
// deterministic synthesis and the outcome says so.
func (u UseCase) generateValidated(ctx context.Context, req Request, board narrate.BoardSummary, cfg narrate.ContractConfig, band wordBand, log *zap.Logger) genOutcome {
	mode := requestMode(req, board)
	maxAttempts := maxAttemptsFor(mode, req.Freeform)
	msgs := buildMessages(req, board, band)

	var lastReasons []string
	var lastCandidate string

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		switch attempt {
		case 2:
			msgs = append(msgs, correctionMessage(lastReasons))
		case 3:
			msgs = append(msgs, repairMessage(lastReasons, lastCandidate))
		}

		raw, err := u.Narrator.Generate(ctx, ports.NarrationRequest{Messages: msgs, Temperature: u.Config.Temperature})
		if err != nil {
			log.Warn("narrator generation failed", zap.Int("attempt", attempt), zap.Error(err))
			lastReasons = []string{"generator_error"}
			lastCandidate = ""
			continue
		}

		out, reasons := narrate.Validate([]byte(raw), cfg)
		if len(reasons) == 0 {
			return genOutcome{Output: out, Attempts: attempt}
		}

		// Vendor membership is repairable in place: substitute the
		// best-known vendor instead of burning another attempt.
		if narrate.VendorOnlyFailure(reasons) && len(board.Vendors) > 0 {
			out.UIActions = narrate.RepairVendorActions(out.UIActions, board)
			log.Info("soft-repaired shop action vendor", zap.Int("attempt", attempt), zap.Strings("reasons", reasons))
			return genOutcome{Output: out, Attempts: attempt}
		}

		log.Info("narrator candidate rejected", zap.Int("attempt", attempt), zap.Strings("reasons", reasons))
		lastReasons = reasons
		lastCandidate = raw

		if attempt >= fastRecoveryFloor && hasFastRecoveryClass(reasons) {
			return genOutcome{
				Attempts:       attempt,
				Recovered:      true,
				RecoveryReason: "fast_recovery:" + firstReason(reasons),
			}
		}
	}

	return genOutcome{
		Attempts:       maxAttempts,
		Recovered:      true,
		RecoveryReason: "retry_budget_exhausted:" + firstReason(lastReasons),
	}
}

func hasFastRecoveryClass(reasons []string) bool {
	for _, r := range reasons {
		if narrate.IsStructuralReason(r) || narrate.IsWordCountReason(r) {
			return true
		}
	}
	return false
}

func firstReason(reasons []string) string {
	if len(reasons) == 0 {
		return "unknown"
	}
	// Keep the machine-readable check name, drop per-candidate detail.
	reason := reasons[0]
	if i := strings.Index(reason, ":"); i > 0 {
		return reason[:i]
	}
	return reason
}

func requestMode(req Request, board narrate.BoardSummary) narrate.BoardMode {
	switch narrate.BoardMode(strings.TrimSpace(req.Mode)) {
	case narrate.ModeIntro:
		return narrate.ModeIntro
	case narrate.ModeTown:
		return narrate.ModeTown
	case narrate.ModeTravel:
		return narrate.ModeTravel
	case narrate.ModeDungeon:
		return narrate.ModeDungeon
	case narrate.ModeCombat:
		return narrate.ModeCombat
	}
	return board.Mode
}

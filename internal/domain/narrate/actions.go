package narrate

import (
	"strings"
)

const maxSanitizedActions = 6

// SanitizeActions normalizes a suggested-action list from either the
// generative path or the recovery path: canonical intents, repaired
// labels, synthesized prompts, stable hint keys, de-duplication, and a
// low-signal filter that never drops below the two-action floor.
func SanitizeActions(actions []Action, mode BoardMode, board BoardSummary) []Action {
	out := make([]Action, 0, len(actions))
	seen := map[string]bool{}

	for _, a := range actions {
		a.Intent = canonicalIntent(a.Intent, mode, board)
		a.Label = repairLabel(a, board)
		if strings.TrimSpace(a.Prompt) == "" {
			a.Prompt = synthesizePrompt(a)
		}
		if strings.TrimSpace(a.HintKey) == "" {
			a.HintKey = deriveHintKey(a)
		}

		key := dedupeKey(a)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
		if len(out) == maxSanitizedActions {
			break
		}
	}

	filtered := make([]Action, 0, len(out))
	for _, a := range out {
		if isLowSignal(a) {
			continue
		}
		filtered = append(filtered, a)
	}
	// Keeping the 2..4 invariant beats dropping filler.
	if len(filtered) < 2 {
		return out
	}
	return filtered
}

// RepairVendorActions rewrites shop actions whose vendorId is not in
// the current board's vendor set: substitute the best-known vendor when
// one exists, otherwise downgrade to a concrete dm_prompt. The input
// slice is not modified.
func RepairVendorActions(actions []Action, board BoardSummary) []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	for i := range out {
		a := &out[i]
		if a.Intent != IntentShopAction {
			continue
		}
		vendorID := payloadString(a.Payload, "vendorId")
		if board.HasVendor(vendorID) {
			continue
		}
		if len(board.Vendors) > 0 {
			best := board.Vendors[0]
			payload := map[string]any{}
			for k, v := range a.Payload {
				payload[k] = v
			}
			payload["vendorId"] = best.ID
			a.Payload = payload
			a.Label = "Browse " + best.Name + "'s wares"
			a.Prompt = synthesizePrompt(*a)
			a.HintKey = string(IntentShopAction) + ":" + strings.ToLower(best.ID)
			continue
		}
		a.Intent = IntentDMPrompt
		a.Label = "Ask about local traders"
		a.Prompt = "I want to know who around here buys and sells."
		a.HintKey = "dm_prompt:local-traders"
		a.Payload = nil
	}
	return out
}

// VendorOnlyFailure reports whether every validation reason concerns
// shop vendor membership, the one failure class the controller may fix
// in place instead of burning another attempt.
func VendorOnlyFailure(reasons []string) bool {
	if len(reasons) == 0 {
		return false
	}
	for _, r := range reasons {
		if !strings.HasPrefix(r, "ui_actions.shop.vendorId_invalid") {
			return false
		}
	}
	return true
}

func canonicalIntent(in Intent, mode BoardMode, board BoardSummary) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(string(in)))) {
	case IntentQuestAction, "quest", "explore":
		return IntentQuestAction
	case IntentCombatStart, "attack", "fight":
		if mode == ModeCombat {
			// Already fighting; starting another fight is meaningless.
			return IntentDMPrompt
		}
		return IntentCombatStart
	case IntentCombatAction, "combat":
		if mode != ModeCombat {
			return IntentDMPrompt
		}
		return IntentCombatAction
	case IntentShopAction, "shop", "buy", "trade":
		if len(board.Vendors) == 0 {
			return IntentDMPrompt
		}
		return IntentShopAction
	case IntentOpenPanel, "panel", "open":
		return IntentOpenPanel
	case IntentCompanionAction, "companion", "talk":
		return IntentCompanionAction
	case IntentRefresh:
		return IntentRefresh
	default:
		return IntentDMPrompt
	}
}

var genericLabels = map[string]bool{
	"":          true,
	"action":    true,
	"act":       true,
	"continue":  true,
	"do it":     true,
	"option":    true,
	"something": true,
	"...":       true,
}

func repairLabel(a Action, board BoardSummary) string {
	label := strings.TrimSpace(a.Label)
	if !genericLabels[strings.ToLower(label)] {
		return label
	}
	switch a.Intent {
	case IntentShopAction:
		if name := board.VendorName(payloadString(a.Payload, "vendorId")); name != "" {
			return "Browse " + name + "'s wares"
		}
		if len(board.Vendors) > 0 {
			return "Browse " + board.Vendors[0].Name + "'s wares"
		}
		return "Visit the market"
	case IntentOpenPanel:
		if panel := payloadString(a.Payload, "panel"); panel != "" {
			return "Open " + panel
		}
		return "Check your sheet"
	case IntentCombatStart:
		if target := payloadString(a.Payload, "target"); target != "" {
			return "Attack " + target
		}
		return "Ready for a fight"
	case IntentCombatAction:
		if target := payloadString(a.Payload, "target"); target != "" {
			return "Strike at " + target
		}
		return "Press the attack"
	case IntentCompanionAction:
		return "Talk with your companion"
	case IntentQuestAction:
		return "Follow the lead"
	case IntentRefresh:
		return "Take in the scene"
	default:
		return "Ask the dungeon master"
	}
}

func synthesizePrompt(a Action) string {
	label := strings.TrimSpace(a.Label)
	if label == "" {
		return ""
	}
	lowered := strings.ToLower(label[:1]) + label[1:]
	return "I want to " + lowered + "."
}

// deriveHintKey builds the de-duplication identity from payload
// identity fields, falling back to the normalized label.
func deriveHintKey(a Action) string {
	for _, key := range []string{"vendorId", "target", "panel", "companionId", "questId"} {
		if v := payloadString(a.Payload, key); v != "" {
			return string(a.Intent) + ":" + strings.ToLower(v)
		}
	}
	return string(a.Intent) + ":" + normalizeLabel(a.Label)
}

func dedupeKey(a Action) string {
	return strings.Join([]string{
		string(a.Intent),
		strings.ToLower(a.HintKey),
		strings.ToLower(payloadString(a.Payload, "target")),
		normalizeLabel(a.Label),
	}, "|")
}

func normalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

func isLowSignal(a Action) bool {
	if a.Intent != IntentDMPrompt && a.Intent != IntentRefresh {
		return false
	}
	prompt := normalizeLabel(a.Prompt)
	if len(prompt) < 12 {
		return true
	}
	switch prompt {
	case "i want to continue.", "i want to ask the dungeon master.", "i want to take in the scene.":
		return true
	}
	return false
}

package narrate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ContractConfig bounds one validation run. Word limits vary per game
// mode; the vendor set comes from the current board.
type ContractConfig struct {
	MinNarrationWords int
	MaxNarrationWords int
	Board             BoardSummary
}

const (
	ReasonInvalidJSON         = "invalid_json"
	ReasonJSONParseFailed     = "json_parse_failed"
	ReasonSceneInvalid        = "scene_missing_or_invalid"
	ReasonRuntimeDeltaInvalid = "runtime_delta_missing_or_invalid"
)

type rawOutput struct {
	Narration    *string         `json:"narration"`
	Scene        json.RawMessage `json:"scene"`
	RuntimeDelta json.RawMessage `json:"runtime_delta"`
	// board_delta is the deprecated alias for runtime_delta; accepted on
	// input only, and ignored when the canonical field is present.
	BoardDelta json.RawMessage `json:"board_delta"`
	UIActions  []Action        `json:"ui_actions"`
	Patches    []WorldPatch    `json:"patches"`
}

// Validate checks a raw provider candidate against the output contract.
// It returns the typed output and a list of machine-readable failure
// reasons. The output is contract-clean only when reasons is empty, but
// a parseable candidate is still returned alongside its reasons so the
// retry controller can soft-repair vendor-only failures.
// Validation is pure and re-runnable on a repaired payload.
func Validate(raw []byte, cfg ContractConfig) (Output, []string) {
	trimmed := stripCodeFences(raw)

	var parsed rawOutput
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return Output{}, []string{ReasonInvalidJSON}
	}

	var reasons []string

	narration := ""
	if parsed.Narration != nil {
		narration = strings.TrimSpace(*parsed.Narration)
	}
	words := len(strings.Fields(narration))
	if words < cfg.MinNarrationWords || words > cfg.MaxNarrationWords {
		reasons = append(reasons, fmt.Sprintf("narration_word_count_out_of_bounds:%d:expected_%d-%d",
			words, cfg.MinNarrationWords, cfg.MaxNarrationWords))
	}

	scene, ok := decodeObject(parsed.Scene)
	if !ok {
		reasons = append(reasons, ReasonSceneInvalid)
	}

	deltaRaw := parsed.RuntimeDelta
	if len(deltaRaw) == 0 {
		deltaRaw = parsed.BoardDelta
	}
	var delta RuntimeDelta
	if !isJSONObject(deltaRaw) || json.Unmarshal(deltaRaw, &delta) != nil {
		reasons = append(reasons, ReasonRuntimeDeltaInvalid)
	}

	actions := SanitizeActions(parsed.UIActions, cfg.Board.Mode, cfg.Board)
	if len(actions) < 2 || len(actions) > 4 {
		reasons = append(reasons, fmt.Sprintf("ui_actions_count_out_of_bounds:%d:expected_2_4", len(actions)))
	}
	for _, a := range actions {
		if a.Intent != IntentShopAction {
			continue
		}
		vendorID := payloadString(a.Payload, "vendorId")
		if vendorID == "" {
			reasons = append(reasons, "ui_actions.shop.vendorId_invalid:missing")
		} else if !cfg.Board.HasVendor(vendorID) {
			reasons = append(reasons, "ui_actions.shop.vendorId_invalid:"+vendorID)
		}
	}

	return Output{
		Narration:    narration,
		Scene:        scene,
		RuntimeDelta: delta,
		UIActions:    actions,
		Patches:      parsed.Patches,
	}, reasons
}

// IsStructuralReason reports whether a failure reason belongs to the
// class that makes further retries unlikely to help (broken JSON or a
// missing contract section, as opposed to prose length drift).
func IsStructuralReason(reason string) bool {
	switch {
	case reason == ReasonInvalidJSON, reason == ReasonJSONParseFailed:
		return true
	case reason == ReasonSceneInvalid, reason == ReasonRuntimeDeltaInvalid:
		return true
	case strings.HasPrefix(reason, "ui_actions_count_out_of_bounds"):
		return true
	case strings.Contains(reason, "vendorId_invalid"):
		return true
	}
	return false
}

func IsWordCountReason(reason string) bool {
	return strings.HasPrefix(reason, "narration_word_count_out_of_bounds")
}

// stripCodeFences unwraps ```json ... ``` wrappers that chat providers
// like to add around structured output.
func stripCodeFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}

func decodeObject(raw json.RawMessage) (map[string]any, bool) {
	if !isJSONObject(raw) {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

func isJSONObject(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "{")
}

func payloadString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	v, _ := payload[key].(string)
	return strings.TrimSpace(v)
}

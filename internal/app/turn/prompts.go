package turn

import (
	"encoding/json"
	"fmt"
	"strings"

	"fableturn/internal/app/ports"
	"fableturn/internal/domain/narrate"
)

const systemPromptTemplate = `You are the dungeon master for an ongoing campaign. Narrate the next scene for the player and reply with exactly one JSON object, no prose outside it, with this shape:
{"narration": "...", "scene": {...}, "runtime_delta": {...}, "ui_actions": [...]}

Rules:
- narration must be between %d and %d words of in-world, second-person prose.
- ui_actions must hold 2 to 4 suggested next actions, each with "label", "intent" and an optional "payload".
- intents are limited to: quest_action, combat_start, combat_action, shop_action, open_panel, companion_action, dm_prompt, refresh.
- a shop_action payload must reference one of the known vendors by "vendorId".
- never expose internal identifiers or template names in narration.`

func buildMessages(req Request, board narrate.BoardSummary, band wordBand) []ports.NarratorMessage {
	msgs := []ports.NarratorMessage{
		{Role: "system", Content: fmt.Sprintf(systemPromptTemplate, band.Min, band.Max)},
		{Role: "system", Content: boardBrief(board)},
	}
	if len(req.Events) > 0 {
		msgs = append(msgs, ports.NarratorMessage{Role: "system", Content: eventBrief(req.Events)})
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = "Continue the scene."
	}
	msgs = append(msgs, ports.NarratorMessage{Role: "user", Content: message})
	return msgs
}

func boardBrief(board narrate.BoardSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current board: %q, mode %s, tension %d/10.", board.Title, board.Mode, board.Tension)
	if board.BossActive {
		b.WriteString(" A boss-level threat is active.")
	}
	if len(board.Vendors) > 0 {
		b.WriteString(" Known vendors:")
		for _, v := range board.Vendors {
			fmt.Fprintf(&b, " %s (vendorId %s),", v.Name, v.ID)
		}
	}
	return strings.TrimSuffix(b.String(), ",")
}

func eventBrief(events []narrate.CombatEvent) string {
	raw, err := json.Marshal(events)
	if err != nil {
		return "Combat events occurred since the last narration."
	}
	return "Authoritative combat events since the last narration, to be woven into the scene: " + string(raw)
}

// correctionMessage lists the previous attempt's failure reasons so the
// provider can fix its output on the next try.
func correctionMessage(reasons []string) ports.NarratorMessage {
	return ports.NarratorMessage{
		Role: "system",
		Content: "Your previous reply violated the output contract: " + strings.Join(reasons, "; ") +
			". Reply again with one JSON object that satisfies every rule.",
	}
}

// repairMessage is the last-attempt escalation: it replays the broken
// candidate verbatim and asks for a full rewrite.
func repairMessage(reasons []string, candidate string) ports.NarratorMessage {
	return ports.NarratorMessage{
		Role: "system",
		Content: "Repair pass. Your previous reply is below between the markers; it failed validation (" +
			strings.Join(reasons, "; ") + "). Rewrite it completely as one valid JSON object.\n-----\n" +
			candidate + "\n-----",
	}
}

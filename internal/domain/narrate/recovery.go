package narrate

import (
	"strings"

	"fableturn/internal/domain/rng"
)

// RecoveryInput is everything the deterministic fallback path may use.
// No field is required; missing inputs fall back to mode defaults so
// synthesis is total.
type RecoveryInput struct {
	Reason       string
	Mode         BoardMode
	Board        BoardSummary
	Presentation PresentationState
	Companion    *CompanionCheckin
	Events       []CombatEvent
	DeadActors   map[string]bool
	ActionIntent string
	Contract     ContractConfig
	PRNG         *rng.TurnPRNG
	Seed         rng.Seed
}

var tones = []string{"steady", "wry", "hopeful", "grim", "urgent", "ominous"}

// Synthesize builds a contract-valid narrator output without the
// generative provider, from authoritative state and presentation
// history alone. It returns the output and the presentation state with
// this turn's contribution already merged in.
func Synthesize(in RecoveryInput) (Output, PresentationState) {
	events := filterEvents(in.Events, in.Presentation.LastEventCursor, in.DeadActors)
	mode := effectiveMode(in, events)

	tone := pickTone(in, mode)
	openerID, lines := narrationLines(in, mode, tone, events)
	narration := fitWordBand(strings.Join(lines, " "), mode, in)

	actions := fallbackActions(mode, in.Board, in.Companion)
	actions = SanitizeActions(actions, mode, in.Board)
	if len(actions) > 4 {
		actions = actions[:4]
	}

	delta := PresentationDelta{
		Tone:        tone,
		OpenerID:    openerID,
		EventCursor: AdvanceCursor(events, in.Presentation.LastEventCursor),
	}
	for _, line := range lines {
		delta.LineHashes = append(delta.LineHashes, LineHash(line))
		if vk := VerbKey(line); vk != "" {
			delta.VerbKeys = append(delta.VerbKeys, vk)
		}
	}
	merged := MergePresentation(in.Presentation, delta)

	chips := make([]string, 0, len(actions))
	for _, a := range actions {
		chips = append(chips, a.Label)
	}
	reason := in.Reason
	if reason == "" {
		reason = "generation_unavailable"
	}

	out := Output{
		Narration: narration,
		Scene: map[string]any{
			"board_id": in.Board.BoardID,
			"mode":     string(mode),
			"title":    boardTitle(in.Board),
			"tone":     tone,
		},
		RuntimeDelta: RuntimeDelta{
			DiscoveryLog: []DiscoveryEntry{{Kind: "dm_recovery", Detail: reason}},
			ActionChips:  chips,
		},
		UIActions: actions,
	}
	return out, merged
}

func effectiveMode(in RecoveryInput, pending []CombatEvent) BoardMode {
	if len(pending) > 0 {
		return ModeCombat
	}
	switch in.Mode {
	case ModeTown, ModeTravel, ModeDungeon, ModeCombat:
		return in.Mode
	case ModeIntro:
		return ModeTown
	}
	switch in.Board.Mode {
	case ModeTown, ModeTravel, ModeDungeon, ModeCombat:
		return in.Board.Mode
	}
	return ModeTown
}

// filterEvents keeps events strictly after the consumed cursor and
// drops actions attributed to known-dead actors, except the death
// itself.
func filterEvents(events []CombatEvent, cursor EventCursor, dead map[string]bool) []CombatEvent {
	out := make([]CombatEvent, 0, len(events))
	for _, e := range events {
		ec := EventCursor{TurnIndex: e.TurnIndex, EventID: e.ID, CreatedAt: e.CreatedAt}
		if CompareCursor(ec, cursor) <= 0 {
			continue
		}
		if e.Kind != "death" && e.ActorID != "" && dead[e.ActorID] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// pickTone selects a tone from a seeded draw keyed by the turn's
// context, narrowed by danger signals and biased away from the tone
// used last turn.
func pickTone(in RecoveryInput, mode BoardMode) string {
	pool := tones
	switch {
	case in.Board.BossActive || in.Board.Tension >= 7:
		pool = []string{"urgent", "ominous", "grim"}
	case in.Board.PartyHPRatio > 0 && in.Board.PartyHPRatio < 0.35:
		pool = []string{"grim", "urgent", "steady"}
	case mode == ModeTown:
		pool = []string{"steady", "wry", "hopeful", "ominous"}
	}

	seedKey := string(mode) + "|" + in.ActionIntent + "|" + boardTitle(in.Board)
	idx := int(in.draw("recovery.tone", seedKey) * float64(len(pool)))
	if idx >= len(pool) {
		idx = len(pool) - 1
	}
	if pool[idx] == in.Presentation.LastTone {
		idx = (idx + 1) % len(pool)
	}
	return pool[idx]
}

func (in RecoveryInput) draw(label, context string) float64 {
	if in.PRNG != nil {
		return in.PRNG.Next01(label, context)
	}
	return rng.Derived01(in.Seed, label, context)
}

type opener struct {
	id   string
	line string
}

var openersByMode = map[BoardMode][]opener{
	ModeTown: {
		{"town_square", "The square of %s hums with the usual business of the day."},
		{"town_street", "You drift along the main street of %s, taking stock of faces and stalls."},
		{"town_eve", "Lanterns are being lit across %s as the light thins."},
	},
	ModeTravel: {
		{"travel_road", "The road toward %s stretches on under a wide sky."},
		{"travel_pace", "You keep a traveler's pace, %s still some way off."},
		{"travel_wind", "Wind works through the grass as you push on toward %s."},
	},
	ModeDungeon: {
		{"dungeon_still", "The stillness of %s presses close around your light."},
		{"dungeon_stone", "Old stone and older air; %s keeps its secrets a while longer."},
		{"dungeon_step", "Every step deeper into %s sounds louder than it should."},
	},
	ModeCombat: {
		{"combat_press", "The fight presses in around you."},
		{"combat_hold", "You hold your ground as the clash continues."},
	},
}

var toneLines = map[string]string{
	"steady":  "Nothing here demands haste, but nothing rewards carelessness either.",
	"wry":     "Somebody nearby clearly thinks this is all going according to someone's plan.",
	"hopeful": "For once, the day seems inclined to cooperate.",
	"grim":    "Whatever comes next, the margin for error has gotten thin.",
	"urgent":  "There is no time to stand around weighing choices twice.",
	"ominous": "Something at the edge of your attention refuses to resolve.",
}

func narrationLines(in RecoveryInput, mode BoardMode, tone string, events []CombatEvent) (string, []string) {
	var lines []string
	openerID := ""

	if mode == ModeCombat && len(events) > 0 {
		for _, e := range events {
			if line := eventLine(e); line != "" {
				lines = append(lines, line)
			}
		}
	} else {
		pool := openersByMode[mode]
		if len(pool) == 0 {
			pool = openersByMode[ModeTown]
		}
		idx := int(in.draw("recovery.opener", string(mode)) * float64(len(pool)))
		if idx >= len(pool) {
			idx = len(pool) - 1
		}
		if pool[idx].id == in.Presentation.LastBoardOpenerID {
			idx = (idx + 1) % len(pool)
		}
		chosen := pool[idx]
		openerID = chosen.id
		lines = append(lines, renderOpener(chosen.line, boardTitle(in.Board)))
	}

	if line, ok := toneLines[tone]; ok {
		lines = append(lines, line)
	}
	if in.Companion != nil && !in.Companion.Resolved {
		if line := scrubLine(companionLine(*in.Companion)); line != "" {
			lines = append(lines, line)
		}
	}

	scrubbed := make([]string, 0, len(lines))
	for _, line := range lines {
		if s := scrubLine(line); s != "" {
			scrubbed = append(scrubbed, s)
		}
	}
	if len(scrubbed) == 0 {
		scrubbed = []string{"The moment stretches while you take stock of the situation."}
	}
	return openerID, scrubbed
}

func renderOpener(template, title string) string {
	if !strings.Contains(template, "%s") {
		return template
	}
	return strings.Replace(template, "%s", title, 1)
}

func eventLine(e CombatEvent) string {
	if detail := strings.TrimSpace(e.Detail); detail != "" {
		return detail
	}
	actor := friendlyActor(e.ActorID)
	switch e.Kind {
	case "hit":
		return actor + " lands a telling blow."
	case "miss":
		return actor + " swings wide."
	case "death":
		return actor + " goes down and does not rise."
	case "spell":
		return actor + " shapes something bright and dangerous."
	default:
		return "The fight shifts again."
	}
}

func friendlyActor(actorID string) string {
	if actorID == "" {
		return "Someone"
	}
	cleaned := actorID
	for _, prefix := range []string{"npc_", "actor_", "char_"} {
		cleaned = strings.TrimPrefix(cleaned, prefix)
	}
	cleaned = strings.ReplaceAll(cleaned, "_", " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || looksInternal(cleaned) {
		return "Someone"
	}
	return strings.ToUpper(cleaned[:1]) + cleaned[1:]
}

func companionLine(c CompanionCheckin) string {
	line := strings.TrimSpace(c.Line)
	if line == "" {
		return ""
	}
	if name := strings.TrimSpace(c.Name); name != "" {
		return name + " says, \"" + line + "\""
	}
	return line
}

var bannedFragments = []string{"tmpl_", "npc_", "obj_", "board_", "vendor_", "{{", "}}", "[[", "]]", "__"}

// scrubLine strips operator vocabulary (template ids, raw entity ids,
// placeholder braces) from a player-facing line. A line reduced to
// nothing is dropped by the caller.
func scrubLine(line string) string {
	fields := strings.Fields(line)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if looksInternal(f) {
			continue
		}
		kept = append(kept, f)
	}
	out := strings.TrimSpace(strings.Join(kept, " "))
	if len(strings.Fields(out)) < 2 {
		return ""
	}
	return out
}

func looksInternal(token string) bool {
	lower := strings.ToLower(token)
	for _, frag := range bannedFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

func boardTitle(b BoardSummary) string {
	if title := strings.TrimSpace(b.Title); title != "" && !looksInternal(title) {
		return title
	}
	return "the area"
}

var fillerByMode = map[BoardMode][]string{
	ModeTown: {
		"A cart rattles past and somewhere a smith keeps unhurried time with a hammer.",
		"Conversations rise and fall around you, none of them quite worth interrupting.",
		"The smell of bread and woodsmoke argues convincingly for staying a little longer.",
	},
	ModeTravel: {
		"The landscape changes slowly, the way it always does when you watch it too closely.",
		"Your gear creaks with the rhythm of the march and your thoughts wander ahead of you.",
		"A bird of prey turns a patient circle somewhere high above the road.",
	},
	ModeDungeon: {
		"Water finds its way through stone somewhere out of sight, one drop at a time.",
		"Your light catches edges and angles that were never meant to be looked at for long.",
		"The dark ahead neither invites nor forbids; it simply waits.",
	},
	ModeCombat: {
		"Footing, breath, the weight of your weapon; the fundamentals keep you alive.",
		"The noise of it all narrows down to the few sounds that matter.",
		"An opening will come, and it will not announce itself first.",
	},
}

// fitWordBand pads or trims the narration into the configured word
// band. Padding pulls deterministic ambient lines for the mode; the
// starting line is seeded so consecutive recoveries do not read alike.
func fitWordBand(narration string, mode BoardMode, in RecoveryInput) string {
	minWords := in.Contract.MinNarrationWords
	maxWords := in.Contract.MaxNarrationWords
	if maxWords <= 0 {
		return narration
	}

	words := strings.Fields(narration)
	if len(words) < minWords {
		pool := fillerByMode[mode]
		if len(pool) == 0 {
			pool = fillerByMode[ModeTown]
		}
		start := int(in.draw("recovery.filler", string(mode)) * float64(len(pool)))
		if start >= len(pool) {
			start = len(pool) - 1
		}
		for i := 0; len(words) < minWords && i < len(pool)*4; i++ {
			words = append(words, strings.Fields(pool[(start+i)%len(pool)])...)
		}
	}
	if len(words) > maxWords {
		words = words[:maxWords]
		// Avoid ending mid-clause on a dangling connective.
		last := strings.ToLower(strings.Trim(words[len(words)-1], ".,;:"))
		switch last {
		case "and", "but", "the", "a", "an", "of", "to", "with":
			words = words[:len(words)-1]
		}
		words[len(words)-1] = strings.TrimRight(words[len(words)-1], ".,;:") + "."
	}
	return strings.Join(words, " ")
}

func fallbackActions(mode BoardMode, board BoardSummary, companion *CompanionCheckin) []Action {
	switch mode {
	case ModeTown:
		actions := []Action{}
		if len(board.Vendors) > 0 {
			v := board.Vendors[0]
			actions = append(actions, Action{
				Label:   "Look over " + v.Name + "'s stock",
				Intent:  IntentShopAction,
				Payload: map[string]any{"vendorId": v.ID},
			})
		}
		actions = append(actions,
			Action{Label: "Take the road out of town", Intent: IntentQuestAction, Prompt: "I want to move on and see what the road holds."},
			Action{Label: "Follow up on the latest rumor", Intent: IntentQuestAction, Prompt: "I want to chase down the rumor making the rounds."},
		)
		return actions
	case ModeTravel:
		return []Action{
			{Label: "Press on toward " + boardTitle(board), Intent: IntentQuestAction, Prompt: "I want to keep moving and cover more ground."},
			{Label: "Make camp for a while", Intent: IntentQuestAction, Prompt: "I want to stop, rest, and let the party recover."},
			{Label: "Scout ahead quietly", Intent: IntentQuestAction, Prompt: "I want to scout the way ahead before the others follow."},
		}
	case ModeDungeon:
		actions := []Action{
			{Label: "Advance deeper in", Intent: IntentQuestAction, Prompt: "I want to push further into the dark, carefully."},
			{Label: "Search this chamber", Intent: IntentQuestAction, Prompt: "I want to search the chamber before moving on."},
		}
		if companion != nil {
			actions = append(actions, Action{Label: "Check on your companion", Intent: IntentCompanionAction, Prompt: "I want to see how my companion is holding up."})
		}
		return actions
	case ModeCombat:
		return []Action{
			{Label: "Press the attack", Intent: IntentCombatAction, Prompt: "I want to press the attack while I have momentum."},
			{Label: "Guard and give ground", Intent: IntentCombatAction, Prompt: "I want to fight defensively and buy the party room."},
			{Label: "Look for a way to end this", Intent: IntentCombatAction, Prompt: "I want to find the move that finishes this fight."},
		}
	}
	return []Action{
		{Label: "Take stock of the situation", Intent: IntentQuestAction, Prompt: "I want to take stock of where we stand."},
		{Label: "Ask what my options are", Intent: IntentDMPrompt, Prompt: "I want a clearer picture of what I could do next here."},
	}
}

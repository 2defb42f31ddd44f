// Package narrate holds the narrator output contract: the structured
// shape the generative provider must produce, its validator, the action
// sanitizer, cross-turn presentation state, and the deterministic
// recovery synthesizer used when the provider keeps failing.
package narrate

type BoardMode string

const (
	ModeTown    BoardMode = "town"
	ModeTravel  BoardMode = "travel"
	ModeDungeon BoardMode = "dungeon"
	ModeCombat  BoardMode = "combat"
	ModeIntro   BoardMode = "intro"
)

type Intent string

const (
	IntentQuestAction     Intent = "quest_action"
	IntentCombatStart     Intent = "combat_start"
	IntentCombatAction    Intent = "combat_action"
	IntentShopAction      Intent = "shop_action"
	IntentOpenPanel       Intent = "open_panel"
	IntentCompanionAction Intent = "companion_action"
	IntentDMPrompt        Intent = "dm_prompt"
	IntentRefresh         Intent = "refresh"
)

// Action is one suggested next step shown to the player. Two actions
// with the same (intent, hint_key) are the same logical action.
type Action struct {
	ID      string         `json:"id,omitempty"`
	Label   string         `json:"label"`
	Intent  Intent         `json:"intent"`
	HintKey string         `json:"hint_key,omitempty"`
	Prompt  string         `json:"prompt,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

type CompanionCheckin struct {
	CompanionID string `json:"companion_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Line        string `json:"line"`
	Resolved    bool   `json:"resolved,omitempty"`
}

type DiscoveryEntry struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// RuntimeDelta carries the narrator's incremental world updates.
// Every field is optional; absent means "no change".
type RuntimeDelta struct {
	Rumors            []string           `json:"rumors,omitempty"`
	Objectives        []string           `json:"objectives,omitempty"`
	DiscoveryLog      []DiscoveryEntry   `json:"discovery_log,omitempty"`
	DiscoveryFlags    map[string]bool    `json:"discovery_flags,omitempty"`
	SceneCache        map[string]any     `json:"scene_cache,omitempty"`
	CompanionCheckins []CompanionCheckin `json:"companion_checkins,omitempty"`
	ActionChips       []string           `json:"action_chips,omitempty"`
	RewardHints       []string           `json:"reward_hints,omitempty"`
}

type WorldPatch map[string]any

// Output is the validated narrator contract. Instances exist only as
// products of Validate or Synthesize; raw provider JSON never crosses
// this boundary untyped.
type Output struct {
	Narration    string         `json:"narration"`
	Scene        map[string]any `json:"scene"`
	RuntimeDelta RuntimeDelta   `json:"runtime_delta"`
	UIActions    []Action       `json:"ui_actions"`
	Patches      []WorldPatch   `json:"patches,omitempty"`
}

type Vendor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BoardSummary is the authoritative slice of board state the turn
// engine reasons about: mode, title, vendor set, and bounded danger
// signals feeding tone selection.
type BoardSummary struct {
	BoardID      string
	Mode         BoardMode
	Title        string
	Vendors      []Vendor
	Tension      int     // 0..10
	BossActive   bool
	PartyHPRatio float64 // 0..1, 1 = unhurt
}

func (b BoardSummary) HasVendor(id string) bool {
	for _, v := range b.Vendors {
		if v.ID == id {
			return true
		}
	}
	return false
}

func (b BoardSummary) VendorName(id string) string {
	for _, v := range b.Vendors {
		if v.ID == id {
			return v.Name
		}
	}
	return ""
}

// EventCursor marks the last authoritative event consumed by narration.
type EventCursor struct {
	TurnIndex int64  `json:"turn_index"`
	EventID   string `json:"event_id,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// CombatEvent is one entry of the batched authoritative event log
// handed to the turn engine by the caller.
type CombatEvent struct {
	ID        string `json:"id"`
	TurnIndex int64  `json:"turn_index"`
	CreatedAt int64  `json:"created_at"`
	ActorID   string `json:"actor_id,omitempty"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail,omitempty"`
}

// PresentationState is the rolling de-duplication memory carried across
// turns inside the board row. Updates append and truncate, never reset.
type PresentationState struct {
	LastTone          string      `json:"last_tone,omitempty"`
	LastBoardOpenerID string      `json:"last_board_opener_id,omitempty"`
	RecentLineHashes  []string    `json:"recent_line_hashes,omitempty"`
	LastVerbKeys      []string    `json:"last_verb_keys,omitempty"`
	LastTemplateIDs   []string    `json:"last_template_ids,omitempty"`
	LastEventCursor   EventCursor `json:"last_event_cursor"`
}

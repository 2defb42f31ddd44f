package turn

import (
	"fableturn/internal/domain/narrate"
	"fableturn/internal/domain/rng"
)

type Request struct {
	CampaignID   string
	PlayerID     string
	BoardID      string
	ClientKey    string
	Message      string
	Mode         string
	Freeform     bool
	ActionIntent string
	Events       []narrate.CombatEvent
	DeadActors   map[string]bool
}

type RewardSummary struct {
	Granted bool     `json:"granted"`
	XP      int64    `json:"xp,omitempty"`
	Loot    []string `json:"loot,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

type Meta struct {
	TurnID             string        `json:"turn_id"`
	TurnIndex          int64         `json:"turn_index"`
	TurnSeed           string        `json:"turn_seed"`
	WorldTime          int64         `json:"world_time"`
	Heat               int           `json:"heat"`
	ValidationAttempts int           `json:"dm_validation_attempts"`
	RecoveryUsed       bool          `json:"dm_recovery_used"`
	RecoveryReason     string        `json:"dm_recovery_reason,omitempty"`
	RewardSummary      RewardSummary `json:"reward_summary"`
}

type Response struct {
	SchemaVersion int                  `json:"schema_version"`
	Narration     string               `json:"narration"`
	Scene         map[string]any       `json:"scene"`
	RuntimeDelta  narrate.RuntimeDelta `json:"runtime_delta"`
	UIActions     []narrate.Action     `json:"ui_actions"`
	Patches       []narrate.WorldPatch `json:"patches,omitempty"`
	RollLog       []rng.RollLogEntry   `json:"roll_log"`
	Meta          Meta                 `json:"meta"`

	// Raw is the exact serialized body, kept so idempotent replays
	// return byte-identical responses.
	Raw []byte `json:"-"`
}

// Package model holds the gorm row types for the postgres adapters.
package model

import "time"

type Board struct {
	BoardID      string    `gorm:"primaryKey;column:board_id"`
	CampaignID   string    `gorm:"column:campaign_id;index"`
	Mode         string    `gorm:"column:mode"`
	Title        string    `gorm:"column:title"`
	Vendors      []byte    `gorm:"column:vendors;type:jsonb"`
	Tension      int32     `gorm:"column:tension"`
	BossActive   bool      `gorm:"column:boss_active"`
	PartyHPRatio float64   `gorm:"column:party_hp_ratio"`
	Presentation []byte    `gorm:"column:presentation;type:jsonb"`
	WorldTime    int64     `gorm:"column:world_time"`
	Heat         int32     `gorm:"column:heat"`
	Version      int64     `gorm:"column:version"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (Board) TableName() string { return "boards" }

type Turn struct {
	TurnID      string    `gorm:"primaryKey;column:turn_id"`
	CampaignID  string    `gorm:"column:campaign_id;uniqueIndex:ux_turns_campaign_index,priority:1"`
	PlayerID    string    `gorm:"column:player_id"`
	BoardID     string    `gorm:"column:board_id"`
	TurnIndex   int64     `gorm:"column:turn_index;uniqueIndex:ux_turns_campaign_index,priority:2"`
	Seed        string    `gorm:"column:seed"`
	Request     []byte    `gorm:"column:request;type:jsonb"`
	Response    []byte    `gorm:"column:response;type:jsonb"`
	Patches     []byte    `gorm:"column:patches;type:jsonb"`
	RollLog     []byte    `gorm:"column:roll_log;type:jsonb"`
	CommittedAt time.Time `gorm:"column:committed_at"`
}

func (Turn) TableName() string { return "turns" }

type Character struct {
	CharacterID string    `gorm:"primaryKey;column:character_id"`
	CampaignID  string    `gorm:"column:campaign_id;index"`
	Name        string    `gorm:"column:name"`
	Level       int32     `gorm:"column:level"`
	XP          int64     `gorm:"column:xp"`
	HP          int32     `gorm:"column:hp"`
	MaxHP       int32     `gorm:"column:max_hp"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (Character) TableName() string { return "characters" }

type Companion struct {
	CompanionID string    `gorm:"primaryKey;column:companion_id"`
	CampaignID  string    `gorm:"column:campaign_id;index"`
	Name        string    `gorm:"column:name"`
	Line        string    `gorm:"column:line"`
	Resolved    bool      `gorm:"column:resolved"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (Companion) TableName() string { return "companions" }

type RewardGrant struct {
	GuardID     string    `gorm:"primaryKey;column:guard_id"`
	TurnID      string    `gorm:"column:turn_id;uniqueIndex:ux_reward_grants_key,priority:1"`
	CharacterID string    `gorm:"column:character_id;uniqueIndex:ux_reward_grants_key,priority:2"`
	RewardKey   string    `gorm:"column:reward_key;uniqueIndex:ux_reward_grants_key,priority:3"`
	Payload     []byte    `gorm:"column:payload;type:jsonb"`
	GrantedAt   time.Time `gorm:"column:granted_at"`
}

func (RewardGrant) TableName() string { return "reward_grants" }

type PlayerCredential struct {
	PlayerID  string    `gorm:"primaryKey;column:player_id"`
	KeySalt   []byte    `gorm:"column:key_salt"`
	KeyHash   []byte    `gorm:"column:key_hash"`
	Status    string    `gorm:"column:status"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (PlayerCredential) TableName() string { return "player_credentials" }

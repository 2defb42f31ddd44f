package ports

import (
	"context"
	"time"

	"fableturn/internal/domain/narrate"
	"fableturn/internal/domain/rng"
)

type BoardRecord struct {
	BoardID      string
	CampaignID   string
	Mode         string
	Title        string
	Vendors      []narrate.Vendor
	Tension      int
	BossActive   bool
	PartyHPRatio float64
	Presentation narrate.PresentationState
	WorldTime    int64
	Heat         int
	Version      int64
}

type BoardRepository interface {
	GetByID(ctx context.Context, boardID string) (BoardRecord, error)
	SaveWithVersion(ctx context.Context, rec BoardRecord, expectedVersion int64) error
}

type TurnRecord struct {
	TurnID      string
	CampaignID  string
	PlayerID    string
	BoardID     string
	TurnIndex   int64
	Seed        string
	Request     []byte
	Response    []byte
	Patches     []narrate.WorldPatch
	RollLog     []rng.RollLogEntry
	CommittedAt time.Time
}

type TurnRepository interface {
	// MaxIndex returns the highest committed turn index for the campaign,
	// or ErrNotFound when no turn has been committed yet.
	MaxIndex(ctx context.Context, campaignID string) (int64, error)
	// Commit inserts the turn. ErrConflict when rec.TurnIndex is no longer
	// the next free index for the campaign.
	Commit(ctx context.Context, rec TurnRecord) error
	ListByCampaign(ctx context.Context, campaignID string, limit int) ([]TurnRecord, error)
}

type CharacterRecord struct {
	CharacterID string
	CampaignID  string
	Name        string
	Level       int
	XP          int64
	HP          int
	MaxHP       int
}

type CharacterRepository interface {
	ListByCampaign(ctx context.Context, campaignID string) ([]CharacterRecord, error)
	AddExperience(ctx context.Context, characterID string, xp int64) error
}

type CompanionRecord struct {
	CompanionID string
	CampaignID  string
	Name        string
	Line        string
	Resolved    bool
}

type CompanionRepository interface {
	LatestUnresolved(ctx context.Context, campaignID string) (CompanionRecord, error)
}

type RewardGrantRecord struct {
	GuardID     string
	TurnID      string
	CharacterID string
	RewardKey   string
	Payload     map[string]any
	GrantedAt   time.Time
}

type RewardGrantRepository interface {
	// Insert fails with ErrDuplicate when a grant for the same
	// (turn, character, reward key) triple already exists.
	Insert(ctx context.Context, rec RewardGrantRecord) error
	Delete(ctx context.Context, guardID string) error
}

type PlayerCredentialRecord struct {
	PlayerID  string
	KeySalt   []byte
	KeyHash   []byte
	Status    string
	CreatedAt time.Time
}

type PlayerCredentialRepository interface {
	Create(ctx context.Context, credential PlayerCredentialRecord) error
	GetByPlayerID(ctx context.Context, playerID string) (PlayerCredentialRecord, error)
}

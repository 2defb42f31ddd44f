package memory

import (
	"sync"

	"fableturn/internal/app/ports"
)

// Store backs the in-memory adapters used by tests and the dev boot
// path. Every repo method takes mu, so individual calls are safe from
// any goroutine; txMu additionally serializes whole TxManager bodies so
// a read-check-write sequence inside RunInTx stays atomic.
type Store struct {
	mu          sync.RWMutex
	txMu        sync.Mutex
	boards      map[string]ports.BoardRecord
	turns       map[string][]ports.TurnRecord
	characters  map[string]ports.CharacterRecord
	companions  map[string][]ports.CompanionRecord
	grants      map[string]ports.RewardGrantRecord
	credentials map[string]ports.PlayerCredentialRecord
}

func NewStore() *Store {
	return &Store{
		boards:      make(map[string]ports.BoardRecord),
		turns:       make(map[string][]ports.TurnRecord),
		characters:  make(map[string]ports.CharacterRecord),
		companions:  make(map[string][]ports.CompanionRecord),
		grants:      make(map[string]ports.RewardGrantRecord),
		credentials: make(map[string]ports.PlayerCredentialRecord),
	}
}

func grantKey(turnID, characterID, rewardKey string) string {
	return turnID + "::" + characterID + "::" + rewardKey
}

func (s *Store) SeedBoard(rec ports.BoardRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[rec.BoardID] = rec
}

func (s *Store) SeedCharacter(rec ports.CharacterRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[rec.CharacterID] = rec
}

func (s *Store) SeedCompanion(rec ports.CompanionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companions[rec.CampaignID] = append(s.companions[rec.CampaignID], rec)
}

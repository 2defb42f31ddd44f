package rng

// RollLogEntry records one draw. Entries appear in call order and form
// the complete replayable trace of the turn's randomness.
type RollLogEntry struct {
	Label   string  `json:"label"`
	Context string  `json:"context,omitempty"`
	Value   float64 `json:"value"`
}

// TurnPRNG hands out labeled draws keyed by a turn seed. It is not safe
// for concurrent use; each request handler owns its own instance.
type TurnPRNG struct {
	seed Seed
	log  []RollLogEntry
}

func New(seed Seed) *TurnPRNG {
	return &TurnPRNG{seed: seed}
}

// Next01 returns a value in [0,1) determined by the seed, the label and
// context, and how many draws happened before this one. It never fails.
func (p *TurnPRNG) Next01(label, context string) float64 {
	v := draw01(p.seed.Value, label, context, len(p.log))
	p.log = append(p.log, RollLogEntry{Label: label, Context: context, Value: v})
	return v
}

// Log returns a copy of every draw taken so far, in call order.
func (p *TurnPRNG) Log() []RollLogEntry {
	out := make([]RollLogEntry, len(p.log))
	copy(out, p.log)
	return out
}

func (p *TurnPRNG) Seed() Seed {
	return p.seed
}

package inmemory

import "sync"

type Snapshot struct {
	TurnTotal     uint64            `json:"turn_total"`
	TurnCommitted uint64            `json:"turn_committed"`
	TurnConflict  uint64            `json:"turn_conflict"`
	TurnFailure   uint64            `json:"turn_failure"`
	RecoveryUsed  uint64            `json:"recovery_used"`
	ByAttempts    map[string]uint64 `json:"by_attempts"`
}

// Recorder tracks turn engine KPIs: committed turns by attempt count,
// recovery rate, conflicts and failures.
type Recorder struct {
	mu         sync.Mutex
	committed  uint64
	conflict   uint64
	failure    uint64
	recovered  uint64
	byAttempts map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byAttempts: map[string]uint64{},
	}
}

func (r *Recorder) RecordCommit(attempts int, recovered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed++
	if recovered {
		r.recovered++
	}
	r.byAttempts[attemptBucket(attempts)]++
}

func (r *Recorder) RecordConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflict++
}

func (r *Recorder) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		TurnCommitted: r.committed,
		TurnConflict:  r.conflict,
		TurnFailure:   r.failure,
		RecoveryUsed:  r.recovered,
		TurnTotal:     r.committed + r.conflict + r.failure,
		ByAttempts:    make(map[string]uint64, len(r.byAttempts)),
	}
	for k, v := range r.byAttempts {
		out.ByAttempts[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}

func attemptBucket(attempts int) string {
	switch attempts {
	case 1:
		return "1"
	case 2:
		return "2"
	default:
		return "3+"
	}
}

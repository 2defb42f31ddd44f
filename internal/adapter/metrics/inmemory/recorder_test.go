package inmemory

import "testing"

func TestRecorder_SnapshotCounts(t *testing.T) {
	r := NewRecorder()
	r.RecordCommit(1, false)
	r.RecordCommit(2, false)
	r.RecordCommit(2, true)
	r.RecordCommit(3, true)
	r.RecordConflict()
	r.RecordFailure()

	snap := r.Snapshot()
	if snap.TurnCommitted != 4 {
		t.Fatalf("committed = %d", snap.TurnCommitted)
	}
	if snap.TurnConflict != 1 || snap.TurnFailure != 1 {
		t.Fatalf("conflict/failure = %d/%d", snap.TurnConflict, snap.TurnFailure)
	}
	if snap.TurnTotal != 6 {
		t.Fatalf("total = %d", snap.TurnTotal)
	}
	if snap.RecoveryUsed != 2 {
		t.Fatalf("recovery = %d", snap.RecoveryUsed)
	}
	if snap.ByAttempts["1"] != 1 || snap.ByAttempts["2"] != 2 || snap.ByAttempts["3+"] != 1 {
		t.Fatalf("by attempts = %v", snap.ByAttempts)
	}
}

func TestRecorder_SnapshotIsACopy(t *testing.T) {
	r := NewRecorder()
	r.RecordCommit(1, false)
	snap := r.Snapshot()
	snap.ByAttempts["1"] = 99
	if r.Snapshot().ByAttempts["1"] != 1 {
		t.Fatalf("snapshot shares internal map")
	}
}

package ports

type TurnMetrics interface {
	RecordCommit(attempts int, recovered bool)
	RecordConflict()
	RecordFailure()
}

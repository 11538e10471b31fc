package ports

type ConflictMetrics interface {
	RecordDetected()
	RecordAutoResolved(outcomeKey string)
	RecordPending()
	RecordManualResolved(outcomeKey string)
	RecordFailure(reason string)
}

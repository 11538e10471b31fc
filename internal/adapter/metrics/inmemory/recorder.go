package inmemory

import "sync"

type Snapshot struct {
	ConflictsDetected uint64            `json:"conflicts_detected"`
	AutoResolved      uint64            `json:"auto_resolved"`
	PendingManual     uint64            `json:"pending_manual"`
	ManualResolved    uint64            `json:"manual_resolved"`
	Failures          uint64            `json:"failures"`
	ByOutcomeKey      map[string]uint64 `json:"by_outcome_key"`
	ByFailureReason   map[string]uint64 `json:"by_failure_reason"`
}

type Recorder struct {
	mu             sync.Mutex
	detected       uint64
	autoResolved   uint64
	pending        uint64
	manualResolved uint64
	failures       uint64
	byOutcome      map[string]uint64
	byFailure      map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byOutcome: map[string]uint64{},
		byFailure: map[string]uint64{},
	}
}

func (r *Recorder) RecordDetected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detected++
}

func (r *Recorder) RecordAutoResolved(outcomeKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoResolved++
	r.byOutcome[outcomeKey]++
}

func (r *Recorder) RecordPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending++
}

func (r *Recorder) RecordManualResolved(outcomeKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manualResolved++
	r.byOutcome[outcomeKey]++
}

func (r *Recorder) RecordFailure(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
	r.byFailure[reason]++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		ConflictsDetected: r.detected,
		AutoResolved:      r.autoResolved,
		PendingManual:     r.pending,
		ManualResolved:    r.manualResolved,
		Failures:          r.failures,
		ByOutcomeKey:      make(map[string]uint64, len(r.byOutcome)),
		ByFailureReason:   make(map[string]uint64, len(r.byFailure)),
	}
	for k, v := range r.byOutcome {
		out.ByOutcomeKey[k] = v
	}
	for k, v := range r.byFailure {
		out.ByFailureReason[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}

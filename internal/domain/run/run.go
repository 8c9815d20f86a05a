package run

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies which routine a Run belongs to.
type Kind string

const (
	KindEnquiry           Kind = "ENQUIRY"
	KindDailyReminder     Kind = "DAILY_REMINDER"
	KindQuarterlyReminder Kind = "QUARTERLY_REMINDER"
)

// Status of a recorded run.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Run records one execution of a routine.
// Corresponds to the 'routine_runs' table.
type Run struct {
	ID            uuid.UUID
	Kind          Kind
	ReferenceDate time.Time
	Status        Status
	Processed     int      // staff enquired or reminder rows selected
	Sent          int      // messages delivered
	Failures      []string // staff numbers or recipients that failed
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

func New(kind Kind, referenceDate time.Time) *Run {
	return &Run{
		ID:            uuid.New(),
		Kind:          kind,
		ReferenceDate: referenceDate,
		Status:        StatusRunning,
		StartedAt:     time.Now(),
	}
}

// Finish closes the run, marking it failed when err is not nil.
func (r *Run) Finish(err error) {
	r.FinishedAt = time.Now()
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = StatusCompleted
}

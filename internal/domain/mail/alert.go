package mail

// AlertKind is the outcome of an enquiry batch, reported to the administrator.
type AlertKind string

const (
	AlertSuccess        AlertKind = "success"
	AlertPartialSuccess AlertKind = "partial_success"
	AlertFailure        AlertKind = "failure"
)

// AlertKindFor classifies a batch of total enquiries of which failed did not complete.
func AlertKindFor(failed, total int) AlertKind {
	switch {
	case failed == 0:
		return AlertSuccess
	case failed < total:
		return AlertPartialSuccess
	default:
		return AlertFailure
	}
}

package qualification

// Mode selects how reminder rows are chosen.
type Mode string

const (
	ModeDaily     Mode = "daily"
	ModeQuarterly Mode = "quarterly"
)

// Refresher tells whether refresher training is due alongside the renewal.
type Refresher string

const (
	RefresherRequired      Refresher = "Y"
	RefresherNotRequired   Refresher = "N"
	RefresherNotApplicable Refresher = "-"
)

// ReminderRow is a Row selected for notification.
type ReminderRow struct {
	Row
	ExpiryDate    Date // effective expiry
	DaysRemaining int  // daily mode only
	Refresher     Refresher
	PracticeDone  string // display value, filled in before formatting
}

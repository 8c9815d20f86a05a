package qualification

// NoteImplied marks a row whose qualification is satisfied by a broader one held by the same staff member.
const NoteImplied = "Implied"

// Row is one staff member's status for one qualification code.
// Corresponds to one line of the consolidated qualification report.
type Row struct {
	StaffID     string
	StaffName   string
	Code        string
	Title       string
	FirstObtain Date
	LastRefresh Date
	Expiry      Date
	DueDate     Date   // due for refresh/examination, used when no expiry is recorded
	Practice    string // practice count or last attachment date, depending on the qualification
	Status      string
	Note        string
	OrgUnit     string
	OrgUnitDesc string
}

// EffectiveExpiry is the expiry date, or the due date when no expiry is recorded.
func (r Row) EffectiveExpiry() Date {
	if !r.Expiry.IsZero() {
		return r.Expiry
	}
	return r.DueDate
}

func (r Row) IsImplied() bool {
	return r.Note == NoteImplied
}

// StaffRecord is the result of one successful portal enquiry for a staff member.
type StaffRecord struct {
	StaffID     string
	Name        string
	OrgUnit     string
	OrgUnitDesc string
	Rows        []Row
}

// Table is an untyped CSV snapshot, used for reports whose columns are owned by the portal.
type Table struct {
	Header  []string
	Records [][]string
}

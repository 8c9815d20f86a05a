package portal

import (
	"context"

	"qualification_reminder/internal/domain/qualification"
)

// Client queries the qualification portal.
type Client interface {
	// FetchQualifications returns the current qualification table of one staff member.
	FetchQualifications(ctx context.Context, staffID string) (*qualification.StaffRecord, error)
	// FetchPracticeCount returns the number of practice records for code logged since the given day.
	FetchPracticeCount(ctx context.Context, staffID, code string, since qualification.Date) (string, error)
}

package staff

import (
	"context"
	"fmt"
)

var ErrStaffNotFound = fmt.Errorf("staff member not found")

// Repository loads the current staff roster.
type Repository interface {
	Load(ctx context.Context) (*Roster, error)
}

package run

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

var ErrRunNotFound = fmt.Errorf("routine run not found")

// Repository stores the history of routine runs.
type Repository interface {
	Create(ctx context.Context, r *Run) error
	Update(ctx context.Context, r *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRecent(ctx context.Context, kind Kind, limit int) ([]*Run, error)
}

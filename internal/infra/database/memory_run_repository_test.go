package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"qualification_reminder/internal/domain/run"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRunRepository_Lifecycle(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()

	rn := run.New(run.KindDailyReminder, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, rn))

	rn.Sent = 3
	rn.Failures = []string{"a@example.com"}
	rn.Finish(nil)
	require.NoError(t, repo.Update(ctx, rn))

	got, err := repo.GetByID(ctx, rn.ID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, got.Status)
	assert.Equal(t, 3, got.Sent)
	assert.Equal(t, []string{"a@example.com"}, got.Failures)

	got.Failures[0] = "changed"
	again, err := repo.GetByID(ctx, rn.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", again.Failures[0])
}

func TestMemoryRunRepository_NotFound(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, run.ErrRunNotFound))

	err = repo.Update(ctx, run.New(run.KindEnquiry, time.Now()))
	assert.True(t, errors.Is(err, run.ErrRunNotFound))
}

func TestMemoryRunRepository_ListRecent(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	for i, kind := range []run.Kind{run.KindEnquiry, run.KindDailyReminder, run.KindDailyReminder, run.KindQuarterlyReminder} {
		rn := run.New(kind, base)
		rn.StartedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(ctx, rn))
	}

	daily, err := repo.ListRecent(ctx, run.KindDailyReminder, 10)
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.True(t, daily[0].StartedAt.After(daily[1].StartedAt))

	all, err := repo.ListRecent(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, run.KindQuarterlyReminder, all[0].Kind)
}

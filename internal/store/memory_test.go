package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/errors"
	"github.com/jachren-f4/together-reminder-sub003/internal/store"
)

func seed(t *testing.T, m *store.Memory) *domain.Session {
	t.Helper()

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s := domain.New(domain.KindQuiz, "ana", "ben", now)
	require.NoError(t, m.Create(context.Background(), s))
	return s
}

func TestMemory_GetNotFound(t *testing.T) {
	m := store.NewMemory()

	_, err := m.Get(context.Background(), "quiz_ana_0")
	require.Equal(t, errors.CodeNotFound, errors.Convert(err).Code)
}

func TestMemory_CreateDuplicate(t *testing.T) {
	m := store.NewMemory()
	s := seed(t, m)

	err := m.Create(context.Background(), s)
	require.Equal(t, errors.CodeAlreadyExists, errors.Convert(err).Code)
}

func TestMemory_MutateAbortsOnError(t *testing.T) {
	m := store.NewMemory()
	s := seed(t, m)
	ctx := context.Background()

	boom := errors.New(errors.CodeInvalidArgument, errors.WithMessagef("nope"))
	_, err := m.Mutate(ctx, s.ID, func(cur *domain.Session) error {
		cur.Quiz.Answers["ana"] = []int{0}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The aborted write left nothing behind.
	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Empty(t, got.Quiz.Answers)
}

func TestMemory_FinalizeOnce(t *testing.T) {
	m := store.NewMemory()
	s := seed(t, m)
	ctx := context.Background()

	got, won, err := m.Finalize(ctx, s.ID, 41)
	require.NoError(t, err)
	require.True(t, won)
	require.True(t, got.Completed)
	require.Equal(t, int64(41), *got.LPEarned)

	// The losing call observes the original stamp, unchanged.
	got, won, err = m.Finalize(ctx, s.ID, 99)
	require.NoError(t, err)
	require.False(t, won)
	require.Equal(t, int64(41), *got.LPEarned)
}

func TestMemory_HandsOutCopies(t *testing.T) {
	m := store.NewMemory()
	s := seed(t, m)
	ctx := context.Background()

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	got.Quiz.Answers["ana"] = []int{9}

	again, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Empty(t, again.Quiz.Answers, "callers must not reach the stored record")
}

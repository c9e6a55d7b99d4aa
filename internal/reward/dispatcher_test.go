package reward_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/event"
	"github.com/jachren-f4/together-reminder-sub003/internal/reward"
)

func makeLedger(t *testing.T) *reward.Ledger {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	return reward.NewLedger(reward.LedgerConfig{
		Redis:  rc,
		Prefix: "test",
	})
}

func TestLedger_AwardPoints(t *testing.T) {
	l := makeLedger(t)
	ctx := context.Background()

	require.NoError(t, l.AwardPoints(ctx, "ana", 41, "quiz_completed", "quiz_ana_1"))

	n, err := l.Balance(ctx, "ana")
	require.NoError(t, err)
	require.Equal(t, int64(41), n)
}

func TestLedger_DuplicateRelatedIDCreditsOnce(t *testing.T) {
	l := makeLedger(t)
	ctx := context.Background()

	require.NoError(t, l.AwardPoints(ctx, "ana", 41, "quiz_completed", "quiz_ana_1"))
	require.NoError(t, l.AwardPoints(ctx, "ana", 41, "quiz_completed", "quiz_ana_1"))
	require.NoError(t, l.AwardPoints(ctx, "ana", 99, "quiz_completed", "quiz_ana_1"),
		"a replay with a different amount is still a replay")

	n, err := l.Balance(ctx, "ana")
	require.NoError(t, err)
	require.Equal(t, int64(41), n)
}

func TestLedger_DistinctSessionsAccumulate(t *testing.T) {
	l := makeLedger(t)
	ctx := context.Background()

	require.NoError(t, l.AwardPoints(ctx, "ana", 41, "quiz_completed", "quiz_ana_1"))
	require.NoError(t, l.AwardPoints(ctx, "ana", 25, "memoryflip_completed", "memoryflip_ana_2"))

	n, err := l.Balance(ctx, "ana")
	require.NoError(t, err)
	require.Equal(t, int64(66), n)
}

func TestLedger_AwardBothUsers(t *testing.T) {
	l := makeLedger(t)
	ctx := context.Background()

	require.NoError(t, l.AwardPointsToBothUsers(ctx, "ana", "ben", 30, "quiz_completed", "quiz_ana_1"))
	require.NoError(t, l.AwardPointsToBothUsers(ctx, "ana", "ben", 30, "quiz_completed", "quiz_ana_1"))

	for _, user := range []string{"ana", "ben"} {
		n, err := l.Balance(ctx, user)
		require.NoError(t, err)
		require.Equal(t, int64(30), n, "user %s", user)
	}
}

func TestLedger_ZeroBalanceForUnknownUser(t *testing.T) {
	l := makeLedger(t)

	n, err := l.Balance(context.Background(), "nobody")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestService_CreditsBothParticipantsOnCompletion(t *testing.T) {
	l := makeLedger(t)
	eb := event.NewBus()
	s := reward.NewService(reward.Config{
		EventBus:   eb,
		Dispatcher: l,
	})

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	ss := domain.New(domain.KindQuiz, "ana", "ben", now)
	lp := int64(41)
	ss.Completed = true
	ss.LPEarned = &lp

	require.NoError(t, s.HandleSessionCompleted(context.Background(), domain.EventSessionCompleted{Session: *ss}))
	// Replayed delivery of the same completion.
	require.NoError(t, s.HandleSessionCompleted(context.Background(), domain.EventSessionCompleted{Session: *ss}))

	eb.Stop()

	for _, user := range []string{"ana", "ben"} {
		n, err := l.Balance(context.Background(), user)
		require.NoError(t, err)
		require.Equal(t, int64(41), n, "user %s", user)
	}
}

func TestService_NoRewardMeansNoCredit(t *testing.T) {
	l := makeLedger(t)
	eb := event.NewBus()
	s := reward.NewService(reward.Config{
		EventBus:   eb,
		Dispatcher: l,
	})

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	ss := domain.New(domain.KindQuiz, "ana", "ben", now)
	ss.Completed = true

	require.NoError(t, s.HandleSessionCompleted(context.Background(), domain.EventSessionCompleted{Session: *ss}))
	eb.Stop()

	n, err := l.Balance(context.Background(), "ana")
	require.NoError(t, err)
	require.Zero(t, n)
}

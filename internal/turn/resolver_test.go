package turn_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/errors"
	"github.com/jachren-f4/together-reminder-sub003/internal/turn"
)

func boardSession(t *testing.T, now time.Time) *domain.Session {
	t.Helper()
	return domain.New(domain.KindMemoryFlip, "ana", "ben", now)
}

func TestResolve_TurnExclusivity(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s := boardSession(t, now)

	ana, err := turn.Resolve(s, "ana", now)
	require.NoError(t, err)
	ben, err := turn.Resolve(s, "ben", now)
	require.NoError(t, err)

	require.True(t, ana.MyTurn)
	require.False(t, ben.MyTurn)

	s.Board.CurrentTurn = "ben"

	ana, err = turn.Resolve(s, "ana", now)
	require.NoError(t, err)
	ben, err = turn.Resolve(s, "ben", now)
	require.NoError(t, err)

	require.False(t, ana.MyTurn)
	require.True(t, ben.MyTurn)
}

func TestResolve_Replenish(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s := boardSession(t, now)
	s.Board.ActionsRemaining = 0
	s.Board.TurnResetAt = now.Add(90 * time.Minute)

	st, err := turn.Resolve(s, "ana", now)
	require.NoError(t, err)
	require.Equal(t, 0, st.ActionsRemaining)
	require.Equal(t, 90*time.Minute, st.ReplenishIn)

	// Past the cooldown boundary the full budget is reported even though the
	// record still holds zero.
	st, err = turn.Resolve(s, "ana", now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, domain.TurnActionBudget, st.ActionsRemaining)
	require.Zero(t, st.ReplenishIn)
}

func TestCheckMove(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		arrange func(s *domain.Session)
		me      string
		wantErr error
	}{
		"turn holder with budget may move": {
			arrange: func(*domain.Session) {},
			me:      "ana",
			wantErr: nil,
		},

		"partner is rejected with the not-your-turn signal": {
			arrange: func(*domain.Session) {},
			me:      "ben",
			wantErr: turn.ErrNotYourTurn,
		},

		"spent budget is rejected with the out-of-actions signal": {
			arrange: func(s *domain.Session) {
				s.Board.ActionsRemaining = 1
			},
			me:      "ana",
			wantErr: turn.ErrOutOfActions,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := boardSession(t, now)
			tt.arrange(s)

			err := turn.CheckMove(s, tt.me, now, domain.FlipsPerAttempt)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckMove_ErrorCodes(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s := boardSession(t, now)

	err := turn.CheckMove(s, "ben", now, domain.FlipsPerAttempt)
	require.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)

	s.Board.ActionsRemaining = 0
	err = turn.CheckMove(s, "ana", now, domain.FlipsPerAttempt)
	require.Equal(t, errors.CodeResourceExhausted, errors.Convert(err).Code)
}

func TestResolve_Validation(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	quiz := domain.New(domain.KindQuiz, "ana", "ben", now)
	_, err := turn.Resolve(quiz, "ana", now)
	require.Error(t, err, "answer-pair kinds have no turns")

	s := boardSession(t, now)
	_, err = turn.Resolve(s, "carl", now)
	require.Error(t, err, "outsiders have no turn status")
}

func TestFormatReplenish(t *testing.T) {
	tests := map[string]struct {
		d    time.Duration
		want string
	}{
		"elapsed":          {0, "now"},
		"under a minute":   {20 * time.Second, "1m"},
		"rounded minutes":  {12*time.Minute + 40*time.Second, "13m"},
		"rounded hours":    {2*time.Hour + 40*time.Minute, "3h"},
		"exactly one hour": {time.Hour, "1h"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tt.want, turn.FormatReplenish(tt.d))
		})
	}
}

package evaluator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/evaluator"
)

func TestScore(t *testing.T) {
	type (
		inputs struct {
			subject   []int
			predictor []int
		}

		outputs struct {
			correct int
			pct     int64
			bonus   int64
			total   int64
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		want    outputs
	}{
		"streak broken by a sentinel pays one bonus": {
			// 4 of 5 correct, run of 3 then a break, base 20+round(80*20/100)=36.
			arrange: func() inputs {
				return inputs{
					subject:   []int{0, 1, 2, 1, 0},
					predictor: []int{0, 1, 2, domain.NoAnswer, 0},
				}
			},
			want: outputs{correct: 4, pct: 80, bonus: 5, total: 41},
		},

		"two separated runs of three pay two bonuses": {
			arrange: func() inputs {
				return inputs{
					subject:   []int{1, 1, 1, 0, 1, 1, 1, 0},
					predictor: []int{1, 1, 1, 1, 1, 1, 1, 1},
				}
			},
			want: outputs{correct: 6, pct: 75, bonus: 10, total: 45},
		},

		"an unbroken run of six pays exactly two bonuses": {
			arrange: func() inputs {
				return inputs{
					subject:   []int{2, 2, 2, 2, 2, 2},
					predictor: []int{2, 2, 2, 2, 2, 2},
				}
			},
			want: outputs{correct: 6, pct: 100, bonus: 10, total: 50},
		},

		"a run of two pays nothing": {
			arrange: func() inputs {
				return inputs{
					subject:   []int{0, 1, 2},
					predictor: []int{0, 1, 0},
				}
			},
			want: outputs{correct: 2, pct: 67, bonus: 0, total: 33},
		},

		"matching sentinels never count": {
			arrange: func() inputs {
				return inputs{
					subject:   []int{domain.NoAnswer, domain.NoAnswer},
					predictor: []int{domain.NoAnswer, domain.NoAnswer},
				}
			},
			want: outputs{correct: 0, pct: 0, bonus: 0, total: 20},
		},

		"full mismatch still pays the floor": {
			arrange: func() inputs {
				return inputs{
					subject:   []int{0, 0, 0},
					predictor: []int{1, 1, 1},
				}
			},
			want: outputs{correct: 0, pct: 0, bonus: 0, total: 20},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()

			r, err := evaluator.Score(in.subject, in.predictor)
			require.NoError(t, err)

			require.Equal(t, tt.want.correct, r.CorrectCount)
			require.Equal(t, tt.want.pct, r.MatchPercentage)
			require.Equal(t, tt.want.bonus, r.StreakBonusLP)
			require.Equal(t, tt.want.total, r.TotalLP)
			require.Equal(t, r.BaseLP+r.StreakBonusLP, r.TotalLP)
		})
	}
}

func TestScore_MismatchedLengths(t *testing.T) {
	_, err := evaluator.Score([]int{0, 1}, []int{0})
	require.Error(t, err)

	_, err = evaluator.Score(nil, nil)
	require.Error(t, err, "empty answer sets should be rejected")
}

func TestEvaluate_PartialIsQuiescent(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s := domain.New(domain.KindQuiz, "ana", "ben", now)
	s.Quiz.Answers["ana"] = []int{0, 1, 2}

	r, ok, err := evaluator.Evaluate(s)
	require.NoError(t, err, "one missing answer set is not an error")
	require.False(t, ok)
	require.Nil(t, r)
}

func TestEvaluate_BothAnswered(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s := domain.New(domain.KindQuiz, "ana", "ben", now)
	s.Quiz.Questions = 3
	s.Quiz.Answers["ana"] = []int{0, 1, 2}
	s.Quiz.Answers["ben"] = []int{0, 1, 2}

	r, ok, err := evaluator.Evaluate(s)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(100), r.MatchPercentage)
	require.Equal(t, int64(45), r.TotalLP)
}

func TestEvaluate_WrongKind(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s := domain.New(domain.KindMemoryFlip, "ana", "ben", now)

	_, _, err := evaluator.Evaluate(s)
	require.Error(t, err)
}

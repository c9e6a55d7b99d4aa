// Package evaluator computes the derived results of a fully-answered session:
// match percentage, streak bonuses and the LP reward. All functions are
// deterministic over the recorded answers; nothing here writes state.
package evaluator

import (
	"github.com/shopspring/decimal"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/errors"
)

const (
	// streakLength correct answers in a row earn streakBonusLP, then the run
	// counter resets. A run of 6 pays exactly twice.
	streakLength  = 3
	streakBonusLP = 5

	// Base reward spans 20-40 LP proportional to match percentage.
	baseLPFloor = 20
	baseLPSpan  = 20

	// TurnBasedCompletionLP is the fixed award per participant when a
	// memory-flip board or word ladder is finished.
	TurnBasedCompletionLP = 25
)

// Result of scoring one answer pair.
type Result struct {
	CorrectCount    int
	MatchPercentage int64
	StreakBonusLP   int64
	BaseLP          int64
	TotalLP         int64
}

// Score compares the subject's own answers against the predictor's guesses.
// Position i is correct iff the values are equal and neither is the NoAnswer
// sentinel. Sequences must be the same non-zero length.
func Score(subject, predictor []int) (*Result, error) {
	if len(subject) == 0 || len(subject) != len(predictor) {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("answer sets mismatched: subject=%d predictor=%d", len(subject), len(predictor)))
	}

	var (
		correct int
		run     int
		bonus   int64
	)
	for i := range subject {
		if subject[i] != domain.NoAnswer && subject[i] == predictor[i] {
			correct++
			run++
			if run == streakLength {
				bonus += streakBonusLP
				run = 0
			}
			continue
		}
		run = 0
	}

	pct := roundedRatio(correct*100, len(subject))
	base := baseLPFloor + roundedRatio(int(pct)*baseLPSpan, 100)

	return &Result{
		CorrectCount:    correct,
		MatchPercentage: pct,
		StreakBonusLP:   bonus,
		BaseLP:          base,
		TotalLP:         base + bonus,
	}, nil
}

// Evaluate scores an answer-pair session. Returns (nil, false, nil) while
// either participant's answers are still missing; that state is quiescent,
// not an error.
func Evaluate(s *domain.Session) (*Result, bool, error) {
	switch s.Kind {
	case domain.KindQuiz, domain.KindWouldYouRather, domain.KindYouOrMe:
	default:
		return nil, false, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("kind %s is not evaluated from answer pairs", s.Kind))
	}

	if !s.BothAnswered() {
		return nil, false, nil
	}

	// Participants[0] is the subject, Participants[1] the predictor.
	subject := s.Quiz.Answers[s.Participants[0]]
	predictor := s.Quiz.Answers[s.Participants[1]]

	r, err := Score(subject, predictor)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// roundedRatio computes round(num/den) with half-up rounding, via decimal to
// keep the arithmetic exact.
func roundedRatio(num, den int) int64 {
	return decimal.NewFromInt(int64(num)).
		Div(decimal.NewFromInt(int64(den))).
		Round(0).
		IntPart()
}

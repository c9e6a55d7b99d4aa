// Package turn answers "is it my turn" and "how many actions do I have left"
// for the turn-based session kinds, entirely from the session record and a
// clock. Violations are caught here before any store call so callers can show
// a specific message instead of a generic error.
package turn

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/errors"
)

var (
	// ErrNotYourTurn signals a move attempted while the other participant
	// holds the turn. Detect with errors.Is; callers should refresh silently.
	ErrNotYourTurn = stderrors.New("not your turn")

	// ErrOutOfActions signals an exhausted action budget. The replenish time
	// is available from Resolve.
	ErrOutOfActions = stderrors.New("no actions left")
)

// Status is the resolved view of a turn-based session for one participant.
type Status struct {
	MyTurn           bool
	ActionsRemaining int
	ReplenishIn      time.Duration
}

// Resolve derives the turn status for participant me at time now. The stored
// action budget replenishes lazily: once the cooldown boundary passes, the
// full budget is reported even though the record still holds the spent value.
func Resolve(s *domain.Session, me string, now time.Time) (Status, error) {
	if err := validate(s, me); err != nil {
		return Status{}, err
	}

	b := s.Board
	st := Status{
		MyTurn:           b.CurrentTurn == me,
		ActionsRemaining: b.ActionsRemaining,
	}

	if !now.Before(b.TurnResetAt) {
		st.ActionsRemaining = domain.TurnActionBudget
	} else if b.ActionsRemaining < domain.FlipsPerAttempt {
		st.ReplenishIn = b.TurnResetAt.Sub(now)
	}

	return st, nil
}

// CheckMove rejects a move attempt client-side. required is the number of
// actions one attempt consumes (FlipsPerAttempt for memory flip, 1 for word
// ladder). nil means the move may be submitted.
func CheckMove(s *domain.Session, me string, now time.Time, required int) error {
	st, err := Resolve(s, me, now)
	if err != nil {
		return err
	}

	if !st.MyTurn {
		return errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("not your turn in session %s", s.ID),
			errors.WithCause(ErrNotYourTurn))
	}

	if st.ActionsRemaining < required {
		return errors.New(errors.CodeResourceExhausted,
			errors.WithMessagef("no actions left, replenishes in %s", FormatReplenish(st.ReplenishIn)),
			errors.WithCause(ErrOutOfActions))
	}

	return nil
}

// FormatReplenish renders a countdown as rounded minutes or hours.
func FormatReplenish(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	if d < time.Hour {
		m := int(d.Round(time.Minute) / time.Minute)
		if m < 1 {
			m = 1
		}
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh", int(d.Round(time.Hour)/time.Hour))
}

func validate(s *domain.Session, me string) error {
	switch s.Kind {
	case domain.KindMemoryFlip, domain.KindWordLadder:
	default:
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("kind %s has no turns", s.Kind))
	}

	if s.Board == nil {
		return errors.New(errors.CodeInternal,
			errors.WithMessagef("session %s has no board state", s.ID))
	}

	if !s.HasParticipant(me) {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("%s is not a participant of session %s", me, s.ID))
	}

	return nil
}

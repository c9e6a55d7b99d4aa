package session

import (
	"context"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/errors"
	"github.com/jachren-f4/together-reminder-sub003/internal/evaluator"
	"github.com/jachren-f4/together-reminder-sub003/internal/event"
	"github.com/jachren-f4/together-reminder-sub003/internal/store"
	"github.com/jachren-f4/together-reminder-sub003/internal/turn"
)

// MemoryPairs is the number of card pairs dealt onto a memory-flip board.
const MemoryPairs = 8

const minLadderWordLen = 3

type Config struct {
	Store    store.Store
	EventBus *event.Bus

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Service owns the session lifecycle: creation, answer/move submission and
// the completion stamp. The store arbitrates every mutation; this service
// never trusts a local copy across calls.
type Service struct {
	store store.Store
	eb    *event.Bus
	now   func() time.Time
}

func NewService(c Config) *Service {
	now := c.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store: c.Store,
		eb:    c.EventBus,
		now:   now,
	}
}

type CreateSessionRequest struct {
	Kind      domain.Kind
	Initiator string
	Partner   string
}

// CreateSession builds and persists a session. You-or-me sessions come in
// mirrored pairs: the partner's parallel record is created alongside, with
// its ID derived by the participant-segment convention.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*domain.Session, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := s.now()
	ss := domain.New(req.Kind, req.Initiator, req.Partner, now)

	if req.Kind == domain.KindMemoryFlip {
		ss.Board.Cards = dealBoard(MemoryPairs)
	}

	if err := s.store.Create(ctx, ss); err != nil {
		return nil, err
	}

	if req.Kind == domain.KindYouOrMe {
		peer := domain.New(req.Kind, req.Partner, req.Initiator, now)
		if err := s.store.Create(ctx, peer); err != nil {
			return nil, err
		}
	}

	return ss, nil
}

type SubmitAnswerRequest struct {
	SessionID   string
	Participant string
	Answers     []int
}

// SubmitAnswer records one participant's answer set. When the second set
// lands, the completion evaluator runs and the result is stamped atomically;
// the write that wins the stamp publishes the completed event.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*domain.Session, error) {
	now := s.now()

	ss, err := s.store.Mutate(ctx, req.SessionID, func(cur *domain.Session) error {
		if cur.Quiz == nil {
			return errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("kind %s does not take answer sets", cur.Kind))
		}
		if err := checkWritable(cur, req.Participant, now); err != nil {
			return err
		}

		if _, ok := cur.Quiz.Answers[req.Participant]; ok {
			return errors.New(errors.CodeAlreadyExists,
				errors.WithMessagef("answers already submitted: session=%s participant=%s", cur.ID, req.Participant))
		}
		if len(cur.Quiz.Answers) >= 2 {
			return errors.New(errors.CodeFailedPrecondition,
				errors.WithMessagef("session %s already holds two answer sets", cur.ID))
		}

		if len(req.Answers) == 0 {
			return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("empty answer set"))
		}
		if cur.Quiz.Questions == 0 {
			cur.Quiz.Questions = len(req.Answers)
		} else if len(req.Answers) != cur.Quiz.Questions {
			return errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("expected %d answers, got %d", cur.Quiz.Questions, len(req.Answers)))
		}

		cur.Quiz.Answers[req.Participant] = append([]int(nil), req.Answers...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.eb.Publish(ctx, domain.EventAnswerSubmitted{Session: *ss, Participant: req.Participant})

	if !ss.BothAnswered() {
		return ss, nil
	}

	r, ok, err := evaluator.Evaluate(ss)
	if err != nil {
		return nil, err
	}
	if !ok {
		return ss, nil
	}

	return s.finalize(ctx, ss.ID, r.TotalLP)
}

type SubmitMoveRequest struct {
	SessionID   string
	Participant string
	CardA       int
	CardB       int
}

type MoveResult struct {
	MatchFound    bool
	GameCompleted bool
	Session       *domain.Session
}

// SubmitMove flips two cards on a memory board. A match keeps the turn but
// spends the action budget until the cooldown; a miss hands the turn to the
// partner with a fresh budget.
func (s *Service) SubmitMove(ctx context.Context, req SubmitMoveRequest) (*MoveResult, error) {
	now := s.now()
	var res MoveResult

	ss, err := s.store.Mutate(ctx, req.SessionID, func(cur *domain.Session) error {
		if cur.Kind != domain.KindMemoryFlip {
			return errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("kind %s does not take card moves", cur.Kind))
		}
		if err := checkWritable(cur, req.Participant, now); err != nil {
			return err
		}

		replenish(cur.Board, now)
		if err := turn.CheckMove(cur, req.Participant, now, domain.FlipsPerAttempt); err != nil {
			return err
		}

		a, err := findCard(cur.Board, req.CardA)
		if err != nil {
			return err
		}
		b, err := findCard(cur.Board, req.CardB)
		if err != nil {
			return err
		}
		if a.ID == b.ID {
			return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("cannot flip card %d twice", a.ID))
		}

		cur.Board.ActionsRemaining -= domain.FlipsPerAttempt
		cur.Board.TurnResetAt = now.Add(domain.TurnCooldown)

		if a.PairID == b.PairID {
			a.Matched, b.Matched = true, true
			a.MatchedBy, b.MatchedBy = req.Participant, req.Participant
			res.MatchFound = true
		} else {
			cur.Board.CurrentTurn = cur.Partner(req.Participant)
			cur.Board.ActionsRemaining = domain.TurnActionBudget
		}

		res.GameCompleted = allMatched(cur.Board)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.GameCompleted {
		ss, err = s.finalize(ctx, ss.ID, evaluator.TurnBasedCompletionLP)
		if err != nil {
			return nil, err
		}
	}

	res.Session = ss
	return &res, nil
}

type SubmitWordRequest struct {
	SessionID   string
	Participant string
	Word        string
}

// SubmitWord appends the next step of a word ladder. Each accepted word
// passes the turn; the ladder completes at the target chain length.
func (s *Service) SubmitWord(ctx context.Context, req SubmitWordRequest) (*MoveResult, error) {
	now := s.now()
	var res MoveResult

	ss, err := s.store.Mutate(ctx, req.SessionID, func(cur *domain.Session) error {
		if cur.Kind != domain.KindWordLadder {
			return errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("kind %s does not take words", cur.Kind))
		}
		if err := checkWritable(cur, req.Participant, now); err != nil {
			return err
		}

		replenish(cur.Board, now)
		if err := turn.CheckMove(cur, req.Participant, now, 1); err != nil {
			return err
		}

		word := strings.ToLower(strings.TrimSpace(req.Word))
		if err := checkLadderStep(cur.Board.Chain, word); err != nil {
			return err
		}

		cur.Board.Chain = append(cur.Board.Chain, domain.WordStep{Word: word, By: req.Participant})
		cur.Board.TurnResetAt = now.Add(domain.TurnCooldown)
		cur.Board.CurrentTurn = cur.Partner(req.Participant)
		cur.Board.ActionsRemaining = domain.TurnActionBudget

		res.GameCompleted = len(cur.Board.Chain) >= domain.WordLadderTarget
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.GameCompleted {
		ss, err = s.finalize(ctx, ss.ID, evaluator.TurnBasedCompletionLP)
		if err != nil {
			return nil, err
		}
	}

	res.Session = ss
	return &res, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.Get(ctx, id)
}

// PeerSession resolves the partner's mirrored you-or-me session.
func (s *Service) PeerSession(ctx context.Context, id string) (*domain.Session, error) {
	ss, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ss.Kind != domain.KindYouOrMe {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("kind %s has no peer session", ss.Kind))
	}

	// The owner segment of the ID is always Participants[0].
	peerID, err := domain.PeerSessionID(id, ss.Partner(ss.Participants[0]))
	if err != nil {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithCause(err))
	}

	return s.store.Get(ctx, peerID)
}

func (s *Service) finalize(ctx context.Context, id string, lp int64) (*domain.Session, error) {
	ss, won, err := s.store.Finalize(ctx, id, lp)
	if err != nil {
		return nil, err
	}
	if won {
		s.eb.Publish(ctx, domain.EventSessionCompleted{Session: *ss})
	}
	return ss, nil
}

func validateCreate(req CreateSessionRequest) error {
	switch req.Kind {
	case domain.KindQuiz, domain.KindWouldYouRather, domain.KindYouOrMe,
		domain.KindMemoryFlip, domain.KindWordLadder:
	default:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown kind %q", req.Kind))
	}

	if req.Initiator == "" || req.Partner == "" || req.Initiator == req.Partner {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("a session needs two distinct participants"))
	}

	return nil
}

// checkWritable rejects writes from non-participants and writes to completed
// or expired sessions.
func checkWritable(s *domain.Session, participant string, now time.Time) error {
	if !s.HasParticipant(participant) {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("%s is not a participant of session %s", participant, s.ID))
	}
	if s.Completed {
		return errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("session %s is already completed", s.ID))
	}
	if s.Expired(now) {
		return errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("session %s expired at %s", s.ID, s.ExpiresAt))
	}
	return nil
}

func replenish(b *domain.BoardState, now time.Time) {
	if !now.Before(b.TurnResetAt) {
		b.ActionsRemaining = domain.TurnActionBudget
	}
}

func findCard(b *domain.BoardState, id int) (*domain.Card, error) {
	for i := range b.Cards {
		if b.Cards[i].ID == id {
			if b.Cards[i].Matched {
				return nil, errors.New(errors.CodeInvalidArgument,
					errors.WithMessagef("card %d is already matched", id))
			}
			return &b.Cards[i], nil
		}
	}
	return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("no card %d on the board", id))
}

func allMatched(b *domain.BoardState) bool {
	for i := range b.Cards {
		if !b.Cards[i].Matched {
			return false
		}
	}
	return len(b.Cards) > 0
}

// checkLadderStep enforces the ladder rule: same length as the previous word,
// exactly one letter changed, no word reused.
func checkLadderStep(chain []domain.WordStep, word string) error {
	if utf8.RuneCountInString(word) < minLadderWordLen {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("word %q is too short", word))
	}

	for _, step := range chain {
		if step.Word == word {
			return errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("word %q was already used", word))
		}
	}

	if len(chain) == 0 {
		return nil
	}

	prev := []rune(chain[len(chain)-1].Word)
	next := []rune(word)
	if len(prev) != len(next) {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("word %q must match the length of %q", word, string(prev)))
	}

	diff := 0
	for i := range prev {
		if prev[i] != next[i] {
			diff++
		}
	}
	if diff != 1 {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("word %q must change exactly one letter of %q", word, string(prev)))
	}

	return nil
}

// dealBoard lays out n shuffled pairs. Card IDs are positions; pair IDs are
// randomized across them.
func dealBoard(n int) []domain.Card {
	pairs := make([]int, 0, 2*n)
	for p := 0; p < n; p++ {
		pairs = append(pairs, p, p)
	}
	rand.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})

	cards := make([]domain.Card, 2*n)
	for i := range cards {
		cards[i] = domain.Card{ID: i, PairID: pairs[i]}
	}
	return cards
}

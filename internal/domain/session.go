package domain

import (
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the session variants. Payload fields on Session are
// populated according to the kind; code switching on Kind must handle every
// constant below.
type Kind string

const (
	KindQuiz           Kind = "quiz"
	KindWouldYouRather Kind = "wouldyourather"
	KindYouOrMe        Kind = "youorme"
	KindMemoryFlip     Kind = "memoryflip"
	KindWordLadder     Kind = "wordladder"
)

// NoAnswer is the sentinel recorded when a participant let a question time
// out. Sentinel positions never count as correct.
const NoAnswer = -1

const (
	// FlipsPerAttempt is the number of card flips consumed by one match attempt.
	FlipsPerAttempt = 2

	// TurnActionBudget is the number of flips allotted per turn.
	TurnActionBudget = 2

	// TurnCooldown is how long a participant waits for their action budget to
	// replenish after spending it.
	TurnCooldown = 3 * time.Hour

	// WordLadderTarget is the chain length that completes a word ladder.
	WordLadderTarget = 10

	turnBasedTTL = 72 * time.Hour
)

// Session is the shared record both participants poll. Answer-pair kinds
// (quiz, wouldyourather, youorme) carry Quiz; turn-based kinds (memoryflip,
// wordladder) carry Board.
type Session struct {
	ID           string
	Kind         Kind
	Participants [2]string
	CreatedAt    time.Time
	ExpiresAt    time.Time

	// Completed is monotonic: once true it is never reset. LPEarned is nil
	// until the completion calculation has run; zero means "calculated, no
	// reward". The two are stamped together in a single store write.
	Completed bool
	LPEarned  *int64

	Quiz  *QuizState
	Board *BoardState
}

// QuizState holds the per-participant answer sets for answer-pair kinds.
// Keyed by participant ID; a third key never appears.
type QuizState struct {
	Questions int
	Answers   map[string][]int
}

// BoardState holds turn-based state. CurrentTurn is always exactly one of the
// two participants.
type BoardState struct {
	CurrentTurn      string
	ActionsRemaining int
	TurnResetAt      time.Time

	// Memory flip board.
	Cards []Card

	// Word ladder chain.
	Chain []WordStep
}

// Card is one face-down card on a memory-flip board. PairID links the two
// cards of a pair.
type Card struct {
	ID        int
	PairID    int
	Matched   bool
	MatchedBy string
}

type WordStep struct {
	Word string
	By   string
}

// New builds a session for two participants. The ID encodes kind, initiator
// and creation time so a peer session can be derived by segment substitution.
func New(kind Kind, initiator, partner string, now time.Time) *Session {
	s := &Session{
		ID:           SessionID(kind, initiator, now),
		Kind:         kind,
		Participants: [2]string{initiator, partner},
		CreatedAt:    now,
		ExpiresAt:    expiry(kind, now),
	}

	switch kind {
	case KindQuiz, KindWouldYouRather, KindYouOrMe:
		s.Quiz = &QuizState{Answers: make(map[string][]int)}
	case KindMemoryFlip, KindWordLadder:
		s.Board = &BoardState{
			CurrentTurn:      initiator,
			ActionsRemaining: TurnActionBudget,
			TurnResetAt:      now.Add(TurnCooldown),
		}
	}

	return s
}

// SessionID renders the canonical "{kind}_{participant}_{unix}" identifier.
func SessionID(kind Kind, participant string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%d", kind, participant, t.Unix())
}

// PeerSessionID derives the partner's parallel session ID by substituting the
// participant segment. Used by the dual-session kinds (you-or-me) where each
// participant owns a mirrored record.
func PeerSessionID(id, peer string) (string, error) {
	kind, _, ts, err := splitID(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s_%s", kind, peer, ts), nil
}

func splitID(id string) (kind, participant, ts string, err error) {
	first := strings.Index(id, "_")
	last := strings.LastIndex(id, "_")
	if first < 0 || first == last {
		return "", "", "", fmt.Errorf("malformed session id %q", id)
	}
	return id[:first], id[first+1 : last], id[last+1:], nil
}

// Expired reports whether the session passed its deadline without completing.
// A completed session never reads as expired.
func (s *Session) Expired(now time.Time) bool {
	return !s.Completed && now.After(s.ExpiresAt)
}

// HasParticipant reports whether id is one of the two participants.
func (s *Session) HasParticipant(id string) bool {
	return s.Participants[0] == id || s.Participants[1] == id
}

// Partner returns the other participant's ID.
func (s *Session) Partner(id string) string {
	if s.Participants[0] == id {
		return s.Participants[1]
	}
	return s.Participants[0]
}

// BothAnswered reports whether both participants' answer sets are present.
// Only meaningful for answer-pair kinds.
func (s *Session) BothAnswered() bool {
	if s.Quiz == nil {
		return false
	}
	return len(s.Quiz.Answers) == 2
}

// Daily kinds die at the end of the day they were created; turn-based boards
// get a fixed window.
func expiry(kind Kind, now time.Time) time.Time {
	switch kind {
	case KindMemoryFlip, KindWordLadder:
		return now.Add(turnBasedTTL)
	default:
		y, m, d := now.Date()
		return time.Date(y, m, d, 23, 59, 59, 0, now.Location())
	}
}

// Clone deep-copies the session so store implementations can hand out copies
// without aliasing their internal state.
func (s *Session) Clone() *Session {
	c := *s
	if s.LPEarned != nil {
		lp := *s.LPEarned
		c.LPEarned = &lp
	}
	if s.Quiz != nil {
		q := *s.Quiz
		q.Answers = make(map[string][]int, len(s.Quiz.Answers))
		for k, v := range s.Quiz.Answers {
			q.Answers[k] = append([]int(nil), v...)
		}
		c.Quiz = &q
	}
	if s.Board != nil {
		b := *s.Board
		b.Cards = append([]Card(nil), s.Board.Cards...)
		b.Chain = append([]WordStep(nil), s.Board.Chain...)
		c.Board = &b
	}
	return &c
}

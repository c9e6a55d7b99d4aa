package api

import (
	"time"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
)

type SessionView struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Participants [2]string `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`

	IsCompleted bool   `json:"is_completed"`
	IsExpired   bool   `json:"is_expired"`
	LPEarned    *int64 `json:"lp_earned"`

	Quiz  *QuizView  `json:"quiz,omitempty"`
	Board *BoardView `json:"board,omitempty"`
}

type QuizView struct {
	Questions int              `json:"questions"`
	Answered  []string         `json:"answered"`
	Answers   map[string][]int `json:"answers,omitempty"`
}

type BoardView struct {
	CurrentTurn      string     `json:"current_turn"`
	ActionsRemaining int        `json:"actions_remaining"`
	TurnResetAt      time.Time  `json:"turn_reset_at"`
	Cards            []CardView `json:"cards,omitempty"`
	Chain            []WordView `json:"chain,omitempty"`
}

// CardView hides the pair layout of unmatched cards so a client cannot peek
// at face-down cards.
type CardView struct {
	ID        int    `json:"id"`
	Matched   bool   `json:"matched"`
	PairID    *int   `json:"pair_id,omitempty"`
	MatchedBy string `json:"matched_by,omitempty"`
}

type WordView struct {
	Word string `json:"word"`
	By   string `json:"by"`
}

func sessionView(s *domain.Session, now time.Time) SessionView {
	v := SessionView{
		ID:           s.ID,
		Kind:         string(s.Kind),
		Participants: s.Participants,
		CreatedAt:    s.CreatedAt,
		ExpiresAt:    s.ExpiresAt,
		IsCompleted:  s.Completed,
		IsExpired:    s.Expired(now),
		LPEarned:     s.LPEarned,
	}

	if s.Quiz != nil {
		q := &QuizView{Questions: s.Quiz.Questions}
		for p := range s.Quiz.Answers {
			q.Answered = append(q.Answered, p)
		}
		// Recorded answers stay hidden until the session is final.
		if s.Completed {
			q.Answers = s.Quiz.Answers
		}
		v.Quiz = q
	}

	if s.Board != nil {
		b := &BoardView{
			CurrentTurn:      s.Board.CurrentTurn,
			ActionsRemaining: s.Board.ActionsRemaining,
			TurnResetAt:      s.Board.TurnResetAt,
		}
		for _, card := range s.Board.Cards {
			cv := CardView{ID: card.ID, Matched: card.Matched, MatchedBy: card.MatchedBy}
			if card.Matched {
				pair := card.PairID
				cv.PairID = &pair
			}
			b.Cards = append(b.Cards, cv)
		}
		for _, step := range s.Board.Chain {
			b.Chain = append(b.Chain, WordView{Word: step.Word, By: step.By})
		}
		v.Board = b
	}

	return v
}

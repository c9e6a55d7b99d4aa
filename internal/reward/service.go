package reward

import (
	"context"
	"fmt"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/event"
)

type Config struct {
	EventBus   *event.Bus
	Dispatcher Dispatcher
}

// Service bridges session completions to the dispatcher: both participants
// are credited the session's LPEarned. A failed award never blocks the
// completion flow; the bus logs it and the dedup marker makes a later replay
// safe.
type Service struct {
	eb *event.Bus
	d  Dispatcher
}

func NewService(c Config) *Service {
	s := &Service{
		eb: c.EventBus,
		d:  c.Dispatcher,
	}

	s.eb.Subscribe(domain.EventNameSessionCompleted, func(ctx context.Context, e event.Event) error {
		return s.HandleSessionCompleted(ctx, e.(domain.EventSessionCompleted))
	})

	return s
}

func (s *Service) HandleSessionCompleted(ctx context.Context, e domain.EventSessionCompleted) error {
	ss := e.Session
	if ss.LPEarned == nil || *ss.LPEarned <= 0 {
		return nil
	}

	reason := fmt.Sprintf("%s_completed", ss.Kind)
	if err := s.d.AwardPointsToBothUsers(ctx, ss.Participants[0], ss.Participants[1], *ss.LPEarned, reason, ss.ID); err != nil {
		return fmt.Errorf("award session %s: %w", ss.ID, err)
	}

	for _, u := range ss.Participants {
		s.eb.Publish(ctx, domain.EventRewardGranted{
			User:      u,
			Amount:    *ss.LPEarned,
			Reason:    reason,
			RelatedID: ss.ID,
		})
	}

	return nil
}

package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
)

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	SessionCompleted struct {
		SessionID string `json:"session_id"`
		Kind      string `json:"kind"`
		LPEarned  int64  `json:"lp_earned"`
	}
)

// PublishSessionCompleted fans the completion out to both participants'
// channels so a subscribed client can cut its polling short.
func (a *API) PublishSessionCompleted(ctx context.Context, e domain.EventSessionCompleted) error {
	ss := e.Session

	data := SessionCompleted{
		SessionID: ss.ID,
		Kind:      string(ss.Kind),
	}
	if ss.LPEarned != nil {
		data.LPEarned = *ss.LPEarned
	}

	var eg errgroup.Group
	for _, user := range ss.Participants {
		user := user
		eg.Go(func() error {
			return a.publishNotification(ctx, user, e.Name(), data)
		})
	}

	return eg.Wait()
}

func (a *API) publishNotification(ctx context.Context, user, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, fmt.Sprintf("%s:user:%s", a.prefix, user), b).Err()
}

// Package reward credits love points (LP) to participants. Crediting is
// idempotent per (related session, user): replays of the same completion
// never double-credit.
package reward

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Dispatcher is what the completion flow needs from a rewards backend.
// Implementations must dedup on relatedID so the caller can fire and forget.
type Dispatcher interface {
	AwardPoints(ctx context.Context, user string, amount int64, reason, relatedID string) error
	AwardPointsToBothUsers(ctx context.Context, userA, userB string, amount int64, reason, relatedID string) error
}

// Ledger is a Redis-backed Dispatcher. A grant marker is claimed with SETNX
// before the balance is incremented, so a replay finds the marker and stops.
type Ledger struct {
	redis  redis.UniversalClient
	prefix string
}

type LedgerConfig struct {
	Redis  redis.UniversalClient
	Prefix string
}

func NewLedger(c LedgerConfig) *Ledger {
	return &Ledger{
		redis:  c.Redis,
		prefix: c.Prefix,
	}
}

func (l *Ledger) AwardPoints(ctx context.Context, user string, amount int64, reason, relatedID string) error {
	ok, err := l.redis.SetNX(ctx, l.grantKey(relatedID, user), reason, 0).Result()
	if err != nil {
		return fmt.Errorf("claim grant: %w", err)
	}

	// Marker already present: this related ID was credited before.
	if !ok {
		return nil
	}

	if err := l.redis.IncrBy(ctx, l.balanceKey(user), amount).Err(); err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}

	return nil
}

func (l *Ledger) AwardPointsToBothUsers(ctx context.Context, userA, userB string, amount int64, reason, relatedID string) error {
	if err := l.AwardPoints(ctx, userA, amount, reason, relatedID); err != nil {
		return err
	}
	return l.AwardPoints(ctx, userB, amount, reason, relatedID)
}

// Balance returns the user's current LP total.
func (l *Ledger) Balance(ctx context.Context, user string) (int64, error) {
	n, err := l.redis.Get(ctx, l.balanceKey(user)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return n, nil
}

func (l *Ledger) grantKey(relatedID, user string) string {
	return fmt.Sprintf("%s:grant:%s:%s", l.prefix, relatedID, user)
}

func (l *Ledger) balanceKey(user string) string {
	return fmt.Sprintf("%s:lp:%s", l.prefix, user)
}

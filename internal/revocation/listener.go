package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evdms-platform/evdms-backend/pkg/auth/session"
	"github.com/evdms-platform/evdms-backend/pkg/logger"
	"github.com/evdms-platform/evdms-backend/pkg/metrics"
	redisclient "github.com/evdms-platform/evdms-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const resubscribeBackoff = time.Second

type preferencesCleaner interface {
	Clear(ctx context.Context, userID uuid.UUID) error
}

type subscriber interface {
	Subscribe(ctx context.Context, channels ...string) (*redislib.PubSub, error)
}

// Listener watches the session events channel and reacts to logouts published
// by any instance. A logout observed here clears the user's cached
// preferences so the next sign-in starts clean everywhere. Login events are
// broadcast on the same channel but carry nothing to act on.
type Listener struct {
	subs    subscriber
	prefs   preferencesCleaner
	logg    *logger.Logger
	metrics *metrics.AuthMetrics
}

// NewListener builds the listener.
func NewListener(subs subscriber, prefs preferencesCleaner, logg *logger.Logger, m *metrics.AuthMetrics) (*Listener, error) {
	if subs == nil {
		return nil, fmt.Errorf("subscriber required")
	}
	if prefs == nil {
		return nil, fmt.Errorf("preferences cleaner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Listener{subs: subs, prefs: prefs, logg: logg, metrics: m}, nil
}

// Run blocks consuming session events until the context is canceled. A broken
// subscription is re-established after a short pause rather than killing the
// process.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.consume(ctx); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			l.logg.Warn(l.logg.WithField(ctx, "error", err.Error()), "session events subscription lost")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(resubscribeBackoff):
		}
	}
}

func (l *Listener) consume(ctx context.Context) error {
	sub, err := l.subs.Subscribe(ctx, redisclient.SessionEventsChannel)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription channel closed")
			}
			l.handle(ctx, msg.Payload)
		}
	}
}

func (l *Listener) handle(ctx context.Context, payload string) {
	ev, err := session.DecodeEvent(payload)
	if err != nil {
		l.logg.Warn(l.logg.WithField(ctx, "error", err.Error()), "dropping malformed session event")
		return
	}
	if ev.Kind != session.EventLogout {
		return
	}

	logCtx := l.logg.WithFields(ctx, map[string]any{
		"session_id": ev.SessionID,
		"user_id":    ev.UserID.String(),
	})

	if ev.UserID != uuid.Nil {
		if err := l.prefs.Clear(ctx, ev.UserID); err != nil {
			l.logg.Error(logCtx, "clearing preferences after logout", err)
			return
		}
	}
	l.metrics.IncRevocation()
	l.logg.Info(logCtx, "session revoked")
}

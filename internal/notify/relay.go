// Package notify forwards selected settlement notifications to operator
// channels (Telegram, Discord). The relay subscribes to the signal bus, so
// alerting rides the same fan-out as every other consumer.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FightFi/booster/internal/domain"
)

// Sender is the interface each alert channel implements.
type Sender interface {
	// Send delivers an alert with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// Relay consumes notifications from the signal bus and forwards the allowed
// types to every configured sender.
type Relay struct {
	bus     domain.SignalBus
	channel string
	senders []Sender
	allowed map[domain.NotificationType]bool // empty = allow all
	logger  *slog.Logger
}

// NewRelay creates a Relay. If types is empty, every notification type is
// forwarded.
func NewRelay(bus domain.SignalBus, channel string, senders []Sender, types []domain.NotificationType, logger *slog.Logger) *Relay {
	allowed := make(map[domain.NotificationType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return &Relay{
		bus:     bus,
		channel: channel,
		senders: senders,
		allowed: allowed,
		logger:  logger.With(slog.String("component", "notify")),
	}
}

// Run subscribes to the bus and forwards notifications until ctx is
// cancelled.
func (r *Relay) Run(ctx context.Context) error {
	msgCh, err := r.bus.Subscribe(ctx, r.channel)
	if err != nil {
		return fmt.Errorf("notify: subscribe %s: %w", r.channel, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-msgCh:
			if !ok {
				return nil
			}
			var n domain.Notification
			if err := json.Unmarshal(data, &n); err != nil {
				continue
			}
			if len(r.allowed) > 0 && !r.allowed[n.Type] {
				continue
			}
			r.dispatch(ctx, n)
		}
	}
}

// dispatch formats the notification and sends it to every sender. A single
// sender failure does not prevent delivery to the rest.
func (r *Relay) dispatch(ctx context.Context, n domain.Notification) {
	title, message := format(n)
	for _, s := range r.senders {
		if err := s.Send(ctx, title, message); err != nil {
			r.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("type", string(n.Type)),
				slog.String("error", err.Error()),
			)
		}
	}
}

// format renders a notification as an alert title and body.
func format(n domain.Notification) (string, string) {
	title := fmt.Sprintf("Booster: %s", n.Type)

	var b strings.Builder
	fmt.Fprintf(&b, "event: %s", n.EventID)
	if n.FightID != 0 {
		fmt.Fprintf(&b, "\nfight: %d", n.FightID)
	}
	if n.Amount != 0 {
		fmt.Fprintf(&b, "\namount: %d", n.Amount)
	}
	zero := true
	for _, c := range n.Actor {
		if c != 0 {
			zero = false
			break
		}
	}
	if !zero {
		fmt.Fprintf(&b, "\nactor: %s", n.Actor.Hex())
	}
	return title, b.String()
}

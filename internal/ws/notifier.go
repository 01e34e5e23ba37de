package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/loanlink/backend/internal/domain/application"
)

type EventCounter interface {
	CountApplicationEvent(eventType string)
}

// Notifier fans application lifecycle events out to the applicant's channel
// and the manager review queue.
type Notifier struct {
	hub     *Hub
	counter EventCounter
	logger  *slog.Logger
}

func NewNotifier(hub *Hub, counter EventCounter, logger *slog.Logger) *Notifier {
	return &Notifier{hub: hub, counter: counter, logger: logger}
}

func (n *Notifier) PublishApplicationEvent(_ context.Context, ev application.Event) {
	if n.counter != nil {
		n.counter.CountApplicationEvent(ev.Type)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		n.logger.Error("encode application event", "event", ev.Type, "error", err)
		return
	}
	delivered := n.hub.Publish(ApplicantChannel(ev.Application.ApplicantEmail), payload)
	delivered += n.hub.Publish(QueueChannel, payload)
	n.logger.Debug("application event published", "event", ev.Type, "application_id", ev.Application.ID, "subscribers", delivered)
}

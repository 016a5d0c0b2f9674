package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/phillip/ngo-admin-console/metrics"
)

// Notifier renders the console's templates and dispatches them through a
// Sender.
type Notifier struct {
	sender  Sender
	brand   Brand
	timeout time.Duration
	log     *zap.SugaredLogger
}

func NewNotifier(sender Sender, brand Brand, timeout time.Duration, log *zap.SugaredLogger) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{sender: sender, brand: brand, timeout: timeout, log: log}
}

// StatusChanged tells an NGO its application was approved or rejected.
// Invalid input completes immediately with a validation result and nothing
// is sent.
func (n *Notifier) StatusChanged(ctx context.Context, d StatusData) *Task {
	msg, err := RenderStatus(n.brand, d)
	return n.send(ctx, TemplateStatusChanged, msg, err)
}

// EventCreated tells an NGO contact about a new event.
func (n *Notifier) EventCreated(ctx context.Context, d EventData) *Task {
	msg, err := RenderEventCreated(n.brand, d)
	return n.send(ctx, TemplateEventCreated, msg, err)
}

func (n *Notifier) send(ctx context.Context, template string, msg Message, renderErr error) *Task {
	if renderErr != nil {
		r := Classify(renderErr)
		metrics.NotificationsSent.WithLabelValues(template, string(r.Kind)).Inc()
		return Completed(r)
	}
	return dispatch(ctx, n.sender, msg, n.timeout, func(r Result) {
		label := string(r.Status)
		if !r.OK() {
			label = string(r.Kind)
			n.log.Warnw("notification failed",
				"template", template,
				"to", msg.To,
				"kind", r.Kind,
				"code", r.Code,
				"detail", r.Detail,
			)
		} else {
			n.log.Infow("notification sent", "template", template, "to", msg.To)
		}
		metrics.NotificationsSent.WithLabelValues(template, label).Inc()
	})
}

package usecase

import (
	"context"
	"sync"
	"time"

	"apartment-booking/internal/data/entity"
	"apartment-booking/internal/integrations/mailer"

	"go.uber.org/zap"
)

const notificationTimeout = 30 * time.Second

// Notifier delivers guest and staff mail off the request path. Each message
// gets its own deadline and outlives the request that triggered it.
type Notifier struct {
	messenger Messenger
	timeout   time.Duration
	pending   sync.WaitGroup
	log       *zap.Logger
}

func NewNotifier(messenger Messenger, log *zap.Logger) *Notifier {
	return &Notifier{
		messenger: messenger,
		timeout:   notificationTimeout,
		log:       log.With(zap.String("service", "notifier")),
	}
}

// StaffRecipient is where staff alerts go.
func (n *Notifier) StaffRecipient() string {
	return n.messenger.StaffRecipient()
}

// Send renders res now and hands it to the messenger in the background.
// Failures are logged only.
func (n *Notifier) Send(ctx context.Context, recipient string, kind mailer.TemplateKind, res *entity.Reservation, reason string) {
	data := mailer.FromReservation(res)
	data.Reason = reason

	n.pending.Add(1)
	go func() {
		defer n.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()

		if err := n.messenger.SendTemplatedMessage(ctx, recipient, kind, data); err != nil {
			n.log.Warn("Failed to send notification",
				zap.Error(err),
				zap.String("template", string(kind)),
				zap.String("payment_reference", data.PaymentReference),
				zap.String("booking_reference", data.BookingReference))
		}
	}()
}

// Wait blocks until every message handed to Send has been attempted.
func (n *Notifier) Wait() {
	n.pending.Wait()
}

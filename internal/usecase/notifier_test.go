package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"apartment-booking/internal/data/entity"
	"apartment-booking/internal/integrations/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	recipient   string
	kind        mailer.TemplateKind
	data        mailer.ReservationMail
	ctxErr      error
	hasDeadline bool
}

// gatedMessenger holds every send until release is closed.
type gatedMessenger struct {
	release chan struct{}
	mu      sync.Mutex
	sent    []sentMail
}

func newGatedMessenger() *gatedMessenger {
	return &gatedMessenger{release: make(chan struct{})}
}

func (g *gatedMessenger) SendTemplatedMessage(ctx context.Context, recipient string, kind mailer.TemplateKind, data mailer.ReservationMail) error {
	<-g.release
	_, hasDeadline := ctx.Deadline()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentMail{recipient, kind, data, ctx.Err(), hasDeadline})
	return nil
}

func (g *gatedMessenger) StaffRecipient() string {
	return "staff@example.com"
}

func (g *gatedMessenger) delivered() []sentMail {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMail(nil), g.sent...)
}

func TestNotifierSendDoesNotWaitForDelivery(t *testing.T) {
	messenger := newGatedMessenger()
	n := NewNotifier(messenger, zap.NewNop())
	res := &entity.Reservation{BookingReference: "CSH1", PaymentReference: "PAY-1", GuestEmail: "ada@example.com"}

	ctx, cancel := context.WithCancel(context.Background())
	n.Send(ctx, res.GuestEmail, mailer.TemplateBookingConfirmed, res, "")
	// the request finishes and its context goes away before the mail is out
	cancel()
	res.BookingReference = "changed"

	close(messenger.release)
	n.Wait()

	sent := messenger.delivered()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].recipient)
	assert.Equal(t, mailer.TemplateBookingConfirmed, sent[0].kind)
	assert.Equal(t, "CSH1", sent[0].data.BookingReference)
	assert.NoError(t, sent[0].ctxErr)
	assert.True(t, sent[0].hasDeadline)
}

func TestConfirmReservationReturnsBeforeMailIsDelivered(t *testing.T) {
	f := newFixture(t)
	res := f.seed(t, "2025-01-10", "2025-01-13", entity.ReservationStatusPending)

	messenger := newGatedMessenger()
	notifier := NewNotifier(messenger, zap.NewNop())
	svc := NewReservationService(f.repo, Integrations{Metrics: f.metrics, Notifier: notifier}, fixedClock, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := svc.ConfirmReservation(context.Background(), res.ID)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(messenger.release)
		t.Fatal("confirmation waited for mail delivery")
	}

	close(messenger.release)
	notifier.Wait()

	sent := messenger.delivered()
	require.Len(t, sent, 1)
	assert.Equal(t, "seed@example.com", sent[0].recipient)
	assert.Equal(t, mailer.TemplateBookingConfirmed, sent[0].kind)
}

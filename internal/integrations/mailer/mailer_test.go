package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"apartment-booking/internal/data/entity"
	"apartment-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	messages []*gomail.Message
	err      error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.messages = append(c.messages, m...)
	return c.err
}

func sampleMail() ReservationMail {
	stay, _ := entity.NewDateRange(
		time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC))
	return FromReservation(&entity.Reservation{
		BookingReference: "CSH1ABC",
		PaymentReference: "PAY-1",
		GuestName:        "Ada <script>",
		GuestEmail:       "ada@example.com",
		PropertyName:     "Pa Claudius Apartments",
		UnitLabel:        "Deluxe 1-Bedroom Ensuite Apartment (Unit 3)",
		Stay:             stay,
		Guests:           2,
		Quote:            entity.PriceQuote{TotalAmount: 555107, Currency: "NGN"},
	})
}

func TestRender(t *testing.T) {
	for kind := range bodies {
		t.Run(string(kind), func(t *testing.T) {
			subject, body, err := Render(kind, "CO Signature Homes", sampleMail())

			require.NoError(t, err)
			assert.Contains(t, subject, "CSH1ABC")
			assert.Contains(t, body, "2025-01-10")
			assert.Contains(t, body, "NGN 5,551.07")
			assert.Contains(t, body, "CO Signature Homes")
			assert.NotContains(t, body, "<script>")
		})
	}

	_, _, err := Render("nope", "", sampleMail())
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestRenderSubjectFallsBackToPaymentReference(t *testing.T) {
	data := sampleMail()
	data.BookingReference = ""

	subject, body, err := Render(TemplateStaffPaymentConflict, "", data)

	require.NoError(t, err)
	assert.Equal(t, "Refund Required - PAY-1", subject)
	assert.Contains(t, body, "not issued")
}

func TestSendTemplatedMessage(t *testing.T) {
	sender := &captureSender{}
	m := NewWithSender(sender, utils.EmailConfig{From: "bookings@example.com", FromName: "CO Signature Homes", StaffEmail: "staff@example.com"}, zap.NewNop())

	err := m.SendTemplatedMessage(context.Background(), "ada@example.com", TemplateBookingConfirmed, sampleMail())

	require.NoError(t, err)
	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, []string{"ada@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Booking Confirmed - CSH1ABC"}, msg.GetHeader("Subject"))
	assert.Equal(t, "staff@example.com", m.StaffRecipient())
}

func TestSendTemplatedMessageErrors(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	m := NewWithSender(sender, utils.EmailConfig{From: "bookings@example.com"}, zap.NewNop())

	err := m.SendTemplatedMessage(context.Background(), "ada@example.com", TemplateBookingReceived, sampleMail())
	assert.ErrorContains(t, err, "smtp down")

	err = m.SendTemplatedMessage(context.Background(), " ", TemplateBookingReceived, sampleMail())
	assert.ErrorIs(t, err, ErrNoRecipient)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = m.SendTemplatedMessage(ctx, "ada@example.com", TemplateBookingReceived, sampleMail())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendWithoutSMTPOnlyLogs(t *testing.T) {
	m := New(utils.EmailConfig{}, zap.NewNop())

	assert.NoError(t, m.SendTemplatedMessage(context.Background(), "ada@example.com", TemplateBookingReceived, sampleMail()))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "NGN 0.00", FormatAmount(0, "NGN"))
	assert.Equal(t, "NGN 165,000.00", FormatAmount(16500000, "NGN"))
	assert.Equal(t, "NGN -1.05", FormatAmount(-105, "NGN"))
}

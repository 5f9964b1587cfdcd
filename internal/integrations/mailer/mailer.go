// Package mailer sends the guest and staff notifications of the booking flow.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"apartment-booking/internal/data/entity"
	"apartment-booking/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/gomail.v2"
)

var (
	ErrUnknownTemplate = errors.New("mailer: unknown template")
	ErrNoRecipient     = errors.New("mailer: no recipient")
)

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// ReservationMail is the data every template renders.
type ReservationMail struct {
	BookingReference string
	PaymentReference string
	GuestName        string
	GuestEmail       string
	GuestPhone       string
	PropertyName     string
	UnitLabel        string
	CheckIn          string
	CheckOut         string
	Nights           int
	Guests           int
	SpecialRequests  string
	Total            string
	Reason           string
}

func FromReservation(r *entity.Reservation) ReservationMail {
	return ReservationMail{
		BookingReference: r.BookingReference,
		PaymentReference: r.PaymentReference,
		GuestName:        r.GuestName,
		GuestEmail:       r.GuestEmail,
		GuestPhone:       r.GuestPhone,
		PropertyName:     r.PropertyName,
		UnitLabel:        r.UnitLabel,
		CheckIn:          r.Stay.CheckIn.Format(entity.DateLayout),
		CheckOut:         r.Stay.CheckOut.Format(entity.DateLayout),
		Nights:           r.Stay.Nights(),
		Guests:           r.Guests,
		SpecialRequests:  r.SpecialRequests,
		Total:            FormatAmount(r.Quote.TotalAmount, r.Quote.Currency),
	}
}

type Mailer struct {
	sender   Sender
	from     string
	fromName string
	staff    string
	log      *zap.Logger
}

// New returns a mailer backed by SMTP. Without an SMTP host messages are only logged.
func New(cfg utils.EmailConfig, log *zap.Logger) *Mailer {
	var sender Sender
	if cfg.Host != "" {
		sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return NewWithSender(sender, cfg, log)
}

func NewWithSender(sender Sender, cfg utils.EmailConfig, log *zap.Logger) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &Mailer{
		sender:   sender,
		from:     from,
		fromName: cfg.FromName,
		staff:    cfg.StaffEmail,
		log:      log.With(zap.String("integration", "mailer")),
	}
}

func (m *Mailer) StaffRecipient() string {
	return m.staff
}

func (m *Mailer) SendTemplatedMessage(ctx context.Context, recipient string, kind TemplateKind, data ReservationMail) error {
	if strings.TrimSpace(recipient) == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, body, err := Render(kind, m.fromName, data)
	if err != nil {
		return err
	}

	if m.sender == nil {
		m.log.Info("SMTP not configured, email not sent",
			zap.String("template", string(kind)),
			zap.String("to", recipient),
			zap.String("subject", subject))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send %s email: %w", kind, err)
	}

	m.log.Info("Email sent",
		zap.String("template", string(kind)),
		zap.String("to", recipient))
	return nil
}

var printer = message.NewPrinter(language.English)

// FormatAmount renders a minor-unit amount, e.g. 555107 NGN as "NGN 5,551.07".
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return printer.Sprintf("%s %s%d.%02d", currency, sign, minor/100, minor%100)
}

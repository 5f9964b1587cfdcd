package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

type TemplateKind string

const (
	TemplateBookingReceived      TemplateKind = "booking_received"
	TemplateStaffNewBooking      TemplateKind = "staff_new_booking"
	TemplateBookingConfirmed     TemplateKind = "booking_confirmed"
	TemplateBookingCancelled     TemplateKind = "booking_cancelled"
	TemplateStaffPaymentConflict TemplateKind = "staff_payment_conflict"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<div style="background: #1a1a1a; color: #F5A623; padding: 24px; text-align: center;">
<h1>{{.Title}}</h1>
</div>
<div style="background: #f9f9f9; padding: 24px;">
{{template "body" .}}
{{template "details" .}}
<p>{{.BrandName}}</p>
</div>
</div>
</body>
</html>{{end}}
{{define "details"}}<table style="background: #fff; padding: 16px; width: 100%;">
<tr><td><strong>Booking Reference</strong></td><td>{{or .BookingReference "not issued"}}</td></tr>
<tr><td><strong>Payment Reference</strong></td><td>{{.PaymentReference}}</td></tr>
<tr><td><strong>Guest</strong></td><td>{{.GuestName}} ({{.GuestEmail}}{{if .GuestPhone}}, {{.GuestPhone}}{{end}})</td></tr>
<tr><td><strong>Apartment</strong></td><td>{{.UnitLabel}}, {{.PropertyName}}</td></tr>
<tr><td><strong>Check-in</strong></td><td>{{.CheckIn}}</td></tr>
<tr><td><strong>Check-out</strong></td><td>{{.CheckOut}}</td></tr>
<tr><td><strong>Nights</strong></td><td>{{.Nights}}</td></tr>
<tr><td><strong>Guests</strong></td><td>{{.Guests}}</td></tr>
{{if .SpecialRequests}}<tr><td><strong>Special Requests</strong></td><td>{{.SpecialRequests}}</td></tr>{{end}}
<tr><td><strong>Total Paid</strong></td><td>{{.Total}}</td></tr>
</table>{{end}}`

var bodies = map[TemplateKind]string{
	TemplateBookingReceived: `{{define "body"}}<p>Dear {{.GuestName}},</p>
<p>Thank you for your payment. We have received your booking request and our team will review and confirm it shortly.</p>{{end}}`,

	TemplateStaffNewBooking: `{{define "body"}}<p><strong>Action required:</strong> a new booking has been paid for and is waiting for review.</p>{{end}}`,

	TemplateBookingConfirmed: `{{define "body"}}<p>Dear {{.GuestName}},</p>
<p>Your booking has been confirmed. We look forward to hosting you.</p>{{end}}`,

	TemplateBookingCancelled: `{{define "body"}}<p>Dear {{.GuestName}},</p>
<p>Your booking has been cancelled.{{if .Reason}} Reason: {{.Reason}}{{end}}</p>
<p>Please contact us if you have any questions about a refund.</p>{{end}}`,

	TemplateStaffPaymentConflict: `{{define "body"}}<p><strong>Refund required:</strong> a payment was completed but the dates were no longer available, so no reservation was created.</p>
{{if .Reason}}<p>{{.Reason}}</p>{{end}}{{end}}`,
}

var subjects = map[TemplateKind]string{
	TemplateBookingReceived:      "Booking Request Received - %s",
	TemplateStaffNewBooking:      "New Booking Request - %s",
	TemplateBookingConfirmed:     "Booking Confirmed - %s",
	TemplateBookingCancelled:     "Booking Cancelled - %s",
	TemplateStaffPaymentConflict: "Refund Required - %s",
}

var titles = map[TemplateKind]string{
	TemplateBookingReceived:      "Booking Request Received",
	TemplateStaffNewBooking:      "New Paid Booking",
	TemplateBookingConfirmed:     "Booking Confirmed",
	TemplateBookingCancelled:     "Booking Cancelled",
	TemplateStaffPaymentConflict: "Payment Without Reservation",
}

var templates = parseTemplates()

func parseTemplates() map[TemplateKind]*template.Template {
	base := template.Must(template.New("layout").Parse(layout))
	out := make(map[TemplateKind]*template.Template, len(bodies))
	for kind, body := range bodies {
		out[kind] = template.Must(template.Must(base.Clone()).Parse(body))
	}
	return out
}

type view struct {
	ReservationMail
	Title     string
	BrandName string
}

// Render returns the subject and HTML body of kind for data.
func Render(kind TemplateKind, brand string, data ReservationMail) (string, string, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, kind)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", view{ReservationMail: data, Title: titles[kind], BrandName: brand}); err != nil {
		return "", "", fmt.Errorf("render %s: %w", kind, err)
	}

	ref := data.BookingReference
	if ref == "" {
		ref = data.PaymentReference
	}
	return fmt.Sprintf(subjects[kind], ref), buf.String(), nil
}

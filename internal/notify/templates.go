package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/mulambwane/safari-forms/internal/forms"
)

// Branding is the business identity printed in every message.
type Branding struct {
	Name  string
	Email string
	Phone string
}

type messageView struct {
	Business        Branding
	Name            string
	FirstName       string
	Email           string
	Phone           string
	Interest        string
	Message         string
	CheckIn         string
	CheckOut        string
	Adults          string
	Children        string
	Suite           string
	SpecialRequests string

	HasChildren        bool
	HasSpecialRequests bool
}

func newMessageView(sub *forms.Normalized, b Branding) messageView {
	children := sub.Get(forms.FieldChildren)
	return messageView{
		Business:           b,
		Name:               sub.FullName(),
		FirstName:          sub.FirstName(),
		Email:              sub.Email(),
		Phone:              sub.Get(forms.FieldPhone),
		Interest:           sub.Get(forms.FieldInterest),
		Message:            sub.Get(forms.FieldMessage),
		CheckIn:            sub.Get(forms.FieldCheckIn),
		CheckOut:           sub.Get(forms.FieldCheckOut),
		Adults:             sub.Get(forms.FieldAdults),
		Children:           children,
		Suite:              sub.Get(forms.FieldSuite),
		SpecialRequests:    sub.Get(forms.FieldSpecialRequests),
		HasChildren:        children != "" && children != "0",
		HasSpecialRequests: sub.Provided(forms.FieldSpecialRequests),
	}
}

const htmlTemplates = `
{{define "contact_business"}}<div style="font-family: sans-serif; max-width: 600px;">
<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Interest:</strong> {{.Interest}}</p>
<p><strong>Message:</strong></p>
<div style="background: #f5f5f5; padding: 15px; border-radius: 5px; white-space: pre-wrap;">{{.Message}}</div>
<hr>
<p><em>Sent from the {{.Business.Name}} website contact form</em></p>
</div>{{end}}

{{define "contact_customer"}}<div style="font-family: sans-serif; max-width: 600px;">
<h2>Thank you for your inquiry, {{.FirstName}}!</h2>
<p>We have received your message and will respond within 24 hours.</p>
<h3>Your Details:</h3>
<p><strong>Name:</strong> {{.Name}}<br>
<strong>Interest:</strong> {{.Interest}}</p>
<h3>Your Message:</h3>
<div style="background: #f5f5f5; padding: 15px; border-radius: 5px; white-space: pre-wrap;">{{.Message}}</div>
<h3>Contact Information:</h3>
<p><strong>Email:</strong> {{.Business.Email}}<br>
<strong>Phone:</strong> {{.Business.Phone}}</p>
<p>Best regards,<br>
{{.Business.Name}} Team</p>
</div>{{end}}

{{define "booking_business"}}<div style="font-family: sans-serif; max-width: 600px;">
<h2>New Lodge Booking Request</h2>
<h3>Guest Information</h3>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<h3>Booking Details</h3>
<p><strong>Check-in:</strong> {{.CheckIn}}</p>
<p><strong>Check-out:</strong> {{.CheckOut}}</p>
<p><strong>Adults:</strong> {{.Adults}}</p>
<p><strong>Children:</strong> {{.Children}}</p>
<p><strong>Suite:</strong> {{.Suite}}</p>
<h3>Special Requests</h3>
<div style="background: #f5f5f5; padding: 15px; border-radius: 5px; white-space: pre-wrap;">{{.SpecialRequests}}</div>
</div>{{end}}

{{define "booking_customer"}}<div style="font-family: sans-serif; max-width: 600px;">
<h2>Thank you, {{.FirstName}}!</h2>
<p>We received your lodge booking request and will contact you within 24 hours.</p>
<h3>Your Booking Request:</h3>
<p><strong>Check-in:</strong> {{.CheckIn}}</p>
<p><strong>Check-out:</strong> {{.CheckOut}}</p>
<p><strong>Guests:</strong> {{.Adults}} Adults{{if .HasChildren}}, {{.Children}} Children{{end}}</p>
<p><strong>Suite:</strong> {{.Suite}}</p>
{{if .HasSpecialRequests}}<p><strong>Special Requests:</strong> {{.SpecialRequests}}</p>
{{end}}<p>Contact: {{.Business.Email}} | {{.Business.Phone}}</p>
</div>{{end}}
`

const textTemplates = `
{{define "contact_business"}}New Contact Form Submission

Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}
Interest: {{.Interest}}

Message:
{{.Message}}

-- Sent from the {{.Business.Name}} website contact form{{end}}

{{define "contact_customer"}}Thank you for your inquiry, {{.FirstName}}!

We have received your message and will respond within 24 hours.

Name: {{.Name}}
Interest: {{.Interest}}

Your Message:
{{.Message}}

Email: {{.Business.Email}}
Phone: {{.Business.Phone}}

Best regards,
{{.Business.Name}} Team{{end}}

{{define "booking_business"}}New Lodge Booking Request

Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}

Check-in: {{.CheckIn}}
Check-out: {{.CheckOut}}
Adults: {{.Adults}}
Children: {{.Children}}
Suite: {{.Suite}}

Special Requests:
{{.SpecialRequests}}{{end}}

{{define "booking_customer"}}Thank you, {{.FirstName}}!

We received your lodge booking request and will contact you within 24 hours.

Check-in: {{.CheckIn}}
Check-out: {{.CheckOut}}
Guests: {{.Adults}} Adults{{if .HasChildren}}, {{.Children}} Children{{end}}
Suite: {{.Suite}}
{{if .HasSpecialRequests}}Special Requests: {{.SpecialRequests}}
{{end}}
Contact: {{.Business.Email}} | {{.Business.Phone}}{{end}}
`

var (
	htmlSet = htmltemplate.Must(htmltemplate.New("notify").Parse(htmlTemplates))
	textSet = texttemplate.Must(texttemplate.New("notify").Parse(textTemplates))
)

// Rendered holds the two messages produced for one submission.
type Rendered struct {
	Business EmailMessage
	Customer EmailMessage
}

// Render builds the business notification and the customer confirmation for
// sub. Every submitted value is HTML-escaped in the HTML bodies.
func Render(sub *forms.Normalized, businessRecipient string, b Branding) (Rendered, error) {
	if sub == nil {
		return Rendered{}, fmt.Errorf("notify: nothing to render")
	}

	var businessSubject, customerSubject string
	switch sub.Kind() {
	case forms.Contact:
		businessSubject = fmt.Sprintf("Website Contact - %s", sub.FullName())
		customerSubject = fmt.Sprintf("Thank you for contacting %s", b.Name)
	case forms.Booking:
		businessSubject = fmt.Sprintf("Lodge Booking - %s", sub.FullName())
		customerSubject = fmt.Sprintf("Lodge Booking Request Received - %s", b.Name)
	default:
		return Rendered{}, fmt.Errorf("notify: no templates for %q", sub.Kind())
	}

	view := newMessageView(sub, b)
	kind := string(sub.Kind())

	business, err := renderPair(kind+"_business", view)
	if err != nil {
		return Rendered{}, err
	}
	business.To = businessRecipient
	business.ToName = b.Name
	business.ReplyTo = sub.Email()
	business.Subject = headerSafe(businessSubject)

	customer, err := renderPair(kind+"_customer", view)
	if err != nil {
		return Rendered{}, err
	}
	customer.To = sub.Email()
	customer.ToName = sub.FullName()
	customer.ReplyTo = b.Email
	customer.Subject = headerSafe(customerSubject)

	return Rendered{Business: business, Customer: customer}, nil
}

func renderPair(name string, view messageView) (EmailMessage, error) {
	var text, html bytes.Buffer
	if err := textSet.ExecuteTemplate(&text, name, view); err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render %s text: %w", name, err)
	}
	if err := htmlSet.ExecuteTemplate(&html, name, view); err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render %s html: %w", name, err)
	}
	return EmailMessage{Body: text.String(), HTML: html.String()}, nil
}

package forms

import "strings"

// Kind identifies which website form produced a submission.
type Kind string

const (
	Contact Kind = "contact"
	Booking Kind = "booking"
)

// Field names as posted by the website forms.
const (
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldMessage         = "message"
	FieldInterest        = "interest"
	FieldCheckIn         = "checkIn"
	FieldCheckOut        = "checkOut"
	FieldAdults          = "adults"
	FieldChildren        = "children"
	FieldSuite           = "suite"
	FieldSpecialRequests = "specialRequests"
)

type fieldSpec struct {
	name     string
	required bool
	fallback string
}

var schemas = map[Kind][]fieldSpec{
	Contact: {
		{name: FieldFirstName, required: true},
		{name: FieldLastName, required: true},
		{name: FieldEmail, required: true},
		{name: FieldPhone, fallback: "Not provided"},
		{name: FieldInterest, fallback: "General Inquiry"},
		{name: FieldMessage, required: true},
	},
	Booking: {
		{name: FieldFirstName, required: true},
		{name: FieldLastName, required: true},
		{name: FieldEmail, required: true},
		{name: FieldPhone, fallback: "Not provided"},
		{name: FieldCheckIn, required: true},
		{name: FieldCheckOut, required: true},
		{name: FieldAdults, required: true},
		{name: FieldChildren, fallback: "0"},
		{name: FieldSuite, fallback: "Not specified"},
		{name: FieldSpecialRequests, fallback: "None"},
	},
}

// Valid reports whether k is a known form kind.
func (k Kind) Valid() bool {
	_, ok := schemas[k]
	return ok
}

// Submission is a decoded form body: field name to raw value.
type Submission map[string]string

// Normalized is a submission that passed validation. Values are trimmed and
// every optional field of its kind has a value, so templates never need to
// check for blanks.
type Normalized struct {
	kind     Kind
	values   map[string]string
	provided map[string]bool
}

// Kind returns the form kind the submission was validated against.
func (n *Normalized) Kind() Kind { return n.kind }

// Get returns the normalized value of field, or "" for unknown fields.
func (n *Normalized) Get(field string) string { return n.values[field] }

// Provided reports whether the submitter actually filled in field, as opposed
// to it carrying a default.
func (n *Normalized) Provided(field string) bool { return n.provided[field] }

func (n *Normalized) Email() string     { return n.values[FieldEmail] }
func (n *Normalized) FirstName() string { return n.values[FieldFirstName] }

// FullName joins first and last name.
func (n *Normalized) FullName() string {
	return strings.TrimSpace(n.values[FieldFirstName] + " " + n.values[FieldLastName])
}

package leads

import (
	"regexp"
	"strings"
)

// Draft holds the raw partner form inputs, decoy field included.
type Draft struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CompanyType string `json:"company_type"`
	Message     string `json:"message"`
	Honeypot    string `json:"botcheck"`
}

// Field names used as FieldErrors keys.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldMessage = "message"
	FieldTerms   = "terms"
)

// Code names a single input rule failure.
type Code string

const (
	MissingName        Code = "missing_name"
	MissingEmail       Code = "missing_email"
	InvalidEmailFormat Code = "invalid_email_format"
	MissingMessage     Code = "missing_message"
	TermsNotAccepted   Code = "terms_not_accepted"
)

// Message is the inline text shown next to the offending field.
func (c Code) Message() string {
	switch c {
	case MissingName:
		return "Please enter your first or last name."
	case MissingEmail:
		return "Please enter your email address."
	case InvalidEmailFormat:
		return "Please enter a valid email address."
	case MissingMessage:
		return "Please tell us about your business."
	case TermsNotAccepted:
		return "Please accept the terms and conditions to continue."
	}
	return string(c)
}

// FieldErrors maps a field name to the rule it failed. Empty means valid.
type FieldErrors map[string]Code

// Messages renders the errors for display.
func (fe FieldErrors) Messages() map[string]string {
	out := make(map[string]string, len(fe))
	for field, code := range fe {
		out[field] = code.Message()
	}
	return out
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s has the address shape leads require.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Validate checks every rule independently so all failures surface together.
// Terms acceptance is checked by the gateway, not here.
func Validate(d Draft) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(d.FirstName) == "" && strings.TrimSpace(d.LastName) == "" {
		errs[FieldName] = MissingName
	}

	email := strings.TrimSpace(d.Email)
	switch {
	case email == "":
		errs[FieldEmail] = MissingEmail
	case !ValidEmail(email):
		errs[FieldEmail] = InvalidEmailFormat
	}

	if strings.TrimSpace(d.Message) == "" {
		errs[FieldMessage] = MissingMessage
	}

	return errs
}

// Fields converts a validated draft into store input. Unknown company types
// are dropped to unset rather than failing the whole submission.
func (d Draft) Fields() Fields {
	ct, err := ParseCompanyType(d.CompanyType)
	if err != nil {
		ct = CompanyTypeUnset
	}
	return Fields{
		FirstName:   strings.TrimSpace(d.FirstName),
		LastName:    strings.TrimSpace(d.LastName),
		Company:     strings.TrimSpace(d.Company),
		Email:       strings.TrimSpace(d.Email),
		Phone:       strings.TrimSpace(d.Phone),
		CompanyType: ct,
		Message:     strings.TrimSpace(d.Message),
	}
}

package leads

import (
	"context"
	"fmt"
	"sync"
)

// ResultKind is the last submission outcome shown on the form.
type ResultKind int

const (
	ResultNone ResultKind = iota
	ResultSuccess
	ResultError
)

// Result is the banner state of the form after a submission.
type Result struct {
	Kind    ResultKind
	Message string
}

// Submitter is anything that can run a submission; *Gateway satisfies it.
type Submitter interface {
	Submit(ctx context.Context, draft Draft, termsAccepted bool) Outcome
}

// Form is the client-side state of the partner form: inputs, terms checkbox,
// inline errors, in-flight flag and last result.
type Form struct {
	mu            sync.Mutex
	Draft         Draft
	TermsAccepted bool
	Errors        map[string]string
	Submitting    bool
	Result        Result
}

// NewForm starts an empty form.
func NewForm() *Form {
	return &Form{Errors: map[string]string{}}
}

// Submit sends the current draft. A second call while one is in flight is
// refused with ErrSubmissionInFlight instead of being queued.
func (f *Form) Submit(ctx context.Context, s Submitter) (Outcome, error) {
	f.mu.Lock()
	if f.Submitting {
		f.mu.Unlock()
		return Outcome{}, ErrSubmissionInFlight
	}
	f.Submitting = true
	f.Errors = map[string]string{}
	f.Result = Result{}
	draft, terms := f.Draft, f.TermsAccepted
	f.mu.Unlock()

	out := s.Submit(ctx, draft, terms)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Submitting = false
	f.apply(out)
	return out, nil
}

func (f *Form) apply(out Outcome) {
	switch out.Kind {
	case Submitted:
		f.Draft = Draft{}
		f.TermsAccepted = false
		f.Result = Result{Kind: ResultSuccess, Message: out.Message}
	case ValidationFailed:
		for field, msg := range out.Errors.Messages() {
			f.Errors[field] = msg
		}
	case TermsRejected:
		f.Errors[FieldTerms] = TermsNotAccepted.Message()
	default:
		f.Result = Result{Kind: ResultError, Message: GenericFailureMessage}
	}
}

// Set updates one input by its JSON name and drops the inline error that
// input was showing. Both name inputs clear the shared name error.
func (f *Form) Set(input, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errField string
	switch input {
	case "first_name":
		f.Draft.FirstName, errField = value, FieldName
	case "last_name":
		f.Draft.LastName, errField = value, FieldName
	case "company":
		f.Draft.Company = value
	case "email":
		f.Draft.Email, errField = value, FieldEmail
	case "phone":
		f.Draft.Phone = value
	case "company_type":
		f.Draft.CompanyType = value
	case "message":
		f.Draft.Message, errField = value, FieldMessage
	case "botcheck":
		f.Draft.Honeypot = value
	default:
		return fmt.Errorf("leads: unknown form input %q", input)
	}
	if errField != "" {
		delete(f.Errors, errField)
	}
	return nil
}

// SetTerms toggles the terms checkbox and clears its error.
func (f *Form) SetTerms(accepted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TermsAccepted = accepted
	delete(f.Errors, FieldTerms)
}

// Empty reports whether every input and the terms checkbox are cleared.
func (f *Form) Empty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Draft == (Draft{}) && !f.TermsAccepted
}

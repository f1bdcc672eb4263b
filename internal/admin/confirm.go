package admin

// DeletePrompt is asked before a lead is deleted.
const DeletePrompt = "Are you sure you want to delete this submission?"

// Confirmer asks the operator a blocking yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Answer is a Confirmer whose answer was already given, e.g. by the
// operator submitting the confirmation page.
type Answer bool

func (a Answer) Confirm(string) bool { return bool(a) }

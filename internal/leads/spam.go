package leads

// Classification is the SpamGuard verdict on a submission attempt.
type Classification int

const (
	Clean Classification = iota
	Spam
)

func (c Classification) String() string {
	if c == Spam {
		return "spam"
	}
	return "clean"
}

// CheckHoneypot flags any submission whose decoy field was filled in.
// Humans never see the field, so any content at all counts.
func CheckHoneypot(value string) Classification {
	if value != "" {
		return Spam
	}
	return Clean
}

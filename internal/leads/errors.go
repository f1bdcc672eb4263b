package leads

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no lead has the requested id
	ErrNotFound = errors.New("lead not found")

	// ErrStoreUnavailable is returned when the store cannot be reached
	ErrStoreUnavailable = errors.New("lead store unavailable")

	// ErrStoreRejected is returned when the store refuses a write, e.g. a constraint violation
	ErrStoreRejected = errors.New("lead store rejected the request")

	// ErrInvalidStatus is returned for a status outside the defined set
	ErrInvalidStatus = errors.New("invalid lead status")

	// ErrInvalidCompanyType is returned for an unknown company type
	ErrInvalidCompanyType = errors.New("invalid company type")

	// ErrSpamRejected marks a submission that filled the decoy field
	ErrSpamRejected = errors.New("submission rejected as spam")

	// ErrTermsNotAccepted marks a submission without terms acceptance
	ErrTermsNotAccepted = errors.New("terms not accepted")

	// ErrDeliveryFailed marks a relay that was unreachable or refused the payload
	ErrDeliveryFailed = errors.New("relay delivery failed")

	// ErrSubmissionInFlight is returned when a form is submitted twice concurrently
	ErrSubmissionInFlight = errors.New("submission already in flight")
)

// StoreErrorKind classifies store failures at the repository boundary.
type StoreErrorKind string

const (
	StoreUnavailable StoreErrorKind = "store_unavailable"
	StoreRejected    StoreErrorKind = "store_rejected"
	NotFound         StoreErrorKind = "not_found"
)

// StoreError is the tagged failure every repository implementation returns.
type StoreError struct {
	Op   string
	Kind StoreErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("leads: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("leads: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinels through the wrapper.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == NotFound
	case ErrStoreUnavailable:
		return e.Kind == StoreUnavailable
	case ErrStoreRejected:
		return e.Kind == StoreRejected
	}
	return false
}

func storeErr(op string, kind StoreErrorKind, err error) error {
	return &StoreError{Op: op, Kind: kind, Err: err}
}

// KindOf extracts the store error kind, or "" when err is not a store error.
func KindOf(err error) StoreErrorKind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

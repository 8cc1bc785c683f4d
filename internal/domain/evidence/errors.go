package evidence

import "errors"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUpstream        = errors.New("pinning service failure")
	ErrLedgerWrite     = errors.New("ledger write failure")
)

// Pipeline phases reported alongside failures so callers can tell whether a
// retry is safe (validation and pin failures are retryable, a ledger write
// failure after a successful pin is not).
const (
	PhaseValidate = "validate"
	PhaseEncrypt  = "encrypt"
	PhasePin      = "pin"
	PhaseLedger   = "ledger-write"
	PhaseAccess   = "access-check"
)

// PhaseError wraps an error with the pipeline phase it occurred in.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return e.Phase + ": " + e.Err.Error()
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Phase extracts the pipeline phase from err, or "" if it carries none.
func Phase(err error) string {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase
	}
	return ""
}

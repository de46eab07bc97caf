package authgate

// AuthState is what the gate knows about the user's authentication.
type AuthState int

const (
	AuthUnknown AuthState = iota
	Authenticated
	Unauthenticated
)

func (s AuthState) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Identity is the resolved authentication of the current request.
// UserID and Token are empty unless State is Authenticated.
type Identity struct {
	State  AuthState
	UserID string
	Token  string
}

// FlightState is the single-flight state of the gate.
type FlightState int

const (
	Idle FlightState = iota
	Resuming
	Submitting
	Done
)

func (s FlightState) String() string {
	switch s {
	case Resuming:
		return "resuming"
	case Submitting:
		return "submitting"
	case Done:
		return "done"
	}
	return "idle"
}

// OutcomeKind tags what a guarded submit or a resumption did.
type OutcomeKind int

const (
	// OutcomeNone means nothing was attempted.
	OutcomeNone OutcomeKind = iota
	// OutcomeSubmitted means the remote service confirmed the submission.
	OutcomeSubmitted
	// OutcomeRedirect means the submission was parked and the user must authenticate.
	OutcomeRedirect
	// OutcomeFailed means the single attempt was rejected or failed.
	OutcomeFailed
	// OutcomeDiscarded means a stale pending submission was dropped unsent.
	OutcomeDiscarded
	// OutcomeCancelled means a reset overtook the submit.
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSubmitted:
		return "submitted"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeFailed:
		return "failed"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "none"
}

// Outcome is the result of GuardSubmit or ResumeIfPending.
type Outcome struct {
	Kind           OutcomeKind
	ConfirmationID string
	RedirectURL    string
}

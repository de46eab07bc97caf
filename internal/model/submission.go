package model

import (
	"fmt"
	"strings"
	"time"
)

// CanonicalContact is the contact section with its language set
// resolved into an ordered list.
type CanonicalContact struct {
	Name      string
	Email     string
	Phone     string
	Languages []string
}

// CanonicalFeatures holds the feature sets resolved into ordered lists.
type CanonicalFeatures struct {
	Amenities      []string
	Infrastructure []string
	Accessibility  []string
}

// CanonicalSubmission is the validated, merged projection of a Draft.
// OverallRating is derived from the two source ratings and is nil when
// either of them is missing.
type CanonicalSubmission struct {
	Kind              Kind
	Contact           CanonicalContact
	Location          Location
	Media             Media
	Details           Details
	Cost              Cost
	Features          CanonicalFeatures
	Review            Review
	OverallRating     *float64
	SubmitAnonymously bool
	Promotion         Promotion
}

// PendingSubmission is the durable snapshot taken when a submit is
// blocked by missing authentication.
//
// Fields:
//  Sections          – the draft at the time of the block.
//  SubmitAnonymously – whether the user asked to hide their name.
//  CreatedAt         – UTC time the snapshot was taken.
type PendingSubmission struct {
	Sections          Draft     `json:"sections"`
	SubmitAnonymously bool      `json:"submitAnonymously"`
	CreatedAt         time.Time `json:"createdAt"`
}

// FieldError is a per-field message returned by the remote service.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SubmissionError is returned when the remote collaborator rejects or
// fails a submission.  Status is the HTTP status of the remote reply, or
// zero when the call never got a reply.
type SubmissionError struct {
	Message     string       `json:"message"`
	FieldErrors []FieldError `json:"fieldErrors,omitempty"`
	Status      int          `json:"-"`
}

func (e *SubmissionError) Error() string {
	if len(e.FieldErrors) == 0 {
		return "submission failed: " + e.Message
	}
	parts := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "submission failed: " + e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// SubmissionResult is either a confirmation identifier or an error.
type SubmissionResult struct {
	ConfirmationID string
	Err            *SubmissionError
}

// OK reports whether the remote service confirmed the submission.
func (r SubmissionResult) OK() bool { return r.Err == nil && r.ConfirmationID != "" }

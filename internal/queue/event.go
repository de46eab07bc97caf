// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// SubmissionConfirmedQueue is the durable queue confirmations are
// published to.
const SubmissionConfirmedQueue = "submission.confirmed"

// SubmissionConfirmedEvent is published when the remote service accepted
// a listing or review.  It carries enough for downstream consumers to
// log, notify or trigger analytics without calling the remote service.
type SubmissionConfirmedEvent struct {
	ConfirmationID string `json:"confirmation_id"`
	Kind           string `json:"kind"`
	FlowID         string `json:"flow_id"`
	UserID         string `json:"user_id"`
	Anonymous      bool   `json:"anonymous"`
	ConfirmedAt    string `json:"confirmed_at"`
}

// Package submitclient sends encoded submissions to the remote listing
// service and fans a confirmation out to cache invalidation and event
// hooks.
package submitclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/staywizard/internal/model"
	"github.com/iliyamo/staywizard/internal/payload"
)

// Request is one submission attempt.
type Request struct {
	Kind           model.Kind
	FlowID         string
	UserID         string
	Token          string
	Anonymous      bool
	IdempotencyKey string
	Payload        payload.Payload
}

// Confirmation is passed to every hook after the remote service accepted
// a submission.
type Confirmation struct {
	Kind           model.Kind
	FlowID         string
	UserID         string
	ConfirmationID string
	Anonymous      bool
	ConfirmedAt    time.Time
}

// Hook reacts to a confirmed submission.  Hook failures are logged and
// never change the submission result.
type Hook interface {
	Confirmed(ctx context.Context, c Confirmation) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, c Confirmation) error

func (f HookFunc) Confirmed(ctx context.Context, c Confirmation) error { return f(ctx, c) }

// Client posts multipart payloads to the remote service.
type Client struct {
	baseURL string
	http    *http.Client
	hooks   []Hook
	log     *zap.Logger
	now     func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithHooks registers confirmation hooks, run in order.
func WithHooks(hs ...Hook) Option { return func(c *Client) { c.hooks = append(c.hooks, hs...) } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// New returns a Client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// endpoint maps a kind to its collection path.
func endpoint(k model.Kind) string {
	if k == model.KindReview {
		return "/reviews"
	}
	return "/listings"
}

type successBody struct {
	ID string `json:"id"`
}

type errorBody struct {
	Message string             `json:"message"`
	Error   string             `json:"error"`
	Errors  []model.FieldError `json:"errors"`
}

// Submit performs exactly one POST.  A reply from the remote service is
// always returned as a SubmissionResult; the error return is reserved for
// requests that could not be built.  A transport failure is reported as a
// SubmissionResult with a zero Status.
func (c *Client) Submit(ctx context.Context, req Request) (model.SubmissionResult, error) {
	body, ct, err := req.Payload.Bytes("")
	if err != nil {
		return model.SubmissionResult{}, err
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint(req.Kind), bytes.NewReader(body))
	if err != nil {
		return model.SubmissionResult{}, fmt.Errorf("submitclient: build request: %w", err)
	}
	hr.Header.Set("Content-Type", ct)
	hr.Header.Set("Accept", "application/json")
	if req.Token != "" {
		hr.Header.Set("Authorization", "Bearer "+req.Token)
	}
	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	hr.Header.Set("Idempotency-Key", key)

	resp, err := c.http.Do(hr)
	if err != nil {
		c.log.Warn("submission transport failed", zap.String("flow_id", req.FlowID), zap.Error(err))
		return model.SubmissionResult{Err: &model.SubmissionError{Message: "remote service unreachable"}}, nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var ok successBody
		if err := json.Unmarshal(raw, &ok); err != nil || ok.ID == "" {
			return model.SubmissionResult{Err: &model.SubmissionError{
				Message: "remote service returned no confirmation id", Status: resp.StatusCode,
			}}, nil
		}
		c.confirmed(ctx, req, ok.ID)
		return model.SubmissionResult{ConfirmationID: ok.ID}, nil
	}

	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	msg := eb.Message
	if msg == "" {
		msg = eb.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return model.SubmissionResult{Err: &model.SubmissionError{
		Message: msg, FieldErrors: eb.Errors, Status: resp.StatusCode,
	}}, nil
}

func (c *Client) confirmed(ctx context.Context, req Request, id string) {
	conf := Confirmation{
		Kind:           req.Kind,
		FlowID:         req.FlowID,
		UserID:         req.UserID,
		ConfirmationID: id,
		Anonymous:      req.Anonymous,
		ConfirmedAt:    c.now().UTC(),
	}
	for _, h := range c.hooks {
		if err := h.Confirmed(ctx, conf); err != nil {
			c.log.Warn("confirmation hook failed",
				zap.String("flow_id", req.FlowID),
				zap.String("confirmation_id", id),
				zap.Error(err),
			)
		}
	}
}

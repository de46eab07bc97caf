// Package authgate guards the final submit of a flow.  It parks the
// submission when the user is not authenticated, and after the user comes
// back authenticated it resubmits the parked snapshot at most once.
package authgate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/staywizard/internal/compose"
	"github.com/iliyamo/staywizard/internal/draft"
	"github.com/iliyamo/staywizard/internal/model"
	"github.com/iliyamo/staywizard/internal/payload"
	"github.com/iliyamo/staywizard/internal/submitclient"
)

var (
	// ErrAuthPending is returned when the context ends before the
	// authentication status is known.  Nothing was attempted.
	ErrAuthPending = errors.New("authgate: authentication status not resolved")
	// ErrBusy is returned when the context ends while another submission
	// or resumption holds the gate.
	ErrBusy = errors.New("authgate: another submission is in flight")
	// ErrPendingNotSaved is returned when a blocked submit could not be
	// parked; the user is not redirected so no work is lost.
	ErrPendingNotSaved = errors.New("authgate: could not save pending submission")
	// ErrPendingUnresolved is returned when an authenticated submit cannot
	// claim a parked submission.  Nothing was sent, so the parked one can
	// never be sent after it.
	ErrPendingUnresolved = errors.New("authgate: could not claim pending submission")
)

// Submitter performs the network call.
type Submitter interface {
	Submit(ctx context.Context, req submitclient.Request) (model.SubmissionResult, error)
}

// Config holds gate settings shared by every flow.
type Config struct {
	// AuthURL builds the authentication entry point for a flow.
	AuthURL func(flowID string) string
	// PendingMaxAge discards older pending submissions instead of
	// resubmitting them.  Zero disables the check.
	PendingMaxAge time.Duration
	Now           func() time.Time
	Logger        *zap.Logger
}

// Gate is the submission guard of one flow.
type Gate struct {
	flowID    string
	kind      model.Kind
	drafts    *draft.Store
	pending   PendingStore
	submitter Submitter
	authURL   func(string) string
	maxAge    time.Duration
	now       func() time.Time
	log       *zap.Logger

	// flight is a one-slot semaphore: whoever holds it is the only
	// submission or resumption running for this flow.
	flight chan struct{}

	mu         sync.Mutex
	ident      Identity
	resolved   chan struct{}
	state      FlightState
	generation uint64
	active     int
}

// New returns a Gate for one flow.  The observed authentication state
// starts Unknown until ObserveAuth is called.
func New(flowID string, kind model.Kind, drafts *draft.Store, pending PendingStore, sub Submitter, cfg Config) *Gate {
	g := &Gate{
		flowID:    flowID,
		kind:      kind,
		drafts:    drafts,
		pending:   pending,
		submitter: sub,
		authURL:   cfg.AuthURL,
		maxAge:    cfg.PendingMaxAge,
		now:       cfg.Now,
		log:       cfg.Logger,
		flight:    make(chan struct{}, 1),
		resolved:  make(chan struct{}),
	}
	if g.authURL == nil {
		g.authURL = func(string) string { return "/login" }
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.log == nil {
		g.log = zap.NewNop()
	}
	g.log = g.log.With(zap.String("flow_id", flowID))
	return g
}

// ObserveAuth records the latest authentication status of the flow.
// Calls that were given an Unknown identity wait for it and wake up once
// it is resolved.  A call given a known identity never reads it.
func (g *Gate) ObserveAuth(id Identity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ident = id
	closed := false
	select {
	case <-g.resolved:
		closed = true
	default:
	}
	switch {
	case id.State == AuthUnknown && closed:
		g.resolved = make(chan struct{})
	case id.State != AuthUnknown && !closed:
		close(g.resolved)
	}
}

// Identity returns the last observed identity.
func (g *Gate) Identity() Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ident
}

// Busy reports whether a submit or resumption is running or waiting for
// its turn.
func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active > 0
}

// State returns the single-flight state.
func (g *Gate) State() FlightState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// HasPending reports whether a parked submission exists for this flow.
func (g *Gate) HasPending(ctx context.Context) bool {
	_, ok, err := g.pending.Load(ctx, g.flowID)
	if err != nil {
		g.log.Warn("pending lookup failed", zap.Error(err))
	}
	return ok
}

// GuardSubmit submits sub on behalf of id when id is authenticated.
// Otherwise it parks the current draft as the flow's single
// PendingSubmission and returns a redirect outcome.  An Unknown id waits
// for ObserveAuth; a resumption in flight is waited for.  An
// authenticated submit takes over a parked snapshot, which is then never
// resumed.  A rejected submission is returned as *model.SubmissionError.
func (g *Gate) GuardSubmit(ctx context.Context, id Identity, sub model.CanonicalSubmission) (Outcome, error) {
	defer g.enter()()
	gen := g.currentGeneration()
	id, err := g.resolve(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if err := g.acquire(ctx, Submitting); err != nil {
		return Outcome{}, err
	}
	final := Idle
	defer func() { g.release(final) }()

	if g.currentGeneration() != gen {
		return Outcome{Kind: OutcomeCancelled}, nil
	}

	switch id.State {
	case Authenticated:
		_, superseded, err := g.pending.Take(ctx, g.flowID)
		if err != nil {
			g.log.Error("pending submission not claimed", zap.Error(err))
			return Outcome{}, fmt.Errorf("%w: %v", ErrPendingUnresolved, err)
		}
		if superseded {
			g.log.Info("parked submission superseded by user submit")
		}
		out, err := g.submit(ctx, sub, id, uuid.NewString())
		if out.Kind == OutcomeSubmitted {
			final = Done
		}
		return out, err
	case Unauthenticated:
		p := model.PendingSubmission{
			Sections:          g.drafts.Snapshot(),
			SubmitAnonymously: sub.SubmitAnonymously,
			CreatedAt:         g.now().UTC(),
		}
		if err := g.pending.Save(ctx, g.flowID, p); err != nil {
			g.log.Error("pending submission not saved", zap.Error(err))
			return Outcome{}, fmt.Errorf("%w: %v", ErrPendingNotSaved, err)
		}
		if g.currentGeneration() != gen {
			g.clearPending(ctx)
			return Outcome{Kind: OutcomeCancelled}, nil
		}
		g.log.Info("submission parked for authentication")
		return Outcome{Kind: OutcomeRedirect, RedirectURL: g.authURL(g.flowID)}, nil
	default:
		return Outcome{}, ErrAuthPending
	}
}

// ResumeIfPending is called whenever the flow mounts.  When id is
// authenticated it claims the pending submission, restores it into the
// draft and attempts one submission with id's credentials.  The claim
// removes the snapshot from storage, so whatever the result it is never
// attempted again, by this process or any other.  In any other state the
// snapshot is left alone for a later mount.
func (g *Gate) ResumeIfPending(ctx context.Context, id Identity) (Outcome, error) {
	defer g.enter()()
	id, err := g.resolve(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if id.State != Authenticated {
		return Outcome{}, nil
	}
	if err := g.acquire(ctx, Resuming); err != nil {
		return Outcome{}, err
	}
	final := Idle
	defer func() { g.release(final) }()

	p, ok, err := g.pending.Take(ctx, g.flowID)
	if err != nil {
		g.log.Warn("pending claim failed", zap.Error(err))
		return Outcome{}, nil
	}
	if !ok {
		return Outcome{}, nil
	}

	g.drafts.Restore(ctx, p.Sections)

	if age := g.now().Sub(p.CreatedAt); g.maxAge > 0 && age > g.maxAge {
		g.log.Info("stale pending submission discarded", zap.Duration("age", age))
		return Outcome{Kind: OutcomeDiscarded}, nil
	}

	sub, err := compose.Compose(g.kind, p.Sections)
	if err != nil {
		g.log.Info("pending submission no longer valid", zap.Error(err))
		return Outcome{Kind: OutcomeFailed}, err
	}
	sub.SubmitAnonymously = p.SubmitAnonymously

	key := g.flowID + ":" + strconv.FormatInt(p.CreatedAt.UnixNano(), 10)
	out, err := g.submit(ctx, sub, id, key)
	if out.Kind == OutcomeSubmitted {
		final = Done
	}
	return out, err
}

// Reset drops the pending submission and the draft.  A submit that is
// still waiting for the authentication status is cancelled instead of
// redirecting.
func (g *Gate) Reset(ctx context.Context) error {
	g.mu.Lock()
	g.generation++
	g.mu.Unlock()

	err := g.pending.Clear(ctx, g.flowID)
	g.drafts.ClearDraft(ctx)
	if err != nil {
		g.log.Warn("pending clear failed on reset", zap.Error(err))
		return fmt.Errorf("authgate: reset: %w", err)
	}
	return nil
}

func (g *Gate) submit(ctx context.Context, sub model.CanonicalSubmission, id Identity, key string) (Outcome, error) {
	kind := sub.Kind
	if !kind.Valid() {
		kind = g.kind
	}
	res, err := g.submitter.Submit(ctx, submitclient.Request{
		Kind:           kind,
		FlowID:         g.flowID,
		UserID:         id.UserID,
		Token:          id.Token,
		Anonymous:      sub.SubmitAnonymously,
		IdempotencyKey: key,
		Payload:        payload.Encode(sub),
	})
	if err != nil {
		res = model.SubmissionResult{Err: &model.SubmissionError{Message: err.Error()}}
	}
	if !res.OK() {
		serr := res.Err
		if serr == nil {
			serr = &model.SubmissionError{Message: "no confirmation received"}
		}
		g.log.Warn("submission failed", zap.Int("status", serr.Status), zap.Error(serr))
		return Outcome{Kind: OutcomeFailed}, serr
	}
	g.drafts.ClearDraft(ctx)
	g.log.Info("submission confirmed", zap.String("confirmation_id", res.ConfirmationID))
	return Outcome{Kind: OutcomeSubmitted, ConfirmationID: res.ConfirmationID}, nil
}

// resolve returns id unless it is Unknown, in which case it waits for
// ObserveAuth to report a known status.
func (g *Gate) resolve(ctx context.Context, id Identity) (Identity, error) {
	if id.State != AuthUnknown {
		return id, nil
	}
	return g.waitAuth(ctx)
}

func (g *Gate) waitAuth(ctx context.Context) (Identity, error) {
	for {
		g.mu.Lock()
		id, ch := g.ident, g.resolved
		g.mu.Unlock()
		if id.State != AuthUnknown {
			return id, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return Identity{}, fmt.Errorf("%w: %v", ErrAuthPending, ctx.Err())
		}
	}
}

func (g *Gate) enter() func() {
	g.mu.Lock()
	g.active++
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		g.active--
		g.mu.Unlock()
	}
}

func (g *Gate) acquire(ctx context.Context, st FlightState) error {
	select {
	case g.flight <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrBusy, ctx.Err())
	}
	g.mu.Lock()
	g.state = st
	g.mu.Unlock()
	return nil
}

func (g *Gate) release(final FlightState) {
	g.mu.Lock()
	g.state = final
	g.mu.Unlock()
	<-g.flight
}

func (g *Gate) currentGeneration() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generation
}

// clearPending survives a cancelled request context so a snapshot parked
// after a reset is never left behind by a client disconnect.
func (g *Gate) clearPending(ctx context.Context) {
	if err := g.pending.Clear(context.WithoutCancel(ctx), g.flowID); err != nil {
		g.log.Warn("pending clear failed", zap.Error(err))
	}
}

// Package flow keeps one session per submission flow: its draft store,
// its wizard position and its auth gate.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/staywizard/internal/authgate"
	"github.com/iliyamo/staywizard/internal/draft"
	"github.com/iliyamo/staywizard/internal/model"
	"github.com/iliyamo/staywizard/internal/wizard"
)

var (
	// ErrUnknownFlow is returned for flow ids that were never created or expired.
	ErrUnknownFlow = errors.New("flow: unknown flow")
	// ErrInvalidKind is returned by Create for unsupported kinds.
	ErrInvalidKind = errors.New("flow: invalid kind")
)

// Deps are the collaborators shared by every session.
type Deps struct {
	Backend    draft.Backend
	Pending    authgate.PendingStore
	Submitter  authgate.Submitter
	GateConfig authgate.Config
	Prefix     string
	DraftTTL   time.Duration
	Logger     *zap.Logger
}

// Registry maps flow ids to live sessions.  Sessions are rebuilt from
// durable storage on first use after a restart.
type Registry struct {
	deps Deps
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty Registry.
func NewRegistry(deps Deps) *Registry {
	if deps.Prefix == "" {
		deps.Prefix = "draft"
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Pending == nil {
		deps.Pending = authgate.NewPendingStore(deps.Backend, deps.Prefix, deps.GateConfig.PendingMaxAge)
	}
	if deps.GateConfig.Logger == nil {
		deps.GateConfig.Logger = deps.Logger
	}
	return &Registry{deps: deps, now: time.Now, sessions: make(map[string]*Session)}
}

func (r *Registry) kindKey(id string) string { return r.deps.Prefix + ":" + id + ":kind" }

// Create starts a new flow of kind and returns its session.
func (r *Registry) Create(ctx context.Context, kind model.Kind) (*Session, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	id := uuid.NewString()
	if err := r.deps.Backend.Set(ctx, r.kindKey(id), []byte(kind), r.deps.DraftTTL); err != nil {
		// the flow still works for this process; it just will not
		// survive a restart
		r.deps.Logger.Warn("flow kind not persisted", zap.String("flow_id", id), zap.Error(err))
	}
	s := r.build(id, kind)
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s, nil
}

// Open returns the session of id, loading its draft from storage when
// it is not in memory yet.
func (r *Registry) Open(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		s.touch(r.now())
		return s, nil
	}

	raw, err := r.deps.Backend.Get(ctx, r.kindKey(id))
	if errors.Is(err, draft.ErrNotFound) {
		return nil, ErrUnknownFlow
	}
	if err != nil {
		return nil, fmt.Errorf("flow: load kind: %w", err)
	}
	kind := model.Kind(raw)
	if !kind.Valid() {
		return nil, ErrUnknownFlow
	}

	s = r.build(id, kind)
	s.Drafts.LoadDraft(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	// another request may have loaded it meanwhile
	if existing, ok := r.sessions[id]; ok {
		return existing, nil
	}
	r.sessions[id] = s
	return s, nil
}

// Sweep drops sessions idle for longer than idle.  Sessions with a submit
// or resumption running or waiting are kept.  Drafts and pending
// submissions stay in storage either way.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.lastSeenBefore(cutoff) && !s.Gate.Busy() {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) build(id string, kind model.Kind) *Session {
	drafts := draft.NewStore(r.deps.Backend, id,
		draft.WithPrefix(r.deps.Prefix),
		draft.WithTTL(r.deps.DraftTTL),
		draft.WithLogger(r.deps.Logger),
	)
	return &Session{
		ID:       id,
		Kind:     kind,
		Drafts:   drafts,
		Gate:     authgate.New(id, kind, drafts, r.deps.Pending, r.deps.Submitter, r.deps.GateConfig),
		wizard:   wizard.NewForKind(kind),
		lastSeen: r.now(),
	}
}

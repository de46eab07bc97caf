package flow

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/staywizard/internal/authgate"
	"github.com/iliyamo/staywizard/internal/draft"
	"github.com/iliyamo/staywizard/internal/model"
	"github.com/iliyamo/staywizard/internal/wizard"
)

// Session bundles the per-flow components.  Drafts is the only place the
// draft is mutated; the wizard only reads snapshots of it.
type Session struct {
	ID     string
	Kind   model.Kind
	Drafts *draft.Store
	Gate   *authgate.Gate

	mu       sync.Mutex
	wizard   *wizard.Controller
	lastSeen time.Time
}

// WizardView is the navigation state sent to clients.
type WizardView struct {
	Step     string          `json:"step"`
	Substep  string          `json:"substep"`
	Position wizard.Position `json:"position"`
	Phase    string          `json:"phase"`
	Furthest int             `json:"furthest"`
	Steps    int             `json:"steps"`
	Unmet    []string        `json:"unmet"`
	Ready    bool            `json:"ready"`
}

// Wizard returns the current navigation state.
func (s *Session) Wizard() WizardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Advance moves the wizard forward when the current position is complete.
func (s *Session) Advance() (WizardView, error) {
	return s.navigate(func(w *wizard.Controller) error {
		_, err := w.Advance(s.Drafts.Snapshot())
		return err
	})
}

// Retreat moves the wizard back one position.
func (s *Session) Retreat() (WizardView, error) {
	return s.navigate(func(w *wizard.Controller) error {
		_, err := w.Retreat()
		return err
	})
}

// JumpTo moves the wizard to an already validated step.
func (s *Session) JumpTo(index int) (WizardView, error) {
	return s.navigate(func(w *wizard.Controller) error {
		_, err := w.JumpTo(index, s.Drafts.Snapshot())
		return err
	})
}

// CheckReady returns a *wizard.NotReadyError unless the wizard is on its
// final position and the current draft meets every step.
func (s *Session) CheckReady() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wizard.CheckReady(s.Drafts.Snapshot())
}

// Reset discards the draft and any pending submission and returns the
// wizard to its first position.
func (s *Session) Reset(ctx context.Context) error {
	err := s.Gate.Reset(ctx)
	s.mu.Lock()
	s.wizard = wizard.NewForKind(s.Kind)
	s.mu.Unlock()
	return err
}

func (s *Session) navigate(fn func(w *wizard.Controller) error) (WizardView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn(s.wizard)
	return s.view(), err
}

func (s *Session) view() WizardView {
	d := s.Drafts.Snapshot()
	st, sub := s.wizard.Current()
	state := s.wizard.State()
	unmet := s.wizard.Unmet(d)
	if unmet == nil {
		unmet = []string{}
	}
	return WizardView{
		Step:     st.Name,
		Substep:  sub.Name,
		Position: state.Position,
		Phase:    state.Phase.String(),
		Furthest: s.wizard.Furthest(),
		Steps:    len(s.wizard.Steps()),
		Unmet:    unmet,
		Ready:    s.wizard.ReadyToSubmit(d),
	}
}

func (s *Session) touch(t time.Time) {
	s.mu.Lock()
	s.lastSeen = t
	s.mu.Unlock()
}

func (s *Session) lastSeenBefore(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(t)
}

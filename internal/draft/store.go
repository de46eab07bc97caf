package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/staywizard/internal/model"
)

var (
	// ErrUnknownField is returned by SetField for keys outside the draft schema.
	ErrUnknownField = errors.New("draft: unknown field")
	// ErrInvalidValue is returned by SetField when the value does not fit the field.
	ErrInvalidValue = errors.New("draft: invalid value")
)

// PersistenceWarning describes a failed durable read or write.  It is
// logged and never returned: the in-memory draft stays authoritative.
type PersistenceWarning struct {
	Op  string
	Key string
	Err error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("persistence warning: %s %s: %v", w.Op, w.Key, w.Err)
}

func (w *PersistenceWarning) Unwrap() error { return w.Err }

// Store owns the Draft of one flow.  Every mutation goes through
// SetField, Restore or ClearDraft so the in-memory copy and the durable
// copy never diverge by more than a failed write.
type Store struct {
	backend Backend
	prefix  string
	flowID  string
	ttl     time.Duration
	log     *zap.Logger

	// wmu orders durable writes the same way as the in-memory updates
	// they persist.  It is taken before mu and held across the backend
	// call; readers only take mu.
	wmu   sync.Mutex
	mu    sync.RWMutex
	draft model.Draft
}

// Option customises a Store.
type Option func(*Store)

// WithPrefix sets the storage namespace.  Defaults to "draft".
func WithPrefix(p string) Option { return func(s *Store) { s.prefix = p } }

// WithTTL sets the lifetime of persisted keys.  Zero keeps them forever.
func WithTTL(ttl time.Duration) Option { return func(s *Store) { s.ttl = ttl } }

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// NewStore returns a Store for flowID with an empty draft.  Call
// LoadDraft to pick up previously persisted fields.
func NewStore(backend Backend, flowID string, opts ...Option) *Store {
	s := &Store{backend: backend, prefix: "draft", flowID: flowID, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FlowID returns the flow this store belongs to.
func (s *Store) FlowID() string { return s.flowID }

// FieldKey returns the storage key of a draft field.
func (s *Store) FieldKey(field string) string {
	return s.fieldPrefix() + field
}

func (s *Store) fieldPrefix() string {
	return s.prefix + ":" + s.flowID + ":field:"
}

// Snapshot returns a deep copy of the current draft.
func (s *Store) Snapshot() model.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft.Clone()
}

// SetField writes value into the field named key.  Boolean set fields
// merge the partial object onto the stored set; every other field is
// replaced.  A JSON null resets the field to its default.  The value is
// written in memory first; a failed durable write is only logged.
func (s *Store) SetField(ctx context.Context, key string, value any) error {
	f, ok := model.LookupField(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.Lock()
	next := s.draft.Clone()
	if err := assign(f, &next, raw, true); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	s.draft = next
	stored, err := json.Marshal(f.Ref(&next))
	s.mu.Unlock()
	if err != nil {
		s.warn("encode", key, err)
		return nil
	}

	if err := s.backend.Set(ctx, s.FieldKey(key), stored, s.ttl); err != nil {
		s.warn("set", key, err)
	}
	return nil
}

// LoadDraft rebuilds the draft from every known field key.  Missing keys
// take their schema default; unreadable keys are logged and defaulted.
func (s *Store) LoadDraft(ctx context.Context) model.Draft {
	var d model.Draft
	for _, f := range model.Fields() {
		raw, err := s.backend.Get(ctx, s.FieldKey(f.Key))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			s.warn("get", f.Key, err)
			continue
		}
		if err := assign(f, &d, raw, false); err != nil {
			s.warn("decode", f.Key, err)
		}
	}
	s.mu.Lock()
	s.draft = d
	s.mu.Unlock()
	return d.Clone()
}

// Restore replaces the whole draft, in memory and in storage.  It is
// used to bring back a snapshot taken before an authentication redirect.
func (s *Store) Restore(ctx context.Context, d model.Draft) {
	d = d.Clone()
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.Lock()
	s.draft = d
	s.mu.Unlock()

	for _, f := range model.Fields() {
		stored, err := json.Marshal(f.Ref(&d))
		if err != nil {
			s.warn("encode", f.Key, err)
			continue
		}
		if err := s.backend.Set(ctx, s.FieldKey(f.Key), stored, s.ttl); err != nil {
			s.warn("set", f.Key, err)
		}
	}
}

// ClearDraft empties the draft and removes every persisted key of this
// flow.  It is called after a confirmed submission or an explicit reset,
// never on navigation.
func (s *Store) ClearDraft(ctx context.Context) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.Lock()
	s.draft = model.Draft{}
	s.mu.Unlock()

	keys, err := s.backend.Keys(ctx, s.fieldPrefix())
	if err != nil {
		s.warn("keys", s.fieldPrefix()+"*", err)
		return
	}
	if err := s.backend.Del(ctx, keys...); err != nil {
		s.warn("del", s.fieldPrefix()+"*", err)
	}
}

func (s *Store) warn(op, key string, err error) {
	w := &PersistenceWarning{Op: op, Key: key, Err: err}
	s.log.Warn("draft persistence failed",
		zap.String("flow_id", s.flowID),
		zap.String("op", op),
		zap.String("field", key),
		zap.Error(w),
	)
}

// assign decodes raw into field f of d.  When merge is true, boolean set
// fields are merged onto their current value instead of replaced.
func assign(f model.Field, d *model.Draft, raw []byte, merge bool) error {
	ref := f.Ref(d)
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		v := reflect.ValueOf(ref).Elem()
		v.Set(reflect.Zero(v.Type()))
		return nil
	}
	if f.Kind == model.FieldSet && merge {
		var partial map[string]bool
		if err := json.Unmarshal(raw, &partial); err != nil {
			return err
		}
		set := ref.(*map[string]bool)
		if *set == nil {
			*set = make(map[string]bool, len(partial))
		}
		for k, v := range partial {
			(*set)[k] = v
		}
		return nil
	}
	// decode into a fresh value so a type error leaves the field untouched
	target := reflect.New(reflect.TypeOf(ref).Elem())
	if err := json.Unmarshal(raw, target.Interface()); err != nil {
		return err
	}
	reflect.ValueOf(ref).Elem().Set(target.Elem())
	return nil
}

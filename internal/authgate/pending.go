package authgate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/staywizard/internal/draft"
	"github.com/iliyamo/staywizard/internal/model"
)

// PendingStore holds at most one PendingSubmission per flow.  Save
// overwrites, so repeated blocked submits leave a single snapshot.
type PendingStore interface {
	Save(ctx context.Context, flowID string, p model.PendingSubmission) error
	Load(ctx context.Context, flowID string) (model.PendingSubmission, bool, error)
	// Take removes the snapshot and returns it.  When several processes
	// race for the same snapshot only one of them gets ok == true.
	Take(ctx context.Context, flowID string) (model.PendingSubmission, bool, error)
	Clear(ctx context.Context, flowID string) error
}

// BackendPendingStore keeps the snapshot as one JSON document under
// "<prefix>:<flowID>:pending" in a draft.Backend.
type BackendPendingStore struct {
	backend draft.Backend
	prefix  string
	ttl     time.Duration
}

// NewPendingStore returns a PendingStore on backend.  ttl bounds how long
// a snapshot is kept; zero keeps it until cleared.
func NewPendingStore(backend draft.Backend, prefix string, ttl time.Duration) *BackendPendingStore {
	if prefix == "" {
		prefix = "draft"
	}
	return &BackendPendingStore{backend: backend, prefix: prefix, ttl: ttl}
}

func (s *BackendPendingStore) key(flowID string) string {
	return s.prefix + ":" + flowID + ":pending"
}

func (s *BackendPendingStore) Save(ctx context.Context, flowID string, p model.PendingSubmission) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("pending: encode: %w", err)
	}
	return s.backend.Set(ctx, s.key(flowID), doc, s.ttl)
}

func (s *BackendPendingStore) Load(ctx context.Context, flowID string) (model.PendingSubmission, bool, error) {
	doc, err := s.backend.Get(ctx, s.key(flowID))
	return decodePending(doc, err)
}

func (s *BackendPendingStore) Take(ctx context.Context, flowID string) (model.PendingSubmission, bool, error) {
	doc, err := s.backend.GetDel(ctx, s.key(flowID))
	return decodePending(doc, err)
}

func decodePending(doc []byte, err error) (model.PendingSubmission, bool, error) {
	if errors.Is(err, draft.ErrNotFound) {
		return model.PendingSubmission{}, false, nil
	}
	if err != nil {
		return model.PendingSubmission{}, false, err
	}
	var p model.PendingSubmission
	if err := json.Unmarshal(doc, &p); err != nil {
		return model.PendingSubmission{}, false, fmt.Errorf("pending: decode: %w", err)
	}
	return p, true, nil
}

func (s *BackendPendingStore) Clear(ctx context.Context, flowID string) error {
	return s.backend.Del(ctx, s.key(flowID))
}

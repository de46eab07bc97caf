package service

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/staywizard/internal/middleware"
	"github.com/iliyamo/staywizard/internal/model"
	"github.com/iliyamo/staywizard/internal/repository"
	"github.com/iliyamo/staywizard/internal/submitclient"
)

// CacheNamespaces returns the response-cache namespaces a confirmed
// submission of kind makes stale: the kind's own receipts listing and the
// combined one.
func CacheNamespaces(kind model.Kind) []string {
	return []string{ReceiptsNamespace(kind), ReceiptsNamespace("")}
}

// ReceiptsNamespace is the cache namespace of the my-submissions listing
// filtered by kind.  The empty kind is the unfiltered listing.
func ReceiptsNamespace(kind model.Kind) string {
	switch kind {
	case model.KindListing:
		return "listings"
	case model.KindReview:
		return "reviews"
	}
	return "receipts"
}

// CachePurger drops the cached responses a confirmation invalidates.
type CachePurger struct {
	RDB    *redis.Client
	Prefix string
	Log    *zap.Logger
}

// Confirmed implements submitclient.Hook.
func (p *CachePurger) Confirmed(ctx context.Context, c submitclient.Confirmation) error {
	var errs []error
	for _, ns := range CacheNamespaces(c.Kind) {
		n, err := middleware.Purge(ctx, p.RDB, p.Prefix, ns)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if p.Log != nil && n > 0 {
			p.Log.Debug("cache purged", zap.String("namespace", ns), zap.Int("entries", n))
		}
	}
	return errors.Join(errs...)
}

// ReceiptInserter stores receipts.  *repository.ReceiptRepo satisfies it.
type ReceiptInserter interface {
	Insert(ctx context.Context, rc repository.Receipt) (uint64, error)
}

// ReceiptRecorder stores a receipt row per confirmation.  Recording the
// same confirmation twice is not an error.
type ReceiptRecorder struct {
	Repo ReceiptInserter
}

// Confirmed implements submitclient.Hook.
func (r *ReceiptRecorder) Confirmed(ctx context.Context, c submitclient.Confirmation) error {
	if c.UserID == "" {
		return nil
	}
	_, err := r.Repo.Insert(ctx, repository.Receipt{
		ConfirmationID: c.ConfirmationID,
		FlowID:         c.FlowID,
		Kind:           string(c.Kind),
		UserID:         c.UserID,
		Anonymous:      c.Anonymous,
		ConfirmedAt:    c.ConfirmedAt,
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil
	}
	return err
}

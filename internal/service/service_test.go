package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/staywizard/internal/model"
	"github.com/iliyamo/staywizard/internal/repository"
	"github.com/iliyamo/staywizard/internal/submitclient"
)

type fakeReceipts struct {
	rows []repository.Receipt
	err  error
}

func (f *fakeReceipts) Insert(_ context.Context, rc repository.Receipt) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.rows = append(f.rows, rc)
	return uint64(len(f.rows)), nil
}

var confirmed = submitclient.Confirmation{
	Kind:           model.KindReview,
	FlowID:         "f1",
	UserID:         "7",
	ConfirmationID: "R-9",
	Anonymous:      true,
	ConfirmedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
}

func TestEventFromHidesAnonymousUser(t *testing.T) {
	ev := EventFrom(confirmed)
	if ev.UserID != "" || !ev.Anonymous {
		t.Fatalf("event leaks user: %+v", ev)
	}
	if ev.Kind != "review" || ev.ConfirmedAt != "2026-03-01T12:00:00Z" {
		t.Fatalf("event = %+v", ev)
	}
	named := confirmed
	named.Anonymous = false
	if EventFrom(named).UserID != "7" {
		t.Fatal("user id dropped")
	}
}

func TestReceiptRecorder(t *testing.T) {
	repo := &fakeReceipts{}
	rec := &ReceiptRecorder{Repo: repo}
	if err := rec.Confirmed(context.Background(), confirmed); err != nil {
		t.Fatal(err)
	}
	if len(repo.rows) != 1 || repo.rows[0].ConfirmationID != "R-9" || repo.rows[0].Kind != "review" {
		t.Fatalf("rows = %+v", repo.rows)
	}

	repo.err = repository.ErrConflict
	if err := rec.Confirmed(context.Background(), confirmed); err != nil {
		t.Fatalf("duplicate surfaced: %v", err)
	}
	repo.err = errors.New("db down")
	if err := rec.Confirmed(context.Background(), confirmed); err == nil {
		t.Fatal("db error swallowed")
	}
}

func TestCacheNamespaces(t *testing.T) {
	if ns := CacheNamespaces(model.KindListing); len(ns) != 2 || ns[0] != "listings" || ns[1] != "receipts" {
		t.Fatalf("listing namespaces = %v", ns)
	}
	if ns := CacheNamespaces(model.KindReview); ns[0] != "reviews" {
		t.Fatalf("review namespaces = %v", ns)
	}
}

func TestCachePurgerWithoutRedis(t *testing.T) {
	p := &CachePurger{Prefix: "cache"}
	if err := p.Confirmed(context.Background(), confirmed); err != nil {
		t.Fatalf("purge without redis: %v", err)
	}
}

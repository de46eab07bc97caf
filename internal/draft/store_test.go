package draft_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/staywizard/internal/draft"
	"github.com/iliyamo/staywizard/internal/model"
)

// failingBackend wraps a MemoryBackend and fails every Set.
type failingBackend struct {
	*draft.MemoryBackend
}

func (failingBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("disk full")
}

func TestSetField_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	be := draft.NewMemoryBackend()

	s := draft.NewStore(be, "flow-1")
	steps := []struct {
		key   string
		value any
	}{
		{"location.street", "Main St 1"},
		{"details.category", "Rent"},
		{"location.street", "Main St 2"},
		{"details.rooms", 3},
		{"review.valueForMoney", 4},
		{"features.infrastructure", []string{"Park", "Cafe"}},
	}
	for _, st := range steps {
		if err := s.SetField(ctx, st.key, st.value); err != nil {
			t.Fatalf("set %s: %v", st.key, err)
		}
	}

	got := draft.NewStore(be, "flow-1").LoadDraft(ctx)
	if got.Location.Street != "Main St 2" {
		t.Fatalf("street = %q, want last write", got.Location.Street)
	}
	if got.Details.Category != "Rent" {
		t.Fatalf("category = %q", got.Details.Category)
	}
	if got.Details.Rooms == nil || *got.Details.Rooms != 3 {
		t.Fatalf("rooms = %v", got.Details.Rooms)
	}
	if got.Review.ValueForMoney == nil || *got.Review.ValueForMoney != 4 {
		t.Fatalf("valueForMoney = %v", got.Review.ValueForMoney)
	}
	if len(got.Features.Infrastructure) != 2 || got.Features.Infrastructure[0] != "Park" {
		t.Fatalf("infrastructure = %v", got.Features.Infrastructure)
	}
	if got.Location.City != "" || got.Review.OverallExperience != nil {
		t.Fatalf("untouched fields should keep defaults: %+v", got)
	}
}

func TestSetField_FlowsAreIsolated(t *testing.T) {
	ctx := context.Background()
	be := draft.NewMemoryBackend()
	a := draft.NewStore(be, "a")
	b := draft.NewStore(be, "b")
	if err := a.SetField(ctx, "contact.name", "Ann"); err != nil {
		t.Fatal(err)
	}
	if got := b.LoadDraft(ctx); got.Contact.Name != "" {
		t.Fatalf("flow b sees flow a's field: %q", got.Contact.Name)
	}
}

func TestSetField_SetFieldsMerge(t *testing.T) {
	ctx := context.Background()
	be := draft.NewMemoryBackend()
	s := draft.NewStore(be, "flow-merge")

	if err := s.SetField(ctx, "features.amenities", map[string]bool{"TV set": true, "Balcony": true}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetField(ctx, "features.amenities", map[string]bool{"Balcony": false, "Garden": true}); err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"TV set": true, "Balcony": false, "Garden": true}

	for name, d := range map[string]model.Draft{
		"memory":  s.Snapshot(),
		"durable": draft.NewStore(be, "flow-merge").LoadDraft(ctx),
	} {
		if len(d.Features.Amenities) != len(want) {
			t.Fatalf("%s: amenities = %v, want %v", name, d.Features.Amenities, want)
		}
		for k, v := range want {
			if d.Features.Amenities[k] != v {
				t.Fatalf("%s: amenities[%q] = %v, want %v", name, k, d.Features.Amenities[k], v)
			}
		}
	}
}

// slowFirstSet wraps a MemoryBackend and stalls its first Set until
// release is closed.
type slowFirstSet struct {
	*draft.MemoryBackend
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *slowFirstSet) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.entered)
		<-b.release
	}
	return b.MemoryBackend.Set(ctx, key, value, ttl)
}

func TestSetField_ConcurrentMergesPersistInOrder(t *testing.T) {
	ctx := context.Background()
	mem := draft.NewMemoryBackend()
	be := &slowFirstSet{MemoryBackend: mem, entered: make(chan struct{}), release: make(chan struct{})}
	s := draft.NewStore(be, "flow-race")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.SetField(ctx, "features.amenities", map[string]bool{"TV set": true})
	}()
	<-be.entered
	go func() {
		defer wg.Done()
		_ = s.SetField(ctx, "features.amenities", map[string]bool{"Balcony": true})
	}()
	time.Sleep(20 * time.Millisecond)
	close(be.release)
	wg.Wait()

	inMemory := s.Snapshot().Features.Amenities
	durable := draft.NewStore(mem, "flow-race").LoadDraft(ctx).Features.Amenities
	if !inMemory["TV set"] || !inMemory["Balcony"] {
		t.Fatalf("in memory = %v", inMemory)
	}
	if len(durable) != len(inMemory) || !durable["TV set"] || !durable["Balcony"] {
		t.Fatalf("durable = %v, in memory = %v", durable, inMemory)
	}
}

func TestMemoryBackend_GetDel(t *testing.T) {
	ctx := context.Background()
	be := draft.NewMemoryBackend()
	_ = be.Set(ctx, "k", []byte("v"), 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	hits := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := be.GetDel(ctx, "k"); err == nil && string(v) == "v" {
				mu.Lock()
				hits++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if hits != 1 {
		t.Fatalf("value returned %d times, want once", hits)
	}
	if _, err := be.Get(ctx, "k"); !errors.Is(err, draft.ErrNotFound) {
		t.Fatalf("key still present: %v", err)
	}
}

func TestSetField_RawJSONAndNull(t *testing.T) {
	ctx := context.Background()
	s := draft.NewStore(draft.NewMemoryBackend(), "flow-raw")

	if err := s.SetField(ctx, "cost.price", json.RawMessage(`1250.5`)); err != nil {
		t.Fatal(err)
	}
	if p := s.Snapshot().Cost.Price; p == nil || *p != 1250.5 {
		t.Fatalf("price = %v", p)
	}
	if err := s.SetField(ctx, "cost.price", json.RawMessage(`null`)); err != nil {
		t.Fatal(err)
	}
	if p := s.Snapshot().Cost.Price; p != nil {
		t.Fatalf("price after null = %v, want nil", *p)
	}
}

func TestSetField_Rejects(t *testing.T) {
	ctx := context.Background()
	s := draft.NewStore(draft.NewMemoryBackend(), "flow-bad")

	if err := s.SetField(ctx, "details.colour", "red"); !errors.Is(err, draft.ErrUnknownField) {
		t.Fatalf("unknown key err = %v", err)
	}
	if err := s.SetField(ctx, "details.category", "Rent"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetField(ctx, "details.category", 42); !errors.Is(err, draft.ErrInvalidValue) {
		t.Fatalf("wrong type err = %v", err)
	}
	if got := s.Snapshot().Details.Category; got != "Rent" {
		t.Fatalf("rejected write changed field: %q", got)
	}
}

func TestSetField_StorageFailureIsWarningOnly(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	s := draft.NewStore(failingBackend{draft.NewMemoryBackend()}, "flow-warn", draft.WithLogger(zap.New(core)))

	if err := s.SetField(ctx, "details.description", "Sunny flat"); err != nil {
		t.Fatalf("storage failure must not fail the write: %v", err)
	}
	if got := s.Snapshot().Details.Description; got != "Sunny flat" {
		t.Fatalf("in-memory write lost: %q", got)
	}
	entries := logs.FilterMessage("draft persistence failed").All()
	if len(entries) != 1 {
		t.Fatalf("want 1 warning, got %d", len(entries))
	}
	if f := entries[0].ContextMap()["field"]; f != "details.description" {
		t.Fatalf("warning field = %v", f)
	}
}

func TestClearDraft_RemovesEveryKey(t *testing.T) {
	ctx := context.Background()
	be := draft.NewMemoryBackend()
	s := draft.NewStore(be, "flow-clear")
	other := draft.NewStore(be, "flow-other")

	_ = s.SetField(ctx, "location.street", "Elm 5")
	_ = s.SetField(ctx, "contact.languages", map[string]bool{"English": true})
	_ = other.SetField(ctx, "location.street", "Oak 7")

	s.ClearDraft(ctx)

	keys, _ := be.Keys(ctx, "draft:flow-clear:")
	if len(keys) != 0 {
		t.Fatalf("keys left after clear: %v", keys)
	}
	if got := s.Snapshot(); got.Location.Street != "" {
		t.Fatalf("in-memory draft not cleared: %+v", got.Location)
	}
	if got := draft.NewStore(be, "flow-other").LoadDraft(ctx); got.Location.Street != "Oak 7" {
		t.Fatalf("clear touched another flow: %q", got.Location.Street)
	}
}

func TestRestore_PersistsWholeDraft(t *testing.T) {
	ctx := context.Background()
	be := draft.NewMemoryBackend()
	s := draft.NewStore(be, "flow-restore")

	var d model.Draft
	d.Location.Street = "Birch 9"
	d.Media.CoverPhoto = &model.MediaFile{Name: "c.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}}
	s.Restore(ctx, d)

	got := draft.NewStore(be, "flow-restore").LoadDraft(ctx)
	if got.Location.Street != "Birch 9" {
		t.Fatalf("street = %q", got.Location.Street)
	}
	if got.Media.CoverPhoto == nil || string(got.Media.CoverPhoto.Data) != string([]byte{0xff, 0xd8}) {
		t.Fatalf("cover photo not restored: %+v", got.Media.CoverPhoto)
	}
}

func TestMemoryBackend_TTL(t *testing.T) {
	ctx := context.Background()
	be := draft.NewMemoryBackend()
	if err := be.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, err := be.Get(ctx, "k"); !errors.Is(err, draft.ErrNotFound) {
		t.Fatalf("expired key still readable: %v", err)
	}
}

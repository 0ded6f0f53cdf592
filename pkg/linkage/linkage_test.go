package linkage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/unowned-ai/duet/pkg/gateway"
	"github.com/unowned-ai/duet/pkg/records"
	"github.com/unowned-ai/duet/pkg/store"
)

type fixture struct {
	backend *store.MemoryBackend
	gw      *gateway.Gateway
	engine  *Engine
}

func setupEngine(t *testing.T, owner string, wrap func(store.Adapter) store.Adapter) fixture {
	t.Helper()

	backend := store.NewMemoryBackend()
	rec := records.New(owner)
	if err := backend.Put(context.Background(), owner, owner, rec); err != nil {
		t.Fatalf("Failed to seed %s: %v", owner, err)
	}
	adapter := store.For(backend, owner)
	gw, err := gateway.New(adapter, rec)
	if err != nil {
		t.Fatalf("gateway.New failed: %v", err)
	}
	reader := adapter
	if wrap != nil {
		reader = wrap(adapter)
	}
	engine, err := New(gw, reader)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return fixture{backend: backend, gw: gw, engine: engine}
}

func seedPartner(t *testing.T, backend *store.MemoryBackend, id, link string) *records.AccountRecord {
	t.Helper()
	rec := records.New(id)
	rec.PartnerLink = link
	if err := backend.Put(context.Background(), id, id, rec); err != nil {
		t.Fatalf("Failed to seed %s: %v", id, err)
	}
	return rec
}

func TestSetLinkValidation(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t, "alice", nil)

	for _, code := range []string{"", "   ", "alice", " alice "} {
		err := f.engine.SetLink(ctx, code)
		var invalid *InvalidCodeError
		if !errors.As(err, &invalid) {
			t.Errorf("SetLink(%q): expected *InvalidCodeError, got %v", code, err)
		}
		if !errors.Is(err, ErrInvalidCode) {
			t.Errorf("SetLink(%q): expected error to match ErrInvalidCode", code)
		}
	}
	if link := f.gw.PartnerLink(); link != "" {
		t.Errorf("Rejected codes changed partner_link to %q", link)
	}
}

func TestSetLinkPersists(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t, "alice", nil)

	for _, code := range []string{"bob", " carol ", "bob"} {
		if err := f.engine.SetLink(ctx, code); err != nil {
			t.Fatalf("SetLink(%q) failed: %v", code, err)
		}
		stored, err := f.backend.Get(ctx, "alice", "alice")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if stored.PartnerLink == "" {
			t.Fatalf("partner_link was not persisted")
		}
		if stored.PartnerLink != f.gw.PartnerLink() {
			t.Errorf("Stored link %q differs from in-memory link %q", stored.PartnerLink, f.gw.PartnerLink())
		}
	}
	if link := f.gw.PartnerLink(); link != "bob" {
		t.Errorf("Expected final link bob, got %q", link)
	}
}

func TestObserveUnlinked(t *testing.T) {
	f := setupEngine(t, "alice", nil)

	obs, err := f.engine.Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if obs.State != Unlinked || obs.Partner != nil {
		t.Errorf("Expected Unlinked with no partner, got %+v", obs)
	}
}

func TestObservePendingWhenDenied(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t, "alice", nil)
	seedPartner(t, f.backend, "bob", "")

	if err := f.engine.SetLink(ctx, "bob"); err != nil {
		t.Fatalf("SetLink failed: %v", err)
	}
	obs, err := f.engine.Observe(ctx)
	if err != nil {
		t.Fatalf("Expected permission failure to be swallowed, got %v", err)
	}
	if obs.State != PendingOneWay || obs.Partner != nil || obs.PartnerID != "bob" {
		t.Errorf("Expected PendingOneWay with nil partner, got %+v", obs)
	}
}

func TestObservePendingWhenMissing(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t, "alice", nil)

	if err := f.engine.SetLink(ctx, "nobody"); err != nil {
		t.Fatalf("SetLink failed: %v", err)
	}
	obs, err := f.engine.Observe(ctx)
	if err != nil {
		t.Fatalf("Expected not-found to be swallowed, got %v", err)
	}
	if obs.State != PendingOneWay {
		t.Errorf("Expected PendingOneWay, got %s", obs.State)
	}
}

func TestObserveLinkedAndCache(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t, "alice", nil)
	bob := seedPartner(t, f.backend, "bob", "alice")

	if err := f.engine.SetLink(ctx, "bob"); err != nil {
		t.Fatalf("SetLink failed: %v", err)
	}
	obs, err := f.engine.Observe(ctx)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if obs.State != Linked || obs.Partner == nil || obs.Partner.ID != "bob" {
		t.Fatalf("Expected Linked with bob's record, got %+v", obs)
	}

	bob.Mood = records.MoodSad
	if err := f.backend.Put(ctx, "bob", "bob", bob); err != nil {
		t.Fatalf("Update bob failed: %v", err)
	}

	obs, err = f.engine.Observe(ctx)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if obs.Partner.Mood != records.MoodOkay {
		t.Errorf("Expected cached partner record while the link is unchanged, got mood %s", obs.Partner.Mood)
	}

	obs, err = f.engine.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if obs.Partner.Mood != records.MoodSad {
		t.Errorf("Expected refresh to pick up partner edits, got mood %s", obs.Partner.Mood)
	}
}

func TestObserveRefetchesOnLinkChange(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t, "alice", nil)
	seedPartner(t, f.backend, "bob", "alice")
	seedPartner(t, f.backend, "carol", "")

	if err := f.engine.SetLink(ctx, "bob"); err != nil {
		t.Fatalf("SetLink failed: %v", err)
	}
	if obs, _ := f.engine.Observe(ctx); obs.State != Linked {
		t.Fatalf("Expected Linked to bob, got %s", obs.State)
	}

	if err := f.engine.SetLink(ctx, "carol"); err != nil {
		t.Fatalf("SetLink failed: %v", err)
	}
	obs, err := f.engine.Observe(ctx)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if obs.State != PendingOneWay || obs.PartnerID != "carol" || obs.Partner != nil {
		t.Errorf("Expected PendingOneWay for carol after link change, got %+v", obs)
	}
}

// relinkingReader changes the owner's partner link while a read is in flight.
type relinkingReader struct {
	store.Adapter
	engine *Engine
	relink string
	gets   []string
}

func (r *relinkingReader) Get(ctx context.Context, id string) (*records.AccountRecord, error) {
	r.gets = append(r.gets, id)
	rec, err := r.Adapter.Get(ctx, id)
	if r.relink != "" {
		code := r.relink
		r.relink = ""
		if err := r.engine.SetLink(ctx, code); err != nil {
			return nil, fmt.Errorf("relink: %w", err)
		}
	}
	return rec, err
}

func TestObserveDiscardsStaleRead(t *testing.T) {
	ctx := context.Background()
	var reader *relinkingReader
	f := setupEngine(t, "alice", func(a store.Adapter) store.Adapter {
		reader = &relinkingReader{Adapter: a}
		return reader
	})
	reader.engine = f.engine
	seedPartner(t, f.backend, "bob", "alice")
	seedPartner(t, f.backend, "carol", "alice")

	if err := f.engine.SetLink(ctx, "bob"); err != nil {
		t.Fatalf("SetLink failed: %v", err)
	}
	reader.relink = "carol"

	obs, err := f.engine.Observe(ctx)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if obs.State != Linked || obs.PartnerID != "carol" || obs.Partner == nil || obs.Partner.ID != "carol" {
		t.Errorf("Expected the stale bob read to be discarded in favor of carol, got %+v", obs)
	}
	if len(reader.gets) != 2 || reader.gets[0] != "bob" || reader.gets[1] != "carol" {
		t.Errorf("Expected reads of bob then carol, got %v", reader.gets)
	}
}

type brokenReader struct {
	store.Adapter
}

func (brokenReader) Get(ctx context.Context, id string) (*records.AccountRecord, error) {
	return nil, fmt.Errorf("get %s: %w: connection reset", id, store.ErrStoreUnavailable)
}

func TestObservePropagatesOtherErrors(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t, "alice", func(a store.Adapter) store.Adapter { return brokenReader{a} })

	if err := f.engine.SetLink(ctx, "bob"); err != nil {
		t.Fatalf("SetLink failed: %v", err)
	}
	if _, err := f.engine.Observe(ctx); !errors.Is(err, store.ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable to propagate, got %v", err)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Unlinked, "unlinked"},
		{PendingOneWay, "pending"},
		{Linked, "linked"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/unowned-ai/duet/pkg/db"
	"github.com/unowned-ai/duet/pkg/records"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	if err := db.InitializeSchema(testDB, db.TargetSchemaVersion); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })
	return testDB
}

// backends returns one fresh instance of every Backend implementation.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sqliteBackend, err := NewSQLiteBackend(setupTestDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteBackend failed: %v", err)
	}
	return map[string]Backend{
		"sqlite": sqliteBackend,
		"memory": NewMemoryBackend(),
	}
}

func TestOwnerRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := backend.Get(ctx, "alice", "alice"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Expected ErrNotFound for missing own record, got %v", err)
			}

			rec := records.New("alice")
			rec.Mood = records.MoodHappy
			rec.Wishes = append(rec.Wishes, records.Wish{
				ID: "wish_1", Text: "see the sea", AuthorID: "alice",
				CreatedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
			})
			if err := backend.Put(ctx, "alice", "alice", rec); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			got, err := backend.Get(ctx, "alice", "alice")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.Mood != records.MoodHappy {
				t.Errorf("Expected mood happy, got %s", got.Mood)
			}
			if len(got.Wishes) != 1 {
				t.Fatalf("Expected 1 wish, got %d", len(got.Wishes))
			}
			w := got.Wishes[0]
			if w.ID != "wish_1" || w.Text != "see the sea" || w.AuthorID != "alice" || !w.CreatedAt.Equal(rec.Wishes[0].CreatedAt) {
				t.Errorf("Wish did not round trip: %+v", w)
			}
		})
	}
}

func TestReadPolicy(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			bob := records.New("bob")
			if err := backend.Put(ctx, "bob", "bob", bob); err != nil {
				t.Fatalf("Put bob failed: %v", err)
			}

			if _, err := backend.Get(ctx, "alice", "bob"); !errors.Is(err, ErrPermissionDenied) {
				t.Errorf("Expected ErrPermissionDenied before bob links alice, got %v", err)
			}
			if _, err := backend.Get(ctx, "", "bob"); !errors.Is(err, ErrPermissionDenied) {
				t.Errorf("Expected ErrPermissionDenied for anonymous caller, got %v", err)
			}
			if _, err := backend.Get(ctx, "alice", "nobody"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound for missing partner record, got %v", err)
			}

			bob.PartnerLink = "alice"
			if err := backend.Put(ctx, "bob", "bob", bob); err != nil {
				t.Fatalf("Put bob link failed: %v", err)
			}

			got, err := backend.Get(ctx, "alice", "bob")
			if err != nil {
				t.Fatalf("Expected alice to read bob after bob linked her, got %v", err)
			}
			if got.PartnerLink != "alice" {
				t.Errorf("Expected bob's partner link alice, got %q", got.PartnerLink)
			}

			if _, err := backend.Get(ctx, "carol", "bob"); !errors.Is(err, ErrPermissionDenied) {
				t.Errorf("Expected third party to be denied, got %v", err)
			}
		})
	}
}

func TestWritePolicy(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			bob := records.New("bob")
			bob.PartnerLink = "alice"
			if err := backend.Put(ctx, "bob", "bob", bob); err != nil {
				t.Fatalf("Put bob failed: %v", err)
			}

			tampered := bob.Clone()
			tampered.Mood = records.MoodSad
			if err := backend.Put(ctx, "alice", "bob", tampered); !errors.Is(err, ErrPermissionDenied) {
				t.Errorf("Expected ErrPermissionDenied for partner write, got %v", err)
			}
			if err := backend.Put(ctx, "bob", "bob", records.New("alice")); err == nil {
				t.Errorf("Expected error when record id does not match key")
			}

			got, err := backend.Get(ctx, "bob", "bob")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.Mood != records.MoodOkay {
				t.Errorf("Rejected write changed the record: mood %s", got.Mood)
			}
		})
	}
}

func TestMergeFields(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rec := records.New("alice")
			rec.Goals = append(rec.Goals, records.Goal{ID: "goal_1", Text: "walk", Kind: records.GoalDaily})
			if err := backend.Put(ctx, "alice", "alice", rec); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			partial := records.New("alice")
			partial.Mood = records.MoodSad
			if err := backend.Put(ctx, "alice", "alice", partial, string(records.FieldMood)); err != nil {
				t.Fatalf("Put with merge fields failed: %v", err)
			}

			got, err := backend.Get(ctx, "alice", "alice")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.Mood != records.MoodSad {
				t.Errorf("Expected merged mood sad, got %s", got.Mood)
			}
			if len(got.Goals) != 1 {
				t.Errorf("Expected goals outside merge fields to be kept, got %d", len(got.Goals))
			}
		})
	}
}

func TestSQLiteKeepsUnknownFields(t *testing.T) {
	ctx := context.Background()
	testDB := setupTestDB(t)
	backend, err := NewSQLiteBackend(testDB)
	if err != nil {
		t.Fatalf("NewSQLiteBackend failed: %v", err)
	}

	_, err = testDB.Exec(`INSERT INTO accounts (id, partner_link, document) VALUES (?, NULL, ?)`,
		"alice", `{"id":"alice","theme":"dark","goals":[]}`)
	if err != nil {
		t.Fatalf("Failed to seed document: %v", err)
	}

	rec, err := backend.Get(ctx, "alice", "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	rec.Mood = records.MoodHappy
	if err := backend.Put(ctx, "alice", "alice", rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var document string
	if err := testDB.QueryRow(`SELECT document FROM accounts WHERE id = ?`, "alice").Scan(&document); err != nil {
		t.Fatalf("Failed to read document: %v", err)
	}
	if !strings.Contains(document, `"theme":"dark"`) {
		t.Errorf("Merge write dropped a stored field: %s", document)
	}
	if !strings.Contains(document, `"mood":"happy"`) {
		t.Errorf("Merge write did not apply payload: %s", document)
	}
}

func TestSQLitePartnerLinkColumn(t *testing.T) {
	ctx := context.Background()
	testDB := setupTestDB(t)
	backend, err := NewSQLiteBackend(testDB)
	if err != nil {
		t.Fatalf("NewSQLiteBackend failed: %v", err)
	}

	rec := records.New("alice")
	rec.PartnerLink = "bob"
	if err := backend.Put(ctx, "alice", "alice", rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var link sql.NullString
	if err := testDB.QueryRow(`SELECT partner_link FROM accounts WHERE id = ?`, "alice").Scan(&link); err != nil {
		t.Fatalf("Failed to read partner_link: %v", err)
	}
	if !link.Valid || link.String != "bob" {
		t.Errorf("Expected partner_link column bob, got %+v", link)
	}
}

func TestSQLiteMalformedAndUnavailable(t *testing.T) {
	ctx := context.Background()
	testDB := setupTestDB(t)
	backend, err := NewSQLiteBackend(testDB)
	if err != nil {
		t.Fatalf("NewSQLiteBackend failed: %v", err)
	}

	if _, err := testDB.Exec(`INSERT INTO accounts (id, document) VALUES ('alice', '{not json')`); err != nil {
		t.Fatalf("Failed to seed malformed document: %v", err)
	}
	if _, err := backend.Get(ctx, "alice", "alice"); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("Expected ErrMalformedRecord, got %v", err)
	}

	testDB.Close()
	if _, err := backend.Get(ctx, "alice", "alice"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable on closed database, got %v", err)
	}
	if err := backend.Put(ctx, "alice", "alice", records.New("alice")); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable for write on closed database, got %v", err)
	}
}

func TestMemoryCanceledContext(t *testing.T) {
	backend := NewMemoryBackend()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := backend.Put(ctx, "alice", "alice", records.New("alice")); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
	if !errors.Is(backend.Put(ctx, "alice", "alice", records.New("alice")), context.Canceled) {
		t.Errorf("Expected the context error to stay visible")
	}
}

func TestAdapterBindsCaller(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	alice := For(backend, "alice")

	if err := alice.Put(ctx, "alice", records.New("alice")); err != nil {
		t.Fatalf("Put through adapter failed: %v", err)
	}
	if err := alice.Put(ctx, "bob", records.New("bob")); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Expected adapter to write as alice only, got %v", err)
	}
	if _, err := alice.Get(ctx, "alice"); err != nil {
		t.Errorf("Get through adapter failed: %v", err)
	}
}

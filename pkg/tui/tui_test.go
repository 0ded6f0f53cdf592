package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unowned-ai/duet/pkg/records"
	"github.com/unowned-ai/duet/pkg/session"
	"github.com/unowned-ai/duet/pkg/store"
)

func setupModel(t *testing.T, backend store.Backend, id string) (model, *session.Session) {
	t.Helper()
	sess, err := session.Open(context.Background(), backend, id)
	if err != nil {
		t.Fatalf("session.Open failed: %v", err)
	}
	m := initModel(sess, "/tmp/duet.db")
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(t, m, loadView(sess, false)())
	return m, sess
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

// press sends a key and runs the resulting command, if any, feeding its
// message back into the model.
func press(t *testing.T, m model, key tea.KeyMsg) model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(model)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			if _, isKey := msg.(tea.KeyMsg); !isKey {
				m = update(t, m, msg)
			}
		}
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m model, text string) model {
	t.Helper()
	for _, r := range text {
		next, _ := m.Update(runes(string(r)))
		m = next.(model)
	}
	return m
}

func TestMemoEntry(t *testing.T) {
	m, sess := setupModel(t, store.NewMemoryBackend(), "alice")

	m = press(t, m, runes("n"))
	if m.inputting != inputMemo {
		t.Fatalf("Expected memo input on the home tab, got %v", m.inputting)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.inputError == "" {
		t.Errorf("Expected empty memo to be refused")
	}

	m = typeText(t, m, "dinner at 8")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.inputting != inputNone {
		t.Errorf("Expected input mode to end after submit")
	}

	if memos := sess.Own().Memos; len(memos) != 1 || memos[0].Text != "dinner at 8" {
		t.Fatalf("Expected memo to be stored, got %+v", memos)
	}
	if rows := m.rows(); len(rows) != 1 || rows[0].text != "dinner at 8" {
		t.Errorf("Expected memo in the home list, got %+v", rows)
	}
}

func TestMoodKeys(t *testing.T) {
	m, sess := setupModel(t, store.NewMemoryBackend(), "alice")

	m = press(t, m, runes("3"))
	if got := sess.Own().Mood; got != records.MoodSad {
		t.Errorf("Expected mood sad, got %s", got)
	}
	if m.vm.View.Mood != records.MoodSad {
		t.Errorf("Expected view to be reloaded with the new mood")
	}
}

func TestPartnerItemsAreReadOnly(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()

	bob, err := session.Open(ctx, backend, "bob")
	if err != nil {
		t.Fatalf("session.Open failed: %v", err)
	}
	if _, err := bob.AddMemo(ctx, "miss you"); err != nil {
		t.Fatalf("AddMemo failed: %v", err)
	}
	if err := bob.SetLink(ctx, "alice"); err != nil {
		t.Fatalf("SetLink failed: %v", err)
	}

	m, alice := setupModel(t, backend, "alice")
	if err := alice.SetLink(ctx, "bob"); err != nil {
		t.Fatalf("SetLink failed: %v", err)
	}
	m = press(t, m, runes("r"))

	rows := m.rows()
	if len(rows) != 1 || rows[0].editable {
		t.Fatalf("Expected bob's memo as a read-only row, got %+v", rows)
	}

	m = press(t, m, runes("d"))
	if m.removing {
		t.Errorf("Expected removal of a partner memo to be refused")
	}
	if !strings.Contains(m.status, "read-only") {
		t.Errorf("Expected read-only status, got %q", m.status)
	}
}

func TestTabsAndToggle(t *testing.T) {
	m, sess := setupModel(t, store.NewMemoryBackend(), "alice")
	if _, err := sess.AddGoal(context.Background(), "stretch", records.GoalDaily); err != nil {
		t.Fatalf("AddGoal failed: %v", err)
	}

	for range 3 {
		m = press(t, m, runes("l"))
	}
	if m.tab != tabGoals {
		t.Fatalf("Expected goals tab, got %d", m.tab)
	}
	m = press(t, m, runes("r"))

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if g := sess.Own().Goals[0]; !g.Done {
		t.Errorf("Expected goal to be toggled done")
	}
	if !strings.Contains(m.View(), "Goals") {
		t.Errorf("Expected the goals tab to render")
	}

	m = press(t, m, runes("l"))
	if m.tab != tabHome {
		t.Errorf("Expected tabs to wrap around to home, got %d", m.tab)
	}
}

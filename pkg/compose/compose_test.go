package compose

import (
	"slices"
	"testing"
	"time"

	"github.com/unowned-ai/duet/pkg/records"
)

func at(day int) time.Time {
	return time.Date(2026, 10, day, 12, 0, 0, 0, time.UTC)
}

func ids[T records.Element](items []Item[T]) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Value.ElementID())
	}
	return out
}

func couple() (*records.AccountRecord, *records.AccountRecord) {
	alice := records.New("alice")
	alice.PartnerLink = "bob"
	alice.Goals = []records.Goal{
		{ID: "goal_a1", Text: "walk", Kind: records.GoalDaily, Done: true},
		{ID: "goal_a2", Text: "read", Kind: records.GoalDaily},
		{ID: "goal_a3", Text: "date night", Kind: records.GoalWeekly, Done: true},
	}
	alice.Memos = []records.Memo{
		{ID: "memo_a1", Text: "buy milk", AuthorID: "alice", CreatedAt: at(2)},
		{ID: "memo_a2", Text: "call mom", AuthorID: "alice", CreatedAt: at(5)},
	}
	alice.Wishes = []records.Wish{{ID: "wish_a1", Text: "museum", AuthorID: "alice", CreatedAt: at(3)}}
	alice.AngerLogs = []records.AngerLog{
		{ID: "log_a1", Timestamp: at(1), Intensity: 3},
		{ID: "log_a2", Timestamp: at(4), Intensity: 6},
	}
	alice.DatePlans = []records.DatePlan{
		{ID: "plan_a1", Title: "picnic", Date: "2026-11-10", AuthorID: "alice"},
		{ID: "plan_a2", Title: "movie", Date: "2026-09-01", AuthorID: "alice", Done: true},
	}
	alice.Manual = []records.ManualEntry{
		{ID: "manual_a1", Category: records.CategoryHelp, Content: "tea"},
		{ID: "manual_a2", Category: records.CategoryPleasure, Content: "music"},
	}

	bob := records.New("bob")
	bob.PartnerLink = "alice"
	bob.Goals = []records.Goal{{ID: "goal_b1", Text: "gym", Kind: records.GoalDaily, Done: true}}
	bob.Values = []records.Value{{ID: "value_b1", Label: "honesty"}}
	bob.Memos = []records.Memo{{ID: "memo_b1", Text: "love you", AuthorID: "bob", CreatedAt: at(3)}}
	bob.Wishes = []records.Wish{
		{ID: "wish_b1", Text: "beach", AuthorID: "bob", CreatedAt: at(1)},
		{ID: "wish_b2", Text: "concert", AuthorID: "bob", CreatedAt: at(6)},
	}
	bob.AngerLogs = []records.AngerLog{{ID: "log_b1", Timestamp: at(9), Intensity: 8}}
	bob.DatePlans = []records.DatePlan{
		{ID: "plan_b1", Title: "hike", Date: "2026-10-20", AuthorID: "bob"},
		{ID: "plan_b2", Title: "dinner", Date: "2026-10-01", AuthorID: "bob", Done: true},
	}
	bob.Manual = []records.ManualEntry{{ID: "manual_b1", Category: records.CategoryAnger, Content: "space"}}
	return alice, bob
}

func TestComposeOrdering(t *testing.T) {
	alice, bob := couple()
	v := Compose(alice, bob)

	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"memos newest first", ids(v.Memos), []string{"memo_a2", "memo_b1", "memo_a1"}},
		{"thread oldest first", ids(v.Dashboard.Thread), []string{"memo_a1", "memo_b1", "memo_a2"}},
		{"wishes newest first", ids(v.Wishes), []string{"wish_b2", "wish_a1", "wish_b1"}},
		{"anger logs newest first", ids(v.AngerLogs), []string{"log_b1", "log_a2", "log_a1"}},
		{"upcoming plans by date", ids(v.UpcomingPlans), []string{"plan_b1", "plan_a1"}},
		{"past plans latest first", ids(v.PastPlans), []string{"plan_b2", "plan_a2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !slices.Equal(tt.got, tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestComposePrivateFieldsFromOwnOnly(t *testing.T) {
	alice, bob := couple()
	v := Compose(alice, bob)

	if len(v.Goals) != 3 || len(v.Values) != 0 {
		t.Errorf("Expected only alice's private collections, got %d goals and %d values", len(v.Goals), len(v.Values))
	}
	for _, g := range v.Goals {
		if g.ID == "goal_b1" {
			t.Errorf("Partner goal leaked into the view")
		}
	}
}

func TestComposeEditability(t *testing.T) {
	alice, bob := couple()

	for _, viewer := range []struct {
		own, partner *records.AccountRecord
	}{{alice, bob}, {bob, alice}} {
		v := Compose(viewer.own, viewer.partner)
		for _, it := range v.Wishes {
			if it.Editable != (it.AuthorID == viewer.own.ID) {
				t.Errorf("viewer %s: wish %s by %s has editable=%v", viewer.own.ID, it.Value.ID, it.AuthorID, it.Editable)
			}
		}
		for _, it := range v.AngerLogs {
			if it.Editable != (it.AuthorID == viewer.own.ID) {
				t.Errorf("viewer %s: log %s held by %s has editable=%v", viewer.own.ID, it.Value.ID, it.AuthorID, it.Editable)
			}
		}
		for _, it := range append(slices.Clone(v.UpcomingPlans), v.PastPlans...) {
			if it.Editable != (it.AuthorID == viewer.own.ID) {
				t.Errorf("viewer %s: plan %s by %s has editable=%v", viewer.own.ID, it.Value.ID, it.AuthorID, it.Editable)
			}
		}
	}
}

func TestUnionOrderIndependent(t *testing.T) {
	alice, bob := couple()
	// The same element on both sides, as after an import.
	shared := records.Wish{ID: "wish_dup", Text: "bob's original", AuthorID: "bob", CreatedAt: at(7)}
	bob.Wishes = append(bob.Wishes, shared)
	copied := shared
	copied.Text = "alice's stale copy"
	alice.Wishes = append(alice.Wishes, copied)

	ab := union(alice, bob, func(r *records.AccountRecord) []records.Wish { return r.Wishes })
	ba := union(bob, alice, func(r *records.AccountRecord) []records.Wish { return r.Wishes })

	if !slices.Equal(ids(ab), ids(ba)) {
		t.Fatalf("Union depends on argument order: %v vs %v", ids(ab), ids(ba))
	}
	for i := range ab {
		if ab[i].Value != ba[i].Value {
			t.Errorf("Element %s differs by argument order: %+v vs %+v", ab[i].Value.ID, ab[i].Value, ba[i].Value)
		}
		if ab[i].Value.ID == "wish_dup" && ab[i].Value.Text != "bob's original" {
			t.Errorf("Expected the author's copy to win, got %q", ab[i].Value.Text)
		}
	}

	again := union(alice, alice, func(r *records.AccountRecord) []records.Wish { return r.Wishes })
	if len(again) != len(alice.Wishes) {
		t.Errorf("Union with itself is not idempotent: %d vs %d", len(again), len(alice.Wishes))
	}
}

func TestManualGroups(t *testing.T) {
	alice, bob := couple()
	v := Compose(alice, bob)

	if len(v.Manual) != 2 || v.Manual[0].Category != records.CategoryPleasure || v.Manual[1].Category != records.CategoryHelp {
		t.Fatalf("Expected alice's groups pleasure then help, got %+v", v.Manual)
	}
	for _, g := range v.Manual {
		for _, e := range g.Entries {
			if !e.Editable {
				t.Errorf("Viewer's own manual entry %s should be editable", e.Value.ID)
			}
		}
	}

	if len(v.PartnerManual) != 1 || v.PartnerManual[0].Category != records.CategoryAnger {
		t.Fatalf("Expected bob's single anger group, got %+v", v.PartnerManual)
	}
	if v.PartnerManual[0].Entries[0].Editable {
		t.Errorf("Partner manual entry must be read-only")
	}

	if solo := Compose(alice, nil); solo.PartnerManual != nil {
		t.Errorf("Expected no partner manual without a partner record, got %+v", solo.PartnerManual)
	}
}

func TestDashboard(t *testing.T) {
	alice, bob := couple()
	d := Compose(alice, bob).Dashboard

	if d.OwnProgress.String() != "1/2" {
		t.Errorf("Expected own progress 1/2, got %s", d.OwnProgress)
	}
	if d.PartnerProgress == nil || d.PartnerProgress.String() != "1/1" {
		t.Errorf("Expected partner progress 1/1, got %v", d.PartnerProgress)
	}
	if d.RecentAngerLog == nil || d.RecentAngerLog.ID != "log_a2" {
		t.Errorf("Expected own latest log log_a2, got %+v", d.RecentAngerLog)
	}
	if d.NextPlan == nil || d.NextPlan.Value.ID != "plan_b1" || d.NextPlan.Editable {
		t.Errorf("Expected bob's read-only plan_b1 as next plan, got %+v", d.NextPlan)
	}

	solo := Compose(records.New("carol"), nil).Dashboard
	if solo.OwnProgress.String() != "no goals set" {
		t.Errorf("Expected no goals set, got %s", solo.OwnProgress)
	}
	if solo.PartnerProgress != nil || solo.RecentAngerLog != nil || solo.NextPlan != nil {
		t.Errorf("Expected empty dashboard, got %+v", solo)
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		p    Progress
		want int
	}{
		{Progress{}, 0},
		{Progress{Completed: 1, Total: 2}, 50},
		{Progress{Completed: 3, Total: 3}, 100},
	}
	for _, tt := range tests {
		if got := tt.p.Percent(); got != tt.want {
			t.Errorf("%v.Percent() = %d, want %d", tt.p, got, tt.want)
		}
	}
}

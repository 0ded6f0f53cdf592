// Package compose builds the view rendered for one account from its own
// record and, when readable, its partner's record.
package compose

import (
	"cmp"
	"slices"
	"time"

	"github.com/unowned-ai/duet/pkg/records"
)

// Item is a shared element as seen by the viewer.
type Item[T records.Element] struct {
	Value    T      `json:"value"`
	AuthorID string `json:"author_id"`
	Editable bool   `json:"editable"`
}

// ManualGroup is one category section of an instruction manual.
type ManualGroup struct {
	Category records.ManualCategory      `json:"category"`
	Entries  []Item[records.ManualEntry] `json:"entries"`
}

// View is the composed state for one viewer.
type View struct {
	ViewerID  string       `json:"viewer_id"`
	PartnerID string       `json:"partner_id,omitempty"`
	Mood      records.Mood `json:"mood"`

	Goals       []records.Goal       `json:"goals"`
	Habits      []records.Habit      `json:"habits"`
	Reflections []records.Reflection `json:"reflections"`
	Values      []records.Value      `json:"values"`

	Memos         []Item[records.Memo]         `json:"memos"`
	Wishes        []Item[records.Wish]         `json:"wishes"`
	Appreciations []Item[records.Appreciation] `json:"appreciations"`
	AngerLogs     []Item[records.AngerLog]     `json:"anger_logs"`
	UpcomingPlans []Item[records.DatePlan]     `json:"upcoming_plans"`
	PastPlans     []Item[records.DatePlan]     `json:"past_plans"`

	Manual        []ManualGroup `json:"manual"`
	PartnerManual []ManualGroup `json:"partner_manual,omitempty"`

	Dashboard Dashboard `json:"dashboard"`
}

// HasPartner reports whether a partner record took part in the view.
func (v View) HasPartner() bool { return v.PartnerID != "" }

// Compose merges own and partner into a View. partner may be nil. Private
// collections come from own only.
func Compose(own, partner *records.AccountRecord) View {
	if own == nil {
		return View{}
	}
	if partner != nil && partner.ID == own.ID {
		partner = nil
	}

	v := View{
		ViewerID:    own.ID,
		Mood:        own.Mood,
		Goals:       slices.Clone(own.Goals),
		Habits:      slices.Clone(own.Habits),
		Reflections: slices.Clone(own.Reflections),
		Values:      slices.Clone(own.Values),
	}
	if partner != nil {
		v.PartnerID = partner.ID
	}

	v.Memos = newestFirst(union(own, partner, func(r *records.AccountRecord) []records.Memo { return r.Memos }),
		func(m records.Memo) time.Time { return m.CreatedAt })
	v.Wishes = newestFirst(union(own, partner, func(r *records.AccountRecord) []records.Wish { return r.Wishes }),
		func(w records.Wish) time.Time { return w.CreatedAt })
	v.Appreciations = newestFirst(union(own, partner, func(r *records.AccountRecord) []records.Appreciation { return r.Appreciations }),
		func(a records.Appreciation) time.Time { return a.CreatedAt })
	v.AngerLogs = newestFirst(union(own, partner, func(r *records.AccountRecord) []records.AngerLog { return r.AngerLogs }),
		func(a records.AngerLog) time.Time { return a.Timestamp })

	v.UpcomingPlans, v.PastPlans = splitPlans(union(own, partner, func(r *records.AccountRecord) []records.DatePlan { return r.DatePlans }))

	v.Manual = groupManual(own, own.ID)
	if partner != nil {
		v.PartnerManual = groupManual(partner, own.ID)
	}

	v.Dashboard = buildDashboard(own, partner, v)
	return v
}

type candidate[T records.Element] struct {
	value  T
	author string
	holder string
}

// home reports whether the candidate is held by its author's own record.
func (c candidate[T]) home() bool { return c.author == c.holder }

// union merges the collection picked from own and partner by element id.
// When both sides hold the same id, the author's copy wins; failing that,
// the copy held by the smaller record id.
func union[T records.Element](own, partner *records.AccountRecord, pick func(*records.AccountRecord) []T) []Item[T] {
	byID := map[string]candidate[T]{}
	add := func(holder *records.AccountRecord) {
		if holder == nil {
			return
		}
		for _, el := range pick(holder) {
			c := candidate[T]{value: el, author: authorOf(el, holder.ID), holder: holder.ID}
			prev, ok := byID[el.ElementID()]
			if !ok || preferred(c, prev) {
				byID[el.ElementID()] = c
			}
		}
	}
	add(own)
	add(partner)

	items := make([]Item[T], 0, len(byID))
	for _, c := range byID {
		items = append(items, Item[T]{Value: c.value, AuthorID: c.author, Editable: c.author == own.ID})
	}
	slices.SortFunc(items, func(a, b Item[T]) int {
		return cmp.Compare(a.Value.ElementID(), b.Value.ElementID())
	})
	return items
}

func preferred[T records.Element](c, prev candidate[T]) bool {
	if c.home() != prev.home() {
		return c.home()
	}
	return c.holder < prev.holder
}

// authorOf returns the element's author, or holder for unauthored kinds.
func authorOf(el records.Element, holder string) string {
	if a, ok := el.(records.Authored); ok && a.Author() != "" {
		return a.Author()
	}
	return holder
}

// newestFirst sorts items by key descending, ties broken by id.
func newestFirst[T records.Element](items []Item[T], key func(T) time.Time) []Item[T] {
	slices.SortStableFunc(items, func(a, b Item[T]) int {
		if c := key(b.Value).Compare(key(a.Value)); c != 0 {
			return c
		}
		return cmp.Compare(a.Value.ElementID(), b.Value.ElementID())
	})
	return items
}

// oldestFirst sorts items by key ascending, ties broken by id.
func oldestFirst[T records.Element](items []Item[T], key func(T) time.Time) []Item[T] {
	slices.SortStableFunc(items, func(a, b Item[T]) int {
		if c := key(a.Value).Compare(key(b.Value)); c != 0 {
			return c
		}
		return cmp.Compare(a.Value.ElementID(), b.Value.ElementID())
	})
	return items
}

func planDate(p records.DatePlan) time.Time {
	t, err := records.ParseDate(p.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// splitPlans returns undone plans by date ascending and done plans by date
// descending.
func splitPlans(plans []Item[records.DatePlan]) (upcoming, past []Item[records.DatePlan]) {
	upcoming = []Item[records.DatePlan]{}
	past = []Item[records.DatePlan]{}
	for _, p := range plans {
		if p.Value.Done {
			past = append(past, p)
		} else {
			upcoming = append(upcoming, p)
		}
	}
	return oldestFirst(upcoming, planDate), newestFirst(past, planDate)
}

// groupManual groups holder's manual entries by category in display order,
// omitting empty categories.
func groupManual(holder *records.AccountRecord, viewer string) []ManualGroup {
	groups := []ManualGroup{}
	for _, category := range records.ManualCategories {
		var entries []Item[records.ManualEntry]
		for _, e := range holder.Manual {
			if e.Category == category {
				entries = append(entries, Item[records.ManualEntry]{
					Value:    e,
					AuthorID: holder.ID,
					Editable: holder.ID == viewer,
				})
			}
		}
		if len(entries) > 0 {
			groups = append(groups, ManualGroup{Category: category, Entries: entries})
		}
	}
	return groups
}

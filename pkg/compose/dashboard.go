package compose

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/unowned-ai/duet/pkg/records"
)

// Progress is a daily-goal completion ratio.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

func (p Progress) String() string {
	if p.Total == 0 {
		return "no goals set"
	}
	return fmt.Sprintf("%d/%d", p.Completed, p.Total)
}

// Percent returns the completion as 0..100, or 0 when no goals are set.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return p.Completed * 100 / p.Total
}

// DailyProgress counts the daily goals of rec.
func DailyProgress(rec *records.AccountRecord) Progress {
	var p Progress
	for _, g := range rec.Goals {
		if g.Kind != records.GoalDaily {
			continue
		}
		p.Total++
		if g.Done {
			p.Completed++
		}
	}
	return p
}

// Dashboard holds the summary values of the home screen.
type Dashboard struct {
	Mood records.Mood `json:"mood"`

	OwnProgress Progress `json:"own_progress"`
	// PartnerProgress is nil when no partner record is present.
	PartnerProgress *Progress `json:"partner_progress,omitempty"`

	// RecentAngerLog is the viewer's latest log. Partner logs are not considered.
	RecentAngerLog *records.AngerLog `json:"recent_anger_log,omitempty"`
	// NextPlan is the earliest undone plan of either account.
	NextPlan *Item[records.DatePlan] `json:"next_plan,omitempty"`

	// Thread lists memos oldest first.
	Thread []Item[records.Memo] `json:"thread"`
}

func buildDashboard(own, partner *records.AccountRecord, v View) Dashboard {
	d := Dashboard{
		Mood:        own.Mood,
		OwnProgress: DailyProgress(own),
	}
	if partner != nil {
		p := DailyProgress(partner)
		d.PartnerProgress = &p
	}

	if len(own.AngerLogs) > 0 {
		latest := slices.MaxFunc(own.AngerLogs, func(a, b records.AngerLog) int {
			if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		d.RecentAngerLog = &latest
	}

	if len(v.UpcomingPlans) > 0 {
		next := v.UpcomingPlans[0]
		d.NextPlan = &next
	}

	d.Thread = oldestFirst(slices.Clone(v.Memos), func(m records.Memo) time.Time { return m.CreatedAt })
	return d
}

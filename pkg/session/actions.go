package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/unowned-ai/duet/pkg/gateway"
	"github.com/unowned-ai/duet/pkg/records"
)

// add appends el under id and returns id.
func (s *Session) add(ctx context.Context, c records.Collection, id string, el records.Element) (string, error) {
	if err := s.Apply(ctx, gateway.Append(c, el)); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Session) AddGoal(ctx context.Context, text string, kind records.GoalKind) (string, error) {
	id := records.NewElementID(records.Goals)
	return s.add(ctx, records.Goals, id, records.Goal{ID: id, Text: strings.TrimSpace(text), Kind: kind})
}

// ToggleGoal flips the done flag of goal id.
func (s *Session) ToggleGoal(ctx context.Context, id string) error {
	own := s.gw.Record()
	for _, g := range own.Goals {
		if g.ID == id {
			return s.Apply(ctx, gateway.Update(records.Goals, id, map[string]any{"done": !g.Done}))
		}
	}
	return fmt.Errorf("toggle goal %s: %w", id, gateway.ErrElementNotFound)
}

func (s *Session) AddHabit(ctx context.Context, habit, trigger, idealAction string) (string, error) {
	id := records.NewElementID(records.Habits)
	return s.add(ctx, records.Habits, id, records.Habit{
		ID:          id,
		HabitText:   strings.TrimSpace(habit),
		Trigger:     strings.TrimSpace(trigger),
		IdealAction: strings.TrimSpace(idealAction),
	})
}

// RecordHabitSuccess increments the success counter of habit id.
func (s *Session) RecordHabitSuccess(ctx context.Context, id string) error {
	own := s.gw.Record()
	for _, h := range own.Habits {
		if h.ID == id {
			return s.Apply(ctx, gateway.Update(records.Habits, id, map[string]any{"success_count": h.SuccessCount + 1}))
		}
	}
	return fmt.Errorf("record habit success %s: %w", id, gateway.ErrElementNotFound)
}

func (s *Session) AddReflection(ctx context.Context, r records.Reflection) (string, error) {
	if r.ID == "" {
		r.ID = records.NewElementID(records.Reflections)
	}
	return s.add(ctx, records.Reflections, r.ID, r)
}

func (s *Session) AddValue(ctx context.Context, label, rationale string) (string, error) {
	id := records.NewElementID(records.Values)
	return s.add(ctx, records.Values, id, records.Value{ID: id, Label: strings.TrimSpace(label), Rationale: strings.TrimSpace(rationale)})
}

func (s *Session) SetMood(ctx context.Context, mood records.Mood) error {
	return s.Apply(ctx, gateway.SetScalar(records.FieldMood, string(mood)))
}

func (s *Session) AddAngerLog(ctx context.Context, l records.AngerLog) (string, error) {
	if l.ID == "" {
		l.ID = records.NewElementID(records.AngerLogs)
	}
	return s.add(ctx, records.AngerLogs, l.ID, l)
}

func (s *Session) AddMemo(ctx context.Context, text string) (string, error) {
	id := records.NewElementID(records.Memos)
	return s.add(ctx, records.Memos, id, records.Memo{ID: id, Text: strings.TrimSpace(text)})
}

func (s *Session) AddWish(ctx context.Context, text string) (string, error) {
	id := records.NewElementID(records.Wishes)
	return s.add(ctx, records.Wishes, id, records.Wish{ID: id, Text: strings.TrimSpace(text)})
}

func (s *Session) AddAppreciation(ctx context.Context, text string) (string, error) {
	id := records.NewElementID(records.Appreciations)
	return s.add(ctx, records.Appreciations, id, records.Appreciation{ID: id, Text: strings.TrimSpace(text)})
}

func (s *Session) AddManualEntry(ctx context.Context, category records.ManualCategory, content string) (string, error) {
	id := records.NewElementID(records.Manual)
	return s.add(ctx, records.Manual, id, records.ManualEntry{ID: id, Category: category, Content: strings.TrimSpace(content)})
}

func (s *Session) AddDatePlan(ctx context.Context, title, date, description string) (string, error) {
	id := records.NewElementID(records.DatePlans)
	return s.add(ctx, records.DatePlans, id, records.DatePlan{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Date:        strings.TrimSpace(date),
		Description: strings.TrimSpace(description),
	})
}

// ToggleDatePlan flips the done flag of one of the viewer's own plans.
func (s *Session) ToggleDatePlan(ctx context.Context, id string) error {
	own := s.gw.Record()
	for _, p := range own.DatePlans {
		if p.ID == id {
			return s.Apply(ctx, gateway.Update(records.DatePlans, id, map[string]any{"done": !p.Done}))
		}
	}
	return fmt.Errorf("toggle date plan %s: %w", id, gateway.ErrElementNotFound)
}

// PlanFromWish creates a date plan titled with the wish text. The wish may
// belong to either partner; an own wish is also marked planned.
func (s *Session) PlanFromWish(ctx context.Context, wishID, date string) (string, error) {
	vm, err := s.View(ctx)
	if err != nil {
		return "", err
	}

	for _, it := range vm.View.Wishes {
		if it.Value.ID != wishID {
			continue
		}
		planID, err := s.AddDatePlan(ctx, it.Value.Text, date, "")
		if err != nil {
			return "", err
		}
		if it.Editable && !it.Value.Planned {
			if err := s.Apply(ctx, gateway.Update(records.Wishes, wishID, map[string]any{"planned": true})); err != nil {
				return planID, err
			}
		}
		return planID, nil
	}
	return "", fmt.Errorf("plan from wish %s: %w", wishID, gateway.ErrElementNotFound)
}

// Remove deletes one of the viewer's own elements.
func (s *Session) Remove(ctx context.Context, c records.Collection, id string) error {
	return s.Apply(ctx, gateway.Remove(c, id))
}

package records

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// New returns the default record created on an account's first load: every
// collection empty and the mood set to okay.
func New(id string) *AccountRecord {
	now := time.Now().UTC()
	r := &AccountRecord{ID: id, CreatedAt: now, UpdatedAt: now}
	r.Normalize()
	return r
}

// Normalize fills in what legacy or partially written documents may lack.
// Missing collections become empty lists, a missing mood becomes okay, and
// date plans without an author are attributed to the record's owner.
func (r *AccountRecord) Normalize() {
	if !ValidMood(r.Mood) {
		r.Mood = MoodOkay
	}
	r.Goals = orEmpty(r.Goals)
	r.Habits = orEmpty(r.Habits)
	r.Reflections = orEmpty(r.Reflections)
	r.Values = orEmpty(r.Values)
	r.AngerLogs = orEmpty(r.AngerLogs)
	r.Memos = orEmpty(r.Memos)
	r.Wishes = orEmpty(r.Wishes)
	r.Appreciations = orEmpty(r.Appreciations)
	r.Manual = orEmpty(r.Manual)
	r.DatePlans = orEmpty(r.DatePlans)

	for i := range r.DatePlans {
		if r.DatePlans[i].AuthorID == "" {
			r.DatePlans[i].AuthorID = r.ID
		}
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Clone returns a deep copy of r.
func (r *AccountRecord) Clone() *AccountRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Goals = slices.Clone(r.Goals)
	c.Habits = slices.Clone(r.Habits)
	c.Reflections = slices.Clone(r.Reflections)
	c.Values = slices.Clone(r.Values)
	c.AngerLogs = slices.Clone(r.AngerLogs)
	c.Memos = slices.Clone(r.Memos)
	c.Wishes = slices.Clone(r.Wishes)
	c.Appreciations = slices.Clone(r.Appreciations)
	c.Manual = slices.Clone(r.Manual)
	c.DatePlans = slices.Clone(r.DatePlans)
	c.Normalize()
	return &c
}

// Decode parses a stored document and normalizes it.
func Decode(data []byte) (*AccountRecord, error) {
	var r AccountRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode account record: %w", err)
	}
	if r.ID == "" {
		return nil, fmt.Errorf("decode account record: missing id")
	}
	r.Normalize()
	return &r, nil
}

// Encode serializes r for storage.
func Encode(r *AccountRecord) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode account record %s: %w", r.ID, err)
	}
	return data, nil
}

// Package gateway is the only write path from a session to the store. It
// applies mutations to the caller's own record and persists the whole record
// after each one.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/unowned-ai/duet/pkg/records"
	"github.com/unowned-ai/duet/pkg/store"
)

var (
	ErrNotAuthor          = errors.New("element belongs to another author")
	ErrElementNotFound    = errors.New("element not found")
	ErrImmutableField     = errors.New("field is immutable")
	ErrUnknownCollection  = errors.New("unknown collection")
	ErrInvalidScalarValue = errors.New("invalid scalar value")
)

// Gateway owns the in-memory copy of one account's record.
type Gateway struct {
	mu      sync.Mutex
	adapter store.Adapter
	record  *records.AccountRecord
	logger  *log.Logger
	now     func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

func WithLogger(l *log.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithClock replaces time.Now for created_at and updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New returns a gateway writing own through adapter. The adapter must be
// bound to own.ID.
func New(adapter store.Adapter, own *records.AccountRecord, opts ...Option) (*Gateway, error) {
	if adapter == nil {
		return nil, fmt.Errorf("gateway: adapter is nil")
	}
	if own == nil || own.ID == "" {
		return nil, fmt.Errorf("gateway: own record has no id")
	}
	g := &Gateway{
		adapter: adapter,
		record:  own.Clone(),
		logger:  log.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Owner returns the id of the record this gateway writes.
func (g *Gateway) Owner() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.record.ID
}

// PartnerLink returns the current partner_link of the own record.
func (g *Gateway) PartnerLink() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.record.PartnerLink
}

// Record returns a copy of the current own record.
func (g *Gateway) Record() *records.AccountRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.record.Clone()
}

// Reload replaces the in-memory record with the stored one.
func (g *Gateway) Reload(ctx context.Context) (*records.AccountRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.adapter.Get(ctx, g.record.ID)
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", g.record.ID, err)
	}
	g.record = rec
	return rec.Clone(), nil
}

// Apply performs m on a copy of the own record and persists the result. The
// in-memory record changes only when the write succeeds.
func (g *Gateway) Apply(ctx context.Context, m Mutation) (*records.AccountRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	next := g.record.Clone()

	if err := apply(next, m, now); err != nil {
		return nil, fmt.Errorf("%s: %w", m, err)
	}
	next.UpdatedAt = now

	if err := g.adapter.Put(ctx, next.ID, next); err != nil {
		g.logger.Error("persisting mutation failed", "account", next.ID, "mutation", m.String(), "err", err)
		return nil, fmt.Errorf("%s: %w", m, err)
	}

	g.record = next
	g.logger.Debug("mutation applied", "account", next.ID, "mutation", m.String())
	return next.Clone(), nil
}

func apply(rec *records.AccountRecord, m Mutation, now time.Time) error {
	if m.Kind == KindSetScalar {
		return setScalar(rec, m.Field, m.Value)
	}

	if m.Kind == KindAppend {
		if m.Element == nil {
			return fmt.Errorf("%w: no element given", records.ErrInvalidElement)
		}
		stamped, err := stamp(m.Element, m.Collection, rec.ID, now)
		if err != nil {
			return err
		}
		m.Element = stamped
	}

	switch m.Collection {
	case records.Goals:
		return applyTo(&rec.Goals, m, rec.ID)
	case records.Habits:
		return applyTo(&rec.Habits, m, rec.ID)
	case records.Reflections:
		return applyTo(&rec.Reflections, m, rec.ID)
	case records.Values:
		return applyTo(&rec.Values, m, rec.ID)
	case records.AngerLogs:
		return applyTo(&rec.AngerLogs, m, rec.ID)
	case records.Memos:
		return applyTo(&rec.Memos, m, rec.ID)
	case records.Wishes:
		return applyTo(&rec.Wishes, m, rec.ID)
	case records.Appreciations:
		return applyTo(&rec.Appreciations, m, rec.ID)
	case records.Manual:
		return applyTo(&rec.Manual, m, rec.ID)
	case records.DatePlans:
		return applyTo(&rec.DatePlans, m, rec.ID)
	}
	return fmt.Errorf("%q: %w", m.Collection, ErrUnknownCollection)
}

func applyTo[T records.Element](list *[]T, m Mutation, owner string) error {
	switch m.Kind {
	case KindAppend:
		el, ok := m.Element.(T)
		if !ok {
			return fmt.Errorf("%w: %T does not belong in %s", records.ErrInvalidElement, m.Element, m.Collection)
		}
		if err := el.Validate(); err != nil {
			return err
		}
		if indexOf(*list, el.ElementID()) >= 0 {
			return fmt.Errorf("%w: duplicate id %s", records.ErrInvalidElement, el.ElementID())
		}
		*list = append(*list, el)
		return nil

	case KindUpdate:
		i := indexOf(*list, m.ElementID)
		if i < 0 {
			return fmt.Errorf("%s: %w", m.ElementID, ErrElementNotFound)
		}
		if err := checkAuthor((*list)[i], owner); err != nil {
			return err
		}
		patched, err := patchElement((*list)[i], m.Patch)
		if err != nil {
			return err
		}
		if err := patched.Validate(); err != nil {
			return err
		}
		(*list)[i] = patched
		return nil

	case KindRemove:
		i := indexOf(*list, m.ElementID)
		if i < 0 {
			return fmt.Errorf("%s: %w", m.ElementID, ErrElementNotFound)
		}
		if err := checkAuthor((*list)[i], owner); err != nil {
			return err
		}
		*list = slices.Delete(*list, i, i+1)
		return nil
	}
	return fmt.Errorf("unsupported mutation kind %s", m.Kind)
}

func indexOf[T records.Element](list []T, id string) int {
	return slices.IndexFunc(list, func(el T) bool { return el.ElementID() == id })
}

func checkAuthor(el records.Element, owner string) error {
	if a, ok := el.(records.Authored); ok && a.Author() != owner {
		return fmt.Errorf("%s by %q: %w", el.ElementID(), a.Author(), ErrNotAuthor)
	}
	return nil
}

// stamp fills the id, author and creation time of an element being appended.
func stamp(el records.Element, c records.Collection, owner string, now time.Time) (records.Element, error) {
	if a, ok := el.(records.Authored); ok && a.Author() != "" && a.Author() != owner {
		return nil, fmt.Errorf("author %q: %w", a.Author(), ErrNotAuthor)
	}
	id := el.ElementID()
	if id == "" {
		id = records.NewElementID(c)
	}

	switch e := el.(type) {
	case records.Goal:
		e.ID = id
		return e, nil
	case records.Habit:
		e.ID = id
		return e, nil
	case records.Reflection:
		e.ID = id
		return e, nil
	case records.Value:
		e.ID = id
		return e, nil
	case records.AngerLog:
		e.ID = id
		if e.Timestamp.IsZero() {
			e.Timestamp = now
		}
		return e, nil
	case records.Memo:
		e.ID, e.AuthorID = id, owner
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		return e, nil
	case records.Wish:
		e.ID, e.AuthorID = id, owner
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		return e, nil
	case records.Appreciation:
		e.ID, e.AuthorID = id, owner
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		return e, nil
	case records.ManualEntry:
		e.ID = id
		return e, nil
	case records.DatePlan:
		e.ID, e.AuthorID = id, owner
		return e, nil
	}
	return nil, fmt.Errorf("%w: unsupported element type %T", records.ErrInvalidElement, el)
}

func setScalar(rec *records.AccountRecord, field records.Scalar, value string) error {
	switch field {
	case records.FieldMood:
		mood := records.Mood(strings.TrimSpace(value))
		if !records.ValidMood(mood) {
			return fmt.Errorf("mood %q: %w", value, ErrInvalidScalarValue)
		}
		rec.Mood = mood
		return nil
	case records.FieldPartnerLink:
		link := strings.TrimSpace(value)
		if link == "" || link == rec.ID {
			return fmt.Errorf("partner link %q: %w", value, ErrInvalidScalarValue)
		}
		rec.PartnerLink = link
		return nil
	}
	return fmt.Errorf("field %q: %w", field, ErrInvalidScalarValue)
}

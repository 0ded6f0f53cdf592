// Package linkage derives the partner relationship of one account from its
// partner_link and the outcome of reading the partner's record.
package linkage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/unowned-ai/duet/pkg/gateway"
	"github.com/unowned-ai/duet/pkg/records"
	"github.com/unowned-ai/duet/pkg/store"
)

// State is the linkage state seen by the viewing account. It is never stored.
type State int

const (
	// Unlinked means partner_link is empty.
	Unlinked State = iota
	// PendingOneWay means partner_link is set but the partner record could
	// not be read.
	PendingOneWay
	// Linked means the partner record was read.
	Linked
)

func (s State) String() string {
	switch s {
	case Unlinked:
		return "unlinked"
	case PendingOneWay:
		return "pending"
	case Linked:
		return "linked"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var ErrInvalidCode = errors.New("invalid partner code")

// InvalidCodeError reports a partner code that cannot be linked.
type InvalidCodeError struct {
	Code   string
	Reason string
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid partner code %q: %s", e.Code, e.Reason)
}

func (e *InvalidCodeError) Is(target error) bool {
	return target == ErrInvalidCode
}

// Observation is the result of observing the partner.
type Observation struct {
	State     State
	PartnerID string
	// Partner is nil unless State is Linked.
	Partner *records.AccountRecord
}

// Engine sets the partner link and caches the last partner read.
type Engine struct {
	gw     *gateway.Gateway
	reader store.Adapter
	logger *log.Logger

	mu        sync.Mutex
	cached    bool
	cachedID  string
	cachedRec *records.AccountRecord
}

type Option func(*Engine)

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine that writes through gw and reads partner records
// through reader, which must be bound to the same account as gw.
func New(gw *gateway.Gateway, reader store.Adapter, opts ...Option) (*Engine, error) {
	if gw == nil || reader == nil {
		return nil, fmt.Errorf("linkage: gateway and reader are required")
	}
	e := &Engine{gw: gw, reader: reader, logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SetLink validates code and persists it as the account's partner_link.
func (e *Engine) SetLink(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	owner := e.gw.Owner()

	switch {
	case code == "":
		return &InvalidCodeError{Code: code, Reason: "code is empty"}
	case code == owner:
		return &InvalidCodeError{Code: code, Reason: "cannot link an account to itself"}
	}

	if _, err := e.gw.Apply(ctx, gateway.SetScalar(records.FieldPartnerLink, code)); err != nil {
		return fmt.Errorf("set partner link: %w", err)
	}
	e.logger.Info("partner link set", "account", owner, "partner", code)
	return nil
}

// Observe returns the current linkage, reading the partner record only when
// partner_link differs from the cached partner.
func (e *Engine) Observe(ctx context.Context) (Observation, error) {
	return e.observe(ctx, false)
}

// Refresh rereads the partner record regardless of the cache.
func (e *Engine) Refresh(ctx context.Context) (Observation, error) {
	return e.observe(ctx, true)
}

func (e *Engine) observe(ctx context.Context, force bool) (Observation, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Observation{}, err
		}

		target := e.gw.PartnerLink()
		if target == "" {
			e.remember(target, nil)
			return Observation{State: Unlinked}, nil
		}

		e.mu.Lock()
		if !force && e.cached && e.cachedID == target {
			obs := e.observation()
			e.mu.Unlock()
			return obs, nil
		}
		e.mu.Unlock()

		partner, err := e.reader.Get(ctx, target)

		if current := e.gw.PartnerLink(); current != target {
			e.logger.Debug("discarding stale partner read", "target", target, "current", current)
			continue
		}

		switch {
		case err == nil:
		case errors.Is(err, store.ErrPermissionDenied), errors.Is(err, store.ErrNotFound):
			e.logger.Warn("partner record unavailable", "partner", target, "err", err)
			partner = nil
		default:
			return Observation{State: PendingOneWay, PartnerID: target}, fmt.Errorf("fetch partner %s: %w", target, err)
		}

		e.remember(target, partner)
		e.mu.Lock()
		obs := e.observation()
		e.mu.Unlock()
		return obs, nil
	}
}

func (e *Engine) remember(target string, partner *records.AccountRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cached = true
	e.cachedID = target
	e.cachedRec = partner
}

// observation builds the result from the cache. e.mu must be held.
func (e *Engine) observation() Observation {
	switch {
	case e.cachedID == "":
		return Observation{State: Unlinked}
	case e.cachedRec == nil:
		return Observation{State: PendingOneWay, PartnerID: e.cachedID}
	}
	return Observation{State: Linked, PartnerID: e.cachedID, Partner: e.cachedRec.Clone()}
}

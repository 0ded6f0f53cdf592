// Package session wires the store, gateway, linkage engine and composer for
// one signed-in account.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/unowned-ai/duet/pkg/compose"
	"github.com/unowned-ai/duet/pkg/gateway"
	"github.com/unowned-ai/duet/pkg/identity"
	"github.com/unowned-ai/duet/pkg/linkage"
	"github.com/unowned-ai/duet/pkg/records"
	"github.com/unowned-ai/duet/pkg/store"
)

// ViewModel is what the presentation layer renders.
type ViewModel struct {
	Own       *records.AccountRecord `json:"own"`
	Partner   *records.AccountRecord `json:"partner"`
	Linkage   linkage.State          `json:"linkage"`
	PartnerID string                 `json:"partner_id,omitempty"`
	View      compose.View           `json:"view"`
}

// Session is the per-account state of a signed-in client.
type Session struct {
	accountID string
	gw        *gateway.Gateway
	engine    *linkage.Engine
	logger    *log.Logger
}

type Option func(*options)

type options struct {
	logger *log.Logger
	now    func() time.Time
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock replaces time.Now for stamps written by the session.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{logger: log.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open loads accountID's record from backend, creating the default record on
// first use.
func Open(ctx context.Context, backend store.Backend, accountID string, opts ...Option) (*Session, error) {
	if accountID == "" {
		return nil, identity.ErrSignedOut
	}
	o := buildOptions(opts)
	adapter := store.For(backend, accountID)

	own, err := adapter.Get(ctx, accountID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		own = records.New(accountID)
		if err := adapter.Put(ctx, accountID, own); err != nil {
			return nil, fmt.Errorf("create account record %s: %w", accountID, err)
		}
		o.logger.Info("created account record", "account", accountID)
	case err != nil:
		return nil, fmt.Errorf("load account record %s: %w", accountID, err)
	}

	gw, err := gateway.New(adapter, own, gateway.WithLogger(o.logger), gateway.WithClock(o.now))
	if err != nil {
		return nil, err
	}
	engine, err := linkage.New(gw, adapter, linkage.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	return &Session{accountID: accountID, gw: gw, engine: engine, logger: o.logger}, nil
}

func (s *Session) AccountID() string { return s.accountID }

// Own returns a copy of the own record.
func (s *Session) Own() *records.AccountRecord { return s.gw.Record() }

// View observes the partner and composes the view model.
func (s *Session) View(ctx context.Context) (ViewModel, error) {
	obs, err := s.engine.Observe(ctx)
	if err != nil {
		return ViewModel{}, err
	}
	return s.viewModel(obs), nil
}

// Refresh rereads the own and partner records from the store.
func (s *Session) Refresh(ctx context.Context) (ViewModel, error) {
	if _, err := s.gw.Reload(ctx); err != nil {
		return ViewModel{}, err
	}
	obs, err := s.engine.Refresh(ctx)
	if err != nil {
		return ViewModel{}, err
	}
	return s.viewModel(obs), nil
}

func (s *Session) viewModel(obs linkage.Observation) ViewModel {
	own := s.gw.Record()
	return ViewModel{
		Own:       own,
		Partner:   obs.Partner,
		Linkage:   obs.State,
		PartnerID: obs.PartnerID,
		View:      compose.Compose(own, obs.Partner),
	}
}

// SetLink stores code as the partner link.
func (s *Session) SetLink(ctx context.Context, code string) error {
	return s.engine.SetLink(ctx, code)
}

// Apply passes m to the gateway.
func (s *Session) Apply(ctx context.Context, m gateway.Mutation) error {
	_, err := s.gw.Apply(ctx, m)
	return err
}

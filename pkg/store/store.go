// Package store persists one JSON document per account and enforces the
// partner read policy: an account always reads and writes its own document,
// and may read another account's document only after that account has
// named it as partner.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/unowned-ai/duet/pkg/records"
)

var (
	ErrNotFound         = errors.New("account record not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrMalformedRecord  = errors.New("malformed account record")
)

// Backend is the shared document storage. Every call names the
// authenticated caller so the backend can apply the access policy.
type Backend interface {
	Get(ctx context.Context, caller, id string) (*records.AccountRecord, error)
	Put(ctx context.Context, caller, id string, rec *records.AccountRecord, mergeFields ...string) error
}

// Adapter is a Backend bound to one authenticated caller.
type Adapter interface {
	Get(ctx context.Context, id string) (*records.AccountRecord, error)
	// Put merge-writes rec under id. Stored top-level fields missing from the
	// payload are kept; mergeFields, when given, limits the overwrite to
	// those fields.
	Put(ctx context.Context, id string, rec *records.AccountRecord, mergeFields ...string) error
}

type boundAdapter struct {
	backend Backend
	caller  string
}

// For binds backend to caller.
func For(backend Backend, caller string) Adapter {
	return boundAdapter{backend: backend, caller: caller}
}

func (a boundAdapter) Get(ctx context.Context, id string) (*records.AccountRecord, error) {
	return a.backend.Get(ctx, a.caller, id)
}

func (a boundAdapter) Put(ctx context.Context, id string, rec *records.AccountRecord, mergeFields ...string) error {
	return a.backend.Put(ctx, a.caller, id, rec, mergeFields...)
}

// CanRead applies the read policy to a stored document whose partner link is partnerLink.
func CanRead(caller, id, partnerLink string) bool {
	if caller == "" {
		return false
	}
	return caller == id || partnerLink == caller
}

// CanWrite reports whether caller may write the document stored under id.
func CanWrite(caller, id string) bool {
	return caller != "" && caller == id
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func malformed(id string, err error) error {
	return fmt.Errorf("account %s: %w: %w", id, ErrMalformedRecord, err)
}

// Option configures a backend.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger used by the backend.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// preparePut checks ownership and merges the payload into the stored document.
// existing is nil when no document is stored yet.
func preparePut(caller, id string, rec *records.AccountRecord, existing []byte, mergeFields []string) (merged []byte, partnerLink string, err error) {
	if !CanWrite(caller, id) {
		return nil, "", fmt.Errorf("put %s as %q: %w", id, caller, ErrPermissionDenied)
	}
	if rec == nil {
		return nil, "", fmt.Errorf("put %s: record is nil", id)
	}
	if rec.ID != id {
		return nil, "", fmt.Errorf("put %s: record id %q does not match key", id, rec.ID)
	}

	payload, err := records.Encode(rec)
	if err != nil {
		return nil, "", err
	}
	merged, err = mergeDocument(existing, payload, mergeFields)
	if err != nil {
		return nil, "", malformed(id, err)
	}
	result, err := records.Decode(merged)
	if err != nil {
		return nil, "", malformed(id, err)
	}
	return merged, result.PartnerLink, nil
}

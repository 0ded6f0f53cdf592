package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/unowned-ai/duet/pkg/records"
)

// MemoryBackend is an in-memory Backend intended for tests and demos. It
// stores encoded documents, so callers never share memory with it.
type MemoryBackend struct {
	mu     sync.RWMutex
	docs   map[string]memoryDoc
	logger *log.Logger
}

type memoryDoc struct {
	partnerLink string
	document    []byte
}

func NewMemoryBackend(opts ...Option) *MemoryBackend {
	o := buildOptions(opts)
	return &MemoryBackend{docs: map[string]memoryDoc{}, logger: o.logger}
}

func (m *MemoryBackend) Get(ctx context.Context, caller, id string) (*records.AccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get "+id, err)
	}

	m.mu.RLock()
	doc, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if !CanRead(caller, id, doc.partnerLink) {
		return nil, fmt.Errorf("get %s as %q: %w", id, caller, ErrPermissionDenied)
	}

	rec, err := records.Decode(doc.document)
	if err != nil {
		return nil, malformed(id, err)
	}
	return rec, nil
}

func (m *MemoryBackend) Put(ctx context.Context, caller, id string, rec *records.AccountRecord, mergeFields ...string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("put "+id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var existing []byte
	if doc, ok := m.docs[id]; ok {
		existing = doc.document
	}
	merged, partnerLink, err := preparePut(caller, id, rec, existing, mergeFields)
	if err != nil {
		return err
	}
	m.docs[id] = memoryDoc{partnerLink: partnerLink, document: merged}
	m.logger.Debug("account written", "account", id, "bytes", len(merged))
	return nil
}

// Raw returns the stored document for id, bypassing the access policy.
func (m *MemoryBackend) Raw(id string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), doc.document...), true
}

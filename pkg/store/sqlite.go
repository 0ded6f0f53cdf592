package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/unowned-ai/duet/pkg/records"
)

const (
	getAccountStatement = `
	SELECT partner_link, document
	FROM accounts
	WHERE id = ?
	`

	getDocumentStatement = `
	SELECT document
	FROM accounts
	WHERE id = ?
	`

	upsertAccountStatement = `
	INSERT INTO accounts (id, partner_link, document)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		partner_link = excluded.partner_link,
		document = excluded.document,
		updated_at = unixepoch()
	`
)

// SQLiteBackend stores account documents in the accounts table. The
// partner_link column mirrors the document field so reads can be authorized
// before decoding.
type SQLiteBackend struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteBackend returns a backend over an initialized database handle.
func NewSQLiteBackend(db *sql.DB, opts ...Option) (*SQLiteBackend, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite backend: db is nil")
	}
	o := buildOptions(opts)
	return &SQLiteBackend{db: db, logger: o.logger}, nil
}

func (s *SQLiteBackend) Get(ctx context.Context, caller, id string) (*records.AccountRecord, error) {
	var partnerLink sql.NullString
	var document string

	err := s.db.QueryRowContext(ctx, getAccountStatement, id).Scan(&partnerLink, &document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
		}
		return nil, unavailable("get "+id, err)
	}

	if !CanRead(caller, id, partnerLink.String) {
		s.logger.Debug("read denied", "caller", caller, "account", id)
		return nil, fmt.Errorf("get %s as %q: %w", id, caller, ErrPermissionDenied)
	}

	rec, err := records.Decode([]byte(document))
	if err != nil {
		return nil, malformed(id, err)
	}
	return rec, nil
}

func (s *SQLiteBackend) Put(ctx context.Context, caller, id string, rec *records.AccountRecord, mergeFields ...string) error {
	if !CanWrite(caller, id) {
		return fmt.Errorf("put %s as %q: %w", id, caller, ErrPermissionDenied)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("put "+id, err)
	}
	defer tx.Rollback()

	var existing []byte
	var document string
	err = tx.QueryRowContext(ctx, getDocumentStatement, id).Scan(&document)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return unavailable("put "+id, err)
	default:
		existing = []byte(document)
	}

	merged, partnerLink, err := preparePut(caller, id, rec, existing, mergeFields)
	if err != nil {
		return err
	}

	var link any
	if partnerLink != "" {
		link = partnerLink
	}
	if _, err := tx.ExecContext(ctx, upsertAccountStatement, id, link, string(merged)); err != nil {
		return unavailable("put "+id, err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable("put "+id, err)
	}

	s.logger.Debug("account written", "account", id, "bytes", len(merged))
	return nil
}

package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

const (
	insertProfileStatement = `
	INSERT INTO profiles (username, password_hash, account_id)
	VALUES (?, ?, ?)
	`

	getProfileStatement = `
	SELECT password_hash, account_id
	FROM profiles
	WHERE username = ?
	`

	profileExistsStatement = `
	SELECT COUNT(*) FROM profiles WHERE username = ?
	`
)

// Local is a Provider backed by the profiles table, with bcrypt password hashes.
type Local struct {
	broadcaster
	db     *sql.DB
	logger *log.Logger
}

func NewLocal(db *sql.DB, logger *log.Logger) (*Local, error) {
	if db == nil {
		return nil, fmt.Errorf("local identity: db is nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Local{db: db, logger: logger}, nil
}

// SignUp registers username with a fresh account id and signs it in.
func (l *Local) SignUp(ctx context.Context, username, password string) (Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Identity{}, fmt.Errorf("sign up: username is empty")
	}
	if len(password) < minPasswordLength {
		return Identity{}, fmt.Errorf("sign up: password must be at least %d characters", minPasswordLength)
	}

	var count int
	if err := l.db.QueryRowContext(ctx, profileExistsStatement, username).Scan(&count); err != nil {
		return Identity{}, fmt.Errorf("sign up: check user: %w", err)
	}
	if count > 0 {
		return Identity{}, fmt.Errorf("sign up %s: %w", username, ErrUserExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, fmt.Errorf("sign up: hash password: %w", err)
	}

	id := Identity{AccountID: uuid.NewString(), Username: username}
	if _, err := l.db.ExecContext(ctx, insertProfileStatement, username, hash, id.AccountID); err != nil {
		return Identity{}, fmt.Errorf("sign up: insert profile: %w", err)
	}

	l.logger.Info("account registered", "username", username, "account", id.AccountID)
	l.set(id)
	return id, nil
}

// SignIn verifies the credentials and emits the identity.
func (l *Local) SignIn(ctx context.Context, username, password string) (Identity, error) {
	var hash []byte
	var accountID string
	err := l.db.QueryRowContext(ctx, getProfileStatement, strings.TrimSpace(username)).Scan(&hash, &accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("sign in: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("sign in: compare password: %w", err)
	}

	id := Identity{AccountID: accountID, Username: strings.TrimSpace(username)}
	l.set(id)
	return id, nil
}

// SignOut emits the signed-out identity.
func (l *Local) SignOut() {
	l.set(Identity{})
}

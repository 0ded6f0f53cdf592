package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	pkgdb "github.com/unowned-ai/duet/pkg/db"
	"github.com/unowned-ai/duet/pkg/identity"
	"github.com/unowned-ai/duet/pkg/session"
	"github.com/unowned-ai/duet/pkg/store"
	"github.com/unowned-ai/duet/pkg/utils"
)

const (
	envUser     = "DUET_USER"
	envPassword = "DUET_PASSWORD"
)

func openDB() (*sql.DB, string, error) {
	path, err := utils.ResolveAndEnsureDBPath(dbPath)
	if err != nil {
		return nil, "", err
	}
	dbConn, err := pkgdb.OpenDBConnectionWithDriver(driverName, path, walMode, syncMode)
	if err != nil {
		return nil, "", err
	}
	if err := pkgdb.UpgradeDB(dbConn, path, pkgdb.TargetSchemaVersion); err != nil {
		dbConn.Close()
		return nil, "", err
	}
	return dbConn, path, nil
}

func credentials() (string, string, error) {
	user, password := userFlag, passwordFlag
	if user == "" {
		user = os.Getenv(envUser)
	}
	if password == "" {
		password = os.Getenv(envPassword)
	}
	if user == "" {
		return "", "", fmt.Errorf("no user given: pass --user or set %s", envUser)
	}
	return user, password, nil
}

// app is the per-invocation wiring: the database, the local identity
// provider and the session manager following it.
type app struct {
	db      *sql.DB
	path    string
	local   *identity.Local
	manager *session.Manager
}

func openApp(ctx context.Context) (*app, error) {
	dbConn, path, err := openDB()
	if err != nil {
		return nil, err
	}
	local, err := identity.NewLocal(dbConn, logger)
	if err != nil {
		dbConn.Close()
		return nil, err
	}
	backend, err := store.NewSQLiteBackend(dbConn, store.WithLogger(logger))
	if err != nil {
		dbConn.Close()
		return nil, err
	}

	manager := session.NewManager(backend, local, session.WithLogger(logger))
	manager.Start(ctx)
	return &app{db: dbConn, path: path, local: local, manager: manager}, nil
}

// signIn signs in with the configured credentials and returns the session
// opened for that account.
func (a *app) signIn(ctx context.Context) (*session.Session, error) {
	user, password, err := credentials()
	if err != nil {
		return nil, err
	}
	if _, err := a.local.SignIn(ctx, user, password); err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, fmt.Errorf("sign in as %s: %w", user, err)
		}
		return nil, err
	}
	return a.manager.Session()
}

func (a *app) Close() {
	a.manager.Close()
	a.db.Close()
}

// withSession runs fn with a signed-in session and closes everything after.
func withSession(ctx context.Context, fn func(*session.Session) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.signIn(ctx)
	if err != nil {
		return err
	}
	return fn(sess)
}

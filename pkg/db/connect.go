package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver (cgo)
	_ "modernc.org/sqlite"          // SQLite driver (pure Go)
)

const (
	// DriverCGO is the mattn/go-sqlite3 driver name.
	DriverCGO = "sqlite3"
	// DriverPureGo is the modernc.org/sqlite driver name.
	DriverPureGo = "sqlite"
)

// validSyncModes lists the allowed values for the synchronous pragma.
var validSyncModes = map[string]bool{
	"OFF":    true,
	"NORMAL": true,
	"FULL":   true,
	"EXTRA":  true, // SQLite also supports EXTRA
}

// OpenDBConnection establishes a connection to a SQLite database through the cgo driver.
// baseDSN is the initial data source name (e.g., file path).
// enableWAL sets the journal_mode to WAL if true.
// syncPragma sets the synchronous pragma (e.g., "OFF", "NORMAL", "FULL", "EXTRA").
func OpenDBConnection(baseDSN string, enableWAL bool, syncPragma string) (*sql.DB, error) {
	return OpenDBConnectionWithDriver(DriverCGO, baseDSN, enableWAL, syncPragma)
}

// OpenDBConnectionWithDriver is OpenDBConnection with an explicit driver name,
// either DriverCGO or DriverPureGo. The two drivers spell their pragma DSN
// parameters differently.
func OpenDBConnectionWithDriver(driver, baseDSN string, enableWAL bool, syncPragma string) (*sql.DB, error) {
	if driver == "" {
		driver = DriverCGO
	}
	if driver != DriverCGO && driver != DriverPureGo {
		return nil, fmt.Errorf("unsupported sqlite driver %q. Must be one of %s, %s", driver, DriverCGO, DriverPureGo)
	}

	ucSyncPragma := ""
	if syncPragma != "" {
		ucSyncPragma = strings.ToUpper(syncPragma)
		if !validSyncModes[ucSyncPragma] {
			return nil, fmt.Errorf("invalid sync pragma value: %s. Must be one of OFF, NORMAL, FULL, EXTRA", syncPragma)
		}
	}

	params := url.Values{}
	switch driver {
	case DriverCGO:
		if enableWAL {
			params.Add("_journal_mode", "WAL")
		}
		if ucSyncPragma != "" {
			params.Add("_synchronous", ucSyncPragma)
		}
		params.Add("_foreign_keys", "on")
	case DriverPureGo:
		if enableWAL {
			params.Add("_pragma", "journal_mode(WAL)")
		}
		if ucSyncPragma != "" {
			params.Add("_pragma", fmt.Sprintf("synchronous(%s)", ucSyncPragma))
		}
		params.Add("_pragma", "foreign_keys(1)")
	}

	constructedDSN := baseDSN
	if len(params) > 0 {
		if strings.Contains(baseDSN, "?") {
			constructedDSN += "&" + params.Encode()
		} else {
			constructedDSN += "?" + params.Encode()
		}
	}

	db, err := sql.Open(driver, constructedDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with DSN '%s': %w", constructedDSN, err)
	}

	// Every new connection to ":memory:" is a separate empty database.
	if isMemoryDSN(baseDSN) {
		db.SetMaxOpenConns(1)
	}

	// Ping the database to ensure the connection is alive and the DSN is valid.
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database with DSN '%s': %w", constructedDSN, err)
	}

	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, ":memory:?") || strings.Contains(dsn, "mode=memory")
}

package mcp

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	duet "github.com/unowned-ai/duet/pkg"
	pkgdb "github.com/unowned-ai/duet/pkg/db"
	"github.com/unowned-ai/duet/pkg/session"
	"github.com/unowned-ai/duet/pkg/store"
	"github.com/unowned-ai/duet/pkg/utils"
)

// Config describes the database and account a DuetMCPServer serves.
type Config struct {
	DBPath    string
	Driver    string
	WAL       bool
	Sync      string
	AccountID string
	Logger    *log.Logger
}

type DuetMCPServer struct {
	mcpServer *server.MCPServer
	db        *sql.DB
	session   *session.Session
	logger    *log.Logger
	DbPath    string
}

// NewDuetMCPServer opens the database, upgrades its schema and opens a
// session for cfg.AccountID. Tools are not registered yet.
func NewDuetMCPServer(ctx context.Context, cfg Config) (*DuetMCPServer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	dbPath, err := utils.ResolveAndEnsureDBPath(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	s := server.NewMCPServer(
		"Duet MCP Server",
		duet.Version,
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
		server.WithRecovery(),
	)

	dbConn, err := pkgdb.OpenDBConnectionWithDriver(cfg.Driver, dbPath, cfg.WAL, cfg.Sync)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := pkgdb.UpgradeDB(dbConn, dbPath, pkgdb.TargetSchemaVersion); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to initialize/upgrade database schema for '%s': %w", dbPath, err)
	}

	backend, err := store.NewSQLiteBackend(dbConn, store.WithLogger(logger))
	if err != nil {
		dbConn.Close()
		return nil, err
	}
	sess, err := session.Open(ctx, backend, cfg.AccountID, session.WithLogger(logger))
	if err != nil {
		dbConn.Close()
		return nil, err
	}

	return &DuetMCPServer{
		mcpServer: s,
		db:        dbConn,
		session:   sess,
		logger:    logger,
		DbPath:    dbPath,
	}, nil
}

// RegisterAllTools registers every duet tool on the server.
func (s *DuetMCPServer) RegisterAllTools() []string {
	return RegisterTools(s.mcpServer, s.session)
}

// Start runs the stdio event loop. Register tools beforehand.
func (s *DuetMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *DuetMCPServer) DB() *sql.DB { return s.db }

func (s *DuetMCPServer) Session() *session.Session { return s.session }

// MCPRawServer exposes the raw mcp-go server.
func (s *DuetMCPServer) MCPRawServer() *server.MCPServer { return s.mcpServer }

// Close checkpoints the WAL and closes the database.
func (s *DuetMCPServer) Close() error {
	if s.db == nil {
		return nil
	}
	// TRUNCATE waits for transactions and writes the WAL back to the main DB.
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		s.logger.Warn("WAL checkpoint failed during close", "err", err)
	}
	return s.db.Close()
}

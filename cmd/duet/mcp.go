package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/duet/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the duet MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes the signed-in
account's composed view and its mutations as MCP tools via STDIO.

The account is chosen with --user and --password (or DUET_USER and
DUET_PASSWORD). The --db flag is optional. If not provided, a system-specific
default location will be used:
- Windows: %USERPROFILE%\AppData\Roaming\duet\duet.db
- macOS: ~/Library/Application Support/duet/duet.db
- Linux: $XDG_DATA_HOME/duet/duet.db or ~/.local/share/duet/duet.db

Example:
  DUET_USER=alice DUET_PASSWORD=secret duet mcp
  duet mcp --db duet.db --user alice --password secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		id, err := func() (string, error) {
			defer a.Close()
			sess, err := a.signIn(cmd.Context())
			if err != nil {
				return "", err
			}
			return sess.AccountID(), nil
		}()
		if err != nil {
			return err
		}

		srv, err := mcp.NewDuetMCPServer(cmd.Context(), mcp.Config{
			DBPath:    dbPath,
			Driver:    driverName,
			WAL:       walMode,
			Sync:      syncMode,
			AccountID: id,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		defer srv.Close()

		tools := srv.RegisterAllTools()

		// Log to stderr so we don't contaminate the JSON-RPC stream on stdout.
		fmt.Fprintf(os.Stderr, "Duet MCP server started for %s. DB: %s (WAL: %t, Sync: %s)\n", id, srv.DbPath, walMode, syncMode)
		fmt.Fprintf(os.Stderr, "Available tools: %s\n", strings.Join(tools, ", "))
		fmt.Fprintln(os.Stderr, "Listening for MCP JSON-RPC on STDIN/STDOUT ... (Ctrl+C to quit)")

		return srv.Start()
	},
}

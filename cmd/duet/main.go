package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	duet "github.com/unowned-ai/duet/pkg"
	pkgdb "github.com/unowned-ai/duet/pkg/db"
	"github.com/unowned-ai/duet/pkg/utils"
)

var (
	dbPath       string
	walMode      bool
	syncMode     string
	driverName   string
	userFlag     string
	passwordFlag string
	logLevel     string

	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:     "duet",
	Short:   "A shared journal for two: goals, feelings, wishes and date plans.",
	Long:    ``,
	Version: fmt.Sprintf("v%s", duet.Version),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for duet.

The command prints a completion script to stdout.

Examples:

  Bash (current shell):
    $ source <(duet completion bash)

  Zsh:
    $ duet completion zsh > "${fpath[1]}/_duet"

  Fish:
    $ duet completion fish > ~/.config/fish/completions/duet.fish

  PowerShell:
    PS> duet completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of duet",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(duet.Version)
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the duet database",
	Long:  `Provides commands for managing the duet SQLite database, including schema upgrades.`,
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the duet database schema to the latest version",
	Long: `Connects to the SQLite database (the --db flag, or the platform default) and
applies any pending schema migrations. A missing database is created and
initialized with the latest schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := utils.ResolveAndEnsureDBPath(dbPath)
		if err != nil {
			return err
		}

		fmt.Printf("Attempting to upgrade database at: %s (driver: %s, WAL: %t, Sync: %s)\n", path, driverOrDefault(), walMode, syncMode)

		dbConn, err := pkgdb.OpenDBConnectionWithDriver(driverName, path, walMode, syncMode)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if err := pkgdb.UpgradeDB(dbConn, path, pkgdb.TargetSchemaVersion); err != nil {
			return err
		}
		fmt.Printf("Database schema is at version %d.\n", pkgdb.TargetSchemaVersion)
		return nil
	},
}

func setupLogger() error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	// stdout belongs to command output and the MCP stream.
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Prefix:          "duet",
		ReportTimestamp: true,
	})
	log.SetDefault(logger)
	return nil
}

func driverOrDefault() string {
	if driverName == "" {
		return pkgdb.DriverCGO
	}
	return driverName
}

func initCmd() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (uses a system-specific default if not provided)")
	rootCmd.PersistentFlags().BoolVar(&walMode, "wal", false, "Enable SQLite WAL (Write-Ahead Logging) mode")
	rootCmd.PersistentFlags().StringVar(&syncMode, "sync", "FULL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")
	rootCmd.PersistentFlags().StringVar(&driverName, "driver", pkgdb.DriverCGO, "SQLite driver: sqlite3 (cgo) or sqlite (pure Go)")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Username to sign in as (or "+envUser+")")
	rootCmd.PersistentFlags().StringVar(&passwordFlag, "password", "", "Password for --user (or "+envPassword+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	dbCmd.AddCommand(dbUpgradeCmd)

	initAccountCmd()
	initLinkCmd()
	initViewCmds()
	initItemCmds()
	rootCmd.AddCommand(completionCmd, versionCmd, dbCmd, mcpCmd, tuiCmd)
}

func main() {
	initCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

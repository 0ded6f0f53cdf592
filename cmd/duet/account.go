package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/duet/pkg/identity"
	"github.com/unowned-ai/duet/pkg/records"
	"github.com/unowned-ai/duet/pkg/session"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage your duet account",
	Long:  `Sign up, check who you are signed in as, and dump your own record.`,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a new account",
	Long: `Create a new local account with the --user and --password flags (or the
DUET_USER and DUET_PASSWORD environment variables). The printed account ID is
the link code your partner enters with "duet link set".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, password, err := credentials()
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.local.SignUp(cmd.Context(), user, password)
		if errors.Is(err, identity.ErrUserExists) {
			return fmt.Errorf("user %q already exists", user)
		}
		if err != nil {
			return fmt.Errorf("failed to sign up: %w", err)
		}
		if _, err := a.manager.Session(); err != nil {
			return fmt.Errorf("account created, but opening it failed: %w", err)
		}

		fmt.Println("Account created.")
		printIdentity(id)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.signIn(cmd.Context()); err != nil {
			return err
		}
		id, _ := a.local.Current()
		printIdentity(id)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print your own account record as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(sess *session.Session) error {
			return printJSON(sess.Own())
		})
	},
}

func initAccountCmd() {
	accountCmd.AddCommand(signupCmd, whoamiCmd, showCmd)
	rootCmd.AddCommand(accountCmd)
}

func printIdentity(id identity.Identity) {
	fmt.Printf("Username:   %s\n", id.Username)
	fmt.Printf("Account ID: %s\n", id.AccountID)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func printRecordSummary(rec *records.AccountRecord) {
	fmt.Printf("Account:      %s\n", rec.ID)
	fmt.Printf("Partner link: %s\n", orDash(rec.PartnerLink))
	fmt.Printf("Mood:         %s\n", orDash(string(rec.Mood)))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

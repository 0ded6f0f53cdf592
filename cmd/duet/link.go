package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/duet/pkg/linkage"
	"github.com/unowned-ai/duet/pkg/session"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link your account with your partner's",
	Long: `Accounts are linked when each one stores the other's account ID as its
partner link. Until your partner links back, the link stays pending and you
only see your own data.`,
}

var linkSetCmd = &cobra.Command{
	Use:   "set [partner-account-id]",
	Short: "Store your partner's account ID as your partner link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(sess *session.Session) error {
			err := sess.SetLink(cmd.Context(), args[0])
			var codeErr *linkage.InvalidCodeError
			if errors.As(err, &codeErr) {
				return fmt.Errorf("invalid link code: %s", codeErr.Reason)
			}
			if err != nil {
				return fmt.Errorf("failed to set partner link: %w", err)
			}

			vm, err := sess.View(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Partner link set to %s.\n", sess.Own().PartnerLink)
			printLinkage(vm)
			return nil
		})
	},
}

var linkStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the partner link",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(sess *session.Session) error {
			vm, err := sess.View(cmd.Context())
			if err != nil {
				return err
			}
			printRecordSummary(vm.Own)
			printLinkage(vm)
			return nil
		})
	},
}

var linkRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reread both records and report the partner link",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(sess *session.Session) error {
			vm, err := sess.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			printLinkage(vm)
			return nil
		})
	},
}

func initLinkCmd() {
	linkCmd.AddCommand(linkSetCmd, linkStatusCmd, linkRefreshCmd)
	rootCmd.AddCommand(linkCmd)
}

func printLinkage(vm session.ViewModel) {
	switch vm.Linkage {
	case linkage.Linked:
		fmt.Printf("Linkage:      linked with %s\n", vm.PartnerID)
	case linkage.PendingOneWay:
		fmt.Printf("Linkage:      pending, waiting for %s to link back\n", vm.PartnerID)
	default:
		fmt.Println("Linkage:      unlinked")
	}
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/unowned-ai/duet/pkg/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show terminal UI",
	Long:  `Display an interactive dashboard of you and your partner.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		sess, err := a.signIn(cmd.Context())
		if err != nil {
			return err
		}
		return tui.ShowTUI(sess, a.path)
	},
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/duet/pkg/compose"
	"github.com/unowned-ai/duet/pkg/records"
	"github.com/unowned-ai/duet/pkg/session"
)

var jsonOutputFlag bool

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the composed view of you and your partner",
	Long: `Render one page of the shared view. Shared collections are merged with
your partner's once the link is mutual; items your partner wrote are marked
with their author and cannot be edited.`,
}

// viewPageCmd builds a view subcommand that renders one page of the model.
func viewPageCmd(use, short string, render func(session.ViewModel)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(sess *session.Session) error {
				vm, err := sess.View(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutputFlag {
					return printJSON(vm.View)
				}
				render(vm)
				return nil
			})
		},
	}
}

func initViewCmds() {
	viewCmd.PersistentFlags().BoolVar(&jsonOutputFlag, "json", false, "Print the composed view as JSON")
	viewCmd.AddCommand(
		viewPageCmd("dashboard", "Mood, goal progress, next date and the memo thread", printDashboard),
		viewPageCmd("planner", "Wishes and date plans", printPlanner),
		viewPageCmd("feelings", "Anger logs and appreciations", printFeelings),
		viewPageCmd("manual", "Both instruction manuals", printManuals),
		viewPageCmd("goals", "Your private goals, habits, reflections and values", printGrowth),
	)
	rootCmd.AddCommand(viewCmd)
}

func printDashboard(vm session.ViewModel) {
	d := vm.View.Dashboard
	printLinkage(vm)
	fmt.Printf("Mood:         %s\n", orDash(string(d.Mood)))
	fmt.Printf("Your goals:   %s\n", d.OwnProgress)
	if d.PartnerProgress != nil {
		fmt.Printf("Their goals:  %s\n", d.PartnerProgress)
	}
	if d.NextPlan != nil {
		fmt.Printf("Next date:    %s on %s\n", d.NextPlan.Value.Title, d.NextPlan.Value.Date)
	}
	if d.RecentAngerLog != nil {
		fmt.Printf("Last cooldown: %s (intensity %d)\n", d.RecentAngerLog.Situation, d.RecentAngerLog.Intensity)
	}

	fmt.Println("\nMemos:")
	if len(d.Thread) == 0 {
		fmt.Println("  (none)")
	}
	for _, m := range d.Thread {
		fmt.Printf("  %s %s: %s\n", formatTime(m.Value.CreatedAt), who(vm, m.AuthorID), m.Value.Text)
	}
}

func printPlanner(vm session.ViewModel) {
	fmt.Println("Wishes:")
	if len(vm.View.Wishes) == 0 {
		fmt.Println("  (none)")
	}
	for _, w := range vm.View.Wishes {
		planned := ""
		if w.Value.Planned {
			planned = " [planned]"
		}
		fmt.Printf("  %s  %s%s (%s)\n", w.Value.ID, w.Value.Text, planned, who(vm, w.AuthorID))
	}

	printPlans("Upcoming dates:", vm, vm.View.UpcomingPlans)
	printPlans("Past dates:", vm, vm.View.PastPlans)
}

func printPlans(title string, vm session.ViewModel, plans []compose.Item[records.DatePlan]) {
	fmt.Printf("\n%s\n", title)
	if len(plans) == 0 {
		fmt.Println("  (none)")
	}
	for _, p := range plans {
		fmt.Printf("  %s  %s %s  %s (%s)\n", p.Value.ID, check(p.Value.Done), p.Value.Date, p.Value.Title, who(vm, p.AuthorID))
		if p.Value.Description != "" {
			fmt.Printf("      %s\n", p.Value.Description)
		}
	}
}

func printFeelings(vm session.ViewModel) {
	fmt.Println("Anger logs:")
	if len(vm.View.AngerLogs) == 0 {
		fmt.Println("  (none)")
	}
	for _, l := range vm.View.AngerLogs {
		fmt.Printf("  %s  %s [%d/10] %s (%s)\n", l.Value.ID, formatTime(l.Value.Timestamp), l.Value.Intensity, l.Value.Situation, who(vm, l.AuthorID))
		if l.Value.Trigger != "" {
			fmt.Printf("      Trigger:  %s\n", l.Value.Trigger)
		}
		if l.Value.PlannedResponse != "" {
			fmt.Printf("      Response: %s\n", l.Value.PlannedResponse)
		}
	}

	fmt.Println("\nAppreciations:")
	if len(vm.View.Appreciations) == 0 {
		fmt.Println("  (none)")
	}
	for _, a := range vm.View.Appreciations {
		fmt.Printf("  %s  %s (%s)\n", a.Value.ID, a.Value.Text, who(vm, a.AuthorID))
	}
}

func printManuals(vm session.ViewModel) {
	fmt.Println("Your manual:")
	printManual(vm.View.Manual)
	if vm.View.HasPartner() {
		fmt.Printf("\n%s's manual:\n", vm.PartnerID)
		printManual(vm.View.PartnerManual)
	}
}

func printManual(groups []compose.ManualGroup) {
	for _, g := range groups {
		fmt.Printf("  %s\n", strings.ToUpper(string(g.Category)))
		if len(g.Entries) == 0 {
			fmt.Println("    (none)")
		}
		for _, e := range g.Entries {
			fmt.Printf("    %s  %s\n", e.Value.ID, e.Value.Content)
		}
	}
}

func printGrowth(vm session.ViewModel) {
	v := vm.View
	fmt.Printf("Goals (daily %s):\n", v.Dashboard.OwnProgress)
	for _, g := range v.Goals {
		fmt.Printf("  %s  %s %-6s %s\n", g.ID, check(g.Done), g.Kind, g.Text)
	}

	fmt.Println("\nHabits:")
	for _, h := range v.Habits {
		fmt.Printf("  %s  %s (successes: %d)\n", h.ID, h.HabitText, h.SuccessCount)
		fmt.Printf("      When %s, instead: %s\n", orDash(h.Trigger), orDash(h.IdealAction))
	}

	fmt.Println("\nReflections:")
	for _, r := range v.Reflections {
		fmt.Printf("  %s  week ending %s\n", r.ID, orDash(r.WeekEnding))
		fmt.Printf("      Gratitude:   %s\n", orDash(r.Gratitude))
		fmt.Printf("      Challenge:   %s\n", orDash(r.Challenge))
		fmt.Printf("      Learning:    %s\n", orDash(r.Learning))
		fmt.Printf("      Praise:      %s\n", orDash(r.Praise))
		fmt.Printf("      Next action: %s\n", orDash(r.NextAction))
	}

	fmt.Println("\nValues:")
	for _, val := range v.Values {
		fmt.Printf("  %s  %s: %s\n", val.ID, val.Label, val.Rationale)
	}
}

func who(vm session.ViewModel, authorID string) string {
	if authorID == vm.Own.ID {
		return "you"
	}
	return authorID
}

func check(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

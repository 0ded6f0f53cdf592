package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/duet/pkg/gateway"
	"github.com/unowned-ai/duet/pkg/records"
	"github.com/unowned-ai/duet/pkg/session"
)

var moodCmd = &cobra.Command{
	Use:   "mood",
	Short: "Manage today's mood",
}

var moodSetCmd = &cobra.Command{
	Use:       "set [happy|okay|sad]",
	Short:     "Set today's mood",
	ValidArgs: []string{string(records.MoodHappy), string(records.MoodOkay), string(records.MoodSad)},
	Args:      cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(sess *session.Session) error {
			if err := sess.SetMood(cmd.Context(), records.Mood(strings.ToLower(args[0]))); err != nil {
				return mutationError(err)
			}
			fmt.Printf("Mood set to %s.\n", sess.Own().Mood)
			return nil
		})
	},
}

// collectionCmd groups the list and remove commands shared by every
// collection with the collection-specific ones.
func collectionCmd(c records.Collection, use, short string, list func(session.ViewModel), extra ...*cobra.Command) *cobra.Command {
	parent := &cobra.Command{Use: use, Short: short}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", c),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(sess *session.Session) error {
				vm, err := sess.View(cmd.Context())
				if err != nil {
					return err
				}
				list(vm)
				return nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove [id]",
		Short: fmt.Sprintf("Remove one of your %s", c),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(sess *session.Session) error {
				if err := sess.Remove(cmd.Context(), c, args[0]); err != nil {
					return mutationError(err)
				}
				fmt.Printf("Removed %s.\n", args[0])
				return nil
			})
		},
	}

	parent.AddCommand(listCmd, removeCmd)
	parent.AddCommand(extra...)
	return parent
}

// addCmd builds an "add" subcommand. run returns the new element's id.
func addCmd(short string, args cobra.PositionalArgs, run func(ctx context.Context, cmd *cobra.Command, sess *session.Session, args []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			return withSession(cmd.Context(), func(sess *session.Session) error {
				id, err := run(cmd.Context(), cmd, sess, posArgs)
				if err != nil {
					return mutationError(err)
				}
				fmt.Printf("Added %s.\n", id)
				return nil
			})
		},
	}
}

// idCmd builds a subcommand taking a single element id.
func idCmd(use, short, done string, run func(ctx context.Context, sess *session.Session, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(sess *session.Session) error {
				if err := run(cmd.Context(), sess, args[0]); err != nil {
					return mutationError(err)
				}
				fmt.Printf("%s %s.\n", done, args[0])
				return nil
			})
		},
	}
}

func joinArgs(args []string) string { return strings.Join(args, " ") }

func initItemCmds() {
	moodCmd.AddCommand(moodSetCmd)

	goalAdd := addCmd("Add a goal", cobra.MinimumNArgs(1), func(ctx context.Context, cmd *cobra.Command, sess *session.Session, args []string) (string, error) {
		kind, _ := cmd.Flags().GetString("kind")
		return sess.AddGoal(ctx, joinArgs(args), records.GoalKind(kind))
	})
	goalAdd.Flags().String("kind", string(records.GoalDaily), "Goal kind (daily or weekly)")

	habitAdd := addCmd("Add a habit to work on", cobra.MinimumNArgs(1), func(ctx context.Context, cmd *cobra.Command, sess *session.Session, args []string) (string, error) {
		trigger, _ := cmd.Flags().GetString("trigger")
		ideal, _ := cmd.Flags().GetString("ideal")
		return sess.AddHabit(ctx, joinArgs(args), trigger, ideal)
	})
	habitAdd.Flags().String("trigger", "", "What sets the habit off")
	habitAdd.Flags().String("ideal", "", "What you want to do instead")

	reflectionAdd := addCmd("Add a weekly reflection", cobra.NoArgs, func(ctx context.Context, cmd *cobra.Command, sess *session.Session, args []string) (string, error) {
		var r records.Reflection
		r.WeekEnding, _ = cmd.Flags().GetString("week-ending")
		r.Gratitude, _ = cmd.Flags().GetString("gratitude")
		r.Challenge, _ = cmd.Flags().GetString("challenge")
		r.Learning, _ = cmd.Flags().GetString("learning")
		r.Praise, _ = cmd.Flags().GetString("praise")
		r.NextAction, _ = cmd.Flags().GetString("next-action")
		if r.WeekEnding == "" {
			r.WeekEnding = time.Now().Format(records.DateLayout)
		}
		return sess.AddReflection(ctx, r)
	})
	reflectionAdd.Flags().String("week-ending", "", "Last day of the week (YYYY-MM-DD, default today)")
	reflectionAdd.Flags().String("gratitude", "", "What you are grateful for")
	reflectionAdd.Flags().String("challenge", "", "What was hard")
	reflectionAdd.Flags().String("learning", "", "What you learned")
	reflectionAdd.Flags().String("praise", "", "Praise for your partner")
	reflectionAdd.Flags().String("next-action", "", "One thing to do next week")

	valueAdd := addCmd("Add a value", cobra.MinimumNArgs(1), func(ctx context.Context, cmd *cobra.Command, sess *session.Session, args []string) (string, error) {
		rationale, _ := cmd.Flags().GetString("rationale")
		return sess.AddValue(ctx, joinArgs(args), rationale)
	})
	valueAdd.Flags().String("rationale", "", "Why the value matters to you")

	angerAdd := addCmd("Log a cool-down episode", cobra.MinimumNArgs(1), func(ctx context.Context, cmd *cobra.Command, sess *session.Session, args []string) (string, error) {
		var l records.AngerLog
		l.Situation = joinArgs(args)
		l.Intensity, _ = cmd.Flags().GetInt("intensity")
		l.Trigger, _ = cmd.Flags().GetString("trigger")
		l.PlannedResponse, _ = cmd.Flags().GetString("response")
		return sess.AddAngerLog(ctx, l)
	})
	angerAdd.Flags().Int("intensity", 5, "Intensity from 1 to 10")
	angerAdd.Flags().String("trigger", "", "What triggered it")
	angerAdd.Flags().String("response", "", "How you plan to respond")

	memoAdd := addCmd("Leave a memo for your partner", cobra.MinimumNArgs(1), func(ctx context.Context, cmd *cobra.Command, sess *session.Session, args []string) (string, error) {
		return sess.AddMemo(ctx, joinArgs(args))
	})

	wishAdd := addCmd("Add a wish", cobra.MinimumNArgs(1), func(ctx context.Context, cmd *cobra.Command, sess *session.Session, args []string) (string, error) {
		return sess.AddWish(ctx, joinArgs(args))
	})

	wishPlan := &cobra.Command{
		Use:   "plan [wish-id]",
		Short: "Turn a wish (yours or your partner's) into a date plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			return withSession(cmd.Context(), func(sess *session.Session) error {
				planID, err := sess.PlanFromWish(cmd.Context(), args[0], date)
				if err != nil {
					return mutationError(err)
				}
				fmt.Printf("Planned %s as %s.\n", args[0], planID)
				return nil
			})
		},
	}
	wishPlan.Flags().String("date", "", "Date of the plan (YYYY-MM-DD)")
	wishPlan.MarkFlagRequired("date")

	appreciationAdd := addCmd("Say thanks", cobra.MinimumNArgs(1), func(ctx context.Context, cmd *cobra.Command, sess *session.Session, args []string) (string, error) {
		return sess.AddAppreciation(ctx, joinArgs(args))
	})

	manualAdd := addCmd("Add an instruction manual entry", cobra.MinimumNArgs(1), func(ctx context.Context, cmd *cobra.Command, sess *session.Session, args []string) (string, error) {
		category, _ := cmd.Flags().GetString("category")
		return sess.AddManualEntry(ctx, records.ManualCategory(category), joinArgs(args))
	})
	manualAdd.Flags().String("category", string(records.CategoryOther), "Category (pleasure, sadness, anger, help, other)")

	planAdd := addCmd("Plan a date", cobra.MinimumNArgs(1), func(ctx context.Context, cmd *cobra.Command, sess *session.Session, args []string) (string, error) {
		date, _ := cmd.Flags().GetString("date")
		description, _ := cmd.Flags().GetString("description")
		return sess.AddDatePlan(ctx, joinArgs(args), date, description)
	})
	planAdd.Flags().String("date", "", "Date of the plan (YYYY-MM-DD)")
	planAdd.Flags().String("description", "", "Details")
	planAdd.MarkFlagRequired("date")

	rootCmd.AddCommand(
		moodCmd,
		collectionCmd(records.Goals, "goals", "Manage your private goals", printGrowth,
			goalAdd,
			idCmd("toggle", "Mark a goal done or not done", "Toggled", func(ctx context.Context, sess *session.Session, id string) error {
				return sess.ToggleGoal(ctx, id)
			})),
		collectionCmd(records.Habits, "habits", "Manage the habits you are working on", printGrowth,
			habitAdd,
			idCmd("success", "Count one success for a habit", "Recorded a success for", func(ctx context.Context, sess *session.Session, id string) error {
				return sess.RecordHabitSuccess(ctx, id)
			})),
		collectionCmd(records.Reflections, "reflections", "Manage weekly reflections", printGrowth, reflectionAdd),
		collectionCmd(records.Values, "values", "Manage your values", printGrowth, valueAdd),
		collectionCmd(records.AngerLogs, "anger", "Manage anger logs", printFeelings, angerAdd),
		collectionCmd(records.Memos, "memos", "Manage memos", printDashboard, memoAdd),
		collectionCmd(records.Wishes, "wishes", "Manage wishes", printPlanner, wishAdd, wishPlan),
		collectionCmd(records.Appreciations, "appreciations", "Manage appreciations", printFeelings, appreciationAdd),
		collectionCmd(records.Manual, "manual", "Manage your instruction manual", printManuals, manualAdd),
		collectionCmd(records.DatePlans, "plans", "Manage date plans", printPlanner,
			planAdd,
			idCmd("toggle", "Mark one of your date plans done or not done", "Toggled", func(ctx context.Context, sess *session.Session, id string) error {
				return sess.ToggleDatePlan(ctx, id)
			})),
	)
}

// mutationError rewords gateway refusals for the terminal.
func mutationError(err error) error {
	switch {
	case errors.Is(err, gateway.ErrNotAuthor):
		return errors.New("that item belongs to your partner and is read-only")
	case errors.Is(err, gateway.ErrElementNotFound):
		return errors.New("no such item among yours (your partner's items are read-only)")
	case errors.Is(err, records.ErrInvalidElement), errors.Is(err, gateway.ErrInvalidScalarValue):
		return fmt.Errorf("rejected: %w", err)
	default:
		return err
	}
}

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/screen"
	quizscreen "github.com/jsp88/jsp/internal/screens/quiz"
	"github.com/jsp88/jsp/internal/store"
)

func newQuizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "List, take and review quizzes",
	}
	cmd.AddCommand(newQuizListCmd(), newQuizHistoryCmd(), newQuizTakeCmd())
	return cmd
}

func newQuizListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available quizzes with your best local score",
		Args:  cobra.NoArgs,
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			ctx := cmd.Context()
			if err := rt.requireLogin(ctx); err != nil {
				return err
			}
			quizzes, err := api.Retry(ctx, rt.retry, rt.client.Quizzes)
			if err != nil {
				return err
			}
			if len(quizzes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No quiz available yet.")
				return nil
			}

			attempts := rt.store.AttemptRepo()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tBEST")
			for _, q := range quizzes {
				best := "-"
				rec, err := attempts.Best(ctx, q.ID)
				if err != nil {
					return err
				}
				if rec != nil {
					best = fmt.Sprintf("%d%%", rec.Percentage)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", q.ID, q.Title, best)
			}
			return w.Flush()
		}),
	}
}

func newQuizHistoryCmd() *cobra.Command {
	var (
		remote bool
		quizID int64
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past attempts",
		Args:  cobra.NoArgs,
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			ctx := cmd.Context()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			if remote {
				if err := rt.requireLogin(ctx); err != nil {
					return err
				}
				entries, err := api.Retry(ctx, rt.retry, rt.client.MyQuizzes)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "The portal has no quiz on record.")
					return nil
				}
				fmt.Fprintln(w, "DATE\tQUIZ\tSCORE")
				for _, e := range entries {
					date := "-"
					if !e.Date.IsZero() {
						date = e.Date.Local().Format("02/01/2006")
					}
					fmt.Fprintf(w, "%s\t%s\t%.1f/20\n", date, e.Title, e.Score)
				}
				return w.Flush()
			}

			records, err := rt.store.AttemptRepo().List(ctx, store.QueryOpts{Limit: limit, QuizID: quizID})
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No quiz taken on this device yet.")
				return nil
			}
			fmt.Fprintln(w, "DATE\tQUIZ\tRESULT\tSCORE\tBAND")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%d/%d (%d%%)\t%.1f/20\t%s\n",
					r.CreatedAt.Local().Format("02/01/2006 15:04"), r.QuizTitle,
					r.Correct, r.Total, r.Percentage, r.Score, r.Band)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Show the history recorded by the portal")
	cmd.Flags().Int64Var(&quizID, "quiz", 0, "Only show attempts of this quiz")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of local attempts")
	return cmd
}

func newQuizTakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "take <id>",
		Short: "Take a quiz in the terminal UI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runApp(cmd, func(env *screen.Env) screen.Screen {
				return quizscreen.New(env, id, "")
			})
		},
	}
}

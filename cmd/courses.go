package cmd

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/download"
)

func newCoursesCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List followed courses",
		Args:  cobra.NoArgs,
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			ctx := cmd.Context()
			if err := rt.requireLogin(ctx); err != nil {
				return err
			}

			mine, err := api.Retry(ctx, rt.retry, rt.client.MyCourses)
			if err != nil {
				return err
			}
			list := mine
			if all {
				list, err = api.Retry(ctx, rt.retry, rt.client.Courses)
				if err != nil {
					return err
				}
			}

			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No course.")
				return nil
			}

			followed := make(map[int64]bool, len(mine))
			for _, c := range mine {
				followed[c.ID] = true
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tFOLLOWED\tURL")
			for _, c := range list {
				mark := ""
				if followed[c.ID] {
					mark = "yes"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.Title, mark, api.CourseDownloadURL(rt.cfg.DownloadURL, c.ID))
			}
			return w.Flush()
		}),
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "List every course, not only followed ones")

	cmd.AddCommand(
		newFollowCmd("follow", "Follow a course", "Now following course %d.\n",
			func(c *api.Client) func(context.Context, int64) error { return c.FollowCourse }),
		newFollowCmd("unfollow", "Stop following a course", "Course %d unfollowed.\n",
			func(c *api.Client) func(context.Context, int64) error { return c.UnfollowCourse }),
		newDownloadCmd(),
	)
	return cmd
}

func newFollowCmd(use, short, done string, op func(*api.Client) func(context.Context, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := rt.requireLogin(ctx); err != nil {
				return err
			}
			if err := op(rt.client)(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), done, id)
			return nil
		}),
	}
}

func newDownloadCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a course file",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := rt.requireLogin(ctx); err != nil {
				return err
			}

			out := cmd.ErrOrStderr()
			res, err := download.Course(ctx, rt.client, id, output, func(p download.Progress) {
				if p.Message != "" {
					fmt.Fprintln(out, p.Message)
				}
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes, sha256 %s)\n", res.Path, res.Size, res.SHA256)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file or directory")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

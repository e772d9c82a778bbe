package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsp88/jsp/internal/api"
)

func newEventsCmd() *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List planned events",
		Args:  cobra.NoArgs,
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			ctx := cmd.Context()
			if err := rt.requireLogin(ctx); err != nil {
				return err
			}
			events, err := api.Retry(ctx, rt.retry, rt.client.MyEvents)
			if err != nil {
				return err
			}

			if day != "" {
				d, err := parseDay(day)
				if err != nil {
					return err
				}
				events = api.EventsOn(events, d)
			}
			sort.SliceStable(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })

			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing planned.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTIME\tEVENT\tPLACE\tTRAINER")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.Start.Format("02/01/2006"), eventTime(e), e.Title, e.Location, e.Trainer)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().StringVar(&day, "day", "", `Only show one day: "today", "tomorrow" or YYYY-MM-DD`)
	return cmd
}

func parseDay(s string) (time.Time, error) {
	now := time.Now()
	switch s {
	case "today":
		return now, nil
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

func eventTime(e api.Event) string {
	if e.AllDay {
		return "all day"
	}
	if e.End.After(e.Start) {
		return e.Start.Format("15:04") + "-" + e.End.Format("15:04")
	}
	return e.Start.Format("15:04")
}

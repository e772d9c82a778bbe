package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// MyEvents lists the planning events the trainee is registered to, sorted
// by start time. Events without a start time sort last.
func (c *Client) MyEvents(ctx context.Context) ([]Event, error) {
	raw, err := c.fetch(ctx, http.MethodGet, "/jsp/me/evenements", nil)
	if err != nil {
		return nil, err
	}
	events, err := normalized("GET /jsp/me/evenements", raw, NormalizeEvents)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].Start, events[j].Start
		if a.IsZero() != b.IsZero() {
			return !a.IsZero()
		}
		return a.Before(b)
	})
	return events, nil
}

// EventsOn filters events overlapping the calendar day of day.
func EventsOn(events []Event, day time.Time) []Event {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var out []Event
	for _, e := range events {
		if e.Start.IsZero() {
			continue
		}
		finish := e.End
		if finish.IsZero() || finish.Before(e.Start) {
			finish = e.Start
		}
		if e.Start.Before(end) && !finish.Before(start) {
			out = append(out, e)
		}
	}
	return out
}

package planning

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/router"
	"github.com/jsp88/jsp/internal/screen"
	"github.com/jsp88/jsp/internal/ui/layout"
	"github.com/jsp88/jsp/internal/ui/theme"
)

var weekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

var months = [...]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet",
	"août", "septembre", "octobre", "novembre", "décembre"}

type eventsLoadedMsg struct {
	Events []api.Event
	Err    error
}

// PlanningScreen shows the trainee's events one day at a time.
type PlanningScreen struct {
	env    *screen.Env
	today  time.Time
	day    time.Time
	events []api.Event
	loaded bool
	errMsg string
}

var _ screen.Screen = (*PlanningScreen)(nil)
var _ screen.KeyHintProvider = (*PlanningScreen)(nil)

// New creates a PlanningScreen showing today's events.
func New(env *screen.Env, today time.Time) *PlanningScreen {
	return &PlanningScreen{env: env, today: today, day: today}
}

func (s *PlanningScreen) Init() tea.Cmd {
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		events, err := env.Client.MyEvents(ctx)
		return eventsLoadedMsg{Events: events, Err: err}
	}
}

func (s *PlanningScreen) Title() string {
	return "Planning"
}

func (s *PlanningScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "←→", Description: "Day"},
		{Key: "T", Description: "Today"},
		{Key: "Esc", Description: "Back"},
	}
}

// Day returns the displayed day.
func (s *PlanningScreen) Day() time.Time {
	return s.day
}

func (s *PlanningScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case eventsLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = api.Message(msg.Err)
			return s, nil
		}
		s.errMsg = ""
		s.events = msg.Events
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "left", "h":
			s.day = s.day.AddDate(0, 0, -1)
		case "right", "l":
			s.day = s.day.AddDate(0, 0, 1)
		case "t":
			s.day = s.today
		case "r":
			s.loaded = false
			return s, s.Init()
		}
	}
	return s, nil
}

func (s *PlanningScreen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Message(width, s.errMsg, theme.Error)
	}
	if !s.loaded {
		return layout.Message(width, "Loading planning...", theme.TextDim)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(width).Render(formatDay(s.day, s.today)))
	b.WriteString("\n\n")

	events := api.EventsOn(s.events, s.day)
	if len(events) == 0 {
		b.WriteString(theme.Subtitle.Width(width).Render("Nothing planned."))
		return b.String()
	}

	cw := min(width-4, 70)
	for _, e := range events {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, renderEvent(e, cw)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderEvent(e api.Event, cw int) string {
	var lines []string
	lines = append(lines,
		lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(timeRange(e))+"  "+
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(e.Title))

	var details []string
	if e.Location != "" {
		details = append(details, "📍 "+e.Location)
	}
	if e.Trainer != "" {
		details = append(details, "👤 "+e.Trainer)
	}
	if len(details) > 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.TextDim).Render(strings.Join(details, "   ")))
	}
	if e.Description != "" {
		lines = append(lines, theme.Hint.Render(e.Description))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1).
		Width(cw).
		Render(strings.Join(lines, "\n"))
}

func timeRange(e api.Event) string {
	if e.AllDay {
		return "All day"
	}
	if e.End.IsZero() {
		return e.Start.Format("15:04")
	}
	return e.Start.Format("15:04") + " – " + e.End.Format("15:04")
}

// formatDay renders the day in French, e.g. "Aujourd'hui · lundi 3 mars".
func formatDay(day, today time.Time) string {
	label := fmt.Sprintf("%s %d %s", weekdays[day.Weekday()], day.Day(), months[day.Month()-1])
	switch {
	case sameDay(day, today):
		return "Aujourd'hui · " + label
	case sameDay(day, today.AddDate(0, 0, -1)):
		return "Hier · " + label
	case sameDay(day, today.AddDate(0, 0, 1)):
		return "Demain · " + label
	}
	return label
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

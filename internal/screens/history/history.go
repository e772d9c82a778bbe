package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/router"
	"github.com/jsp88/jsp/internal/screen"
	"github.com/jsp88/jsp/internal/store"
	"github.com/jsp88/jsp/internal/ui/layout"
	"github.com/jsp88/jsp/internal/ui/theme"
)

const historyLimit = 50

type historyLoadedMsg struct {
	Attempts []store.AttemptRecord
	Err      error
}

type remoteLoadedMsg struct {
	Entries []api.QuizHistoryEntry
	Err     error
}

// HistoryScreen displays past quiz attempts, from the local history or
// from the portal.
type HistoryScreen struct {
	env       *screen.Env
	attempts  []store.AttemptRecord
	remote    []api.QuizHistoryEntry
	showing   bool // true when the portal history is displayed
	selected  int
	expanded  map[int]bool
	loaded    bool
	remoteErr string
	errMsg    string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(env *screen.Env) *HistoryScreen {
	return &HistoryScreen{
		env:      env,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.env.Attempts
	return func() tea.Msg {
		if repo == nil {
			return historyLoadedMsg{}
		}
		attempts, err := repo.List(context.Background(), store.QueryOpts{Limit: historyLimit})
		return historyLoadedMsg{Attempts: attempts, Err: err}
	}
}

func (s *HistoryScreen) loadRemote() tea.Cmd {
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		entries, err := env.Client.MyQuizzes(ctx)
		return remoteLoadedMsg{Entries: entries, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	if s.showing {
		return "History · portal"
	}
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "Tab", Description: "Local/Portal"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) count() int {
	if s.showing {
		return len(s.remote)
	}
	return len(s.attempts)
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.attempts = msg.Attempts
		}
		s.loaded = true
		return s, nil

	case remoteLoadedMsg:
		if msg.Err != nil {
			s.remoteErr = api.Message(msg.Err)
		} else {
			s.remoteErr = ""
			s.remote = msg.Entries
		}
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < s.count()-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			if !s.showing {
				s.expanded[s.selected] = !s.expanded[s.selected]
			}
			return s, nil
		case "tab":
			s.showing = !s.showing
			s.selected = 0
			if s.showing && s.remote == nil {
				return s, s.loadRemote()
			}
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Message(width, "Error: "+s.errMsg, theme.Error)
	}
	if !s.loaded {
		return layout.Message(width, "Loading history...", theme.TextDim)
	}
	if s.showing {
		return s.viewRemote(width)
	}
	if len(s.attempts) == 0 {
		return layout.Message(width, "No quiz taken on this device yet.", theme.TextDim)
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, a := range s.attempts {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "> "
			style = style.Foreground(theme.Primary).Bold(true)
		}

		line := style.Render(fmt.Sprintf("%s%s  %-28s", prefix, a.CreatedAt.Local().Format("02/01/2006 15:04"), a.QuizTitle)) +
			"  " + lipgloss.NewStyle().Foreground(theme.BandColor(a.Band)).Bold(true).Render(fmt.Sprintf("%3d%%", a.Percentage))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, line))
		b.WriteString("\n")

		if s.expanded[i] {
			detail := fmt.Sprintf("    %d/%d correct  ·  score %.1f/20", a.Correct, a.Total, a.Score)
			if a.PasserID != nil {
				detail += fmt.Sprintf("  ·  attempt #%d", *a.PasserID)
			} else {
				detail += "  ·  attempt not registered"
			}
			if a.Message != "" {
				detail += "\n    " + a.Message
			}
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render(detail)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (s *HistoryScreen) viewRemote(width int) string {
	if s.remoteErr != "" {
		return layout.Message(width, s.remoteErr, theme.Error)
	}
	if s.remote == nil {
		return layout.Message(width, "Loading portal history...", theme.TextDim)
	}
	if len(s.remote) == 0 {
		return layout.Message(width, "The portal has no quiz on record.", theme.TextDim)
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, e := range s.remote {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "> "
			style = style.Foreground(theme.Primary).Bold(true)
		}
		date := "-"
		if !e.Date.IsZero() {
			date = e.Date.Local().Format("02/01/2006")
		}
		line := style.Render(fmt.Sprintf("%s%-10s  %-28s  %.1f/20", prefix, date, e.Title, e.Score))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, line))
		b.WriteString("\n")
	}
	return b.String()
}

package quizlist

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/router"
	"github.com/jsp88/jsp/internal/screen"
	quizscreen "github.com/jsp88/jsp/internal/screens/quiz"
	"github.com/jsp88/jsp/internal/ui/layout"
	"github.com/jsp88/jsp/internal/ui/theme"
)

type quizzesLoadedMsg struct {
	Quizzes []api.QuizSummary
	Best    map[int64]int
	Err     error
}

// QuizListScreen lists the quizzes available to the trainee.
type QuizListScreen struct {
	env      *screen.Env
	quizzes  []api.QuizSummary
	best     map[int64]int
	selected int
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*QuizListScreen)(nil)
var _ screen.KeyHintProvider = (*QuizListScreen)(nil)

// New creates a new QuizListScreen.
func New(env *screen.Env) *QuizListScreen {
	return &QuizListScreen{env: env}
}

func (s *QuizListScreen) Init() tea.Cmd {
	return s.load()
}

func (s *QuizListScreen) load() tea.Cmd {
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()

		quizzes, err := env.Client.Quizzes(ctx)
		if err != nil {
			return quizzesLoadedMsg{Err: err}
		}

		best := make(map[int64]int)
		if env.Attempts != nil {
			for _, q := range quizzes {
				rec, err := env.Attempts.Best(ctx, q.ID)
				if err != nil {
					env.Log().Warn("best attempt", zap.Int64("quiz_id", q.ID), zap.Error(err))
					continue
				}
				if rec != nil {
					best[q.ID] = rec.Percentage
				}
			}
		}
		return quizzesLoadedMsg{Quizzes: quizzes, Best: best}
	}
}

func (s *QuizListScreen) Title() string {
	return "Quizzes"
}

func (s *QuizListScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Start"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "R", Description: "Refresh"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *QuizListScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case quizzesLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = api.Message(msg.Err)
			return s, nil
		}
		s.errMsg = ""
		s.quizzes = msg.Quizzes
		s.best = msg.Best
		if s.selected >= len(s.quizzes) {
			s.selected = max(len(s.quizzes)-1, 0)
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
		case "down", "j":
			if s.selected < len(s.quizzes)-1 {
				s.selected++
			}
		case "r":
			s.loaded = false
			return s, s.load()
		case "enter":
			if s.selected < len(s.quizzes) {
				q := s.quizzes[s.selected]
				next := quizscreen.New(s.env, q.ID, q.Title)
				return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
			}
		}
	}
	return s, nil
}

func (s *QuizListScreen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Message(width, s.errMsg+"\n\nPress R to retry.", theme.Error)
	}
	if !s.loaded {
		return layout.Message(width, "Loading quizzes...", theme.TextDim)
	}
	if len(s.quizzes) == 0 {
		return layout.Message(width, "No quiz available yet.", theme.TextDim)
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, q := range s.quizzes {
		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "▸ "
			style = theme.Selected
		}

		line := style.Render(fmt.Sprintf("%s%-40s", prefix, q.Title))
		if pct, ok := s.best[q.ID]; ok {
			line += "  " + lipgloss.NewStyle().Foreground(theme.Success).Render(fmt.Sprintf("best %d%%", pct))
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, line))
		b.WriteString("\n")
	}
	return b.String()
}

package home

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/router"
	"github.com/jsp88/jsp/internal/screen"
	"github.com/jsp88/jsp/internal/screens/courses"
	"github.com/jsp88/jsp/internal/screens/history"
	"github.com/jsp88/jsp/internal/screens/planning"
	"github.com/jsp88/jsp/internal/screens/quizlist"
	"github.com/jsp88/jsp/internal/store"
	"github.com/jsp88/jsp/internal/ui/components"
	"github.com/jsp88/jsp/internal/ui/layout"
)

type stats struct {
	attempts       int
	bestPercentage int
	eventsToday    int
}

type homeLoadedMsg struct {
	Profile *api.Profile
	Stats   stats
	Err     error
}

// HomeScreen is the main menu shown once signed in.
type HomeScreen struct {
	env        *screen.Env
	menu       components.Menu
	menuLabels []string
	name       string
	grade      string
	stats      stats
	warning    string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(env *screen.Env) *HomeScreen {
	h := &HomeScreen{
		env:        env,
		menuLabels: []string{"QUIZZES", "COURSES", "PLANNING", "HISTORY", "SIGN OUT", "QUIT"},
	}

	push := func(build func() screen.Screen) func() tea.Cmd {
		return func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: build()} }
		}
	}

	items := []components.MenuItem{
		{Label: h.menuLabels[0], Hotkey: "q", Action: push(func() screen.Screen { return quizlist.New(env) })},
		{Label: h.menuLabels[1], Hotkey: "c", Action: push(func() screen.Screen { return courses.New(env) })},
		{Label: h.menuLabels[2], Hotkey: "p", Action: push(func() screen.Screen { return planning.New(env, time.Now()) })},
		{Label: h.menuLabels[3], Hotkey: "h", Action: push(func() screen.Screen { return history.New(env) })},
		{Label: h.menuLabels[4], Hotkey: "o", Action: h.signOut},
		{Label: h.menuLabels[5], Action: func() tea.Cmd { return tea.Quit }},
	}
	h.menu = components.NewMenu(items)
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	env := h.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()

		var msg homeLoadedMsg
		msg.Profile, msg.Err = env.Client.CurrentUser(ctx)

		if env.Attempts != nil {
			records, err := env.Attempts.List(ctx, store.QueryOpts{})
			if err != nil {
				env.Log().Warn("list attempts", zap.Error(err))
			}
			msg.Stats.attempts = len(records)
			for _, r := range records {
				msg.Stats.bestPercentage = max(msg.Stats.bestPercentage, r.Percentage)
			}
		}

		if msg.Err == nil {
			events, err := env.Client.MyEvents(ctx)
			if err != nil {
				env.Log().Warn("load events", zap.Error(err))
			}
			msg.Stats.eventsToday = len(api.EventsOn(events, time.Now()))
		}
		return msg
	}
}

func (h *HomeScreen) signOut() tea.Cmd {
	env := h.env
	return func() tea.Msg {
		if err := env.Client.Logout(context.Background()); err != nil {
			env.Log().Warn("logout", zap.Error(err))
		}
		return screen.SignedOutMsg{}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case homeLoadedMsg:
		h.stats = msg.Stats
		if msg.Err != nil {
			h.warning = api.Message(msg.Err)
		} else {
			h.warning = ""
			h.name = msg.Profile.DisplayName()
			h.grade = msg.Profile.GradeName()
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	compact := layout.IsCompactWidth(width) || layout.IsCompactHeight(height)

	cw := contentWidth(width)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	sections = append(sections, renderProfile(h.name, h.grade, cw))
	sections = append(sections, renderStatsBar(h.stats, cw, compact))
	if h.warning != "" {
		sections = append(sections, renderWarning(h.warning, cw))
	}
	sections = append(sections, renderMenu(h.menuLabels, h.menu.Selected, cw, compact))

	return renderFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Q/C/P/H", Description: "Shortcuts"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

package courses

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/download"
	"github.com/jsp88/jsp/internal/router"
	"github.com/jsp88/jsp/internal/screen"
	"github.com/jsp88/jsp/internal/ui/layout"
	"github.com/jsp88/jsp/internal/ui/theme"
)

// Tab selects which course list is shown.
type Tab int

const (
	TabMine Tab = iota
	TabAll
)

type coursesLoadedMsg struct {
	Mine []api.Course
	All  []api.Course
	Err  error
}

type followDoneMsg struct {
	ID     int64
	Follow bool
	Err    error
}

type downloadDoneMsg struct {
	Result *download.Result
	Err    error
}

// CoursesScreen lists followed and available courses.
type CoursesScreen struct {
	env      *screen.Env
	tab      Tab
	mine     []api.Course
	all      []api.Course
	followed map[int64]bool
	selected int
	loaded   bool
	busy     bool
	errMsg   string
	flash    string
}

var _ screen.Screen = (*CoursesScreen)(nil)
var _ screen.KeyHintProvider = (*CoursesScreen)(nil)

// New creates a new CoursesScreen on the "mine" tab.
func New(env *screen.Env) *CoursesScreen {
	return &CoursesScreen{env: env, followed: make(map[int64]bool)}
}

func (s *CoursesScreen) Init() tea.Cmd {
	return s.load()
}

func (s *CoursesScreen) load() tea.Cmd {
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()

		mine, err := env.Client.MyCourses(ctx)
		if err != nil {
			return coursesLoadedMsg{Err: err}
		}
		all, err := env.Client.Courses(ctx)
		if err != nil {
			return coursesLoadedMsg{Err: err}
		}
		return coursesLoadedMsg{Mine: mine, All: all}
	}
}

func (s *CoursesScreen) Title() string {
	return "Courses"
}

func (s *CoursesScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Mine/All"},
		{Key: "F", Description: "Follow/Unfollow"},
		{Key: "D", Description: "Download"},
		{Key: "Esc", Description: "Back"},
	}
}

// visible returns the courses of the current tab.
func (s *CoursesScreen) visible() []api.Course {
	if s.tab == TabAll {
		return s.all
	}
	return s.mine
}

func (s *CoursesScreen) current() (api.Course, bool) {
	list := s.visible()
	if s.selected < 0 || s.selected >= len(list) {
		return api.Course{}, false
	}
	return list[s.selected], true
}

func (s *CoursesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case coursesLoadedMsg:
		s.loaded = true
		s.busy = false
		if msg.Err != nil {
			s.errMsg = api.Message(msg.Err)
			return s, nil
		}
		s.errMsg = ""
		s.mine, s.all = msg.Mine, msg.All
		s.followed = make(map[int64]bool, len(s.mine))
		for _, c := range s.mine {
			s.followed[c.ID] = true
		}
		s.clampSelection()
		return s, nil

	case followDoneMsg:
		if msg.Err != nil {
			s.busy = false
			s.flash = api.Message(msg.Err)
			return s, nil
		}
		if msg.Follow {
			s.flash = "Course followed."
		} else {
			s.flash = "Course unfollowed."
		}
		return s, s.load()

	case downloadDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.flash = api.Message(msg.Err)
			return s, nil
		}
		s.flash = "Saved " + msg.Result.Path
		return s, nil

	case tea.KeyPressMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "tab", "left", "right":
			if s.tab == TabMine {
				s.tab = TabAll
			} else {
				s.tab = TabMine
			}
			s.selected = 0
			s.flash = ""
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.visible())-1 {
				s.selected++
			}
		case "r":
			s.busy = true
			return s, s.load()
		case "f":
			if c, ok := s.current(); ok {
				s.busy = true
				return s, s.toggleFollow(c.ID, !s.followed[c.ID])
			}
		case "d":
			if c, ok := s.current(); ok {
				s.busy = true
				s.flash = fmt.Sprintf("Downloading %s...", c.Title)
				return s, s.download(c.ID)
			}
		}
	}
	return s, nil
}

func (s *CoursesScreen) clampSelection() {
	if n := len(s.visible()); s.selected >= n {
		s.selected = max(n-1, 0)
	}
}

func (s *CoursesScreen) toggleFollow(id int64, follow bool) tea.Cmd {
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()

		var err error
		if follow {
			err = env.Client.FollowCourse(ctx, id)
		} else {
			err = env.Client.UnfollowCourse(ctx, id)
		}
		return followDoneMsg{ID: id, Follow: follow, Err: err}
	}
}

func (s *CoursesScreen) download(id int64) tea.Cmd {
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		res, err := download.Course(ctx, env.Client, id, env.DownloadDir, nil)
		return downloadDoneMsg{Result: res, Err: err}
	}
}

func (s *CoursesScreen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Message(width, s.errMsg+"\n\nPress R to retry.", theme.Error)
	}
	if !s.loaded {
		return layout.Message(width, "Loading courses...", theme.TextDim)
	}

	cw := min(width-4, 80)
	var b strings.Builder
	b.WriteString(renderTabs(s.tab, len(s.mine), len(s.all)))
	b.WriteString("\n\n")

	list := s.visible()
	if len(list) == 0 {
		empty := "You do not follow any course yet. Press Tab to browse them all."
		if s.tab == TabAll {
			empty = "No course available."
		}
		b.WriteString(theme.Hint.Render(empty))
	}

	for i, c := range list {
		mark := "  "
		if s.followed[c.ID] {
			mark = lipgloss.NewStyle().Foreground(theme.Success).Render("✓ ")
		}
		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "▸ "
			style = theme.Selected
		}
		b.WriteString(prefix + mark + style.Render(c.Title))
		b.WriteString("\n")
		if i == s.selected && c.Description != "" {
			b.WriteString(lipgloss.NewStyle().
				Width(cw).
				PaddingLeft(6).
				Foreground(theme.TextDim).
				Render(c.Description))
			b.WriteString("\n")
		}
	}

	if s.flash != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render(s.flash))
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, b.String())
}

func renderTabs(active Tab, mine, all int) string {
	label := func(t Tab, text string) string {
		if t == active {
			return theme.ButtonActive.Render(text)
		}
		return lipgloss.NewStyle().Foreground(theme.TextDim).Padding(0, 2).Render(text)
	}
	return label(TabMine, fmt.Sprintf("My courses (%d)", mine)) + " " +
		label(TabAll, fmt.Sprintf("All courses (%d)", all))
}

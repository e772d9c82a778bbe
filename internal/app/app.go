package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/router"
	"github.com/jsp88/jsp/internal/screen"
	"github.com/jsp88/jsp/internal/screens/home"
	"github.com/jsp88/jsp/internal/screens/login"
	"github.com/jsp88/jsp/internal/screens/welcome"
	"github.com/jsp88/jsp/internal/ui/layout"
)

const expiredNotice = "Your session expired. Please sign in again."

// authExpiredMsg is sent by the client subscription when the stored token
// was rejected.
type authExpiredMsg struct{}

type userLoadedMsg struct {
	Name string
}

// Option configures the application.
type Option func(*options)

type options struct {
	start    func(env *screen.Env) screen.Screen
	noSplash bool
	program  []tea.ProgramOption
}

func collectOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithStartScreen opens build on top of the home screen. It is ignored
// when nobody is signed in.
func WithStartScreen(build func(env *screen.Env) screen.Screen) Option {
	return func(o *options) { o.start = build }
}

// WithoutSplash skips the welcome animation.
func WithoutSplash() Option {
	return func(o *options) { o.noSplash = true }
}

// WithProgramOptions passes options through to the Bubble Tea program.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(o *options) { o.program = append(o.program, opts...) }
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router   *router.Router
	env      *screen.Env
	user     string
	signedIn bool
	start    func(env *screen.Env) screen.Screen
	width    int
	height   int
}

// newAppModel picks the first screen from the stored credential.
func newAppModel(env *screen.Env, opts ...Option) AppModel {
	o := collectOptions(opts)

	m := AppModel{
		env:      env,
		signedIn: env.Client.IsAuthenticated(context.Background()),
	}
	if m.signedIn {
		m.start = o.start
	}

	next := func() screen.Screen {
		if m.signedIn {
			return home.New(env)
		}
		return login.New(env, "")
	}

	switch {
	case m.start != nil:
		m.router = router.New(home.New(env))
	case o.noSplash:
		m.router = router.New(next())
	default:
		m.router = router.New(welcome.New(next))
	}
	return m
}

func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.router.Active().Init()}
	if m.start != nil {
		cmds = append(cmds, m.router.Push(m.start(m.env)))
	}
	if m.signedIn {
		cmds = append(cmds, m.loadUser())
	}
	return tea.Batch(cmds...)
}

func (m AppModel) loadUser() tea.Cmd {
	env := m.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		p, err := env.Client.CurrentUser(ctx)
		if err != nil {
			env.Log().Debug("load profile for header", zap.Error(err))
			return nil
		}
		return userLoadedMsg{Name: p.DisplayName()}
	}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case userLoadedMsg:
		m.user = msg.Name
		return m, nil

	case screen.SignedInMsg:
		m.user = msg.DisplayName
		m.signedIn = true
		return m, m.router.Reset(home.New(m.env))

	case screen.SignedOutMsg:
		m.user = ""
		m.signedIn = false
		return m, m.router.Reset(login.New(m.env, msg.Reason))

	case authExpiredMsg:
		// A rejected login also reports an expired session.
		if _, onLogin := m.router.Active().(*login.LoginScreen); onLogin {
			return m, nil
		}
		m.env.Log().Info("session expired, back to login")
		m.user = ""
		m.signedIn = false
		return m, m.router.Reset(login.New(m.env, expiredNotice))

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render draws the whole frame as a string.
func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.user, m.width)
	footer := layout.RenderFooter(m.footerHints(), m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(m.height-headerHeight-footerHeight, 0)

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m AppModel) footerHints() []layout.KeyHint {
	if p, ok := m.router.Active().(screen.KeyHintProvider); ok {
		return p.KeyHints()
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program and blocks until it exits. Errors are
// returned to the caller, which reports them.
func Run(env *screen.Env, opts ...Option) error {
	p := tea.NewProgram(newAppModel(env, opts...), collectOptions(opts).program...)

	unsubscribe := env.Client.OnAuthExpired(func(context.Context, *api.AuthExpiredError) {
		go p.Send(authExpiredMsg{})
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}
	return nil
}

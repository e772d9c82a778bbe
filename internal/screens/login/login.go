package login

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/screen"
	"github.com/jsp88/jsp/internal/store"
	"github.com/jsp88/jsp/internal/ui/components"
	"github.com/jsp88/jsp/internal/ui/layout"
	"github.com/jsp88/jsp/internal/ui/theme"
)

const (
	fieldEmail = iota
	fieldPassword
)

type loginResultMsg struct {
	Profile *api.Profile
	Err     error
}

// LoginScreen asks for the trainee's credentials.
type LoginScreen struct {
	env      *screen.Env
	email    components.TextInput
	password components.TextInput
	button   components.Button
	focus    int
	notice   string
	errMsg   string
	busy     bool
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)

// New creates a LoginScreen. notice, when set, is shown above the form,
// for instance after the session expired. The email is prefilled with the
// last address that signed in.
func New(env *screen.Env, notice string) *LoginScreen {
	s := &LoginScreen{
		env:      env,
		email:    components.NewTextInput("Email", "prenom.nom@sdis88.fr", false, 254),
		password: components.NewTextInput("Password", "", true, 128),
		button:   components.NewButton("Sign in", "Signing in..."),
		notice:   notice,
	}

	if env.KV != nil {
		last, ok, err := env.KV.Get(context.Background(), store.LastEmailKey)
		if err != nil {
			env.Log().Warn("read last email", zap.Error(err))
		}
		if ok {
			s.email.SetValue(last)
			s.focus = fieldPassword
		}
	}
	return s
}

func (s *LoginScreen) Init() tea.Cmd {
	return s.applyFocus()
}

func (s *LoginScreen) Title() string {
	return "Sign in"
}

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Sign in"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		return s.handleResult(msg)

	case tea.KeyPressMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down":
			s.focus = (s.focus + 1) % 2
			return s, s.applyFocus()
		case "shift+tab", "up":
			s.focus = (s.focus + 1) % 2
			return s, s.applyFocus()
		case "enter":
			if s.focus == fieldEmail {
				s.focus = fieldPassword
				return s, s.applyFocus()
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	if s.focus == fieldEmail {
		s.email, cmd = s.email.Update(msg)
	} else {
		s.password, cmd = s.password.Update(msg)
	}
	return s, cmd
}

func (s *LoginScreen) applyFocus() tea.Cmd {
	s.button.Focused = s.focus == fieldPassword
	if s.focus == fieldEmail {
		s.password.Blur()
		return s.email.Focus()
	}
	s.email.Blur()
	return s.password.Focus()
}

func (s *LoginScreen) submit() tea.Cmd {
	email := strings.TrimSpace(s.email.Value())
	password := s.password.Value()
	if email == "" || password == "" {
		s.errMsg = "Enter your email and password."
		return nil
	}

	s.errMsg = ""
	s.notice = ""
	s.busy = true
	s.button.Busy = true

	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		profile, err := env.Client.Login(ctx, email, password)
		return loginResultMsg{Profile: profile, Err: err}
	}
}

func (s *LoginScreen) handleResult(msg loginResultMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	s.button.Busy = false

	if msg.Err != nil {
		s.env.Log().Info("login failed", zap.Error(msg.Err))
		s.errMsg = api.Message(msg.Err)
		s.password.SetValue("")
		s.focus = fieldPassword
		return s, s.applyFocus()
	}

	email := strings.TrimSpace(s.email.Value())
	if s.env.KV != nil {
		if err := s.env.KV.Set(context.Background(), store.LastEmailKey, email); err != nil {
			s.env.Log().Warn("save last email", zap.Error(err))
		}
	}

	name := email
	if msg.Profile != nil {
		name = msg.Profile.DisplayName()
	}
	return s, func() tea.Msg { return screen.SignedInMsg{DisplayName: name} }
}

func (s *LoginScreen) View(width, height int) string {
	cw := min(width-4, 60)
	inner := cw - 6

	var sections []string
	sections = append(sections, lipgloss.NewStyle().
		Width(inner).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render("Espace JSP"))

	if s.notice != "" {
		sections = append(sections, lipgloss.NewStyle().
			Width(inner).
			Align(lipgloss.Center).
			Foreground(theme.Warning).
			Render(s.notice))
	}

	sections = append(sections, s.email.View(), s.password.View(), s.button.View())

	if s.errMsg != "" {
		sections = append(sections, lipgloss.NewStyle().
			Width(inner).
			Foreground(theme.Error).
			Render(s.errMsg))
	}

	card := theme.Card.Width(cw).Render(strings.Join(sections, "\n\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

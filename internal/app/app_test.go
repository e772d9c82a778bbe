package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsp88/jsp/internal/router"
	"github.com/jsp88/jsp/internal/screen"
	"github.com/jsp88/jsp/internal/screens/history"
	"github.com/jsp88/jsp/internal/screens/home"
	"github.com/jsp88/jsp/internal/screens/login"
	"github.com/jsp88/jsp/internal/screens/screentest"
	"github.com/jsp88/jsp/internal/screens/welcome"
)

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(AppModel)
	require.True(t, ok)
	return am, cmd
}

func TestApp_SplashLeadsToLogin(t *testing.T) {
	env, _ := screentest.NewEnv(t, false)
	m := newAppModel(env)

	_, ok := m.router.Active().(*welcome.WelcomeScreen)
	require.True(t, ok)

	m, cmd := update(t, m, screentest.Key("x"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	_, ok = m.router.Active().(*login.LoginScreen)
	assert.True(t, ok, "got %T", m.router.Active())
}

func TestApp_SplashLeadsHomeWhenSignedIn(t *testing.T) {
	env, _ := screentest.NewEnv(t, true)
	m := newAppModel(env)

	m, cmd := update(t, m, screentest.Key("x"))
	m, _ = update(t, m, cmd())

	_, ok := m.router.Active().(*home.HomeScreen)
	assert.True(t, ok, "got %T", m.router.Active())
}

func TestApp_SignInAndOut(t *testing.T) {
	env, _ := screentest.NewEnv(t, false)
	m := newAppModel(env, WithoutSplash())
	_, ok := m.router.Active().(*login.LoginScreen)
	require.True(t, ok)

	m, _ = update(t, m, screen.SignedInMsg{DisplayName: "Léa Martin"})
	assert.Equal(t, "Léa Martin", m.user)
	_, ok = m.router.Active().(*home.HomeScreen)
	assert.True(t, ok)
	assert.Equal(t, 1, m.router.Depth())

	m, _ = update(t, m, screen.SignedOutMsg{})
	assert.Empty(t, m.user)
	_, ok = m.router.Active().(*login.LoginScreen)
	assert.True(t, ok)
}

func TestApp_AuthExpiredResetsToLogin(t *testing.T) {
	env, _ := screentest.NewEnv(t, true)
	m := newAppModel(env, WithoutSplash())
	m, _ = update(t, m, router.PushScreenMsg{Screen: history.New(env)})
	require.Equal(t, 2, m.router.Depth())

	m, _ = update(t, m, authExpiredMsg{})
	assert.Equal(t, 1, m.router.Depth())
	ls, ok := m.router.Active().(*login.LoginScreen)
	require.True(t, ok)
	assert.Contains(t, ls.View(100, 30), expiredNotice)

	// Already on the login screen: nothing changes.
	m, _ = update(t, m, authExpiredMsg{})
	assert.Same(t, ls, m.router.Active())
}

func TestApp_StartScreen(t *testing.T) {
	env, _ := screentest.NewEnv(t, true)
	m := newAppModel(env, WithStartScreen(func(env *screen.Env) screen.Screen { return history.New(env) }))
	m.Init()

	assert.Equal(t, 2, m.router.Depth())
	_, ok := m.router.Active().(*history.HistoryScreen)
	assert.True(t, ok)

	m, cmd := update(t, m, screentest.Key("esc"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	_, ok = m.router.Active().(*home.HomeScreen)
	assert.True(t, ok)
}

func TestApp_StartScreenIgnoredWhenSignedOut(t *testing.T) {
	env, _ := screentest.NewEnv(t, false)
	m := newAppModel(env, WithStartScreen(func(env *screen.Env) screen.Screen { return history.New(env) }))
	_, ok := m.router.Active().(*welcome.WelcomeScreen)
	assert.True(t, ok)
}

func TestApp_CtrlCQuits(t *testing.T) {
	env, _ := screentest.NewEnv(t, false)
	m := newAppModel(env, WithoutSplash())

	_, cmd := update(t, m, tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestApp_View(t *testing.T) {
	env, _ := screentest.NewEnv(t, false)
	m := newAppModel(env, WithoutSplash())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, screen.SignedInMsg{DisplayName: "Léa Martin"})
	assert.Contains(t, m.render(), "Léa Martin")

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 5})
	assert.NotContains(t, m.render(), "Léa Martin")
}

func TestRun_ReturnsErrorWithoutPrinting(t *testing.T) {
	env, _ := screentest.NewEnv(t, false)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stderr := os.Stderr
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = stderr })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runErr := Run(env, WithoutSplash(), WithProgramOptions(
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(&bytes.Buffer{}),
		tea.WithoutRenderer(),
	))

	os.Stderr = stderr
	require.NoError(t, w.Close())
	printed, err := io.ReadAll(r)
	require.NoError(t, err)

	require.Error(t, runErr)
	assert.ErrorIs(t, runErr, tea.ErrProgramKilled)
	assert.ErrorIs(t, runErr, context.Canceled)
	assert.Empty(t, strings.TrimSpace(string(printed)))
}

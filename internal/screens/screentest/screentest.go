// Package screentest builds screen environments backed by the fixture API
// for screen tests.
package screentest

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/fakeapi"
	"github.com/jsp88/jsp/internal/screen"
	"github.com/jsp88/jsp/internal/store"
)

// NewEnv starts a fixture backend and returns an Env wired to it and to a
// temporary database. When signedIn is set the demo trainee is logged in.
func NewEnv(t testing.TB, signedIn bool) (*screen.Env, *fakeapi.Server) {
	t.Helper()

	fake := fakeapi.New()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	st, err := store.Open(filepath.Join(t.TempDir(), "jsp.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	env := &screen.Env{
		Client:      api.NewClient(srv.URL+"/api", st.CredentialRepo()),
		Attempts:    st.AttemptRepo(),
		KV:          st.KV(),
		DownloadURL: srv.URL + "/api",
		DownloadDir: t.TempDir(),
		Timeout:     5 * time.Second,
	}

	if signedIn {
		if _, err := env.Client.Login(context.Background(), fakeapi.DemoEmail, fakeapi.DemoPassword); err != nil {
			t.Fatalf("login: %v", err)
		}
	}
	return env, fake
}

// Key builds a key press for names like "enter", "esc", "tab", "up" or a
// single printable character.
func Key(name string) tea.KeyPressMsg {
	switch name {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "left":
		return tea.KeyPressMsg{Code: tea.KeyLeft}
	case "right":
		return tea.KeyPressMsg{Code: tea.KeyRight}
	case "space":
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	}
	r := []rune(name)[0]
	return tea.KeyPressMsg{Code: r, Text: name}
}

// Run executes cmd and feeds its message back into s, returning the
// updated screen and the message. Only use it on commands that do not
// tick.
func Run(t testing.TB, s screen.Screen, cmd tea.Cmd) (screen.Screen, tea.Msg) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	next, _ := s.Update(msg)
	return next, msg
}

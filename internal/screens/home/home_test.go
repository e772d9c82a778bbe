package home

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsp88/jsp/internal/fakeapi"
	"github.com/jsp88/jsp/internal/router"
	"github.com/jsp88/jsp/internal/screen"
	"github.com/jsp88/jsp/internal/screens/courses"
	"github.com/jsp88/jsp/internal/screens/history"
	"github.com/jsp88/jsp/internal/screens/planning"
	"github.com/jsp88/jsp/internal/screens/quizlist"
	"github.com/jsp88/jsp/internal/screens/screentest"
	"github.com/jsp88/jsp/internal/store"
)

func TestHome_LoadsProfileAndStats(t *testing.T) {
	env, _ := screentest.NewEnv(t, true)
	ctx := context.Background()
	require.NoError(t, env.Attempts.Append(ctx, &store.AttemptRecord{QuizID: 1, Percentage: 50, Band: "borderline"}))
	require.NoError(t, env.Attempts.Append(ctx, &store.AttemptRecord{QuizID: 2, Percentage: 100, Band: "good"}))

	h := New(env)
	screentest.Run(t, h, h.Init())

	assert.Equal(t, "Léa Martin", h.name)
	assert.Equal(t, "JSP 2", h.grade)
	assert.Equal(t, 2, h.stats.attempts)
	assert.Equal(t, 100, h.stats.bestPercentage)
	assert.Empty(t, h.warning)

	view := h.View(120, 40)
	assert.Contains(t, view, "Léa Martin")
	assert.Contains(t, view, "100%")
}

func TestHome_ProfileErrorShowsWarning(t *testing.T) {
	env, fake := screentest.NewEnv(t, true)
	fake.Fail(fakeapi.RouteMe, http.StatusInternalServerError)

	h := New(env)
	screentest.Run(t, h, h.Init())

	assert.NotEmpty(t, h.warning)
	assert.Contains(t, h.View(120, 40), h.warning)
}

func TestHome_Hotkeys(t *testing.T) {
	env, _ := screentest.NewEnv(t, true)
	h := New(env)

	tests := []struct {
		key   string
		check func(screen.Screen) bool
	}{
		{"q", func(s screen.Screen) bool { _, ok := s.(*quizlist.QuizListScreen); return ok }},
		{"c", func(s screen.Screen) bool { _, ok := s.(*courses.CoursesScreen); return ok }},
		{"p", func(s screen.Screen) bool { _, ok := s.(*planning.PlanningScreen); return ok }},
		{"h", func(s screen.Screen) bool { _, ok := s.(*history.HistoryScreen); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, cmd := h.Update(screentest.Key(tt.key))
			require.NotNil(t, cmd)
			push, ok := cmd().(router.PushScreenMsg)
			require.True(t, ok)
			assert.True(t, tt.check(push.Screen), "unexpected screen %T", push.Screen)
		})
	}
}

func TestHome_SignOut(t *testing.T) {
	env, _ := screentest.NewEnv(t, true)
	require.True(t, env.Client.IsAuthenticated(context.Background()))

	h := New(env)
	_, cmd := h.Update(screentest.Key("o"))
	require.NotNil(t, cmd)

	_, ok := cmd().(screen.SignedOutMsg)
	assert.True(t, ok)
	assert.False(t, env.Client.IsAuthenticated(context.Background()))
}

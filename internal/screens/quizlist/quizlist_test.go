package quizlist

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsp88/jsp/internal/fakeapi"
	"github.com/jsp88/jsp/internal/router"
	quizscreen "github.com/jsp88/jsp/internal/screens/quiz"
	"github.com/jsp88/jsp/internal/screens/screentest"
	"github.com/jsp88/jsp/internal/store"
)

func TestQuizList_LoadsWithBestScores(t *testing.T) {
	env, _ := screentest.NewEnv(t, true)
	require.NoError(t, env.Attempts.Append(context.Background(), &store.AttemptRecord{
		QuizID: 1, QuizTitle: "Sécurité incendie", Correct: 1, Total: 2, Percentage: 50, Band: "borderline",
	}))

	s := New(env)
	assert.Contains(t, s.View(100, 30), "Loading quizzes...")

	screentest.Run(t, s, s.Init())
	require.Len(t, s.quizzes, 3)

	view := s.View(100, 30)
	assert.Contains(t, view, "Sécurité incendie")
	assert.Contains(t, view, "Secourisme")
	assert.Contains(t, view, "best 50%")
}

func TestQuizList_EnterPushesQuiz(t *testing.T) {
	env, _ := screentest.NewEnv(t, true)
	s := New(env)
	screentest.Run(t, s, s.Init())

	s.Update(screentest.Key("down"))
	want := s.quizzes[1]

	_, cmd := s.Update(screentest.Key("enter"))
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)

	qs, ok := push.Screen.(*quizscreen.QuizScreen)
	require.True(t, ok, "got %T", push.Screen)
	assert.Equal(t, want.ID, qs.Session().QuizID())
}

func TestQuizList_ErrorThenRefresh(t *testing.T) {
	env, fake := screentest.NewEnv(t, true)
	fake.Fail(fakeapi.RouteQuizzes, http.StatusInternalServerError)

	s := New(env)
	screentest.Run(t, s, s.Init())
	assert.Contains(t, s.View(100, 30), "Press R to retry.")

	fake.Heal()
	_, cmd := s.Update(screentest.Key("r"))
	screentest.Run(t, s, cmd)
	assert.Empty(t, s.errMsg)
	assert.Len(t, s.quizzes, 3)
}

func TestQuizList_EscPops(t *testing.T) {
	env, _ := screentest.NewEnv(t, true)
	s := New(env)

	_, cmd := s.Update(screentest.Key("esc"))
	require.NotNil(t, cmd)
	_, ok := cmd().(router.PopScreenMsg)
	assert.True(t, ok)
}

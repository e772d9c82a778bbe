package planning

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsp88/jsp/internal/fakeapi"
	"github.com/jsp88/jsp/internal/screens/screentest"
)

func TestPlanning_Today(t *testing.T) {
	env, _ := screentest.NewEnv(t, true)
	s := New(env, time.Now())
	screentest.Run(t, s, s.Init())

	view := s.View(100, 30)
	assert.Contains(t, view, "Aujourd'hui")
	assert.Contains(t, view, "Manœuvre incendie")
	assert.Contains(t, view, "09:00 – 12:00")
	assert.Contains(t, view, "Caserne d'Épinal")
	assert.Contains(t, view, "Sport")
	assert.NotContains(t, view, "Cérémonie")
	assert.Less(t, strings.Index(view, "Manœuvre"), strings.Index(view, "Sport"), "events are in start order")
}

func TestPlanning_DayNavigation(t *testing.T) {
	env, _ := screentest.NewEnv(t, true)
	today := time.Now()
	s := New(env, today)
	screentest.Run(t, s, s.Init())

	s.Update(screentest.Key("right"))
	require.True(t, sameDay(s.Day(), today.AddDate(0, 0, 1)))
	view := s.View(100, 30)
	assert.Contains(t, view, "Demain")
	assert.Contains(t, view, "Cérémonie")
	assert.Contains(t, view, "All day")

	s.Update(screentest.Key("left"))
	s.Update(screentest.Key("left"))
	assert.Contains(t, s.View(100, 30), "Hier")
	assert.Contains(t, s.View(100, 30), "Nothing planned.")

	s.Update(screentest.Key("t"))
	assert.True(t, sameDay(s.Day(), today))
}

func TestPlanning_LoadError(t *testing.T) {
	env, fake := screentest.NewEnv(t, true)
	fake.Fail(fakeapi.RouteMyEvents, http.StatusServiceUnavailable)

	s := New(env, time.Now())
	screentest.Run(t, s, s.Init())
	assert.NotEmpty(t, s.errMsg)

	fake.Heal()
	_, cmd := s.Update(screentest.Key("r"))
	screentest.Run(t, s, cmd)
	assert.Empty(t, s.errMsg)
	assert.Len(t, s.events, 3)
}

func TestFormatDay(t *testing.T) {
	today := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.Local)
	assert.Equal(t, "Aujourd'hui · lundi 3 mars", formatDay(today, today))
	assert.Equal(t, "Demain · mardi 4 mars", formatDay(today.AddDate(0, 0, 1), today))
	assert.Equal(t, "Hier · dimanche 2 mars", formatDay(today.AddDate(0, 0, -1), today))
	assert.Equal(t, "samedi 1 mars", formatDay(today.AddDate(0, 0, -2), today))
}

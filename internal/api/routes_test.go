package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsp88/jsp/internal/fakeapi"
)

func newFakeClient(t *testing.T) (*Client, *fakeapi.Server) {
	t.Helper()
	fake := fakeapi.New()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", NewMemoryStore("")), fake
}

func loggedIn(t *testing.T) (*Client, *fakeapi.Server) {
	t.Helper()
	c, fake := newFakeClient(t)
	_, err := c.Login(context.Background(), fakeapi.DemoEmail, fakeapi.DemoPassword)
	require.NoError(t, err)
	return c, fake
}

func TestLogin_StoresTokenAndReturnsProfile(t *testing.T) {
	c, _ := newFakeClient(t)
	ctx := context.Background()
	assert.False(t, c.IsAuthenticated(ctx))

	profile, err := c.Login(ctx, fakeapi.DemoEmail, fakeapi.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, "Léa Martin", profile.DisplayName())
	assert.Equal(t, "JSP 2", profile.GradeName())
	assert.True(t, profile.IsVerified)

	assert.True(t, c.IsAuthenticated(ctx))
	assert.True(t, c.CheckTokenValidity(ctx))

	tok, err := c.Store().Token(ctx)
	require.NoError(t, err)
	details := InspectToken(tok)
	assert.True(t, details.JWT)
	assert.Equal(t, fakeapi.DemoEmail, details.Subject)
	assert.False(t, details.Expired(time.Now()))
}

func TestLogin_BadCredentials(t *testing.T) {
	c, _ := newFakeClient(t)

	_, err := c.Login(context.Background(), fakeapi.DemoEmail, "wrong")
	var loginErr *LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.Equal(t, "Identifiants incorrects", Message(err))
	assert.False(t, c.IsAuthenticated(context.Background()))
}

func TestLogin_ServiceUnavailable(t *testing.T) {
	c, fake := newFakeClient(t)
	fake.Fail(fakeapi.RouteLogin, http.StatusServiceUnavailable)

	_, err := c.Login(context.Background(), fakeapi.DemoEmail, fakeapi.DemoPassword)
	var unavail *ServiceUnavailableError
	require.ErrorAs(t, err, &unavail)
	assert.Contains(t, Message(err), "temporarily unavailable")
	assert.Equal(t, time.Second, unavail.RetryAfter)
}

func TestLogin_NetworkErrorPassesThrough(t *testing.T) {
	c, fake := newFakeClient(t)
	fake.Drop(fakeapi.RouteLogin)

	_, err := c.Login(context.Background(), fakeapi.DemoEmail, fakeapi.DemoPassword)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	var loginErr *LoginError
	assert.False(t, errors.As(err, &loginErr))
}

func TestLogin_MissingTokenIsInvalidResponse(t *testing.T) {
	c, fake := newFakeClient(t)
	fake.FailWith(fakeapi.RouteLogin, http.StatusOK, `{"user":"x"}`)

	_, err := c.Login(context.Background(), fakeapi.DemoEmail, fakeapi.DemoPassword)
	var invalid *InvalidResponseError
	require.ErrorAs(t, err, &invalid)
	assert.False(t, c.IsAuthenticated(context.Background()))
}

func TestLogout_ClearsWithoutNetwork(t *testing.T) {
	c, fake := loggedIn(t)
	before := fake.Calls(fakeapi.RouteMe)

	require.NoError(t, c.Logout(context.Background()))
	assert.False(t, c.IsAuthenticated(context.Background()))
	assert.Equal(t, before, fake.Calls(fakeapi.RouteMe))
}

func TestRevokedTokenFiresAuthExpired(t *testing.T) {
	c, fake := loggedIn(t)
	fired := 0
	c.OnAuthExpired(func(context.Context, *AuthExpiredError) { fired++ })

	fake.RevokeTokens()
	_, err := c.Quizzes(context.Background())

	var authErr *AuthExpiredError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 1, fired)
	assert.False(t, c.IsAuthenticated(context.Background()))
	assert.False(t, c.CheckTokenValidity(context.Background()))
}

func TestQuizRoutes(t *testing.T) {
	c, fake := loggedIn(t)
	ctx := context.Background()

	list, err := c.Quizzes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []QuizSummary{{1, "Sécurité incendie"}, {2, "Secourisme"}, {3, "Quiz vide"}}, list)

	quiz, err := c.Quiz(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), quiz.ID)
	require.Len(t, quiz.Questions, 3)
	assert.Equal(t, "Question sans texte", quiz.Questions[2].Prompt)
	assert.Equal(t, "Réponse sans texte", quiz.Questions[2].Answers[0].Text)

	attempt, err := c.StartQuiz(ctx, 1)
	require.NoError(t, err)
	assert.Positive(t, attempt.PasserID)

	res, err := c.SubmitQuiz(ctx, 1, Submission{
		PasserID: &attempt.PasserID,
		Reponses: []SubmittedAnswer{{10, 100}, {11, 110}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, res.Score, 1e-9)
	require.NotNil(t, res.CorrectAnswers)
	assert.Equal(t, 1, *res.CorrectAnswers)

	subs := fake.Submissions()
	require.Len(t, subs, 1)
	require.NotNil(t, subs[0].PasserID)
	assert.Equal(t, attempt.PasserID, *subs[0].PasserID)

	history, err := c.MyQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(1), history[0].QuizID)
	assert.Equal(t, "Sécurité incendie", history[0].Title)
}

func TestSubmitQuiz_NullPasserID(t *testing.T) {
	c, fake := loggedIn(t)

	_, err := c.SubmitQuiz(context.Background(), 1, Submission{})
	require.NoError(t, err)

	subs := fake.Submissions()
	require.Len(t, subs, 1)
	assert.Nil(t, subs[0].PasserID)
	assert.Empty(t, subs[0].Reponses)
}

func TestQuiz_NotFound(t *testing.T) {
	c, _ := loggedIn(t)

	_, err := c.Quiz(context.Background(), 99)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "Quiz introuvable", Message(err))
}

func TestQuiz_MalformedPayload(t *testing.T) {
	c, fake := loggedIn(t)
	fake.FailWith(fakeapi.RouteQuiz, http.StatusOK, `{"titre":"sans id"}`)

	_, err := c.Quiz(context.Background(), 1)
	var invalid *InvalidResponseError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "GET /quiz/1", invalid.Route)
}

func TestCourseRoutes(t *testing.T) {
	c, fake := loggedIn(t)
	ctx := context.Background()

	all, err := c.Courses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Matériel", all[1].Title)
	assert.Equal(t, "Tuyaux, lances et pièces de jonction.", all[1].Description)

	mine, err := c.MyCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Course{{ID: 1, Title: "Prévention", Description: "Les bases de la prévention incendie."}}, mine)

	require.NoError(t, c.FollowCourse(ctx, 3))
	assert.Equal(t, []int64{1, 3}, fake.Followed(fakeapi.DemoEmail))
	require.NoError(t, c.UnfollowCourse(ctx, 1))
	assert.Equal(t, []int64{3}, fake.Followed(fakeapi.DemoEmail))

	data, err := c.DownloadCourse(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4\n% cours 2\n", string(data))
}

func TestCourseDownloadURL(t *testing.T) {
	assert.Equal(t, "https://jsp.example/api/cours/4/download", CourseDownloadURL("https://jsp.example/api", 4))
	assert.Equal(t, "https://jsp.example/api/cours/4/download", CourseDownloadURL("https://jsp.example/", 4))
	assert.Equal(t, "https://jsp.example/api/cours/4/download", DownloadURL("https://jsp.example/api/", "/api/cours/4/download"))
}

func TestMyEvents_SortedAndFiltered(t *testing.T) {
	c, _ := loggedIn(t)

	events, err := c.MyEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Start.Before(events[i-1].Start))
	}

	today := EventsOn(events, time.Now())
	require.Len(t, today, 2)
	assert.Equal(t, "Manœuvre incendie", today[0].Title)
	assert.Equal(t, "Sport", today[1].Title)
}

func TestEventsOn_MultiDay(t *testing.T) {
	day := time.Date(2026, 5, 12, 10, 0, 0, 0, time.Local)
	events := []Event{
		{ID: "a", Start: day.AddDate(0, 0, -1), End: day.AddDate(0, 0, 1)},
		{ID: "b", Start: day.AddDate(0, 0, 1)},
		{ID: "c"},
		{ID: "d", Start: day},
	}

	got := EventsOn(events, day)
	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"a", "d"}, ids)
}

func TestInspectToken_Opaque(t *testing.T) {
	details := InspectToken("not-a-jwt")
	assert.False(t, details.JWT)
	assert.False(t, details.Expired(time.Now()))
}

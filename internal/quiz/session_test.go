package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsp88/jsp/internal/api"
)

// stubAPI is a scripted QuizAPI.
type stubAPI struct {
	mu sync.Mutex

	quiz       *api.Quiz
	quizErr    error
	attempt    *api.Attempt
	attemptErr error
	result     *api.Result
	submitErr  error

	quizCalls   int
	startCalls  int
	submissions []api.Submission
}

func (s *stubAPI) Quiz(_ context.Context, id int64) (*api.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizCalls++
	if s.quizErr != nil {
		return nil, s.quizErr
	}
	return s.quiz, nil
}

func (s *stubAPI) StartQuiz(_ context.Context, id int64) (*api.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startCalls++
	if s.attemptErr != nil {
		return nil, s.attemptErr
	}
	return s.attempt, nil
}

func (s *stubAPI) SubmitQuiz(_ context.Context, id int64, sub api.Submission) (*api.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, sub)
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return s.result, nil
}

func (s *stubAPI) set(fn func(s *stubAPI)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *stubAPI) calls() (quiz, start, submit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quizCalls, s.startCalls, len(s.submissions)
}

func intPtr(v int) *int { return &v }

// twoQuestionQuiz is the reference quiz: Q10 {100, 101}, Q11 {110, 111}.
func twoQuestionQuiz() *api.Quiz {
	return &api.Quiz{
		ID:    1,
		Title: "Sécurité incendie",
		Questions: []api.Question{
			{ID: 10, Prompt: "Q10", Answers: []api.Answer{{ID: 100, Text: "A"}, {ID: 101, Text: "B"}}},
			{ID: 11, Prompt: "Q11", Answers: []api.Answer{{ID: 110, Text: "C"}, {ID: 111, Text: "D"}}},
		},
	}
}

func newStub() *stubAPI {
	return &stubAPI{
		quiz:    twoQuestionQuiz(),
		attempt: &api.Attempt{PasserID: 42},
		result:  &api.Result{Score: 20, CorrectAnswers: intPtr(2), TotalQuestions: intPtr(2), Message: "Bravo !"},
	}
}

func loadedSession(t *testing.T, stub *stubAPI, opts ...Option) *Session {
	t.Helper()
	s := New(stub, 1, opts...)
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, Answering, s.State())
	return s
}

func answerAll(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.SelectAnswer(10, 100))
	require.NoError(t, s.SelectAnswer(11, 111))
}

func TestLoad_InitializesSelections(t *testing.T) {
	stub := newStub()
	s := loadedSession(t, stub)

	sel := s.Selections()
	assert.Equal(t, 2, sel.Len())
	assert.Equal(t, 0, sel.Answered())
	assert.Equal(t, []int64{10, 11}, sel.QuestionIDs())
	for _, qid := range sel.QuestionIDs() {
		_, ok := sel.Selected(qid)
		assert.False(t, ok, "question %d should be unanswered", qid)
	}
	assert.Equal(t, 0, s.Cursor())
	require.NotNil(t, s.Attempt())
	assert.Equal(t, int64(42), *s.Attempt())

	quizCalls, startCalls, _ := stub.calls()
	assert.Equal(t, 1, quizCalls)
	assert.Equal(t, 1, startCalls)
}

func TestLoad_ManyQuestionsKeepOrder(t *testing.T) {
	quiz := &api.Quiz{ID: 5}
	for _, id := range []int64{9, 3, 7, 1, 5} {
		quiz.Questions = append(quiz.Questions, api.Question{ID: id, Answers: []api.Answer{{ID: id * 10}}})
	}
	stub := newStub()
	stub.quiz = quiz

	s := loadedSession(t, stub)
	assert.Equal(t, []int64{9, 3, 7, 1, 5}, s.Selections().QuestionIDs())
	assert.Equal(t, 0, s.Selections().Answered())
	q, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, int64(9), q.ID)
}

func TestLoad_AttemptFailureDoesNotBlock(t *testing.T) {
	stub := newStub()
	stub.attemptErr = &api.NetworkError{Err: errors.New("connection reset")}

	s := loadedSession(t, stub)
	assert.Equal(t, 0, s.Cursor())
	assert.Nil(t, s.Attempt())
	assert.NoError(t, s.Err())
}

func TestLoad_QuizFailureIsFatal(t *testing.T) {
	stub := newStub()
	stub.quizErr = &api.HTTPError{Status: 500}

	var transitions []Transition
	s := New(stub, 1, WithObserver(func(tr Transition) { transitions = append(transitions, tr) }))
	err := s.Load(context.Background())

	var httpErr *api.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, Failed, s.State())
	assert.Equal(t, Loading, s.FailedDuring())
	assert.Same(t, stub.quizErr, s.Err())
	assert.Nil(t, s.Quiz(), "no partial quiz is retained")
	assert.Nil(t, s.Attempt(), "the attempt of a failed load is discarded")
	assert.Equal(t, 0, s.Selections().Len())

	require.Len(t, transitions, 1)
	assert.Equal(t, Transition{QuizID: 1, From: Loading, To: Failed, Err: stub.quizErr}, transitions[0])
}

func TestLoad_EmptyQuizFails(t *testing.T) {
	stub := newStub()
	stub.quiz = &api.Quiz{ID: 3, Title: "Quiz vide"}

	s := New(stub, 3)
	err := s.Load(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, Failed, s.State())
	assert.Equal(t, Loading, s.FailedDuring())
	assert.Equal(t, "This quiz has no questions.", api.Message(err))
}

func TestLoad_UnanswerableQuizFails(t *testing.T) {
	tests := []struct {
		name   string
		quiz   *api.Quiz
		reason string
	}{
		{
			name: "duplicate question id",
			quiz: &api.Quiz{ID: 4, Questions: []api.Question{
				{ID: 10, Answers: []api.Answer{{ID: 100}}},
				{ID: 10, Answers: []api.Answer{{ID: 101}}},
			}},
			reason: "Question 2 appears twice in this quiz.",
		},
		{
			name: "question without answers",
			quiz: &api.Quiz{ID: 5, Questions: []api.Question{
				{ID: 10, Answers: []api.Answer{{ID: 100}}},
				{ID: 11},
			}},
			reason: "Question 2 has no answers to choose from.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStub()
			stub.quiz = tt.quiz

			s := New(stub, tt.quiz.ID)
			err := s.Load(context.Background())

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.reason, api.Message(err))
			assert.Equal(t, Failed, s.State())
			assert.Equal(t, Loading, s.FailedDuring())
			assert.Nil(t, s.Quiz())

			// A corrected quiz loads on retry.
			stub.set(func(st *stubAPI) { st.quiz = twoQuestionQuiz() })
			require.NoError(t, s.RetryLoad(context.Background()))
			assert.Equal(t, Answering, s.State())
		})
	}
}

func TestLoad_RepeatedQuestionFromServerPayload(t *testing.T) {
	// Numeric and string ids name the same question once normalized.
	raw := json.RawMessage(`{"id": 4, "questions": [
		{"id": 10, "reponses": [{"id": 100}]},
		{"id": "10", "reponses": [{"id": 101}]}
	]}`)
	q, err := api.NormalizeQuiz(raw)
	require.NoError(t, err)
	require.Len(t, q.Questions, 2)

	stub := newStub()
	stub.quiz = q
	s := New(stub, 4)

	var verr *ValidationError
	require.ErrorAs(t, s.Load(context.Background()), &verr)
	assert.Equal(t, Failed, s.State())
	assert.ErrorIs(t, s.Submit(context.Background()), ErrInvalidTransition)
}

func TestLoad_OnlyOnce(t *testing.T) {
	s := loadedSession(t, newStub())
	assert.ErrorIs(t, s.Load(context.Background()), ErrInvalidTransition)
}

func TestRetryLoad(t *testing.T) {
	stub := newStub()
	stub.quizErr = &api.NetworkError{Err: errors.New("offline")}
	s := New(stub, 1)
	require.Error(t, s.Load(context.Background()))

	// Not a submit failure.
	assert.ErrorIs(t, s.RetrySubmit(context.Background()), ErrInvalidTransition)

	stub.set(func(s *stubAPI) { s.quizErr = nil })
	require.NoError(t, s.RetryLoad(context.Background()))
	assert.Equal(t, Answering, s.State())
	assert.NoError(t, s.Err())
	assert.Equal(t, 2, s.Selections().Len())

	quizCalls, startCalls, _ := stub.calls()
	assert.Equal(t, 2, quizCalls)
	assert.Equal(t, 2, startCalls)

	assert.ErrorIs(t, s.RetryLoad(context.Background()), ErrInvalidTransition)
}

func TestSelectAnswer(t *testing.T) {
	s := loadedSession(t, newStub())

	require.NoError(t, s.SelectAnswer(10, 100))
	require.NoError(t, s.SelectAnswer(10, 101), "a later choice overwrites")
	aid, ok := s.Selections().Selected(10)
	require.True(t, ok)
	assert.Equal(t, int64(101), aid)
	assert.Equal(t, 0, s.Cursor(), "selecting does not move the cursor")

	// Selecting another question's answer does not move the cursor either.
	require.NoError(t, s.SelectAnswer(11, 110))
	assert.Equal(t, 0, s.Cursor())

	var verr *ValidationError
	assert.ErrorAs(t, s.SelectAnswer(99, 100), &verr)
	assert.ErrorAs(t, s.SelectAnswer(10, 110), &verr)
	aid, _ = s.Selections().Selected(10)
	assert.Equal(t, int64(101), aid, "rejected selections change nothing")
}

func TestSelectCurrent(t *testing.T) {
	s := loadedSession(t, newStub())

	require.NoError(t, s.SelectCurrent(1))
	aid, _ := s.Selections().Selected(10)
	assert.Equal(t, int64(101), aid)

	var verr *ValidationError
	assert.ErrorAs(t, s.SelectCurrent(2), &verr)
	assert.ErrorAs(t, s.SelectCurrent(-1), &verr)
}

func TestAdvance_GatedOnAnswer(t *testing.T) {
	s := loadedSession(t, newStub())

	err := s.Advance()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, s.Cursor(), "unanswered question keeps the cursor at 0")

	require.NoError(t, s.SelectAnswer(10, 100))
	require.NoError(t, s.Advance())
	assert.Equal(t, 1, s.Cursor())
	assert.True(t, s.IsLast())

	require.NoError(t, s.SelectAnswer(11, 111))
	require.ErrorAs(t, s.Advance(), &verr)
	assert.Equal(t, 1, s.Cursor(), "cannot advance past the last question")
}

func TestRetreat(t *testing.T) {
	s := loadedSession(t, newStub())

	var verr *ValidationError
	require.ErrorAs(t, s.Retreat(), &verr)
	assert.Equal(t, 0, s.Cursor())

	require.NoError(t, s.SelectAnswer(10, 100))
	require.NoError(t, s.Advance())

	// Retreat is not gated on the current question being answered.
	require.NoError(t, s.Retreat())
	assert.Equal(t, 0, s.Cursor())
}

func TestSubmit_RequiresEveryAnswer(t *testing.T) {
	stub := newStub()
	var transitions []Transition
	s := loadedSession(t, stub, WithObserver(func(tr Transition) { transitions = append(transitions, tr) }))
	before := len(transitions)

	require.NoError(t, s.SelectAnswer(10, 100))
	err := s.Submit(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, Answering, s.State())
	assert.Len(t, transitions, before, "a rejected submit does not transition")
	_, _, submits := stub.calls()
	assert.Zero(t, submits)
}

func TestSubmit_ReferenceScenario(t *testing.T) {
	stub := newStub()
	s := loadedSession(t, stub)

	require.NoError(t, s.SelectAnswer(10, 100))
	require.NoError(t, s.Advance())
	assert.Equal(t, 1, s.Cursor())
	require.NoError(t, s.SelectAnswer(11, 111))
	require.NoError(t, s.Submit(context.Background()))

	assert.Equal(t, Scored, s.State())
	require.Len(t, stub.submissions, 1)
	sub := stub.submissions[0]
	require.NotNil(t, sub.PasserID)
	assert.Equal(t, int64(42), *sub.PasserID)
	assert.Equal(t, []api.SubmittedAnswer{{QuestionID: 10, ReponseID: 100}, {QuestionID: 11, ReponseID: 111}}, sub.Reponses)

	require.NotNil(t, s.Result())
	assert.Equal(t, "Bravo !", s.Result().Message)
}

func TestSubmit_OrderFollowsQuizNotSelection(t *testing.T) {
	stub := newStub()
	s := loadedSession(t, stub)

	require.NoError(t, s.SelectAnswer(11, 110))
	require.NoError(t, s.SelectAnswer(10, 101))
	require.NoError(t, s.Submit(context.Background()))

	assert.Equal(t, []api.SubmittedAnswer{{QuestionID: 10, ReponseID: 101}, {QuestionID: 11, ReponseID: 110}},
		stub.submissions[0].Reponses)
}

func TestSubmit_WithoutAttemptSendsNullPasser(t *testing.T) {
	stub := newStub()
	stub.attemptErr = &api.ServiceUnavailableError{}
	s := loadedSession(t, stub)

	answerAll(t, s)
	require.NoError(t, s.Submit(context.Background()))
	assert.Nil(t, stub.submissions[0].PasserID)
}

func TestSubmit_FailureKeepsAnswers(t *testing.T) {
	stub := newStub()
	stub.submitErr = &api.ServiceUnavailableError{}
	s := loadedSession(t, stub)
	answerAll(t, s)

	err := s.Submit(context.Background())
	var unavail *api.ServiceUnavailableError
	require.ErrorAs(t, err, &unavail)
	assert.Equal(t, Failed, s.State())
	assert.Equal(t, Submitting, s.FailedDuring())
	assert.Equal(t, 2, s.Selections().Answered())
	require.NotNil(t, s.Attempt())
	assert.NotEmpty(t, api.Message(s.Err()))

	// Not a load failure.
	assert.ErrorIs(t, s.RetryLoad(context.Background()), ErrInvalidTransition)

	stub.set(func(s *stubAPI) { s.submitErr = nil })
	require.NoError(t, s.RetrySubmit(context.Background()))
	assert.Equal(t, Scored, s.State())

	require.Len(t, stub.submissions, 2)
	assert.Equal(t, stub.submissions[0], stub.submissions[1], "retry resends the same payload")

	quizCalls, startCalls, _ := stub.calls()
	assert.Equal(t, 1, quizCalls)
	assert.Equal(t, 1, startCalls)
}

func TestRestart_Idempotent(t *testing.T) {
	stub := newStub()
	s := loadedSession(t, stub)
	answerAll(t, s)
	require.NoError(t, s.SelectAnswer(10, 100))
	require.NoError(t, s.Advance())
	require.NoError(t, s.Submit(context.Background()))
	require.Equal(t, Scored, s.State())

	require.NoError(t, s.Restart())
	once := struct {
		state  State
		cursor int
		sel    Selections
		result *Result
	}{s.State(), s.Cursor(), s.Selections(), s.Result()}

	require.NoError(t, s.Restart())
	assert.Equal(t, once.state, s.State())
	assert.Equal(t, once.cursor, s.Cursor())
	assert.Equal(t, once.sel, s.Selections())
	assert.Equal(t, once.result, s.Result())

	assert.Equal(t, Answering, s.State())
	assert.Equal(t, 0, s.Cursor())
	assert.Nil(t, s.Result())
	assert.Equal(t, 0, s.Selections().Answered())
	require.NotNil(t, s.Attempt(), "the attempt handle survives a restart")

	quizCalls, startCalls, _ := stub.calls()
	assert.Equal(t, 1, quizCalls, "restart never refetches the quiz")
	assert.Equal(t, 1, startCalls, "restart never reopens an attempt")
}

func TestRestart_NotAllowedBeforeLoad(t *testing.T) {
	s := New(newStub(), 1)
	assert.ErrorIs(t, s.Restart(), ErrInvalidTransition)
}

func TestOperationsRejectedOutsideAnswering(t *testing.T) {
	s := New(newStub(), 1)

	assert.ErrorIs(t, s.SelectAnswer(10, 100), ErrInvalidTransition)
	assert.ErrorIs(t, s.Advance(), ErrInvalidTransition)
	assert.ErrorIs(t, s.Retreat(), ErrInvalidTransition)
	assert.ErrorIs(t, s.Submit(context.Background()), ErrInvalidTransition)
	assert.ErrorIs(t, s.RetryLoad(context.Background()), ErrInvalidTransition)
	assert.ErrorIs(t, s.RetrySubmit(context.Background()), ErrInvalidTransition)
	assert.Equal(t, Loading, s.State())
}

func TestObserverSeesFullLifecycle(t *testing.T) {
	var transitions []Transition
	s := loadedSession(t, newStub(), WithObserver(func(tr Transition) { transitions = append(transitions, tr) }))
	answerAll(t, s)
	require.NoError(t, s.Submit(context.Background()))
	require.NoError(t, s.Restart())

	var path []State
	for _, tr := range transitions {
		path = append(path, tr.To)
	}
	assert.Equal(t, []State{Answering, Submitting, Scored, Answering}, path)
}

package quiz

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jsp88/jsp/internal/api"
)

// QuizAPI is the part of the API client a Session needs. *api.Client
// satisfies it.
type QuizAPI interface {
	Quiz(ctx context.Context, id int64) (*api.Quiz, error)
	StartQuiz(ctx context.Context, id int64) (*api.Attempt, error)
	SubmitQuiz(ctx context.Context, id int64, sub api.Submission) (*api.Result, error)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithObserver registers fn to be called after every state change.
func WithObserver(fn func(Transition)) Option {
	return func(s *Session) { s.observers = append(s.observers, fn) }
}

// Session is the state machine of one quiz attempt.
//
//	Loading -> Answering -> Submitting -> Scored -> (Restart) Answering
//	Loading -> Failed -> (RetryLoad) Loading
//	Submitting -> Failed -> (RetrySubmit) Submitting
//
// Methods are safe for concurrent use; network calls run without the lock
// held, and a second operation started while one is in flight is rejected
// with ErrInvalidTransition.
type Session struct {
	client    QuizAPI
	quizID    int64
	logger    *zap.Logger
	observers []func(Transition)

	mu           sync.Mutex
	state        State
	busy         bool
	quiz         *Quiz
	selections   Selections
	cursor       int
	attempt      *int64
	result       *Result
	err          error
	failedDuring State
}

// New creates a Session for quizID in the Loading state. Call Load to fetch
// the quiz.
func New(client QuizAPI, quizID int64, opts ...Option) *Session {
	s := &Session{
		client: client,
		quizID: quizID,
		logger: zap.NewNop(),
		state:  Loading,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the quiz and, concurrently, opens a server-side attempt. The
// quiz is required: its failure moves the session to Failed. The attempt is
// best effort: its failure is logged and leaves Attempt nil. Load waits for
// both calls before returning.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Loading || s.busy {
		defer s.mu.Unlock()
		return invalidTransition("load", s.state)
	}
	s.busy = true
	s.mu.Unlock()

	return s.load(ctx)
}

// RetryLoad repeats Load after a loading failure.
func (s *Session) RetryLoad(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Failed || s.failedDuring != Loading || s.busy {
		defer s.mu.Unlock()
		return invalidTransition("retry load", s.state)
	}
	s.busy = true
	s.err = nil
	t := s.setState(Loading)
	s.mu.Unlock()
	s.notify(t)

	return s.load(ctx)
}

func (s *Session) load(ctx context.Context) error {
	attempts := make(chan *int64, 1)
	go func() {
		a, err := s.client.StartQuiz(ctx, s.quizID)
		if err != nil {
			s.logger.Warn("could not open quiz attempt, submitting without passer id",
				zap.Int64("quiz_id", s.quizID), zap.Error(err))
			attempts <- nil
			return
		}
		id := a.PasserID
		attempts <- &id
	}()

	quiz, err := s.client.Quiz(ctx, s.quizID)
	if err == nil {
		err = checkQuiz(quiz)
	}

	if err != nil {
		// The attempt outcome no longer matters but the call is still awaited.
		select {
		case <-attempts:
		case <-ctx.Done():
		}

		s.mu.Lock()
		s.busy = false
		s.quiz = nil
		s.selections = Selections{}
		s.cursor = 0
		s.attempt = nil
		s.err = err
		s.failedDuring = Loading
		t := s.setState(Failed)
		s.mu.Unlock()
		s.notify(t)
		return err
	}

	s.mu.Lock()
	s.quiz = quiz
	s.selections = newSelections(quiz)
	s.cursor = 0
	s.attempt = nil
	s.result = nil
	t := s.setState(Answering)
	s.mu.Unlock()
	s.notify(t)

	var handle *int64
	select {
	case handle = <-attempts:
	case <-ctx.Done():
	}

	s.mu.Lock()
	s.attempt = handle
	s.busy = false
	s.mu.Unlock()
	return nil
}

// checkQuiz rejects quizzes that could never be submitted: no questions,
// a question listed twice, or a question without answers.
func checkQuiz(q *Quiz) error {
	if len(q.Questions) == 0 {
		return &ValidationError{Op: "load", Reason: "This quiz has no questions."}
	}
	seen := make(map[int64]bool, len(q.Questions))
	for i, question := range q.Questions {
		if seen[question.ID] {
			return &ValidationError{Op: "load",
				Reason: fmt.Sprintf("Question %d appears twice in this quiz.", i+1)}
		}
		seen[question.ID] = true
		if len(question.Answers) == 0 {
			return &ValidationError{Op: "load",
				Reason: fmt.Sprintf("Question %d has no answers to choose from.", i+1)}
		}
	}
	return nil
}

// SelectAnswer records answerID for questionID, replacing any earlier
// choice. The cursor does not move.
func (s *Session) SelectAnswer(questionID, answerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Answering {
		return invalidTransition("select answer", s.state)
	}
	q, ok := s.question(questionID)
	if !ok {
		return &ValidationError{Op: "select answer", Reason: "Unknown question."}
	}
	if !q.HasAnswer(answerID) {
		return &ValidationError{Op: "select answer", Reason: "This answer does not belong to the question."}
	}
	s.selections.chosen[questionID] = answerID
	return nil
}

// SelectCurrent records the answer at index i of the current question.
func (s *Session) SelectCurrent(i int) error {
	s.mu.Lock()
	if s.state != Answering {
		defer s.mu.Unlock()
		return invalidTransition("select answer", s.state)
	}
	q := s.quiz.Questions[s.cursor]
	s.mu.Unlock()

	if i < 0 || i >= len(q.Answers) {
		return &ValidationError{Op: "select answer", Reason: "No such answer."}
	}
	return s.SelectAnswer(q.ID, q.Answers[i].ID)
}

// Advance moves to the next question. The current question must be answered
// and must not be the last one.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Answering {
		return invalidTransition("advance", s.state)
	}
	if s.cursor >= len(s.quiz.Questions)-1 {
		return &ValidationError{Op: "advance", Reason: "Already at the last question."}
	}
	if _, ok := s.selections.chosen[s.quiz.Questions[s.cursor].ID]; !ok {
		return &ValidationError{Op: "advance", Reason: "Select an answer before moving on."}
	}
	s.cursor++
	return nil
}

// Retreat moves to the previous question. Answers are not required.
func (s *Session) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Answering {
		return invalidTransition("retreat", s.state)
	}
	if s.cursor == 0 {
		return &ValidationError{Op: "retreat", Reason: "Already at the first question."}
	}
	s.cursor--
	return nil
}

// Submit sends every answer for scoring. All questions must be answered.
// On failure the answers and attempt handle are kept for RetrySubmit.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Answering || s.busy {
		defer s.mu.Unlock()
		return invalidTransition("submit", s.state)
	}
	if !s.selections.AllAnswered() {
		defer s.mu.Unlock()
		return &ValidationError{Op: "submit", Reason: "Answer every question before submitting."}
	}
	return s.submitLocked(ctx)
}

// RetrySubmit repeats Submit after a submission failure with the same
// answers and attempt handle.
func (s *Session) RetrySubmit(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Failed || s.failedDuring != Submitting || s.busy {
		defer s.mu.Unlock()
		return invalidTransition("retry submit", s.state)
	}
	s.err = nil
	return s.submitLocked(ctx)
}

// submitLocked is entered with s.mu held and releases it.
func (s *Session) submitLocked(ctx context.Context) error {
	sub := api.Submission{Reponses: s.selections.answers()}
	if s.attempt != nil {
		id := *s.attempt
		sub.PasserID = &id
	}
	s.busy = true
	t := s.setState(Submitting)
	s.mu.Unlock()
	s.notify(t)

	res, err := s.client.SubmitQuiz(ctx, s.quizID, sub)

	s.mu.Lock()
	s.busy = false
	if err != nil {
		s.err = err
		s.failedDuring = Submitting
		t = s.setState(Failed)
	} else {
		s.result = res
		t = s.setState(Scored)
	}
	s.mu.Unlock()
	s.notify(t)
	return err
}

// Restart clears the answers and result of a scored session and goes back
// to the first question. The quiz is not fetched again and no new attempt
// is opened. Restarting a session that is already answering does nothing.
func (s *Session) Restart() error {
	s.mu.Lock()
	switch s.state {
	case Answering:
		s.mu.Unlock()
		return nil
	case Scored:
	default:
		defer s.mu.Unlock()
		return invalidTransition("restart", s.state)
	}
	s.selections = newSelections(s.quiz)
	s.cursor = 0
	s.result = nil
	t := s.setState(Answering)
	s.mu.Unlock()
	s.notify(t)
	return nil
}

// setState must be called with s.mu held.
func (s *Session) setState(to State) Transition {
	t := Transition{QuizID: s.quizID, From: s.state, To: to}
	if to == Failed {
		t.Err = s.err
	}
	s.state = to
	return t
}

func (s *Session) notify(t Transition) {
	fields := []zap.Field{
		zap.Int64("quiz_id", t.QuizID),
		zap.Stringer("from", t.From),
		zap.Stringer("to", t.To),
	}
	if t.Err != nil {
		s.logger.Warn("quiz session failed", append(fields, zap.Error(t.Err))...)
	} else {
		s.logger.Debug("quiz session transition", fields...)
	}
	for _, fn := range s.observers {
		fn(t)
	}
}

func (s *Session) question(id int64) (Question, bool) {
	if s.quiz == nil {
		return Question{}, false
	}
	for _, q := range s.quiz.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// QuizID returns the id the session was created for.
func (s *Session) QuizID() int64 {
	return s.quizID
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether a network call is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Quiz returns the loaded quiz, or nil before a successful load.
func (s *Session) Quiz() *Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz
}

// Cursor returns the index of the displayed question.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Current returns the displayed question.
func (s *Session) Current() (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiz == nil || s.cursor >= len(s.quiz.Questions) {
		return Question{}, false
	}
	return s.quiz.Questions[s.cursor], true
}

// IsLast reports whether the displayed question is the last one.
func (s *Session) IsLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz != nil && s.cursor == len(s.quiz.Questions)-1
}

// Selections returns a copy of the current answers.
func (s *Session) Selections() Selections {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selections.clone()
}

// AllAnswered reports whether Submit's precondition holds.
func (s *Session) AllAnswered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selections.AllAnswered()
}

// Attempt returns the server-side passer id, or nil if opening the attempt
// failed.
func (s *Session) Attempt() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt == nil {
		return nil
	}
	id := *s.attempt
	return &id
}

// Result returns the scoring, or nil unless Scored.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Summary returns the display summary of the result.
func (s *Session) Summary() (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil || s.quiz == nil {
		return Summary{}, false
	}
	return Summarize(s.result, len(s.quiz.Questions)), true
}

// Err returns the error that moved the session to Failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// FailedDuring returns the state that failed: Loading or Submitting. It is
// only meaningful in the Failed state.
func (s *Session) FailedDuring() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failedDuring
}

package quiz

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/jsp88/jsp/internal/api"
	quizsess "github.com/jsp88/jsp/internal/quiz"
	"github.com/jsp88/jsp/internal/router"
	"github.com/jsp88/jsp/internal/screen"
	"github.com/jsp88/jsp/internal/ui/components"
	"github.com/jsp88/jsp/internal/ui/layout"
)

// QuizScreen runs one quiz session: questions, submission and result.
type QuizScreen struct {
	env     *screen.Env
	title   string
	session *quizsess.Session
	choice  components.MultiChoice
	flash   string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)

// New creates a QuizScreen for quiz id. title is shown until the quiz is
// loaded.
func New(env *screen.Env, id int64, title string) *QuizScreen {
	s := &QuizScreen{env: env, title: title}
	s.session = quizsess.New(env.Client, id,
		quizsess.WithLogger(env.Log()),
		quizsess.WithObserver(s.observe),
	)
	return s
}

// observe records scored attempts locally. It runs on the command
// goroutine that drove the transition.
func (s *QuizScreen) observe(t quizsess.Transition) {
	if t.To != quizsess.Scored || s.env.Attempts == nil {
		return
	}
	if _, err := quizsess.Record(context.Background(), s.env.Attempts, s.session); err != nil {
		s.env.Log().Warn("record attempt", zap.Int64("quiz_id", t.QuizID), zap.Error(err))
	}
}

func (s *QuizScreen) Init() tea.Cmd {
	return s.run(s.session.Load)
}

func (s *QuizScreen) Title() string {
	if q := s.session.Quiz(); q != nil {
		return q.Title
	}
	return s.title
}

// Session exposes the underlying state machine.
func (s *QuizScreen) Session() *quizsess.Session {
	return s.session
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch s.session.State() {
	case quizsess.Answering:
		hints := []layout.KeyHint{
			{Key: "↑↓/1-9", Description: "Choose"},
			{Key: "←→", Description: "Previous/Next"},
		}
		if s.session.AllAnswered() {
			hints = append(hints, layout.KeyHint{Key: "S", Description: "Submit"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Leave"})
	case quizsess.Scored:
		return []layout.KeyHint{
			{Key: "R", Description: "Restart"},
			{Key: "Enter", Description: "Back to quizzes"},
		}
	case quizsess.Failed:
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
}

// run executes a session operation on a command goroutine.
func (s *QuizScreen) run(op func(ctx context.Context) error) tea.Cmd {
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		return loadedMsg{Err: op(ctx)}
	}
}

func (s *QuizScreen) submit(op func(ctx context.Context) error) tea.Cmd {
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		return submittedMsg{Err: op(ctx)}
	}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.flash = ""
		s.syncChoice()
		return s, nil

	case submittedMsg:
		if msg.Err != nil {
			var verr *quizsess.ValidationError
			if errors.As(msg.Err, &verr) || errors.Is(msg.Err, quizsess.ErrInvalidTransition) {
				s.flash = api.Message(msg.Err)
			}
		}
		return s, nil

	case components.ChoiceMsg:
		s.report(s.session.SelectCurrent(msg.Index))
		s.syncChoice()
		return s, nil

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *QuizScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	switch s.session.State() {
	case quizsess.Answering:
		switch key {
		case "right", "n":
			s.report(s.session.Advance())
			s.syncChoice()
			return s, nil
		case "left", "p":
			s.report(s.session.Retreat())
			s.syncChoice()
			return s, nil
		case "s":
			if s.session.Busy() {
				s.flash = "Still opening the attempt, try again in a moment."
				return s, nil
			}
			if !s.session.AllAnswered() {
				s.flash = "Answer every question before submitting."
				return s, nil
			}
			s.flash = ""
			return s, s.submit(s.session.Submit)
		}
		// The session can reach Answering before loadedMsg is delivered.
		if len(s.choice.Options) == 0 {
			s.syncChoice()
		}
		var cmd tea.Cmd
		s.choice, cmd = s.choice.Update(msg)
		return s, cmd

	case quizsess.Scored:
		switch key {
		case "r":
			s.report(s.session.Restart())
			s.syncChoice()
			return s, nil
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}

	case quizsess.Failed:
		switch key {
		case "r":
			s.flash = ""
			if s.session.FailedDuring() == quizsess.Loading {
				return s, s.run(s.session.RetryLoad)
			}
			return s, s.submit(s.session.RetrySubmit)
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

// report shows a session error as a flash message, or clears the flash.
func (s *QuizScreen) report(err error) {
	if err == nil {
		s.flash = ""
		return
	}
	s.flash = api.Message(err)
}

// syncChoice rebuilds the answer selector for the displayed question.
func (s *QuizScreen) syncChoice() {
	s.choice = s.buildChoice()
}

func (s *QuizScreen) buildChoice() components.MultiChoice {
	q, ok := s.session.Current()
	if !ok {
		return components.MultiChoice{Chosen: -1}
	}

	options := make([]string, len(q.Answers))
	chosen := -1
	selected, has := s.session.Selections().Selected(q.ID)
	for i, a := range q.Answers {
		options[i] = a.Text
		if has && a.ID == selected {
			chosen = i
		}
	}
	return components.NewMultiChoice(q.Prompt, options, chosen)
}

package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/jsp88/jsp/internal/api"
	quizsess "github.com/jsp88/jsp/internal/quiz"
	"github.com/jsp88/jsp/internal/ui/components"
	"github.com/jsp88/jsp/internal/ui/layout"
	"github.com/jsp88/jsp/internal/ui/theme"
)

func (s *QuizScreen) View(width, height int) string {
	switch s.session.State() {
	case quizsess.Loading:
		return layout.Message(width, "Loading quiz...", theme.TextDim)
	case quizsess.Submitting:
		return layout.Message(width, "Submitting your answers...", theme.TextDim)
	case quizsess.Scored:
		return s.renderResult(width, height)
	case quizsess.Failed:
		return s.renderFailure(width, height)
	}
	return s.renderQuestion(width)
}

// renderQuestion renders the displayed question and its answers.
func (s *QuizScreen) renderQuestion(width int) string {
	q := s.session.Quiz()
	if q == nil {
		return ""
	}
	cw := min(width-4, 80)
	sel := s.session.Selections()

	var b strings.Builder

	info := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("Question %d/%d", s.session.Cursor()+1, len(q.Questions)))
	b.WriteString(info)
	b.WriteString("\n")
	b.WriteString(components.NewProgressBar("Answered", sel.Answered(), sel.Len(), cw).View())
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw)))
	b.WriteString("\n\n")

	choice := s.choice
	if len(choice.Options) == 0 {
		choice = s.buildChoice()
	}
	b.WriteString(choice.View(cw))
	b.WriteString("\n")
	b.WriteString(s.renderNav())

	if s.flash != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Warning).Render(s.flash))
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, b.String())
}

func (s *QuizScreen) renderNav() string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	active := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)

	var parts []string
	if s.session.Cursor() > 0 {
		parts = append(parts, active.Render("← Previous"))
	} else {
		parts = append(parts, dim.Render("← Previous"))
	}
	if !s.session.IsLast() {
		parts = append(parts, active.Render("Next →"))
	}
	if s.session.AllAnswered() {
		parts = append(parts, theme.ButtonActive.Render("S  Submit"))
	} else {
		parts = append(parts, dim.Render("Submit once every question is answered"))
	}
	return strings.Join(parts, "    ")
}

// renderResult renders the score card.
func (s *QuizScreen) renderResult(width, height int) string {
	summary, ok := s.session.Summary()
	if !ok {
		return ""
	}

	fg := theme.BandColor(summary.Band.String())
	var sections []string
	sections = append(sections,
		lipgloss.NewStyle().Foreground(fg).Bold(true).Render(fmt.Sprintf("%d%%", summary.Percentage)),
		lipgloss.NewStyle().Foreground(fg).Render(bandLabel(summary.Band)),
		lipgloss.NewStyle().Foreground(theme.Text).Render(
			fmt.Sprintf("%d correct out of %d  ·  score %s/20", summary.Correct, summary.Total, formatScore(summary.Score))),
	)
	if summary.Message != "" {
		sections = append(sections, theme.Hint.Render(summary.Message))
	}
	sections = append(sections, "", components.NewProgressBar("", summary.Correct, summary.Total, 40).View())

	card := theme.Card.
		BorderForeground(fg).
		Align(lipgloss.Center).
		Render(strings.Join(sections, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

// renderFailure renders the error with a retry hint.
func (s *QuizScreen) renderFailure(width, height int) string {
	what := "load this quiz"
	if s.session.FailedDuring() == quizsess.Submitting {
		what = "submit your answers"
	}

	sections := []string{
		theme.ErrorText.Render("Could not " + what + "."),
		lipgloss.NewStyle().Foreground(theme.Text).Render(api.Message(s.session.Err())),
		"",
		theme.Hint.Render("Press R to retry or Esc to go back."),
	}
	if s.session.FailedDuring() == quizsess.Submitting {
		sections = append(sections, theme.Hint.Render("Your answers are kept."))
	}

	card := theme.Card.
		BorderForeground(theme.Error).
		Align(lipgloss.Center).
		Render(strings.Join(sections, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

func bandLabel(b quizsess.Band) string {
	switch b {
	case quizsess.BandGood:
		return "Well done!"
	case quizsess.BandBorderline:
		return "Almost there."
	default:
		return "Keep practising."
	}
}

func formatScore(score float64) string {
	if score == float64(int64(score)) {
		return fmt.Sprintf("%d", int64(score))
	}
	return fmt.Sprintf("%.1f", score)
}

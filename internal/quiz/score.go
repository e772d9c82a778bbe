package quiz

import "math"

// Band classifies a percentage for display.
type Band int

const (
	BandPoor Band = iota
	BandBorderline
	BandGood
)

func (b Band) String() string {
	switch b {
	case BandGood:
		return "good"
	case BandBorderline:
		return "borderline"
	}
	return "poor"
}

// Percentage returns round(100*correct/total), clamped to [0, 100]. It is 0
// when total is not positive.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(correct) / float64(total)))
	return min(max(p, 0), 100)
}

// BandFor maps a percentage to its band: 70 and up is good, 50 and up is
// borderline.
func BandFor(pct int) Band {
	switch {
	case pct >= 70:
		return BandGood
	case pct >= 50:
		return BandBorderline
	}
	return BandPoor
}

// Summary is a Result prepared for display.
type Summary struct {
	Score      float64
	Correct    int
	Total      int
	Percentage int
	Band       Band
	Message    string
}

// Summarize fills the gaps of a server result. The correct count falls back
// to the score and the total to the number of questions.
func Summarize(res *Result, questionCount int) Summary {
	if res == nil {
		return Summary{Total: questionCount}
	}
	s := Summary{
		Score:   res.Score,
		Correct: int(math.Round(res.Score)),
		Total:   questionCount,
		Message: res.Message,
	}
	if res.CorrectAnswers != nil {
		s.Correct = *res.CorrectAnswers
	}
	if res.TotalQuestions != nil && *res.TotalQuestions > 0 {
		s.Total = *res.TotalQuestions
	}
	s.Percentage = Percentage(s.Correct, s.Total)
	s.Band = BandFor(s.Percentage)
	return s
}

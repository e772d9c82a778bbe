package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		correct, total, want int
	}{
		{15, 20, 75},
		{1, 3, 33},
		{2, 3, 67},
		{0, 5, 0},
		{5, 5, 100},
		{3, 0, 0},
		{30, 20, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentage(tt.correct, tt.total), "%d/%d", tt.correct, tt.total)
	}
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandGood, BandFor(100))
	assert.Equal(t, BandGood, BandFor(70))
	assert.Equal(t, BandBorderline, BandFor(69))
	assert.Equal(t, BandBorderline, BandFor(50))
	assert.Equal(t, BandPoor, BandFor(49))
	assert.Equal(t, BandPoor, BandFor(0))

	assert.Equal(t, "good", BandGood.String())
	assert.Equal(t, "borderline", BandBorderline.String())
	assert.Equal(t, "poor", BandPoor.String())
}

func TestSummarize_RoundTrip(t *testing.T) {
	res := &Result{Score: 15, CorrectAnswers: intPtr(15), TotalQuestions: intPtr(20)}

	s := Summarize(res, 20)
	assert.Equal(t, 75, s.Percentage)
	assert.Equal(t, BandGood, s.Band)
	assert.Equal(t, 15, s.Correct)
	assert.Equal(t, 20, s.Total)
}

func TestSummarize_Fallbacks(t *testing.T) {
	// No counts: correct falls back to the score, total to the quiz length.
	s := Summarize(&Result{Score: 3}, 4)
	assert.Equal(t, 3, s.Correct)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 75, s.Percentage)

	// A zero total from the server is ignored.
	s = Summarize(&Result{CorrectAnswers: intPtr(1), TotalQuestions: intPtr(0)}, 2)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 50, s.Percentage)
	assert.Equal(t, BandBorderline, s.Band)

	s = Summarize(nil, 2)
	assert.Equal(t, 0, s.Percentage)
	assert.Equal(t, BandPoor, s.Band)
}

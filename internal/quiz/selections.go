package quiz

import "github.com/jsp88/jsp/internal/api"

// Selections maps every question of a quiz, in quiz order, to the chosen
// answer. A question without an entry is unanswered.
type Selections struct {
	order  []int64
	chosen map[int64]int64
}

func newSelections(q *Quiz) Selections {
	s := Selections{
		order:  make([]int64, 0, len(q.Questions)),
		chosen: make(map[int64]int64, len(q.Questions)),
	}
	for _, question := range q.Questions {
		s.order = append(s.order, question.ID)
	}
	return s
}

// Selected returns the answer chosen for a question.
func (s Selections) Selected(questionID int64) (int64, bool) {
	aid, ok := s.chosen[questionID]
	return aid, ok
}

// Len is the number of questions.
func (s Selections) Len() int {
	return len(s.order)
}

// Answered is the number of questions with a selection.
func (s Selections) Answered() int {
	return len(s.chosen)
}

// AllAnswered reports whether every question has a selection. An empty
// quiz is never fully answered.
func (s Selections) AllAnswered() bool {
	return len(s.order) > 0 && len(s.chosen) == len(s.order)
}

// QuestionIDs returns the question ids in quiz order.
func (s Selections) QuestionIDs() []int64 {
	return append([]int64(nil), s.order...)
}

func (s Selections) clone() Selections {
	c := Selections{
		order:  s.order,
		chosen: make(map[int64]int64, len(s.chosen)),
	}
	for k, v := range s.chosen {
		c.chosen[k] = v
	}
	return c
}

// answers lists the selections in quiz order for submission.
func (s Selections) answers() []api.SubmittedAnswer {
	out := make([]api.SubmittedAnswer, 0, len(s.order))
	for _, qid := range s.order {
		if aid, ok := s.chosen[qid]; ok {
			out = append(out, api.SubmittedAnswer{QuestionID: qid, ReponseID: aid})
		}
	}
	return out
}

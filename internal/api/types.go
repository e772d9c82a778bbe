package api

import (
	"encoding/json"
	"time"
)

// Quiz is the canonical quiz definition, whatever field names the server used.
type Quiz struct {
	ID        int64
	Title     string
	Questions []Question
}

// Question is one quiz question with its ordered answer options.
type Question struct {
	ID      int64
	Prompt  string
	Answers []Answer
}

// HasAnswer reports whether answerID is one of the question's options.
func (q Question) HasAnswer(answerID int64) bool {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return true
		}
	}
	return false
}

// Answer is one selectable option of a question.
type Answer struct {
	ID   int64
	Text string
}

// QuizSummary is an entry of the quiz catalogue.
type QuizSummary struct {
	ID    int64
	Title string
}

// Attempt is the server-side quiz attempt opened by /quiz/{id}/start.
type Attempt struct {
	PasserID int64
}

// Submission is the body of /quiz/{id}/submit. A nil PasserID is sent as null.
type Submission struct {
	PasserID *int64           `json:"passer_id"`
	Reponses []SubmittedAnswer `json:"reponses"`
}

// SubmittedAnswer pairs a question with the chosen answer.
type SubmittedAnswer struct {
	QuestionID int64 `json:"question_id"`
	ReponseID  int64 `json:"reponse_id"`
}

// Result is the scoring returned by a submission. Optional fields are nil
// when the server omitted them.
type Result struct {
	Score          float64
	CorrectAnswers *int
	TotalQuestions *int
	Message        string
}

// Profile is the connected trainee as returned by /jsp/me.
type Profile struct {
	ID         int64           `json:"id"`
	LastName   string          `json:"nom"`
	FirstName  string          `json:"prenom"`
	Email      string          `json:"mail"`
	Grade      json.RawMessage `json:"grade,omitempty"`
	IsVerified bool            `json:"is_verified"`
	Stats      json.RawMessage `json:"stats,omitempty"`
}

// DisplayName returns "Prenom Nom", falling back to the email.
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	case p.LastName != "":
		return p.LastName
	}
	return p.Email
}

// GradeName returns the label of the trainee's grade, if any.
func (p Profile) GradeName() string {
	if len(p.Grade) == 0 {
		return ""
	}
	var label string
	if err := json.Unmarshal(p.Grade, &label); err == nil {
		return label
	}
	fields, err := objectFields(p.Grade)
	if err != nil {
		return ""
	}
	return firstString(fields, "libelle", "nom", "intitule", "titre")
}

// Course is a training course.
type Course struct {
	ID          int64
	Title       string
	Description string
}

// Event is a planning entry the trainee is registered to.
type Event struct {
	ID          string
	Title       string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Description string
	Location    string
	Trainer     string
}

// QuizHistoryEntry is one quiz the trainee already took, as recorded by the server.
type QuizHistoryEntry struct {
	QuizID int64
	Title  string
	Score  float64
	Date   time.Time
}

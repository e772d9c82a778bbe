package api

// Normalization maps the heterogeneous field names used by the portal API
// onto the canonical types in types.go. This is the only place that knows
// about the alternatives:
//
//	quiz title       titre | nom                       (default "Quiz #<id>")
//	question prompt  contenu | enonce | question       (default "Question sans texte")
//	answer text      intitule | texte | libelle        (default "Réponse sans texte")
//	course title     titre | nom | intitule            (default "Cours #<id>")
//	event title      titre | nom                       (default "Événement")
//	event start/end  dateDebut | date_debut | start / dateFin | date_fin | end
//	event details    description | descriptif, lieu | adresse, formateur
//	result score     score | points
//
// Identifiers may arrive as JSON numbers or numeric strings.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type fieldSet = map[string]json.RawMessage

func objectFields(raw json.RawMessage) (fieldSet, error) {
	var fields fieldSet
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("expected a JSON object")
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// firstString returns the first non-empty string among keys.
func firstString(fields fieldSet, keys ...string) string {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok || isNull(raw) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstNumber returns the first numeric value (number or numeric string) among keys.
func firstNumber(fields fieldSet, keys ...string) (float64, bool) {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok || isNull(raw) {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// firstID returns the first integer identifier among keys.
func firstID(fields fieldSet, keys ...string) (int64, bool) {
	f, ok := firstNumber(fields, keys...)
	if !ok || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

func firstBool(fields fieldSet, keys ...string) bool {
	for _, k := range keys {
		var b bool
		if raw, ok := fields[k]; ok && json.Unmarshal(raw, &b) == nil {
			return b
		}
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// firstTime parses the first parseable timestamp among keys, in local time
// when the server sent no zone.
func firstTime(fields fieldSet, keys ...string) time.Time {
	for _, k := range keys {
		s := firstString(fields, k)
		if s == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// NormalizeQuiz validates and maps a /quiz/{id} payload.
func NormalizeQuiz(raw json.RawMessage) (*Quiz, error) {
	if err := validatePayload(quizSchema, raw); err != nil {
		return nil, err
	}
	fields, err := objectFields(raw)
	if err != nil {
		return nil, err
	}

	id, _ := firstID(fields, "id")
	quiz := &Quiz{
		ID:    id,
		Title: firstString(fields, "titre", "nom"),
	}
	if quiz.Title == "" {
		quiz.Title = fmt.Sprintf("Quiz #%d", id)
	}

	var rawQuestions []json.RawMessage
	if q, ok := fields["questions"]; ok && !isNull(q) {
		if err := json.Unmarshal(q, &rawQuestions); err != nil {
			return nil, fmt.Errorf("questions: %w", err)
		}
	}

	for i, rq := range rawQuestions {
		qf, err := objectFields(rq)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		qid, ok := firstID(qf, "id")
		if !ok {
			return nil, fmt.Errorf("question %d: missing id", i)
		}
		question := Question{
			ID:     qid,
			Prompt: firstString(qf, "contenu", "enonce", "question"),
		}
		if question.Prompt == "" {
			question.Prompt = "Question sans texte"
		}

		var rawAnswers []json.RawMessage
		if a, ok := qf["reponses"]; ok && !isNull(a) {
			if err := json.Unmarshal(a, &rawAnswers); err != nil {
				return nil, fmt.Errorf("question %d answers: %w", qid, err)
			}
		}
		for j, ra := range rawAnswers {
			af, err := objectFields(ra)
			if err != nil {
				return nil, fmt.Errorf("question %d answer %d: %w", qid, j, err)
			}
			aid, ok := firstID(af, "id")
			if !ok {
				return nil, fmt.Errorf("question %d answer %d: missing id", qid, j)
			}
			text := firstString(af, "intitule", "texte", "libelle")
			if text == "" {
				text = "Réponse sans texte"
			}
			question.Answers = append(question.Answers, Answer{ID: aid, Text: text})
		}

		quiz.Questions = append(quiz.Questions, question)
	}

	return quiz, nil
}

// NormalizeAttempt validates and maps a /quiz/{id}/start payload.
func NormalizeAttempt(raw json.RawMessage) (*Attempt, error) {
	if err := validatePayload(attemptSchema, raw); err != nil {
		return nil, err
	}
	fields, err := objectFields(raw)
	if err != nil {
		return nil, err
	}
	id, ok := firstID(fields, "passer_id")
	if !ok {
		return nil, errors.New("passer_id is not an integer")
	}
	return &Attempt{PasserID: id}, nil
}

// NormalizeResult validates and maps a /quiz/{id}/submit payload.
func NormalizeResult(raw json.RawMessage) (*Result, error) {
	if err := validatePayload(resultSchema, raw); err != nil {
		return nil, err
	}
	fields, err := objectFields(raw)
	if err != nil {
		return nil, err
	}

	res := &Result{Message: firstString(fields, "message")}
	res.Score, _ = firstNumber(fields, "score", "points")
	if n, ok := firstID(fields, "correct_answers"); ok {
		v := int(n)
		res.CorrectAnswers = &v
	}
	if n, ok := firstID(fields, "total_questions"); ok {
		v := int(n)
		res.TotalQuestions = &v
	}
	return res, nil
}

// listItems validates a JSON array of objects. A null body is an empty list.
func listItems(raw json.RawMessage) ([]fieldSet, error) {
	if isNull(raw) {
		return nil, nil
	}
	if err := validatePayload(listSchema, raw); err != nil {
		return nil, err
	}
	var items []fieldSet
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// NormalizeQuizList maps the /quiz catalogue.
func NormalizeQuizList(raw json.RawMessage) ([]QuizSummary, error) {
	items, err := listItems(raw)
	if err != nil {
		return nil, err
	}
	out := make([]QuizSummary, 0, len(items))
	for _, f := range items {
		id, _ := firstID(f, "id")
		title := firstString(f, "titre", "nom")
		if title == "" {
			title = fmt.Sprintf("Quiz #%d", id)
		}
		out = append(out, QuizSummary{ID: id, Title: title})
	}
	return out, nil
}

// NormalizeCourses maps /cours and /jsp/me/cours.
func NormalizeCourses(raw json.RawMessage) ([]Course, error) {
	items, err := listItems(raw)
	if err != nil {
		return nil, err
	}
	out := make([]Course, 0, len(items))
	for _, f := range items {
		id, _ := firstID(f, "id")
		title := firstString(f, "titre", "nom", "intitule")
		if title == "" {
			title = fmt.Sprintf("Cours #%d", id)
		}
		out = append(out, Course{
			ID:          id,
			Title:       title,
			Description: firstString(f, "description", "descriptif"),
		})
	}
	return out, nil
}

// NormalizeEvents maps /jsp/me/evenements.
func NormalizeEvents(raw json.RawMessage) ([]Event, error) {
	items, err := listItems(raw)
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(items))
	for i, f := range items {
		id := firstString(f, "id")
		if id == "" {
			if n, ok := firstID(f, "id"); ok {
				id = strconv.FormatInt(n, 10)
			} else {
				id = fmt.Sprintf("event-%d", i)
			}
		}
		title := firstString(f, "titre", "nom")
		if title == "" {
			title = "Événement"
		}
		out = append(out, Event{
			ID:          id,
			Title:       title,
			Start:       firstTime(f, "dateDebut", "date_debut", "start"),
			End:         firstTime(f, "dateFin", "date_fin", "end"),
			AllDay:      firstBool(f, "allDay"),
			Description: firstString(f, "description", "descriptif"),
			Location:    firstString(f, "lieu", "adresse"),
			Trainer:     firstString(f, "formateur"),
		})
	}
	return out, nil
}

// NormalizeQuizHistory maps /jsp/me/quiz.
func NormalizeQuizHistory(raw json.RawMessage) ([]QuizHistoryEntry, error) {
	items, err := listItems(raw)
	if err != nil {
		return nil, err
	}
	out := make([]QuizHistoryEntry, 0, len(items))
	for _, f := range items {
		entry := QuizHistoryEntry{
			Title: firstString(f, "titre", "nom"),
			Date:  firstTime(f, "date", "date_passage", "created_at"),
		}
		entry.QuizID, _ = firstID(f, "quiz_id", "id")
		entry.Score, _ = firstNumber(f, "score", "points", "note")

		// Some payloads nest the quiz itself.
		if nested, ok := f["quiz"]; ok && !isNull(nested) {
			if qf, err := objectFields(nested); err == nil {
				if entry.Title == "" {
					entry.Title = firstString(qf, "titre", "nom")
				}
				if id, ok := firstID(qf, "id"); ok {
					entry.QuizID = id
				}
			}
		}
		if entry.Title == "" {
			entry.Title = fmt.Sprintf("Quiz #%d", entry.QuizID)
		}
		out = append(out, entry)
	}
	return out, nil
}

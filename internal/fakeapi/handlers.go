package fakeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type ctxKey struct{}

func emailFrom(r *http.Request) string {
	email, _ := r.Context().Value(ctxKey{}).(string)
	return email
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		origin := s.allowOrigin
		s.mu.Unlock()
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		next.ServeHTTP(w, r)
	})
}

// withInjection counts calls per named route and applies injected failures.
func (s *Server) withInjection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		s.mu.Lock()
		s.calls[name]++
		fail, failing := s.failures[name]
		drop := s.dropped[name]
		s.mu.Unlock()

		s.logger.Debug("fakeapi request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", name),
		)

		switch {
		case drop:
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
					return
				}
			}
			panic(http.ErrAbortHandler)
		case failing:
			w.Header().Set("Content-Type", "application/json")
			if fail.status == http.StatusServiceUnavailable {
				w.Header().Set("Retry-After", "1")
			}
			w.WriteHeader(fail.status)
			if fail.body != "" {
				_, _ = w.Write([]byte(fail.body))
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := s.subject(r.Header.Get("Authorization"))
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Token invalide ou expiré")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, email)))
	})
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok || acc.password != req.Password {
		writeMessage(w, http.StatusUnauthorized, "Identifiants incorrects")
		return
	}

	token, err := s.IssueToken(req.Email, time.Hour)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Erreur serveur")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	profile := s.accounts[emailFrom(r)].profile
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) sortedCourses(filter func(id int64) bool) []map[string]any {
	ids := make([]int64, 0, len(s.courses))
	for id := range s.courses {
		if filter == nil || filter(id) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.courses[id].payload)
	}
	return out
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := s.sortedCourses(nil)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleMyCourses(w http.ResponseWriter, r *http.Request) {
	email := emailFrom(r)
	s.mu.Lock()
	list := s.sortedCourses(func(id int64) bool { return s.followed[email][id] })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) setFollowed(w http.ResponseWriter, r *http.Request, follow bool) {
	id := pathID(r)
	email := emailFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		writeMessage(w, http.StatusNotFound, "Cours introuvable")
		return
	}
	if s.followed[email] == nil {
		s.followed[email] = make(map[int64]bool)
	}
	if follow {
		s.followed[email][id] = true
		writeMessage(w, http.StatusOK, "Cours suivi")
		return
	}
	delete(s.followed[email], id)
	writeMessage(w, http.StatusOK, "Cours retiré")
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	s.setFollowed(w, r, true)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	s.setFollowed(w, r, false)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	course, ok := s.courses[pathID(r)]
	s.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, "Cours introuvable")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(course.file)
}

func (s *Server) handleMyEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	events := s.events
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleMyQuizzes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries := s.history[emailFrom(r)]
	s.mu.Unlock()
	if entries == nil {
		entries = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleQuizzes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.quizzes))
	for id := range s.quizzes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	list := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		p := s.quizzes[id].payload
		entry := map[string]any{"id": p["id"]}
		for _, k := range []string{"titre", "nom"} {
			if v, ok := p[k]; ok {
				entry[k] = v
			}
		}
		list = append(list, entry)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	quiz, ok := s.quizzes[pathID(r)]
	s.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, "Quiz introuvable")
		return
	}
	writeJSON(w, http.StatusOK, quiz.payload)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[pathID(r)]; !ok {
		writeMessage(w, http.StatusNotFound, "Quiz introuvable")
		return
	}
	s.nextPasser++
	writeJSON(w, http.StatusOK, map[string]any{"passer_id": s.nextPasser})
}

// handleSubmit scores on a /20 scale, the way the portal does.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	quizID := pathID(r)
	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeMessage(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	sub.QuizID = quizID

	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Quiz introuvable")
		return
	}
	s.submissions = append(s.submissions, sub)

	total := len(quiz.correct)
	correct := 0
	for _, rep := range sub.Reponses {
		if want, ok := quiz.correct[rep.QuestionID]; ok && want == rep.ReponseID {
			correct++
		}
	}
	score := 0.0
	if total > 0 {
		score = float64(correct) * 20 / float64(total)
	}

	message := "Continuez vos efforts !"
	if total > 0 && correct*10 >= total*7 {
		message = "Bravo !"
	}

	email := emailFrom(r)
	title, _ := quiz.payload["titre"].(string)
	if title == "" {
		title, _ = quiz.payload["nom"].(string)
	}
	s.history[email] = append(s.history[email], map[string]any{
		"quiz_id": quizID,
		"titre":   title,
		"score":   score,
		"date":    time.Now().Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"score":           score,
		"correct_answers": correct,
		"total_questions": total,
		"message":         message,
	})
}

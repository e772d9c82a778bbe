// Package fakeapi is an in-memory implementation of the portal API used by
// tests and by "jsp devserver". It reproduces the field-name variations of
// the real server and supports failure injection per route.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Route names, usable with Fail, Drop and Calls.
const (
	RouteLogin     = "login"
	RouteMe        = "me"
	RouteMyCourses = "me.courses"
	RouteMyQuizzes = "me.quizzes"
	RouteMyEvents  = "me.events"
	RouteCourses   = "courses"
	RouteFollow    = "courses.follow"
	RouteUnfollow  = "courses.unfollow"
	RouteDownload  = "courses.download"
	RouteQuizzes   = "quizzes"
	RouteQuiz      = "quiz"
	RouteStart     = "quiz.start"
	RouteSubmit    = "quiz.submit"
)

// Submission is a recorded /quiz/{id}/submit body.
type Submission struct {
	QuizID   int64  `json:"-"`
	PasserID *int64 `json:"passer_id"`
	Reponses []struct {
		QuestionID int64 `json:"question_id"`
		ReponseID  int64 `json:"reponse_id"`
	} `json:"reponses"`
}

type failure struct {
	status int
	body   string
}

// Server holds the fixture state. The zero value is not usable; call New.
type Server struct {
	mu sync.Mutex

	secret     []byte
	accounts   map[string]account
	quizzes    map[int64]quizFixture
	courses    map[int64]courseFixture
	followed   map[string]map[int64]bool
	events     []map[string]any
	history    map[string][]map[string]any
	nextPasser int64

	allowOrigin string
	failures    map[string]failure
	dropped     map[string]bool
	calls       map[string]int
	submissions []Submission

	logger *zap.Logger
	router *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger logs every handled request.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAllowedOrigin sets the Access-Control-Allow-Origin header value.
// The default is "*".
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) { s.allowOrigin = origin }
}

// New returns a Server seeded with the demo account, quizzes, courses and
// today's planning.
func New(opts ...Option) *Server {
	s := &Server{
		secret:      []byte(uuid.NewString()),
		accounts:    seedAccounts(),
		quizzes:     seedQuizzes(),
		courses:     seedCourses(),
		followed:    map[string]map[int64]bool{DemoEmail: {1: true}},
		events:      seedEvents(time.Now()),
		history:     map[string][]map[string]any{},
		nextPasser:  1000,
		allowOrigin: "*",
		failures:    make(map[string]failure),
		dropped:     make(map[string]bool),
		calls:       make(map[string]int),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler. Routes are served under /api.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.withCORS, s.withInjection)

	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost).Name(RouteLogin)

	auth := a.NewRoute().Subrouter()
	auth.Use(s.withAuth)
	auth.HandleFunc("/jsp/me", s.handleMe).Methods(http.MethodGet).Name(RouteMe)
	auth.HandleFunc("/jsp/me/cours", s.handleMyCourses).Methods(http.MethodGet).Name(RouteMyCourses)
	auth.HandleFunc("/jsp/me/quiz", s.handleMyQuizzes).Methods(http.MethodGet).Name(RouteMyQuizzes)
	auth.HandleFunc("/jsp/me/evenements", s.handleMyEvents).Methods(http.MethodGet).Name(RouteMyEvents)
	auth.HandleFunc("/cours", s.handleCourses).Methods(http.MethodGet).Name(RouteCourses)
	auth.HandleFunc("/cours/{id:[0-9]+}/suivre", s.handleFollow).Methods(http.MethodPost).Name(RouteFollow)
	auth.HandleFunc("/cours/{id:[0-9]+}/suivre", s.handleUnfollow).Methods(http.MethodDelete).Name(RouteUnfollow)
	auth.HandleFunc("/cours/{id:[0-9]+}/download", s.handleDownload).Methods(http.MethodGet).Name(RouteDownload)
	auth.HandleFunc("/quiz", s.handleQuizzes).Methods(http.MethodGet).Name(RouteQuizzes)
	auth.HandleFunc("/quiz/{id:[0-9]+}", s.handleQuiz).Methods(http.MethodGet).Name(RouteQuiz)
	auth.HandleFunc("/quiz/{id:[0-9]+}/start", s.handleStart).Methods(http.MethodPost).Name(RouteStart)
	auth.HandleFunc("/quiz/{id:[0-9]+}/submit", s.handleSubmit).Methods(http.MethodPost).Name(RouteSubmit)
	return r
}

// Fail makes every following call to route answer with status.
func (s *Server) Fail(route string, status int) {
	s.FailWith(route, status, "")
}

// FailWith is Fail with a custom JSON body.
func (s *Server) FailWith(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, body: body}
}

// Drop makes every following call to route close the connection without
// answering, which the client sees as a network error.
func (s *Server) Drop(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped[route] = true
}

// Heal removes every injected failure.
func (s *Server) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
	s.dropped = make(map[string]bool)
}

// SetAllowedOrigin changes the Access-Control-Allow-Origin header value.
// An empty origin omits the header.
func (s *Server) SetAllowedOrigin(origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowOrigin = origin
}

// Calls returns how many requests reached route, injected failures included.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Submissions returns the recorded submit bodies in arrival order.
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Submission, len(s.submissions))
	copy(out, s.submissions)
	return out
}

// Followed returns the ids of the courses email follows, sorted.
func (s *Server) Followed(email string) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, ok := range s.followed[email] {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IssueToken signs a token for email, valid for ttl.
func (s *Server) IssueToken(email string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	secret := s.secret
	s.mu.Unlock()

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// RevokeTokens invalidates every token issued so far.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = []byte(uuid.NewString())
}

// subject validates a bearer token and returns its subject.
func (s *Server) subject(header string) (string, bool) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", false
	}

	s.mu.Lock()
	secret := s.secret
	s.mu.Unlock()

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", false
	}

	s.mu.Lock()
	_, known := s.accounts[claims.Subject]
	s.mu.Unlock()
	return claims.Subject, known
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

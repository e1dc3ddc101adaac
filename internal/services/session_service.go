package services

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore abstracts what the session tracker needs from the test
// store: the question set to score against and the result sink.
type SessionStore interface {
	GetTest(id string) (*Test, error)
	UpsertStudentResult(testID string, r *StudentResult) error
}

// StudentInfo is the identity form a student fills in before the exam.
type StudentInfo struct {
	Name    string `json:"name"`
	RollNo  string `json:"roll_no"`
	Year    string `json:"year"`
	Branch  string `json:"branch"`
	Section string `json:"section"`
	TestID  string `json:"test_id"`
}

// SessionService tracks in-flight exam attempts. Sessions are ephemeral:
// they live in memory for the duration of one attempt and only their
// derived StudentResult outlives them. Each session carries a countdown
// that fires the same submit path a manual submit uses, so a timer expiry
// racing a click can never score an attempt twice.
type SessionService struct {
	store    SessionStore
	duration time.Duration
	now      func() time.Time
	idGen    func(prefix string, n int) string

	mu       sync.Mutex
	sessions map[string]*Session
	timers   map[string]*time.Timer
}

// DefaultExamDuration matches the one-hour countdown students see.
const DefaultExamDuration = time.Hour

func NewSessionService(store SessionStore, duration time.Duration) *SessionService {
	if duration <= 0 {
		duration = DefaultExamDuration
	}
	return &SessionService{
		store:    store,
		duration: duration,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    func(prefix string, n int) string { return prefix + shortID(n) },
		sessions: map[string]*Session{},
		timers:   map[string]*time.Timer{},
	}
}

// BeginSession opens an attempt for the given student against a test,
// with empty answers, zeroed scores and the countdown running.
func (s *SessionService) BeginSession(info StudentInfo) (*Session, error) {
	if strings.TrimSpace(info.Name) == "" || strings.TrimSpace(info.RollNo) == "" {
		return nil, NewInvalidError("name and roll number are required")
	}
	if strings.TrimSpace(info.TestID) == "" {
		return nil, NewInvalidError("test id is required")
	}
	t, err := s.store.GetTest(info.TestID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, NewNotFoundError("test not found")
	}
	now := s.now()
	sess := &Session{
		ID:        s.idGen("sess", 12),
		StudentID: s.idGen("s", 7),
		Name:      strings.TrimSpace(info.Name),
		RollNo:    strings.TrimSpace(info.RollNo),
		Year:      strings.TrimSpace(info.Year),
		Branch:    strings.TrimSpace(info.Branch),
		Section:   strings.TrimSpace(info.Section),
		TestID:    info.TestID,
		Answers:   map[string]*StudentAnswer{},
		Status:    SessionInProgress,
		StartedAt: now,
		Deadline:  now.Add(s.duration),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	// Timer expiry funnels into Submit, the same path a manual submit
	// takes; the status tag makes whichever fires second a no-op.
	id := sess.ID
	s.timers[id] = time.AfterFunc(s.duration, func() { _, _ = s.Submit(id) })
	s.mu.Unlock()
	return copySession(sess), nil
}

// RecordAnswer upserts the student's pick for a question; a changed mind
// before submit simply overwrites the earlier pick.
func (s *SessionService) RecordAnswer(sessionID, questionID, selectedOption string, isCorrect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[sessionID]
	if sess == nil {
		return NewNotFoundError("session not found")
	}
	if sess.Status != SessionInProgress {
		return nil
	}
	sess.Answers[questionID] = &StudentAnswer{
		QuestionID:     questionID,
		SelectedOption: selectedOption,
		IsCorrect:      isCorrect,
	}
	return nil
}

// Submit scores the session against its test's question set and forwards
// the derived result to the test store. Every correct answer is worth one
// point in its question's category and in the total; answers whose
// question id is not in the test are skipped. Submitting an already
// submitted session returns the recorded state unchanged.
func (s *SessionService) Submit(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[sessionID]
	if sess == nil {
		return nil, NewNotFoundError("session not found")
	}
	if sess.Status == SessionSubmitted {
		return copySession(sess), nil
	}
	// The terminal tag flips before any scoring happens so a second
	// submit attempt can never reach the scoring path.
	sess.Status = SessionSubmitted
	if t := s.timers[sessionID]; t != nil {
		t.Stop()
		delete(s.timers, sessionID)
	}

	t, err := s.store.GetTest(sess.TestID)
	if err != nil {
		return nil, err
	}
	byID := map[string]*Question{}
	if t != nil {
		for _, q := range t.Questions {
			byID[q.ID] = q
		}
	}

	var scores Scores
	for _, a := range sess.Answers {
		if !a.IsCorrect {
			continue
		}
		q := byID[a.QuestionID]
		if q == nil {
			continue
		}
		scores.Add(q.Category)
	}
	sess.Scores = scores
	sess.CompletedAt = s.now()
	result := &StudentResult{
		StudentID:   sess.StudentID,
		Name:        sess.Name,
		RollNo:      sess.RollNo,
		Year:        sess.Year,
		Branch:      sess.Branch,
		Section:     sess.Section,
		Scores:      scores,
		CompletedAt: sess.CompletedAt,
	}
	if err := s.store.UpsertStudentResult(sess.TestID, result); err != nil {
		return nil, err
	}
	return copySession(sess), nil
}

// GetSession returns a snapshot of the session state.
func (s *SessionService) GetSession(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[sessionID]
	if sess == nil {
		return nil, NewNotFoundError("session not found")
	}
	return copySession(sess), nil
}

// AbandonSession drops the attempt without persisting a result. Unknown
// sessions are a no-op.
func (s *SessionService) AbandonSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.timers[sessionID]; t != nil {
		t.Stop()
		delete(s.timers, sessionID)
	}
	delete(s.sessions, sessionID)
}

// RemainingSeconds reports the countdown left at now, floored at zero.
func (sess *Session) RemainingSeconds(now time.Time) int {
	if sess.Status != SessionInProgress {
		return 0
	}
	left := sess.Deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

func copySession(sess *Session) *Session {
	out := *sess
	out.Answers = make(map[string]*StudentAnswer, len(sess.Answers))
	for k, v := range sess.Answers {
		a := *v
		out.Answers[k] = &a
	}
	return &out
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

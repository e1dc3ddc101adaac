package services

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"
)

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// TestStore abstracts persistence operations required by TestService.
type TestStore interface {
	InsertTest(t *Test) error
	GetTest(id string) (*Test, error)
	UpdateTest(t *Test) error
	ListTests() ([]*Test, error)
	ActiveTestID() (string, error)
	SetActiveTestID(id string) error
	UpsertStudentResult(testID string, r *StudentResult) error
	ListStudentResults(testID string) ([]*StudentResult, error)
}

// TestUpdate lists exactly the fields an admin may change on an existing
// test. Nil fields are left untouched; Questions, when set, replaces the
// question set wholesale.
type TestUpdate struct {
	Name      *string
	Year      *string
	Semester  *string
	Questions []*Question
}

// TestService owns the test lifecycle: creation, metadata updates, and
// the start/end transitions that keep at most one test active at a time.
type TestService struct {
	store TestStore
	now   func() time.Time

	mu     sync.Mutex
	lastID int64
}

func NewTestService(store TestStore) *TestService {
	return &TestService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// nextID derives a millisecond timestamp id, bumped by one when two
// creations land in the same millisecond.
func (s *TestService) nextID() string {
	ms := s.now().UnixMilli()
	s.mu.Lock()
	if ms <= s.lastID {
		ms = s.lastID + 1
	}
	s.lastID = ms
	s.mu.Unlock()
	return strconv.FormatInt(ms, 10)
}

func (s *TestService) CreateTest(name, year, semester string, questions []*Question) (*Test, error) {
	name = strings.TrimSpace(name)
	year = strings.TrimSpace(year)
	semester = strings.TrimSpace(semester)
	if name == "" || year == "" || semester == "" {
		return nil, NewInvalidError("name, year and semester are required")
	}
	if len(questions) == 0 {
		return nil, NewInvalidError("a test needs at least one question")
	}
	t := &Test{
		ID:        s.nextID(),
		Name:      name,
		Year:      year,
		Semester:  semester,
		Questions: questions,
		IsActive:  false,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertTest(t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTest merges upd into the stored test. An unknown id is a no-op.
// The active pointer is tracked by id into the same store, so a metadata
// update can never leave a stale active copy behind.
func (s *TestService) UpdateTest(id string, upd TestUpdate) error {
	t, err := s.store.GetTest(id)
	if err != nil {
		return err
	}
	if t == nil {
		return nil
	}
	if upd.Name != nil {
		t.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Year != nil {
		t.Year = strings.TrimSpace(*upd.Year)
	}
	if upd.Semester != nil {
		t.Semester = strings.TrimSpace(*upd.Semester)
	}
	if upd.Questions != nil {
		t.Questions = upd.Questions
	}
	if t.Name == "" || t.Year == "" || t.Semester == "" {
		return NewInvalidError("name, year and semester are required")
	}
	return s.store.UpdateTest(t)
}

// StartTest marks the test active, first ending whichever test currently
// holds the active slot so that at most one test is ever active.
func (s *TestService) StartTest(id string) error {
	t, err := s.store.GetTest(id)
	if err != nil {
		return err
	}
	if t == nil {
		return NewNotFoundError("test not found")
	}
	activeID, err := s.store.ActiveTestID()
	if err != nil {
		return err
	}
	if activeID != "" && activeID != id {
		if err := s.EndTest(activeID); err != nil {
			return err
		}
	}
	t.IsActive = true
	if err := s.store.UpdateTest(t); err != nil {
		return err
	}
	return s.store.SetActiveTestID(id)
}

// EndTest deactivates the test and clears the active pointer when it was
// the one pointed at. Unknown ids are a no-op.
func (s *TestService) EndTest(id string) error {
	t, err := s.store.GetTest(id)
	if err != nil {
		return err
	}
	if t != nil && t.IsActive {
		t.IsActive = false
		if err := s.store.UpdateTest(t); err != nil {
			return err
		}
	}
	activeID, err := s.store.ActiveTestID()
	if err != nil {
		return err
	}
	if activeID == id {
		return s.store.SetActiveTestID("")
	}
	return nil
}

// ExamLink derives the student-facing exam path for a test.
func (s *TestService) ExamLink(testID string) string {
	return "/student/exam/" + testID
}

func (s *TestService) GetTest(id string) (*Test, error) {
	t, err := s.store.GetTest(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, NewNotFoundError("test not found")
	}
	return t, nil
}

func (s *TestService) ListTests() ([]*Test, error) {
	return s.store.ListTests()
}

// ActiveTest returns the currently active test, or nil when none is.
func (s *TestService) ActiveTest() (*Test, error) {
	id, err := s.store.ActiveTestID()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	return s.store.GetTest(id)
}

// AddStudentResult upserts a result into the test's result list keyed by
// roll number: a repeat submission for the same roll number overwrites
// the earlier result in place.
func (s *TestService) AddStudentResult(testID string, r *StudentResult) error {
	if r == nil {
		return NewInvalidError("result required")
	}
	return s.store.UpsertStudentResult(testID, r)
}

// GetStudentResults returns the result list for a test; unknown ids yield
// an empty list, never an error.
func (s *TestService) GetStudentResults(testID string) ([]*StudentResult, error) {
	return s.store.ListStudentResults(testID)
}

package services

import "time"

// Category is one of the four fixed question subjects used both for
// question tagging and score bucketing.
type Category string

const (
	CategoryCoding        Category = "coding"
	CategoryMath          Category = "math"
	CategoryAptitude      Category = "aptitude"
	CategoryCommunication Category = "communication"
)

// Categories lists every valid category in bucket order.
var Categories = []Category{CategoryCoding, CategoryMath, CategoryAptitude, CategoryCommunication}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryCoding, CategoryMath, CategoryAptitude, CategoryCommunication:
		return true
	}
	return false
}

// Question is a single multiple-choice question owned by a test.
type Question struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
	Category Category `json:"category"`
}

// Test is an admin-authored question set. At most one test is active
// across the whole store at any time.
type Test struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Year      string      `json:"year"`
	Semester  string      `json:"semester"`
	Questions []*Question `json:"questions"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

// Scores buckets correct-answer counts per category plus the total.
type Scores struct {
	Coding        int `json:"coding"`
	Math          int `json:"math"`
	Aptitude      int `json:"aptitude"`
	Communication int `json:"communication"`
	Total         int `json:"total"`
}

// Add increments the bucket for cat and the running total by one point.
func (s *Scores) Add(cat Category) {
	switch cat {
	case CategoryCoding:
		s.Coding++
	case CategoryMath:
		s.Math++
	case CategoryAptitude:
		s.Aptitude++
	case CategoryCommunication:
		s.Communication++
	default:
		return
	}
	s.Total++
}

// ByCategory returns the bucket value for cat; any unknown name falls
// back to the total.
func (s Scores) ByCategory(cat string) int {
	switch Category(cat) {
	case CategoryCoding:
		return s.Coding
	case CategoryMath:
		return s.Math
	case CategoryAptitude:
		return s.Aptitude
	case CategoryCommunication:
		return s.Communication
	}
	return s.Total
}

// StudentResult is a scored exam attempt, keyed within a test by roll
// number (a second submission for the same roll number overwrites).
type StudentResult struct {
	StudentID   string    `json:"student_id"`
	Name        string    `json:"name"`
	RollNo      string    `json:"roll_no"`
	Year        string    `json:"year"`
	Branch      string    `json:"branch"`
	Section     string    `json:"section"`
	Scores      Scores    `json:"scores"`
	CompletedAt time.Time `json:"completed_at"`
}

// StudentAnswer is one recorded option pick within a session.
type StudentAnswer struct {
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	IsCorrect      bool   `json:"is_correct"`
}

// SessionStatus tags a session as still running or already scored.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionSubmitted  SessionStatus = "submitted"
)

// Session is one student's in-progress attempt at a test. It lives only
// for the duration of the attempt and is never persisted.
type Session struct {
	ID          string                    `json:"id"`
	StudentID   string                    `json:"student_id"`
	Name        string                    `json:"name"`
	RollNo      string                    `json:"roll_no"`
	Year        string                    `json:"year"`
	Branch      string                    `json:"branch"`
	Section     string                    `json:"section"`
	TestID      string                    `json:"test_id"`
	Answers     map[string]*StudentAnswer `json:"answers"`
	Scores      Scores                    `json:"scores"`
	Status      SessionStatus             `json:"status"`
	StartedAt   time.Time                 `json:"started_at"`
	Deadline    time.Time                 `json:"deadline"`
	CompletedAt time.Time                 `json:"completed_at,omitempty"`
}

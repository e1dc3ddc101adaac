package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/vignan-placements/examportal/internal/api"
	"github.com/vignan-placements/examportal/internal/services"
)

const activeTestKey = "active_test_id"

// SQLiteStore persists tests and results in a local SQLite file. Writes
// are single-statement overwrites with no cross-row transactions; the
// store is a durable drop-in for the in-memory registry, not a real
// multi-writer database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

var _ api.Store = (*SQLiteStore)(nil)

func encodeQuestions(qs []*services.Question) (string, error) {
	if qs == nil {
		qs = []*services.Question{}
	}
	b, err := json.Marshal(qs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeQuestions(s string) []*services.Question {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []*services.Question
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		log.Printf("sqlite store: decode questions: %v", err)
		return nil
	}
	return out
}

func (s *SQLiteStore) InsertTest(t *services.Test) error {
	qs, err := encodeQuestions(t.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO tests (id, name, year, semester, questions, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Year, t.Semester, qs, boolToInt64(t.IsActive), t.CreatedAt,
	)
	return err
}

func (s *SQLiteStore) GetTest(id string) (*services.Test, error) {
	row := s.db.QueryRow(
		`SELECT id, name, year, semester, questions, is_active, created_at FROM tests WHERE id = ?`, id)
	t, err := scanTest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (s *SQLiteStore) UpdateTest(t *services.Test) error {
	qs, err := encodeQuestions(t.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE tests SET name = ?, year = ?, semester = ?, questions = ?, is_active = ? WHERE id = ?`,
		t.Name, t.Year, t.Semester, qs, boolToInt64(t.IsActive), t.ID,
	)
	return err
}

func (s *SQLiteStore) ListTests() ([]*services.Test, error) {
	rows, err := s.db.Query(
		`SELECT id, name, year, semester, questions, is_active, created_at FROM tests ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*services.Test{}
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTest(row rowScanner) (*services.Test, error) {
	var (
		t         services.Test
		questions string
		active    int64
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Year, &t.Semester, &questions, &active, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Questions = decodeQuestions(questions)
	t.IsActive = int64ToBool(active)
	return &t, nil
}

func (s *SQLiteStore) ActiveTestID() (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, activeTestKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (s *SQLiteStore) SetActiveTestID(id string) error {
	if id == "" {
		_, err := s.db.Exec(`DELETE FROM app_state WHERE key = ?`, activeTestKey)
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO app_state (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		activeTestKey, id,
	)
	return err
}

func (s *SQLiteStore) UpsertStudentResult(testID string, r *services.StudentResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	// The UNIQUE(test_id, roll_no) upsert keeps the original row id, so
	// an overwritten result stays in its first-submission position.
	_, err = s.db.Exec(
		`INSERT INTO student_results (test_id, roll_no, payload, completed_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (test_id, roll_no) DO UPDATE SET
		   payload = excluded.payload,
		   completed_at = excluded.completed_at`,
		testID, r.RollNo, string(payload), r.CompletedAt,
	)
	return err
}

func (s *SQLiteStore) ListStudentResults(testID string) ([]*services.StudentResult, error) {
	rows, err := s.db.Query(
		`SELECT payload FROM student_results WHERE test_id = ? ORDER BY id`, testID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*services.StudentResult{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r services.StudentResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			log.Printf("sqlite store: decode result: %v", err)
			continue
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func int64ToBool(v int64) bool { return v != 0 }

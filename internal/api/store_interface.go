package api

import "github.com/vignan-placements/examportal/internal/services"

// Store is the full persistence surface the router and services run on.
// memoryStore is the default; db.SQLiteStore implements the same set.
type Store interface {
	InsertTest(t *services.Test) error
	GetTest(id string) (*services.Test, error)
	UpdateTest(t *services.Test) error
	ListTests() ([]*services.Test, error)

	ActiveTestID() (string, error)
	SetActiveTestID(id string) error

	UpsertStudentResult(testID string, r *services.StudentResult) error
	ListStudentResults(testID string) ([]*services.StudentResult, error)
}

var _ Store = (*memoryStore)(nil)

// The services carve narrower views out of the same store.
var (
	_ services.TestStore        = (Store)(nil)
	_ services.SessionStore     = (Store)(nil)
	_ services.LeaderboardStore = (Store)(nil)
	_ services.AuthStore        = (Store)(nil)
)

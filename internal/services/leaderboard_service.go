package services

import (
	"sort"
	"strings"
)

// LeaderboardStore is the read-only slice of the test store the
// leaderboard queries need.
type LeaderboardStore interface {
	ListTests() ([]*Test, error)
	ListStudentResults(testID string) ([]*StudentResult, error)
}

// TestResult pairs a student result with the test it was earned on, for
// views that span multiple tests.
type TestResult struct {
	Result   *StudentResult `json:"result"`
	TestID   string         `json:"test_id"`
	TestName string         `json:"test_name"`
}

// LeaderboardService derives rankings from stored results on every call;
// nothing here is cached or mutated.
type LeaderboardService struct {
	store LeaderboardStore
}

// DefaultTopN is how many yearly toppers are shown.
const DefaultTopN = 10

func NewLeaderboardService(store LeaderboardStore) *LeaderboardService {
	return &LeaderboardService{store: store}
}

// RankedResults sorts a test's results descending by the given category
// score ("total" ranks by overall score). The sort is stable, so tied
// students keep their submission order.
func (s *LeaderboardService) RankedResults(testID, category string) ([]*StudentResult, error) {
	results, err := s.store.ListStudentResults(testID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Scores.ByCategory(category) > results[j].Scores.ByCategory(category)
	})
	return results, nil
}

// Rank returns the 1-based position of rollNo in the test's total-score
// ranking, or false when the roll number has no result there.
func (s *LeaderboardService) Rank(testID, rollNo string) (int, bool, error) {
	ranked, err := s.RankedResults(testID, "total")
	if err != nil {
		return 0, false, err
	}
	for i, r := range ranked {
		if r.RollNo == rollNo {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

// TopForYear unions the results of every test held in the given year,
// sorted descending by total score and truncated to the top n
// (DefaultTopN when n is not positive).
func (s *LeaderboardService) TopForYear(year string, n int) ([]*TestResult, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	tests, err := s.store.ListTests()
	if err != nil {
		return nil, err
	}
	all := []*TestResult{}
	for _, t := range tests {
		if t.Year != year {
			continue
		}
		results, err := s.store.ListStudentResults(t.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			all = append(all, &TestResult{Result: r, TestID: t.ID, TestName: t.Name})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Result.Scores.Total > all[j].Result.Scores.Total
	})
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// SearchByRollNo finds the student's result in every test they sat,
// matching the roll number case-insensitively.
func (s *LeaderboardService) SearchByRollNo(rollNo string) ([]*TestResult, error) {
	rollNo = strings.TrimSpace(rollNo)
	if rollNo == "" {
		return []*TestResult{}, nil
	}
	tests, err := s.store.ListTests()
	if err != nil {
		return nil, err
	}
	out := []*TestResult{}
	for _, t := range tests {
		results, err := s.store.ListStudentResults(t.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if strings.EqualFold(r.RollNo, rollNo) {
				out = append(out, &TestResult{Result: r, TestID: t.ID, TestName: t.Name})
				break
			}
		}
	}
	return out, nil
}

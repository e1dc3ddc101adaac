package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// ExportResultsCSV renders a test's result list as CSV, one row per
// student in ranking-input order.
func ExportResultsCSV(results []*StudentResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{
		"student_id", "name", "roll_no", "year", "branch", "section",
		"coding", "math", "aptitude", "communication", "total", "completed_at",
	})
	for _, r := range results {
		rec := []string{
			r.StudentID,
			r.Name,
			r.RollNo,
			r.Year,
			r.Branch,
			r.Section,
			strconv.Itoa(r.Scores.Coding),
			strconv.Itoa(r.Scores.Math),
			strconv.Itoa(r.Scores.Aptitude),
			strconv.Itoa(r.Scores.Communication),
			strconv.Itoa(r.Scores.Total),
			r.CompletedAt.Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

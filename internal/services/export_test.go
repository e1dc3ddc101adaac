package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"
)

func TestExportResultsCSV(t *testing.T) {
	completed := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	results := []*StudentResult{
		{StudentID: "s1", Name: "Asha", RollNo: "R1", Year: "2025", Branch: "CSE", Section: "A",
			Scores: Scores{Coding: 3, Math: 2, Total: 5}, CompletedAt: completed},
		{StudentID: "s2", Name: "Bala", RollNo: "R2", Year: "2025", Branch: "ECE", Section: "B",
			Scores: Scores{Aptitude: 1, Total: 1}, CompletedAt: completed},
	}
	b, err := ExportResultsCSV(results)
	if err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(records))
	}
	if records[0][0] != "student_id" || records[0][11] != "completed_at" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][2] != "R1" || records[1][6] != "3" || records[1][10] != "5" {
		t.Errorf("row 1 = %v", records[1])
	}
	if records[2][11] != "2025-06-01T10:30:00Z" {
		t.Errorf("timestamp = %q", records[2][11])
	}
}

func TestExportResultsCSVEmpty(t *testing.T) {
	b, err := ExportResultsCSV(nil)
	if err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("empty export should still have a header, got %d rows", len(records))
	}
}

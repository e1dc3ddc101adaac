package api

import (
	"testing"
	"time"

	"github.com/vignan-placements/examportal/internal/services"
)

func TestMemoryStoreListTestsKeepsCreationOrder(t *testing.T) {
	s := newMemoryStore()
	for _, id := range []string{"3", "1", "2"} {
		err := s.InsertTest(&services.Test{ID: id, Name: "T" + id, CreatedAt: time.Now()})
		if err != nil {
			t.Fatal(err)
		}
	}
	tests, err := s.ListTests()
	if err != nil {
		t.Fatal(err)
	}
	got := []string{tests[0].ID, tests[1].ID, tests[2].ID}
	want := []string{"3", "1", "2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := newMemoryStore()
	if err := s.InsertTest(&services.Test{ID: "t1", Name: "Original"}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetTest("t1")
	got.Name = "Mutated"
	again, _ := s.GetTest("t1")
	if again.Name != "Original" {
		t.Errorf("caller mutation leaked into the store: %q", again.Name)
	}
}

func TestMemoryStoreUpsertKeepsSlot(t *testing.T) {
	s := newMemoryStore()
	rs := []*services.StudentResult{
		{RollNo: "R1", Name: "First", Scores: services.Scores{Total: 1}},
		{RollNo: "R2", Name: "Other", Scores: services.Scores{Total: 2}},
		{RollNo: "R1", Name: "Second", Scores: services.Scores{Total: 9}},
	}
	for _, r := range rs {
		if err := s.UpsertStudentResult("t1", r); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.ListStudentResults("t1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d results", len(list))
	}
	if list[0].RollNo != "R1" || list[0].Name != "Second" || list[0].Scores.Total != 9 {
		t.Errorf("slot 0 = %+v", list[0])
	}
	if list[1].RollNo != "R2" {
		t.Errorf("slot 1 = %+v", list[1])
	}
}

func TestMemoryStoreActivePointer(t *testing.T) {
	s := newMemoryStore()
	if id, _ := s.ActiveTestID(); id != "" {
		t.Fatalf("fresh store active = %q", id)
	}
	if err := s.SetActiveTestID("t1"); err != nil {
		t.Fatal(err)
	}
	if id, _ := s.ActiveTestID(); id != "t1" {
		t.Fatalf("active = %q", id)
	}
	if err := s.SetActiveTestID(""); err != nil {
		t.Fatal(err)
	}
	if id, _ := s.ActiveTestID(); id != "" {
		t.Fatalf("cleared active = %q", id)
	}
}

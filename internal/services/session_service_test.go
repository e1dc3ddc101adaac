package services

import (
	"testing"
	"time"
)

func examStoreWithTest(t *testing.T) (*stubTestStore, *Test) {
	t.Helper()
	store := newStubTestStore()
	questions := append(sampleQuestions(5, CategoryCoding), &Question{
		ID: "q-6", Text: "capital?", Options: []string{"a", "b", "c", "d"}, Answer: "a", Category: CategoryCommunication,
	})
	test := &Test{ID: "t1", Name: "Drive", Year: "2025", Semester: "1", Questions: questions, CreatedAt: time.Now()}
	if err := store.InsertTest(test); err != nil {
		t.Fatal(err)
	}
	return store, test
}

func studentInfo(testID string) StudentInfo {
	return StudentInfo{
		Name:    "Asha",
		RollNo:  "21A91A0501",
		Year:    "2025",
		Branch:  "CSE",
		Section: "A",
		TestID:  testID,
	}
}

func TestBeginSession(t *testing.T) {
	store, test := examStoreWithTest(t)
	svc := NewSessionService(store, time.Hour)

	sess, err := svc.BeginSession(studentInfo(test.ID))
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if sess.ID == "" || sess.StudentID == "" {
		t.Error("expected assigned ids")
	}
	if sess.Status != SessionInProgress {
		t.Errorf("status = %q", sess.Status)
	}
	if len(sess.Answers) != 0 {
		t.Error("answers should start empty")
	}
	if sess.Scores != (Scores{}) {
		t.Error("scores should start zeroed")
	}
	if got := sess.RemainingSeconds(sess.StartedAt); got != 3600 {
		t.Errorf("remaining = %d, want 3600", got)
	}
}

func TestBeginSessionValidation(t *testing.T) {
	store, test := examStoreWithTest(t)
	svc := NewSessionService(store, time.Hour)

	cases := []StudentInfo{
		{RollNo: "1", TestID: test.ID},
		{Name: "x", TestID: test.ID},
		{Name: "x", RollNo: "1"},
	}
	for i, info := range cases {
		_, err := svc.BeginSession(info)
		if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
			t.Errorf("case %d: error = %v, want invalid", i, err)
		}
	}

	_, err := svc.BeginSession(studentInfo("missing"))
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Errorf("unknown test: error = %v, want not_found", err)
	}
}

func TestRecordAnswerLastWriteWins(t *testing.T) {
	store, test := examStoreWithTest(t)
	svc := NewSessionService(store, time.Hour)
	sess, _ := svc.BeginSession(studentInfo(test.ID))

	if err := svc.RecordAnswer(sess.ID, "q-1", "b", false); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordAnswer(sess.ID, "q-1", "a", true); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.GetSession(sess.ID)
	if len(got.Answers) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(got.Answers))
	}
	a := got.Answers["q-1"]
	if a.SelectedOption != "a" || !a.IsCorrect {
		t.Errorf("answer = %+v, want the second write", a)
	}
}

func TestRecordAnswerUnknownSession(t *testing.T) {
	store, _ := examStoreWithTest(t)
	svc := NewSessionService(store, time.Hour)
	err := svc.RecordAnswer("missing", "q-1", "a", true)
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Fatalf("error = %v, want not_found", err)
	}
}

func TestSubmitScoresByCategory(t *testing.T) {
	store, test := examStoreWithTest(t)
	svc := NewSessionService(store, time.Hour)
	sess, _ := svc.BeginSession(studentInfo(test.ID))

	// 3 correct coding answers out of 5, nothing else
	_ = svc.RecordAnswer(sess.ID, "q-1", "a", true)
	_ = svc.RecordAnswer(sess.ID, "q-2", "a", true)
	_ = svc.RecordAnswer(sess.ID, "q-3", "a", true)
	_ = svc.RecordAnswer(sess.ID, "q-4", "b", false)

	done, err := svc.Submit(sess.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := Scores{Coding: 3, Total: 3}
	if done.Scores != want {
		t.Fatalf("scores = %+v, want %+v", done.Scores, want)
	}
	if done.Status != SessionSubmitted {
		t.Errorf("status = %q", done.Status)
	}
	if done.CompletedAt.IsZero() {
		t.Error("expected a completion timestamp")
	}

	results, _ := store.ListStudentResults(test.ID)
	if len(results) != 1 {
		t.Fatalf("expected 1 stored result, got %d", len(results))
	}
	if results[0].RollNo != "21A91A0501" || results[0].Scores != want {
		t.Errorf("stored result = %+v", results[0])
	}
}

func TestSubmitSkipsUnmatchedQuestions(t *testing.T) {
	store, test := examStoreWithTest(t)
	svc := NewSessionService(store, time.Hour)
	sess, _ := svc.BeginSession(studentInfo(test.ID))

	_ = svc.RecordAnswer(sess.ID, "q-1", "a", true)
	_ = svc.RecordAnswer(sess.ID, "ghost-question", "a", true)

	done, err := svc.Submit(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Scores.Total != 1 {
		t.Errorf("total = %d, want unmatched answers skipped", done.Scores.Total)
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	store, test := examStoreWithTest(t)
	svc := NewSessionService(store, time.Hour)
	sess, _ := svc.BeginSession(studentInfo(test.ID))
	_ = svc.RecordAnswer(sess.ID, "q-1", "a", true)

	first, err := svc.Submit(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	upsertsAfterFirst := store.upserts

	second, err := svc.Submit(sess.ID)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if second.Scores != first.Scores {
		t.Errorf("second submit changed scores: %+v vs %+v", second.Scores, first.Scores)
	}
	if !second.CompletedAt.Equal(first.CompletedAt) {
		t.Errorf("second submit restamped completion time")
	}
	if store.upserts != upsertsAfterFirst {
		t.Errorf("second submit wrote the store again (%d -> %d)", upsertsAfterFirst, store.upserts)
	}
	results, _ := store.ListStudentResults(test.ID)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestRecordAnswerAfterSubmitIgnored(t *testing.T) {
	store, test := examStoreWithTest(t)
	svc := NewSessionService(store, time.Hour)
	sess, _ := svc.BeginSession(studentInfo(test.ID))
	if _, err := svc.Submit(sess.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordAnswer(sess.ID, "q-1", "a", true); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	got, _ := svc.GetSession(sess.ID)
	if len(got.Answers) != 0 {
		t.Error("answer recorded on a submitted session")
	}
}

func TestAutoSubmitAtDeadline(t *testing.T) {
	store, test := examStoreWithTest(t)
	svc := NewSessionService(store, 30*time.Millisecond)
	sess, _ := svc.BeginSession(studentInfo(test.ID))
	_ = svc.RecordAnswer(sess.ID, "q-1", "a", true)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := svc.GetSession(sess.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status == SessionSubmitted {
			if got.Scores.Total != 1 {
				t.Errorf("auto-submit scores = %+v", got.Scores)
			}
			results, _ := store.ListStudentResults(test.ID)
			if len(results) != 1 {
				t.Fatalf("expected 1 result after auto-submit, got %d", len(results))
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timer never submitted the session")
}

func TestManualSubmitAfterAutoSubmitIsNoop(t *testing.T) {
	store, test := examStoreWithTest(t)
	svc := NewSessionService(store, 20*time.Millisecond)
	sess, _ := svc.BeginSession(studentInfo(test.ID))
	_ = svc.RecordAnswer(sess.ID, "q-1", "a", true)

	time.Sleep(150 * time.Millisecond)

	done, err := svc.Submit(sess.ID)
	if err != nil {
		t.Fatalf("manual submit after expiry: %v", err)
	}
	if done.Status != SessionSubmitted {
		t.Errorf("status = %q", done.Status)
	}
	results, _ := store.ListStudentResults(test.ID)
	if len(results) != 1 {
		t.Fatalf("double submission stored %d results", len(results))
	}
	if store.upserts != 1 {
		t.Errorf("store written %d times, want once", store.upserts)
	}
}

func TestAbandonSession(t *testing.T) {
	store, test := examStoreWithTest(t)
	svc := NewSessionService(store, time.Hour)
	sess, _ := svc.BeginSession(studentInfo(test.ID))
	_ = svc.RecordAnswer(sess.ID, "q-1", "a", true)

	svc.AbandonSession(sess.ID)

	if _, err := svc.GetSession(sess.ID); err == nil {
		t.Fatal("session still reachable after abandon")
	}
	results, _ := store.ListStudentResults(test.ID)
	if len(results) != 0 {
		t.Errorf("abandoning persisted a result: %+v", results)
	}

	// unknown ids are fine too
	svc.AbandonSession("missing")
}

func TestRemainingSecondsFloorsAtZero(t *testing.T) {
	store, test := examStoreWithTest(t)
	svc := NewSessionService(store, time.Hour)
	sess, _ := svc.BeginSession(studentInfo(test.ID))

	if got := sess.RemainingSeconds(sess.Deadline.Add(time.Minute)); got != 0 {
		t.Errorf("past deadline remaining = %d", got)
	}
	if _, err := svc.Submit(sess.ID); err != nil {
		t.Fatal(err)
	}
	done, _ := svc.GetSession(sess.ID)
	if got := done.RemainingSeconds(time.Now()); got != 0 {
		t.Errorf("submitted session remaining = %d", got)
	}
}

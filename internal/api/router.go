package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vignan-placements/examportal/internal/middleware"
	"github.com/vignan-placements/examportal/internal/services"
)

// Config carries the deployment knobs the router needs; zero values fall
// back to the stock portal credentials and a one-hour exam.
type Config struct {
	AdminUser    string
	AdminPass    string
	ExamDuration time.Duration
	SignToken    services.TokenSigner
}

type Router struct {
	store    Store
	auth     *services.AuthService
	tests    *services.TestService
	sessions *services.SessionService
	board    *services.LeaderboardService
	now      func() time.Time
}

func NewRouter(store Store, cfg Config) (*Router, error) {
	if cfg.AdminUser == "" {
		cfg.AdminUser = "Stud_exam"
	}
	if cfg.AdminPass == "" {
		cfg.AdminPass = "Vignan_iit_1234"
	}
	auth, err := services.NewAuthService(store, cfg.AdminUser, cfg.AdminPass, cfg.SignToken)
	if err != nil {
		return nil, err
	}
	return &Router{
		store:    store,
		auth:     auth,
		tests:    services.NewTestService(store),
		sessions: services.NewSessionService(store, cfg.ExamDuration),
		board:    services.NewLeaderboardService(store),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/admin/login", rt.handleAdminLogin)                // POST
	mux.HandleFunc("/api/admin/tests", rt.handleTests)                     // GET, POST
	mux.HandleFunc("/api/admin/tests/", rt.handleTestScoped)               // subresources
	mux.HandleFunc("/api/admin/questions/preview", rt.handlePreview)       // POST
	mux.HandleFunc("/api/admin/leaderboard", rt.handleLeaderboard)         // GET
	mux.HandleFunc("/api/admin/leaderboard/rank", rt.handleRank)           // GET
	mux.HandleFunc("/api/admin/leaderboard/toppers", rt.handleToppers)     // GET
	mux.HandleFunc("/api/admin/leaderboard/search", rt.handleSearch)       // GET
	mux.HandleFunc("/api/student/login", rt.handleStudentLogin)            // POST
	mux.HandleFunc("/api/student/sessions", rt.handleSessions)             // POST
	mux.HandleFunc("/api/student/sessions/", rt.handleSessionScoped)       // subresources
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorConflict:
			status = http.StatusConflict
		}
		http.Error(w, se.Message, status)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (rt *Router) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !middleware.IsAdmin(r.Context()) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// POST /api/admin/login
func (rt *Router) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.AdminLogin(req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"token": res.Token, "username": res.Username})
}

// GET/POST /api/admin/tests
func (rt *Router) handleTests(w http.ResponseWriter, r *http.Request) {
	if !rt.requireAdmin(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		tests, err := rt.tests.ListTests()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"tests": tests})
	case http.MethodPost:
		var req struct {
			Name      string               `json:"name"`
			Year      string               `json:"year"`
			Semester  string               `json:"semester"`
			Document  string               `json:"document"`
			Questions []*services.Question `json:"questions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		questions := req.Questions
		if len(questions) == 0 && req.Document != "" {
			parsed, err := services.ParseQuestions(req.Document)
			if err != nil {
				writeError(w, err)
				return
			}
			questions = parsed
		}
		t, err := rt.tests.CreateTest(req.Name, req.Year, req.Semester, questions)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, t)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /api/admin/tests/{id}[/start|/end|/link|/results|/results.csv]
func (rt *Router) handleTestScoped(w http.ResponseWriter, r *http.Request) {
	if !rt.requireAdmin(w, r) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/tests/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			t, err := rt.tests.GetTest(id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, t)
		case http.MethodPost:
			var req struct {
				Name      *string              `json:"name"`
				Year      *string              `json:"year"`
				Semester  *string              `json:"semester"`
				Questions []*services.Question `json:"questions"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			upd := services.TestUpdate{Name: req.Name, Year: req.Year, Semester: req.Semester, Questions: req.Questions}
			if err := rt.tests.UpdateTest(id, upd); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, map[string]any{"ok": true})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "start":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := rt.tests.StartTest(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "exam_link": rt.tests.ExamLink(id)})
	case "end":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := rt.tests.EndTest(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	case "link":
		writeJSON(w, map[string]any{"exam_link": rt.tests.ExamLink(id)})
	case "results":
		results, err := rt.tests.GetStudentResults(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"test_id": id, "results": results})
	case "results.csv":
		results, err := rt.tests.GetStudentResults(id)
		if err != nil {
			writeError(w, err)
			return
		}
		b, err := services.ExportResultsCSV(results)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=results.csv")
		_, _ = w.Write(b)
	default:
		http.NotFound(w, r)
	}
}

// POST /api/admin/questions/preview
// Accepts the raw document text plus an advisory filename; the content is
// always treated as plain text regardless of extension.
func (rt *Router) handlePreview(w http.ResponseWriter, r *http.Request) {
	if !rt.requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Filename string `json:"filename"`
		Document string `json:"document"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Filename != "" && !allowedUploadName(req.Filename) {
		writeError(w, services.NewInvalidError("please upload a .txt, .doc or .docx file"))
		return
	}
	questions, err := services.ParseQuestions(req.Document)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"questions": questions, "count": len(questions)})
}

func allowedUploadName(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".doc") || strings.HasSuffix(name, ".docx")
}

// GET /api/admin/leaderboard?test_id=...&category=total
func (rt *Router) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !rt.requireAdmin(w, r) {
		return
	}
	testID := r.URL.Query().Get("test_id")
	if testID == "" {
		http.Error(w, "test_id required", http.StatusBadRequest)
		return
	}
	category := r.URL.Query().Get("category")
	if category == "" {
		category = "total"
	}
	if category != "total" && !services.ValidCategory(category) {
		http.Error(w, "unknown category", http.StatusBadRequest)
		return
	}
	results, err := rt.board.RankedResults(testID, category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"test_id": testID, "category": category, "results": results})
}

// GET /api/admin/leaderboard/rank?test_id=...&roll_no=...
func (rt *Router) handleRank(w http.ResponseWriter, r *http.Request) {
	if !rt.requireAdmin(w, r) {
		return
	}
	testID := r.URL.Query().Get("test_id")
	rollNo := r.URL.Query().Get("roll_no")
	if testID == "" || rollNo == "" {
		http.Error(w, "test_id and roll_no required", http.StatusBadRequest)
		return
	}
	rank, found, err := rt.board.Rank(testID, rollNo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"test_id": testID, "roll_no": rollNo, "rank": rank, "found": found})
}

// GET /api/admin/leaderboard/toppers?year=...&limit=10
func (rt *Router) handleToppers(w http.ResponseWriter, r *http.Request) {
	if !rt.requireAdmin(w, r) {
		return
	}
	year := r.URL.Query().Get("year")
	if year == "" {
		http.Error(w, "year required", http.StatusBadRequest)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "limit must be a number", http.StatusBadRequest)
			return
		}
		limit = n
	}
	toppers, err := rt.board.TopForYear(year, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"year": year, "toppers": toppers})
}

// GET /api/admin/leaderboard/search?roll_no=...
func (rt *Router) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !rt.requireAdmin(w, r) {
		return
	}
	rollNo := r.URL.Query().Get("roll_no")
	if rollNo == "" {
		http.Error(w, "roll_no required", http.StatusBadRequest)
		return
	}
	matches, err := rt.board.SearchByRollNo(rollNo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"roll_no": rollNo, "matches": matches})
}

// POST /api/student/login
// The exam link only opens while its test is the active one.
func (rt *Router) handleStudentLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		TestID string `json:"test_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t, err := rt.auth.StudentLogin(req.TestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, t)
}

// POST /api/student/sessions
func (rt *Router) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var info services.StudentInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess, err := rt.sessions.BeginSession(info)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"session": sess, "remaining_seconds": sess.RemainingSeconds(rt.now())})
}

// /api/student/sessions/{id}[/answers|/submit]
func (rt *Router) handleSessionScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/student/sessions/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			sess, err := rt.sessions.GetSession(id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, map[string]any{"session": sess, "remaining_seconds": sess.RemainingSeconds(rt.now())})
		case http.MethodDelete:
			rt.sessions.AbandonSession(id)
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "answers":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			QuestionID     string `json:"question_id"`
			SelectedOption string `json:"selected_option"`
			IsCorrect      bool   `json:"is_correct"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := rt.sessions.RecordAnswer(id, req.QuestionID, req.SelectedOption, req.IsCorrect); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	case "submit":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sess, err := rt.sessions.Submit(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"session": sess, "scores": sess.Scores})
	default:
		http.NotFound(w, r)
	}
}

package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/vignan-placements/examportal/internal/api"
	"github.com/vignan-placements/examportal/internal/middleware"
	"github.com/vignan-placements/examportal/internal/utils"
)

func main() {
	addr := utils.SafeEnv("EXAMPORTAL_ADDR", ":8080")
	commit := os.Getenv("EXAMPORTAL_COMMIT")
	buildTime := os.Getenv("EXAMPORTAL_BUILD_TIME")

	store, err := openStore()
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	duration, err := utils.SafeDurationEnv("EXAMPORTAL_EXAM_DURATION", 0)
	if err != nil {
		log.Fatalf("invalid exam duration: %v", err)
	}

	router, err := api.NewRouter(store, api.Config{
		AdminUser:    os.Getenv("EXAMPORTAL_ADMIN_USER"),
		AdminPass:    os.Getenv("EXAMPORTAL_ADMIN_PASS"),
		ExamDuration: duration,
		SignToken:    middleware.SignToken,
	})
	if err != nil {
		log.Fatalf("init router: %v", err)
	}

	mux := http.NewServeMux()
	router.Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Exam Portal API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	// Serve the built frontend when a static dir is configured.
	if staticDir := os.Getenv("EXAMPORTAL_STATIC_DIR"); staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		mux.Handle("/", fs)
	}

	handler := middleware.SecureHeaders(middleware.CORS(middleware.NoStore(middleware.WithAuth(mux))))

	log.Printf("exam portal listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

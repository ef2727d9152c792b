package rest

import (
	"net/http"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Journal   *JournalHandler
	Health    *HealthHandler
	UploadDir string
}

// NewRouter mounts all REST routes. Middleware is applied by the caller.
func NewRouter(deps RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", deps.Health.Live)
	mux.HandleFunc("GET /ready", deps.Health.Ready)
	mux.HandleFunc("GET /health", deps.Health.Health)

	mux.HandleFunc("POST /journal/upload_images", deps.Journal.UploadImages)
	mux.HandleFunc("POST /journal/daily_log", deps.Journal.CreateDailyLog)
	mux.HandleFunc("GET /journal/daily_log/{date}", deps.Journal.GetDailyLog)
	mux.HandleFunc("DELETE /journal/daily_log/{date}", deps.Journal.DeleteDailyLog)
	mux.HandleFunc("GET /journal/entries", deps.Journal.ListEntries)
	mux.HandleFunc("GET /journal/stats", deps.Journal.Stats)
	mux.HandleFunc("GET /journal/fetch_live_pnl", deps.Journal.FetchLivePnL)

	// Stored attachments are served straight off disk.
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(deps.UploadDir))))

	return mux
}

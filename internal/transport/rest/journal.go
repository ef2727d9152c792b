package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/imishra/tradejournal/internal/domain"
	"github.com/imishra/tradejournal/internal/service/journal"
)

// maxUploadBytes bounds one upload_images request body.
const maxUploadBytes = 32 << 20

type journalService interface {
	SaveDailyLog(ctx context.Context, input journal.DailyLogInput) error
	GetDailyLog(ctx context.Context, date string) (*domain.DayRecord, error)
	DeleteDailyLog(ctx context.Context, date string) error
	ListEntries(ctx context.Context, input journal.ListEntriesInput) ([]domain.EntryRow, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

type liveFetcher interface {
	FetchAll(ctx context.Context) ([]domain.AccountEntry, []string)
}

type uploadStore interface {
	Save(filename string, r io.Reader) (string, error)
}

// JournalHandler serves the journal REST endpoints.
type JournalHandler struct {
	journal journalService
	live    liveFetcher
	uploads uploadStore
	log     *slog.Logger
}

// NewJournalHandler creates a JournalHandler.
func NewJournalHandler(journal journalService, live liveFetcher, uploads uploadStore, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{
		journal: journal,
		live:    live,
		uploads: uploads,
		log:     logger.With("handler", "journal"),
	}
}

type accountPayload struct {
	AccountName string  `json:"account_name"`
	PnL         float64 `json:"pnl"`
	Brokerage   float64 `json:"brokerage"`
	Taxes       float64 `json:"taxes"`
}

type socialLogPayload struct {
	Handle string  `json:"twitter_handle"`
	PnL    float64 `json:"pnl"`
}

type dailyLogResponse struct {
	Date       string             `json:"date"`
	Notes      *string            `json:"notes"`
	ImagePaths []string           `json:"image_paths"`
	Accounts   []accountPayload   `json:"accounts"`
	SocialLogs []socialLogPayload `json:"twitter_logs"`
}

type entryResponse struct {
	ID          int64              `json:"id"`
	Date        string             `json:"date"`
	AccountName string             `json:"account_name"`
	PnL         float64            `json:"pnl"`
	Brokerage   float64            `json:"brokerage"`
	Taxes       float64            `json:"taxes"`
	Notes       *string            `json:"notes"`
	ImagePath   *string            `json:"image_path"`
	CreatedAt   time.Time          `json:"created_at"`
	SocialLogs  []socialLogPayload `json:"twitter_logs"`
	ImagePaths  []string           `json:"image_paths"`
}

type statsResponse struct {
	TotalPnL         float64            `json:"total_pnl"`
	WinRate          float64            `json:"win_rate"`
	TotalDaysLogged  int                `json:"total_days_logged"`
	AccountBreakdown map[string]float64 `json:"account_breakdown"`
}

// UploadImages handles POST /journal/upload_images. It accepts a multipart
// form with one or more files under the "files" field and returns the
// serving paths of the stored copies.
func (h *JournalHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	paths := make([]string, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			respondError(h.log, w, r, fmt.Errorf("open upload %s: %w", header.Filename, err))
			return
		}

		path, err := h.uploads.Save(header.Filename, f)
		f.Close()
		if err != nil {
			respondError(h.log, w, r, err)
			return
		}
		paths = append(paths, path)
	}

	writeJSON(w, http.StatusOK, map[string][]string{"file_paths": paths})
}

// CreateDailyLog handles POST /journal/daily_log. The submitted record
// replaces everything stored for its date.
func (h *JournalHandler) CreateDailyLog(w http.ResponseWriter, r *http.Request) {
	var input journal.DailyLogInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.journal.SaveDailyLog(r.Context(), input); err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Daily log saved",
	})
}

// GetDailyLog handles GET /journal/daily_log/{date}.
func (h *JournalHandler) GetDailyLog(w http.ResponseWriter, r *http.Request) {
	rec, err := h.journal.GetDailyLog(r.Context(), r.PathValue("date"))
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	resp := dailyLogResponse{
		Date:       rec.Date.String(),
		Notes:      rec.Notes,
		ImagePaths: make([]string, 0, len(rec.Images)),
		Accounts:   make([]accountPayload, 0, len(rec.Accounts)),
		SocialLogs: make([]socialLogPayload, 0, len(rec.SocialLogs)),
	}
	resp.ImagePaths = append(resp.ImagePaths, rec.Images...)
	for _, acc := range rec.Accounts {
		resp.Accounts = append(resp.Accounts, accountPayload(acc))
	}
	for _, sl := range rec.SocialLogs {
		resp.SocialLogs = append(resp.SocialLogs, socialLogPayload(sl))
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteDailyLog handles DELETE /journal/daily_log/{date}.
func (h *JournalHandler) DeleteDailyLog(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if err := h.journal.DeleteDailyLog(r.Context(), date); err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Deleted logs for %s", date),
	})
}

// ListEntries handles GET /journal/entries with optional start_date,
// end_date, and account query filters.
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rows, err := h.journal.ListEntries(r.Context(), journal.ListEntriesInput{
		StartDate: query.Get("start_date"),
		EndDate:   query.Get("end_date"),
		Account:   query.Get("account"),
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	resp := make([]entryResponse, 0, len(rows))
	for _, row := range rows {
		entry := entryResponse{
			ID:          row.ID,
			Date:        row.Date.String(),
			AccountName: row.AccountName,
			PnL:         row.PnL,
			Brokerage:   row.Brokerage,
			Taxes:       row.Taxes,
			Notes:       row.Notes,
			ImagePath:   row.ImagePath,
			CreatedAt:   row.CreatedAt,
			SocialLogs:  make([]socialLogPayload, 0, len(row.SocialLogs)),
			ImagePaths:  make([]string, 0, len(row.Images)),
		}
		for _, sl := range row.SocialLogs {
			entry.SocialLogs = append(entry.SocialLogs, socialLogPayload(sl))
		}
		entry.ImagePaths = append(entry.ImagePaths, row.Images...)
		resp = append(resp, entry)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /journal/stats.
func (h *JournalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.journal.Stats(r.Context())
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse(stats))
}

// FetchLivePnL handles GET /journal/fetch_live_pnl. Per-account failures come
// back in the errors list next to the accounts that did respond.
func (h *JournalHandler) FetchLivePnL(w http.ResponseWriter, r *http.Request) {
	entries, errs := h.live.FetchAll(r.Context())

	accounts := make([]accountPayload, 0, len(entries))
	for _, entry := range entries {
		accounts = append(accounts, accountPayload(entry))
	}
	if errs == nil {
		errs = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":     domain.Today().String(),
		"accounts": accounts,
		"errors":   errs,
	})
}

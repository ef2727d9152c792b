// Package daystore implements the date-indexed Day Store using PostgreSQL.
// It owns the three per-date tables (journal_entries, twitter_logs,
// journal_images) and exposes range reads, single-day reads, and the
// atomic replace/delete write primitives the reconciler builds on.
package daystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/imishra/tradejournal/internal/adapter/postgres"
	"github.com/imishra/tradejournal/internal/domain"
)

// psql builds queries with PostgreSQL-style $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides day-record persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new day store repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ReadRange returns account rows whose date falls within the inclusive
// [start, end] range (nil bounds are open), optionally filtered to one
// account name, ordered by date descending. Each row carries the social
// logs and image paths resolved for its date so callers can reconstruct a
// full DayRecord per date.
func (r *Repo) ReadRange(ctx context.Context, start, end *domain.Date, account string) ([]domain.EntryRow, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	sb := psql.Select("id", "date", "account_name", "pnl", "brokerage", "taxes", "notes", "image_path", "created_at").
		From("journal_entries").
		OrderBy("date DESC", "id ASC")

	if start != nil {
		sb = sb.Where(sq.GtOrEq{"date": start.Time()})
	}
	if end != nil {
		sb = sb.Where(sq.LtOrEq{"date": end.Time()})
	}
	if account != "" {
		sb = sb.Where(sq.Eq{"account_name": account})
	}

	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entries query: %w", err)
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("read entries range: %w", err)
	}
	defer rows.Close()

	result, err := scanEntryRows(rows)
	if err != nil {
		return nil, fmt.Errorf("read entries range: %w", err)
	}

	if len(result) == 0 {
		return []domain.EntryRow{}, nil
	}

	// Resolve day-level data for the set of dates touched.
	dates := uniqueDates(result)

	logsByDate, err := r.socialLogsByDates(ctx, dates)
	if err != nil {
		return nil, fmt.Errorf("read entries range: %w", err)
	}
	imagesByDate, err := r.imagesByDates(ctx, dates)
	if err != nil {
		return nil, fmt.Errorf("read entries range: %w", err)
	}

	for i := range result {
		key := result[i].Date.String()
		result[i].SocialLogs = orEmptyLogs(logsByDate[key])
		result[i].Images = orEmptyStrings(imagesByDate[key])
	}

	return result, nil
}

// ReadOne returns the full record for exactly one date. It signals
// domain.ErrNotFound when no account rows exist for that date, regardless
// of any orphaned social logs or images.
func (r *Repo) ReadOne(ctx context.Context, date domain.Date) (*domain.DayRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getEntriesByDateSQL, date.Time())
	if err != nil {
		return nil, mapError(err, date)
	}
	defer rows.Close()

	entries, err := scanEntryRows(rows)
	if err != nil {
		return nil, mapError(err, date)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("day %s: %w", date, domain.ErrNotFound)
	}

	dates := []time.Time{date.Time()}
	logsByDate, err := r.socialLogsByDates(ctx, dates)
	if err != nil {
		return nil, mapError(err, date)
	}
	imagesByDate, err := r.imagesByDates(ctx, dates)
	if err != nil {
		return nil, mapError(err, date)
	}

	rec := &domain.DayRecord{
		Date:       date,
		Accounts:   make([]domain.AccountEntry, 0, len(entries)),
		Notes:      entries[0].Notes,
		ImagePath:  entries[0].ImagePath,
		Images:     orEmptyStrings(imagesByDate[date.String()]),
		SocialLogs: orEmptyLogs(logsByDate[date.String()]),
	}
	for _, e := range entries {
		rec.Accounts = append(rec.Accounts, domain.AccountEntry{
			AccountName: e.AccountName,
			PnL:         e.PnL,
			Brokerage:   e.Brokerage,
			Taxes:       e.Taxes,
		})
	}

	return rec, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// ReplaceDay deletes all account rows, social logs, and images for the
// record's date, then inserts the supplied record's rows. It must run inside
// TxManager.RunInTx so a failure partway never leaves the date in a mixed
// old/new state.
func (r *Repo) ReplaceDay(ctx context.Context, rec domain.DayRecord) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)
	day := rec.Date.Time()

	for _, sql := range []string{deleteEntriesSQL, deleteSocialLogsSQL, deleteImagesSQL} {
		if _, err := querier.Exec(ctx, sql, day); err != nil {
			return mapError(err, rec.Date)
		}
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, acc := range rec.Accounts {
		batch.Queue(insertEntrySQL,
			day, acc.AccountName, acc.PnL, acc.Brokerage, acc.Taxes,
			ptrStringToPgText(rec.Notes), ptrStringToPgText(rec.ImagePath), now)
	}
	for _, log := range rec.SocialLogs {
		batch.Queue(insertSocialLogSQL, day, log.Handle, log.PnL)
	}
	for _, img := range rec.Images {
		batch.Queue(insertImageSQL, day, img)
	}

	if batch.Len() == 0 {
		return nil
	}

	br := querier.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return mapError(err, rec.Date)
		}
	}

	return nil
}

// DeleteDay removes all account rows, social logs, and images for a date.
// Returns the total number of rows removed; domain.ErrNotFound when nothing
// existed for that date.
func (r *Repo) DeleteDay(ctx context.Context, date domain.Date) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)
	day := date.Time()

	var total int64
	for _, sql := range []string{deleteEntriesSQL, deleteSocialLogsSQL, deleteImagesSQL} {
		tag, err := querier.Exec(ctx, sql, day)
		if err != nil {
			return 0, mapError(err, date)
		}
		total += tag.RowsAffected()
	}

	if total == 0 {
		return 0, fmt.Errorf("day %s: %w", date, domain.ErrNotFound)
	}

	return total, nil
}

// ---------------------------------------------------------------------------
// SQL
// ---------------------------------------------------------------------------

const getEntriesByDateSQL = `
SELECT id, date, account_name, pnl, brokerage, taxes, notes, image_path, created_at
FROM journal_entries
WHERE date = $1
ORDER BY id`

const getSocialLogsByDatesSQL = `
SELECT date, twitter_handle, pnl
FROM twitter_logs
WHERE date = ANY($1::date[])
ORDER BY date, id`

const getImagesByDatesSQL = `
SELECT date, image_path
FROM journal_images
WHERE date = ANY($1::date[])
ORDER BY date, id`

const deleteEntriesSQL = `DELETE FROM journal_entries WHERE date = $1`
const deleteSocialLogsSQL = `DELETE FROM twitter_logs WHERE date = $1`
const deleteImagesSQL = `DELETE FROM journal_images WHERE date = $1`

const insertEntrySQL = `
INSERT INTO journal_entries (date, account_name, pnl, brokerage, taxes, notes, image_path, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const insertSocialLogSQL = `
INSERT INTO twitter_logs (date, twitter_handle, pnl)
VALUES ($1, $2, $3)`

const insertImageSQL = `
INSERT INTO journal_images (date, image_path)
VALUES ($1, $2)`

// ---------------------------------------------------------------------------
// Day-level lookups
// ---------------------------------------------------------------------------

// socialLogsByDates returns social logs grouped by date string.
func (r *Repo) socialLogsByDates(ctx context.Context, dates []time.Time) (map[string][]domain.SocialLog, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getSocialLogsByDatesSQL, dates)
	if err != nil {
		return nil, fmt.Errorf("get social logs by dates: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]domain.SocialLog)
	for rows.Next() {
		var (
			day    time.Time
			handle string
			pnl    float64
		)
		if err := rows.Scan(&day, &handle, &pnl); err != nil {
			return nil, fmt.Errorf("scan social log: %w", err)
		}
		key := domain.DateOf(day).String()
		result[key] = append(result[key], domain.SocialLog{Handle: handle, PnL: pnl})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get social logs by dates: %w", err)
	}

	return result, nil
}

// imagesByDates returns image paths grouped by date string.
func (r *Repo) imagesByDates(ctx context.Context, dates []time.Time) (map[string][]string, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getImagesByDatesSQL, dates)
	if err != nil {
		return nil, fmt.Errorf("get images by dates: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var (
			day  time.Time
			path string
		)
		if err := rows.Scan(&day, &path); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		key := domain.DateOf(day).String()
		result[key] = append(result[key], path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get images by dates: %w", err)
	}

	return result, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

// scanEntryRows scans journal_entries rows into domain.EntryRow slices.
// SocialLogs and Images are left nil for the caller to resolve.
func scanEntryRows(rows pgx.Rows) ([]domain.EntryRow, error) {
	var result []domain.EntryRow
	for rows.Next() {
		var (
			id        int64
			day       time.Time
			account   string
			pnl       float64
			brokerage float64
			taxes     float64
			notes     pgtype.Text
			imagePath pgtype.Text
			createdAt time.Time
		)

		if err := rows.Scan(&id, &day, &account, &pnl, &brokerage, &taxes, &notes, &imagePath, &createdAt); err != nil {
			return nil, err
		}

		row := domain.EntryRow{
			ID:          id,
			Date:        domain.DateOf(day),
			AccountName: account,
			PnL:         pnl,
			Brokerage:   brokerage,
			Taxes:       taxes,
			CreatedAt:   createdAt,
		}
		if notes.Valid {
			row.Notes = &notes.String
		}
		if imagePath.Valid {
			row.ImagePath = &imagePath.String
		}

		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// uniqueDates collects the distinct dates of the given rows, preserving order.
func uniqueDates(rows []domain.EntryRow) []time.Time {
	seen := make(map[string]struct{}, len(rows))
	var dates []time.Time
	for _, row := range rows {
		key := row.Date.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dates = append(dates, row.Date.Time())
	}
	return dates
}

func orEmptyLogs(logs []domain.SocialLog) []domain.SocialLog {
	if logs == nil {
		return []domain.SocialLog{}
	}
	return logs
}

func orEmptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

// mapError converts pgx/pgconn errors into domain errors.
func mapError(err error, date domain.Date) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("day %s: %w", date, err)
	}

	// pgx.ErrNoRows -> domain.ErrNotFound
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("day %s: %w", date, domain.ErrNotFound)
	}

	// PgError codes
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("day %s: %w", date, domain.ErrAlreadyExists)
		case "23514": // check_violation
			return fmt.Errorf("day %s: %w", date, domain.ErrValidation)
		}
	}

	// Everything else: wrap with context
	return fmt.Errorf("day %s: %w", date, err)
}

// ---------------------------------------------------------------------------
// pgtype helpers
// ---------------------------------------------------------------------------

// ptrStringToPgText converts a *string to pgtype.Text (nil -> NULL).
func ptrStringToPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

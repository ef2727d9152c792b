package journal

import (
	"context"
	"fmt"

	"github.com/imishra/tradejournal/internal/domain"
)

// SaveDailyLog validates the submission and replaces everything stored for
// its date with the submitted record.
func (s *Service) SaveDailyLog(ctx context.Context, input DailyLogInput) error {
	rec, err := input.Validate()
	if err != nil {
		return err
	}

	ctx, cancel := withStorageTimeout(ctx)
	defer cancel()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.ReplaceDay(ctx, rec)
	})
	if err != nil {
		return fmt.Errorf("replace day %s: %w", rec.Date, err)
	}

	s.log.InfoContext(ctx, "daily log saved",
		"date", rec.Date.String(),
		"accounts", len(rec.Accounts),
	)
	return nil
}

// GetDailyLog returns the full record stored for the date, or ErrNotFound
// when the date holds no account entries.
func (s *Service) GetDailyLog(ctx context.Context, dateStr string) (*domain.DayRecord, error) {
	date, err := domain.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStorageTimeout(ctx)
	defer cancel()

	rec, err := s.store.ReadOne(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("read day %s: %w", date, err)
	}
	return rec, nil
}

// DeleteDailyLog removes everything stored for the date. ErrNotFound is
// returned when the date held no rows at all.
func (s *Service) DeleteDailyLog(ctx context.Context, dateStr string) error {
	date, err := domain.ParseDate(dateStr)
	if err != nil {
		return err
	}

	ctx, cancel := withStorageTimeout(ctx)
	defer cancel()

	var deleted int64
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var txErr error
		deleted, txErr = s.store.DeleteDay(ctx, date)
		return txErr
	})
	if err != nil {
		return fmt.Errorf("delete day %s: %w", date, err)
	}

	s.log.InfoContext(ctx, "daily log deleted", "date", date.String(), "rows", deleted)
	return nil
}

// ListEntries returns account rows ordered newest date first, optionally
// bounded by an inclusive date range and filtered to one account.
func (s *Service) ListEntries(ctx context.Context, input ListEntriesInput) ([]domain.EntryRow, error) {
	start, end, err := input.parse()
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStorageTimeout(ctx)
	defer cancel()

	rows, err := s.store.ReadRange(ctx, start, end, input.Account)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	return rows, nil
}

// Stats aggregates all stored entries: total PnL, the share of logged days
// with a positive combined PnL, and per-account PnL totals.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	ctx, cancel := withStorageTimeout(ctx)
	defer cancel()

	rows, err := s.store.ReadRange(ctx, nil, nil, "")
	if err != nil {
		return domain.Stats{}, fmt.Errorf("read entries: %w", err)
	}

	stats := domain.Stats{AccountBreakdown: make(map[string]float64)}
	dayTotals := make(map[string]float64)
	for _, row := range rows {
		stats.TotalPnL += row.PnL
		stats.AccountBreakdown[row.AccountName] += row.PnL
		dayTotals[row.Date.String()] += row.PnL
	}

	stats.TotalDaysLogged = len(dayTotals)
	if stats.TotalDaysLogged > 0 {
		wins := 0
		for _, total := range dayTotals {
			if total > 0 {
				wins++
			}
		}
		stats.WinRate = float64(wins) / float64(stats.TotalDaysLogged) * 100
	}
	return stats, nil
}

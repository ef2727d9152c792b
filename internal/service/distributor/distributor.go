// Package distributor spreads period-total brokerage and taxes evenly across
// the trading days logged inside a date range, one account at a time.
package distributor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/imishra/tradejournal/internal/domain"
)

// entryReader reads stored account rows by date range.
type entryReader interface {
	ReadRange(ctx context.Context, start, end *domain.Date, account string) ([]domain.EntryRow, error)
}

// costUpdater rewrites one account's costs for a date, preserving its PnL.
type costUpdater interface {
	UpdateAccountCosts(ctx context.Context, date domain.Date, account string, brokerage, taxes float64) error
}

// Service distributes period totals over logged trading days.
type Service struct {
	log     *slog.Logger
	entries entryReader
	costs   costUpdater
}

// NewService creates a new distributor service instance.
func NewService(logger *slog.Logger, entries entryReader, costs costUpdater) *Service {
	return &Service{
		log:     logger.With("service", "distributor"),
		entries: entries,
		costs:   costs,
	}
}

// Report summarizes one distribution run. Skipped counts dates inside the
// range that held a journal entry but none for the target account; Failed
// counts dates whose write errored. A run never aborts on a per-date failure.
type Report struct {
	Updated int
	Skipped int
	Failed  int
}

func (r Report) add(other Report) Report {
	return Report{
		Updated: r.Updated + other.Updated,
		Skipped: r.Skipped + other.Skipped,
		Failed:  r.Failed + other.Failed,
	}
}

// Distribute splits the period totals evenly over every date in [start, end]
// that has at least one journal entry, then writes the per-day share to the
// account on each of those dates. Dates where the account has no entry are
// skipped and keep their share unapplied.
func (s *Service) Distribute(ctx context.Context, account string, start, end domain.Date, totalBrokerage, totalTaxes float64) (Report, error) {
	if account == "" {
		return Report{}, domain.NewValidationError("account", "required")
	}
	if end.Before(start) {
		return Report{}, domain.NewValidationError("end_date", "must not precede start_date")
	}

	rows, err := s.entries.ReadRange(ctx, &start, &end, "")
	if err != nil {
		return Report{}, fmt.Errorf("read entries %s..%s: %w", start, end, err)
	}

	dates := uniqueDates(rows)
	if len(dates) == 0 {
		return Report{}, nil
	}

	days := decimal.NewFromInt(int64(len(dates)))
	dailyBrokerage, _ := decimal.NewFromFloat(totalBrokerage).Div(days).Round(2).Float64()
	dailyTaxes, _ := decimal.NewFromFloat(totalTaxes).Div(days).Round(2).Float64()

	var report Report
	for _, date := range dates {
		err := s.costs.UpdateAccountCosts(ctx, date, account, dailyBrokerage, dailyTaxes)
		switch {
		case err == nil:
			report.Updated++
		case errors.Is(err, domain.ErrNotFound):
			report.Skipped++
		default:
			report.Failed++
			s.log.ErrorContext(ctx, "failed to update costs for date",
				"date", date.String(),
				"account", account,
				"error", err,
			)
		}
	}

	s.log.InfoContext(ctx, "cost distribution finished",
		"account", account,
		"start", start.String(),
		"end", end.String(),
		"daily_brokerage", dailyBrokerage,
		"daily_taxes", dailyTaxes,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// PeriodTotals is one contiguous slice of a statement with its own totals.
type PeriodTotals struct {
	Start     domain.Date
	End       domain.Date
	Brokerage float64
	Taxes     float64
}

// DistributeSplit runs one distribution per period and sums the reports.
// Per-period failures do not stop later periods.
func (s *Service) DistributeSplit(ctx context.Context, account string, periods []PeriodTotals) (Report, error) {
	var report Report
	for _, p := range periods {
		r, err := s.Distribute(ctx, account, p.Start, p.End, p.Brokerage, p.Taxes)
		if err != nil {
			return report, fmt.Errorf("period %s..%s: %w", p.Start, p.End, err)
		}
		report = report.add(r)
	}
	return report, nil
}

// uniqueDates returns the distinct dates of the rows in encounter order.
func uniqueDates(rows []domain.EntryRow) []domain.Date {
	seen := make(map[string]struct{}, len(rows))
	var dates []domain.Date
	for _, row := range rows {
		key := row.Date.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dates = append(dates, row.Date)
	}
	return dates
}

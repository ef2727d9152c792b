package importer

import (
	"context"
	"log/slog"

	"github.com/imishra/tradejournal/internal/domain"
	"github.com/imishra/tradejournal/internal/service/journal"
)

// merger folds one account's figures for a date into the stored record.
type merger interface {
	MergeAccountUpdate(ctx context.Context, date domain.Date, entry domain.AccountEntry, opts journal.MergeOptions) (*domain.DayRecord, error)
}

// Runner drives an import: one merge per parsed day, in order.
type Runner struct {
	log     *slog.Logger
	journal merger
}

// NewRunner creates a new import runner.
func NewRunner(logger *slog.Logger, journal merger) *Runner {
	return &Runner{
		log:     logger.With("service", "importer"),
		journal: journal,
	}
}

// Report summarizes one import run.
type Report struct {
	Imported int
	Failed   int
}

// Run merges every figure into the journal under the given account name.
// Day-level notes, images, and social logs already stored for each date are
// left untouched. A failed day is logged and counted; the run continues.
func (r *Runner) Run(ctx context.Context, account string, figures []DailyFigures) Report {
	var report Report
	for _, fig := range figures {
		entry := domain.AccountEntry{
			AccountName: account,
			PnL:         fig.PnL,
			Brokerage:   fig.Brokerage,
			Taxes:       fig.Taxes,
		}

		if _, err := r.journal.MergeAccountUpdate(ctx, fig.Date, entry, journal.MergeOptions{}); err != nil {
			report.Failed++
			r.log.ErrorContext(ctx, "failed to import day",
				"date", fig.Date.String(),
				"account", account,
				"error", err,
			)
			continue
		}
		report.Imported++
	}

	r.log.InfoContext(ctx, "import finished",
		"account", account,
		"imported", report.Imported,
		"failed", report.Failed,
	)
	return report
}

// Package importer parses broker statement exports into per-day figures and
// folds them into the journal one account at a time.
package importer

import (
	"github.com/imishra/tradejournal/internal/domain"
)

// DailyFigures is one day's imported numbers for a single account.
type DailyFigures struct {
	Date      domain.Date
	PnL       float64
	Brokerage float64
	Taxes     float64
}

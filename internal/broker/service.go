// Package broker fetches live PnL snapshots from the configured trading
// accounts and estimates the day's charges for each.
package broker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/imishra/tradejournal/internal/domain"
)

// accountFetcher is one configured broker account.
type accountFetcher interface {
	AccountName() string
	FetchDailyPnL(ctx context.Context) (domain.AccountEntry, error)
}

// Service aggregates live PnL across every configured account.
type Service struct {
	log      *slog.Logger
	accounts []accountFetcher
}

// NewService creates a broker service over the given clients. Either client
// kind may be absent when its credentials are not configured.
func NewService(logger *slog.Logger, zerodha *ZerodhaClient, groww []*GrowwClient) *Service {
	s := &Service{log: logger.With("service", "broker")}
	if zerodha != nil {
		s.accounts = append(s.accounts, zerodha)
	}
	for _, client := range groww {
		s.accounts = append(s.accounts, client)
	}
	return s
}

// FetchAll queries every configured account in order. Accounts that fail are
// reported as error strings alongside the entries that succeeded, so one
// broken token never hides the other accounts' numbers.
func (s *Service) FetchAll(ctx context.Context) ([]domain.AccountEntry, []string) {
	var entries []domain.AccountEntry
	var errors []string

	for _, account := range s.accounts {
		entry, err := account.FetchDailyPnL(ctx)
		if err != nil {
			s.log.WarnContext(ctx, "live pnl fetch failed",
				"account", account.AccountName(),
				"error", err.Error(),
			)
			errors = append(errors, fmt.Sprintf("%s: %v", account.AccountName(), err))
			continue
		}
		entries = append(entries, entry)
	}

	return entries, errors
}

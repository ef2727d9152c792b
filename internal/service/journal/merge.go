package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/imishra/tradejournal/internal/domain"
)

// MergeOptions carries the day-level overrides of a merge. A nil field means
// "keep whatever the stored record has"; a non-nil field replaces the stored
// value wholesale, so an empty non-nil slice clears it.
type MergeOptions struct {
	Notes      *string
	ImagePath  *string
	Images     []string
	SocialLogs []domain.SocialLog
}

// MergeAccountUpdate folds one account's figures into the record stored for
// the date and commits the result as a full-day replace. Every other account
// already stored for the date is preserved; duplicate names keep the first
// occurrence; the updated account is appended last. A date with no stored
// record starts from an empty one.
//
// The read and the replace run in separate transactions, so two concurrent
// merges for the same date can lose one account's update. Callers that import
// many accounts must serialize per date.
func (s *Service) MergeAccountUpdate(ctx context.Context, date domain.Date, entry domain.AccountEntry, opts MergeOptions) (*domain.DayRecord, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withStorageTimeout(ctx)
	defer cancel()

	current, err := s.store.ReadOne(ctx, date)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("read day %s: %w", date, err)
		}
		current = &domain.DayRecord{Date: date}
	}

	merged := domain.DayRecord{
		Date:       date,
		Accounts:   mergeAccounts(current.Accounts, entry),
		Notes:      current.Notes,
		ImagePath:  current.ImagePath,
		Images:     current.Images,
		SocialLogs: current.SocialLogs,
	}
	if opts.Notes != nil {
		merged.Notes = opts.Notes
	}
	if opts.ImagePath != nil {
		merged.ImagePath = opts.ImagePath
	}
	if opts.Images != nil {
		merged.Images = opts.Images
	}
	if opts.SocialLogs != nil {
		merged.SocialLogs = opts.SocialLogs
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.ReplaceDay(ctx, merged)
	})
	if err != nil {
		return nil, fmt.Errorf("replace day %s: %w", date, err)
	}

	s.log.InfoContext(ctx, "account merged into daily log",
		"date", date.String(),
		"account", entry.AccountName,
		"accounts_total", len(merged.Accounts),
	)
	return &merged, nil
}

// UpdateAccountCosts rewrites one account's brokerage and taxes for a date
// while preserving its stored PnL. The date must already hold an entry for
// the account; otherwise ErrNotFound is returned and nothing is written.
func (s *Service) UpdateAccountCosts(ctx context.Context, date domain.Date, account string, brokerage, taxes float64) error {
	ctx, cancel := withStorageTimeout(ctx)
	defer cancel()

	current, err := s.store.ReadOne(ctx, date)
	if err != nil {
		return fmt.Errorf("read day %s: %w", date, err)
	}

	stored, ok := current.Account(account)
	if !ok {
		return fmt.Errorf("account %q on %s: %w", account, date, domain.ErrNotFound)
	}

	updated := domain.AccountEntry{
		AccountName: account,
		PnL:         stored.PnL,
		Brokerage:   brokerage,
		Taxes:       taxes,
	}

	merged := *current
	merged.Accounts = mergeAccounts(current.Accounts, updated)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.ReplaceDay(ctx, merged)
	})
	if err != nil {
		return fmt.Errorf("replace day %s: %w", date, err)
	}

	s.log.InfoContext(ctx, "account costs updated",
		"date", date.String(),
		"account", account,
		"brokerage", brokerage,
		"taxes", taxes,
	)
	return nil
}

// mergeAccounts keeps every existing entry except ones named like the update
// (first occurrence wins on stored duplicates) and appends the update last.
func mergeAccounts(existing []domain.AccountEntry, updated domain.AccountEntry) []domain.AccountEntry {
	merged := make([]domain.AccountEntry, 0, len(existing)+1)
	seen := map[string]struct{}{updated.AccountName: {}}
	for _, acc := range existing {
		if _, ok := seen[acc.AccountName]; ok {
			continue
		}
		seen[acc.AccountName] = struct{}{}
		merged = append(merged, acc)
	}
	return append(merged, updated)
}

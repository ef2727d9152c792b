package journal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/imishra/tradejournal/internal/domain"
)

// fakeDayStore is an in-memory Day Store keyed by date string. It mirrors
// the storage semantics the service relies on: ReadOne returns ErrNotFound
// for dates without account rows, ReplaceDay swaps the whole record, and
// DeleteDay reports the number of rows removed.
type fakeDayStore struct {
	days map[string]domain.DayRecord

	readOneErr    error
	replaceDayErr error
	replaceCalls  int

	// afterReadOne, when set, runs once after the next ReadOne returns.
	// Tests use it to interleave a competing write between a merge's read
	// and its replace.
	afterReadOne func()
}

func newFakeDayStore() *fakeDayStore {
	return &fakeDayStore{days: make(map[string]domain.DayRecord)}
}

func (f *fakeDayStore) ReadOne(_ context.Context, date domain.Date) (*domain.DayRecord, error) {
	if hook := f.afterReadOne; hook != nil {
		f.afterReadOne = nil
		defer hook()
	}
	if f.readOneErr != nil {
		return nil, f.readOneErr
	}
	rec, ok := f.days[date.String()]
	if !ok {
		return nil, fmt.Errorf("day %s: %w", date, domain.ErrNotFound)
	}
	return &rec, nil
}

func (f *fakeDayStore) ReplaceDay(_ context.Context, rec domain.DayRecord) error {
	f.replaceCalls++
	if f.replaceDayErr != nil {
		return f.replaceDayErr
	}
	f.days[rec.Date.String()] = rec
	return nil
}

func (f *fakeDayStore) DeleteDay(_ context.Context, date domain.Date) (int64, error) {
	rec, ok := f.days[date.String()]
	if !ok {
		return 0, fmt.Errorf("day %s: %w", date, domain.ErrNotFound)
	}
	delete(f.days, date.String())
	return int64(len(rec.Accounts) + len(rec.SocialLogs) + len(rec.Images)), nil
}

func (f *fakeDayStore) ReadRange(_ context.Context, start, end *domain.Date, account string) ([]domain.EntryRow, error) {
	dates := make([]string, 0, len(f.days))
	for d := range f.days {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	var rows []domain.EntryRow
	var id int64
	for _, ds := range dates {
		rec := f.days[ds]
		if start != nil && rec.Date.Before(*start) {
			continue
		}
		if end != nil && rec.Date.After(*end) {
			continue
		}
		for _, acc := range rec.Accounts {
			if account != "" && acc.AccountName != account {
				continue
			}
			id++
			rows = append(rows, domain.EntryRow{
				ID:          id,
				Date:        rec.Date,
				AccountName: acc.AccountName,
				PnL:         acc.PnL,
				Brokerage:   acc.Brokerage,
				Taxes:       acc.Taxes,
				Notes:       rec.Notes,
				ImagePath:   rec.ImagePath,
				SocialLogs:  rec.SocialLogs,
				Images:      rec.Images,
			})
		}
	}
	return rows, nil
}

// passTx runs the function directly, without a real transaction.
type passTx struct{}

func (passTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(store dayStore) *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), store, passTx{})
}

package distributor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishra/tradejournal/internal/domain"
)

type fakeEntries struct {
	rows []domain.EntryRow
	err  error
}

func (f *fakeEntries) ReadRange(_ context.Context, start, end *domain.Date, _ string) ([]domain.EntryRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.EntryRow
	for _, row := range f.rows {
		if start != nil && row.Date.Before(*start) {
			continue
		}
		if end != nil && row.Date.After(*end) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

type costCall struct {
	date      string
	brokerage float64
	taxes     float64
}

type fakeCosts struct {
	hasAccount map[string]bool // date string -> account present
	failDates  map[string]error
	calls      []costCall
}

func (f *fakeCosts) UpdateAccountCosts(_ context.Context, date domain.Date, _ string, brokerage, taxes float64) error {
	if err, ok := f.failDates[date.String()]; ok {
		return err
	}
	if !f.hasAccount[date.String()] {
		return domain.ErrNotFound
	}
	f.calls = append(f.calls, costCall{date: date.String(), brokerage: brokerage, taxes: taxes})
	return nil
}

func newTestService(entries entryReader, costs costUpdater) *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), entries, costs)
}

func entryRowsOn(days ...string) []domain.EntryRow {
	rows := make([]domain.EntryRow, 0, len(days))
	for _, day := range days {
		date, _ := domain.ParseDate(day)
		rows = append(rows, domain.EntryRow{Date: date, AccountName: "KITE"})
	}
	return rows
}

func TestService_Distribute(t *testing.T) {
	t.Parallel()

	entries := &fakeEntries{rows: entryRowsOn("2025-06-02", "2025-06-03", "2025-06-04")}
	costs := &fakeCosts{hasAccount: map[string]bool{
		"2025-06-02": true,
		"2025-06-03": true,
		"2025-06-04": true,
	}}
	svc := newTestService(entries, costs)

	report, err := svc.Distribute(context.Background(), "KITE",
		domain.NewDate(2025, time.June, 1), domain.NewDate(2025, time.June, 30), 100, 33.33)
	require.NoError(t, err)

	assert.Equal(t, Report{Updated: 3}, report)
	require.Len(t, costs.calls, 3)
	for _, call := range costs.calls {
		assert.InDelta(t, 33.33, call.brokerage, 1e-9)
		assert.InDelta(t, 11.11, call.taxes, 1e-9)
	}
}

func TestService_Distribute_SkipsAndFailures(t *testing.T) {
	t.Parallel()

	entries := &fakeEntries{rows: entryRowsOn("2025-06-02", "2025-06-03", "2025-06-04", "2025-06-05")}
	costs := &fakeCosts{
		hasAccount: map[string]bool{
			"2025-06-02": true,
			"2025-06-05": true,
		},
		failDates: map[string]error{"2025-06-05": errors.New("deadlock detected")},
	}
	svc := newTestService(entries, costs)

	report, err := svc.Distribute(context.Background(), "GROWW-ME",
		domain.NewDate(2025, time.June, 1), domain.NewDate(2025, time.June, 30), 80, 8)
	require.NoError(t, err)

	// The run keeps going past both missing entries and write failures.
	assert.Equal(t, Report{Updated: 1, Skipped: 2, Failed: 1}, report)
	// Shares divide by candidate dates, not by updated ones.
	require.Len(t, costs.calls, 1)
	assert.InDelta(t, 20.0, costs.calls[0].brokerage, 1e-9)
}

func TestService_Distribute_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeEntries{}, &fakeCosts{})

	_, err := svc.Distribute(context.Background(), "",
		domain.NewDate(2025, time.June, 1), domain.NewDate(2025, time.June, 2), 1, 1)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Distribute(context.Background(), "KITE",
		domain.NewDate(2025, time.June, 2), domain.NewDate(2025, time.June, 1), 1, 1)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_Distribute_EmptyRange(t *testing.T) {
	t.Parallel()

	costs := &fakeCosts{}
	svc := newTestService(&fakeEntries{}, costs)

	report, err := svc.Distribute(context.Background(), "KITE",
		domain.NewDate(2025, time.June, 1), domain.NewDate(2025, time.June, 30), 500, 50)
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.Empty(t, costs.calls)
}

func TestSplitAt(t *testing.T) {
	t.Parallel()

	start := domain.NewDate(2025, time.May, 1)
	end := domain.NewDate(2025, time.June, 30)
	split := domain.NewDate(2025, time.June, 1)

	periods := SplitAt(start, end, split,
		PeriodTotals{Brokerage: 100, Taxes: 10},
		PeriodTotals{Brokerage: 200, Taxes: 20})
	require.Len(t, periods, 2)

	assert.Equal(t, "2025-05-01", periods[0].Start.String())
	assert.Equal(t, "2025-05-31", periods[0].End.String())
	assert.Equal(t, 100.0, periods[0].Brokerage)

	// The split date is covered by neither period.
	assert.Equal(t, "2025-06-02", periods[1].Start.String())
	assert.Equal(t, "2025-06-30", periods[1].End.String())
	assert.Equal(t, 200.0, periods[1].Brokerage)
}

func TestSplitAt_DropsEmptyPeriods(t *testing.T) {
	t.Parallel()

	start := domain.NewDate(2025, time.June, 1)
	end := domain.NewDate(2025, time.June, 30)

	periods := SplitAt(start, end, start, PeriodTotals{}, PeriodTotals{Brokerage: 50})
	require.Len(t, periods, 1)
	assert.Equal(t, "2025-06-02", periods[0].Start.String())

	periods = SplitAt(start, end, end, PeriodTotals{Brokerage: 50}, PeriodTotals{})
	require.Len(t, periods, 1)
	assert.Equal(t, "2025-06-29", periods[0].End.String())
}

func TestService_DistributeSplit(t *testing.T) {
	t.Parallel()

	entries := &fakeEntries{rows: entryRowsOn("2025-05-15", "2025-06-10")}
	costs := &fakeCosts{hasAccount: map[string]bool{
		"2025-05-15": true,
		"2025-06-10": true,
	}}
	svc := newTestService(entries, costs)

	periods := SplitAt(
		domain.NewDate(2025, time.May, 1),
		domain.NewDate(2025, time.June, 30),
		domain.NewDate(2025, time.June, 1),
		PeriodTotals{Brokerage: 100, Taxes: 10},
		PeriodTotals{Brokerage: 40, Taxes: 4})

	report, err := svc.DistributeSplit(context.Background(), "KITE", periods)
	require.NoError(t, err)
	assert.Equal(t, Report{Updated: 2}, report)

	require.Len(t, costs.calls, 2)
	assert.Equal(t, costCall{date: "2025-05-15", brokerage: 100, taxes: 10}, costs.calls[0])
	assert.Equal(t, costCall{date: "2025-06-10", brokerage: 40, taxes: 4}, costs.calls[1])
}

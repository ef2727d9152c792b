package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishra/tradejournal/internal/domain"
)

func TestService_SaveDailyLog(t *testing.T) {
	t.Parallel()

	store := newFakeDayStore()
	date := domain.NewDate(2025, time.May, 5)
	store.days[date.String()] = domain.DayRecord{
		Date:     date,
		Accounts: []domain.AccountEntry{{AccountName: "OLD", PnL: 1}},
		Notes:    strPtr("stale"),
	}
	svc := newTestService(store)

	err := svc.SaveDailyLog(context.Background(), DailyLogInput{
		Date: "2025-05-05",
		Accounts: []AccountInput{
			{AccountName: "KITE", PnL: 700, Brokerage: 40, Taxes: 8},
			{AccountName: "GROWW-ME", PnL: -120},
		},
		Notes:      strPtr("trend day"),
		Images:     []string{"uploads/chart.png"},
		SocialLogs: []SocialLogInput{{Handle: "@fttrader", PnL: 12000}},
	})
	require.NoError(t, err)

	// Submitting a day replaces everything previously stored for it.
	stored, err := store.ReadOne(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, stored.Accounts, 2)
	_, ok := stored.Account("OLD")
	assert.False(t, ok)
	assert.Equal(t, "trend day", *stored.Notes)
	assert.Equal(t, []string{"uploads/chart.png"}, stored.Images)
	require.Len(t, stored.SocialLogs, 1)
	assert.Equal(t, "@fttrader", stored.SocialLogs[0].Handle)
}

func TestService_SaveDailyLog_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeDayStore())

	tests := []struct {
		name  string
		input DailyLogInput
	}{
		{
			name:  "bad date",
			input: DailyLogInput{Date: "05-05-2025", Accounts: []AccountInput{{AccountName: "KITE"}}},
		},
		{
			name:  "no accounts",
			input: DailyLogInput{Date: "2025-05-05"},
		},
		{
			name: "nameless account",
			input: DailyLogInput{
				Date:     "2025-05-05",
				Accounts: []AccountInput{{PnL: 100}},
			},
		},
		{
			name: "negative brokerage",
			input: DailyLogInput{
				Date:     "2025-05-05",
				Accounts: []AccountInput{{AccountName: "KITE", Brokerage: -5}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := svc.SaveDailyLog(context.Background(), tt.input)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestService_GetDailyLog(t *testing.T) {
	t.Parallel()

	store := newFakeDayStore()
	date := domain.NewDate(2025, time.May, 6)
	store.days[date.String()] = domain.DayRecord{
		Date:     date,
		Accounts: []domain.AccountEntry{{AccountName: "KITE", PnL: 300}},
	}
	svc := newTestService(store)

	rec, err := svc.GetDailyLog(context.Background(), "2025-05-06")
	require.NoError(t, err)
	assert.Equal(t, date, rec.Date)

	_, err = svc.GetDailyLog(context.Background(), "2025-05-07")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetDailyLog(context.Background(), "not-a-date")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_DeleteDailyLog(t *testing.T) {
	t.Parallel()

	store := newFakeDayStore()
	date := domain.NewDate(2025, time.May, 8)
	store.days[date.String()] = domain.DayRecord{
		Date:     date,
		Accounts: []domain.AccountEntry{{AccountName: "KITE", PnL: 300}},
	}
	svc := newTestService(store)

	require.NoError(t, svc.DeleteDailyLog(context.Background(), "2025-05-08"))

	_, err := store.ReadOne(context.Background(), date)
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.DeleteDailyLog(context.Background(), "2025-05-08")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_ListEntries(t *testing.T) {
	t.Parallel()

	store := newFakeDayStore()
	for day, accounts := range map[string][]domain.AccountEntry{
		"2025-05-01": {{AccountName: "KITE", PnL: 100}},
		"2025-05-02": {{AccountName: "KITE", PnL: 200}, {AccountName: "GROWW-ME", PnL: -50}},
		"2025-05-03": {{AccountName: "GROWW-ME", PnL: 75}},
	} {
		date, err := domain.ParseDate(day)
		require.NoError(t, err)
		store.days[day] = domain.DayRecord{Date: date, Accounts: accounts}
	}
	svc := newTestService(store)

	rows, err := svc.ListEntries(context.Background(), ListEntriesInput{})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "2025-05-03", rows[0].Date.String())

	rows, err = svc.ListEntries(context.Background(), ListEntriesInput{
		StartDate: "2025-05-02",
		EndDate:   "2025-05-02",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = svc.ListEntries(context.Background(), ListEntriesInput{Account: "GROWW-ME"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	_, err = svc.ListEntries(context.Background(), ListEntriesInput{StartDate: "yesterday"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_Stats(t *testing.T) {
	t.Parallel()

	store := newFakeDayStore()
	for day, accounts := range map[string][]domain.AccountEntry{
		"2025-05-01": {{AccountName: "KITE", PnL: 500}},
		"2025-05-02": {{AccountName: "KITE", PnL: 300}, {AccountName: "GROWW-ME", PnL: -400}},
		"2025-05-03": {{AccountName: "GROWW-ME", PnL: 150}},
	} {
		date, err := domain.ParseDate(day)
		require.NoError(t, err)
		store.days[day] = domain.DayRecord{Date: date, Accounts: accounts}
	}
	svc := newTestService(store)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 550.0, stats.TotalPnL, 1e-9)
	assert.Equal(t, 3, stats.TotalDaysLogged)
	// Day two nets -100, so two of three days are wins.
	assert.InDelta(t, 66.666, stats.WinRate, 0.01)
	assert.InDelta(t, 800.0, stats.AccountBreakdown["KITE"], 1e-9)
	assert.InDelta(t, -250.0, stats.AccountBreakdown["GROWW-ME"], 1e-9)
}

func TestService_Stats_Empty(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeDayStore())

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalPnL)
	assert.Zero(t, stats.WinRate)
	assert.Zero(t, stats.TotalDaysLogged)
}

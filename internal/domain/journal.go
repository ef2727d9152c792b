package domain

import "time"

// AccountEntry is one broker account's figures for a single date.
// PnL is signed; brokerage and taxes are non-negative.
type AccountEntry struct {
	AccountName string
	PnL         float64
	Brokerage   float64
	Taxes       float64
}

// Validate checks the entry's invariants.
func (e AccountEntry) Validate() error {
	var errs []FieldError

	if e.AccountName == "" {
		errs = append(errs, FieldError{Field: "account_name", Message: "required"})
	}
	if e.Brokerage < 0 {
		errs = append(errs, FieldError{Field: "brokerage", Message: "must be non-negative"})
	}
	if e.Taxes < 0 {
		errs = append(errs, FieldError{Field: "taxes", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// SocialLog is one social-media PnL mention for a date.
type SocialLog struct {
	Handle string
	PnL    float64
}

// DayRecord is the full set of data associated with one calendar date:
// per-account figures plus the day-level notes, image attachments, and
// social logs shared across all accounts of that date.
type DayRecord struct {
	Date       Date
	Accounts   []AccountEntry
	Notes      *string
	ImagePath  *string // legacy single-image field, kept for old clients
	Images     []string
	SocialLogs []SocialLog
}

// IsEmpty reports whether the record carries no account rows. A day with an
// empty account set is never persisted as a distinct entity.
func (r DayRecord) IsEmpty() bool { return len(r.Accounts) == 0 }

// Account returns the entry with the given account name, if present.
func (r DayRecord) Account(name string) (AccountEntry, bool) {
	for _, a := range r.Accounts {
		if a.AccountName == name {
			return a, true
		}
	}
	return AccountEntry{}, false
}

// EntryRow is one stored account row together with the day-level data
// resolved for its date, as returned by range reads.
type EntryRow struct {
	ID          int64
	Date        Date
	AccountName string
	PnL         float64
	Brokerage   float64
	Taxes       float64
	Notes       *string
	ImagePath   *string
	CreatedAt   time.Time
	SocialLogs  []SocialLog
	Images      []string
}

// Stats is the aggregate view over all journal entries. WinRate counts a day
// as won when the combined PnL across accounts is positive.
type Stats struct {
	TotalPnL         float64
	WinRate          float64
	TotalDaysLogged  int
	AccountBreakdown map[string]float64
}

package journal

import (
	"errors"

	"github.com/imishra/tradejournal/internal/domain"
)

// AccountInput is one account's figures in a daily-log submission.
type AccountInput struct {
	AccountName string  `json:"account_name"`
	PnL         float64 `json:"pnl"`
	Brokerage   float64 `json:"brokerage"`
	Taxes       float64 `json:"taxes"`
}

// SocialLogInput is one social-media PnL mention in a daily-log submission.
type SocialLogInput struct {
	Handle string  `json:"twitter_handle"`
	PnL    float64 `json:"pnl"`
}

// DailyLogInput is a full-day submission. It replaces everything stored for
// the date with exactly what it carries.
type DailyLogInput struct {
	Date       string           `json:"date"`
	Accounts   []AccountInput   `json:"accounts"`
	Notes      *string          `json:"notes"`
	ImagePath  *string          `json:"image_path"`
	Images     []string         `json:"image_paths"`
	SocialLogs []SocialLogInput `json:"twitter_logs"`
}

// Validate checks the input and converts it into a domain record.
func (in DailyLogInput) Validate() (domain.DayRecord, error) {
	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return domain.DayRecord{}, err
	}

	var errs []domain.FieldError
	if len(in.Accounts) == 0 {
		errs = append(errs, domain.FieldError{Field: "accounts", Message: "at least one account is required"})
	}
	for _, acc := range in.Accounts {
		entry := domain.AccountEntry(acc)
		if vErr := entry.Validate(); vErr != nil {
			var ve *domain.ValidationError
			if errors.As(vErr, &ve) {
				errs = append(errs, ve.Errors...)
			}
		}
	}
	if len(errs) > 0 {
		return domain.DayRecord{}, &domain.ValidationError{Errors: errs}
	}

	rec := domain.DayRecord{
		Date:      date,
		Accounts:  make([]domain.AccountEntry, 0, len(in.Accounts)),
		Notes:     in.Notes,
		ImagePath: in.ImagePath,
		Images:    in.Images,
	}
	for _, acc := range in.Accounts {
		rec.Accounts = append(rec.Accounts, domain.AccountEntry(acc))
	}
	for _, sl := range in.SocialLogs {
		rec.SocialLogs = append(rec.SocialLogs, domain.SocialLog(sl))
	}
	return rec, nil
}

// ListEntriesInput carries the optional filters of a range read. Empty
// strings mean "no filter".
type ListEntriesInput struct {
	StartDate string
	EndDate   string
	Account   string
}

func (in ListEntriesInput) parse() (start, end *domain.Date, err error) {
	if in.StartDate != "" {
		d, err := domain.ParseDate(in.StartDate)
		if err != nil {
			return nil, nil, err
		}
		start = &d
	}
	if in.EndDate != "" {
		d, err := domain.ParseDate(in.EndDate)
		if err != nil {
			return nil, nil, err
		}
		end = &d
	}
	return start, end, nil
}

// Package journal implements the reconciliation protocol for daily logs:
// merging one account's newly observed figures into a date's existing
// record and committing the result as an atomic full-day replace.
package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/imishra/tradejournal/internal/domain"
)

// storageTimeout bounds every Day Store call so a wedged connection
// surfaces as an error instead of hanging the caller.
const storageTimeout = 10 * time.Second

// dayStore defines the Day Store interface needed by the journal service.
type dayStore interface {
	ReadRange(ctx context.Context, start, end *domain.Date, account string) ([]domain.EntryRow, error)
	ReadOne(ctx context.Context, date domain.Date) (*domain.DayRecord, error)
	ReplaceDay(ctx context.Context, rec domain.DayRecord) error
	DeleteDay(ctx context.Context, date domain.Date) (int64, error)
}

// txManager defines the transaction manager interface needed by the journal service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements daily-log reads, writes, and the account merge protocol.
type Service struct {
	log   *slog.Logger
	store dayStore
	tx    txManager
}

// NewService creates a new journal service instance.
func NewService(logger *slog.Logger, store dayStore, tx txManager) *Service {
	return &Service{
		log:   logger.With("service", "journal"),
		store: store,
		tx:    tx,
	}
}

func withStorageTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storageTimeout)
}

// Command journalctl is the operator CLI for the trading journal. It imports
// broker exports (Zerodha JSON, Groww heatmap JSON, Groww trade CSV) into the
// journal and distributes statement-level brokerage and taxes across logged
// trading days.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/imishra/tradejournal/internal/adapter/postgres"
	"github.com/imishra/tradejournal/internal/adapter/postgres/daystore"
	"github.com/imishra/tradejournal/internal/app"
	"github.com/imishra/tradejournal/internal/config"
	"github.com/imishra/tradejournal/internal/domain"
	"github.com/imishra/tradejournal/internal/importer"
	"github.com/imishra/tradejournal/internal/service/distributor"
	"github.com/imishra/tradejournal/internal/service/journal"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env carries the shared dependencies built once per invocation.
type env struct {
	log     *slog.Logger
	pool    *pgxpool.Pool
	days    *daystore.Repo
	journal *journal.Service
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "journalctl",
		Short:         "Trading journal import and maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.log = app.NewLogger(cfg.Log)

			pool, err := postgres.NewPool(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			e.pool = pool

			e.days = daystore.New(pool)
			e.journal = journal.NewService(e.log, e.days, postgres.NewTxManager(pool))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.pool != nil {
				e.pool.Close()
			}
		},
	}

	root.AddCommand(
		newImportZerodhaCmd(e),
		newImportGrowwCmd(e),
		newImportGrowwCSVCmd(e),
		newDistributeCostsCmd(e),
	)

	return root
}

func newImportZerodhaCmd(e *env) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "import-zerodha <file>",
		Short: "Import daily PnL figures from a Zerodha console JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			figures, err := importer.ParseZerodha(raw)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), e, account, figures)
		},
	}

	cmd.Flags().StringVar(&account, "account", "KITE", "journal account name to import into")
	return cmd
}

func newImportGrowwCmd(e *env) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "import-groww <file>",
		Short: "Import daily PnL figures from a Groww realised-PnL heatmap JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			figures, err := importer.ParseGrowwHeatmap(raw)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), e, account, figures)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "journal account name to import into")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newImportGrowwCSVCmd(e *env) *cobra.Command {
	var (
		account   string
		brokerage float64
		taxes     float64
	)

	cmd := &cobra.Command{
		Use:   "import-groww-csv <file>",
		Short: "Import daily PnL from a Groww trade CSV, apportioning statement totals",
		Long: `Parses a Groww trade-level CSV and aggregates it into daily PnL figures.
The statement totals given via --brokerage and --taxes are apportioned per
day: brokerage by trade count, taxes by turnover.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			figures, err := importer.ParseGrowwCSV(f, brokerage, taxes)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), e, account, figures)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "journal account name to import into")
	cmd.Flags().Float64Var(&brokerage, "brokerage", 0, "statement-total brokerage to apportion")
	cmd.Flags().Float64Var(&taxes, "taxes", 0, "statement-total taxes to apportion")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newDistributeCostsCmd(e *env) *cobra.Command {
	var (
		account    string
		startStr   string
		endStr     string
		brokerage  float64
		taxes      float64
		splitStr   string
		brokerage2 float64
		taxes2     float64
	)

	cmd := &cobra.Command{
		Use:   "distribute-costs",
		Short: "Spread period-total brokerage and taxes evenly over logged trading days",
		Long: `Divides the given totals equally across every date in [start, end] that has
at least one journal entry, rewriting the account's stored costs while
preserving its PnL.

With --split, the range is cut into two periods around the split date (the
split date itself is left untouched): --brokerage/--taxes apply before the
split, --brokerage-after/--taxes-after apply after it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := domain.ParseDate(startStr)
			if err != nil {
				return err
			}
			end, err := domain.ParseDate(endStr)
			if err != nil {
				return err
			}

			svc := distributor.NewService(e.log, e.days, e.journal)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			var report distributor.Report
			if splitStr != "" {
				split, err := domain.ParseDate(splitStr)
				if err != nil {
					return err
				}
				periods := distributor.SplitAt(start, end, split,
					distributor.PeriodTotals{Brokerage: brokerage, Taxes: taxes},
					distributor.PeriodTotals{Brokerage: brokerage2, Taxes: taxes2},
				)
				report, err = svc.DistributeSplit(ctx, account, periods)
				if err != nil {
					return err
				}
			} else {
				report, err = svc.Distribute(ctx, account, start, end, brokerage, taxes)
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "updated %d, skipped %d, failed %d\n",
				report.Updated, report.Skipped, report.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "journal account name")
	cmd.Flags().StringVar(&startStr, "start", "", "range start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endStr, "end", "", "range end date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&brokerage, "brokerage", 0, "total brokerage for the period (or before the split)")
	cmd.Flags().Float64Var(&taxes, "taxes", 0, "total taxes for the period (or before the split)")
	cmd.Flags().StringVar(&splitStr, "split", "", "optional split date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&brokerage2, "brokerage-after", 0, "total brokerage after the split date")
	cmd.Flags().Float64Var(&taxes2, "taxes-after", 0, "total taxes after the split date")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// runImport merges parsed figures into the journal one day at a time.
func runImport(ctx context.Context, e *env, account string, figures []importer.DailyFigures) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	runner := importer.NewRunner(e.log, e.journal)
	report := runner.Run(ctx, account, figures)

	fmt.Printf("imported %d days, failed %d\n", report.Imported, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d days failed to import", report.Failed)
	}
	return nil
}

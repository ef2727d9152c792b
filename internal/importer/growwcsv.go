package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imishra/tradejournal/internal/domain"
)

// growwCSVDateLayout matches sell dates like "05 Sep 2025".
const growwCSVDateLayout = "02 Jan 2006"

// csvHeaderCells mark rows of the trade-level export that carry no trade.
var csvHeaderCells = map[string]struct{}{
	"Scrip Name":    {},
	"Total":         {},
	"Summary":       {},
	"Realised P&L":  {},
	"Charges":       {},
	"Futures":       {},
	"Options":       {},
}

type csvDay struct {
	pnl      decimal.Decimal
	turnover decimal.Decimal
	trades   int64
}

// ParseGrowwCSV aggregates a Groww trade-level CSV into per-day figures.
// Each trade is attributed to its sell date. The statement totals are spread
// over the days proportionally: brokerage by trade count, taxes by turnover
// (buy value plus sell value). Rows that are headers, short, or carry
// unparseable numbers or dates are skipped. Output is ordered by date.
func ParseGrowwCSV(r io.Reader, totalBrokerage, totalTaxes float64) ([]DailyFigures, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	days := make(map[string]*csvDay)
	var totalTrades int64
	totalTurnover := decimal.Zero

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(row) < 9 {
			continue
		}
		if _, ok := csvHeaderCells[row[0]]; ok {
			continue
		}

		buyValue, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			continue
		}
		sellValue, err := strconv.ParseFloat(row[7], 64)
		if err != nil {
			continue
		}
		pnl, err := strconv.ParseFloat(row[8], 64)
		if err != nil {
			continue
		}
		sellDate, err := time.Parse(growwCSVDateLayout, row[5])
		if err != nil {
			continue
		}

		key := domain.DateOf(sellDate).String()
		day, ok := days[key]
		if !ok {
			day = &csvDay{}
			days[key] = day
		}

		turnover := decimal.NewFromFloat(buyValue).Add(decimal.NewFromFloat(sellValue))
		day.pnl = day.pnl.Add(decimal.NewFromFloat(pnl))
		day.turnover = day.turnover.Add(turnover)
		day.trades++

		totalTrades++
		totalTurnover = totalTurnover.Add(turnover)
	}

	keys := make([]string, 0, len(days))
	for key := range days {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	brokerageTotal := decimal.NewFromFloat(totalBrokerage)
	taxesTotal := decimal.NewFromFloat(totalTaxes)

	figures := make([]DailyFigures, 0, len(keys))
	for _, key := range keys {
		day := days[key]
		date, err := domain.ParseDate(key)
		if err != nil {
			continue
		}

		var brokerage, taxes decimal.Decimal
		if totalTrades > 0 {
			brokerage = decimal.NewFromInt(day.trades).
				Div(decimal.NewFromInt(totalTrades)).
				Mul(brokerageTotal)
		}
		if totalTurnover.IsPositive() {
			taxes = day.turnover.Div(totalTurnover).Mul(taxesTotal)
		}

		pnl, _ := day.pnl.Round(2).Float64()
		brokerageF, _ := brokerage.Round(2).Float64()
		taxesF, _ := taxes.Round(2).Float64()

		figures = append(figures, DailyFigures{
			Date:      date,
			PnL:       pnl,
			Brokerage: brokerageF,
			Taxes:     taxesF,
		})
	}
	return figures, nil
}

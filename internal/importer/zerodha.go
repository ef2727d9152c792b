package importer

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/imishra/tradejournal/internal/domain"
)

// zerodhaRow is one entry of the console export's list format. Realized is a
// pointer so its absence falls back to the pnl field.
type zerodhaRow struct {
	Date         string   `json:"date"`
	Realized     *float64 `json:"realized"`
	PnL          float64  `json:"pnl"`
	Charges      float64  `json:"charges"`
	OtherCharges float64  `json:"other_charges"`
	Taxes        float64  `json:"taxes"`
}

type zerodhaEnvelope struct {
	Data struct {
		Result json.RawMessage `json:"result"`
	} `json:"data"`
}

// ParseZerodha decodes a Zerodha console PnL export. Three layouts occur in
// the wild and all are accepted:
//
//   - data.result as a segment dictionary, e.g. {"FO": {"2024-09-24": 150.5}}.
//     Per-day charges are not present in this layout and come out as zero.
//   - data.result as a list of rows with realized/pnl and charge fields.
//   - a bare top-level list of the same rows.
//
// Segment-dictionary output is ordered by segment then date, so when two
// segments carry the same date the later segment's figures win at merge time.
// Rows without a parseable date are dropped.
func ParseZerodha(raw []byte) ([]DailyFigures, error) {
	var envelope zerodhaEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data.Result) > 0 {
		if figures, ok := parseZerodhaSegments(envelope.Data.Result); ok {
			return figures, nil
		}

		var rows []zerodhaRow
		if err := json.Unmarshal(envelope.Data.Result, &rows); err == nil {
			return zerodhaRowsToFigures(rows), nil
		}
	}

	var rows []zerodhaRow
	if err := json.Unmarshal(raw, &rows); err == nil {
		return zerodhaRowsToFigures(rows), nil
	}

	return nil, fmt.Errorf("unrecognized zerodha export layout")
}

// parseZerodhaSegments handles the segment-dictionary layout. It reports
// false when result is not a dictionary or no value in it is one.
func parseZerodhaSegments(result json.RawMessage) ([]DailyFigures, bool) {
	var segments map[string]json.RawMessage
	if err := json.Unmarshal(result, &segments); err != nil {
		return nil, false
	}

	names := make([]string, 0, len(segments))
	for name := range segments {
		names = append(names, name)
	}
	sort.Strings(names)

	var figures []DailyFigures
	sawSegment := false
	for _, name := range names {
		var dates map[string]float64
		if err := json.Unmarshal(segments[name], &dates); err != nil {
			continue
		}
		sawSegment = true

		days := make([]string, 0, len(dates))
		for day := range dates {
			days = append(days, day)
		}
		sort.Strings(days)

		for _, day := range days {
			date, err := domain.ParseDate(day)
			if err != nil {
				continue
			}
			figures = append(figures, DailyFigures{Date: date, PnL: dates[day]})
		}
	}

	return figures, sawSegment
}

func zerodhaRowsToFigures(rows []zerodhaRow) []DailyFigures {
	var figures []DailyFigures
	for _, row := range rows {
		if row.Date == "" {
			continue
		}
		date, err := domain.ParseDate(row.Date)
		if err != nil {
			continue
		}

		pnl := row.PnL
		if row.Realized != nil {
			pnl = *row.Realized
		}

		figures = append(figures, DailyFigures{
			Date:      date,
			PnL:       pnl,
			Brokerage: row.Charges + row.OtherCharges + row.Taxes,
		})
	}
	return figures
}

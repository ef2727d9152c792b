package importer

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/imishra/tradejournal/internal/domain"
)

// growwDay is one heatmap cell. The export's "charges" field holds the
// statutory levies, which the journal tracks as taxes.
type growwDay struct {
	GrossPnL  float64 `json:"grossPnl"`
	Brokerage float64 `json:"brokerage"`
	Charges   float64 `json:"charges"`
}

// ParseGrowwHeatmap decodes a Groww realised-PnL heatmap export. The heatmap
// lives at success.response.dailyRealisedPnLHeatmap, but exports trimmed to
// response.* or to the bare heatmap object are accepted too. Output is
// ordered by date.
func ParseGrowwHeatmap(raw []byte) ([]DailyFigures, error) {
	heatmap, err := locateHeatmap(raw)
	if err != nil {
		return nil, err
	}

	days := make([]string, 0, len(heatmap))
	for day := range heatmap {
		days = append(days, day)
	}
	sort.Strings(days)

	figures := make([]DailyFigures, 0, len(days))
	for _, day := range days {
		date, err := domain.ParseDate(day)
		if err != nil {
			continue
		}
		cell := heatmap[day]
		figures = append(figures, DailyFigures{
			Date:      date,
			PnL:       cell.GrossPnL,
			Brokerage: cell.Brokerage,
			Taxes:     cell.Charges,
		})
	}
	return figures, nil
}

func locateHeatmap(raw []byte) (map[string]growwDay, error) {
	var full struct {
		Success struct {
			Response struct {
				Heatmap map[string]growwDay `json:"dailyRealisedPnLHeatmap"`
			} `json:"response"`
		} `json:"success"`
		Response struct {
			Heatmap map[string]growwDay `json:"dailyRealisedPnLHeatmap"`
		} `json:"response"`
		Heatmap map[string]growwDay `json:"dailyRealisedPnLHeatmap"`
	}
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, fmt.Errorf("decode groww export: %w", err)
	}

	switch {
	case len(full.Success.Response.Heatmap) > 0:
		return full.Success.Response.Heatmap, nil
	case len(full.Response.Heatmap) > 0:
		return full.Response.Heatmap, nil
	case len(full.Heatmap) > 0:
		return full.Heatmap, nil
	}
	return nil, fmt.Errorf("dailyRealisedPnLHeatmap not found in export")
}

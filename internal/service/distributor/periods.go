package distributor

import (
	"github.com/imishra/tradejournal/internal/domain"
)

// SplitAt cuts [start, end] into the stretch before the split date and the
// stretch after it. The split date itself belongs to neither period, so a
// journal entry logged on it keeps whatever costs it already carries.
// Periods that would be empty are dropped.
func SplitAt(start, end, split domain.Date, before, after PeriodTotals) []PeriodTotals {
	var periods []PeriodTotals

	firstEnd := split.AddDays(-1)
	if !firstEnd.Before(start) {
		before.Start = start
		before.End = firstEnd
		periods = append(periods, before)
	}

	secondStart := split.AddDays(1)
	if !end.Before(secondStart) {
		after.Start = secondStart
		after.End = end
		periods = append(periods, after)
	}

	return periods
}

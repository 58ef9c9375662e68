package provider

import (
	"sort"
	"time"

	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
)

// calendarDate truncates t to midnight UTC of its UTC calendar day.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FilterAndSort keeps the bars whose calendar date lies in [start, end] and
// returns them sorted by ascending time. The input slice is not modified.
func FilterAndSort(bars []types.PriceBar, start time.Time, end time.Time) []types.PriceBar {
	from := calendarDate(start)
	to := calendarDate(end)

	filtered := make([]types.PriceBar, 0, len(bars))

	for _, bar := range bars {
		date := calendarDate(bar.Time)
		if date.Before(from) || date.After(to) {
			continue
		}

		filtered = append(filtered, bar)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Time.Before(filtered[j].Time)
	})

	return filtered
}

func validateRange(start time.Time, end time.Time) error {
	if calendarDate(end).Before(calendarDate(start)) {
		return errors.Newf(errors.ErrCodeInvalidDate, "end date %s is before start date %s",
			end.Format(types.DateLayout), start.Format(types.DateLayout))
	}

	return nil
}

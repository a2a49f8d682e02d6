// Package usage turns the sparse daily samples returned by the gateway
// into a dense, chart-ready series.
package usage

import "time"

const dateLayout = "2006-01-02"

// Sample is one day's token consumption as reported by the backend.
// The backend only returns days with activity; gaps are normal.
type Sample struct {
	Date           string `json:"date"`
	PromptTokens   int    `json:"promptTokens"`
	ResponseTokens int    `json:"responseTokens"`
}

// Reconcile walks every calendar day in [start, end] inclusive and emits
// one entry per day: the matching sample's counts when present, zeros
// otherwise. Output is chronological and contains no days outside the
// range. When the backend returns duplicate dates the first one wins.
//
// Days are stepped with AddDate rather than 24h offsets so the walk stays
// aligned across daylight-saving transitions.
func Reconcile(start, end time.Time, samples []Sample) []Sample {
	startDay := truncateToDay(start)
	endDay := truncateToDay(end)
	if endDay.Before(startDay) {
		return []Sample{}
	}

	byDate := make(map[string]Sample, len(samples))
	for _, s := range samples {
		if _, ok := byDate[s.Date]; !ok {
			byDate[s.Date] = s
		}
	}

	days := int(endDay.Sub(startDay).Hours()/24) + 1
	series := make([]Sample, 0, days)
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		if s, ok := byDate[key]; ok {
			series = append(series, Sample{
				Date:           key,
				PromptTokens:   s.PromptTokens,
				ResponseTokens: s.ResponseTokens,
			})
			continue
		}
		series = append(series, Sample{Date: key})
	}
	return series
}

// DefaultRange is the dashboard's trailing 7-day window: end is the
// caller-local today, start is six days earlier.
func DefaultRange(now time.Time) (start, end time.Time) {
	end = truncateToDay(now)
	start = end.AddDate(0, 0, -6)
	return start, end
}

// FormatDate renders a time as the wire-format calendar day.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

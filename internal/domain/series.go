package domain

import (
	"sort"
	"time"
)

// Reading is a single timestamped rainfall observation from one measure.
// Ephemeral: produced by the reading source, consumed by AggregateDaily.
type Reading struct {
	DateTime time.Time // UTC, second precision
	Value    float64   // millimetres over the reading interval
}

// DailyRecord is the persisted unit of truth: total rainfall for one UTC
// calendar date. Date always carries a zero time component.
type DailyRecord struct {
	Date       time.Time
	RainfallMM float64
}

// Series is a set of DailyRecords sorted ascending by date, each date
// appearing exactly once. Gaps between dates are allowed.
type Series []DailyRecord

// Dates returns the series' dates in order.
func (s Series) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for i, rec := range s {
		dates[i] = rec.Date
	}
	return dates
}

// Truncate reduces a timestamp to its UTC calendar date.
func Truncate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AggregateDaily reduces raw readings to one DailyRecord per UTC calendar
// date, summing values within each day. Readings are summed in time-ascending
// order so repeated runs over the same data produce bit-identical totals.
// Empty input yields an empty Series.
func AggregateDaily(readings []Reading) Series {
	if len(readings) == 0 {
		return Series{}
	}

	ordered := make([]Reading, len(readings))
	copy(ordered, readings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DateTime.Before(ordered[j].DateTime)
	})

	totals := make(map[time.Time]float64)
	for _, r := range ordered {
		totals[Truncate(r.DateTime)] += r.Value
	}

	series := make(Series, 0, len(totals))
	for date, total := range totals {
		series = append(series, DailyRecord{Date: date, RainfallMM: total})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}

// Merge upserts incoming into existing, keyed by date. Incoming records win
// on date collision; records present in only one input are kept. The result
// is sorted ascending by date with each date appearing exactly once, so
// merging the same batch twice is a no-op.
func Merge(existing, incoming Series) Series {
	if len(existing) == 0 {
		return incoming
	}
	if len(incoming) == 0 {
		return existing
	}

	byDate := make(map[time.Time]DailyRecord, len(existing)+len(incoming))
	for _, rec := range existing {
		byDate[rec.Date] = rec
	}
	for _, rec := range incoming {
		byDate[rec.Date] = rec
	}

	merged := make(Series, 0, len(byDate))
	for _, rec := range byDate {
		merged = append(merged, rec)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}

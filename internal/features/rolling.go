// Package features derives rolling-window rainfall features from the
// canonical daily series. It is downstream of the fetch pipeline and only
// ever reads the series.
package features

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/CDonnerer/vp-track-status/internal/domain"
)

// Windows are the trailing row-count windows the track-condition model was
// trained on.
var Windows = []int{1, 2, 3, 5, 7}

// Row is one series record with its trailing rainfall sums attached.
// Sums[n] is the total over the last n records up to and including this one;
// fewer records than n simply sum what exists. Windows count records, not
// calendar days: gaps in the series stay absent rather than padding as zero.
type Row struct {
	Date       time.Time
	RainfallMM float64
	Sums       map[int]float64
}

// Rolling computes trailing sums over the date-sorted series for each of the
// given window sizes.
func Rolling(series domain.Series, windows []int) []Row {
	rows := make([]Row, len(series))
	for i, rec := range series {
		sums := make(map[int]float64, len(windows))
		for _, n := range windows {
			start := i - n + 1
			if start < 0 {
				start = 0
			}
			var total float64
			for j := start; j <= i; j++ {
				total += series[j].RainfallMM
			}
			sums[n] = total
		}
		rows[i] = Row{Date: rec.Date, RainfallMM: rec.RainfallMM, Sums: sums}
	}
	return rows
}

// WriteCSV emits the feature table with one rain_<n>d column per window, in
// window order, e.g. date,rainfall_mm,rain_1d,rain_2d,rain_3d,rain_5d,rain_7d.
func WriteCSV(w io.Writer, rows []Row, windows []int) error {
	cw := csv.NewWriter(w)

	header := []string{"date", "rainfall_mm"}
	for _, n := range windows {
		header = append(header, "rain_"+strconv.Itoa(n)+"d")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.Date.Format(time.DateOnly),
			formatMM(row.RainfallMM),
		}
		for _, n := range windows {
			record = append(record, formatMM(row.Sums[n]))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

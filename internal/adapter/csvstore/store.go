// Package csvstore persists the canonical daily rainfall series as a CSV
// file with header date,rainfall_mm.
package csvstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/CDonnerer/vp-track-status/internal/domain"
)

const (
	colDate     = "date"
	colRainfall = "rainfall_mm"
)

// Store reads and writes one series file. The file is the only durable state
// in the system; concurrent writers are not coordinated and the last save
// wins.
type Store struct {
	path string
}

// New creates a store for the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the series file.
func (s *Store) Path() string { return s.path }

// Load reads the stored series. A missing file yields an empty series, not
// an error. Columns beyond date and rainfall_mm (derived features persisted
// by older versions) are discarded; only the canonical two round-trip.
func (s *Store) Load() (domain.Series, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Series{}, nil
		}
		return nil, &domain.StorageError{Op: "load", Path: s.path, Err: err}
	}
	defer f.Close()

	series, err := readSeries(f)
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Path: s.path, Err: err}
	}
	return series, nil
}

// Save writes the full series ascending by date, replacing any prior state.
// The write goes to a temp file in the target directory which is then
// renamed over the destination, so a crash mid-write never leaves a torn
// file behind. Missing parent directories are created.
func (s *Store) Save(series domain.Series) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.StorageError{Op: "save", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &domain.StorageError{Op: "save", Path: s.path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := writeSeries(tmp, series); err != nil {
		tmp.Close()
		return &domain.StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &domain.StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &domain.StorageError{Op: "save", Path: s.path, Err: err}
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return &domain.StorageError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

func readSeries(r io.Reader) (domain.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // older files may carry derived columns

	header, err := cr.Read()
	if err == io.EOF {
		return domain.Series{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateIdx, rainIdx := -1, -1
	for i, name := range header {
		switch name {
		case colDate:
			dateIdx = i
		case colRainfall:
			rainIdx = i
		}
	}
	if dateIdx < 0 || rainIdx < 0 {
		return nil, fmt.Errorf("missing required columns %s,%s in header %v", colDate, colRainfall, header)
	}

	var series domain.Series
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) <= dateIdx || len(row) <= rainIdx {
			return nil, fmt.Errorf("line %d: too few columns", line)
		}

		// Unlike the upstream feed, this file is our own state: a row we
		// cannot parse means corruption, not noise.
		date, err := time.ParseInLocation(time.DateOnly, row[dateIdx], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse date %q: %w", line, row[dateIdx], err)
		}
		value, err := strconv.ParseFloat(row[rainIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse rainfall %q: %w", line, row[rainIdx], err)
		}
		series = append(series, domain.DailyRecord{Date: date, RainfallMM: value})
	}
	return series, nil
}

func writeSeries(w io.Writer, series domain.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colDate, colRainfall}); err != nil {
		return err
	}
	for _, rec := range series {
		row := []string{
			rec.Date.Format(time.DateOnly),
			strconv.FormatFloat(rec.RainfallMM, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

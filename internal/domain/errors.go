package domain

import "fmt"

// UpstreamError wraps a transport failure or non-success status from the
// reading API. Fatal to the current run; never retried locally.
type UpstreamError struct {
	Op  string // "list measures", "fetch readings", ...
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NoMeasuresError means the station exposes no rainfall measures at all.
// This is a terminal input error, distinct from a window that happens to
// contain no readings.
type NoMeasuresError struct {
	StationID string
}

func (e *NoMeasuresError) Error() string {
	return fmt.Sprintf("no rainfall measures found for station %s", e.StationID)
}

// StorageError wraps a failure to read or write the local series file.
type StorageError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Package domain models daily rainfall series built from UK Environment
// Agency (EA) flood-monitoring readings.
//
// # Data Source
//
// Readings come from the EA real-time flood-monitoring API at
// https://environment.data.gov.uk/flood-monitoring. A rain gauge station
// exposes one or more "measures" for the rainfall parameter (several sensors
// may report the same physical quantity); each measure serves timestamped
// tipping-bucket readings, typically at 15-minute resolution.
//
// # Upstream Conventions
//
// Timestamps:
//
//	ISO-8601 UTC with second precision, e.g. "2024-01-01T15:45:00Z".
//	Readings whose timestamps fail to parse are dropped, not errored:
//	the feed is noisy and a single bad record must not poison a fetch.
//
// Values:
//
//	Rainfall in millimetres per reading interval. The API serves values as
//	JSON numbers or numeric strings; anything unparseable ("N/A", "", null)
//	is dropped the same way as a bad timestamp.
//
// # Daily Series
//
// The unit of durable truth is the DailyRecord: one calendar date (UTC) and
// the summed rainfall for that date. A Series holds records sorted ascending
// by date with each date appearing exactly once. Gaps are permitted and
// meaningful: a missing date means "no data", not "no rain".
//
// Merging a freshly aggregated batch into a stored series is an upsert keyed
// by date, incoming records winning on collision. The EA revises recent
// readings after the fact, so re-fetching a window that overlaps stored
// state is the normal mode of operation, and repeated runs over the same
// window converge to the same series.
package domain

// Package floodapi is the reading source adapter for the UK Environment
// Agency real-time flood-monitoring API.
package floodapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/CDonnerer/vp-track-status/internal/domain"
)

// DefaultBaseURL is the public flood-monitoring API root.
const DefaultBaseURL = "https://environment.data.gov.uk/flood-monitoring"

const (
	parameter     = "rainfall"
	readingsLimit = "10000"
	rangeLimit    = "5000"
)

// Client queries a station's rainfall measures and their readings.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a flood-monitoring API client. An empty baseURL selects
// the public API root.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ListMeasures returns the measure URLs for a station's rainfall parameter.
// An empty result is returned as-is; classifying it as terminal is the
// caller's concern.
func (c *Client) ListMeasures(ctx context.Context, stationID string) ([]string, error) {
	u := fmt.Sprintf("%s/id/stations/%s/measures", c.baseURL, url.PathEscape(stationID))
	params := url.Values{
		"parameter": {parameter},
		"_limit":    {readingsLimit},
	}

	var resp measuresResponse
	if err := c.getJSON(ctx, u+"?"+params.Encode(), "list measures", &resp); err != nil {
		return nil, err
	}

	measures := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID != "" {
			measures = append(measures, item.ID)
		}
	}
	return measures, nil
}

// FetchReadings returns all parseable readings for one measure within the
// inclusive window, plus the count of malformed items that were dropped.
// Empty results pass through as an empty slice, not an error.
func (c *Client) FetchReadings(ctx context.Context, measureURL string, window domain.FetchWindow) ([]domain.Reading, int, error) {
	params := url.Values{
		"startdate": {window.Start.Format(time.DateOnly)},
		"enddate":   {window.End.Format(time.DateOnly)},
		"_limit":    {readingsLimit},
		"_sorted":   {""},
	}

	var resp readingsResponse
	if err := c.getJSON(ctx, measureURL+"/readings?"+params.Encode(), "fetch readings", &resp); err != nil {
		return nil, 0, err
	}

	readings := make([]domain.Reading, 0, len(resp.Items))
	dropped := 0
	for _, item := range resp.Items {
		r, ok := parseReading(item)
		if !ok {
			dropped++
			continue
		}
		readings = append(readings, r)
	}
	return readings, dropped, nil
}

// AvailableRange reports the earliest and latest dates a measure has data
// for, used only for diagnostic messaging when a fetch comes back empty.
// ok is false when the measure has no readings at all.
func (c *Client) AvailableRange(ctx context.Context, measureURL string) (earliest, latest time.Time, ok bool, err error) {
	params := url.Values{
		"_limit":  {rangeLimit},
		"_sorted": {""},
	}

	var resp readingsResponse
	if err := c.getJSON(ctx, measureURL+"/readings?"+params.Encode(), "available range", &resp); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if len(resp.Items) == 0 {
		return time.Time{}, time.Time{}, false, nil
	}

	// The API serves readings newest first.
	newest, okNew := parseReadingTime(resp.Items[0].DateTime)
	oldest, okOld := parseReadingTime(resp.Items[len(resp.Items)-1].DateTime)
	if !okNew || !okOld {
		return time.Time{}, time.Time{}, false, nil
	}
	return domain.Truncate(oldest), domain.Truncate(newest), true, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return &domain.UpstreamError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.UpstreamError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.UpstreamError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// parseReading converts one API item to a domain Reading. Malformed
// timestamps or values make it return ok=false; the feed is noisy and such
// items are dropped rather than failing the fetch.
func parseReading(item readingItem) (domain.Reading, bool) {
	ts, ok := parseReadingTime(item.DateTime)
	if !ok {
		return domain.Reading{}, false
	}
	v, ok := parseValue(item.Value)
	if !ok {
		return domain.Reading{}, false
	}
	return domain.Reading{DateTime: ts, Value: v}, true
}

func parseReadingTime(s string) (time.Time, bool) {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

// parseValue accepts a JSON number or a numeric string; anything else
// (null, "N/A", missing) fails.
func parseValue(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// API response types.

type measuresResponse struct {
	Items []measureItem `json:"items"`
}

type measureItem struct {
	ID string `json:"@id"`
}

type readingsResponse struct {
	Items []readingItem `json:"items"`
}

type readingItem struct {
	DateTime string          `json:"dateTime"`
	Value    json.RawMessage `json:"value"`
}

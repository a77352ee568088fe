package floodapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CDonnerer/vp-track-status/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testWindow() domain.FetchWindow {
	return domain.FetchWindow{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
	}
}

func TestClient_ListMeasures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/id/stations/239374TP/measures", r.URL.Path)
		assert.Equal(t, "rainfall", r.URL.Query().Get("parameter"))
		assert.Equal(t, "10000", r.URL.Query().Get("_limit"))

		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]string{
				{"@id": "https://example.test/id/measures/239374TP-rainfall-t-15_min-mm"},
				{"@id": "https://example.test/id/measures/239374TP-rainfall-t-900-mm"},
			},
		}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	measures, err := c.ListMeasures(context.Background(), "239374TP")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.test/id/measures/239374TP-rainfall-t-15_min-mm",
		"https://example.test/id/measures/239374TP-rainfall-t-900-mm",
	}, measures)
}

func TestClient_ListMeasures_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"items": []any{}}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	measures, err := c.ListMeasures(context.Background(), "239374TP")
	require.NoError(t, err)
	assert.Empty(t, measures)
}

func TestClient_ListMeasures_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.ListMeasures(context.Background(), "239374TP")

	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, "list measures", upstreamErr.Op)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_FetchReadings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/measures/239374TP-rainfall/readings", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("startdate"))
		assert.Equal(t, "2024-01-07", r.URL.Query().Get("enddate"))
		_, sorted := r.URL.Query()["_sorted"]
		assert.True(t, sorted)

		w.Header().Set(headerContentType, contentTypeJSON)
		_, err := w.Write([]byte(`{"items":[
			{"dateTime":"2024-01-01T00:15:00Z","value":0.2},
			{"dateTime":"2024-01-01T00:30:00Z","value":"1.4"},
			{"dateTime":"2024-01-02T09:00:00Z","value":2.0}
		]}`))
		require.NoError(t, err)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	readings, dropped, err := c.FetchReadings(context.Background(), srv.URL+"/measures/239374TP-rainfall", testWindow())
	require.NoError(t, err)

	assert.Zero(t, dropped)
	assert.Equal(t, []domain.Reading{
		{DateTime: time.Date(2024, 1, 1, 0, 15, 0, 0, time.UTC), Value: 0.2},
		{DateTime: time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC), Value: 1.4},
		{DateTime: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), Value: 2.0},
	}, readings)
}

func TestClient_FetchReadings_DropsMalformedItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, err := w.Write([]byte(`{"items":[
			{"dateTime":"2024-01-01T00:15:00Z","value":0.2},
			{"dateTime":"2024-01-01T00:30:00Z","value":"N/A"},
			{"dateTime":"not-a-timestamp","value":1.0},
			{"dateTime":"2024-01-01T01:00:00Z","value":null},
			{"value":3.0}
		]}`))
		require.NoError(t, err)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	readings, dropped, err := c.FetchReadings(context.Background(), srv.URL+"/m", testWindow())
	require.NoError(t, err)

	assert.Equal(t, 4, dropped)
	require.Len(t, readings, 1)
	assert.Equal(t, 0.2, readings[0].Value)
}

func TestClient_FetchReadings_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, err := w.Write([]byte(`{"items":[]}`))
		require.NoError(t, err)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	readings, dropped, err := c.FetchReadings(context.Background(), srv.URL+"/m", testWindow())
	require.NoError(t, err)
	assert.Zero(t, dropped)
	assert.Empty(t, readings)
}

func TestClient_FetchReadings_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // connection refused

	c := testClient(srv.URL)
	_, _, err := c.FetchReadings(context.Background(), srv.URL+"/m", testWindow())

	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, "fetch readings", upstreamErr.Op)
}

func TestClient_AvailableRange(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "5000", r.URL.Query().Get("_limit"))
			w.Header().Set(headerContentType, contentTypeJSON)
			_, err := w.Write([]byte(`{"items":[
				{"dateTime":"2024-03-10T23:45:00Z","value":0.0},
				{"dateTime":"2024-03-09T12:00:00Z","value":0.4},
				{"dateTime":"2024-01-15T00:15:00Z","value":0.2}
			]}`))
			require.NoError(t, err)
		}))
		defer srv.Close()

		c := testClient(srv.URL)
		earliest, latest, ok, err := c.AvailableRange(context.Background(), srv.URL+"/m")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), earliest)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), latest)
	})

	t.Run("no readings", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set(headerContentType, contentTypeJSON)
			_, err := w.Write([]byte(`{"items":[]}`))
			require.NoError(t, err)
		}))
		defer srv.Close()

		c := testClient(srv.URL)
		_, _, ok, err := c.AvailableRange(context.Background(), srv.URL+"/m")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

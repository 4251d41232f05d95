package pricefeed

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfoliotrack/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Logger: nopLogger{}})
	require.NoError(t, err)
	return c
}

func TestDailySeriesOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cachedPriceData", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("ticker"))
		w.Write([]byte(`{"price_data": {
			"timestamp": ["2024-01-02 00:00:00", "2024-01-03 00:00:00", 1704326400000],
			"open":   [184.2, null, 182.0],
			"high":   [185.0, 184.5, "n/a"],
			"low":    [183.1, 183.0, 181.5],
			"close":  [184.9, 184.1, 181.9],
			"volume": [1000, 2000, null]
		}}`))
	})

	series, err := c.DailySeries(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, 3, series.UsableLen())

	day, ok := series.Timestamp[0].Day()
	require.True(t, ok)
	assert.Equal(t, "2024-01-02", day)

	day, ok = series.Timestamp[2].Day()
	require.True(t, ok)
	assert.Equal(t, "2024-01-04", day)

	assert.Equal(t, 184.2, series.Open[0])
	assert.True(t, math.IsNaN(series.Open[1]), "null entry should be invalid")
	assert.True(t, math.IsNaN(series.High[2]), "string entry should be invalid")
	assert.True(t, math.IsNaN(series.Volume[2]), "null volume should be invalid")
}

func TestDailySeriesMissingContainer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"something_else": 1}`))
	})

	_, err := c.DailySeries(context.Background(), "AAPL")
	require.ErrorIs(t, err, ports.ErrPriceDataMissing)
	assert.Contains(t, err.Error(), "AAPL")
}

func TestDailySeriesNullContainer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price_data": null}`))
	})

	_, err := c.DailySeries(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ports.ErrPriceDataMissing)
}

func TestDailySeriesNonArrayChannel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price_data": {
			"timestamp": ["2024-01-02"],
			"open": 184.2,
			"high": [185.0], "low": [183.1], "close": [184.9], "volume": [1000]
		}}`))
	})

	_, err := c.DailySeries(context.Background(), "AAPL")
	require.ErrorIs(t, err, ports.ErrPriceDataMissing)
	assert.Contains(t, err.Error(), "malformed")
}

func TestDailySeriesAbsentChannel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price_data": {
			"timestamp": ["2024-01-02"],
			"high": [185.0], "low": [183.1], "close": [184.9], "volume": [1000]
		}}`))
	})

	_, err := c.DailySeries(context.Background(), "AAPL")
	require.ErrorIs(t, err, ports.ErrPriceDataMissing)
	assert.Contains(t, err.Error(), "malformed")
}

func TestDailySeriesNullChannel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price_data": {
			"timestamp": ["2024-01-02"],
			"open": null,
			"high": [185.0], "low": [183.1], "close": [184.9], "volume": [1000]
		}}`))
	})

	_, err := c.DailySeries(context.Background(), "AAPL")
	require.ErrorIs(t, err, ports.ErrPriceDataMissing)
	assert.Contains(t, err.Error(), "malformed")
}

func TestDailySeriesHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.DailySeries(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ports.ErrProviderUnavailable)
}

func TestDailySeriesUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	c, err := New(Config{BaseURL: srv.URL, Logger: nopLogger{}})
	require.NoError(t, err)

	_, err = c.DailySeries(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ports.ErrProviderUnavailable)
}

func TestDailySeriesMismatchedChannelLengths(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price_data": {
			"timestamp": ["2024-01-02", "2024-01-03", "2024-01-04"],
			"open":   [1, 2, 3],
			"high":   [1, 2, 3],
			"low":    [1, 2, 3],
			"close":  [1, 2],
			"volume": [1, 2, 3]
		}}`))
	})

	series, err := c.DailySeries(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, series.UsableLen())
}

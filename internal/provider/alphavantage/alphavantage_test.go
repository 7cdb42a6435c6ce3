package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/models"
	"stockdash/internal/provider"
)

const fivePoints = `{
  "Meta Data": {
    "1. Information": "Daily Prices (open, high, low, close) and Volumes",
    "2. Symbol": "AAPL",
    "3. Last Refreshed": "2024-05-03",
    "4. Output Size": "Compact",
    "5. Time Zone": "US/Eastern"
  },
  "Time Series (Daily)": {
    "2024-05-03": {"1. open": "186.6500", "2. high": "187.0000", "3. low": "182.6600", "4. close": "183.3800", "5. volume": "163224109"},
    "2024-05-01": {"1. open": "169.5800", "2. high": "172.7050", "3. low": "169.1100", "4. close": "169.3000", "5. volume": "50383147"},
    "2024-05-02": {"1. open": "172.5100", "2. high": "173.4150", "3. low": "170.8900", "4. close": "173.0300", "5. volume": "94214915"},
    "2024-04-30": {"1. open": "173.3300", "2. high": "174.9900", "3. low": "170.0000", "4. close": "170.3300", "5. volume": "65934776"},
    "2024-04-29": {"1. open": "173.3700", "2. high": "176.0300", "3. low": "173.1000", "4. close": "173.5000", "5. volume": "68169419"}
  }
}`

func newTestClient(t *testing.T, payload string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		assert.Equal(t, "av-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, "av-key", srv.Client())
}

func TestDailySeriesKeepsPayloadOrder(t *testing.T) {
	client := newTestClient(t, fivePoints)

	points, err := client.DailySeries(context.Background(), "AAPL")
	require.NoError(t, err)

	// deliberately not chronological in the fixture
	assert.Equal(t, []models.HistoricalPoint{
		{Date: "2024-05-03", Price: 183.38},
		{Date: "2024-05-01", Price: 169.30},
		{Date: "2024-05-02", Price: 173.03},
		{Date: "2024-04-30", Price: 170.33},
		{Date: "2024-04-29", Price: 173.50},
	}, points)
}

func TestDailySeriesMissingKey(t *testing.T) {
	client := newTestClient(t, `{"Error Message": "Invalid API call."}`)

	_, err := client.DailySeries(context.Background(), "ZZZZINVALID")
	require.ErrorIs(t, err, provider.ErrNoSeries)
	assert.Contains(t, err.Error(), "Invalid API call.")
}

func TestDailySeriesRateLimitNote(t *testing.T) {
	client := newTestClient(t, `{"Information": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`)

	_, err := client.DailySeries(context.Background(), "AAPL")
	assert.ErrorIs(t, err, provider.ErrNoSeries)
}

func TestDailySeriesBadClose(t *testing.T) {
	client := newTestClient(t, `{"Time Series (Daily)": {"2024-05-03": {"4. close": "n/a"}}}`)

	_, err := client.DailySeries(context.Background(), "AAPL")
	assert.ErrorContains(t, err, "close for 2024-05-03")
}

func TestDailySeriesNotAnObject(t *testing.T) {
	client := newTestClient(t, `[]`)

	_, err := client.DailySeries(context.Background(), "AAPL")
	assert.Error(t, err)
}

// Package alphavantage is a SeriesSource backed by the Alpha Vantage
// TIME_SERIES_DAILY endpoint.
package alphavantage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"stockdash/internal/models"
	"stockdash/internal/provider"
)

const seriesKey = "Time Series (Daily)"

// DailyBar is one entry of the daily series. Values are decimal strings.
type DailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

func (c *Client) Name() string { return "alphavantage" }

// DailySeries returns one point per date key, in the order the keys appear
// in the payload (Alpha Vantage sends newest first).
func (c *Client) DailySeries(ctx context.Context, symbol string) ([]models.HistoricalPoint, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)

	body, err := provider.Get(ctx, c.http, c.Name(), c.baseURL+"/query?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return decodeSeries(body)
}

// decodeSeries walks the payload token by token; a map would lose the key order.
func decodeSeries(body []byte) ([]models.HistoricalPoint, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var (
		points []models.HistoricalPoint
		found  bool
		notice string
	)
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		switch key {
		case seriesKey:
			if points, err = decodePoints(dec); err != nil {
				return nil, err
			}
			found = true
		case "Error Message", "Note", "Information":
			if err := dec.Decode(&notice); err != nil {
				return nil, fmt.Errorf("alphavantage decode: %w", err)
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("alphavantage decode: %w", err)
			}
		}
	}

	if !found {
		if notice != "" {
			return nil, fmt.Errorf("%w: %s", provider.ErrNoSeries, notice)
		}
		return nil, provider.ErrNoSeries
	}
	return points, nil
}

func decodePoints(dec *json.Decoder) ([]models.HistoricalPoint, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	points := []models.HistoricalPoint{}
	for dec.More() {
		date, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		var bar DailyBar
		if err := dec.Decode(&bar); err != nil {
			return nil, fmt.Errorf("alphavantage decode %s: %w", date, err)
		}
		price, err := decimal.NewFromString(bar.Close)
		if err != nil {
			return nil, fmt.Errorf("alphavantage close for %s: %w", date, err)
		}
		points = append(points, models.HistoricalPoint{Date: date, Price: price.InexactFloat64()})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return points, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("alphavantage decode: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("alphavantage decode: expected %q, got %v", want, tok)
	}
	return nil
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("alphavantage decode: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("alphavantage decode: expected key, got %v", tok)
	}
	return key, nil
}

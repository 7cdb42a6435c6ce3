// Package finnhub is a PriceSource backed by the Finnhub quote API.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"stockdash/internal/provider"
)

// Quote is the /quote payload. Current price is in "c"; Finnhub answers
// unknown symbols with all zeros.
type Quote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a client for baseURL (e.g. https://finnhub.io/api/v1).
// Per-call deadlines come from the caller's context.
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

func (c *Client) Name() string { return "finnhub" }

// Quote fetches the raw quote for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", c.apiKey)

	body, err := provider.Get(ctx, c.http, c.Name(), c.baseURL+"/quote?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var quote Quote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("finnhub decode: %w", err)
	}
	return &quote, nil
}

func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	quote, err := c.Quote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if quote.Current == 0 {
		return 0, provider.ErrNoPrice
	}
	return quote.Current, nil
}

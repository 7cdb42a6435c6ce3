// Package provider defines the market-data sources the quote services depend on.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"stockdash/internal/models"
)

var (
	// ErrNoPrice means the source answered but had no usable price for the symbol.
	ErrNoPrice = errors.New("no price available")
	// ErrNoSeries means the source answered without a daily series.
	ErrNoSeries = errors.New("no daily series available")
)

// PriceSource returns the current traded price of a symbol.
type PriceSource interface {
	Name() string
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// SeriesSource returns the daily closing prices of a symbol in source order.
type SeriesSource interface {
	Name() string
	DailySeries(ctx context.Context, symbol string) ([]models.HistoricalPoint, error)
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Source string
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %s: %s", e.Source, e.Status, e.Body)
}

// Get performs a GET bound to ctx and returns the body of a 2xx response.
func Get(ctx context.Context, client *http.Client, source, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s fetch: %w", source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", source, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > 256 {
			body = body[:256]
		}
		return nil, &StatusError{Source: source, Status: resp.Status, Body: string(body)}
	}
	return body, nil
}

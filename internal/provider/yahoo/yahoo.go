// Package yahoo serves both prices and daily series from Yahoo Finance
// through github.com/piquette/finance-go.
package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"stockdash/internal/models"
	"stockdash/internal/provider"
)

// seriesDays bounds the daily series to roughly the compact window other sources return.
const seriesDays = 100

// barIter is the part of *chart.Iter the series needs.
type barIter interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

type Client struct {
	quoteFn func(symbol string) (*finance.Quote, error)
	chartFn func(p *chart.Params) barIter
	now     func() time.Time
}

func New() *Client {
	return &Client{
		quoteFn: quote.Get,
		chartFn: func(p *chart.Params) barIter { return chart.Get(p) },
		now:     time.Now,
	}
}

func (c *Client) Name() string { return "yahoo" }

func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return withContext(ctx, func() (float64, error) {
		q, err := c.quoteFn(symbol)
		if err != nil {
			return 0, fmt.Errorf("yahoo quote: %w", err)
		}
		if q == nil || q.RegularMarketPrice == 0 {
			return 0, provider.ErrNoPrice
		}
		return q.RegularMarketPrice, nil
	})
}

// DailySeries returns daily closes, newest first to match the other series source.
func (c *Client) DailySeries(ctx context.Context, symbol string) ([]models.HistoricalPoint, error) {
	end := c.now().UTC()
	start := end.AddDate(0, 0, -seriesDays)

	return withContext(ctx, func() ([]models.HistoricalPoint, error) {
		iter := c.chartFn(&chart.Params{
			Symbol:   symbol,
			Start:    &datetime.Datetime{Month: int(start.Month()), Day: start.Day(), Year: start.Year()},
			End:      &datetime.Datetime{Month: int(end.Month()), Day: end.Day(), Year: end.Year()},
			Interval: datetime.OneDay,
		})

		var points []models.HistoricalPoint
		for iter.Next() {
			bar := iter.Bar()
			points = append(points, models.HistoricalPoint{
				Date:  time.Unix(int64(bar.Timestamp), 0).UTC().Format("2006-01-02"),
				Price: bar.Close.InexactFloat64(),
			})
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("yahoo chart: %w", err)
		}
		if len(points) == 0 {
			return nil, provider.ErrNoSeries
		}

		for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
			points[i], points[j] = points[j], points[i]
		}
		return points, nil
	})
}

// withContext bounds a blocking call that has no context support of its own.
// On cancellation the call is abandoned and finishes in the background.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

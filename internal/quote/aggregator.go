// Package quote assembles current prices and daily series from the
// configured market-data sources.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"stockdash/internal/models"
	"stockdash/internal/provider"
)

var ErrNoSymbols = errors.New("no symbols requested")

const defaultTimeout = 10 * time.Second

// Quotes maps each requested symbol to its price or the Unavailable marker.
type Quotes map[string]models.Price

// Aggregator fetches many symbols concurrently and isolates per-symbol failures.
type Aggregator struct {
	source         provider.PriceSource
	timeout        time.Duration
	maxConcurrency int

	// collapses identical in-flight lookups across concurrent requests
	inflight singleflight.Group
}

func NewAggregator(source provider.PriceSource, timeout time.Duration, maxConcurrency int) *Aggregator {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Aggregator{source: source, timeout: timeout, maxConcurrency: maxConcurrency}
}

// GetQuotes returns one entry per distinct symbol. A failing symbol gets the
// Unavailable marker and never affects its siblings. An error is returned
// only when the batch as a whole cannot be answered.
func (a *Aggregator) GetQuotes(ctx context.Context, symbols []string) (Quotes, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	prices := make([]models.Price, len(symbols))

	g := new(errgroup.Group)
	g.SetLimit(a.maxConcurrency)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			prices[i] = a.fetch(ctx, symbol)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate quotes: %w", err)
	}

	quotes := make(Quotes, len(symbols))
	for i, symbol := range symbols {
		quotes[symbol] = prices[i]
	}
	return quotes, nil
}

func (a *Aggregator) fetch(ctx context.Context, symbol string) models.Price {
	ch := a.inflight.DoChan(symbol, func() (interface{}, error) {
		// detached from any single caller so one cancelled request does not
		// fail the others sharing this call
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		return a.source.CurrentPrice(callCtx, symbol)
	})

	select {
	case <-ctx.Done():
		return models.Price{}
	case res := <-ch:
		if res.Err != nil {
			logFetchFailure(a.source.Name(), symbol, res.Err)
			return models.Price{}
		}
		return models.PriceOf(res.Val.(float64))
	}
}

func logFetchFailure(source, symbol string, err error) {
	event := log.Warn()
	if errors.Is(err, provider.ErrNoPrice) {
		event = log.Info()
	}
	event.Err(err).Str("source", source).Str("symbol", symbol).Msg("Stock data unavailable")
}

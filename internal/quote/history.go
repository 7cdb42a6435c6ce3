package quote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockdash/internal/models"
	"stockdash/internal/provider"
)

// HistoryFetcher returns one symbol's daily series.
type HistoryFetcher struct {
	source  provider.SeriesSource
	timeout time.Duration
}

func NewHistoryFetcher(source provider.SeriesSource, timeout time.Duration) *HistoryFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HistoryFetcher{source: source, timeout: timeout}
}

// GetHistorical fails as a whole: there is no partial series.
// Points keep the source's order; callers re-order if they need to.
func (h *HistoryFetcher) GetHistorical(ctx context.Context, symbol string) ([]models.HistoricalPoint, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, ErrNoSymbols
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	points, err := h.source.DailySeries(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s series for %s: %w", h.source.Name(), symbol, err)
	}
	return points, nil
}

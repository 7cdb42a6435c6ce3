package cmd

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"stockdash/internal/auth"
	"stockdash/internal/config"
	"stockdash/internal/logger"
	"stockdash/internal/provider"
	"stockdash/internal/provider/alphavantage"
	"stockdash/internal/provider/finnhub"
	"stockdash/internal/provider/yahoo"
	"stockdash/internal/quote"
	"stockdash/internal/server"
	"stockdash/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (default command)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	authSvc, err := newAuthService(db)
	if err != nil {
		return err
	}

	prices, series := newSources(cfg)
	log.Info().
		Str("quote_source", prices.Name()).
		Str("series_source", series.Name()).
		Int("max_concurrency", cfg.Provider.MaxConcurrency).
		Dur("timeout", cfg.Provider.Timeout).
		Msg("Market data sources configured")

	app := server.NewApp(
		cfg,
		db,
		authSvc,
		quote.NewAggregator(prices, cfg.Provider.Timeout, cfg.Provider.MaxConcurrency),
		quote.NewHistoryFetcher(series, cfg.Provider.Timeout),
		newSessionStore(cfg.Auth),
	)
	app.SetAccessLogger(logger.NewAccessLogger(loggerConfig()))

	return app.Run(ctx)
}

func newAuthService(db store.Store) (*auth.Service, error) {
	svc, err := auth.NewService(db, auth.NewIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL))
	if err != nil {
		return nil, fmt.Errorf("init auth: %w", err)
	}
	return svc, nil
}

func newSources(c *config.Config) (provider.PriceSource, provider.SeriesSource) {
	client := &http.Client{Timeout: c.Provider.Timeout}

	var prices provider.PriceSource
	switch c.Provider.QuoteSource {
	case config.SourceYahoo:
		prices = yahoo.New()
	default:
		prices = finnhub.New(c.Provider.FinnhubBaseURL, c.Provider.FinnhubAPIKey, client)
	}

	var series provider.SeriesSource
	switch c.Provider.SeriesSource {
	case config.SourceYahoo:
		series = yahoo.New()
	default:
		series = alphavantage.New(c.Provider.AlphaVantageBaseURL, c.Provider.AlphaVantageAPIKey, client)
	}

	return prices, series
}

func newSessionStore(c config.AuthConfig) *sessions.CookieStore {
	s := sessions.NewCookieStore([]byte(c.SessionKey))
	s.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	// Sets the cookie Max-Age and the codecs' timestamp check together.
	s.MaxAge(int(c.TokenTTL.Seconds()))
	return s
}

// Command oracled runs the hardware-price oracle service: it wires
// configuration into a source-adapter set, drives the aggregator on a
// periodic schedule, and serves the result over HTTP.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hwpriced/oracle/internal/adapters"
	"github.com/hwpriced/oracle/internal/aggregator"
	"github.com/hwpriced/oracle/internal/catalog"
	"github.com/hwpriced/oracle/internal/config"
	"github.com/hwpriced/oracle/internal/history"
	"github.com/hwpriced/oracle/internal/httpapi"
	"github.com/hwpriced/oracle/internal/httpfetch"
	"github.com/hwpriced/oracle/internal/rental"
	"github.com/hwpriced/oracle/internal/scheduler"
	"github.com/hwpriced/oracle/internal/twap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("starting hardware price oracle")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	enabledAdapters := selectAdapters(cfg, logger)
	logger.Info("adapter set selected", "count", len(enabledAdapters))

	twapCalculator := twap.NewCalculator(int64(cfg.TWAPWindowMs))
	agg := aggregator.New(enabledAdapters, twapCalculator, cfg.PriceChangeThreshold, logger)

	hardwareHistory, rentalHistory, historyConfigured := buildHistoryStores(cfg, logger)

	rentalAdapter := adapters.NewRentalAdapter(cfg.RentalMarketplaceURL)
	rentalService := rental.NewService(rentalAdapter, rentalHistory)

	server := httpapi.New(agg, rentalService, hardwareHistory, rentalHistory, cfg.ScraperAPIKey != "", cfg.CORSOriginList(), logger)

	sched := scheduler.New(
		time.Duration(cfg.UpdateIntervalMs)*time.Millisecond,
		time.Duration(cfg.RentalIntervalMs)*time.Millisecond,
		historyConfigured,
		func(tickCtx context.Context) {
			agg.UpdateAllPrices(tickCtx)
		},
		func(tickCtx context.Context) {
			snapshot, _, err := rentalService.AllPrices(tickCtx, catalog.RentalTypeIDs())
			if err != nil {
				logger.Warn("rental tick failed", "error", err)
				return
			}
			for gpuType, stats := range snapshot.Stats {
				if err := rentalHistory.InsertRental(tickCtx, gpuType, stats.Timestamp, stats.AvgPrice, stats.MinPrice, stats.MaxPrice,
					stats.OfferCount, stats.InterruptibleAvg, stats.OnDemandAvg); err != nil {
					logger.Warn("rental history insert failed", "gpuType", gpuType, "error", err)
				}
			}
		},
		logger,
	)
	go sched.Run(ctx)

	httpServer := &http.Server{
		Addr:         ":" + portString(cfg.Port),
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server forced to shutdown", "error", err)
	}
	logger.Info("shutdown complete")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// selectAdapters applies spec.md §6's mode-selection logic: SCRAPE_MODE
// wins outright, else DEMO_MODE selects mock-only, else the authenticated
// API adapters are used, filtered to the available ones, falling back to
// mock if none are configured.
func selectAdapters(cfg *config.Config, logger *slog.Logger) []adapters.SourceAdapter {
	if cfg.ScrapeMode {
		pool := httpfetch.NewProxyPool(cfg.ProxyURLs)
		var stealth *httpfetch.StealthClient
		var err error
		switch {
		case cfg.UseProxy && pool.Empty():
			stealth, err = httpfetch.NewStealthClient(httpfetch.Options{})
		case cfg.UseProxy:
			// Several scrapers share this client; rotate proxies per request
			// instead of pinning the whole process to one (spec.md §4.2).
			stealth = httpfetch.NewRotatingClient(pool, 0)
		default:
			stealth, err = httpfetch.NewStealthClient(httpfetch.Options{})
		}
		if err != nil {
			logger.Error("failed to build stealth client, scraping disabled", "error", err)
			return []adapters.SourceAdapter{adapters.NewMockAdapter(1, 0.02)}
		}
		scraperAPI := httpfetch.NewScraperAPIClient(cfg.ScraperAPIKey, "")

		return []adapters.SourceAdapter{
			adapters.NewNeweggAdapter(stealth, scraperAPI),
			adapters.NewBestBuyScraperAdapter(stealth, scraperAPI),
			adapters.NewAmazonScraperAdapter(stealth, scraperAPI),
			adapters.NewBHPhotoAdapter(stealth, scraperAPI),
		}
	}

	if cfg.DemoMode {
		return []adapters.SourceAdapter{adapters.NewMockAdapter(1, 0.02)}
	}

	apiAdapters := []adapters.SourceAdapter{
		adapters.NewEbayAdapter(cfg.EbayAppID, cfg.EbayCertID),
		adapters.NewAmazonAdapter(cfg.AmazonAccessKey, cfg.AmazonSecretKey, cfg.AmazonPartnerTag),
		adapters.NewBestBuyAdapter(cfg.BestBuyAPIKey),
	}

	var available []adapters.SourceAdapter
	for _, a := range apiAdapters {
		if a.IsAvailable() {
			available = append(available, a)
		}
	}
	if len(available) == 0 {
		logger.Warn("no API adapter credentials configured, falling back to mock")
		return []adapters.SourceAdapter{adapters.NewMockAdapter(1, 0.02)}
	}
	return available
}

func buildHistoryStores(cfg *config.Config, logger *slog.Logger) (history.HardwareStore, history.RentalStore, bool) {
	store, err := history.NewSupabaseStore(cfg.HistoryStoreURL, cfg.HistoryStoreKey)
	if err != nil {
		logger.Error("failed to build history store, history disabled", "error", err)
		memStore := history.NewMemoryStore()
		return memStore, memStore, false
	}
	return store, store, store.Configured()
}

func portString(port int) string {
	return strconv.Itoa(port)
}

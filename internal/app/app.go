package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/sports-viewing/internal/config"
	"github.com/riskibarqy/sports-viewing/internal/domain/market"
	"github.com/riskibarqy/sports-viewing/internal/domain/rights"
	"github.com/riskibarqy/sports-viewing/internal/infrastructure/dataset"
	"github.com/riskibarqy/sports-viewing/internal/infrastructure/rights/httpsource"
	"github.com/riskibarqy/sports-viewing/internal/infrastructure/rights/static"
	"github.com/riskibarqy/sports-viewing/internal/interfaces/httpapi"
	"github.com/riskibarqy/sports-viewing/internal/metrics"
	"github.com/riskibarqy/sports-viewing/internal/platform/logging"
	"github.com/riskibarqy/sports-viewing/internal/platform/resilience"
	"github.com/riskibarqy/sports-viewing/internal/usecase"
	"github.com/valyala/fasthttp"
)

// App holds the wired service. Directory is exposed so the caller can run
// the periodic dataset refresh next to the HTTP server.
type App struct {
	Server    *http.Server
	Directory *usecase.MarketDirectory

	closers []func() error
}

// New builds every dependency and loads the market dataset. A dataset that
// cannot be loaded fails startup.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{}
	clock := clockwork.NewRealClock()

	source, err := a.newDatasetSource(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Directory = usecase.NewMarketDirectory(source, clock, logger)
	stats, err := a.Directory.Reload(ctx)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("load market dataset from %s: %w", cfg.DatasetSource, err)
	}
	logger.Info("market dataset loaded",
		"source", cfg.DatasetSource,
		"rows", stats.Rows,
		"zips", stats.Zips,
		"teams", stats.Teams,
	)

	sources, err := newRightsSources(cfg, clock, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	rightsService := usecase.NewRightsService(sources, a.Directory, usecase.RightsServiceConfig{
		BatchWorkers:  cfg.RightsBatchWorkers,
		BatchMaxGames: cfg.RightsBatchMaxGames,
	}, logger)
	resolution := usecase.NewResolutionService(a.Directory, rightsService, logger)

	routerCfg := httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	}
	if cfg.MetricsEnabled {
		routerCfg.MetricsHandler = metrics.Handler()
	}
	router := httpapi.NewRouter(httpapi.NewHandler(resolution, logger), logger, routerCfg)

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return a, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) newDatasetSource(ctx context.Context, cfg config.Config) (market.DatasetSource, error) {
	switch cfg.DatasetSource {
	case config.DatasetSourceMemory:
		return dataset.NewSeedSource(), nil
	case config.DatasetSourceCSV:
		return dataset.NewCSVSource(cfg.DatasetCSVPath), nil
	case config.DatasetSourcePostgres:
		db, err := openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return dataset.NewPostgresSource(db), nil
	default:
		return nil, fmt.Errorf("unsupported dataset source %q", cfg.DatasetSource)
	}
}

func newRightsSources(cfg config.Config, clock clockwork.Clock, logger *logging.Logger) (rights.Sources, error) {
	switch cfg.RightsSource {
	case config.RightsSourceStatic:
		catalog, err := loadCatalog(cfg.RightsCatalogPath)
		if err != nil {
			return rights.Sources{}, err
		}
		logger.Info("static rights catalog loaded", "games", catalog.Len(), "path", cfg.RightsCatalogPath)
		return catalog.Sources(), nil
	case config.RightsSourceHTTP:
		return newHTTPRightsSources(cfg, clock, logger)
	default:
		return rights.Sources{}, fmt.Errorf("unsupported rights source %q", cfg.RightsSource)
	}
}

func loadCatalog(path string) (*static.Catalog, error) {
	if path == "" {
		return static.Default()
	}
	return static.LoadFile(path)
}

func newHTTPRightsSources(cfg config.Config, clock clockwork.Clock, logger *logging.Logger) (rights.Sources, error) {
	httpClient := &fasthttp.Client{
		Name:                cfg.ServiceName,
		ReadTimeout:         cfg.RightsTimeout,
		WriteTimeout:        cfg.RightsTimeout,
		MaxIdleConnDuration: 30 * time.Second,
	}
	breaker := resilience.CircuitBreakerConfig{
		Enabled:          cfg.RightsCircuitEnabled,
		FailureThreshold: cfg.RightsCircuitFailureCount,
		OpenTimeout:      cfg.RightsCircuitOpenTimeout,
		HalfOpenMaxReq:   cfg.RightsCircuitHalfOpenMaxReq,
	}

	newClient := func(league market.League, baseURL string) (*httpsource.Client, error) {
		return httpsource.NewClient(httpsource.ClientConfig{
			League:         league,
			BaseURL:        baseURL,
			Token:          cfg.RightsAPIToken,
			Timeout:        cfg.RightsTimeout,
			MaxRetries:     cfg.RightsMaxRetries,
			HTTPClient:     httpClient,
			CircuitBreaker: breaker,
			Clock:          clock,
			Logger:         logger,
		})
	}

	mlb, err := newClient(market.MLB, cfg.RightsMLBBaseURL)
	if err != nil {
		return rights.Sources{}, err
	}
	nba, err := newClient(market.NBA, cfg.RightsNBABaseURL)
	if err != nil {
		return rights.Sources{}, err
	}
	nhl, err := newClient(market.NHL, cfg.RightsNHLBaseURL)
	if err != nil {
		return rights.Sources{}, err
	}

	return rights.Sources{MLB: mlb, NBA: nba, NHL: nhl}, nil
}

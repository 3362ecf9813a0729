package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/catalog-crawler/internal/browser"
	"github.com/maltedev/catalog-crawler/internal/config"
	"github.com/maltedev/catalog-crawler/internal/crawler"
	"github.com/maltedev/catalog-crawler/internal/database"
	"github.com/maltedev/catalog-crawler/internal/ratelimit"
	"github.com/maltedev/catalog-crawler/internal/scraper"
	"github.com/maltedev/catalog-crawler/internal/storage"
)

func browserOptions(c config.BrowserConfig) *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = c.Headless
	opts.Timeout = c.Timeout
	opts.NavigationRetries = c.NavigationRetries
	opts.ViewportWidth = c.ViewportWidth
	opts.ViewportHeight = c.ViewportHeight
	opts.AcceptLanguage = c.AcceptLanguage
	opts.TimezoneID = c.TimezoneID
	opts.Locale = c.Locale
	opts.ProxyServer = c.ProxyServer
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	return opts
}

func newOpener(c config.BrowserConfig) (browser.Opener, error) {
	opts := browserOptions(c)
	switch c.Engine {
	case config.EnginePlaywright:
		return browser.Open(opts), nil
	case config.EngineSelenium:
		return browser.OpenSelenium(browser.SeleniumOptions{
			RemoteURL:        c.SeleniumURL,
			ChromeDriverPath: c.ChromeDriverPath,
			Port:             c.ChromeDriverPort,
			Browser:          opts,
		}), nil
	case config.EngineStatic:
		return browser.OpenDocument(browser.NewHTTPFetcher(opts)), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", c.Engine)
	}
}

func crawlerConfig(c config.CrawlerConfig) (crawler.Config, error) {
	cc := crawler.DefaultConfig()
	cc.LandingURL = c.LandingURL
	cc.WaitTimeout = c.WaitTimeout
	cc.SettleDelay = c.SettleDelay

	if c.SelectorsFile != "" {
		sel, err := scraper.LoadSelectors(c.SelectorsFile)
		if err != nil {
			return cc, err
		}
		cc.Selectors = sel
	}
	return cc, nil
}

func newPacer(c config.CrawlerConfig) ratelimit.RateLimiter {
	return ratelimit.NewAdaptiveRateLimiter(c.PacingMin, c.PacingMax)
}

// openSinks builds every enabled sink. The returned cleanup closes the sinks
// and the connections behind them.
func openSinks(ctx context.Context, c *config.Config) (storage.Sink, func(), error) {
	var (
		sinks   []storage.Sink
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if c.Storage.WorkbookPath != "" {
		sinks = append(sinks, storage.NewWorkbook(c.Storage.WorkbookPath))
	}

	if c.Storage.Postgres {
		db, err := database.New(ctx, database.Config{
			Host:     c.Database.Host,
			Port:     c.Database.Port,
			User:     c.Database.User,
			Password: c.Database.Password,
			Database: c.Database.Name,
			SSLMode:  c.Database.SSLMode,
			MaxConns: c.Database.MaxConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, db.Close)

		pg := storage.NewPostgres(db)
		if err := pg.Init(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to prepare schema: %w", err)
		}
		sinks = append(sinks, pg)
	}

	if c.Storage.RedisStream {
		client := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		sinks = append(sinks, storage.NewStream(client, c.Storage.StreamName))
	}

	multi := storage.NewMulti(sinks...)
	closers = append(closers, func() {
		if err := multi.Close(); err != nil {
			log.Warn("failed to close sinks", "error", err)
		}
	})
	return multi, cleanup, nil
}

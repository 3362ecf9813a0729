package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/catalog-crawler/internal/config"
)

func TestBrowserOptions(t *testing.T) {
	opts := browserOptions(config.BrowserConfig{
		Headless:          false,
		Timeout:           5 * time.Second,
		NavigationRetries: 3,
		ViewportWidth:     1280,
		ViewportHeight:    720,
		AcceptLanguage:    "en-MY",
		TimezoneID:        "Asia/Kuala_Lumpur",
		Locale:            "en-MY",
	})

	assert.False(t, opts.Headless)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, 3, opts.NavigationRetries)
	assert.Equal(t, 1280, opts.ViewportWidth)
	assert.NotEmpty(t, opts.UserAgent)
}

func TestNewOpener(t *testing.T) {
	for _, engine := range []string{config.EnginePlaywright, config.EngineSelenium, config.EngineStatic} {
		open, err := newOpener(config.BrowserConfig{Engine: engine})
		require.NoError(t, err, engine)
		assert.NotNil(t, open, engine)
	}

	_, err := newOpener(config.BrowserConfig{Engine: "lynx"})
	assert.Error(t, err)
}

func TestCrawlerConfig(t *testing.T) {
	cc, err := crawlerConfig(config.CrawlerConfig{
		LandingURL:  "https://shop.test/en/",
		WaitTimeout: time.Second,
		SettleDelay: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/en/", cc.LandingURL)
	assert.False(t, cc.Selectors.SearchInput.IsZero())

	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("price:\n  by: css\n  value: .price-tag\n"), 0o644))

	cc, err = crawlerConfig(config.CrawlerConfig{SelectorsFile: path})
	require.NoError(t, err)
	assert.Equal(t, ".price-tag", cc.Selectors.Price.Value)

	_, err = crawlerConfig(config.CrawlerConfig{SelectorsFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

package scraper_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/catalog-crawler/internal/browser"
	"github.com/maltedev/catalog-crawler/internal/browser/browsertest"
	"github.com/maltedev/catalog-crawler/internal/scraper"
)

func newResolver(t *testing.T, pages browsertest.Pages) (*scraper.Resolver, *browsertest.Site) {
	t.Helper()
	pages[landingURL] = landingPage
	d, site := browsertest.NewDriver(pages)
	require.NoError(t, d.Navigate(context.Background(), landingURL))
	return scraper.NewResolver(d, scraper.DefaultSelectors(), 200*time.Millisecond, 0, nil), site
}

func TestResolver_MatchesInDocumentOrder(t *testing.T) {
	r, site := newResolver(t, browsertest.Pages{
		searchURL + "?q=Billy": resultsPage(
			card{name: "BILLY", href: "/my/en/p/billy-white-1/"},
			card{name: "BILLY / OXBERG", href: "/my/en/p/billy-oxberg-9/"},
			card{name: "billy", href: "/my/en/p/billy-oak-2/"},
			card{name: "BILLY", href: "/my/en/p/billy-white-1/"},
		),
	})

	out := r.Resolve(context.Background(), "Billy")

	require.True(t, out.OK(), "unexpected outcome: %v %v", out.Status, out.Err)
	assert.Equal(t, []string{
		"https://shop.test/my/en/p/billy-white-1/",
		"https://shop.test/my/en/p/billy-oak-2/",
		"https://shop.test/my/en/p/billy-white-1/",
	}, out.Value)
	assert.Equal(t, []string{landingURL, searchURL + "?q=Billy"}, site.Visits())
}

func TestResolver_FoldsDiacritics(t *testing.T) {
	r, _ := newResolver(t, browsertest.Pages{
		searchURL + "?q=SOT": resultsPage(
			card{name: "SÖT", href: "/my/en/p/sot-1/"},
			card{name: "SÅT", href: "/my/en/p/sat-2/"},
		),
	})

	out := r.Resolve(context.Background(), "SOT")

	require.True(t, out.OK())
	assert.Equal(t, []string{"https://shop.test/my/en/p/sot-1/"}, out.Value)
}

func TestResolver_NoResultRegion(t *testing.T) {
	r, _ := newResolver(t, browsertest.Pages{
		searchURL + "?q=NOPE": `<html><body><p>No results</p></body></html>`,
	})

	out := r.Resolve(context.Background(), "NOPE")

	assert.Equal(t, scraper.Absent, out.Status)
	assert.ErrorIs(t, out.Err, scraper.ErrNoResults)
	assert.Empty(t, out.Value)
}

func TestResolver_NoMatchingCard(t *testing.T) {
	r, _ := newResolver(t, browsertest.Pages{
		searchURL + "?q=KALLAX": resultsPage(
			card{name: "KALLAX SHELF", href: "/my/en/p/kallax-1/"},
			card{name: "BILLY"},
		),
	})

	out := r.Resolve(context.Background(), "KALLAX")

	assert.Equal(t, scraper.Absent, out.Status)
	assert.ErrorIs(t, out.Err, scraper.ErrNoResults)
}

func TestResolver_MatchingCardWithoutLinkFails(t *testing.T) {
	r, _ := newResolver(t, browsertest.Pages{
		searchURL + "?q=BILLY": resultsPage(card{name: "BILLY"}),
	})

	out := r.Resolve(context.Background(), "BILLY")

	assert.Equal(t, scraper.Failed, out.Status)
	assert.True(t, browser.IsElementNotFound(out.Err))
	assert.Empty(t, out.Value)
}

func TestResolver_MissingSearchInput(t *testing.T) {
	const bare = "https://shop.test/bare/"
	d, _ := browsertest.NewDriver(browsertest.Pages{bare: `<html><body></body></html>`})
	require.NoError(t, d.Navigate(context.Background(), bare))
	r := scraper.NewResolver(d, scraper.DefaultSelectors(), 100*time.Millisecond, 0, nil)

	out := r.Resolve(context.Background(), "BILLY")

	assert.Equal(t, scraper.Failed, out.Status)
	assert.ErrorIs(t, out.Err, browser.ErrWaitTimeout)
}

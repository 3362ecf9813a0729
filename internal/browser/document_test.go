package browser_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/catalog-crawler/internal/browser"
	"github.com/maltedev/catalog-crawler/internal/browser/browsertest"
)

const landing = `<html><body>
<form action="/en/search" method="get">
  <input id="search" name="q" value="">
  <input type="hidden" name="lang" value="en">
  <button id="go" type="submit">Search</button>
</form>
<a id="home" href="/en/">Home</a>
<span class="note">  spaced text  </span>
</body></html>`

func TestDocumentDriver_FindAndRead(t *testing.T) {
	ctx := context.Background()
	d, _ := browsertest.NewDriver(browsertest.Pages{
		"https://shop.test/en/": landing,
	})
	require.NoError(t, d.Navigate(ctx, "https://shop.test/en/"))
	assert.Equal(t, "https://shop.test/en/", d.CurrentURL())

	note, err := d.FindElement(browser.ByClassName, "note")
	require.NoError(t, err)
	text, err := note.Text()
	require.NoError(t, err)
	assert.Equal(t, "spaced text", text)

	home, err := d.FindElement(browser.ByID, "home")
	require.NoError(t, err)
	href, err := home.Attribute("href")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/en/", href)

	missing, err := home.Attribute("data-missing")
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, err = d.FindElement(browser.ByID, "nope")
	assert.True(t, browser.IsElementNotFound(err))

	elems, err := d.FindElements(browser.ByTagName, "input")
	require.NoError(t, err)
	assert.Len(t, elems, 2)

	_, err = d.FindElements(browser.ByXPath, "//input")
	assert.ErrorIs(t, err, browser.ErrUnsupportedSelector)
}

func TestDocumentDriver_SubmitWithEnter(t *testing.T) {
	ctx := context.Background()
	d, site := browsertest.NewDriver(browsertest.Pages{
		"https://shop.test/en/":                          landing,
		"https://shop.test/en/search?lang=en&q=BILLY+oak": `<html><body><p class="hit">found</p></body></html>`,
	})
	require.NoError(t, d.Navigate(ctx, "https://shop.test/en/"))

	input, err := d.FindElement(browser.ByID, "search")
	require.NoError(t, err)
	require.NoError(t, input.Clear())
	require.NoError(t, input.SendKeys("BILLY oak"))
	require.NoError(t, input.SendKeys(browser.KeyEnter))

	assert.Equal(t, "https://shop.test/en/search?lang=en&q=BILLY+oak", d.CurrentURL())
	assert.Equal(t, []string{
		"https://shop.test/en/",
		"https://shop.test/en/search?lang=en&q=BILLY+oak",
	}, site.Visits())

	_, err = input.Text()
	assert.ErrorIs(t, err, browser.ErrStaleElement)

	hit, err := d.FindElement(browser.ByClassName, "hit")
	require.NoError(t, err)
	text, _ := hit.Text()
	assert.Equal(t, "found", text)
}

func TestDocumentDriver_ClickSubmitAndAnchor(t *testing.T) {
	ctx := context.Background()
	d, _ := browsertest.NewDriver(browsertest.Pages{
		"https://shop.test/en/":                      landing,
		"https://shop.test/en/search?lang=en&q=SOFA": `<html><body>results</body></html>`,
	})
	require.NoError(t, d.Navigate(ctx, "https://shop.test/en/"))

	input, err := d.FindElement(browser.ByID, "search")
	require.NoError(t, err)
	require.NoError(t, input.SendKeys("SOFA"))
	button, err := d.FindElement(browser.ByID, "go")
	require.NoError(t, err)

	require.NoError(t, button.Click())
	assert.Equal(t, "https://shop.test/en/search?lang=en&q=SOFA", d.CurrentURL())

	require.NoError(t, d.Navigate(ctx, "https://shop.test/en/"))
	home, err := d.FindElement(browser.ByID, "home")
	require.NoError(t, err)
	require.NoError(t, home.Click())
	assert.Equal(t, "https://shop.test/en/", d.CurrentURL())
}

func TestDocumentDriver_NavigateFailure(t *testing.T) {
	d, _ := browsertest.NewDriver(browsertest.Pages{})
	err := d.Navigate(context.Background(), "https://shop.test/missing")
	assert.Error(t, err)

	_, err = d.FindElement(browser.ByID, "x")
	assert.True(t, browser.IsElementNotFound(err))
}

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "en-MY,en;q=0.9", r.Header.Get("Accept-Language"))
		_, _ = w.Write([]byte("<html><body><h1>ok</h1></body></html>"))
	}))
	defer server.Close()

	f := browser.NewHTTPFetcher(browser.DefaultOptions())

	html, err := f.Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>ok</h1>")

	_, err = f.Fetch(context.Background(), server.URL+"/missing")
	assert.ErrorContains(t, err, "404")
}

// Package portal scrapes a JS-rendered property portal with a headless
// browser. The search results only exist after client-side rendering, so
// a plain HTTP fetch gets an empty shell; chromedp drives a real Chrome.
package portal

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/BJPickles/AGSCogs-sub000/internal/listing"
	"github.com/BJPickles/AGSCogs-sub000/internal/logging"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	navigateTimeout  = 60 * time.Second
)

// extractJS pulls the rendered result cards into a JSON-friendly shape.
// Selectors follow the portal's listing-card markup.
const extractJS = `
(function() {
	var cards = document.querySelectorAll('[data-testid="search-result"]');
	var out = [];
	for (var i = 0; i < cards.length; i++) {
		var c = cards[i];
		var link = c.querySelector('a[data-testid="listing-details-link"]');
		var price = c.querySelector('[data-testid="listing-price"]');
		var addr = c.querySelector('[data-testid="listing-address"]');
		var title = c.querySelector('[data-testid="listing-title"]');
		var img = c.querySelector('picture img');
		var agent = c.querySelector('[data-testid="agent-name"]');
		var flag = c.querySelector('[data-testid="listing-flag"]');
		out.push({
			href: link ? link.getAttribute('href') : '',
			price: price ? price.textContent : '',
			address: addr ? addr.textContent : '',
			title: title ? title.textContent : '',
			image: img ? img.getAttribute('src') : '',
			agent: agent ? agent.textContent : '',
			flag: flag ? flag.textContent : ''
		});
	}
	return { title: document.title, items: out };
})()
`

// pageResult is the payload extractJS evaluates to.
type pageResult struct {
	Title string       `json:"title"`
	Items []portalItem `json:"items"`
}

// portalItem is one raw card before conversion to a Listing.
type portalItem struct {
	Href    string `json:"href"`
	Price   string `json:"price"`
	Address string `json:"address"`
	Title   string `json:"title"`
	Image   string `json:"image"`
	Agent   string `json:"agent"`
	Flag    string `json:"flag"`
}

// Client scrapes the portal's search results.
type Client struct {
	userAgent string
	baseURL   string
	filter    *listing.TypeFilter
	log       *slog.Logger

	// thinkTime returns a randomized pause between navigation and
	// extraction, so page loads don't tick like a metronome.
	thinkTime func() time.Duration
}

// Options configures a Client.
type Options struct {
	UserAgent string
	BaseURL   string // prefix for relative card links
	Filter    *listing.TypeFilter
}

// NewClient creates a portal client.
func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Filter == nil {
		opts.Filter = listing.NewTypeFilter(nil, nil)
	}
	return &Client{
		userAgent: opts.UserAgent,
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		filter:    opts.Filter,
		log:       logging.ForCog("portal"),
		thinkTime: func() time.Duration {
			return 2*time.Second + time.Duration(rand.Int63n(int64(3*time.Second)))
		},
	}
}

// Fetch renders the search URL in headless Chrome and returns the parsed
// listings with banned property types filtered out.
func (c *Client) Fetch(ctx context.Context, searchURL string) ([]listing.Listing, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(c.userAgent),
	)
	if bin := findChromeBinary(); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, navigateTimeout)
	defer cancelRun()

	var result pageResult
	err := chromedp.Run(runCtx,
		// Hide the most common headless tell. Registered as a
		// new-document script so it runs in the navigated page, not
		// just about:blank.
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(
				`Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`).Do(ctx)
			return err
		}),
		chromedp.Navigate(searchURL),
		chromedp.Sleep(c.thinkTime()),
		chromedp.Evaluate(extractJS, &result),
	)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", searchURL, err)
	}

	if blocked(result.Title) {
		return nil, fmt.Errorf("%w: interstitial %q", listing.ErrBlocked, result.Title)
	}

	listings := convertItems(result.Items, c.baseURL)
	kept := c.filter.Apply(listings)
	if dropped := len(listings) - len(kept); dropped > 0 {
		c.log.Debug("filtered banned property types", "dropped", dropped)
	}

	return kept, nil
}

// blocked sniffs the page title for anti-bot interstitials.
func blocked(title string) bool {
	t := strings.ToLower(title)
	return strings.Contains(t, "access denied") ||
		strings.Contains(t, "verify you are a human") ||
		strings.Contains(t, "just a moment")
}

// findChromeBinary locates an installed Chrome/Chromium, or returns ""
// to let chromedp use its default lookup.
func findChromeBinary() string {
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

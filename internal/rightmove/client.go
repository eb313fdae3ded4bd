// Package rightmove fetches and parses paginated Rightmove search results.
package rightmove

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/BJPickles/AGSCogs-sub000/internal/listing"
	"github.com/BJPickles/AGSCogs-sub000/internal/logging"
)

const (
	// Paginated search results step by this many listings.
	pageSize = 24

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	requestTimeout   = 20 * time.Second
)

// ErrBlocked is returned when the site serves an anti-bot response
// (403/429 or a captcha interstitial). Callers back off instead of
// hammering the site on the normal interval.
var ErrBlocked = listing.ErrBlocked

// Client scrapes listings from Rightmove search result pages.
type Client struct {
	userAgent   string
	maxPages    int
	randomDelay time.Duration
	filter      *listing.TypeFilter
	log         *slog.Logger

	// now is overridable for relative-date parsing in tests.
	now func() time.Time
}

// Options configures a Client.
type Options struct {
	UserAgent   string
	MaxPages    int
	RandomDelay time.Duration
	Filter      *listing.TypeFilter
}

// NewClient creates a Rightmove client.
func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 3
	}
	if opts.RandomDelay <= 0 {
		opts.RandomDelay = 2 * time.Second
	}
	if opts.Filter == nil {
		opts.Filter = listing.NewTypeFilter(nil, nil)
	}
	return &Client{
		userAgent:   opts.UserAgent,
		maxPages:    opts.MaxPages,
		randomDelay: opts.RandomDelay,
		filter:      opts.Filter,
		log:         logging.ForCog("rightmove"),
		now:         time.Now,
	}
}

// Fetch walks the paginated search results for searchURL and returns the
// parsed listings with banned property types filtered out. On transport
// errors or a non-200 status the partial results are dropped and an error
// is returned; ErrBlocked wraps anti-bot responses.
func (c *Client) Fetch(ctx context.Context, searchURL string) ([]listing.Listing, error) {
	var all []listing.Listing

	for page := 0; page < c.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL, err := pageURL(searchURL, page*pageSize)
		if err != nil {
			return nil, fmt.Errorf("building page %d URL: %w", page, err)
		}

		batch, err := c.fetchPage(pageURL)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break // no more results
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			break // last page
		}
	}

	kept := c.filter.Apply(all)
	if dropped := len(all) - len(kept); dropped > 0 {
		c.log.Debug("filtered banned property types", "dropped", dropped)
	}

	return kept, nil
}

// fetchPage scrapes a single results page. A fresh collector per page
// keeps colly's visited-URL cache from suppressing the next cycle.
func (c *Client) fetchPage(pageURL string) ([]listing.Listing, error) {
	collector := colly.NewCollector(
		colly.UserAgent(c.userAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(requestTimeout)

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		RandomDelay: c.randomDelay,
	}); err != nil {
		return nil, fmt.Errorf("setting rate limit: %w", err)
	}

	var (
		results  []listing.Listing
		fetchErr error
	)

	collector.OnHTML("div.l-searchResult", func(e *colly.HTMLElement) {
		l, err := parseCard(e, c.now())
		if err != nil {
			c.log.Debug("skipping unparseable card", "error", err)
			return
		}
		results = append(results, l)
	})

	collector.OnResponse(func(r *colly.Response) {
		if looksBlocked(r.Body) {
			fetchErr = fmt.Errorf("%w: captcha interstitial", ErrBlocked)
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		switch r.StatusCode {
		case http.StatusForbidden, http.StatusTooManyRequests:
			fetchErr = fmt.Errorf("%w: status %d", ErrBlocked, r.StatusCode)
		default:
			fetchErr = fmt.Errorf("fetching %s: %w", pageURL, err)
		}
	})

	err := collector.Visit(pageURL)
	collector.Wait()

	// OnError carries the classified error; Visit repeats it raw.
	if fetchErr != nil {
		return nil, fetchErr
	}
	if err != nil {
		return nil, fmt.Errorf("visiting %s: %w", pageURL, err)
	}

	return results, nil
}

// pageURL sets the pagination index on the search URL.
func pageURL(searchURL string, index int) (string, error) {
	u, err := url.Parse(searchURL)
	if err != nil {
		return "", fmt.Errorf("parsing search URL: %w", err)
	}
	q := u.Query()
	if index > 0 {
		q.Set("index", strconv.Itoa(index))
	} else {
		q.Del("index")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// looksBlocked sniffs the body for the captcha interstitial served to
// suspected bots. The page still comes back 200.
func looksBlocked(body []byte) bool {
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "verify you are a human") ||
		strings.Contains(lower, "cf-challenge") ||
		strings.Contains(lower, "captcha-delivery")
}

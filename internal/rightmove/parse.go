package rightmove

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/BJPickles/AGSCogs-sub000/internal/listing"
)

var (
	propertyIDRe = regexp.MustCompile(`/properties/(\d+)`)
	priceRe      = regexp.MustCompile(`([\d,]+)`)
	bedroomRe    = regexp.MustCompile(`(?i)^\d+\s+bedroom\s+`)
)

// parseCard extracts one Listing from a search result card.
func parseCard(e *colly.HTMLElement, now time.Time) (listing.Listing, error) {
	href := e.ChildAttr("a.propertyCard-link", "href")
	m := propertyIDRe.FindStringSubmatch(href)
	if m == nil {
		return listing.Listing{}, fmt.Errorf("no property id in link %q", href)
	}
	id := m[1]

	priceText := e.ChildText("div.propertyCard-priceValue")
	price, err := parsePrice(priceText)
	if err != nil {
		return listing.Listing{}, fmt.Errorf("listing %s: %w", id, err)
	}

	title := strings.TrimSpace(e.ChildText("h2.propertyCard-title"))
	tag := strings.ToLower(e.ChildText("span.propertyCard-tagTitle"))
	added := e.ChildText("span.propertyCard-addedOrReduced")

	l := listing.Listing{
		ExternalID:   id,
		Price:        price,
		Address:      strings.TrimSpace(e.ChildText("address.propertyCard-address")),
		PropertyType: extractType(title),
		UnderOffer:   strings.Contains(tag, "under offer") || strings.Contains(tag, "sold stc"),
		URL:          e.Request.AbsoluteURL(href),
		ImageURL:     e.ChildAttr("img.propertyCard-img", "src"),
		Agent:        strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(e.ChildText("span.propertyCard-branchSummary-branchName")), "by ")),
		AgentURL:     e.Request.AbsoluteURL(e.ChildAttr("a.propertyCard-branchLogo-link", "href")),
		ListedAt:     parseAddedOn(added, now),
	}
	l.UpdatedAt = l.ListedAt

	return l, nil
}

// parsePrice turns "£350,000" into 350000. Price-on-application
// listings carry no digits and are rejected.
func parsePrice(s string) (int64, error) {
	m := priceRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("no price in %q", s)
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing price %q: %w", s, err)
	}
	return n, nil
}

// extractType reduces a card title like "2 bedroom terraced house for sale"
// to the property type the banned-type filter runs against.
func extractType(title string) string {
	t := bedroomRe.ReplaceAllString(strings.TrimSpace(title), "")
	t = strings.TrimSuffix(t, " for sale")
	return strings.TrimSpace(t)
}

// parseAddedOn converts the "Added on 12/08/2026" / "Reduced yesterday"
// card text into unix seconds. Unknown formats yield zero rather than an
// error; the timestamp is informational.
func parseAddedOn(s string, now time.Time) int64 {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}

	switch {
	case strings.HasSuffix(s, "today"):
		return dayStart(now).Unix()
	case strings.HasSuffix(s, "yesterday"):
		return dayStart(now.AddDate(0, 0, -1)).Unix()
	}

	idx := strings.LastIndex(s, " on ")
	if idx < 0 {
		return 0
	}
	t, err := time.Parse("02/01/2006", strings.TrimSpace(s[idx+4:]))
	if err != nil {
		return 0
	}
	return t.Unix()
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

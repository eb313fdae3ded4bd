package portal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/BJPickles/AGSCogs-sub000/internal/listing"
)

var (
	detailsIDRe = regexp.MustCompile(`/details/(\d+)`)
	digitsRe    = regexp.MustCompile(`([\d,]+)`)
	bedPrefixRe = regexp.MustCompile(`(?i)^\d+\s+bed\s+`)
)

// convertItems turns raw extracted cards into Listings. Cards without a
// recognizable listing ID or price are dropped; the page regularly mixes
// ads into the result grid and those carry neither.
func convertItems(items []portalItem, baseURL string) []listing.Listing {
	var out []listing.Listing
	for _, it := range items {
		m := detailsIDRe.FindStringSubmatch(it.Href)
		if m == nil {
			continue
		}

		price, ok := parsePrice(it.Price)
		if !ok {
			continue
		}

		flag := strings.ToLower(it.Flag)

		out = append(out, listing.Listing{
			ExternalID:   m[1],
			Price:        price,
			Address:      strings.TrimSpace(it.Address),
			PropertyType: extractType(it.Title),
			UnderOffer:   strings.Contains(flag, "under offer") || strings.Contains(flag, "sold stc"),
			URL:          absoluteURL(baseURL, it.Href),
			ImageURL:     it.Image,
			Agent:        strings.TrimSpace(it.Agent),
		})
	}
	return out
}

// parsePrice turns "£350,000" into 350000.
func parsePrice(s string) (int64, bool) {
	m := digitsRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractType reduces a card title like "3 bed semi-detached house for
// sale" to the property type string the banned-type filter runs against.
func extractType(title string) string {
	t := bedPrefixRe.ReplaceAllString(strings.TrimSpace(title), "")
	t = strings.TrimSuffix(t, " for sale")
	return strings.TrimSpace(t)
}

func absoluteURL(baseURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if baseURL == "" {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return baseURL + href
}

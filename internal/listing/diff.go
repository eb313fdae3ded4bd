package listing

// ChangeReason explains why a tracked property produced a changed event.
type ChangeReason string

const (
	ReasonPriceChange  ChangeReason = "price_change"
	ReasonUnderOffer   ChangeReason = "under_offer"
	ReasonBackOnMarket ChangeReason = "back_on_market"
)

// Change pairs a tracked property with the listing that changed it.
type Change struct {
	Tracked *TrackedProperty
	Listing Listing
	Reasons []ChangeReason
}

// Seen pairs a tracked property with its unchanged current listing.
// No event is emitted for these, but last_seen still moves forward.
type Seen struct {
	Tracked *TrackedProperty
	Listing Listing
}

// DiffResult partitions one scrape cycle against the previous state.
type DiffResult struct {
	New       []Listing
	Changed   []Change
	Unchanged []Seen
	Vanished  []*TrackedProperty
}

// Diff computes the update set for one cycle: listings never seen before,
// listings whose price or under-offer flag moved (including vanished rows
// that reappeared), listings present with identical price and flags, and
// previously active rows absent from the scrape.
//
// Duplicate external IDs within current are collapsed to the first
// occurrence; pagination overlap must not double-post.
func Diff(prev map[string]*TrackedProperty, current []Listing) DiffResult {
	var result DiffResult

	seen := make(map[string]bool, len(current))
	for _, l := range current {
		if seen[l.ExternalID] {
			continue
		}
		seen[l.ExternalID] = true

		tp, ok := prev[l.ExternalID]
		if !ok {
			result.New = append(result.New, l)
			continue
		}

		var reasons []ChangeReason
		if !tp.Active {
			reasons = append(reasons, ReasonBackOnMarket)
		}
		if tp.Price != l.Price {
			reasons = append(reasons, ReasonPriceChange)
		}
		if tp.UnderOffer != l.UnderOffer {
			reasons = append(reasons, ReasonUnderOffer)
		}

		if len(reasons) == 0 {
			result.Unchanged = append(result.Unchanged, Seen{Tracked: tp, Listing: l})
			continue
		}
		result.Changed = append(result.Changed, Change{Tracked: tp, Listing: l, Reasons: reasons})
	}

	for id, tp := range prev {
		if !seen[id] && tp.Active {
			result.Vanished = append(result.Vanished, tp)
		}
	}

	return result
}

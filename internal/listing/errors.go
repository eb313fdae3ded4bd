package listing

import "errors"

// ErrBlocked marks a scrape cycle rejected by anti-bot defenses
// (403/429 or a captcha interstitial). The monitor loop backs off
// instead of retrying on the normal interval.
var ErrBlocked = errors.New("scrape blocked")

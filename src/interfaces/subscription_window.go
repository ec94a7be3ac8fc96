package interfaces

import "time"

// ISubscriptionWindow answers whether an issue is open for bids.
type ISubscriptionWindow interface {
	IsOpen(now time.Time) bool

	// TimeRemaining renders e.g. "2d 5h remaining" or "Closed".
	TimeRemaining(now time.Time) string
}

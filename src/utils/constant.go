package utils

import "time"

// -----------------------------------------------------------------------------

// Defaults shared by configuration and the maintenance jobs.
const (
	DefaultDraftRetentionDays = 30
	DefaultSessionTTLMinutes  = 30
	DefaultSweepSchedule      = "@every 1m"
	DefaultRetentionSchedule  = "0 3 * * *"
)

// -----------------------------------------------------------------------------

// RetentionCutoff is the instant before which drafts are purged.
func RetentionCutoff(now time.Time, days int) time.Time {
	if days <= 0 {
		days = DefaultDraftRetentionDays
	}
	return now.AddDate(0, 0, -days)
}

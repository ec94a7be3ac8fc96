package utils

import (
	"fmt"
	"strings"
	"time"

	"ipo-wizard/src/models"

	"github.com/scmhub/calendar"
)

// indiaTZ is fixed; IST has no daylight saving.
var indiaTZ = time.FixedZone("IST", 5*60*60+30*60)

// TradingCalendar calculates trading days using scmhub/calendar.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// GetCalendar maps an exchange code to its MIC calendar. Unknown exchanges
// use NSE; if the library has no calendar at all a Mon-Fri 09:15-15:30 IST
// fallback is returned.
func GetCalendar(exchange string) *TradingCalendar {
	mic := "xnse"
	switch strings.ToUpper(strings.TrimSpace(exchange)) {
	case "BSE", "XBOM":
		mic = "xbom"
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil && mic != "xnse" {
		cal = calendar.GetCalendar("xnse")
	}
	if cal == nil {
		return FallbackCalendar()
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// FallbackCalendar is the plain weekday calendar in Indian time.
func FallbackCalendar() *TradingCalendar {
	return &TradingCalendar{Fallback: true, Timezone: indiaTZ}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		// 9:15 - 15:30 IST
		minutes := t.Hour()*60 + t.Minute()
		return minutes >= 9*60+15 && minutes < 15*60+30
	}

	return tc.Calendar.IsOpen(t)
}

// -----------------------------------------------------------------------------
// Subscription window
// -----------------------------------------------------------------------------

// SubscriptionWindow tells whether bids for an issue are accepted. Bids are
// accepted on trading days between the subscription start and end.
type SubscriptionWindow struct {
	Start    time.Time
	End      time.Time
	Calendar *TradingCalendar
}

func NewSubscriptionWindow(issue models.MIssueDescriptor) *SubscriptionWindow {
	return &SubscriptionWindow{
		Start:    issue.SubscriptionStart,
		End:      issue.SubscriptionEnd,
		Calendar: GetCalendar(issue.Exchange),
	}
}

// -----------------------------------------------------------------------------

func (w *SubscriptionWindow) IsOpen(now time.Time) bool {
	if w.End.IsZero() {
		return true
	}
	if now.Before(w.Start) || !now.Before(w.End) {
		return false
	}
	return w.Calendar == nil || w.Calendar.IsTradingDay(now)
}

// -----------------------------------------------------------------------------

// TimeRemaining renders the time to the end of the subscription:
// "2d 5h remaining", "7h remaining" or "Closed".
func (w *SubscriptionWindow) TimeRemaining(now time.Time) string {
	if w.End.IsZero() {
		return ""
	}
	diff := w.End.Sub(now)
	if diff <= 0 {
		return "Closed"
	}

	days := int(diff / (24 * time.Hour))
	hours := int((diff % (24 * time.Hour)) / time.Hour)
	if days > 0 {
		return fmt.Sprintf("%dd %dh remaining", days, hours)
	}
	return fmt.Sprintf("%dh remaining", hours)
}

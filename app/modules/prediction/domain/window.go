package predictiondomain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// IsOpenAt reports whether betting on an event scheduled at dateTime is still
// allowed at instant now. The window closes exactly at dateTime.
func IsOpenAt(dateTime, now time.Time) bool {
	return now.Before(dateTime)
}

// BettingWindow is the single open/closed predicate shared by submission and reveal.
type BettingWindow struct {
	clock clockwork.Clock
}

// NewBettingWindow builds a window over clock; nil means the real clock.
func NewBettingWindow(clock clockwork.Clock) BettingWindow {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return BettingWindow{clock: clock}
}

// Now returns the window's notion of the current time.
func (w BettingWindow) Now() time.Time {
	if w.clock == nil {
		return time.Now()
	}
	return w.clock.Now()
}

// IsOpen reports whether betting is open for an event scheduled at dateTime.
func (w BettingWindow) IsOpen(dateTime time.Time) bool {
	return IsOpenAt(dateTime, w.Now())
}

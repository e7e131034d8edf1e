package predictiondomain

import (
	"fmt"
	"strings"
)

// EventKind identifies which family of events a wager or rule belongs to.
type EventKind string

const (
	KindMatch    EventKind = "match"
	KindSeries   EventKind = "series"
	KindSpecial  EventKind = "special"
	KindQuestion EventKind = "question"
)

// Kinds lists every event kind in a stable order.
var Kinds = []EventKind{KindMatch, KindSeries, KindSpecial, KindQuestion}

var routeSegments = map[string]EventKind{
	"matches":      KindMatch,
	"series":       KindSeries,
	"special-bets": KindSpecial,
	"questions":    KindQuestion,
}

// ParseRouteSegment maps a URL path segment such as "special-bets" to its kind.
func ParseRouteSegment(segment string) (EventKind, error) {
	kind, ok := routeSegments[segment]
	if !ok {
		return "", fmt.Errorf("unknown event kind %q", segment)
	}
	return kind, nil
}

// RouteSegment is the URL path segment of the kind.
func (k EventKind) RouteSegment() string {
	for segment, kind := range routeSegments {
		if kind == k {
			return segment
		}
	}
	return ""
}

// Noun is the human word used in user-facing messages.
func (k EventKind) Noun() string {
	switch k {
	case KindSpecial:
		return "special bet"
	default:
		return string(k)
	}
}

// Title is Noun with a leading capital.
func (k EventKind) Title() string {
	noun := k.Noun()
	if noun == "" {
		return ""
	}
	return strings.ToUpper(noun[:1]) + noun[1:]
}

func (k EventKind) String() string {
	return string(k)
}

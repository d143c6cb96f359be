// Package civiltime converts between civil wall-clock time in a named IANA
// zone and canonical UTC instants. Conversion to UTC happens once at write
// time; every render projects the stored instant into an independently chosen
// viewing zone.
package civiltime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout         = "2006-01-02"
	clockLayout        = "15:04"
	clockSecondsLayout = "15:04:05"
	displayLayout      = "2006-01-02 15:04"
)

var (
	ErrInvalidDateTime = errors.New("invalid civil date/time")
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// ToUTC interprets date ("2006-01-02") plus clock ("15:04" or "15:04:05") as
// wall-clock time in zone and returns the corresponding UTC instant.
//
// Nonexistent wall times (a DST spring-forward gap) are read with the
// post-transition offset, yielding an instant just before the transition.
// Ambiguous wall times (a fall-back overlap) resolve to the earlier of the
// two instants. Both follow time.Date normalization against the IANA
// database; neither is an error.
func ToUTC(date, clock, zone string) (time.Time, error) {
	loc, err := loadLocation(zone)
	if err != nil {
		return time.Time{}, err
	}

	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, date)
	}
	c, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	local := time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc)
	return local.UTC(), nil
}

// FromCivil accepts the combined "2006-01-02T15:04" form (seconds optional)
// used on the wire and delegates to ToUTC.
func FromCivil(value, zone string) (time.Time, error) {
	date, clock, ok := strings.Cut(value, "T")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, value)
	}
	return ToUTC(date, clock, zone)
}

// Rendering is the result of projecting a UTC instant into a viewing zone.
// FallbackUTC is set when the requested zone was unrecognized and the instant
// was rendered in UTC instead; Zone reports the zone actually used.
type Rendering struct {
	Display     string
	Zone        string
	FallbackUTC bool
}

// FormatInZone renders t as local wall-clock time in zone. It never fails:
// an unrecognized zone degrades to UTC with an explicit suffix so the caller
// can surface the fallback instead of losing the render.
func FormatInZone(t time.Time, zone string) Rendering {
	loc, err := loadLocation(zone)
	if err != nil {
		return Rendering{
			Display:     t.UTC().Format(displayLayout) + " (UTC)",
			Zone:        "UTC",
			FallbackUTC: true,
		}
	}
	return Rendering{
		Display: t.In(loc).Format(displayLayout),
		Zone:    zone,
	}
}

func loadLocation(zone string) (*time.Location, error) {
	if zone == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, zone)
	}
	return loc, nil
}

func parseClock(clock string) (time.Time, error) {
	layout := clockLayout
	if strings.Count(clock, ":") == 2 {
		layout = clockSecondsLayout
	}
	c, err := time.Parse(layout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, clock)
	}
	return c, nil
}

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/chronolist/internal/shared"
)

// Precision records how much of a release date the service reported.
type Precision int

const (
	PrecisionDay Precision = iota
	PrecisionMonth
	PrecisionYear
)

func (p Precision) String() string {
	switch p {
	case PrecisionDay:
		return "day"
	case PrecisionMonth:
		return "month"
	case PrecisionYear:
		return "year"
	default:
		return ""
	}
}

var precisionLayouts = []struct {
	layout    string
	precision Precision
}{
	{"2006-01-02", PrecisionDay},
	{"2006-01", PrecisionMonth},
	{"2006", PrecisionYear},
}

// ReleaseDate is an album release date. Truncated dates resolve to the first day of their period.
type ReleaseDate struct {
	time.Time
	Precision Precision
}

// ParseReleaseDate parses "YYYY-MM-DD", "YYYY-MM" or "YYYY".
func ParseReleaseDate(s string) (ReleaseDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ReleaseDate{}, fmt.Errorf("%w: empty", shared.ErrInvalidReleaseDate)
	}

	for _, pl := range precisionLayouts {
		if len(s) != len(pl.layout) {
			continue
		}
		t, err := time.Parse(pl.layout, s)
		if err != nil {
			continue
		}
		// The service reports unknown dates as year zero.
		if t.Year() < 1 {
			return ReleaseDate{}, fmt.Errorf("%w: unknown year %q", shared.ErrInvalidReleaseDate, s)
		}
		return ReleaseDate{Time: t, Precision: pl.precision}, nil
	}
	return ReleaseDate{}, fmt.Errorf("%w: %q", shared.ErrInvalidReleaseDate, s)
}

// String formats the date as YYYY-MM-DD regardless of precision.
func (d ReleaseDate) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

func (d ReleaseDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *ReleaseDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = ReleaseDate{}
		return nil
	}
	parsed, err := ParseReleaseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

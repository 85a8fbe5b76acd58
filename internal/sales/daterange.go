package sales

import (
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
	"github.com/angelmondragon/pdv-terminal/pkg/pdvapi"
)

// DateLayout is the wire format of range bounds.
const DateLayout = "2006-01-02"

// Preset names accepted by ParseRange.
const (
	PresetToday     = "today"
	PresetYesterday = "yesterday"
	Preset7Days     = "7d"
	Preset30Days    = "30d"
	PresetMonth     = "month"
)

// Range is an inclusive calendar-day range. A zero bound is open.
type Range struct {
	Start time.Time
	End   time.Time
}

// Preset resolves a named range relative to now's calendar day.
func Preset(name string, now time.Time) (Range, error) {
	today := day(now)
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PresetToday:
		return Range{Start: today, End: today}, nil
	case PresetYesterday:
		y := today.AddDate(0, 0, -1)
		return Range{Start: y, End: y}, nil
	case Preset7Days:
		return Range{Start: today.AddDate(0, 0, -6), End: today}, nil
	case Preset30Days:
		return Range{Start: today.AddDate(0, 0, -29), End: today}, nil
	case PresetMonth:
		return Range{Start: time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()), End: today}, nil
	default:
		return Range{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown range %q", name).
			WithDetails(map[string]any{"range": []string{PresetToday, PresetYesterday, Preset7Days, Preset30Days, PresetMonth}})
	}
}

// ParseRange resolves query input: a preset wins, then explicit start/end, then today.
func ParseRange(preset, start, end string, now time.Time) (Range, error) {
	if strings.TrimSpace(preset) != "" {
		return Preset(preset, now)
	}
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return Preset(PresetToday, now)
	}

	var r Range
	var err error
	if start != "" {
		if r.Start, err = time.ParseInLocation(DateLayout, start, now.Location()); err != nil {
			return Range{}, pkgerrors.New(pkgerrors.CodeValidation, "start must be YYYY-MM-DD").
				WithDetails(map[string]any{"start": start})
		}
	}
	if end != "" {
		if r.End, err = time.ParseInLocation(DateLayout, end, now.Location()); err != nil {
			return Range{}, pkgerrors.New(pkgerrors.CodeValidation, "end must be YYYY-MM-DD").
				WithDetails(map[string]any{"end": end})
		}
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return Range{}, pkgerrors.New(pkgerrors.CodeValidation, "start must not be after end").
			WithDetails(map[string]any{"start": start, "end": end})
	}
	return r, nil
}

// Wire renders the range as PDV API query bounds.
func (r Range) Wire() pdvapi.DateRange {
	return pdvapi.DateRange{Start: format(r.Start), End: format(r.End)}
}

func format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

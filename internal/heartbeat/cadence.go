package heartbeat

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Cadence computes the next fire time after a given instant. Both the
// hand-written grammar below and the cron-expression extension implement
// it identically from the scheduler's point of view.
type Cadence interface {
	Next(after time.Time) time.Time
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

var unitDurations = map[string]time.Duration{
	"second": time.Second, "minute": time.Minute, "hour": time.Hour,
	"day": 24 * time.Hour, "week": 7 * 24 * time.Hour,
}

// everyInterval fires every Interval after the previous fire (or after the
// instant ParseCadence was first asked about, for the first fire).
type everyInterval struct {
	interval time.Duration
}

func (e everyInterval) Next(after time.Time) time.Time {
	return after.Add(e.interval)
}

// dailyAt fires once a day at a fixed hour:minute.
type dailyAt struct {
	hour, minute int
}

func (d dailyAt) Next(after time.Time) time.Time {
	candidate := time.Date(after.Year(), after.Month(), after.Day(), d.hour, d.minute, 0, 0, after.Location())
	if !candidate.After(after) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// weeklyAt fires once a week, on a fixed weekday, at a fixed hour:minute.
type weeklyAt struct {
	weekday      time.Weekday
	hour, minute int
}

func (w weeklyAt) Next(after time.Time) time.Time {
	candidate := time.Date(after.Year(), after.Month(), after.Day(), w.hour, w.minute, 0, 0, after.Location())
	for candidate.Weekday() != w.weekday || !candidate.After(after) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// cronCadence wraps a github.com/robfig/cron/v3 schedule for the "cron
// <expr>" extended form — a genuinely open grammar, unlike the closed set
// below, which is exactly where a real parser earns its keep.
type cronCadence struct {
	schedule cron.Schedule
}

func (c cronCadence) Next(after time.Time) time.Time {
	return c.schedule.Next(after)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseCadence hand-parses the closed cadence grammar:
//
//	"every <N> (second|minute|hour|day|week)s?"
//	"every day at HH:MM"
//	"every <weekday> at HH:MM"
//
// plus the additive extended form "cron <standard 5-field expression>",
// which is delegated to a real cron parser rather than hand-rolled. An
// unrecognised expression returns an error; it is the caller's job to
// refuse to schedule the heartbeat and log a warning, per §4.J.
func ParseCadence(expr string) (Cadence, error) {
	trimmed := strings.TrimSpace(expr)
	lower := strings.ToLower(trimmed)

	if rest, ok := strings.CutPrefix(lower, "cron "); ok {
		sched, err := cronParser.Parse(strings.TrimSpace(rest))
		if err != nil {
			return nil, fmt.Errorf("heartbeat: invalid cron expression %q: %w", rest, err)
		}
		return cronCadence{schedule: sched}, nil
	}

	fields := strings.Fields(lower)
	if len(fields) < 2 || fields[0] != "every" {
		return nil, fmt.Errorf("heartbeat: unparseable cadence %q", expr)
	}

	// "every day at HH:MM"
	if fields[1] == "day" {
		if len(fields) == 4 && fields[2] == "at" {
			h, m, err := parseHHMM(fields[3])
			if err != nil {
				return nil, fmt.Errorf("heartbeat: unparseable cadence %q: %w", expr, err)
			}
			return dailyAt{hour: h, minute: m}, nil
		}
		return nil, fmt.Errorf("heartbeat: unparseable cadence %q", expr)
	}

	// "every <weekday> at HH:MM"
	if wd, ok := weekdays[fields[1]]; ok {
		if len(fields) == 4 && fields[2] == "at" {
			h, m, err := parseHHMM(fields[3])
			if err != nil {
				return nil, fmt.Errorf("heartbeat: unparseable cadence %q: %w", expr, err)
			}
			return weeklyAt{weekday: wd, hour: h, minute: m}, nil
		}
		return nil, fmt.Errorf("heartbeat: unparseable cadence %q", expr)
	}

	// "every <N> <unit>(s)?"
	if len(fields) == 3 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("heartbeat: unparseable cadence %q", expr)
		}
		unit := strings.TrimSuffix(fields[2], "s")
		dur, ok := unitDurations[unit]
		if !ok {
			return nil, fmt.Errorf("heartbeat: unparseable cadence %q", expr)
		}
		return everyInterval{interval: time.Duration(n) * dur}, nil
	}

	return nil, fmt.Errorf("heartbeat: unparseable cadence %q", expr)
}

func parseHHMM(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

package direction

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Departure is one upcoming scheduled departure
type Departure struct {
	PatternID    string `json:"pattern_id"`
	LineID       string `json:"line_id"`
	Time         string `json:"time"`
	MinutesUntil int    `json:"minutes_until"`
}

// PatternDepartures groups the upcoming departures of one pattern
type PatternDepartures struct {
	PatternID  string      `json:"pattern_id"`
	LineID     string      `json:"line_id"`
	Departures []Departure `json:"departures"`
}

// NextDepartures returns, for each pattern in the direction, up to limit
// departures scheduled at or after now. The wall clock of now is used as is,
// so callers convert it to the timetable's zone first.
func (c *Config) NextDepartures(now time.Time, limit int) []PatternDepartures {
	nowMinutes := now.Hour()*60 + now.Minute()

	var out []PatternDepartures
	for _, patternID := range c.PatternIDs {
		sched, ok := c.Timetable[patternID]
		if !ok {
			continue
		}

		minutes := make([]int, 0, len(sched.Departures))
		for _, dep := range sched.Departures {
			m, err := parseClock(dep)
			if err != nil {
				continue
			}
			minutes = append(minutes, m)
		}
		sort.Ints(minutes)

		group := PatternDepartures{PatternID: patternID, LineID: sched.LineID, Departures: []Departure{}}
		for _, m := range minutes {
			if m < nowMinutes {
				continue
			}
			if limit > 0 && len(group.Departures) >= limit {
				break
			}
			group.Departures = append(group.Departures, Departure{
				PatternID:    patternID,
				LineID:       sched.LineID,
				Time:         formatClock(m),
				MinutesUntil: m - nowMinutes,
			})
		}
		out = append(out, group)
	}
	return out
}

// parseClock converts HH:MM into minutes after midnight
func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid departure time %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid departure hour %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid departure minute %q", s)
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

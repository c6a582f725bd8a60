package event

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
)

const labelDateLayout = "Jan 2, 2006"

// SessionGroup is a run of sessions on consecutive days sharing the same times.
type SessionGroup struct {
	FirstDay  int       `json:"first_day"`
	LastDay   int       `json:"last_day"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Sessions  []Session `json:"sessions"`
	Label     string    `json:"label"`
}

func sortedSessions(sessions []Session) []Session {
	out := make([]Session, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool { return core.DatePart(out[i].Date) < core.DatePart(out[j].Date) })
	return out
}

// nextDay reports whether b falls exactly one calendar day after a.
func nextDay(a, b string) bool {
	da, err := time.Parse(core.DateLayout, core.DatePart(a))
	if err != nil {
		return false
	}
	db, err := time.Parse(core.DateLayout, core.DatePart(b))
	if err != nil {
		return false
	}
	return da.AddDate(0, 0, 1).Equal(db)
}

// GroupSessions merges consecutive-day sessions with identical start and end times.
// Day numbers are the 1-based positions in the date-sorted schedule.
func GroupSessions(sessions []Session) []SessionGroup {
	groups := make([]SessionGroup, 0, len(sessions))
	for i, s := range sortedSessions(sessions) {
		day := i + 1
		if n := len(groups); n > 0 {
			cur := &groups[n-1]
			prev := cur.Sessions[len(cur.Sessions)-1]
			if nextDay(prev.Date, s.Date) && s.StartTime == cur.StartTime && s.EndTime == cur.EndTime {
				cur.Sessions = append(cur.Sessions, s)
				cur.LastDay = day
				cur.EndDate = core.DatePart(s.Date)
				continue
			}
		}
		groups = append(groups, SessionGroup{
			FirstDay:  day,
			LastDay:   day,
			StartDate: core.DatePart(s.Date),
			EndDate:   core.DatePart(s.Date),
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Sessions:  []Session{s},
		})
	}
	for i := range groups {
		groups[i].Label = groups[i].String()
	}
	return groups
}

// String renders the one-line label of the group: days, dates, times and place.
func (g SessionGroup) String() string {
	days := fmt.Sprintf("Day %d", g.FirstDay)
	if g.LastDay != g.FirstDay {
		days = fmt.Sprintf("Day %d–%d", g.FirstDay, g.LastDay)
	}
	dates := formatDate(g.StartDate)
	if g.EndDate != g.StartDate {
		dates += " – " + formatDate(g.EndDate)
	}
	return fmt.Sprintf("%s: %s — %s–%s, %s", days, dates, g.StartTime, g.EndTime, strings.Join(g.Places(), " / "))
}

// Places lists the distinct places of the group's sessions in schedule order.
func (g SessionGroup) Places() []string {
	places := make([]string, 0, 1)
	seen := make(map[string]bool, len(g.Sessions))
	for _, s := range g.Sessions {
		p := s.Place()
		if seen[p] {
			continue
		}
		seen[p] = true
		places = append(places, p)
	}
	return places
}

func formatDate(iso string) string {
	d, err := time.Parse(core.DateLayout, iso)
	if err != nil {
		return iso
	}
	return d.Format(labelDateLayout)
}

// Place describes where the session happens.
func (s Session) Place() string {
	if s.IsOnline {
		if s.MeetingLink != "" || s.Address != "" {
			return "Online (meeting link provided)"
		}
		return "Online"
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{s.Location, s.Address, s.Address2} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Location to be announced"
	}
	return strings.Join(parts, ", ")
}

// ScheduleDates returns the unique session dates, sorted.
func ScheduleDates(sessions []Session) []string {
	seen := make(map[string]bool, len(sessions))
	dates := make([]string, 0, len(sessions))
	for _, s := range sortedSessions(sessions) {
		d := core.DatePart(s.Date)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		dates = append(dates, d)
	}
	return dates
}

// Package calendar renders a church's mass schedule as an iCalendar
// (.ics) file. The dataset stores times of day without weekday
// association, so each mass time becomes a daily-recurring event.
package calendar

import (
	"crypto/sha1"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vietmass/churchfinder/internal/church"
)

// GenerateICS generates an iCalendar file for a church's mass times.
// Events are anchored to today's date in loc and recur daily.
func GenerateICS(rec *church.Record, loc *time.Location) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//churchfinder//churchfinder//VI\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")

	now := time.Now().In(loc)
	uidBase := fmt.Sprintf("%x", sha1.Sum([]byte(rec.URL)))

	for i, massTime := range rec.MassTimes {
		hour, minute, ok := splitClock(massTime)
		if !ok {
			continue
		}

		start := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
		end := start.Add(time.Hour)

		ics.WriteString("BEGIN:VEVENT\r\n")
		ics.WriteString(fmt.Sprintf("UID:%s-%d@churchfinder\r\n", uidBase, i))
		ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(time.Now())))
		ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(start)))
		ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(end)))
		ics.WriteString("RRULE:FREQ=DAILY\r\n")
		ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS("Thánh lễ - "+rec.Name)))
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(rec.Address)))
		if rec.URL != "" {
			ics.WriteString(fmt.Sprintf("URL:%s\r\n", rec.URL))
		}
		ics.WriteString("STATUS:CONFIRMED\r\n")
		ics.WriteString("TRANSP:OPAQUE\r\n")
		ics.WriteString("END:VEVENT\r\n")
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func splitClock(clock string) (hour, minute int, ok bool) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return hour, minute, true
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime.
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters according to RFC 5545.
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
)

// Entry is one exported calendar day: an attendance mark or a holiday
type Entry struct {
	Date    bsdate.Date `json:"bs_date"`
	AD      string      `json:"ad_date"`
	Kind    string      `json:"status"`
	Summary string      `json:"summary"`
	Note    string      `json:"note,omitempty"`
}

// RecordEntries converts attendance records into export entries
func RecordEntries(title string, records []Record) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		ad, err := rec.Date.ToAD()
		if err != nil {
			continue
		}
		label := Statuses[rec.Status]
		if label == "" {
			label = rec.Status
		}
		entries = append(entries, Entry{
			Date:    rec.Date,
			AD:      ad.Format("2006-01-02"),
			Kind:    rec.Status,
			Summary: fmt.Sprintf("%s: %s", title, label),
			Note:    rec.Note,
		})
	}
	return entries
}

// HolidayEntries lists the national and declared holidays of a BS year, sorted by date
func HolidayEntries(year int, declared map[string]string) []Entry {
	all := GetNepalHolidays(year)
	for k, v := range declared {
		all[k] = v
	}

	entries := make([]Entry, 0, len(all))
	for key, name := range all {
		d, err := bsdate.Parse(key)
		if err != nil || d.Year != year {
			continue
		}
		ad, err := d.ToAD()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Date:    d,
			AD:      ad.Format("2006-01-02"),
			Kind:    StatusHoliday,
			Summary: name,
			Note:    name,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries
}

// icsEscape escapes TEXT values (RFC 5545 3.3.11)
var icsEscape = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\r", `\n`, "\n", `\n`)

// icsLine writes one CRLF-terminated content line and logs any error
func icsLine(w io.Writer, format string, args ...interface{}) {
	if _, err := fmt.Fprintf(w, format+"\r\n", args...); err != nil {
		log.Printf("Error writing to response: %v", err)
	}
}

func writeEvent(w io.Writer, subject string, e Entry, alarms func(adDate time.Time)) {
	adDate, err := time.Parse("2006-01-02", e.AD)
	if err != nil {
		return
	}

	// UID is stable across exports
	uid := fmt.Sprintf("%s-%s-%s@%s", e.Date, e.Kind, subject, ICSDomain)

	icsLine(w, "BEGIN:VEVENT")
	icsLine(w, "UID:%s", uid)
	icsLine(w, "DTSTAMP:%s", time.Now().UTC().Format("20060102T150405Z"))
	icsLine(w, "DTSTART;VALUE=DATE:%s", adDate.Format("20060102"))
	icsLine(w, "DTEND;VALUE=DATE:%s", adDate.AddDate(0, 0, 1).Format("20060102"))
	icsLine(w, "SUMMARY:%s", icsEscape.Replace(e.Summary))
	desc := fmt.Sprintf("%s %d (%s)", bsdate.MonthName(e.Date.Month), e.Date.Day, e.Date)
	if e.Note != "" && e.Note != e.Summary {
		desc += ": " + e.Note
	}
	icsLine(w, "DESCRIPTION:%s", icsEscape.Replace(desc))
	if alarms != nil {
		alarms(adDate)
	}
	icsLine(w, "END:VEVENT")
}

// GenerateICS generates an iCalendar (ICS) file with optional reminders
func GenerateICS(w http.ResponseWriter, r *http.Request, subject, title string, year int, entries []Entry) {
	q := r.URL.Query()
	reminder1Day := q.Get("reminder1Day") == "true"
	reminderSameDay := q.Get("reminderSameDay") == "true"
	time1Day := q.Get("time1Day")
	timeSameDay := q.Get("timeSameDay")

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=patro_%s_%d.ics", subject, year))

	icsLine(w, "BEGIN:VCALENDAR")
	icsLine(w, "VERSION:2.0")
	icsLine(w, "PRODID:%s", ICSProductID)
	icsLine(w, "X-WR-CALNAME:%s %d", icsEscape.Replace(title), year)
	icsLine(w, "X-WR-TIMEZONE:%s", ICSTimezone)
	icsLine(w, "CALSCALE:GREGORIAN")

	for _, e := range entries {
		summary := e.Summary
		writeEvent(w, subject, e, func(adDate time.Time) {
			if reminder1Day && time1Day != "" {
				AddAlarm(w, adDate, 1, time1Day, summary)
			}
			if reminderSameDay && timeSameDay != "" {
				AddAlarm(w, adDate, 0, timeSameDay, summary)
			}
		})
	}

	icsLine(w, "END:VCALENDAR")
}

// AddAlarm adds an alarm/reminder to an ICS event. alarmTime is HH:MM on the
// day daysBefore the all-day event.
func AddAlarm(w io.Writer, eventDate time.Time, daysBefore int, alarmTime string, description string) {
	hh, mm, ok := strings.Cut(alarmTime, ":")
	if !ok {
		return
	}
	hour, err1 := strconv.Atoi(hh)
	minute, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return
	}

	// Trigger is relative to the event start at midnight
	offset := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute - time.Duration(daysBefore)*24*time.Hour

	sign := ""
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	totalMinutes := int(offset.Minutes())
	days := totalMinutes / (24 * 60)
	hours := totalMinutes % (24 * 60) / 60
	minutes := totalMinutes % 60

	icsLine(w, "BEGIN:VALARM")
	icsLine(w, "ACTION:DISPLAY")
	icsLine(w, "DESCRIPTION:सम्झना: %s", icsEscape.Replace(description))
	icsLine(w, "TRIGGER:%sP%dDT%dH%dM", sign, days, hours, minutes)
	icsLine(w, "END:VALARM")
}

// GenerateCSV generates a CSV file with one row per entry
func GenerateCSV(w http.ResponseWriter, subject string, year int, entries []Entry) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=patro_%s_%d.csv", subject, year))

	cw := csv.NewWriter(w)
	rows := [][]string{{"bs_date", "ad_date", "status", "note"}}
	for _, e := range entries {
		rows = append(rows, []string{e.Date.String(), e.AD, e.Kind, e.Note})
	}
	if err := cw.WriteAll(rows); err != nil {
		log.Printf("Error writing CSV export: %v", err)
	}
}

// GenerateJSON generates a JSON file with the entries
func GenerateJSON(w http.ResponseWriter, subject string, year int, entries []Entry) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=patro_%s_%d.json", subject, year))

	if entries == nil {
		entries = []Entry{}
	}
	data := map[string]interface{}{
		"subject": subject,
		"year":    year,
		"entries": entries,
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON export: %v", err)
		http.Error(w, ErrFailedToGenerateJSON, http.StatusInternalServerError)
	}
}

// GenerateSubscriptionICS generates an iCalendar (ICS) subscription feed.
// Served inline with METHOD:PUBLISH and a refresh hint; no VALARM blocks.
func GenerateSubscriptionICS(w http.ResponseWriter, subject string, entries []Entry) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")

	icsLine(w, "BEGIN:VCALENDAR")
	icsLine(w, "VERSION:2.0")
	icsLine(w, "PRODID:%s", ICSProductID)
	icsLine(w, "METHOD:PUBLISH")
	icsLine(w, "X-WR-CALNAME:Patro %s", icsEscape.Replace(subject))
	icsLine(w, "X-WR-TIMEZONE:%s", ICSTimezone)
	icsLine(w, "CALSCALE:GREGORIAN")
	icsLine(w, "X-PUBLISHED-TTL:PT1H")

	for _, e := range entries {
		writeEvent(w, subject, e, nil)
	}

	icsLine(w, "END:VCALENDAR")
}

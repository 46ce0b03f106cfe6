package app

import (
	"math"

	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
)

// DayCell is one day of a rendered BS month
type DayCell struct {
	BS      string `json:"bs"`
	AD      string `json:"ad"`
	Day     int    `json:"day"`
	Weekday string `json:"weekday"`
	Status  string `json:"status,omitempty"`
	Holiday string `json:"holiday,omitempty"`
	IsToday bool   `json:"is_today,omitempty"`
}

// Summary counts statuses over a set of days
type Summary struct {
	Present  int `json:"present"`
	Absent   int `json:"absent"`
	Leave    int `json:"leave"`
	Holidays int `json:"holidays"`
	Rate     int `json:"rate"`
}

// YearMonth identifies a BS month
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// MonthView is a BS month laid out for a Sunday-first calendar grid
type MonthView struct {
	Year           int        `json:"year"`
	Month          int        `json:"month"`
	MonthName      string     `json:"month_name"`
	MonthNameLatin string     `json:"month_name_latin"`
	LeadingBlanks  int        `json:"leading_blanks"`
	Days           []DayCell  `json:"days"`
	Summary        Summary    `json:"summary"`
	Prev           *YearMonth `json:"prev,omitempty"`
	Next           *YearMonth `json:"next,omitempty"`
}

// BuildMonth lays out a BS month. statuses maps BS date strings to attendance
// statuses and may be nil; declared holds school-declared holidays.
//
// A day's status is, in order: "holiday" for declared or national holidays,
// the recorded status, "holiday" for the weekly day off, or empty (no data).
func BuildMonth(year, month int, statuses, declared map[string]string, today bsdate.Date) (*MonthView, error) {
	first, err := bsdate.New(year, month, 1)
	if err != nil {
		return nil, err
	}
	dim, err := bsdate.DaysInMonth(year, month)
	if err != nil {
		return nil, err
	}
	firstAD, err := first.ToAD()
	if err != nil {
		return nil, err
	}

	national := GetNepalHolidays(year)

	view := &MonthView{
		Year:           year,
		Month:          month,
		MonthName:      bsdate.MonthName(month),
		MonthNameLatin: bsdate.MonthNameLatin(month),
		LeadingBlanks:  int(firstAD.Weekday()),
		Days:           make([]DayCell, 0, dim),
	}

	for i := 0; i < dim; i++ {
		d := bsdate.Date{Year: year, Month: month, Day: i + 1}
		ad := firstAD.AddDate(0, 0, i)
		key := d.String()

		cell := DayCell{
			BS:      key,
			AD:      ad.Format("2006-01-02"),
			Day:     d.Day,
			Weekday: ad.Weekday().String(),
			IsToday: d == today,
		}

		if name, ok := declared[key]; ok {
			cell.Holiday = name
		} else if name, ok := national[key]; ok {
			cell.Holiday = name
		}

		switch {
		case cell.Holiday != "":
			cell.Status = StatusHoliday
		case statuses[key] != "":
			cell.Status = statuses[key]
		case ad.Weekday() == WeeklyHoliday:
			cell.Status = StatusHoliday
		}

		view.Days = append(view.Days, cell)
	}

	view.Summary = summarize(view.Days)
	if p, ok := PrevMonth(year, month); ok {
		view.Prev = &p
	}
	if n, ok := NextMonth(year, month); ok {
		view.Next = &n
	}
	return view, nil
}

func summarize(days []DayCell) Summary {
	var s Summary
	for _, d := range days {
		switch d.Status {
		case StatusPresent:
			s.Present++
		case StatusAbsent:
			s.Absent++
		case StatusLeave:
			s.Leave++
		case StatusHoliday:
			s.Holidays++
		}
	}
	s.Rate = attendanceRate(s.Present, s.Absent)
	return s
}

func attendanceRate(present, absent int) int {
	if present+absent == 0 {
		return 0
	}
	return int(math.Round(float64(present) * 100 / float64(present+absent)))
}

// SummarizeSpan counts recorded statuses between from and to inclusive.
// Holidays are counted from declared and national holidays and the weekly day off.
func SummarizeSpan(statuses, declared map[string]string, from, to bsdate.Date) (Summary, error) {
	days, err := bsdate.Span(from, to)
	if err != nil {
		return Summary{}, err
	}

	national := make(map[int]map[string]string)
	var s Summary
	for _, d := range days {
		key := d.String()
		if _, ok := national[d.Year]; !ok {
			national[d.Year] = GetNepalHolidays(d.Year)
		}
		_, isDeclared := declared[key]
		_, isNational := national[d.Year][key]

		switch {
		case isDeclared || isNational:
			s.Holidays++
		case statuses[key] == StatusPresent:
			s.Present++
		case statuses[key] == StatusAbsent:
			s.Absent++
		case statuses[key] == StatusLeave:
			s.Leave++
		case statuses[key] == StatusHoliday || IsWeeklyHoliday(d):
			s.Holidays++
		}
	}
	s.Rate = attendanceRate(s.Present, s.Absent)
	return s, nil
}

// PrevMonth returns the month before year/month, or false at the start of the table
func PrevMonth(year, month int) (YearMonth, bool) {
	if month == 1 {
		if !bsdate.InRange(year - 1) {
			return YearMonth{}, false
		}
		return YearMonth{Year: year - 1, Month: 12}, true
	}
	return YearMonth{Year: year, Month: month - 1}, true
}

// NextMonth returns the month after year/month, or false at the end of the table
func NextMonth(year, month int) (YearMonth, bool) {
	if month == 12 {
		if !bsdate.InRange(year + 1) {
			return YearMonth{}, false
		}
		return YearMonth{Year: year + 1, Month: 1}, true
	}
	return YearMonth{Year: year, Month: month + 1}, true
}

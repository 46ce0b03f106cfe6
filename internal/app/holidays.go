package app

import (
	"time"

	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
)

// GetNepalHolidays returns the national public holidays of a BS year, keyed by
// BS date string. Lunar festivals (Dashain, Tihar, ...) move every year and are
// declared per school instead.
func GetNepalHolidays(year int) map[string]string {
	holidays := make(map[string]string)
	if !bsdate.InRange(year) {
		return holidays
	}

	// Fixed BS dates
	addBS(holidays, year, 1, 1, "नयाँ वर्ष")
	addBS(holidays, year, 2, 15, "गणतन्त्र दिवस")
	addBS(holidays, year, 6, 3, "संविधान दिवस")
	addBS(holidays, year, 9, 27, "पृथ्वी जयन्ती")
	addBS(holidays, year, 10, 16, "शहीद दिवस")
	addBS(holidays, year, 11, 7, "प्रजातन्त्र दिवस")

	// Gregorian-fixed days that fall inside this BS year
	first := bsdate.Date{Year: year, Month: 1, Day: 1}
	start, err := first.ToAD()
	if err != nil {
		return holidays
	}
	for _, gy := range []int{start.Year(), start.Year() + 1} {
		addAD(holidays, year, time.Date(gy, time.May, 1, 0, 0, 0, 0, time.UTC), "अन्तर्राष्ट्रिय श्रमिक दिवस")
		addAD(holidays, year, time.Date(gy, time.December, 25, 0, 0, 0, 0, time.UTC), "क्रिसमस")
	}

	return holidays
}

func addBS(holidays map[string]string, year, month, day int, name string) {
	d, err := bsdate.New(year, month, day)
	if err != nil {
		return
	}
	holidays[d.String()] = name
}

func addAD(holidays map[string]string, year int, t time.Time, name string) {
	d, err := bsdate.FromAD(t)
	if err != nil || d.Year != year {
		return
	}
	holidays[d.String()] = name
}

// IsWeeklyHoliday reports whether d falls on the school's weekly day off
func IsWeeklyHoliday(d bsdate.Date) bool {
	wd, err := d.Weekday()
	return err == nil && wd == WeeklyHoliday
}

// HolidayName returns the holiday name for d: school-declared holidays first,
// then national holidays. Empty if d is a regular day.
func HolidayName(d bsdate.Date, declared map[string]string) string {
	key := d.String()
	if name, ok := declared[key]; ok {
		return name
	}
	return GetNepalHolidays(d.Year)[key]
}

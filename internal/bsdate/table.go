// Package bsdate converts dates between the Bikram Sambat (BS) calendar and the
// Gregorian calendar.
//
// BS month lengths are not computable by rule, so conversions are driven by a
// fixed table of month lengths per BS year. Years outside the table are
// rejected with ErrOutOfRangeYear rather than extrapolated.
package bsdate

import (
	"errors"
	"fmt"
)

// BaseYear is the first BS year present in the month table.
const BaseYear = 2081

var (
	ErrOutOfRangeYear  = errors.New("bsdate: year out of range")
	ErrMalformedDate   = errors.New("bsdate: malformed date string")
	ErrInvalidDate     = errors.New("bsdate: invalid date")
	ErrInvalidArgument = errors.New("bsdate: invalid argument")
)

// monthTable holds the days of each month for BaseYear onwards, one row per year.
var monthTable = [...][12]int{
	{31, 32, 31, 32, 31, 30, 30, 30, 29, 30, 29, 31}, // 2081
	{31, 31, 32, 31, 31, 31, 30, 29, 30, 29, 30, 30}, // 2082
	{31, 31, 32, 32, 31, 30, 30, 29, 30, 29, 30, 30}, // 2083
	{31, 32, 31, 32, 31, 30, 30, 30, 29, 29, 30, 31}, // 2084
	{30, 32, 31, 32, 31, 30, 30, 30, 29, 30, 29, 31}, // 2085
	{31, 31, 32, 31, 31, 31, 30, 29, 30, 29, 30, 30}, // 2086
	{31, 31, 32, 32, 31, 30, 30, 29, 30, 29, 30, 30}, // 2087
	{31, 32, 31, 32, 31, 30, 30, 30, 29, 29, 30, 31}, // 2088
	{31, 31, 31, 32, 31, 31, 29, 30, 30, 29, 29, 31}, // 2089
	{31, 31, 32, 31, 31, 31, 30, 29, 30, 29, 30, 30}, // 2090
	{31, 31, 32, 32, 31, 30, 30, 29, 30, 29, 30, 30}, // 2091
}

// FirstYear returns the first supported BS year.
func FirstYear() int { return BaseYear }

// LastYear returns the last supported BS year.
func LastYear() int { return BaseYear + len(monthTable) - 1 }

// InRange reports whether year has a row in the month table.
func InRange(year int) bool {
	idx := year - BaseYear
	return idx >= 0 && idx < len(monthTable)
}

// MonthsInYear returns the twelve month lengths of the given BS year.
// The returned array is a copy.
func MonthsInYear(year int) ([12]int, error) {
	if !InRange(year) {
		return [12]int{}, fmt.Errorf("%w: %d (supported %d-%d)", ErrOutOfRangeYear, year, FirstYear(), LastYear())
	}
	return monthTable[year-BaseYear], nil
}

// DaysInYear returns the total number of days in the given BS year.
func DaysInYear(year int) (int, error) {
	months, err := MonthsInYear(year)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range months {
		total += n
	}
	return total, nil
}

// DaysInMonth returns the length of month (1-12) in the given BS year.
func DaysInMonth(year, month int) (int, error) {
	months, err := MonthsInYear(year)
	if err != nil {
		return 0, err
	}
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: month %d", ErrInvalidDate, month)
	}
	return months[month-1], nil
}

var monthNames = [12]string{
	"वैशाख", "जेठ", "असार", "साउन", "भदौ", "असोज",
	"कार्तिक", "मंसिर", "पुष", "माघ", "फागुन", "चैत",
}

var monthNamesLatin = [12]string{
	"Baisakh", "Jestha", "Asar", "Shrawan", "Bhadra", "Asoj",
	"Kartik", "Mangsir", "Poush", "Magh", "Falgun", "Chaitra",
}

// MonthName returns the Nepali name of month, or "" if month is not 1-12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// MonthNameLatin returns the romanised name of month, or "" if month is not 1-12.
func MonthNameLatin(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNamesLatin[month-1]
}

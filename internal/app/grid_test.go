package app

import (
	"errors"
	"testing"

	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
)

func TestBuildMonth(t *testing.T) {
	statuses := map[string]string{
		"2082-01-01": StatusPresent, // national holiday wins
		"2082-01-02": StatusPresent,
		"2082-01-03": StatusAbsent,
		"2082-01-06": StatusPresent, // Saturday with a mark
	}
	declared := map[string]string{"2082-01-05": "वार्षिकोत्सव"}
	today := bsdate.MustParse("2082-01-10")

	view, err := BuildMonth(2082, 1, statuses, declared, today)
	if err != nil {
		t.Fatalf("BuildMonth() failed: %v", err)
	}

	if view.MonthName != "वैशाख" || view.MonthNameLatin != "Baisakh" {
		t.Errorf("Unexpected month names: %s / %s", view.MonthName, view.MonthNameLatin)
	}
	if len(view.Days) != 31 {
		t.Fatalf("Expected 31 days, got %d", len(view.Days))
	}
	// 2082-01-01 is Monday 2025-04-14
	if view.LeadingBlanks != 1 {
		t.Errorf("Expected 1 leading blank, got %d", view.LeadingBlanks)
	}
	if view.Days[0].AD != "2025-04-14" || view.Days[0].Weekday != "Monday" {
		t.Errorf("Unexpected first day: %+v", view.Days[0])
	}

	tests := []struct {
		day         int
		wantStatus  string
		wantHoliday string
	}{
		{1, StatusHoliday, "नयाँ वर्ष"},
		{2, StatusPresent, ""},
		{3, StatusAbsent, ""},
		{4, "", ""},
		{5, StatusHoliday, "वार्षिकोत्सव"},
		{6, StatusPresent, ""},
		{13, StatusHoliday, ""},
		{14, "", ""},
	}
	for _, tt := range tests {
		cell := view.Days[tt.day-1]
		if cell.Status != tt.wantStatus || cell.Holiday != tt.wantHoliday {
			t.Errorf("day %d: got status %q holiday %q, want %q %q",
				tt.day, cell.Status, cell.Holiday, tt.wantStatus, tt.wantHoliday)
		}
	}

	if !view.Days[9].IsToday {
		t.Error("Day 10 should be marked as today")
	}
	for i, c := range view.Days {
		if c.IsToday && i != 9 {
			t.Errorf("Day %d should not be today", i+1)
		}
	}

	want := Summary{Present: 2, Absent: 1, Leave: 0, Holidays: 6, Rate: 67} // 1, 5, 18 (May 1) and Saturdays 13, 20, 27
	if view.Summary != want {
		t.Errorf("Summary = %+v, want %+v", view.Summary, want)
	}

	if view.Prev == nil || *view.Prev != (YearMonth{2081, 12}) {
		t.Errorf("Unexpected prev: %+v", view.Prev)
	}
	if view.Next == nil || *view.Next != (YearMonth{2082, 2}) {
		t.Errorf("Unexpected next: %+v", view.Next)
	}
}

func TestBuildMonth_NoData(t *testing.T) {
	view, err := BuildMonth(2082, 3, nil, nil, bsdate.Date{})
	if err != nil {
		t.Fatalf("BuildMonth() failed: %v", err)
	}
	if len(view.Days) != 32 {
		t.Errorf("Asar 2082 has 32 days, got %d", len(view.Days))
	}
	if view.Summary.Rate != 0 || view.Summary.Present != 0 {
		t.Errorf("Expected empty summary, got %+v", view.Summary)
	}
}

func TestBuildMonth_Errors(t *testing.T) {
	if _, err := BuildMonth(2070, 1, nil, nil, bsdate.Date{}); !errors.Is(err, bsdate.ErrOutOfRangeYear) {
		t.Errorf("Expected ErrOutOfRangeYear, got %v", err)
	}
	if _, err := BuildMonth(2082, 13, nil, nil, bsdate.Date{}); !errors.Is(err, bsdate.ErrInvalidDate) {
		t.Errorf("Expected ErrInvalidDate, got %v", err)
	}
}

func TestMonthNavigationBounds(t *testing.T) {
	if _, ok := PrevMonth(bsdate.FirstYear(), 1); ok {
		t.Error("PrevMonth should stop at the first table month")
	}
	if _, ok := NextMonth(bsdate.LastYear(), 12); ok {
		t.Error("NextMonth should stop at the last table month")
	}
	if ym, ok := NextMonth(2082, 12); !ok || ym != (YearMonth{2083, 1}) {
		t.Errorf("NextMonth(2082, 12) = %+v, %v", ym, ok)
	}

	view, err := BuildMonth(bsdate.FirstYear(), 1, nil, nil, bsdate.Date{})
	if err != nil {
		t.Fatalf("BuildMonth() failed: %v", err)
	}
	if view.Prev != nil {
		t.Error("First table month should have no prev")
	}
}

func TestSummarizeSpan(t *testing.T) {
	statuses := map[string]string{
		"2082-01-02": StatusPresent,
		"2082-01-03": StatusAbsent,
		"2082-01-06": StatusPresent,
		"2082-01-09": StatusLeave,
	}
	declared := map[string]string{"2082-01-05": "वार्षिकोत्सव"}

	got, err := SummarizeSpan(statuses, declared, bsdate.MustParse("2082-01-01"), bsdate.MustParse("2082-01-10"))
	if err != nil {
		t.Fatalf("SummarizeSpan() failed: %v", err)
	}
	want := Summary{Present: 2, Absent: 1, Leave: 1, Holidays: 2, Rate: 67}
	if got != want {
		t.Errorf("SummarizeSpan() = %+v, want %+v", got, want)
	}

	if _, err := SummarizeSpan(nil, nil, bsdate.MustParse("2082-02-01"), bsdate.MustParse("2082-01-01")); !errors.Is(err, bsdate.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for reversed range, got %v", err)
	}
}

func TestAttendanceRate(t *testing.T) {
	tests := []struct {
		present, absent, want int
	}{
		{0, 0, 0},
		{1, 0, 100},
		{0, 3, 0},
		{2, 1, 67},
		{1, 2, 33},
		{1, 1, 50},
	}
	for _, tt := range tests {
		if got := attendanceRate(tt.present, tt.absent); got != tt.want {
			t.Errorf("attendanceRate(%d, %d) = %d, want %d", tt.present, tt.absent, got, tt.want)
		}
	}
}

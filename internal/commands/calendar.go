package commands

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shikshalaya/sms-services/patro/internal/app"
	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
	"github.com/shikshalaya/sms-services/patro/internal/tui"
)

// Calendar handles the calendar subcommand: an interactive month viewer
func Calendar(args []string) {
	fs := flag.NewFlagSet("calendar", flag.ExitOnError)
	student := fs.String("student", "", "Show attendance of this student ID")
	year := fs.Int("year", 0, "BS year to open (default: current)")
	month := fs.Int("month", 0, "BS month to open (default: current)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: patro calendar [OPTIONS]\n\n")
		fmt.Fprintf(os.Stderr, "Browses the BS calendar in the terminal.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if err := app.LoadAllYears(); err != nil {
		fail("Failed to load attendance data: %v", err)
	}

	today, err := app.Today()
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Today is outside the calendar table: %v\n", err)
	}

	cfg := tui.Config{
		Title:    "Patro",
		Year:     *year,
		Month:    *month,
		Today:    today,
		Holidays: app.DeclaredHolidays,
	}
	if cfg.Year == 0 {
		cfg.Year = app.GetCurrentYear()
	}
	if cfg.Month == 0 {
		cfg.Month = 1
		if today.Year == cfg.Year {
			cfg.Month = today.Month
		}
	}
	if !bsdate.InRange(cfg.Year) {
		fail("Year %d is outside the calendar table (%d-%d)", cfg.Year, bsdate.FirstYear(), bsdate.LastYear())
	}

	if *student != "" {
		if !app.StudentExists(*student) {
			fail("Unknown student: %s", *student)
		}
		cfg.Title = "Patro: " + *student
		cfg.Statuses = app.StudentStatuses(*student)
	}

	if _, err := tea.NewProgram(tui.New(cfg), tea.WithAltScreen()).Run(); err != nil {
		fail("Error: %v", err)
	}
}

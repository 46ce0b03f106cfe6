package commands

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/shikshalaya/sms-services/patro/internal/app"
	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
)

// ImportHolidays handles the import-holidays subcommand
func ImportHolidays(args []string) {
	fs := flag.NewFlagSet("import-holidays", flag.ExitOnError)
	file := fs.String("file", "", "HTML file with a holiday table (required)")
	year := fs.Int("year", 0, "Only import holidays of this BS year (0 = all)")
	commit := fs.Bool("commit", false, "Commit imported holidays immediately")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: patro import-holidays -file notice.html [OPTIONS]\n\n")
		fmt.Fprintf(os.Stderr, "Imports school-declared holidays from an HTML notice table.\n")
		fmt.Fprintf(os.Stderr, "Without -commit the changes stay in tmp files for review in edit mode.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if *file == "" {
		fs.Usage()
		os.Exit(2)
	}
	if *year != 0 && !bsdate.InRange(*year) {
		fail("Year %d is outside the calendar table (%d-%d)", *year, bsdate.FirstYear(), bsdate.LastYear())
	}

	holidays, rowErrs, err := readHolidayFile(*file, *year)
	if err != nil {
		fail("Error: %v", err)
	}

	if err := app.LoadAllYearsWithTmpCheck(); err != nil {
		fail("Failed to load attendance data: %v", err)
	}

	for _, rowErr := range rowErrs {
		log.Printf("⚠️  Skipped %v", rowErr)
	}

	changed, err := app.ApplyHolidays(holidays)
	if err != nil {
		fail("Failed to apply holidays: %v", err)
	}
	fmt.Printf("✅ %d holidays read, %d new or renamed\n", len(holidays), changed)

	if *commit && app.HasTmpChanges() {
		if err := app.CommitAllYears(); err != nil {
			fail("Commit failed: %v", err)
		}
		fmt.Println("✅ Changes committed")
	}
}

// readHolidayFile parses the holiday table in path. The file is closed before returning.
func readHolidayFile(path string, year int) (map[string]string, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	return app.ImportHolidaysHTML(f, year)
}

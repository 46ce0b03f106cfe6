package app

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
)

// devanagariDigits maps ०-९ to ASCII digits
var devanagariDigits = strings.NewReplacer(
	"०", "0", "१", "1", "२", "2", "३", "3", "४", "4",
	"५", "5", "६", "6", "७", "7", "८", "8", "९", "9",
)

// ImportHolidaysHTML reads school holidays from the first HTML table that has a
// date column. The column is found by its header; a table without a matching
// header is read as plain date/name rows when its first cell is a BS date.
// Date cells are BS dates in YYYY-MM-DD form, in ASCII or Devanagari digits.
// Rows outside year are skipped when year is non-zero.
// Bad rows are returned as rowErrs; err is set only when the document is unusable.
func ImportHolidaysHTML(r io.Reader, year int) (holidays map[string]string, rowErrs []error, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	holidays = make(map[string]string)
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		dateCol, nameCol := -1, -1
		table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
			header := strings.ToLower(strings.TrimSpace(cell.Text()))
			switch {
			case dateCol < 0 && (strings.Contains(header, "date") || strings.Contains(header, "मिति")):
				dateCol = i
			case nameCol < 0 && (strings.Contains(header, "name") || strings.Contains(header, "holiday") ||
				strings.Contains(header, "विवरण") || strings.Contains(header, "बिदा")):
				nameCol = i
			}
		})
		firstRow := 1
		if dateCol < 0 {
			if !isBSDateCell(table.Find("tr").First().Find("td").First()) {
				return true
			}
			dateCol, nameCol, firstRow = 0, 1, 0
		}
		found = true

		table.Find("tr").Each(func(rowIndex int, row *goquery.Selection) {
			if rowIndex < firstRow {
				return
			}
			cells := row.Find("td")
			if cells.Length() <= dateCol {
				return
			}

			raw := strings.TrimSpace(cells.Eq(dateCol).Text())
			d, err := bsdate.Parse(devanagariDigits.Replace(raw))
			if err != nil {
				rowErrs = append(rowErrs, fmt.Errorf("row %d: %w", rowIndex, err))
				return
			}
			if year != 0 && d.Year != year {
				return
			}

			name := DefaultHolidayName
			if nameCol >= 0 && cells.Length() > nameCol {
				if n := strings.Join(strings.Fields(cells.Eq(nameCol).Text()), " "); n != "" {
					name = n
				}
			}
			holidays[d.String()] = name
		})
		return false
	})

	if !found {
		return nil, nil, fmt.Errorf("no table with a date column found")
	}
	return holidays, rowErrs, nil
}

func isBSDateCell(cell *goquery.Selection) bool {
	if cell.Length() == 0 {
		return false
	}
	_, err := bsdate.Parse(devanagariDigits.Replace(strings.TrimSpace(cell.Text())))
	return err == nil
}

// ApplyHolidays merges declared holidays into the store and auto-saves each
// touched year to its tmp file. Returns how many dates were new or renamed.
func ApplyHolidays(holidays map[string]string) (int, error) {
	StoreMutex.Lock()
	defer StoreMutex.Unlock()

	changed := 0
	touched := make(map[int]bool)
	for key, name := range holidays {
		d, err := bsdate.Parse(key)
		if err != nil {
			return changed, err
		}
		data := ensureYearLocked(d.Year)
		if data.Holidays[key] == name {
			continue
		}
		data.Holidays[key] = name
		touched[d.Year] = true
		changed++
	}

	for year := range touched {
		if err := saveTmpYear(year); err != nil {
			return changed, fmt.Errorf("failed to save %d: %w", year, err)
		}
		log.Printf("✅ Holidays for %d saved to %s", year, tmpYearFile(year))
	}
	return changed, nil
}

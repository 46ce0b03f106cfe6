package app

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
)

// RequireMethod validates that the request uses the specified HTTP method
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// RequireEditMode validates that edit mode is enabled
func RequireEditMode(w http.ResponseWriter) bool {
	if !EditMode {
		http.Error(w, ErrEditModeDisabled, http.StatusForbidden)
		return false
	}
	return true
}

// SortRecordsByDate sorts records by BS date in ascending order
func SortRecordsByDate(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}

// writeJSON encodes v as the JSON response body
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeStatus(w http.ResponseWriter, status string) {
	writeJSON(w, map[string]string{"status": status})
}

// Today returns the current BS date in the school's timezone
func Today() (bsdate.Date, error) {
	return bsdate.Today(SchoolLocation)
}

// GetCurrentYear returns the current BS year, clamped to the calendar table
func GetCurrentYear() int {
	today, err := Today()
	if err != nil {
		if time.Now().Before(bsdate.AnchorAD) {
			return bsdate.FirstYear()
		}
		return bsdate.LastYear()
	}
	return today.Year
}

// parseYearMonth reads the year and month query params, defaulting to the current BS month
func parseYearMonth(r *http.Request) (int, int, string) {
	year, month := GetCurrentYear(), 1
	if today, err := Today(); err == nil {
		month = today.Month
	}

	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, ErrInvalidYear
		}
		year = y
	}
	if s := r.URL.Query().Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, ErrInvalidMonth
		}
		month = m
	}
	return year, month, ""
}

// dateErrorStatus maps bsdate errors to an HTTP status and message
func dateErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, bsdate.ErrOutOfRangeYear):
		return http.StatusNotFound, ErrYearNotInTable
	case errors.Is(err, bsdate.ErrMalformedDate), errors.Is(err, bsdate.ErrInvalidDate):
		return http.StatusBadRequest, ErrInvalidDateFormat
	case errors.Is(err, bsdate.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, ErrInternalServer
	}
}

// writeDateError writes the HTTP error for a bsdate error
func writeDateError(w http.ResponseWriter, err error) {
	status, msg := dateErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("Error converting date: %v", err)
	}
	http.Error(w, msg, status)
}

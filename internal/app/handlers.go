package app

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
)

// ServeIndex serves the calendar interface HTML
func ServeIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(IndexHTML); err != nil {
		log.Printf("Error writing index HTML: %v", err)
	}
}

// GetConfig returns the application configuration
func GetConfig(w http.ResponseWriter, r *http.Request) {
	currentYear := GetCurrentYear()

	config := map[string]interface{}{
		"statuses":       Statuses,
		"firstYear":      bsdate.FirstYear(),
		"lastYear":       bsdate.LastYear(),
		"currentYear":    currentYear,
		"availableYears": GetAvailableYears(),
		"editMode":       EditMode,
		"weeklyHoliday":  WeeklyHoliday.String(),
		"timezone":       SchoolLocation.String(),
		"holidays":       GetNepalHolidays(currentYear),
	}
	if today, err := Today(); err == nil {
		config["today"] = today.String()
		if ad, err := today.ToAD(); err == nil {
			config["todayAD"] = ad.Format("2006-01-02")
		}
	}
	writeJSON(w, config)
}

// dateInfo describes one day in both calendars
type dateInfo struct {
	BS             string `json:"bs"`
	AD             string `json:"ad"`
	Weekday        string `json:"weekday"`
	MonthName      string `json:"month_name"`
	MonthNameLatin string `json:"month_name_latin"`
	DayOfYear      int    `json:"day_of_year"`
	Holiday        string `json:"holiday,omitempty"`
}

func describe(d bsdate.Date) (*dateInfo, error) {
	ad, err := d.ToAD()
	if err != nil {
		return nil, err
	}
	doy, err := d.DayOfYear()
	if err != nil {
		return nil, err
	}
	name := HolidayName(d, DeclaredHolidays(d.Year))
	if name == "" && ad.Weekday() == WeeklyHoliday {
		name = Statuses[StatusHoliday]
	}
	return &dateInfo{
		BS:             d.String(),
		AD:             ad.Format("2006-01-02"),
		Weekday:        ad.Weekday().String(),
		MonthName:      bsdate.MonthName(d.Month),
		MonthNameLatin: bsdate.MonthNameLatin(d.Month),
		DayOfYear:      doy,
		Holiday:        name,
	}, nil
}

// HandleToday returns today's date in the school's timezone
func HandleToday(w http.ResponseWriter, r *http.Request) {
	today, err := Today()
	if err != nil {
		writeDateError(w, err)
		return
	}
	info, err := describe(today)
	if err != nil {
		writeDateError(w, err)
		return
	}
	writeJSON(w, info)
}

// HandleConvert converts between BS and Gregorian dates
// Query param: bs=YYYY-MM-DD or ad=YYYY-MM-DD
func HandleConvert(w http.ResponseWriter, r *http.Request) {
	bsStr := r.URL.Query().Get("bs")
	adStr := r.URL.Query().Get("ad")

	var d bsdate.Date
	var err error
	switch {
	case bsStr != "" && adStr != "":
		http.Error(w, "Use either bs or ad, not both", http.StatusBadRequest)
		return
	case bsStr != "":
		d, err = bsdate.Parse(bsStr)
	case adStr != "":
		var t time.Time
		t, err = time.Parse("2006-01-02", strings.TrimSpace(adStr))
		if err != nil {
			http.Error(w, ErrInvalidDateFormat, http.StatusBadRequest)
			return
		}
		d, err = bsdate.FromAD(t)
	default:
		http.Error(w, "Missing bs or ad parameter", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeDateError(w, err)
		return
	}

	info, err := describe(d)
	if err != nil {
		writeDateError(w, err)
		return
	}
	writeJSON(w, info)
}

// HandleCalendar returns a BS month grid without attendance
// Query params: year, month (default to the current BS month)
func HandleCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, msg := parseYearMonth(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	writeMonth(w, year, month, nil)
}

func writeMonth(w http.ResponseWriter, year, month int, statuses map[string]string) {
	today, _ := Today()
	view, err := BuildMonth(year, month, statuses, DeclaredHolidays(year), today)
	if err != nil {
		writeDateError(w, err)
		return
	}
	writeJSON(w, view)
}

// HandleStudentAttendance returns a student's month grid, or their summary
// URL: /api/attendance/{student}?year=2082&month=3
// URL: /api/attendance/{student}/summary?from=2082-01-01&to=2082-03-15
func HandleStudentAttendance(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(r.URL.Path[len("/api/attendance/"):], "/")
	studentID, sub, _ := strings.Cut(rest, "/")
	if studentID == "" {
		http.Error(w, ErrMissingStudent, http.StatusBadRequest)
		return
	}
	if !StudentExists(studentID) {
		http.Error(w, ErrStudentNotFound, http.StatusNotFound)
		return
	}

	switch sub {
	case "":
		year, month, msg := parseYearMonth(r)
		if msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		writeMonth(w, year, month, StudentStatuses(studentID))
	case "summary":
		handleSummary(w, r, studentID)
	default:
		http.NotFound(w, r)
	}
}

// StudentStatuses maps BS date strings to the student's status across all years
func StudentStatuses(studentID string) map[string]string {
	records := GetStudentRecords(studentID)
	out := make(map[string]string, len(records))
	for _, rec := range records {
		out[rec.Date.String()] = rec.Status
	}
	return out
}

func handleSummary(w http.ResponseWriter, r *http.Request, studentID string) {
	fromStr, toStr := r.URL.Query().Get("from"), r.URL.Query().Get("to")

	var from, to bsdate.Date
	var err error
	if fromStr == "" || toStr == "" {
		// Default range: start of the current BS year up to today
		if to, err = Today(); err != nil {
			writeDateError(w, err)
			return
		}
		from = bsdate.Date{Year: to.Year, Month: 1, Day: 1}
	}
	if fromStr != "" {
		if from, err = bsdate.Parse(fromStr); err != nil {
			writeDateError(w, err)
			return
		}
	}
	if toStr != "" {
		if to, err = bsdate.Parse(toStr); err != nil {
			writeDateError(w, err)
			return
		}
	}

	declared := make(map[string]string)
	for y := from.Year; y <= to.Year; y++ {
		for k, v := range DeclaredHolidays(y) {
			declared[k] = v
		}
	}

	summary, err := SummarizeSpan(StudentStatuses(studentID), declared, from, to)
	if err != nil {
		writeDateError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"student": studentID,
		"from":    from,
		"to":      to,
		"summary": summary,
	})
}

// MarkAttendance records a student's status for one BS day (edit mode only)
func MarkAttendance(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) || !RequireEditMode(w) {
		return
	}

	var req MarkRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	d := bsdate.MustParse(req.Date)

	StoreMutex.Lock()
	defer StoreMutex.Unlock()

	yearData := ensureYearLocked(d.Year)
	student, ok := yearData.Students[req.StudentID]
	if !ok {
		student = &Student{Records: []Record{}}
		yearData.Students[req.StudentID] = student
	}

	var id uuid.UUID
	found := false
	for i := range student.Records {
		if student.Records[i].Date != d {
			continue
		}
		found = true
		if !req.Overwrite {
			writeStatus(w, "exists")
			return
		}
		student.Records[i].Status = req.Status
		student.Records[i].Note = req.Note
		student.Records[i].MarkedAt = time.Now().UTC()
		id = student.Records[i].ID
		break
	}

	if !found {
		id = uuid.New()
		student.Records = append(student.Records, Record{
			ID:       id,
			Date:     d,
			Status:   req.Status,
			Note:     req.Note,
			MarkedAt: time.Now().UTC(),
		})
		SortRecordsByDate(student.Records)
	}

	if req.Name != "" {
		student.Name = req.Name
	}
	if req.Class != "" {
		student.Class = req.Class
	}

	// Auto-save to tmp file
	if err := saveTmpYear(d.Year); err != nil {
		log.Printf("Error saving tmp attendance: %v", err)
		http.Error(w, ErrFailedToSave, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "ok", "id": id.String()})
}

// UnmarkAttendance removes a student's record for one BS day (edit mode only)
func UnmarkAttendance(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) || !RequireEditMode(w) {
		return
	}

	var req UnmarkRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	d := bsdate.MustParse(req.Date)

	StoreMutex.Lock()
	defer StoreMutex.Unlock()

	yearData, ok := Store.Years[d.Year]
	if !ok {
		http.Error(w, ErrYearNotFound, http.StatusNotFound)
		return
	}

	if student, ok := yearData.Students[req.StudentID]; ok {
		kept := student.Records[:0]
		for _, rec := range student.Records {
			if rec.Date != d {
				kept = append(kept, rec)
			}
		}
		student.Records = kept

		if err := saveTmpYear(d.Year); err != nil {
			log.Printf("Error saving tmp attendance: %v", err)
			http.Error(w, ErrFailedToSave, http.StatusInternalServerError)
			return
		}
	}

	writeStatus(w, "ok")
}

// AddHoliday declares a school holiday (edit mode only)
func AddHoliday(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) || !RequireEditMode(w) {
		return
	}

	var req HolidayRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	d := bsdate.MustParse(req.Date)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = DefaultHolidayName
	}

	StoreMutex.Lock()
	defer StoreMutex.Unlock()

	yearData := ensureYearLocked(d.Year)
	yearData.Holidays[d.String()] = name

	if err := saveTmpYear(d.Year); err != nil {
		log.Printf("Error saving tmp attendance: %v", err)
		http.Error(w, ErrFailedToSave, http.StatusInternalServerError)
		return
	}

	writeStatus(w, "ok")
}

// DeleteHoliday removes a declared school holiday (edit mode only)
func DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) || !RequireEditMode(w) {
		return
	}

	var req HolidayRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	d := bsdate.MustParse(req.Date)

	StoreMutex.Lock()
	defer StoreMutex.Unlock()

	yearData, ok := Store.Years[d.Year]
	if !ok {
		http.Error(w, ErrYearNotFound, http.StatusNotFound)
		return
	}

	if _, ok := yearData.Holidays[d.String()]; ok {
		delete(yearData.Holidays, d.String())
		if err := saveTmpYear(d.Year); err != nil {
			log.Printf("Error saving tmp attendance: %v", err)
			http.Error(w, ErrFailedToSave, http.StatusInternalServerError)
			return
		}
	}

	writeStatus(w, "ok")
}

// HandleCalendarCommit commits temporary changes
func HandleCalendarCommit(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) || !RequireEditMode(w) {
		return
	}

	if err := CommitAllYears(); err != nil {
		log.Printf("Error committing attendance: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeStatus(w, "ok")
}

// HandleCalendarRevert reverts temporary changes
func HandleCalendarRevert(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) || !RequireEditMode(w) {
		return
	}

	if err := RevertAllYears(); err != nil {
		log.Printf("Error reverting attendance: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeStatus(w, "ok")
}

// HandleCalendarStatus returns whether there are unsaved changes
func HandleCalendarStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireEditMode(w) {
		return
	}
	writeJSON(w, map[string]interface{}{
		"has_changes": HasTmpChanges(),
		"years":       tmpYears(),
	})
}

// HandleDownload handles export downloads in ICS, CSV or JSON format
// Query params: student or kind=holidays, year, format
func HandleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year := GetCurrentYear()
	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			http.Error(w, ErrInvalidYear, http.StatusBadRequest)
			return
		}
		year = y
	}
	if !bsdate.InRange(year) {
		http.Error(w, ErrYearNotInTable, http.StatusNotFound)
		return
	}

	var subject, title string
	var entries []Entry
	if q.Get("kind") == "holidays" {
		subject = "holidays"
		title = DefaultHolidayName
		entries = HolidayEntries(year, DeclaredHolidays(year))
	} else {
		subject = q.Get("student")
		if subject == "" {
			http.Error(w, ErrMissingStudent, http.StatusBadRequest)
			return
		}
		yearData, ok := GetYear(year)
		if !ok {
			http.Error(w, ErrYearNotFound, http.StatusNotFound)
			return
		}
		student, ok := yearData.Students[subject]
		if !ok {
			http.Error(w, ErrStudentNotFound, http.StatusNotFound)
			return
		}
		title = subject
		if student.Name != "" {
			title = student.Name
		}
		entries = RecordEntries(title, student.Records)
	}

	switch q.Get("format") {
	case "ics":
		GenerateICS(w, r, subject, title, year, entries)
	case "csv":
		GenerateCSV(w, subject, year, entries)
	case "json":
		GenerateJSON(w, subject, year, entries)
	default:
		http.Error(w, ErrInvalidFormat, http.StatusBadRequest)
	}
}

// HandleSubscribe handles calendar subscription requests
// Returns an ICS feed with a student's records from the previous BS year onwards
func HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	studentID := strings.Trim(r.URL.Path[len("/api/subscribe/"):], "/")
	if studentID == "" {
		http.Error(w, ErrMissingStudent, http.StatusBadRequest)
		return
	}
	if !StudentExists(studentID) {
		http.Error(w, ErrStudentNotFound, http.StatusNotFound)
		return
	}

	minYear := GetCurrentYear() - 1
	var records []Record
	for _, rec := range GetStudentRecords(studentID) {
		if rec.Date.Year >= minYear {
			records = append(records, rec)
		}
	}

	GenerateSubscriptionICS(w, studentID, RecordEntries(studentID, records))
}

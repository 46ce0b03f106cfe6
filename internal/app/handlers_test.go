package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
)

// setupTestStore points the store at a temp dir and enables edit mode
func setupTestStore(t *testing.T) {
	t.Helper()

	oldPath, oldStore, oldEdit := DataPath, Store, EditMode
	t.Cleanup(func() {
		StoreMutex.Lock()
		DataPath, Store, EditMode = oldPath, oldStore, oldEdit
		StoreMutex.Unlock()
	})

	StoreMutex.Lock()
	DataPath = t.TempDir()
	Store = NewAttendanceStore()
	EditMode = true
	StoreMutex.Unlock()
}

// seedAttendance adds student s-101 with four marks and one declared holiday in year
func seedAttendance(t *testing.T, year int) {
	t.Helper()

	StoreMutex.Lock()
	defer StoreMutex.Unlock()

	day := func(m, d int) bsdate.Date { return bsdate.Date{Year: year, Month: m, Day: d} }
	data := ensureYearLocked(year)
	data.Students["s-101"] = &Student{
		Name:  "Ram Thapa",
		Class: "5A",
		Records: []Record{
			{ID: uuid.New(), Date: day(1, 1), Status: StatusPresent},
			{ID: uuid.New(), Date: day(1, 2), Status: StatusPresent},
			{ID: uuid.New(), Date: day(1, 3), Status: StatusAbsent},
			{ID: uuid.New(), Date: day(1, 6), Status: StatusPresent},
		},
	}
	data.Holidays[day(1, 5).String()] = "वार्षिकोत्सव"
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
}

func TestHandleConvert(t *testing.T) {
	setupTestStore(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBS     string
		wantAD     string
	}{
		{"bs to ad", "bs=2082-01-01", http.StatusOK, "2082-01-01", "2025-04-14"},
		{"ad to bs", "ad=2026-10-19", http.StatusOK, "2083-07-02", "2026-10-19"},
		{"epoch", "ad=2024-04-13", http.StatusOK, "2081-01-01", "2024-04-13"},
		{"missing", "", http.StatusBadRequest, "", ""},
		{"both", "bs=2082-01-01&ad=2025-04-14", http.StatusBadRequest, "", ""},
		{"malformed bs", "bs=2082/01/01", http.StatusBadRequest, "", ""},
		{"invalid day", "bs=2082-01-32", http.StatusBadRequest, "", ""},
		{"malformed ad", "ad=14-04-2025", http.StatusBadRequest, "", ""},
		{"bs out of table", "bs=2070-01-01", http.StatusNotFound, "", ""},
		{"ad before table", "ad=2020-01-01", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, HandleConvert, "GET", "/api/convert?"+tt.query, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var info dateInfo
			decodeBody(t, w, &info)
			if info.BS != tt.wantBS || info.AD != tt.wantAD {
				t.Errorf("Got %s / %s, want %s / %s", info.BS, info.AD, tt.wantBS, tt.wantAD)
			}
		})
	}
}

func TestHandleConvert_Details(t *testing.T) {
	setupTestStore(t)

	w := doJSON(t, HandleConvert, "GET", "/api/convert?bs=2082-01-01", "")
	var info dateInfo
	decodeBody(t, w, &info)

	if info.Weekday != "Monday" {
		t.Errorf("Expected Monday, got %s", info.Weekday)
	}
	if info.DayOfYear != 1 || info.MonthName != "वैशाख" {
		t.Errorf("Unexpected details: %+v", info)
	}
	if info.Holiday != "नयाँ वर्ष" {
		t.Errorf("Expected new year holiday, got %q", info.Holiday)
	}
}

func TestHandleCalendar(t *testing.T) {
	setupTestStore(t)
	seedAttendance(t, 2082)

	w := doJSON(t, HandleCalendar, "GET", "/api/calendar?year=2082&month=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var view MonthView
	decodeBody(t, w, &view)
	if len(view.Days) != 31 {
		t.Fatalf("Expected 31 days, got %d", len(view.Days))
	}
	// Declared holidays show up, marks do not
	if view.Days[4].Holiday != "वार्षिकोत्सव" {
		t.Errorf("Expected declared holiday on day 5, got %+v", view.Days[4])
	}
	if view.Days[1].Status != "" {
		t.Errorf("Calendar view should not carry marks, got %q", view.Days[1].Status)
	}

	for query, want := range map[string]int{
		"year=abc":          http.StatusBadRequest,
		"year=2082&month=0": http.StatusBadRequest,
		"year=2082&month=x": http.StatusBadRequest,
		"year=2070&month=1": http.StatusNotFound,
	} {
		if w := doJSON(t, HandleCalendar, "GET", "/api/calendar?"+query, ""); w.Code != want {
			t.Errorf("%s: expected %d, got %d", query, want, w.Code)
		}
	}
}

func TestHandleStudentAttendance(t *testing.T) {
	setupTestStore(t)
	seedAttendance(t, 2082)

	w := doJSON(t, HandleStudentAttendance, "GET", "/api/attendance/s-101?year=2082&month=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var view MonthView
	decodeBody(t, w, &view)
	if view.Days[1].Status != StatusPresent || view.Days[2].Status != StatusAbsent {
		t.Errorf("Marks missing from student view: %+v %+v", view.Days[1], view.Days[2])
	}
	if view.Summary.Present != 2 || view.Summary.Absent != 1 {
		t.Errorf("Unexpected summary: %+v", view.Summary)
	}

	if w := doJSON(t, HandleStudentAttendance, "GET", "/api/attendance/nobody", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown student, got %d", w.Code)
	}
	if w := doJSON(t, HandleStudentAttendance, "GET", "/api/attendance/", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing student, got %d", w.Code)
	}
	if w := doJSON(t, HandleStudentAttendance, "GET", "/api/attendance/s-101/other", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown sub-resource, got %d", w.Code)
	}
}

func TestHandleStudentSummary(t *testing.T) {
	setupTestStore(t)
	seedAttendance(t, 2082)

	w := doJSON(t, HandleStudentAttendance, "GET", "/api/attendance/s-101/summary?from=2082-01-01&to=2082-01-10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		From    bsdate.Date `json:"from"`
		To      bsdate.Date `json:"to"`
		Summary Summary     `json:"summary"`
	}
	decodeBody(t, w, &resp)

	want := Summary{Present: 2, Absent: 1, Holidays: 2, Rate: 67}
	if resp.Summary != want {
		t.Errorf("Summary = %+v, want %+v", resp.Summary, want)
	}
	if resp.From.String() != "2082-01-01" || resp.To.String() != "2082-01-10" {
		t.Errorf("Unexpected range %s..%s", resp.From, resp.To)
	}

	w = doJSON(t, HandleStudentAttendance, "GET", "/api/attendance/s-101/summary?from=2082-02-01&to=2082-01-01", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for reversed range, got %d", w.Code)
	}
}

func TestMarkAttendance(t *testing.T) {
	setupTestStore(t)

	body := `{"student_id":"s-202","name":"Sita Rai","class":"4B","date":"2082-03-15","status":"present"}`
	w := doJSON(t, MarkAttendance, "POST", "/api/attendance/mark", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["status"] != "ok" {
		t.Errorf("Expected ok, got %v", resp)
	}
	if _, err := uuid.Parse(resp["id"]); err != nil {
		t.Errorf("Expected record id to be a UUID, got %q", resp["id"])
	}

	// Second mark on the same day is refused without overwrite
	body2 := `{"student_id":"s-202","date":"2082-03-15","status":"absent"}`
	w = doJSON(t, MarkAttendance, "POST", "/api/attendance/mark", body2)
	decodeBody(t, w, &resp)
	if resp["status"] != "exists" {
		t.Errorf("Expected exists, got %v", resp)
	}

	body3 := `{"student_id":"s-202","date":"2082-03-15","status":"absent","overwrite":true}`
	w = doJSON(t, MarkAttendance, "POST", "/api/attendance/mark", body3)
	if w.Code != http.StatusOK {
		t.Fatalf("Overwrite failed: %d", w.Code)
	}

	records := GetStudentRecords("s-202")
	if len(records) != 1 || records[0].Status != StatusAbsent {
		t.Fatalf("Expected one absent record, got %+v", records)
	}

	data, ok := GetYear(2082)
	if !ok || data.Students["s-202"].Name != "Sita Rai" {
		t.Errorf("Student metadata not stored")
	}
	if !HasTmpChanges() {
		t.Error("Mark should auto-save to the tmp file")
	}
}

func TestMarkAttendance_Validation(t *testing.T) {
	setupTestStore(t)

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing student", `{"date":"2082-03-15","status":"present"}`, "student_id"},
		{"bad status", `{"student_id":"s","date":"2082-03-15","status":"late"}`, "status"},
		{"bad date", `{"student_id":"s","date":"2082-03-33","status":"present"}`, "date"},
		{"out of table", `{"student_id":"s","date":"2070-01-01","status":"present"}`, "date"},
		{"reserved id mark", `{"student_id":"mark","date":"2082-03-15","status":"present"}`, "student_id"},
		{"reserved id delete", `{"student_id":"delete","date":"2082-03-15","status":"present"}`, "student_id"},
		{"id with slash", `{"student_id":"s-1/summary","date":"2082-03-15","status":"present"}`, "student_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, MarkAttendance, "POST", "/api/attendance/mark", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", w.Code)
			}
			var resp struct {
				Fields map[string]string `json:"fields"`
			}
			decodeBody(t, w, &resp)
			if _, ok := resp.Fields[tt.wantField]; !ok {
				t.Errorf("Expected error on %s, got %v", tt.wantField, resp.Fields)
			}
		})
	}

	if w := doJSON(t, MarkAttendance, "POST", "/api/attendance/mark", "{"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for broken JSON, got %d", w.Code)
	}
}

func TestEditEndpointsGuarded(t *testing.T) {
	setupTestStore(t)

	if w := doJSON(t, MarkAttendance, "GET", "/api/attendance/mark", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}

	EditMode = false
	handlers := map[string]http.HandlerFunc{
		"mark":           MarkAttendance,
		"unmark":         UnmarkAttendance,
		"holiday add":    AddHoliday,
		"holiday delete": DeleteHoliday,
		"commit":         HandleCalendarCommit,
		"revert":         HandleCalendarRevert,
	}
	for name, h := range handlers {
		if w := doJSON(t, h, "POST", "/", "{}"); w.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403 outside edit mode, got %d", name, w.Code)
		}
	}
}

func TestUnmarkAttendance(t *testing.T) {
	setupTestStore(t)
	seedAttendance(t, 2082)

	w := doJSON(t, UnmarkAttendance, "POST", "/api/attendance/delete", `{"student_id":"s-101","date":"2082-01-02"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if n := len(GetStudentRecords("s-101")); n != 3 {
		t.Errorf("Expected 3 records left, got %d", n)
	}

	w = doJSON(t, UnmarkAttendance, "POST", "/api/attendance/delete", `{"student_id":"s-101","date":"2083-01-02"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unloaded year, got %d", w.Code)
	}
}

func TestHolidayEndpoints(t *testing.T) {
	setupTestStore(t)

	w := doJSON(t, AddHoliday, "POST", "/api/holidays/add", `{"date":"2082-06-17","name":"दशैं"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	w = doJSON(t, AddHoliday, "POST", "/api/holidays/add", `{"date":"2082-06-18"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	declared := DeclaredHolidays(2082)
	if declared["2082-06-17"] != "दशैं" || declared["2082-06-18"] != DefaultHolidayName {
		t.Errorf("Unexpected holidays: %v", declared)
	}

	w = doJSON(t, DeleteHoliday, "POST", "/api/holidays/delete", `{"date":"2082-06-17"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if _, ok := DeclaredHolidays(2082)["2082-06-17"]; ok {
		t.Error("Holiday should be deleted")
	}
}

func TestHandleDownload(t *testing.T) {
	setupTestStore(t)
	seedAttendance(t, 2082)

	tests := []struct {
		query      string
		wantStatus int
		wantBody   string
	}{
		{"student=s-101&year=2082&format=csv", http.StatusOK, "2082-01-03,2025-04-16,absent,"},
		{"student=s-101&year=2082&format=ics", http.StatusOK, "X-WR-CALNAME:Ram Thapa 2082"},
		{"student=s-101&year=2082&format=json", http.StatusOK, `"subject":"s-101"`},
		{"kind=holidays&year=2082&format=csv", http.StatusOK, "2082-01-05,2025-04-18,holiday,वार्षिकोत्सव"},
		{"kind=holidays&year=2083&format=ics", http.StatusOK, "SUMMARY:नयाँ वर्ष"},
		{"student=s-101&year=2082&format=pdf", http.StatusBadRequest, ""},
		{"year=2082&format=csv", http.StatusBadRequest, ""},
		{"student=s-101&year=abc&format=csv", http.StatusBadRequest, ""},
		{"student=s-101&year=2070&format=csv", http.StatusNotFound, ""},
		{"student=s-101&year=2083&format=csv", http.StatusNotFound, ""},
		{"student=nobody&year=2082&format=csv", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := doJSON(t, HandleDownload, "GET", "/api/download?"+tt.query, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("Body missing %q:\n%s", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestGetConfig(t *testing.T) {
	setupTestStore(t)
	seedAttendance(t, 2082)

	w := doJSON(t, GetConfig, "GET", "/api/config", "")
	var config map[string]interface{}
	decodeBody(t, w, &config)

	if config["firstYear"] != float64(bsdate.FirstYear()) || config["lastYear"] != float64(bsdate.LastYear()) {
		t.Errorf("Unexpected table range: %v..%v", config["firstYear"], config["lastYear"])
	}
	if config["editMode"] != true {
		t.Error("Expected editMode true")
	}
	years, _ := config["availableYears"].([]interface{})
	if len(years) != 1 || years[0] != float64(2082) {
		t.Errorf("Unexpected available years: %v", config["availableYears"])
	}
}

func TestHandleToday(t *testing.T) {
	setupTestStore(t)

	w := doJSON(t, HandleToday, "GET", "/api/today", "")
	today, err := Today()
	if err != nil {
		if w.Code == http.StatusOK {
			t.Error("Expected error status when today is outside the table")
		}
		return
	}

	var info dateInfo
	decodeBody(t, w, &info)
	if info.BS != today.String() {
		t.Errorf("Expected %s, got %s", today, info.BS)
	}
}

func TestServeIndex(t *testing.T) {
	old := IndexHTML
	IndexHTML = []byte("<html>patro</html>")
	t.Cleanup(func() { IndexHTML = old })

	w := doJSON(t, ServeIndex, "GET", "/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "patro") {
		t.Errorf("Unexpected index response: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, ServeIndex, "GET", "/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", w.Code)
	}
}

func TestCommitAndRevertEndpoints(t *testing.T) {
	setupTestStore(t)

	w := doJSON(t, HandleCalendarCommit, "POST", "/api/calendar/commit", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Commit without changes should fail, got %d", w.Code)
	}

	doJSON(t, MarkAttendance, "POST", "/api/attendance/mark",
		`{"student_id":"s-1","date":"2082-01-02","status":"present"}`)

	w = doJSON(t, HandleCalendarStatus, "GET", "/api/calendar/status", "")
	var status struct {
		HasChanges bool  `json:"has_changes"`
		Years      []int `json:"years"`
	}
	decodeBody(t, w, &status)
	if !status.HasChanges || fmt.Sprint(status.Years) != "[2082]" {
		t.Errorf("Unexpected status: %+v", status)
	}

	w = doJSON(t, HandleCalendarCommit, "POST", "/api/calendar/commit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Commit failed: %d %s", w.Code, w.Body.String())
	}
	if HasTmpChanges() {
		t.Error("Commit should consume tmp files")
	}
}

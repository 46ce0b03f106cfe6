package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
)

// Record is one attendance mark for one student on one BS day
type Record struct {
	ID       uuid.UUID   `json:"id"`
	Date     bsdate.Date `json:"date"`
	Status   string      `json:"status"`
	Note     string      `json:"note,omitempty"`
	MarkedAt time.Time   `json:"marked_at"`
}

// Student holds a student's attendance records for one BS year
type Student struct {
	Name    string   `json:"name,omitempty"`
	Class   string   `json:"class,omitempty"`
	Records []Record `json:"records"`
}

// YearData is the content of one attendance_<year>.json file
type YearData struct {
	Year     int                 `json:"year"`
	Students map[string]*Student `json:"students"`
	Holidays map[string]string   `json:"holidays"`
	Metadata map[string]string   `json:"metadata,omitempty"`
}

// AttendanceStore keeps all loaded BS years in memory
type AttendanceStore struct {
	Years     map[int]*YearData
	YearsList []int
}

func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{Years: make(map[int]*YearData)}
}

func newYearData(year int) *YearData {
	return &YearData{
		Year:     year,
		Students: make(map[string]*Student),
		Holidays: make(map[string]string),
		Metadata: map[string]string{
			MetadataCreatedAt: time.Now().UTC().Format(time.RFC3339),
			"source":          MetadataSource,
		},
	}
}

// StatusMap returns the student's records keyed by BS date string, the form
// the month grid looks statuses up by.
func (s *Student) StatusMap() map[string]string {
	out := make(map[string]string, len(s.Records))
	for _, r := range s.Records {
		out[r.Date.String()] = r.Status
	}
	return out
}

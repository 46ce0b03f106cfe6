package app

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Constants
const (
	YearFilePrefix  = "attendance_"
	YearFileSuffix  = ".json"
	BackupDir       = "backup"
	BackupSuffix    = ".backup"
	TmpSuffix       = ".tmp.json"
	FilePermissions = 0644

	// Error messages
	ErrEditModeDisabled     = "Edit mode disabled"
	ErrInvalidDateFormat    = "Invalid date format"
	ErrInvalidYear          = "Invalid year"
	ErrInvalidMonth         = "Invalid month"
	ErrInvalidFormat        = "Invalid format"
	ErrInternalServer       = "Internal server error"
	ErrFailedToSave         = "Failed to save attendance"
	ErrFailedToGenerateJSON = "Failed to generate JSON"
	ErrYearNotFound         = "Year not found"
	ErrYearNotInTable       = "Year not in calendar table"
	ErrStudentNotFound      = "Student not found"
	ErrMissingStudent       = "Missing student"

	// Metadata keys
	MetadataCreatedAt = "created_at"
	MetadataSource    = "manual"

	// Mode strings
	ModeServe = "serve"
	ModeEdit  = "edit"

	// ICS constants
	ICSProductID = "-//Shikshalaya//Patro//NE"
	ICSTimezone  = "Asia/Kathmandu"
	ICSDomain    = "patro.shikshalaya.edu.np"

	DefaultTimezone    = "Asia/Kathmandu"
	DefaultHolidayName = "बिदा"
)

// Attendance statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLeave   = "leave"
	StatusHoliday = "holiday"
)

// Global variables
var (
	DataPath   = "data"
	Store      = NewAttendanceStore()
	StoreMutex sync.RWMutex
	EditMode   bool

	// SchoolLocation decides which calendar day "today" is.
	SchoolLocation = time.UTC

	// Embedded index page (set by main)
	IndexHTML []byte
)

// Statuses maps attendance status keys to their display names
var Statuses = map[string]string{
	StatusPresent: "Present",
	StatusAbsent:  "Absent",
	StatusLeave:   "Leave",
	StatusHoliday: "Holiday",
}

// WeeklyHoliday is the school's weekly day off.
var WeeklyHoliday = time.Saturday

func init() {
	if cwd, err := os.Getwd(); err == nil {
		DataPath = filepath.Join(cwd, "data")
	}
	SchoolLocation = loadLocation(DefaultTimezone)
}

// LoadEnv reads an optional .env file and applies PATRO_DATA_DIR and
// SCHOOL_TIMEZONE. Variables already set in the environment win.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("⚠️  No .env file found, using system environment")
	} else {
		log.Println("✅ .env file loaded")
	}

	if dir := strings.TrimSpace(os.Getenv("PATRO_DATA_DIR")); dir != "" {
		DataPath = dir
	}
	if tz := strings.TrimSpace(os.Getenv("SCHOOL_TIMEZONE")); tz != "" {
		SchoolLocation = loadLocation(tz)
	}
}

// loadLocation resolves name, falling back to the default school timezone and
// finally to UTC.
func loadLocation(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	log.Printf("⚠️  Unknown timezone %q, falling back to %s", name, DefaultTimezone)
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// GetEnv returns the environment value for key, or defaultValue when unset.
func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

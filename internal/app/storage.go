package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// yearFile returns the main data file of a BS year
func yearFile(year int) string {
	return filepath.Join(DataPath, fmt.Sprintf("%s%d%s", YearFilePrefix, year, YearFileSuffix))
}

// tmpYearFile returns the auto-save file of a BS year
func tmpYearFile(year int) string {
	return filepath.Join(DataPath, fmt.Sprintf("%s%d%s", YearFilePrefix, year, TmpSuffix))
}

// yearFromFilename extracts the BS year from attendance_<year>.json or
// attendance_<year>.tmp.json
func yearFromFilename(name string) (int, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, YearFilePrefix) {
		return 0, false
	}
	base = strings.TrimPrefix(base, YearFilePrefix)
	switch {
	case strings.HasSuffix(base, TmpSuffix):
		base = strings.TrimSuffix(base, TmpSuffix)
	case strings.HasSuffix(base, YearFileSuffix):
		base = strings.TrimSuffix(base, YearFileSuffix)
	default:
		return 0, false
	}
	year, err := strconv.Atoi(base)
	if err != nil {
		return 0, false
	}
	return year, true
}

// LoadAllYears loads every attendance_<year>.json file from DataPath
func LoadAllYears() error {
	return loadAll(false)
}

// LoadAllYearsWithTmpCheck is like LoadAllYears but prefers unsaved tmp files
func LoadAllYearsWithTmpCheck() error {
	return loadAll(true)
}

func loadAll(preferTmp bool) error {
	if err := os.MkdirAll(DataPath, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(DataPath, YearFilePrefix+"*"))
	if err != nil {
		return err
	}

	years := make(map[int]bool)
	for _, m := range matches {
		if year, ok := yearFromFilename(m); ok {
			years[year] = true
		}
	}

	store := NewAttendanceStore()
	for year := range years {
		filename := yearFile(year)
		if preferTmp {
			if _, err := os.Stat(tmpYearFile(year)); err == nil {
				log.Printf("⚠️  Found temporary attendance file: %s (loading unsaved changes)", tmpYearFile(year))
				filename = tmpYearFile(year)
			}
		}
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			continue
		}

		data, err := loadYearFromFile(filename)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", filename, err)
		}
		if data.Year != year {
			return fmt.Errorf("file %s contains year %d", filename, data.Year)
		}
		store.Years[year] = data
		store.YearsList = append(store.YearsList, year)
	}
	sort.Ints(store.YearsList)

	StoreMutex.Lock()
	Store = store
	StoreMutex.Unlock()

	log.Printf("✅ Loaded %d attendance year(s) from %s", len(store.YearsList), DataPath)
	return nil
}

// loadYearFromFile loads one year from a specific file
func loadYearFromFile(filename string) (*YearData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Printf("Error closing file: %v", err)
		}
	}()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var data YearData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data.Students == nil {
		data.Students = make(map[string]*Student)
	}
	if data.Holidays == nil {
		data.Holidays = make(map[string]string)
	}
	return &data, nil
}

// GetYear returns a copy of the data for a BS year
func GetYear(year int) (*YearData, bool) {
	StoreMutex.RLock()
	defer StoreMutex.RUnlock()

	data, ok := Store.Years[year]
	if !ok {
		return nil, false
	}
	return data.clone(), true
}

func (y *YearData) clone() *YearData {
	out := &YearData{
		Year:     y.Year,
		Students: make(map[string]*Student, len(y.Students)),
		Holidays: make(map[string]string, len(y.Holidays)),
		Metadata: make(map[string]string, len(y.Metadata)),
	}
	for id, s := range y.Students {
		cp := *s
		cp.Records = append([]Record(nil), s.Records...)
		out.Students[id] = &cp
	}
	for k, v := range y.Holidays {
		out.Holidays[k] = v
	}
	for k, v := range y.Metadata {
		out.Metadata[k] = v
	}
	return out
}

// GetAvailableYears returns the loaded BS years in ascending order
func GetAvailableYears() []int {
	StoreMutex.RLock()
	defer StoreMutex.RUnlock()
	return append([]int(nil), Store.YearsList...)
}

// ensureYearLocked returns the year data, creating it if needed (caller must hold lock)
func ensureYearLocked(year int) *YearData {
	data, ok := Store.Years[year]
	if !ok {
		data = newYearData(year)
		Store.Years[year] = data
		Store.YearsList = append(Store.YearsList, year)
		sort.Ints(Store.YearsList)
	}
	return data
}

// GetStudentRecords returns all records of a student across years, sorted by date
func GetStudentRecords(studentID string) []Record {
	StoreMutex.RLock()
	defer StoreMutex.RUnlock()

	var records []Record
	for _, year := range Store.YearsList {
		if s, ok := Store.Years[year].Students[studentID]; ok {
			records = append(records, s.Records...)
		}
	}
	SortRecordsByDate(records)
	return records
}

// saveTmpYear writes the year to its tmp file (auto-save for edit mode, caller must hold lock)
func saveTmpYear(year int) error {
	data, ok := Store.Years[year]
	if !ok {
		return fmt.Errorf("year %d not loaded", year)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(DataPath, 0755); err != nil {
		return err
	}
	return os.WriteFile(tmpYearFile(year), raw, FilePermissions)
}

// tmpYears lists years that have unsaved changes
func tmpYears() []int {
	matches, err := filepath.Glob(filepath.Join(DataPath, YearFilePrefix+"*"+TmpSuffix))
	if err != nil {
		return nil
	}
	var years []int
	for _, m := range matches {
		if year, ok := yearFromFilename(m); ok {
			years = append(years, year)
		}
	}
	sort.Ints(years)
	return years
}

// HasTmpChanges reports whether any year has uncommitted changes
func HasTmpChanges() bool {
	return len(tmpYears()) > 0
}

// CommitAllYears commits tmp changes: backs up each main file and makes tmp the new main
func CommitAllYears() error {
	StoreMutex.Lock()
	defer StoreMutex.Unlock()

	years := tmpYears()
	if len(years) == 0 {
		return fmt.Errorf("no temporary changes to commit")
	}

	backupDirPath := filepath.Join(DataPath, BackupDir)
	if err := os.MkdirAll(backupDirPath, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := time.Now().Unix()
	for _, year := range years {
		mainFile := yearFile(year)
		if _, err := os.Stat(mainFile); err == nil {
			backupFile := filepath.Join(backupDirPath, fmt.Sprintf("%d_%s%s", timestamp, filepath.Base(mainFile), BackupSuffix))
			if err := os.Rename(mainFile, backupFile); err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}
			log.Printf("✅ Backup created: %s", backupFile)
		}

		if err := os.Rename(tmpYearFile(year), mainFile); err != nil {
			return fmt.Errorf("failed to commit changes: %w", err)
		}
		log.Printf("✅ Changes committed to %s", mainFile)
	}
	return nil
}

// RevertAllYears discards tmp changes and reloads from the main files
func RevertAllYears() error {
	years := tmpYears()
	if len(years) == 0 {
		return fmt.Errorf("no temporary changes to revert")
	}

	for _, year := range years {
		if err := os.Remove(tmpYearFile(year)); err != nil {
			return fmt.Errorf("failed to remove tmp file: %w", err)
		}
	}

	if err := LoadAllYears(); err != nil {
		return fmt.Errorf("failed to reload attendance: %w", err)
	}

	log.Printf("✅ Changes reverted, reloaded from %s", DataPath)
	return nil
}

// StudentExists reports whether any loaded year knows the student
func StudentExists(studentID string) bool {
	StoreMutex.RLock()
	defer StoreMutex.RUnlock()

	for _, data := range Store.Years {
		if _, ok := data.Students[studentID]; ok {
			return true
		}
	}
	return false
}

// DeclaredHolidays returns a copy of the school-declared holidays of a BS year
func DeclaredHolidays(year int) map[string]string {
	StoreMutex.RLock()
	defer StoreMutex.RUnlock()

	out := make(map[string]string)
	if data, ok := Store.Years[year]; ok {
		for k, v := range data.Holidays {
			out[k] = v
		}
	}
	return out
}

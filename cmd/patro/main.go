package main

import (
	"embed"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	_ "time/tzdata"

	"github.com/shikshalaya/sms-services/patro/internal/app"
	"github.com/shikshalaya/sms-services/patro/internal/commands"
)

//go:embed static/*
var staticFiles embed.FS

//go:embed static/index.html
var indexHTML []byte

func main() {
	// Check for subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "hash-password":
			commands.HashPassword(os.Args[2:])
			return
		case "calendar":
			app.LoadEnv()
			commands.Calendar(os.Args[2:])
			return
		case "import-holidays":
			app.LoadEnv()
			commands.ImportHolidays(os.Args[2:])
			return
		}
	}

	app.LoadEnv()

	defaultPort, err := strconv.Atoi(app.GetEnv("PORT", "8080"))
	if err != nil {
		log.Fatalf("Invalid PORT: %v", err)
	}

	// Parse flags
	port := flag.Int("port", defaultPort, "Port to listen on")
	flag.BoolVar(&app.EditMode, "edit", false, "Enable edit mode (default is serve mode)")
	flag.StringVar(&app.DataPath, "data", app.DataPath, "Attendance data directory")
	flag.Parse()

	app.IndexHTML = indexHTML

	// Load and validate auth credentials (if edit mode)
	if app.EditMode {
		if err := app.LoadAuthCredentials(); err != nil {
			log.Fatalf("Failed to load auth credentials: %v", err)
		}
	}

	// Load all attendance years (with tmp check in edit mode)
	var loadErr error
	if app.EditMode {
		loadErr = app.LoadAllYearsWithTmpCheck()
	} else {
		loadErr = app.LoadAllYears()
	}
	if loadErr != nil {
		log.Fatalf("Failed to load attendance data: %v", loadErr)
	}

	// Setup routes
	http.HandleFunc("/", app.ServeIndex)
	http.HandleFunc("/api/config", app.GetConfig)
	http.HandleFunc("/api/today", app.HandleToday)
	http.HandleFunc("/api/convert", app.HandleConvert)
	http.HandleFunc("/api/calendar", app.HandleCalendar)
	http.HandleFunc("/api/attendance/", app.HandleStudentAttendance)
	http.HandleFunc("/api/download", app.HandleDownload)
	http.HandleFunc("/api/subscribe/", app.HandleSubscribe)

	// Edit mode routes (protected with Basic Auth)
	if app.EditMode {
		http.HandleFunc("/api/attendance/mark", app.RequireAuth(app.MarkAttendance))
		http.HandleFunc("/api/attendance/delete", app.RequireAuth(app.UnmarkAttendance))
		http.HandleFunc("/api/holidays/add", app.RequireAuth(app.AddHoliday))
		http.HandleFunc("/api/holidays/delete", app.RequireAuth(app.DeleteHoliday))
		http.HandleFunc("/api/calendar/commit", app.RequireAuth(app.HandleCalendarCommit))
		http.HandleFunc("/api/calendar/revert", app.RequireAuth(app.HandleCalendarRevert))
		http.HandleFunc("/api/calendar/status", app.RequireAuth(app.HandleCalendarStatus))
	}

	// Serve static files
	http.Handle("/static/", http.FileServer(http.FS(staticFiles)))

	mode := app.ModeServe
	if app.EditMode {
		mode = app.ModeEdit
	}

	log.Printf("Starting Patro in %s mode on http://localhost:%d", mode, *port)
	log.Printf("Data directory: %s", app.DataPath)
	log.Printf("School timezone: %s", app.SchoolLocation)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", *port), nil); err != nil {
		log.Fatal(err)
	}
}

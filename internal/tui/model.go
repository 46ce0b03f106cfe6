// Package tui is a terminal month viewer for the BS attendance calendar.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/shikshalaya/sms-services/patro/internal/app"
	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
)

// Config sets up the viewer
type Config struct {
	Title    string
	Year     int
	Month    int
	Today    bsdate.Date
	Statuses map[string]string
	// Holidays returns the declared holidays of a BS year; may be nil
	Holidays func(year int) map[string]string
}

// Model is the bubbletea model of the month viewer
type Model struct {
	cfg   Config
	year  int
	month int
	view  *app.MonthView
	err   error

	width  int
	height int
}

// New returns a viewer opened on cfg.Year/cfg.Month
func New(cfg Config) Model {
	m := Model{cfg: cfg}
	return m.goTo(cfg.Year, cfg.Month)
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "Q", "esc":
		return m, tea.Quit
	case "left", "h":
		if p, ok := app.PrevMonth(m.year, m.month); ok {
			m = m.goTo(p.Year, p.Month)
		}
	case "right", "l":
		if n, ok := app.NextMonth(m.year, m.month); ok {
			m = m.goTo(n.Year, n.Month)
		}
	case "up", "k":
		if bsdate.InRange(m.year - 1) {
			m = m.goTo(m.year-1, m.month)
		}
	case "down", "j":
		if bsdate.InRange(m.year + 1) {
			m = m.goTo(m.year+1, m.month)
		}
	case "t", "T":
		if bsdate.InRange(m.cfg.Today.Year) {
			m = m.goTo(m.cfg.Today.Year, m.cfg.Today.Month)
		}
	}
	return m, nil
}

func (m Model) goTo(year, month int) Model {
	var declared map[string]string
	if m.cfg.Holidays != nil {
		declared = m.cfg.Holidays(year)
	}
	m.year, m.month = year, month
	m.view, m.err = app.BuildMonth(year, month, m.cfg.Statuses, declared, m.cfg.Today)
	return m
}

// Year returns the BS year on screen
func (m Model) Year() int { return m.year }

// Month returns the BS month on screen
func (m Model) Month() int { return m.month }

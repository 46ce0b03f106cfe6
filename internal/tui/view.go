package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shikshalaya/sms-services/patro/internal/app"
)

const (
	WHITE      = lipgloss.Color("#FFFFFF")
	BLUE       = lipgloss.Color("#0043a8")
	GREY       = lipgloss.Color("#626262")
	GREEN      = lipgloss.Color("#50FA7B")
	RED        = lipgloss.Color("#FF5555")
	YELLOW     = lipgloss.Color("#F1FA8C")
	LIGHT_BLUE = lipgloss.Color("#8BE9FD")
	LAVENDER   = lipgloss.Color("#B8B8FF")
)

const cellWidth = 5

var weekdayHeaders = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func statusColor(status string) lipgloss.Color {
	switch status {
	case app.StatusPresent:
		return GREEN
	case app.StatusAbsent:
		return RED
	case app.StatusLeave:
		return YELLOW
	case app.StatusHoliday:
		return LIGHT_BLUE
	default:
		return WHITE
	}
}

func (m Model) View() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(GREY).
		MarginTop(1)
	help := helpStyle.Render("• ←/→ h/l: Month • ↑/↓ k/j: Year • t: Today • q: Quit")

	if m.err != nil || m.view == nil {
		errStyle := lipgloss.NewStyle().Foreground(RED).Bold(true)
		content := lipgloss.JoinVertical(lipgloss.Center,
			errStyle.Render(fmt.Sprintf("⚠️  %v", m.err)),
			help,
		)
		return m.place(content)
	}

	v := m.view

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(LAVENDER)

	monthStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(WHITE).
		Background(BLUE).
		Padding(0, 1).
		MarginBottom(1)

	gridStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BLUE).
		Padding(0, 1)

	var header string
	if m.cfg.Title != "" {
		header = titleStyle.Render("📅 "+m.cfg.Title) + "\n"
	}
	header += monthStyle.Render(fmt.Sprintf("%s %d (%s)", v.MonthName, v.Year, v.MonthNameLatin))

	adRange := ""
	if len(v.Days) > 0 {
		adRange = lipgloss.NewStyle().Foreground(GREY).Render(
			fmt.Sprintf("%s to %s", v.Days[0].AD, v.Days[len(v.Days)-1].AD))
	}

	content := []string{
		header,
		adRange,
		gridStyle.Render(m.renderGrid()),
		m.renderSummary(),
	}
	if h := m.renderHolidays(); h != "" {
		content = append(content, h)
	}
	content = append(content, help)

	return m.place(lipgloss.JoinVertical(lipgloss.Center, content...))
}

func (m Model) place(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderGrid() string {
	headStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(GREY).
		Width(cellWidth).
		Align(lipgloss.Right)

	var rows []string
	var cells []string
	for i, wd := range weekdayHeaders {
		style := headStyle
		if i == int(app.WeeklyHoliday) {
			style = style.Foreground(LIGHT_BLUE)
		}
		cells = append(cells, style.Render(wd))
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))

	blank := lipgloss.NewStyle().Width(cellWidth).Render("")
	cells = cells[:0]
	for i := 0; i < m.view.LeadingBlanks; i++ {
		cells = append(cells, blank)
	}

	for _, day := range m.view.Days {
		style := lipgloss.NewStyle().
			Width(cellWidth).
			Align(lipgloss.Right).
			Foreground(statusColor(day.Status))
		if day.IsToday {
			style = style.Bold(true).Underline(true)
		}
		cells = append(cells, style.Render(fmt.Sprintf("%d", day.Day)))

		if len(cells) == 7 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
			cells = cells[:0]
		}
	}
	if len(cells) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	return strings.Join(rows, "\n")
}

func (m Model) renderSummary() string {
	s := m.view.Summary
	if m.cfg.Statuses == nil {
		return lipgloss.NewStyle().Foreground(LIGHT_BLUE).Render(fmt.Sprintf("Holidays: %d", s.Holidays))
	}

	var rateColor lipgloss.Color
	switch {
	case s.Rate >= 85:
		rateColor = GREEN
	case s.Rate >= 75:
		rateColor = YELLOW
	default:
		rateColor = RED
	}

	parts := []string{
		lipgloss.NewStyle().Foreground(GREEN).Render(fmt.Sprintf("Present: %d", s.Present)),
		lipgloss.NewStyle().Foreground(RED).Render(fmt.Sprintf("Absent: %d", s.Absent)),
		lipgloss.NewStyle().Foreground(YELLOW).Render(fmt.Sprintf("Leave: %d", s.Leave)),
		lipgloss.NewStyle().Foreground(LIGHT_BLUE).Render(fmt.Sprintf("Holidays: %d", s.Holidays)),
		lipgloss.NewStyle().Foreground(rateColor).Bold(true).Render(fmt.Sprintf("Attendance: %d%%", s.Rate)),
	}
	return strings.Join(parts, " | ")
}

func (m Model) renderHolidays() string {
	style := lipgloss.NewStyle().Foreground(LIGHT_BLUE)
	var lines []string
	for _, d := range m.view.Days {
		if d.Holiday != "" {
			lines = append(lines, style.Render(fmt.Sprintf("%2d  %s", d.Day, d.Holiday)))
		}
	}
	return strings.Join(lines, "\n")
}

// Package report renders stored pipeline results for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	anomalydto "doomscroll/internal/modules/anomaly/dto"
	scoringdto "doomscroll/internal/modules/scoring/dto"
	"doomscroll/internal/ui/theme"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(theme.Lavender).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// Daily renders the MDI series as a table. Days with a logged anomaly carry
// the severity in the last column.
func Daily(days []scoringdto.DailyOutput, anomalies []anomalydto.AnomalyOutput) string {
	if len(days) == 0 {
		return theme.Muted.Render("no scored days yet; run `doomscroll score` first")
	}
	severity := make(map[string]string, len(anomalies))
	for _, a := range anomalies {
		severity[a.Date] = a.Severity
	}

	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Date,
			d.Weekday,
			fmt.Sprintf("%.1f", d.FeedTimeMinutes),
			fmt.Sprintf("%.1f", d.TotalMidnightTimeMinutes),
			fmt.Sprintf("%.1f", d.AvgFeedSessionMinutes),
			fmt.Sprintf("%d/%d", d.NumFeedMidnightSessions, d.NumMidnightSessions),
			fmt.Sprintf("%.2f", d.MDIScore),
			formatZ(d.ZScore),
			theme.Severity(severity[d.Date]).Render(severity[d.Date]),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Surface1)).
		Headers("DATE", "DAY", "FEED", "MIDNIGHT", "AVG FEED", "SESSIONS", "MDI", "Z", "ANOMALY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col >= 2 && col <= 7 {
				return numberStyle
			}
			return cellStyle
		})

	return theme.Title.Render("Midnight Doomscroll Index") + "\n" + t.String()
}

// Anomalies renders the anomaly log, one line per flagged day.
func Anomalies(anomalies []anomalydto.AnomalyOutput) string {
	if len(anomalies) == 0 {
		return theme.Good.Render("no anomalies logged")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(fmt.Sprintf("Anomalies (%d)", len(anomalies))) + "\n")
	for _, a := range anomalies {
		label := theme.Severity(a.Severity).Render(fmt.Sprintf("%-8s", strings.ToUpper(a.Severity)))
		sb.WriteString(fmt.Sprintf("%s  %s  %s\n", a.Date, label, a.Message))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatZ(z *float64) string {
	if z == nil {
		return "-"
	}
	return fmt.Sprintf("%+.2f", *z)
}

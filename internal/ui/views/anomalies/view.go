package anomalies

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	anomalydto "doomscroll/internal/modules/anomaly/dto"
	"doomscroll/internal/ui/theme"
)

type AnomalyPort interface {
	ListAnomalies(ctx context.Context) ([]anomalydto.AnomalyOutput, error)
}

type LoadedMsg struct {
	Anomalies []anomalydto.AnomalyOutput
	Err       error
}

type anomalyItem struct {
	anomaly anomalydto.AnomalyOutput
}

func (i anomalyItem) Title() string {
	return i.anomaly.Date + "  " + theme.Severity(i.anomaly.Severity).Render(strings.ToUpper(i.anomaly.Severity))
}
func (i anomalyItem) Description() string {
	return fmt.Sprintf("MDI %.2f  z %+.2f", i.anomaly.MDIScore, i.anomaly.ZScore)
}
func (i anomalyItem) FilterValue() string { return i.anomaly.Date + " " + i.anomaly.Severity }

type Model struct {
	port    AnomalyPort
	list    list.Model
	preview viewport.Model
	err     error
	width   int
	height  int
}

func New(port AnomalyPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.BorderForeground(theme.Peach)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Peach).BorderForeground(theme.Peach)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Anomaly log"
	l.Styles.Title = theme.Title
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(1)

	return Model{port: port, list: l, preview: vp}
}

func (m Model) Init() tea.Cmd { return m.Reload() }

// Reload fetches the anomaly log again.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		items, err := m.port.ListAnomalies(context.Background())
		return LoadedMsg{Anomalies: items, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listW := m.width / 2
		m.list.SetSize(listW, m.height)
		m.preview.Width = m.width - listW - 4
		m.preview.Height = m.height - 4

	case LoadedMsg:
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Anomalies))
		for i, a := range msg.Anomalies {
			items[i] = anomalyItem{anomaly: a}
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.preview.SetContent(m.renderDetail())
	}

	prevIdx := m.list.Index()
	var lCmd tea.Cmd
	m.list, lCmd = m.list.Update(msg)
	cmds = append(cmds, lCmd)
	if m.list.Index() != prevIdx {
		m.preview.SetContent(m.renderDetail())
	}
	var vCmd tea.Cmd
	m.preview, vCmd = m.preview.Update(msg)
	cmds = append(cmds, vCmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.err != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Hot.Render("anomaly log: "+m.err.Error()))
	}
	listW := m.width / 2
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	detailPane := theme.Pane.
		Width(m.width - listW - 2).
		Height(m.height - 2).
		Render(m.preview.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) renderDetail() string {
	item, ok := m.list.SelectedItem().(anomalyItem)
	if !ok {
		return theme.Good.Render("No anomalies logged.")
	}
	a := item.anomaly
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(a.Date) + "  " + theme.Severity(a.Severity).Render(strings.ToUpper(a.Severity)) + "\n\n")
	sb.WriteString(a.Message + "\n\n")
	sb.WriteString(fmt.Sprintf("%s%.2f\n", theme.Muted.Render("mdi:      "), a.MDIScore))
	sb.WriteString(fmt.Sprintf("%s%+.4f\n", theme.Muted.Render("z-score:  "), a.ZScore))
	sb.WriteString(theme.Muted.Render("detected: ") + a.DetectedAt + "\n")
	return sb.String()
}

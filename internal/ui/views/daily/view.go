package daily

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	scoringdto "doomscroll/internal/modules/scoring/dto"
	"doomscroll/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type DailyPort interface {
	ListDaily(ctx context.Context) ([]scoringdto.DailyOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type DaysLoadedMsg struct {
	Days []scoringdto.DailyOutput
	Err  error
}

// ─── list item ───────────────────────────────────────────────────────────────

type dayItem struct {
	day scoringdto.DailyOutput
}

func (i dayItem) Title() string { return i.day.Date + "  " + i.day.Weekday }
func (i dayItem) Description() string {
	return fmt.Sprintf("MDI %.2f  z %s", i.day.MDIScore, formatZ(i.day.ZScore))
}
func (i dayItem) FilterValue() string { return i.day.Date + " " + i.day.Weekday }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    DailyPort
	list    list.Model
	preview viewport.Model
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

func New(port DailyPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Daily MDI"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		list:    l,
		preview: vp,
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

// Reload fetches the stored series again, e.g. after a score or detect run.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		days, err := m.port.ListDaily(context.Background())
		return DaysLoadedMsg{Days: days, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case DaysLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Daily MDI: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "Daily MDI"
		items := make([]list.Item, len(msg.Days))
		for i, d := range msg.Days {
			items[i] = dayItem{day: d}
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.preview.SetContent(m.renderDetail())

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			m.preview.SetContent(m.renderDetail())
		}

		var vCmd tea.Cmd
		m.preview, vCmd = m.preview.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading daily scores…")
	}

	listW := m.width * 4 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := theme.Pane.
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.preview.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Len is the number of days currently listed.
func (m Model) Len() int { return len(m.list.Items()) }

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 4 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.preview.Width = detailW - 4
	m.preview.Height = m.height - 4
}

func (m Model) renderDetail() string {
	item, ok := m.list.SelectedItem().(dayItem)
	if !ok {
		return theme.Muted.Render("No scored days yet. Run score from the palette.")
	}
	d := item.day
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(d.Date+" "+d.Weekday) + "\n\n")
	sb.WriteString(fmt.Sprintf("%s%.2f\n", theme.Muted.Render("mdi:        "), d.MDIScore))
	sb.WriteString(theme.Muted.Render("z-score:    ") + formatZ(d.ZScore) + "\n\n")
	sb.WriteString(fmt.Sprintf("%s%.1f min\n", theme.Muted.Render("feed:       "), d.FeedTimeMinutes))
	sb.WriteString(fmt.Sprintf("%s%.1f min\n", theme.Muted.Render("midnight:   "), d.TotalMidnightTimeMinutes))
	sb.WriteString(fmt.Sprintf("%s%.1f min\n", theme.Muted.Render("avg feed:   "), d.AvgFeedSessionMinutes))
	sb.WriteString(fmt.Sprintf("%s%d of %d\n", theme.Muted.Render("sessions:   "), d.NumFeedMidnightSessions, d.NumMidnightSessions))
	if d.TotalMidnightTimeMinutes > 0 {
		share := d.FeedTimeMinutes / d.TotalMidnightTimeMinutes * 100
		sb.WriteString(fmt.Sprintf("%s%.0f%%\n", theme.Muted.Render("feed share: "), share))
	}
	return sb.String()
}

func formatZ(z *float64) string {
	if z == nil {
		return "-"
	}
	return fmt.Sprintf("%+.2f", *z)
}

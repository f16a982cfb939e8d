package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	anomalydto "doomscroll/internal/modules/anomaly/dto"
	scoringdto "doomscroll/internal/modules/scoring/dto"
	"doomscroll/internal/ui/components"
	"doomscroll/internal/ui/theme"
	anomaliesview "doomscroll/internal/ui/views/anomalies"
	dailyview "doomscroll/internal/ui/views/daily"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type scoringPort interface {
	Score(ctx context.Context) (scoringdto.ScoreOutput, error)
	ListDaily(ctx context.Context) ([]scoringdto.DailyOutput, error)
}

type anomalyPort interface {
	Detect(ctx context.Context) (anomalydto.DetectOutput, error)
	ListAnomalies(ctx context.Context) ([]anomalydto.AnomalyOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabDaily tabID = iota
	tabAnomalies
	tabCount
)

var tabLabels = [tabCount]string{"Daily", "Anomalies"}

// ─── async messages ───────────────────────────────────────────────────────────

type scoredMsg struct {
	out scoringdto.ScoreOutput
	err error
}

type detectedMsg struct {
	out anomalydto.DetectOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Reload  key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch tab")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Reload},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It routes tabs, runs score and detect
// on request, and hosts the help overlay and command palette.
type Model struct {
	scoring   scoringPort
	anomaly   anomalyPort
	daily     dailyview.Model
	anomalies anomaliesview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	busy      bool
	status    string
	width     int
	height    int
}

func NewModel(scoring scoringPort, anomaly anomalyPort) Model {
	return Model{
		scoring:   scoring,
		anomaly:   anomaly,
		daily:     dailyview.New(scoring),
		anomalies: anomaliesview.New(anomaly),
		activeTab: tabDaily,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.daily.Init(), m.anomalies.Init())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case dailyview.DaysLoadedMsg:
		var cmd tea.Cmd
		m.daily, cmd = m.daily.Update(msg)
		return m, cmd

	case anomaliesview.LoadedMsg:
		var cmd tea.Cmd
		m.anomalies, cmd = m.anomalies.Update(msg)
		return m, cmd

	case scoredMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "score failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("scored %d days from %d sessions", msg.out.Inserted, msg.out.SessionsRead)
		return m, m.daily.Reload()

	case detectedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "detect failed: " + msg.err.Error()
			return m, nil
		}
		if msg.out.Skipped {
			m.status = "detection skipped: " + msg.out.SkipReason
		} else {
			m.status = fmt.Sprintf("%d anomalies at |z| > %.2f", len(msg.out.Anomalies), msg.out.Threshold)
		}
		return m, tea.Batch(m.daily.Reload(), m.anomalies.Reload())

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		// Yield to sub-view when its search filter is active.
		if m.subViewFiltering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case msg.String() == "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case msg.String() == "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.Palette):
			return m, m.palette.Open()
		case key.Matches(msg, m.keys.Reload):
			m.status = "reloading"
			return m, tea.Batch(m.daily.Reload(), m.anomalies.Reload())
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabDaily:
		m.daily, tabCmd = m.daily.Update(msg)
	case tabAnomalies:
		m.anomalies, tabCmd = m.anomalies.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabAnomalies:
		content = m.anomalies.View()
	default:
		content = m.daily.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "doomscroll  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.busy {
		left = theme.Hot.Render("● ") + left
	}
	right := theme.Muted.Render(m.help.View(m.keys))
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	switch parts[0] {
	case "score":
		if m.busy {
			m.status = "a stage is already running"
			return m, nil
		}
		m.busy = true
		m.status = "scoring stored sessions"
		return m, m.scoreCmd()
	case "detect":
		if m.busy {
			m.status = "a stage is already running"
			return m, nil
		}
		m.busy = true
		m.status = "detecting anomalies"
		return m, m.detectCmd()
	case "reload":
		m.status = "reloading"
		return m, tea.Batch(m.daily.Reload(), m.anomalies.Reload())
	case "tab:daily":
		m.activeTab = tabDaily
	case "tab:anomalies":
		m.activeTab = tabAnomalies
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) subViewFiltering() bool {
	switch m.activeTab {
	case tabDaily:
		return m.daily.Filtering()
	case tabAnomalies:
		return m.anomalies.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.daily, _ = m.daily.Update(sz)
	m.anomalies, _ = m.anomalies.Update(sz)
}

func (m Model) scoreCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.scoring.Score(context.Background())
		return scoredMsg{out: out, err: err}
	}
}

func (m Model) detectCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.anomaly.Detect(context.Background())
		return detectedMsg{out: out, err: err}
	}
}

// Package tui renders the `newsroute watch` dashboard: a live provider table
// with idle state plus the tail of the routed-item log, polled from the HTTP
// API.
package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)

	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FFF87"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

const pollInterval = 2 * time.Second

type providerRow struct {
	Provider struct {
		Name           string `json:"name"`
		SchemeID       string `json:"routing_scheme"`
		IsClosed       bool   `json:"is_closed"`
		LastItemUpdate string `json:"last_item_update"`
	} `json:"provider"`
	Idle bool `json:"idle"`
}

type logRow struct {
	ItemGUID   string `json:"ItemGUID"`
	Provider   string `json:"Provider"`
	Rule       string `json:"Rule"`
	Desk       string `json:"Desk"`
	Stage      string `json:"Stage"`
	ArchivedID string `json:"ArchivedID"`
	Error      string `json:"Error"`
}

type providersMsg []providerRow
type logMsg []logRow
type errMsg struct{ err error }

// Model is the bubbletea model for the watch dashboard.
type Model struct {
	apiURL string
	apiKey string

	width  int
	height int

	providers []providerRow
	recent    []logRow
	lastErr   error

	providerTable table.Model
}

func NewWatch(apiURL, apiKey string) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Provider", Width: 24},
			{Title: "State", Width: 8},
			{Title: "Last item", Width: 22},
			{Title: "Scheme", Width: 30},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &Model{
		apiURL:        apiURL,
		apiKey:        apiKey,
		providerTable: t,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.poll(), tea.EnterAltScreen)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.providerTable.SetWidth(m.width - 6)

	case providersMsg:
		m.providers = msg
		m.lastErr = nil
		m.refreshTable()
		return m, m.fetchLog()

	case logMsg:
		m.recent = msg
		return m, m.pollLater()

	case errMsg:
		m.lastErr = msg.err
		return m, m.pollLater()
	}

	m.providerTable, cmd = m.providerTable.Update(msg)
	return m, cmd
}

func (m *Model) refreshTable() {
	rows := make([]table.Row, len(m.providers))
	for i, p := range m.providers {
		state := "open"
		switch {
		case p.Provider.IsClosed:
			state = "closed"
		case p.Idle:
			state = "IDLE"
		}
		last := p.Provider.LastItemUpdate
		if last == "" {
			last = "never"
		} else if t, err := time.Parse(time.RFC3339Nano, last); err == nil {
			last = t.Local().Format("2006-01-02 15:04:05")
		}
		rows[i] = table.Row{p.Provider.Name, state, last, p.Provider.SchemeID}
	}
	m.providerTable.SetRows(rows)
}

func (m Model) View() string {
	title := titleStyle.Render("newsroute watch")

	status := okStyle.Render(fmt.Sprintf("%d providers", len(m.providers)))
	if idle := m.idleCount(); idle > 0 {
		status += "  " + idleStyle.Render(fmt.Sprintf("%d idle", idle))
	}
	if m.lastErr != nil {
		status += "  " + failStyle.Render("api error: "+m.lastErr.Error())
	}

	feed := subtleStyle.Render("no routed items yet")
	if len(m.recent) > 0 {
		feed = ""
		for i, e := range m.recent {
			if i >= 8 {
				break
			}
			line := fmt.Sprintf("%s  %s -> %s/%s (%s)", e.Provider, e.ItemGUID, e.Desk, e.Stage, e.Rule)
			if e.Error != "" {
				line = failStyle.Render(line + "  " + e.Error)
			}
			feed += line + "\n"
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		status,
		borderStyle.Render(m.providerTable.View()),
		titleStyle.Render("recent routing"),
		feed,
		subtleStyle.Render("q: quit"),
	)
	return docStyle.Render(body)
}

func (m Model) idleCount() int {
	n := 0
	for _, p := range m.providers {
		if p.Idle {
			n++
		}
	}
	return n
}

func (m Model) pollLater() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return m.poll()()
	})
}

// poll fetches providers, then the recent item log. The two responses arrive
// as separate messages so a failure of one does not blank the other.
func (m Model) poll() tea.Cmd {
	return func() tea.Msg {
		var providers []providerRow
		if err := m.getJSON("/providers", &providers); err != nil {
			return errMsg{err}
		}
		return providersMsg(providers)
	}
}

func (m Model) fetchLog() tea.Cmd {
	return func() tea.Msg {
		var entries []logRow
		if err := m.getJSON("/items/log?limit=20", &entries); err != nil {
			return errMsg{err}
		}
		return logMsg(entries)
	}
}

func (m Model) getJSON(path string, out any) error {
	req, err := http.NewRequest("GET", m.apiURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: %s: %s", path, resp.Status, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Run starts the dashboard and blocks until the user quits.
func Run(apiURL, apiKey string) error {
	p := tea.NewProgram(*NewWatch(apiURL, apiKey), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

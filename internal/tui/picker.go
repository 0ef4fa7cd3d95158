// Package tui holds the interactive terminal surfaces: a pull-request
// picker backed by bubbletea, styled with lipgloss.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CosmoTheDev/prreview-agent/models"
)

// Picker is a bubbletea model that lets the user choose one pull request
// from a list.
type Picker struct {
	prs    []models.PullRequest
	cursor int
	choice *models.PullRequest
	width  int
	height int
}

// NewPicker creates a picker over the given pull requests.
func NewPicker(prs []models.PullRequest) *Picker {
	return &Picker{prs: prs}
}

// Run blocks until the user selects a PR or quits. A nil result with a
// nil error means the user cancelled.
func (p *Picker) Run() (*models.PullRequest, error) {
	prog := tea.NewProgram(p, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return nil, err
	}
	return p.choice, nil
}

// Init implements tea.Model.
func (p *Picker) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			p.choice = nil
			return p, tea.Quit
		case "up", "k":
			if p.cursor > 0 {
				p.cursor--
			}
		case "down", "j":
			if p.cursor < len(p.prs)-1 {
				p.cursor++
			}
		case "enter":
			if len(p.prs) > 0 {
				pr := p.prs[p.cursor]
				p.choice = &pr
			}
			return p, tea.Quit
		}
	}
	return p, nil
}

// View implements tea.Model.
func (p *Picker) View() string {
	if p.width == 0 {
		return "Loading..."
	}

	header := lipgloss.NewStyle().
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(line).
		Width(p.width).
		Padding(0, 1).
		Render(lipgloss.JoinHorizontal(lipgloss.Left,
			titleStyle.Render("prreview"),
			"  ",
			dimStyle.Render(fmt.Sprintf("%d pull request(s) waiting for review", len(p.prs))),
		))

	var rows []string
	if len(p.prs) == 0 {
		rows = append(rows, dimStyle.Render("  Nothing needs your review."))
	}
	for i, pr := range p.prs {
		rows = append(rows, p.renderRow(i, pr))
	}

	status := statusBarStyle.
		Width(p.width).
		Render("up/down move  enter select  q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left, rows...)),
		status,
	)
}

func (p *Picker) renderRow(i int, pr models.PullRequest) string {
	days := 0
	if !pr.CreatedAt.IsZero() {
		days = int(time.Since(pr.CreatedAt).Hours() / 24)
	}
	age := ageStyle(days).Render(fmt.Sprintf("%dd", days))

	line := lipgloss.JoinHorizontal(lipgloss.Left,
		idStyle.Render(fmt.Sprintf("#%-5d", pr.ID)),
		" ",
		rowStyle.Render(truncateTitle(pr.Title, max(20, p.width-30))),
		"  ",
		age,
	)
	if pr.Reason != "" {
		line = lipgloss.JoinVertical(lipgloss.Left,
			line,
			dimStyle.Render("       "+pr.Reason),
		)
	}
	if i == p.cursor {
		return selectedRowStyle.Render(line)
	}
	return "  " + line
}

func truncateTitle(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

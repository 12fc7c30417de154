package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/leadboard/internal/tui/styles"
)

func (m *Model) renderHeader() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Background(lipgloss.Color(m.theme.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	left := "leadboard"
	center := ""
	if active, ok := m.engine.Registry().Active(); ok {
		center = fmt.Sprintf("pipeline: %s", active.Name)
	}
	right := m.dataStatus()
	line := joinHeader(left, center, right, m.width)
	return style.Width(maxInt(0, m.width)).Render(line)
}

func (m *Model) renderFooter() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Background(lipgloss.Color(m.theme.Chrome.Footer)).
		Padding(0, 1)

	base := footerHints(m.activeViewID())
	if m.statusErr != "" {
		base = styles.Named(m.theme.Name).ErrorStyle().Render(truncate(m.statusErr, maxInt(0, m.width-2)))
		return style.Width(maxInt(0, m.width)).Render(base)
	}
	return style.Width(maxInt(0, m.width)).Render(truncate(base, maxInt(0, m.width-2)))
}

func footerHints(id ViewID) string {
	switch id {
	case ViewDetail:
		return "[enter]edit field [n]otes [s]tage [o]bservations [+]add note [esc]back"
	case ViewObservations:
		return "[t]ype filter [f]rom [u]ntil [x]clear [esc]back"
	case ViewStageAdmin:
		return "[a]dd [r]ename [c]olor [J/K]move [h]ide [d]elete [esc]back"
	default:
		return "[/]search [f]ilter [d]rag [v]select [s]tages [p]ipeline [enter]open [R]efresh q Quit"
	}
}

func (m *Model) dataStatus() string {
	switch {
	case !m.loaded:
		return "loading"
	case m.stale:
		return "stale"
	default:
		return "live"
	}
}

func joinHeader(left, center, right string, width int) string {
	left = strings.TrimSpace(left)
	center = strings.TrimSpace(center)
	right = strings.TrimSpace(right)
	if width <= 0 {
		return left
	}

	space := width - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if space < 2 {
		line := left
		if right != "" {
			line = left + "  " + right
		}
		return truncate(line, width)
	}

	leftGap := space / 2
	rightGap := space - leftGap
	return truncate(left+strings.Repeat(" ", leftGap)+center+strings.Repeat(" ", rightGap)+right, width)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/leadboard/internal/board"
	"github.com/tOgg1/leadboard/internal/models"
	"github.com/tOgg1/leadboard/internal/tui/styles"
)

const dateLayout = "2006-01-02"

type dateFocus int

const (
	dateFocusNone dateFocus = iota
	dateFocusFrom
	dateFocusUntil
)

// observationsView is the full interaction history for one lead, with
// client-side type and date-range filtering.
type observationsView struct {
	app *Model

	leadID  string
	entries []models.Observation
	loadErr string

	typeIdx   int // 0 = all, then models.ObservationTypes
	fromInput textinput.Model
	toInput   textinput.Model
	focus     dateFocus

	sel           int
	confirmDelete bool
}

func newObservationsView(app *Model) *observationsView {
	from := textinput.New()
	from.Placeholder = dateLayout
	from.CharLimit = 10
	from.Width = 12

	to := textinput.New()
	to.Placeholder = dateLayout
	to.CharLimit = 10
	to.Width = 12

	return &observationsView{app: app, fromInput: from, toInput: to}
}

// openHistory routes the full-history view at one lead.
func (m *Model) openHistory(leadID string) tea.Cmd {
	view, ok := m.views[ViewObservations].(*observationsView)
	if !ok {
		return nil
	}
	m.pushView(ViewObservations)
	return view.SetLead(leadID)
}

// SetLead targets the history at one lead and refetches.
func (v *observationsView) SetLead(leadID string) tea.Cmd {
	v.leadID = leadID
	v.entries = nil
	v.loadErr = ""
	v.typeIdx = 0
	v.fromInput.SetValue("")
	v.toInput.SetValue("")
	v.focus = dateFocusNone
	v.sel = 0
	v.confirmDelete = false
	return v.fetchCmd()
}

func (v *observationsView) Init() tea.Cmd {
	return nil
}

func (v *observationsView) InputActive() bool {
	return v.focus != dateFocusNone
}

func (v *observationsView) filter() board.HistoryFilter {
	f := board.HistoryFilter{}
	if v.typeIdx > 0 && v.typeIdx <= len(models.ObservationTypes) {
		f.Type = models.ObservationTypes[v.typeIdx-1]
	}
	if t, err := time.Parse(dateLayout, strings.TrimSpace(v.fromInput.Value())); err == nil {
		f.From = t
	}
	if t, err := time.Parse(dateLayout, strings.TrimSpace(v.toInput.Value())); err == nil {
		f.To = t
	}
	return f
}

func (v *observationsView) filtered() []models.Observation {
	return board.FilterObservations(v.entries, v.filter())
}

func (v *observationsView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case observationsMsg:
		if typed.leadID != v.leadID {
			return nil
		}
		if typed.err != nil {
			v.loadErr = typed.err.Error()
			return nil
		}
		v.loadErr = ""
		v.entries = typed.entries
		v.clampSel()
		return nil

	case observationDeletedMsg:
		if typed.leadID != v.leadID || typed.err != nil {
			return nil
		}
		for i, obs := range v.entries {
			if obs.ID == typed.id {
				v.entries = append(v.entries[:i], v.entries[i+1:]...)
				break
			}
		}
		v.clampSel()
		return nil

	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *observationsView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.focus != dateFocusNone {
		return v.handleDateKey(msg)
	}
	if v.confirmDelete {
		switch msg.String() {
		case "y", "Y":
			v.confirmDelete = false
			if obs, ok := v.selected(); ok {
				return v.deleteCmd(obs.ID)
			}
		case "n", "N", "esc":
			v.confirmDelete = false
		}
		return nil
	}

	switch msg.String() {
	case "j", "down":
		v.sel++
		v.clampSel()
	case "k", "up":
		v.sel--
		v.clampSel()
	case "t":
		v.typeIdx = (v.typeIdx + 1) % (len(models.ObservationTypes) + 1)
		v.clampSel()
	case "f":
		v.focus = dateFocusFrom
		return v.fromInput.Focus()
	case "u":
		v.focus = dateFocusUntil
		return v.toInput.Focus()
	case "x":
		v.typeIdx = 0
		v.fromInput.SetValue("")
		v.toInput.SetValue("")
		v.clampSel()
	case "d":
		if _, ok := v.selected(); ok {
			v.confirmDelete = true
		}
	case "esc", "backspace":
		return popViewCmd()
	}
	return nil
}

func (v *observationsView) handleDateKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter", "esc":
		v.fromInput.Blur()
		v.toInput.Blur()
		v.focus = dateFocusNone
		v.clampSel()
		return nil
	}
	var cmd tea.Cmd
	if v.focus == dateFocusFrom {
		v.fromInput, cmd = v.fromInput.Update(msg)
	} else {
		v.toInput, cmd = v.toInput.Update(msg)
	}
	return cmd
}

func (v *observationsView) selected() (models.Observation, bool) {
	entries := v.filtered()
	if v.sel < 0 || v.sel >= len(entries) {
		return models.Observation{}, false
	}
	return entries[v.sel], true
}

func (v *observationsView) clampSel() {
	n := len(v.filtered())
	if n == 0 {
		v.sel = 0
		return
	}
	v.sel = clamp(v.sel, 0, n-1)
}

func (v *observationsView) typeLabel() string {
	if v.typeIdx == 0 {
		return "all"
	}
	return string(models.ObservationTypes[v.typeIdx-1])
}

func (v *observationsView) View(width, height int, theme styles.Theme) string {
	var b strings.Builder

	lead, _ := v.app.engine.Store().Get(v.leadID)
	title := fmt.Sprintf("history: %s", lead.DisplayName())
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Base.Accent)).Render(title) + "\n")

	filterLine := fmt.Sprintf("type: %s  from: %s  until: %s",
		v.typeLabel(), v.fromInput.View(), v.toInput.View())
	b.WriteString(theme.MutedStyle().Render(filterLine) + "\n\n")

	if v.loadErr != "" {
		b.WriteString(theme.ErrorStyle().Render(v.loadErr) + "\n")
		return b.String()
	}

	entries := v.filtered()
	if len(entries) == 0 {
		b.WriteString(theme.MutedStyle().Render("no matching observations") + "\n")
		return b.String()
	}

	maxRows := maxInt(1, height-5)
	start := 0
	if v.sel >= maxRows {
		start = v.sel - maxRows + 1
	}
	for i := start; i < len(entries) && i < start+maxRows; i++ {
		obs := entries[i]
		cursor := "  "
		if i == v.sel {
			cursor = "> "
		}
		author := obs.CreatedByName
		if author == "" {
			author = "unknown"
		}
		line := fmt.Sprintf("%s%s %s %s  %s",
			cursor,
			theme.MutedStyle().Render(obs.CreatedAt.Format("2006-01-02 15:04")),
			theme.AccentStyle().Render(fmt.Sprintf("%-8s", obs.Type)),
			theme.MutedStyle().Render(author),
			obs.Notes)
		if i == v.sel {
			line = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Chrome.SelectedItem)).Render(line)
		}
		b.WriteString(truncate(line, maxInt(20, width-2)) + "\n")
	}

	if v.confirmDelete {
		b.WriteString("\n" + theme.ErrorStyle().Render("delete this observation? y/n"))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

func (v *observationsView) fetchCmd() tea.Cmd {
	provider := v.app.provider
	leadID := v.leadID
	limit := v.app.cfg.TUI.ObservationFetchLimit
	timeout := v.app.cfg.API.Timeout
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(timeout)
		defer cancel()
		entries, err := provider.Observations(ctx, leadID, limit)
		return observationsMsg{leadID: leadID, entries: entries, err: err}
	}
}

func (v *observationsView) deleteCmd(id string) tea.Cmd {
	provider := v.app.provider
	leadID := v.leadID
	timeout := v.app.cfg.API.Timeout
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(timeout)
		defer cancel()
		err := provider.DeleteObservation(ctx, id)
		return observationDeletedMsg{leadID: leadID, id: id, err: err}
	}
}

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

const unassignedColumnName = "Unassigned"

// boardView renders the Kanban columns and drives dragging, selection and
// the debounced search box.
type boardView struct {
	app *Model

	selCol  int
	selCard int

	search    textinput.Model
	searching bool
	debounce  board.Debouncer

	filtering bool
	filterDim int // index into filterDims
	filterSel int
	tagQuery  textinput.Model
	tagTyping bool

	confirmBulkDelete bool
}

var filterDims = []string{"stages", "tags", "devices"}

// renderColumn is one drawable column: stage-backed or the unassigned bucket.
type renderColumn struct {
	title   string
	stageID string // "" for the unassigned bucket
	color   string
	leads   []models.Lead
}

func newBoardView(app *Model) *boardView {
	input := textinput.New()
	input.Placeholder = "search leads"
	input.CharLimit = 120
	input.Width = 32

	tagQuery := textinput.New()
	tagQuery.Placeholder = "tag pattern, % wildcard"
	tagQuery.CharLimit = 60
	tagQuery.Width = 24

	return &boardView{app: app, search: input, tagQuery: tagQuery}
}

func (v *boardView) Init() tea.Cmd {
	return nil
}

func (v *boardView) InputActive() bool {
	return v.searching || v.tagTyping
}

func (v *boardView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case searchDebounceMsg:
		if !v.debounce.Current(typed.generation) {
			return nil
		}
		v.app.engine.SetSearch(v.search.Value())
		v.clampSelection()
		return nil
	case tea.KeyMsg:
		return v.handleKey(typed)
	default:
		return nil
	}
}

func (v *boardView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.searching {
		return v.handleSearchKey(msg)
	}
	if v.filtering {
		return v.handleFilterKey(msg)
	}
	if v.confirmBulkDelete {
		return v.handleConfirmKey(msg)
	}

	engine := v.app.engine
	switch engine.Mode().Kind() {
	case board.ModeDragging:
		return v.handleDragKey(msg)
	case board.ModeSelecting:
		return v.handleSelectionKey(msg)
	}

	switch msg.String() {
	case "h", "left":
		v.moveColumn(-1)
	case "l", "right":
		v.moveColumn(1)
	case "j", "down":
		v.moveCard(1)
	case "k", "up":
		v.moveCard(-1)
	case "/":
		v.searching = true
		return v.search.Focus()
	case "f":
		v.filtering = true
		v.filterSel = 0
	case "d":
		if lead, ok := v.selectedLead(); ok {
			if err := engine.StartDrag(lead.ID); err != nil {
				v.app.statusErr = err.Error()
			}
		}
	case "v":
		if err := engine.EnterSelection(); err != nil {
			v.app.statusErr = err.Error()
		}
	case "enter":
		if lead, ok := v.selectedLead(); ok {
			return openLeadCmd(lead.ID)
		}
	case "s":
		return pushViewCmd(ViewStageAdmin)
	case "H":
		if col, ok := v.selectedColumn(); ok && col.stageID != "" {
			v.app.prefs.ToggleStageHidden(v.app.cfg.API.AccountID, col.stageID)
			v.clampSelection()
		}
	case "p":
		v.cycleActivePipeline()
	case "b":
		account := v.app.cfg.API.AccountID
		v.app.prefs.SetSidebarCollapsed(account, !v.app.prefs.SidebarCollapsed(account))
	case "esc":
		if v.search.Value() != "" {
			v.search.SetValue("")
			v.app.engine.SetSearch("")
			v.clampSelection()
		}
	}
	return nil
}

func (v *boardView) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter", "esc":
		v.searching = false
		v.search.Blur()
		// Commit immediately on leaving the box.
		v.app.engine.SetSearch(v.search.Value())
		v.clampSelection()
		return nil
	}

	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)

	generation := v.debounce.Bump()
	debounce := v.app.cfg.TUI.SearchDebounce
	tick := tea.Tick(debounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{generation: generation}
	})
	return tea.Batch(cmd, tick)
}

// filterOption is one toggleable entry in the filter panel.
type filterOption struct {
	id     string // the value fed to the filter dimension
	label  string
	active bool
}

func (v *boardView) filterOptions() []filterOption {
	engine := v.app.engine
	filter := engine.Filter()
	switch filterDims[v.filterDim] {
	case "stages":
		pipeline, ok := engine.Registry().Active()
		if !ok {
			return nil
		}
		out := make([]filterOption, 0, len(pipeline.Stages))
		for _, stage := range pipeline.SortedStages() {
			_, active := filter.StageIDs[stage.ID]
			out = append(out, filterOption{id: stage.ID, label: stage.Name, active: active})
		}
		return out
	case "tags":
		match := board.TagNameMatcher(v.tagQuery.Value())
		out := []filterOption{}
		for _, name := range board.TagOptions(engine.Store().Leads()) {
			if !match(name) {
				continue
			}
			_, active := filter.TagNames[name]
			out = append(out, filterOption{id: name, label: name, active: active})
		}
		return out
	default:
		out := []filterOption{}
		for _, id := range board.DeviceOptions(engine.Store().Leads()) {
			_, active := filter.DeviceIDs[id]
			out = append(out, filterOption{id: id, label: id, active: active})
		}
		return out
	}
}

func (v *boardView) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	if v.tagTyping {
		switch msg.String() {
		case "enter", "esc":
			v.tagTyping = false
			v.tagQuery.Blur()
			v.filterSel = 0
			return nil
		}
		var cmd tea.Cmd
		v.tagQuery, cmd = v.tagQuery.Update(msg)
		v.filterSel = 0
		return cmd
	}

	filter := v.app.engine.Filter()
	switch msg.String() {
	case "tab", "l", "right":
		v.filterDim = (v.filterDim + 1) % len(filterDims)
		v.filterSel = 0
	case "h", "left":
		v.filterDim = (v.filterDim + len(filterDims) - 1) % len(filterDims)
		v.filterSel = 0
	case "j", "down":
		if n := len(v.filterOptions()); n > 0 {
			v.filterSel = clamp(v.filterSel+1, 0, n-1)
		}
	case "k", "up":
		if n := len(v.filterOptions()); n > 0 {
			v.filterSel = clamp(v.filterSel-1, 0, n-1)
		}
	case " ", "enter":
		options := v.filterOptions()
		if v.filterSel < 0 || v.filterSel >= len(options) {
			return nil
		}
		picked := options[v.filterSel].id
		switch filterDims[v.filterDim] {
		case "stages":
			filter.ToggleStage(picked)
		case "tags":
			filter.ToggleTag(picked)
		default:
			filter.ToggleDevice(picked)
			v.clampSelection()
			// The device dimension also narrows the lead query itself.
			return v.app.fetchBoardCmd()
		}
		v.clampSelection()
	case "/":
		if filterDims[v.filterDim] == "tags" {
			v.tagTyping = true
			return v.tagQuery.Focus()
		}
	case "x":
		hadDevices := len(filter.DeviceIDs) > 0
		filter.ClearDimensions()
		v.tagQuery.SetValue("")
		v.filterSel = 0
		v.clampSelection()
		if hadDevices {
			return v.app.fetchBoardCmd()
		}
	case "esc":
		v.filtering = false
		v.clampSelection()
	}
	return nil
}

func (v *boardView) handleDragKey(msg tea.KeyMsg) tea.Cmd {
	engine := v.app.engine
	switch msg.String() {
	case "h", "left":
		v.moveHover(-1)
	case "l", "right":
		v.moveHover(1)
	case "enter":
		move, err := engine.Drop()
		if err != nil {
			v.app.statusErr = err.Error()
			return nil
		}
		if move == nil {
			return nil
		}
		return v.app.moveLeadCmd(*move)
	case "esc":
		engine.CancelDrag()
	}
	return nil
}

func (v *boardView) handleSelectionKey(msg tea.KeyMsg) tea.Cmd {
	engine := v.app.engine
	switch msg.String() {
	case "h", "left":
		v.moveColumn(-1)
	case "l", "right":
		v.moveColumn(1)
	case "j", "down":
		v.moveCard(1)
	case "k", "up":
		v.moveCard(-1)
	case " ", "x":
		if lead, ok := v.selectedLead(); ok {
			engine.ToggleSelect(lead.ID)
		}
	case "a":
		engine.SelectAllVisible()
	case "D":
		if engine.SelectionCount() > 0 {
			v.confirmBulkDelete = true
		}
	case "esc":
		engine.ExitSelection()
	}
	return nil
}

func (v *boardView) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		v.confirmBulkDelete = false
		ids := v.app.engine.SelectedIDs()
		return v.app.deleteLeadsBatchCmd(ids)
	case "n", "N", "esc":
		v.confirmBulkDelete = false
	}
	return nil
}

func (v *boardView) cycleActivePipeline() {
	registry := v.app.engine.Registry()
	pipelines := registry.Pipelines()
	if len(pipelines) < 2 {
		return
	}
	current := registry.ActiveID()
	for i, p := range pipelines {
		if p.ID == current {
			next := pipelines[(i+1)%len(pipelines)]
			registry.SetActive(next.ID)
			v.app.prefs.SetLastPipeline(v.app.cfg.API.AccountID, next.ID)
			v.selCol, v.selCard = 0, 0
			return
		}
	}
}

func (v *boardView) renderColumns() []renderColumn {
	b := v.app.engine.BoardView(v.app.hiddenStages())
	out := make([]renderColumn, 0, len(b.Columns)+1)
	for _, col := range b.Columns {
		out = append(out, renderColumn{
			title:   col.Stage.Name,
			stageID: col.Stage.ID,
			color:   col.Stage.Color,
			leads:   col.Leads,
		})
	}
	if len(b.Unassigned) > 0 {
		out = append(out, renderColumn{title: unassignedColumnName, leads: b.Unassigned})
	}
	return out
}

func (v *boardView) selectedColumn() (renderColumn, bool) {
	cols := v.renderColumns()
	if v.selCol < 0 || v.selCol >= len(cols) {
		return renderColumn{}, false
	}
	return cols[v.selCol], true
}

func (v *boardView) selectedLead() (models.Lead, bool) {
	col, ok := v.selectedColumn()
	if !ok || v.selCard < 0 || v.selCard >= len(col.leads) {
		return models.Lead{}, false
	}
	return col.leads[v.selCard], true
}

func (v *boardView) moveColumn(delta int) {
	cols := v.renderColumns()
	if len(cols) == 0 {
		return
	}
	v.selCol = clamp(v.selCol+delta, 0, len(cols)-1)
	v.clampSelection()
}

func (v *boardView) moveCard(delta int) {
	col, ok := v.selectedColumn()
	if !ok || len(col.leads) == 0 {
		return
	}
	v.selCard = clamp(v.selCard+delta, 0, len(col.leads)-1)
}

func (v *boardView) moveHover(delta int) {
	cols := v.renderColumns()
	if len(cols) == 0 {
		return
	}
	current := v.app.engine.HoverStageID()
	idx := 0
	for i, col := range cols {
		if col.stageID == current && col.stageID != "" {
			idx = i
			break
		}
	}
	for next := idx + delta; next >= 0 && next < len(cols); next += delta {
		// The unassigned bucket is not a drop target.
		if cols[next].stageID == "" {
			continue
		}
		_ = v.app.engine.HoverColumn(cols[next].stageID)
		return
	}
}

func (v *boardView) clampSelection() {
	cols := v.renderColumns()
	if len(cols) == 0 {
		v.selCol, v.selCard = 0, 0
		return
	}
	v.selCol = clamp(v.selCol, 0, len(cols)-1)
	if n := len(cols[v.selCol].leads); n == 0 {
		v.selCard = 0
	} else {
		v.selCard = clamp(v.selCard, 0, n-1)
	}
}

func (v *boardView) View(width, height int, theme styles.Theme) string {
	if width <= 0 {
		return "loading..."
	}
	cols := v.renderColumns()
	if len(cols) == 0 {
		return theme.MutedStyle().Render("no pipeline loaded")
	}

	searchLine := v.renderSearchLine(theme)
	if v.filtering {
		searchLine = lipgloss.JoinVertical(lipgloss.Left, searchLine, v.renderFilterPanel(theme))
	}
	bodyHeight := maxInt(1, height-lipgloss.Height(searchLine))

	sidebar := ""
	columnsWidth := width
	if !v.app.prefs.SidebarCollapsed(v.app.cfg.API.AccountID) {
		sidebar = v.renderSidebar(bodyHeight, theme)
		columnsWidth = maxInt(16, width-lipgloss.Width(sidebar))
	}

	colWidth := maxInt(16, columnsWidth/len(cols)-2)
	rendered := make([]string, 0, len(cols))
	for i, col := range cols {
		rendered = append(rendered, v.renderColumn(col, i, colWidth, bodyHeight, theme))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	if sidebar != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, searchLine, body)
}

// renderSidebar lists the loaded pipelines; b collapses it and the collapse
// sticks across sessions.
func (v *boardView) renderSidebar(height int, theme styles.Theme) string {
	registry := v.app.engine.Registry()
	active := registry.ActiveID()

	lines := []string{lipgloss.NewStyle().Bold(true).Render("pipelines")}
	for _, p := range registry.Pipelines() {
		marker := "  "
		label := p.Name
		if p.ID == active {
			marker = "* "
			label = theme.AccentStyle().Render(label)
		}
		lines = append(lines, truncate(marker+label, 16))
	}
	lines = append(lines, "", theme.MutedStyle().Render("p next, b hide"))

	return lipgloss.NewStyle().
		Border(theme.ColumnBorder()).
		BorderForeground(lipgloss.Color(theme.Borders.InactiveColumn)).
		Width(18).
		Height(maxInt(3, height-2)).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func (v *boardView) renderSearchLine(theme styles.Theme) string {
	engine := v.app.engine
	parts := []string{}
	if v.searching || v.search.Value() != "" {
		parts = append(parts, "/"+v.search.View())
	}
	if mode := engine.Mode().Kind(); mode != board.ModeIdle {
		parts = append(parts, theme.AccentStyle().Render(fmt.Sprintf("[%s]", mode)))
	}
	if n := engine.SelectionCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if v.confirmBulkDelete {
		parts = append(parts, theme.ErrorStyle().Render(
			fmt.Sprintf("delete %d lead(s)? y/n", engine.SelectionCount())))
	}
	if !engine.Filter().IsEmpty() {
		filter := engine.Filter()
		parts = append(parts, theme.MutedStyle().Render(fmt.Sprintf(
			"filters: %d stage, %d tag, %d device",
			len(filter.StageIDs), len(filter.TagNames), len(filter.DeviceIDs))))
	}
	if len(parts) == 0 {
		return theme.MutedStyle().Render(" ")
	}
	return strings.Join(parts, "  ")
}

func (v *boardView) renderFilterPanel(theme styles.Theme) string {
	var b strings.Builder

	tabs := make([]string, 0, len(filterDims))
	for i, dim := range filterDims {
		label := dim
		if i == v.filterDim {
			label = theme.AccentStyle().Render("[" + dim + "]")
		}
		tabs = append(tabs, label)
	}
	b.WriteString(strings.Join(tabs, " ") + "  ")

	if filterDims[v.filterDim] == "tags" {
		b.WriteString("/" + v.tagQuery.View() + "  ")
	}

	options := v.filterOptions()
	if len(options) == 0 {
		b.WriteString(theme.MutedStyle().Render("no options"))
		return b.String()
	}
	rendered := make([]string, 0, len(options))
	for i, opt := range options {
		mark := "( )"
		if opt.active {
			mark = "(x)"
		}
		entry := mark + " " + opt.label
		if i == v.filterSel {
			entry = theme.AccentStyle().Render(entry)
		}
		rendered = append(rendered, entry)
	}
	b.WriteString(strings.Join(rendered, "  "))
	return b.String()
}

func (v *boardView) renderColumn(col renderColumn, index, width, height int, theme styles.Theme) string {
	engine := v.app.engine
	dragging := engine.Mode().Kind() == board.ModeDragging
	isDropTarget := dragging && col.stageID != "" && col.stageID == engine.HoverStageID()

	borderColor := theme.Borders.InactiveColumn
	if index == v.selCol {
		borderColor = theme.Borders.ActiveColumn
	}
	if isDropTarget {
		borderColor = theme.Borders.DropTarget
	}

	headerColor := col.color
	if headerColor == "" {
		headerColor = theme.Base.Muted
	}
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color(headerColor)).
		Bold(true).
		Render(truncate(fmt.Sprintf("%s (%d)", col.title, len(col.leads)), width-2))

	lines := []string{header}
	maxCards := maxInt(1, height-4)
	for i, lead := range col.leads {
		if i >= maxCards {
			lines = append(lines, theme.MutedStyle().Render(fmt.Sprintf("+%d more", len(col.leads)-maxCards)))
			break
		}
		lines = append(lines, v.renderCard(lead, index, i, width-2, theme))
	}

	return lipgloss.NewStyle().
		Border(theme.ColumnBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Width(width).
		Height(maxInt(3, height-2)).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func (v *boardView) renderCard(lead models.Lead, colIndex, cardIndex, width int, theme styles.Theme) string {
	engine := v.app.engine

	label := lead.DisplayName()
	if lead.DeviceID != nil {
		label += " ·"
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Card.Normal))
	prefix := "  "
	switch {
	case engine.Mode().Kind() == board.ModeDragging && engine.DraggedLeadID() == lead.ID:
		style = style.Foreground(lipgloss.Color(theme.Card.Dragging)).Bold(true)
		prefix = "≡ "
	case engine.IsSelected(lead.ID):
		style = style.Foreground(lipgloss.Color(theme.Card.Selected))
		prefix = "✓ "
	case colIndex == v.selCol && cardIndex == v.selCard:
		style = style.Foreground(lipgloss.Color(theme.Chrome.SelectedItem)).Bold(true)
		prefix = "> "
	}
	return style.Render(truncate(prefix+label, width))
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// moveLeadCmd sends the stage move; the cache was already updated
// optimistically, the revert runs if the backend rejects it.
func (m *Model) moveLeadCmd(move board.StageMove) tea.Cmd {
	provider := m.provider
	timeout := m.cfg.API.Timeout
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(timeout)
		defer cancel()

		var err error
		if move.CrossPipeline() {
			_, err = provider.UpdateLead(ctx, move.LeadID, map[string]any{
				"pipeline_id": move.ToPipelineID,
				"stage_id":    move.ToStageID,
			})
		} else {
			err = provider.UpdateLeadStage(ctx, move.LeadID, move.ToStageID)
		}
		return moveResultMsg{move: move, err: err}
	}
}

// deleteLeadCmd deletes one lead from the detail panel.
func (m *Model) deleteLeadCmd(id string) tea.Cmd {
	provider := m.provider
	timeout := m.cfg.API.Timeout
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(timeout)
		defer cancel()
		err := provider.DeleteLead(ctx, id)
		return leadsDeletedMsg{ids: []string{id}, err: err}
	}
}

// deleteLeadsBatchCmd deletes a selection; the batch endpoint regardless of
// selection size.
func (m *Model) deleteLeadsBatchCmd(ids []string) tea.Cmd {
	provider := m.provider
	timeout := m.cfg.API.Timeout
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(timeout)
		defer cancel()
		err := provider.DeleteLeadsBatch(ctx, ids)
		return leadsDeletedMsg{ids: ids, err: err}
	}
}

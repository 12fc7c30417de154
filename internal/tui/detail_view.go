package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/leadboard/internal/board"
	"github.com/tOgg1/leadboard/internal/models"
	"github.com/tOgg1/leadboard/internal/tui/styles"
)

// detailView is the lead side panel: per-field inline editing, the notes
// editor, the inline observation log and quick stage reassignment.
type detailView struct {
	app *Model

	leadID   string
	selField int

	fieldInput textinput.Model
	notesInput textarea.Model

	obs        *board.ObservationLog
	obsErr     string
	noteDraft  textinput.Model
	addingNote bool

	pickingStage bool
	stageIdx     int

	confirmDelete bool
}

// stageChoice is one entry in the stage picker: any stage of any loaded
// pipeline, so reassignment can cross pipelines.
type stageChoice struct {
	pipelineID   string
	pipelineName string
	stage        models.Stage
}

func newDetailView(app *Model) *detailView {
	field := textinput.New()
	field.CharLimit = 200
	field.Width = 40

	notes := textarea.New()
	notes.CharLimit = 4000
	notes.SetWidth(48)
	notes.SetHeight(6)

	note := textinput.New()
	note.Placeholder = "new note"
	note.CharLimit = 500
	note.Width = 48

	return &detailView{app: app, fieldInput: field, notesInput: notes, noteDraft: note}
}

// SetLead targets the panel at one lead and fetches its observation log.
func (v *detailView) SetLead(leadID string) tea.Cmd {
	v.leadID = leadID
	v.selField = 0
	v.obs = nil
	v.obsErr = ""
	v.confirmDelete = false
	v.addingNote = false
	v.pickingStage = false
	return v.fetchObservationsCmd()
}

func (v *detailView) Init() tea.Cmd {
	return nil
}

func (v *detailView) InputActive() bool {
	kind := v.app.engine.Mode().Kind()
	return kind == board.ModeEditingField || kind == board.ModeEditingNotes || v.addingNote
}

func (v *detailView) lead() (models.Lead, bool) {
	return v.app.engine.Store().Get(v.leadID)
}

func (v *detailView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case observationsMsg:
		if typed.leadID != v.leadID {
			return nil
		}
		if typed.err != nil {
			v.obsErr = typed.err.Error()
			return nil
		}
		v.obsErr = ""
		v.obs = board.NewObservationLog(typed.entries)
		return nil

	case observationSavedMsg:
		if typed.leadID != v.leadID {
			return nil
		}
		if typed.err != nil {
			v.obsErr = typed.err.Error()
			return nil
		}
		if v.obs != nil {
			v.obs.Prepend(typed.obs)
		}
		return nil

	case observationDeletedMsg:
		if typed.leadID != v.leadID || typed.err != nil {
			return nil
		}
		if v.obs != nil {
			v.obs.Remove(typed.id)
		}
		return nil

	case leadUpdatedMsg:
		if typed.err != nil {
			v.app.statusErr = fmt.Sprintf("update failed: %v", typed.err)
			return nil
		}
		v.app.engine.Store().Update(typed.lead)
		v.app.statusErr = ""
		return nil

	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *detailView) handleKey(msg tea.KeyMsg) tea.Cmd {
	engine := v.app.engine

	if v.addingNote {
		return v.handleNoteDraftKey(msg)
	}
	switch engine.Mode().Kind() {
	case board.ModeEditingField:
		return v.handleFieldEditKey(msg)
	case board.ModeEditingNotes:
		return v.handleNotesEditKey(msg)
	}
	if v.confirmDelete {
		return v.handleConfirmKey(msg)
	}
	if v.pickingStage {
		return v.handleStagePickKey(msg)
	}

	switch msg.String() {
	case "j", "down":
		v.selField = clamp(v.selField+1, 0, len(board.EditableFields)-1)
	case "k", "up":
		v.selField = clamp(v.selField-1, 0, len(board.EditableFields)-1)
	case "enter", "e":
		return v.beginFieldEdit()
	case "n":
		return v.beginNotesEdit()
	case "s":
		v.beginStagePick()
	case "+":
		v.addingNote = true
		v.noteDraft.SetValue("")
		return v.noteDraft.Focus()
	case "m":
		if v.obs != nil {
			v.obs.ShowMore()
		}
	case "o":
		return v.app.openHistory(v.leadID)
	case "[":
		return v.shiftStage(-1)
	case "]":
		return v.shiftStage(1)
	case "D":
		v.confirmDelete = true
	case "esc", "backspace":
		return popViewCmd()
	}
	return nil
}

func (v *detailView) beginFieldEdit() tea.Cmd {
	lead, ok := v.lead()
	if !ok {
		return nil
	}
	field := board.EditableFields[v.selField]
	if err := v.app.engine.BeginFieldEdit(field); err != nil {
		v.app.statusErr = err.Error()
		return nil
	}
	v.fieldInput.SetValue(board.FieldValue(lead, field))
	v.fieldInput.CursorEnd()
	return v.fieldInput.Focus()
}

func (v *detailView) handleFieldEditKey(msg tea.KeyMsg) tea.Cmd {
	engine := v.app.engine
	switch msg.String() {
	case "enter":
		field := engine.Mode().Field()
		raw := v.fieldInput.Value()
		payload, err := board.FieldPayload(field, raw)
		if err != nil {
			v.app.statusErr = err.Error()
			return nil
		}
		engine.EndEdit()
		v.fieldInput.Blur()
		v.app.statusErr = ""
		// Shown immediately; the response overwrites with server truth.
		if lead, ok := v.lead(); ok {
			engine.Store().Update(board.ApplyField(lead, field, raw))
		}
		return v.app.updateLeadCmd(v.leadID, payload)
	case "esc":
		engine.EndEdit()
		v.fieldInput.Blur()
		return nil
	}
	var cmd tea.Cmd
	v.fieldInput, cmd = v.fieldInput.Update(msg)
	return cmd
}

func (v *detailView) beginNotesEdit() tea.Cmd {
	lead, ok := v.lead()
	if !ok {
		return nil
	}
	if err := v.app.engine.BeginNotesEdit(); err != nil {
		v.app.statusErr = err.Error()
		return nil
	}
	v.notesInput.SetValue(lead.Notes)
	return v.notesInput.Focus()
}

func (v *detailView) handleNotesEditKey(msg tea.KeyMsg) tea.Cmd {
	engine := v.app.engine
	switch msg.String() {
	case "ctrl+s":
		notes := v.notesInput.Value()
		engine.EndEdit()
		v.notesInput.Blur()
		var value any = notes
		if strings.TrimSpace(notes) == "" {
			value = nil
		}
		return v.app.updateLeadCmd(v.leadID, map[string]any{"notes": value})
	case "esc":
		engine.EndEdit()
		v.notesInput.Blur()
		return nil
	}
	var cmd tea.Cmd
	v.notesInput, cmd = v.notesInput.Update(msg)
	return cmd
}

func (v *detailView) handleNoteDraftKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(v.noteDraft.Value())
		v.addingNote = false
		v.noteDraft.Blur()
		if text == "" {
			return nil
		}
		return v.app.createObservationCmd(v.leadID, text)
	case "esc":
		v.addingNote = false
		v.noteDraft.Blur()
		return nil
	}
	var cmd tea.Cmd
	v.noteDraft, cmd = v.noteDraft.Update(msg)
	return cmd
}

func (v *detailView) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		v.confirmDelete = false
		return tea.Batch(v.app.deleteLeadCmd(v.leadID), popViewCmd())
	case "n", "N", "esc":
		v.confirmDelete = false
	}
	return nil
}

func (v *detailView) stageChoices() []stageChoice {
	out := []stageChoice{}
	for _, pipeline := range v.app.engine.Registry().Pipelines() {
		for _, stage := range pipeline.SortedStages() {
			out = append(out, stageChoice{
				pipelineID:   pipeline.ID,
				pipelineName: pipeline.Name,
				stage:        stage,
			})
		}
	}
	return out
}

func (v *detailView) beginStagePick() {
	lead, ok := v.lead()
	if !ok {
		return
	}
	v.stageIdx = 0
	if lead.StageID != nil {
		for i, choice := range v.stageChoices() {
			if choice.stage.ID == *lead.StageID {
				v.stageIdx = i
				break
			}
		}
	}
	v.pickingStage = true
}

func (v *detailView) handleStagePickKey(msg tea.KeyMsg) tea.Cmd {
	choices := v.stageChoices()
	switch msg.String() {
	case "j", "down":
		if len(choices) > 0 {
			v.stageIdx = clamp(v.stageIdx+1, 0, len(choices)-1)
		}
	case "k", "up":
		if len(choices) > 0 {
			v.stageIdx = clamp(v.stageIdx-1, 0, len(choices)-1)
		}
	case "enter":
		v.pickingStage = false
		if v.stageIdx < 0 || v.stageIdx >= len(choices) {
			return nil
		}
		return v.moveToChoice(choices[v.stageIdx])
	case "esc":
		v.pickingStage = false
	}
	return nil
}

// moveToChoice reassigns the lead to any picked stage; a pick in another
// pipeline issues a combined pipeline+stage update.
func (v *detailView) moveToChoice(choice stageChoice) tea.Cmd {
	engine := v.app.engine
	lead, ok := v.lead()
	if !ok {
		return nil
	}
	if lead.StageID != nil && *lead.StageID == choice.stage.ID {
		return nil
	}
	fromStageID := ""
	if lead.StageID != nil {
		fromStageID = *lead.StageID
	}

	move := board.StageMove{
		LeadID:      lead.ID,
		FromStageID: fromStageID,
		ToStageID:   choice.stage.ID,
	}
	crossPipeline := lead.PipelineID == nil || *lead.PipelineID != choice.pipelineID

	var revert board.Revert
	var moved bool
	if crossPipeline {
		move.ToPipelineID = choice.pipelineID
		revert, moved = engine.Store().MoveToPipeline(lead.ID, choice.pipelineID, choice.stage)
	} else {
		revert, moved = engine.Store().MoveToStage(lead.ID, choice.stage)
	}
	if !moved {
		return nil
	}
	move.Revert = revert
	return v.app.moveLeadCmd(move)
}

// shiftStage reassigns the lead to the previous/next stage of its pipeline
// from the panel, reusing the same optimistic move path as drag-and-drop.
func (v *detailView) shiftStage(delta int) tea.Cmd {
	engine := v.app.engine
	lead, ok := v.lead()
	if !ok || lead.StageID == nil {
		return nil
	}
	_, pipeline, ok := engine.Registry().FindStage(*lead.StageID)
	if !ok {
		return nil
	}

	stages := pipeline.SortedStages()
	idx := -1
	for i, s := range stages {
		if s.ID == *lead.StageID {
			idx = i
			break
		}
	}
	next := idx + delta
	if idx == -1 || next < 0 || next >= len(stages) {
		return nil
	}

	target := stages[next]
	revert, moved := engine.Store().MoveToStage(lead.ID, target)
	if !moved {
		return nil
	}
	move := board.StageMove{
		LeadID:      lead.ID,
		FromStageID: *lead.StageID,
		ToStageID:   target.ID,
		Revert:      revert,
	}
	return v.app.moveLeadCmd(move)
}

func (v *detailView) View(width, height int, theme styles.Theme) string {
	lead, ok := v.lead()
	if !ok {
		return theme.MutedStyle().Render("lead no longer exists")
	}

	var b strings.Builder
	title := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color(theme.Base.Accent)).
		Render(lead.DisplayName())
	b.WriteString(title + "\n")
	b.WriteString(v.renderStageLine(lead, theme) + "\n")
	if v.pickingStage {
		b.WriteString(v.renderStagePicker(theme))
	}
	b.WriteString("\n")

	b.WriteString(v.renderFields(lead, theme))
	b.WriteString("\n" + v.renderNotes(lead, theme))
	b.WriteString("\n" + v.renderTags(lead, theme))
	b.WriteString("\n" + v.renderObservations(theme))

	if v.confirmDelete {
		b.WriteString("\n" + theme.ErrorStyle().Render("delete this lead? y/n"))
	}

	return lipgloss.NewStyle().Padding(0, 1).MaxWidth(maxInt(20, width)).Render(b.String())
}

func (v *detailView) renderStageLine(lead models.Lead, theme styles.Theme) string {
	if lead.StageID == nil {
		return theme.MutedStyle().Render("stage: unassigned")
	}
	color := lead.StageColor
	if color == "" {
		color = theme.Base.Muted
	}
	stage := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(lead.StageName)
	return "stage: " + stage + theme.MutedStyle().Render("  [ / ] shift, s pick")
}

func (v *detailView) renderStagePicker(theme styles.Theme) string {
	var b strings.Builder
	for i, choice := range v.stageChoices() {
		cursor := "  "
		if i == v.stageIdx {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%s / %s", cursor, choice.pipelineName, choice.stage.Name)
		if i == v.stageIdx {
			line = theme.AccentStyle().Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (v *detailView) renderFields(lead models.Lead, theme styles.Theme) string {
	engine := v.app.engine
	editingField := ""
	if engine.Mode().Kind() == board.ModeEditingField {
		editingField = engine.Mode().Field()
	}

	var b strings.Builder
	for i, field := range board.EditableFields {
		cursor := "  "
		if i == v.selField {
			cursor = "> "
		}
		if field == editingField {
			b.WriteString(fmt.Sprintf("%s%s: %s\n", cursor, field, v.fieldInput.View()))
			continue
		}
		value := board.FieldValue(lead, field)
		if value == "" {
			value = theme.MutedStyle().Render("—")
		}
		line := fmt.Sprintf("%s%s: %s", cursor, field, value)
		if i == v.selField {
			line = theme.AccentStyle().Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (v *detailView) renderNotes(lead models.Lead, theme styles.Theme) string {
	if v.app.engine.Mode().Kind() == board.ModeEditingNotes {
		return "notes (ctrl+s save, esc cancel):\n" + v.notesInput.View() + "\n"
	}
	if strings.TrimSpace(lead.Notes) == "" {
		return theme.MutedStyle().Render("notes: — (n to edit)") + "\n"
	}
	return "notes:\n" + lead.Notes + "\n"
}

func (v *detailView) renderTags(lead models.Lead, theme styles.Theme) string {
	if len(lead.StructuredTags) == 0 {
		return ""
	}
	names := make([]string, 0, len(lead.StructuredTags))
	for _, tag := range lead.StructuredTags {
		names = append(names, tag.Name)
	}
	return theme.MutedStyle().Render("tags: "+strings.Join(names, ", ")) + "\n"
}

func (v *detailView) renderObservations(theme styles.Theme) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("observations") + "\n")

	if v.addingNote {
		b.WriteString("+ " + v.noteDraft.View() + "\n")
	}
	if v.obsErr != "" {
		b.WriteString(theme.ErrorStyle().Render(v.obsErr) + "\n")
		return b.String()
	}
	if v.obs == nil {
		b.WriteString(theme.MutedStyle().Render("loading...") + "\n")
		return b.String()
	}
	if v.obs.Total() == 0 {
		b.WriteString(theme.MutedStyle().Render("none yet (+ to add)") + "\n")
		return b.String()
	}

	for _, obs := range v.obs.Visible() {
		when := obs.CreatedAt.Format("02 Jan 15:04")
		b.WriteString(fmt.Sprintf("%s %s  %s\n",
			theme.MutedStyle().Render(when),
			theme.AccentStyle().Render(string(obs.Type)),
			truncate(obs.Notes, 60)))
	}
	if hidden := v.obs.Hidden(); hidden > 0 {
		b.WriteString(theme.MutedStyle().Render(fmt.Sprintf("m: show %d more", minInt(hidden, board.RevealStep))) + "\n")
	}
	return b.String()
}

func (v *detailView) fetchObservationsCmd() tea.Cmd {
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

func (m *Model) updateLeadCmd(leadID string, fields map[string]any) tea.Cmd {
	provider := m.provider
	timeout := m.cfg.API.Timeout
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(timeout)
		defer cancel()
		lead, err := provider.UpdateLead(ctx, leadID, fields)
		return leadUpdatedMsg{lead: lead, err: err}
	}
}

func (m *Model) createObservationCmd(leadID, notes string) tea.Cmd {
	provider := m.provider
	timeout := m.cfg.API.Timeout
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(timeout)
		defer cancel()
		obs, err := provider.CreateObservation(ctx, models.Observation{
			LeadID: leadID,
			Type:   models.ObservationNote,
			Notes:  notes,
		})
		return observationSavedMsg{leadID: leadID, obs: obs, err: err}
	}
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/leadboard/internal/board"
	"github.com/tOgg1/leadboard/internal/models"
	"github.com/tOgg1/leadboard/internal/tui/styles"
)

type stageEditState int

const (
	stageEditNone stageEditState = iota
	stageEditAddName
	stageEditAddColor
	stageEditRename
	stageEditRecolor
)

// stageAdminView manages the active pipeline's stages: create, rename,
// recolor, reorder, hide and delete.
type stageAdminView struct {
	app *Model

	sel   int
	edit  stageEditState
	input textinput.Model

	pendingName   string
	confirmDelete bool
	localErr      string
}

func newStageAdminView(app *Model) *stageAdminView {
	input := textinput.New()
	input.CharLimit = 80
	input.Width = 32
	return &stageAdminView{app: app, input: input}
}

func (v *stageAdminView) Init() tea.Cmd {
	v.localErr = ""
	v.confirmDelete = false
	v.edit = stageEditNone
	v.clampSel()
	return nil
}

func (v *stageAdminView) InputActive() bool {
	return v.edit != stageEditNone
}

func (v *stageAdminView) pipeline() (models.Pipeline, bool) {
	return v.app.engine.Registry().Active()
}

func (v *stageAdminView) stages() []models.Stage {
	pipeline, ok := v.pipeline()
	if !ok {
		return nil
	}
	return pipeline.SortedStages()
}

func (v *stageAdminView) selectedStage() (models.Stage, bool) {
	stages := v.stages()
	if v.sel < 0 || v.sel >= len(stages) {
		return models.Stage{}, false
	}
	return stages[v.sel], true
}

func (v *stageAdminView) clampSel() {
	n := len(v.stages())
	if n == 0 {
		v.sel = 0
		return
	}
	v.sel = clamp(v.sel, 0, n-1)
}

func (v *stageAdminView) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if v.edit != stageEditNone {
		return v.handleEditKey(keyMsg)
	}
	if v.confirmDelete {
		return v.handleConfirmKey(keyMsg)
	}
	return v.handleKey(keyMsg)
}

func (v *stageAdminView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "j", "down":
		v.sel++
		v.clampSel()
	case "k", "up":
		v.sel--
		v.clampSel()
	case "a":
		v.beginEdit(stageEditAddName, "", "stage name")
	case "r":
		if stage, ok := v.selectedStage(); ok {
			v.beginEdit(stageEditRename, stage.Name, "stage name")
		}
	case "c":
		if stage, ok := v.selectedStage(); ok {
			color := stage.Color
			if color == "" {
				color = models.DefaultStageColor
			}
			v.beginEdit(stageEditRecolor, color, "#RRGGBB")
		}
	case "J":
		return v.shift(1)
	case "K":
		return v.shift(-1)
	case "h":
		if stage, ok := v.selectedStage(); ok {
			v.app.prefs.ToggleStageHidden(v.app.cfg.API.AccountID, stage.ID)
		}
	case "d":
		if _, ok := v.selectedStage(); ok {
			v.localErr = ""
			v.confirmDelete = true
		}
	case "esc", "backspace":
		return popViewCmd()
	}
	return nil
}

func (v *stageAdminView) beginEdit(state stageEditState, value, placeholder string) {
	v.edit = state
	v.localErr = ""
	v.input.Placeholder = placeholder
	v.input.SetValue(value)
	v.input.CursorEnd()
	v.input.Focus()
}

func (v *stageAdminView) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		v.edit = stageEditNone
		v.input.Blur()
		return nil
	case "enter":
		return v.commitEdit()
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return cmd
}

func (v *stageAdminView) commitEdit() tea.Cmd {
	pipeline, ok := v.pipeline()
	if !ok {
		v.edit = stageEditNone
		return nil
	}
	value := v.input.Value()

	switch v.edit {
	case stageEditAddName:
		name := strings.TrimSpace(value)
		if name == "" {
			v.localErr = "stage name must not be blank"
			return nil
		}
		v.pendingName = name
		v.beginEdit(stageEditAddColor, models.DefaultStageColor, "#RRGGBB")
		return nil

	case stageEditAddColor:
		name, color, err := board.StageDraft{Name: v.pendingName, Color: value}.Normalize()
		if err != nil {
			v.localErr = err.Error()
			return nil
		}
		v.endEdit()
		return v.app.createStageCmd(pipeline.ID, name, color)

	case stageEditRename:
		stage, ok := v.selectedStage()
		if !ok {
			v.endEdit()
			return nil
		}
		name, color, err := board.StageDraft{Name: value, Color: stage.Color}.Normalize()
		if err != nil {
			v.localErr = err.Error()
			return nil
		}
		v.endEdit()
		return v.app.updateStageCmd(pipeline.ID, stage.ID, name, color)

	case stageEditRecolor:
		stage, ok := v.selectedStage()
		if !ok {
			v.endEdit()
			return nil
		}
		name, color, err := board.StageDraft{Name: stage.Name, Color: value}.Normalize()
		if err != nil {
			v.localErr = err.Error()
			return nil
		}
		v.endEdit()
		return v.app.updateStageCmd(pipeline.ID, stage.ID, name, color)
	}
	v.endEdit()
	return nil
}

func (v *stageAdminView) endEdit() {
	v.edit = stageEditNone
	v.pendingName = ""
	v.localErr = ""
	v.input.Blur()
}

func (v *stageAdminView) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		v.confirmDelete = false
		pipeline, ok := v.pipeline()
		if !ok {
			return nil
		}
		if stage, ok := v.selectedStage(); ok {
			// A deleted stage must not linger in the hidden set.
			v.app.prefs.SetStageHidden(v.app.cfg.API.AccountID, stage.ID, false)
			return v.app.deleteStageCmd(pipeline.ID, stage.ID)
		}
	case "n", "N", "esc":
		v.confirmDelete = false
	}
	return nil
}

func (v *stageAdminView) shift(delta int) tea.Cmd {
	pipeline, ok := v.pipeline()
	if !ok {
		return nil
	}
	stage, ok := v.selectedStage()
	if !ok {
		return nil
	}
	ordered := board.ShiftStage(pipeline, stage.ID, delta)
	if ordered == nil {
		return nil
	}
	// Applied locally first; failure refetches the server's order back.
	v.app.engine.Registry().ApplyStageOrder(pipeline.ID, ordered)
	v.sel = clamp(v.sel+delta, 0, len(ordered)-1)
	return v.app.reorderStagesCmd(pipeline.ID, ordered)
}

func (v *stageAdminView) View(width, height int, theme styles.Theme) string {
	pipeline, ok := v.pipeline()
	if !ok {
		return theme.MutedStyle().Render("no pipeline loaded")
	}

	var b strings.Builder
	title := fmt.Sprintf("stages: %s", pipeline.Name)
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Base.Accent)).Render(title) + "\n\n")

	hidden := v.app.hiddenStages()
	for i, stage := range v.stages() {
		cursor := "  "
		if i == v.sel {
			cursor = "> "
		}
		color := stage.Color
		if color == "" {
			color = theme.Base.Muted
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("■")
		line := fmt.Sprintf("%s%s %s (%d)", cursor, swatch, stage.Name, stage.RecordCount)
		if _, isHidden := hidden[stage.ID]; isHidden {
			line += theme.MutedStyle().Render("  [hidden]")
		}
		if i == v.sel {
			line = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Chrome.SelectedItem)).Render(line)
		}
		b.WriteString(truncate(line, maxInt(20, width-2)) + "\n")
	}

	if v.edit != stageEditNone {
		label := "name"
		if v.edit == stageEditAddColor || v.edit == stageEditRecolor {
			label = "color"
		}
		b.WriteString(fmt.Sprintf("\n%s: %s\n", label, v.input.View()))
	}
	if v.confirmDelete {
		if stage, ok := v.selectedStage(); ok {
			prompt := fmt.Sprintf("delete stage %q? y/n", stage.Name)
			if n := board.StageOccupancy(stage, v.app.engine.Store().Leads()); n > 0 {
				prompt = fmt.Sprintf("delete stage %q? %d lead(s) become unassigned. y/n", stage.Name, n)
			}
			b.WriteString("\n" + theme.ErrorStyle().Render(prompt))
		}
	}
	if v.localErr != "" {
		b.WriteString("\n" + theme.ErrorStyle().Render(v.localErr))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

func (m *Model) createStageCmd(pipelineID, name, color string) tea.Cmd {
	provider := m.provider
	timeout := m.cfg.API.Timeout
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(timeout)
		defer cancel()
		return stageMutationMsg{err: provider.CreateStage(ctx, pipelineID, name, color)}
	}
}

func (m *Model) updateStageCmd(pipelineID, stageID, name, color string) tea.Cmd {
	provider := m.provider
	timeout := m.cfg.API.Timeout
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(timeout)
		defer cancel()
		return stageMutationMsg{err: provider.UpdateStage(ctx, pipelineID, stageID, name, color)}
	}
}

func (m *Model) deleteStageCmd(pipelineID, stageID string) tea.Cmd {
	provider := m.provider
	timeout := m.cfg.API.Timeout
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(timeout)
		defer cancel()
		return stageMutationMsg{err: provider.DeleteStage(ctx, pipelineID, stageID)}
	}
}

func (m *Model) reorderStagesCmd(pipelineID string, orderedIDs []string) tea.Cmd {
	provider := m.provider
	timeout := m.cfg.API.Timeout
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(timeout)
		defer cancel()
		return stageMutationMsg{err: provider.ReorderStages(ctx, pipelineID, orderedIDs)}
	}
}

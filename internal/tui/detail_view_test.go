package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/leadboard/internal/board"
	"github.com/tOgg1/leadboard/internal/models"
)

func openDetail(t *testing.T, m *Model, leadID string) *detailView {
	t.Helper()
	_, cmd := m.Update(openLeadMsg{leadID: leadID})
	drain(t, m, cmd)
	require.Equal(t, ViewDetail, m.activeViewID())
	return m.views[ViewDetail].(*detailView)
}

func ctrl(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func TestDetailFieldEditSendsPartialUpdate(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)
	view := openDetail(t, m, "l1")

	press(t, m, "enter") // edit "name", prefilled "Maria"
	assert.Equal(t, board.ModeEditingField, m.engine.Mode().Kind())
	assert.Equal(t, "Maria", view.fieldInput.Value())

	press(t, m, "!", "enter")

	require.Len(t, provider.leadUpdates, 1)
	assert.Equal(t, map[string]any{"name": "Maria!"}, provider.leadUpdates[0])
	assert.Equal(t, board.ModeIdle, m.engine.Mode().Kind())
}

func TestDetailFieldEditAppliesLocallyBeforeResponse(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)
	openDetail(t, m, "l1")

	press(t, m, "enter")
	m.Update(key("!"))
	_, cmd := m.Update(key("enter"))

	// The edited value lands in the store before the request resolves.
	lead, _ := m.engine.Store().Get("l1")
	assert.Equal(t, "Maria!", lead.Name)

	require.NotNil(t, cmd)
	drain(t, m, cmd)
	require.Len(t, provider.leadUpdates, 1)
}

func TestDetailBlankFieldClearsToNull(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)
	openDetail(t, m, "l1")

	press(t, m, "j", "j", "j", "enter") // phone, empty prefill
	press(t, m, "enter")

	require.Len(t, provider.leadUpdates, 1)
	assert.Equal(t, map[string]any{"phone": nil}, provider.leadUpdates[0])
}

func TestDetailAgeRejectsNonNumeric(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)
	openDetail(t, m, "l1")

	press(t, m, "j", "j", "j", "j", "j", "j", "enter") // age
	press(t, m, "x", "enter")

	assert.Empty(t, provider.leadUpdates)
	// Still editing: the invalid input was not committed.
	assert.Equal(t, board.ModeEditingField, m.engine.Mode().Kind())
	assert.NotEmpty(t, m.statusErr)

	press(t, m, "esc")
	assert.Equal(t, board.ModeIdle, m.engine.Mode().Kind())
}

func TestDetailNotesBlankSavesNull(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)
	openDetail(t, m, "l1")

	press(t, m, "n")
	assert.Equal(t, board.ModeEditingNotes, m.engine.Mode().Kind())

	_, cmd := m.Update(ctrl(tea.KeyCtrlS))
	drain(t, m, cmd)

	require.Len(t, provider.leadUpdates, 1)
	assert.Equal(t, map[string]any{"notes": nil}, provider.leadUpdates[0])
	assert.Equal(t, board.ModeIdle, m.engine.Mode().Kind())
}

func TestDetailObservationRevealAndAdd(t *testing.T) {
	provider := stubData()
	now := time.Now()
	for i := 0; i < 7; i++ {
		provider.obs["l1"] = append(provider.obs["l1"], models.Observation{
			ID: string(rune('a' + i)), Type: models.ObservationNote, CreatedAt: now,
		})
	}
	m := testModel(t, provider)
	loadBoard(t, m)
	view := openDetail(t, m, "l1")

	require.NotNil(t, view.obs)
	assert.Len(t, view.obs.Visible(), 5)

	press(t, m, "m")
	assert.Len(t, view.obs.Visible(), 7)

	press(t, m, "+", "h", "o", "l", "a", "enter")
	require.Len(t, provider.createdObs, 1)
	assert.Equal(t, "hola", provider.createdObs[0].Notes)
	assert.Equal(t, models.ObservationNote, provider.createdObs[0].Type)
	assert.Equal(t, "created", view.obs.Visible()[0].ID)
}

func TestDetailShiftStageMovesLead(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)
	openDetail(t, m, "l1")

	press(t, m, "]")

	assert.Equal(t, []string{"l1->s2"}, provider.stageMoves)
	lead, _ := m.engine.Store().Get("l1")
	assert.Equal(t, "s2", *lead.StageID)

	// Already at the last stage, nothing to send.
	press(t, m, "]")
	assert.Len(t, provider.stageMoves, 1)
}

func TestDetailDeleteLeadPopsBackToBoard(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)
	openDetail(t, m, "l1")

	press(t, m, "D", "y")

	assert.Equal(t, []string{"l1"}, provider.deletedSingle)
	assert.Empty(t, provider.deletedBatch)
	_, ok := m.engine.Store().Get("l1")
	assert.False(t, ok)
	assert.Equal(t, ViewBoard, m.activeViewID())
}

func TestDetailStagePickerCrossPipeline(t *testing.T) {
	provider := stubData()
	provider.pipelines = append(provider.pipelines, models.Pipeline{
		ID: "p2", AccountID: "acc1", Name: "Support",
		Stages: []models.Stage{
			{ID: "s9", PipelineID: "p2", Name: "Inbox", Position: 0},
		},
	})
	m := testModel(t, provider)
	loadBoard(t, m)
	openDetail(t, m, "l1")

	// Choices flatten every pipeline: New, Won, Inbox. Cursor starts on the
	// lead's own stage.
	press(t, m, "s", "j", "j", "enter")

	require.Len(t, provider.leadUpdates, 1)
	assert.Equal(t, map[string]any{"pipeline_id": "p2", "stage_id": "s9"}, provider.leadUpdates[0])
	assert.Empty(t, provider.stageMoves)

	lead, _ := m.engine.Store().Get("l1")
	assert.Equal(t, "p2", *lead.PipelineID)
	assert.Equal(t, "s9", *lead.StageID)
}

func TestDetailStagePickerSamePipelineUsesStageEndpoint(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)
	openDetail(t, m, "l1")

	press(t, m, "s", "j", "enter")

	assert.Equal(t, []string{"l1->s2"}, provider.stageMoves)
	assert.Empty(t, provider.leadUpdates)
}

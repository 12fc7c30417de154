package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/leadboard/internal/models"
)

func testEngine() *Engine {
	store := NewStore()
	store.Replace([]models.Lead{
		{ID: "l1", PipelineID: strp("p1"), StageID: strp("s1"), Name: "Maria"},
		{ID: "l2", PipelineID: strp("p1"), StageID: strp("s2"), Name: "Jorge"},
		{ID: "l3", PipelineID: strp("p2"), StageID: strp("s9"), Name: "Ana"},
	})

	registry := NewRegistry()
	registry.Replace([]models.Pipeline{
		{
			ID:        "p1",
			IsDefault: true,
			Stages: []models.Stage{
				{ID: "s1", PipelineID: "p1", Name: "New", Position: 0},
				{ID: "s2", PipelineID: "p1", Name: "Won", Color: "#22cc66", Position: 1},
			},
		},
		{
			ID: "p2",
			Stages: []models.Stage{
				{ID: "s9", PipelineID: "p2", Name: "Inbox", Position: 0},
			},
		},
	})

	return NewEngine(store, registry)
}

func TestEngineDragDropMovesLead(t *testing.T) {
	e := testEngine()

	require.NoError(t, e.StartDrag("l1"))
	assert.Equal(t, "l1", e.DraggedLeadID())
	assert.Equal(t, "s1", e.HoverStageID())

	require.NoError(t, e.HoverColumn("s2"))

	move, err := e.Drop()
	require.NoError(t, err)
	require.NotNil(t, move)
	assert.Equal(t, "l1", move.LeadID)
	assert.Equal(t, "s1", move.FromStageID)
	assert.Equal(t, "s2", move.ToStageID)
	assert.False(t, move.CrossPipeline())
	assert.Equal(t, ModeIdle, e.Mode().Kind())

	lead, _ := e.Store().Get("l1")
	assert.Equal(t, "s2", *lead.StageID)
	assert.Equal(t, "Won", lead.StageName)
	assert.Equal(t, "#22cc66", lead.StageColor)

	// Backend rejected: the compensation restores the old record.
	move.Revert()
	lead, _ = e.Store().Get("l1")
	assert.Equal(t, "s1", *lead.StageID)
}

func TestEngineDropOnOwnColumnIsNoop(t *testing.T) {
	e := testEngine()

	require.NoError(t, e.StartDrag("l1"))
	require.NoError(t, e.HoverColumn("s1"))

	move, err := e.Drop()
	require.NoError(t, err)
	assert.Nil(t, move)

	lead, _ := e.Store().Get("l1")
	assert.Equal(t, "s1", *lead.StageID)
	assert.Equal(t, ModeIdle, e.Mode().Kind())
}

func TestEngineCrossPipelineDrop(t *testing.T) {
	e := testEngine()

	require.NoError(t, e.StartDrag("l3"))
	require.NoError(t, e.HoverColumn("s2"))

	move, err := e.Drop()
	require.NoError(t, err)
	require.NotNil(t, move)
	assert.True(t, move.CrossPipeline())
	assert.Equal(t, "p1", move.ToPipelineID)

	lead, _ := e.Store().Get("l3")
	assert.Equal(t, "p1", *lead.PipelineID)
	assert.Equal(t, "s2", *lead.StageID)

	move.Revert()
	lead, _ = e.Store().Get("l3")
	assert.Equal(t, "p2", *lead.PipelineID)
	assert.Equal(t, "s9", *lead.StageID)
}

func TestEngineCancelDragLeavesCacheUntouched(t *testing.T) {
	e := testEngine()

	require.NoError(t, e.StartDrag("l1"))
	require.NoError(t, e.HoverColumn("s2"))
	e.CancelDrag()

	assert.Equal(t, ModeIdle, e.Mode().Kind())
	assert.Empty(t, e.HoverStageID())

	lead, _ := e.Store().Get("l1")
	assert.Equal(t, "s1", *lead.StageID)
}

func TestEngineDragGuards(t *testing.T) {
	e := testEngine()

	assert.Error(t, e.StartDrag("missing"))
	assert.ErrorIs(t, e.HoverColumn("s1"), ErrNotDragging)

	_, err := e.Drop()
	assert.ErrorIs(t, err, ErrNotDragging)

	require.NoError(t, e.StartDrag("l1"))
	require.NoError(t, e.HoverColumn("bogus"))
	_, err = e.Drop()
	assert.Error(t, err)
	assert.Equal(t, ModeIdle, e.Mode().Kind())
}

func TestEngineSelectionDisablesDragging(t *testing.T) {
	e := testEngine()

	require.NoError(t, e.EnterSelection())
	assert.ErrorIs(t, e.StartDrag("l1"), ErrModeConflict)

	e.ToggleSelect("l1")
	e.ToggleSelect("l2")
	assert.Equal(t, 2, e.SelectionCount())
	assert.True(t, e.IsSelected("l1"))

	e.ToggleSelect("l1")
	assert.False(t, e.IsSelected("l1"))

	e.ExitSelection()
	assert.Equal(t, ModeIdle, e.Mode().Kind())
	assert.Zero(t, e.SelectionCount())
}

func TestEngineSelectAllVisibleRespectsFilter(t *testing.T) {
	e := testEngine()

	e.Filter().ToggleStage("s1")
	require.NoError(t, e.EnterSelection())
	e.SelectAllVisible()

	assert.Equal(t, []string{"l1"}, e.SelectedIDs())
}

func TestEngineToggleSelectOutsideSelectionModeIsIgnored(t *testing.T) {
	e := testEngine()

	e.ToggleSelect("l1")
	assert.Zero(t, e.SelectionCount())
}

func TestEngineCompleteBulkDelete(t *testing.T) {
	e := testEngine()

	require.NoError(t, e.EnterSelection())
	e.ToggleSelect("l1")
	e.ToggleSelect("l2")

	ids := e.SelectedIDs()
	require.Equal(t, []string{"l1", "l2"}, ids)

	e.CompleteBulkDelete(ids)

	assert.Equal(t, 1, e.Store().Len())
	assert.Zero(t, e.SelectionCount())
	assert.Equal(t, ModeIdle, e.Mode().Kind())
}

func TestEngineBoardView(t *testing.T) {
	e := testEngine()

	board := e.BoardView(nil)
	require.Len(t, board.Columns, 2)
	assert.Equal(t, 1, board.Columns[0].Count())
	assert.Equal(t, 1, board.Columns[1].Count())

	hidden := map[string]struct{}{"s2": {}}
	board = e.BoardView(hidden)
	require.Len(t, board.Columns, 1)
	assert.Equal(t, "New", board.Columns[0].Stage.Name)
}

package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/leadboard/internal/models"
)

func testPipeline() models.Pipeline {
	return models.Pipeline{
		ID:        "p1",
		AccountID: "acc1",
		Name:      "Sales",
		IsDefault: true,
		Stages: []models.Stage{
			{ID: "s2", PipelineID: "p1", Name: "Contacted", Position: 1},
			{ID: "s1", PipelineID: "p1", Name: "New", Position: 0},
			{ID: "s3", PipelineID: "p1", Name: "Won", Position: 2},
		},
	}
}

func TestPartitionOrdersColumnsByPosition(t *testing.T) {
	pipeline := testPipeline()
	board := Partition(nil, &pipeline, nil)

	require.Len(t, board.Columns, 3)
	assert.Equal(t, "New", board.Columns[0].Stage.Name)
	assert.Equal(t, "Contacted", board.Columns[1].Stage.Name)
	assert.Equal(t, "Won", board.Columns[2].Stage.Name)
	assert.Equal(t, 3, board.ColumnCount())
}

func TestPartitionRoutesLeadsAndBuildsUnassignedBucket(t *testing.T) {
	pipeline := testPipeline()
	leads := []models.Lead{
		{ID: "l1", StageID: strp("s1")},
		{ID: "l2", StageID: strp("s2")},
		{ID: "l3", StageID: strp("s1")},
		{ID: "l4"},                         // no stage at all
		{ID: "l5", StageID: strp("gone")},  // stage deleted server-side
	}

	board := Partition(leads, &pipeline, nil)

	assert.Len(t, board.Columns[0].Leads, 2)
	assert.Equal(t, 2, board.Columns[0].Count())
	assert.Len(t, board.Columns[1].Leads, 1)
	assert.Empty(t, board.Columns[2].Leads)

	require.Len(t, board.Unassigned, 2)
	assert.Equal(t, "l4", board.Unassigned[0].ID)
	assert.Equal(t, "l5", board.Unassigned[1].ID)
	assert.Equal(t, 4, board.ColumnCount())
}

func TestPartitionHiddenStageIsNotRenderedAndDoesNotReroute(t *testing.T) {
	pipeline := testPipeline()
	leads := []models.Lead{
		{ID: "l1", StageID: strp("s1")},
		{ID: "l2", StageID: strp("s2")},
	}
	hidden := map[string]struct{}{"s2": {}}

	board := Partition(leads, &pipeline, hidden)

	require.Len(t, board.Columns, 2)
	assert.Equal(t, "New", board.Columns[0].Stage.Name)
	assert.Equal(t, "Won", board.Columns[1].Stage.Name)

	// The hidden stage's lead is neither drawn nor moved to unassigned.
	assert.Empty(t, board.Unassigned)
	total := 0
	for _, col := range board.Columns {
		total += col.Count()
	}
	assert.Equal(t, 1, total)
}

func TestPartitionWithoutPipelineDumpsEverythingUnassigned(t *testing.T) {
	leads := []models.Lead{{ID: "l1", StageID: strp("s1")}, {ID: "l2"}}

	board := Partition(leads, nil, nil)

	assert.Empty(t, board.Columns)
	assert.Len(t, board.Unassigned, 2)
	assert.Equal(t, 1, board.ColumnCount())
}

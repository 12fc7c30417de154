package board

import (
	"github.com/tOgg1/leadboard/internal/models"
)

// Column is one rendered board column: a stage plus the filtered leads in it.
type Column struct {
	Stage models.Stage
	Leads []models.Lead
}

// Count returns the column's filtered lead count, which is what the badge
// shows (not the server-reported stage total).
func (c Column) Count() int {
	return len(c.Leads)
}

// Board is the partitioned render model: stage columns in position order with
// the synthetic unassigned bucket appended last.
type Board struct {
	Columns    []Column
	Unassigned []models.Lead
}

// ColumnCount returns the number of rendered columns, including the
// unassigned bucket when it is non-empty.
func (b Board) ColumnCount() int {
	if len(b.Unassigned) > 0 {
		return len(b.Columns) + 1
	}
	return len(b.Columns)
}

// Partition groups the filtered lead subset by stage in position order,
// skipping hidden stages. Leads whose stage id does not resolve to any stage
// of the pipeline (including nil) land in the unassigned bucket. Hiding a
// stage removes its column from render; it does not reroute its leads.
func Partition(visible []models.Lead, pipeline *models.Pipeline, hiddenStageIDs map[string]struct{}) Board {
	var out Board
	if pipeline == nil {
		out.Unassigned = append(out.Unassigned, visible...)
		return out
	}

	stages := pipeline.SortedStages()
	index := make(map[string]int, len(stages))
	for _, stage := range stages {
		if _, hidden := hiddenStageIDs[stage.ID]; hidden {
			continue
		}
		index[stage.ID] = len(out.Columns)
		out.Columns = append(out.Columns, Column{Stage: stage})
	}

	known := make(map[string]struct{}, len(stages))
	for _, stage := range stages {
		known[stage.ID] = struct{}{}
	}

	for _, lead := range visible {
		if lead.StageID == nil {
			out.Unassigned = append(out.Unassigned, lead)
			continue
		}
		if _, ok := known[*lead.StageID]; !ok {
			out.Unassigned = append(out.Unassigned, lead)
			continue
		}
		col, rendered := index[*lead.StageID]
		if !rendered {
			// Stage exists but is hidden: the lead simply is not drawn.
			continue
		}
		out.Columns[col].Leads = append(out.Columns[col].Leads, lead)
	}

	return out
}

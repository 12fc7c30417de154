package board

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tOgg1/leadboard/internal/models"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// StageDraft is the user input for creating or renaming a stage.
type StageDraft struct {
	Name  string
	Color string
}

// Normalize trims the draft and fills the color preset, returning the values
// to send to the backend.
func (d StageDraft) Normalize() (name, color string, err error) {
	name = strings.TrimSpace(d.Name)
	if name == "" {
		return "", "", fmt.Errorf("stage name must not be blank")
	}
	color = strings.TrimSpace(d.Color)
	if color == "" {
		color = models.DefaultStageColor
	}
	if !hexColorPattern.MatchString(color) {
		return "", "", fmt.Errorf("invalid stage color %q, expected #RRGGBB", color)
	}
	return name, color, nil
}

// ShiftStage produces the reorder payload for moving one stage up or down by
// delta within its pipeline: the full stage id list in the new order. The
// backend reassigns dense positions from the list order. Returns nil when the
// move falls off either end.
func ShiftStage(pipeline models.Pipeline, stageID string, delta int) []string {
	stages := pipeline.SortedStages()
	from := -1
	for i, s := range stages {
		if s.ID == stageID {
			from = i
			break
		}
	}
	if from == -1 {
		return nil
	}
	to := from + delta
	if to < 0 || to >= len(stages) {
		return nil
	}
	ids := make([]string, 0, len(stages))
	for _, s := range stages {
		ids = append(ids, s.ID)
	}
	moved := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:to], append([]string{moved}, ids[to:]...)...)
	return ids
}

// ReindexStages assigns dense positions 0..n-1 following the given id order.
// Ids absent from the pipeline are ignored; stages absent from the order keep
// their relative order after the listed ones. Used to update the local cache
// while the reorder request is in flight.
func ReindexStages(pipeline *models.Pipeline, orderedIDs []string) {
	index := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		index[id] = i
	}
	stages := pipeline.SortedStages()
	listed := make([]models.Stage, 0, len(stages))
	trailing := make([]models.Stage, 0)
	for _, s := range stages {
		if _, ok := index[s.ID]; ok {
			listed = append(listed, s)
		} else {
			trailing = append(trailing, s)
		}
	}
	sortByIndex(listed, index)
	next := append(listed, trailing...)
	for i := range next {
		next[i].Position = i
	}
	pipeline.Stages = next
}

func sortByIndex(stages []models.Stage, index map[string]int) {
	for i := 1; i < len(stages); i++ {
		for j := i; j > 0 && index[stages[j-1].ID] > index[stages[j].ID]; j-- {
			stages[j-1], stages[j] = stages[j], stages[j-1]
		}
	}
}

// StageOccupancy counts the leads currently in a stage. Deleting an occupied
// stage is allowed; its leads come back unassigned on the next refetch, so the
// confirm dialog states how many are affected.
func StageOccupancy(stage models.Stage, leads []models.Lead) int {
	count := 0
	for _, l := range leads {
		if l.StageID != nil && *l.StageID == stage.ID {
			count++
		}
	}
	return count
}

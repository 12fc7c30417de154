package board

import (
	"errors"
	"fmt"
)

// ErrNotDragging is returned when a drag operation is invoked outside of an
// active drag.
var ErrNotDragging = errors.New("no drag in progress")

// StageMove is the outcome of a completed drop: the cache has already been
// updated optimistically, the caller sends the backend request and invokes
// Revert if it is rejected.
type StageMove struct {
	LeadID       string
	FromStageID  string
	ToStageID    string
	ToPipelineID string
	Revert       Revert
}

// CrossPipeline reports whether the move also reassigns the pipeline.
func (m StageMove) CrossPipeline() bool {
	return m.ToPipelineID != ""
}

// StartDrag picks up a card. Fails when the lead is unknown or another
// interaction is in progress.
func (e *Engine) StartDrag(leadID string) error {
	lead, ok := e.store.Get(leadID)
	if !ok {
		return fmt.Errorf("unknown lead %q", leadID)
	}
	next, err := e.mode.StartDrag(leadID)
	if err != nil {
		return err
	}
	e.mode = next
	e.hoverStageID = ""
	if lead.StageID != nil {
		e.hoverStageID = *lead.StageID
	}
	return nil
}

// HoverColumn moves the dragged card over a column.
func (e *Engine) HoverColumn(stageID string) error {
	if e.mode.Kind() != ModeDragging {
		return ErrNotDragging
	}
	e.hoverStageID = stageID
	return nil
}

// HoverStageID returns the column currently under the dragged card.
func (e *Engine) HoverStageID() string {
	return e.hoverStageID
}

// DraggedLeadID returns the lead being dragged, or "" when not dragging.
func (e *Engine) DraggedLeadID() string {
	if e.mode.Kind() != ModeDragging {
		return ""
	}
	return e.mode.DraggedLead()
}

// CancelDrag abandons the drag without touching the cache.
func (e *Engine) CancelDrag() {
	if e.mode.Kind() != ModeDragging {
		return
	}
	e.mode = e.mode.Finish()
	e.hoverStageID = ""
}

// Drop releases the card onto the hovered column. Dropping on the card's own
// column is a no-op and produces no move. On a real move the cache is updated
// immediately and the returned StageMove carries the compensation to run if
// the backend rejects the change.
func (e *Engine) Drop() (*StageMove, error) {
	if e.mode.Kind() != ModeDragging {
		return nil, ErrNotDragging
	}
	leadID := e.mode.DraggedLead()
	target := e.hoverStageID
	e.mode = e.mode.Finish()
	e.hoverStageID = ""

	lead, ok := e.store.Get(leadID)
	if !ok {
		return nil, fmt.Errorf("unknown lead %q", leadID)
	}
	if target == "" {
		return nil, nil
	}
	if lead.StageID != nil && *lead.StageID == target {
		return nil, nil
	}

	stage, pipeline, found := e.registry.FindStage(target)
	if !found {
		return nil, fmt.Errorf("unknown stage %q", target)
	}

	move := StageMove{
		LeadID:    leadID,
		ToStageID: stage.ID,
	}
	if lead.StageID != nil {
		move.FromStageID = *lead.StageID
	}

	crossPipeline := lead.PipelineID == nil || *lead.PipelineID != pipeline.ID
	var revert Revert
	if crossPipeline {
		move.ToPipelineID = pipeline.ID
		revert, ok = e.store.MoveToPipeline(leadID, pipeline.ID, stage)
	} else {
		revert, ok = e.store.MoveToStage(leadID, stage)
	}
	if !ok {
		return nil, fmt.Errorf("lead %q vanished during drop", leadID)
	}
	move.Revert = revert
	return &move, nil
}

package board

import (
	"github.com/tOgg1/leadboard/internal/models"
)

// Engine ties the board pieces together for one mounted board instance: the
// lead cache, the pipeline registry, the filter, the interaction mode and
// the selection set. It runs on the UI event loop; the TUI calls into it and
// issues the backend requests its operations produce.
type Engine struct {
	store    *Store
	registry *Registry

	mode      Mode
	filter    FilterState
	selection Selection

	// hoverStageID is the column under the dragged card; meaningful only
	// while mode is ModeDragging.
	hoverStageID string
}

// NewEngine creates an Engine over the given store and registry.
func NewEngine(store *Store, registry *Registry) *Engine {
	return &Engine{
		store:     store,
		registry:  registry,
		mode:      Idle(),
		filter:    NewFilterState(),
		selection: NewSelection(),
	}
}

// Store exposes the lead cache.
func (e *Engine) Store() *Store {
	return e.store
}

// Registry exposes the pipeline registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Mode returns the current interaction mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Filter returns a pointer to the filter state for in-place toggles.
func (e *Engine) Filter() *FilterState {
	return &e.filter
}

// SetSearch applies the (already debounced) search term.
func (e *Engine) SetSearch(term string) {
	e.filter.Search = term
}

// VisibleLeads runs the filter against the cache for the active pipeline.
func (e *Engine) VisibleLeads() []models.Lead {
	return VisibleLeads(e.store.Leads(), e.filter, e.registry.ActiveID())
}

// BoardView partitions the visible leads into render columns.
func (e *Engine) BoardView(hiddenStageIDs map[string]struct{}) Board {
	active, ok := e.registry.Active()
	if !ok {
		return Partition(e.VisibleLeads(), nil, hiddenStageIDs)
	}
	return Partition(e.VisibleLeads(), &active, hiddenStageIDs)
}

// BeginFieldEdit puts one detail-panel field into edit state.
func (e *Engine) BeginFieldEdit(field string) error {
	next, err := e.mode.EditField(field)
	if err != nil {
		return err
	}
	e.mode = next
	return nil
}

// BeginNotesEdit opens the notes editor.
func (e *Engine) BeginNotesEdit() error {
	next, err := e.mode.EditNotes()
	if err != nil {
		return err
	}
	e.mode = next
	return nil
}

// EndEdit commits or cancels the in-progress edit, returning to idle.
func (e *Engine) EndEdit() {
	switch e.mode.Kind() {
	case ModeEditingField, ModeEditingNotes:
		e.mode = e.mode.Finish()
	}
}

// EnterSelection switches to bulk-selection mode, disabling drag-and-drop.
func (e *Engine) EnterSelection() error {
	next, err := e.mode.EnterSelection()
	if err != nil {
		return err
	}
	e.mode = next
	return nil
}

// ExitSelection leaves selection mode and clears the selection set.
func (e *Engine) ExitSelection() {
	if e.mode.Kind() != ModeSelecting {
		return
	}
	e.selection.Clear()
	e.mode = e.mode.Finish()
}

// ToggleSelect flips one lead in the selection set. Only valid in selection
// mode.
func (e *Engine) ToggleSelect(leadID string) {
	if e.mode.Kind() != ModeSelecting {
		return
	}
	e.selection.Toggle(leadID)
}

// SelectAllVisible captures the currently filtered set, not the full cache.
func (e *Engine) SelectAllVisible() {
	if e.mode.Kind() != ModeSelecting {
		return
	}
	for _, lead := range e.VisibleLeads() {
		e.selection.Add(lead.ID)
	}
}

// SelectedIDs returns the selection as a sorted slice.
func (e *Engine) SelectedIDs() []string {
	return e.selection.IDs()
}

// SelectionCount returns how many leads are selected.
func (e *Engine) SelectionCount() int {
	return e.selection.Count()
}

// IsSelected reports membership in the selection set.
func (e *Engine) IsSelected(leadID string) bool {
	return e.selection.Has(leadID)
}

// CompleteBulkDelete removes the deleted leads from the cache and resets
// selection state after a successful batch request.
func (e *Engine) CompleteBulkDelete(ids []string) {
	e.store.Remove(ids...)
	e.selection.Clear()
	if e.mode.Kind() == ModeSelecting {
		e.mode = e.mode.Finish()
	}
}

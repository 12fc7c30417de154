package board

import (
	"errors"
	"fmt"
)

// ErrModeConflict is returned when a transition is attempted from a state
// that does not allow it (e.g. starting a drag while selecting).
var ErrModeConflict = errors.New("interaction mode conflict")

// ModeKind discriminates the interaction mode union.
type ModeKind int

const (
	// ModeIdle is the rest state: browsing the board or panel.
	ModeIdle ModeKind = iota

	// ModeEditingField means exactly one detail-panel field is in an edit
	// control.
	ModeEditingField

	// ModeEditingNotes means the multi-line notes editor is open.
	ModeEditingNotes

	// ModeDragging means a lead card is being dragged between columns.
	ModeDragging

	// ModeSelecting means bulk-selection mode is active. Dragging is
	// disabled for its duration.
	ModeSelecting
)

// Mode is the interaction mode of one board/panel instance as a tagged
// union. The per-kind payload (field name, dragged lead id) only exists in
// the states that carry it, so illegal combinations such as
// dragging-while-selecting cannot be represented.
type Mode struct {
	kind   ModeKind
	field  string
	leadID string
}

// Idle returns the rest mode.
func Idle() Mode {
	return Mode{kind: ModeIdle}
}

// Kind returns the discriminator.
func (m Mode) Kind() ModeKind {
	return m.kind
}

// Field returns the field under edit; valid only in ModeEditingField.
func (m Mode) Field() string {
	return m.field
}

// DraggedLead returns the dragged lead id; valid only in ModeDragging.
func (m Mode) DraggedLead() string {
	return m.leadID
}

// EditField enters single-field editing. Only one field is ever in edit
// state at a time: an edit in progress must commit or cancel first.
func (m Mode) EditField(name string) (Mode, error) {
	if m.kind != ModeIdle {
		return m, fmt.Errorf("%w: cannot edit %q in %v", ErrModeConflict, name, m.kind)
	}
	if name == "" {
		return m, fmt.Errorf("field name required")
	}
	return Mode{kind: ModeEditingField, field: name}, nil
}

// EditNotes opens the notes editor.
func (m Mode) EditNotes() (Mode, error) {
	if m.kind != ModeIdle {
		return m, fmt.Errorf("%w: cannot edit notes in %v", ErrModeConflict, m.kind)
	}
	return Mode{kind: ModeEditingNotes}, nil
}

// StartDrag begins dragging a lead card. Selection mode disables dragging;
// the two interaction modes are mutually exclusive.
func (m Mode) StartDrag(leadID string) (Mode, error) {
	if m.kind != ModeIdle {
		return m, fmt.Errorf("%w: cannot drag in %v", ErrModeConflict, m.kind)
	}
	if leadID == "" {
		return m, fmt.Errorf("lead id required")
	}
	return Mode{kind: ModeDragging, leadID: leadID}, nil
}

// EnterSelection switches to bulk-selection mode.
func (m Mode) EnterSelection() (Mode, error) {
	if m.kind != ModeIdle {
		return m, fmt.Errorf("%w: cannot select in %v", ErrModeConflict, m.kind)
	}
	return Mode{kind: ModeSelecting}, nil
}

// Finish returns to idle from any state. Commit, cancel, drop and
// exit-selection all end here.
func (m Mode) Finish() Mode {
	return Idle()
}

func (k ModeKind) String() string {
	switch k {
	case ModeIdle:
		return "idle"
	case ModeEditingField:
		return "editing-field"
	case ModeEditingNotes:
		return "editing-notes"
	case ModeDragging:
		return "dragging"
	case ModeSelecting:
		return "selecting"
	default:
		return "unknown"
	}
}

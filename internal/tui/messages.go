package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/leadboard/internal/board"
	"github.com/tOgg1/leadboard/internal/models"
)

// boardDataMsg carries one full refetch: pipelines, the external CRM connection state
// and the lead list together.
type boardDataMsg struct {
	pipelines []models.Pipeline
	kommo     bool
	leads     []models.Lead
	stale     bool // warm start from the local snapshot, refetch pending
	err       error
}

// liveEventMsg signals a push update; the payload is not trusted, a full
// refetch follows.
type liveEventMsg struct {
	ok bool
}

// moveResultMsg reports the backend's verdict on an optimistic stage move.
type moveResultMsg struct {
	move board.StageMove
	err  error
}

// leadUpdatedMsg reports a field or notes edit result.
type leadUpdatedMsg struct {
	lead models.Lead
	err  error
}

// leadsDeletedMsg reports a single or bulk delete result.
type leadsDeletedMsg struct {
	ids []string
	err error
}

// stageMutationMsg reports a stage create/update/delete/reorder result; a
// pipeline refetch follows on success.
type stageMutationMsg struct {
	err error
}

// observationsMsg carries a fetched observation batch for one lead.
type observationsMsg struct {
	leadID  string
	entries []models.Observation
	err     error
}

// observationSavedMsg reports a created observation.
type observationSavedMsg struct {
	leadID string
	obs    models.Observation
	err    error
}

// observationDeletedMsg reports a deleted observation.
type observationDeletedMsg struct {
	leadID string
	id     string
	err    error
}

// searchDebounceMsg fires when a search debounce timer expires; stale
// generations are dropped.
type searchDebounceMsg struct {
	generation int
}

type pushViewMsg struct {
	id ViewID
}

type popViewMsg struct{}

// openLeadMsg routes to the detail panel for one lead.
type openLeadMsg struct {
	leadID string
}

func pushViewCmd(id ViewID) tea.Cmd {
	return func() tea.Msg {
		return pushViewMsg{id: id}
	}
}

func popViewCmd() tea.Cmd {
	return func() tea.Msg {
		return popViewMsg{}
	}
}

func openLeadCmd(leadID string) tea.Cmd {
	return func() tea.Msg {
		return openLeadMsg{leadID: leadID}
	}
}

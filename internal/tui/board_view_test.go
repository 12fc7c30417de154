package tui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/leadboard/internal/board"
	"github.com/tOgg1/leadboard/internal/config"
	"github.com/tOgg1/leadboard/internal/models"
)

// stubProvider doubles as a tiny fake backend: deletes and reorders mutate
// its data so a refetch observes them, the way the real server would.
type stubProvider struct {
	pipelines []models.Pipeline
	kommo     bool
	leads     []models.Lead
	obs       map[string][]models.Observation

	leadQueries   [][]string // device_ids per Leads call
	stageMoves    []string   // "leadID->stageID"
	leadUpdates   []map[string]any
	deletedSingle []string
	deletedBatch  []string
	createdStages []string
	reorders      [][]string
	createdObs    []models.Observation
	deletedObs    []string

	failMoves   bool
	failReorder bool
}

func (s *stubProvider) Pipelines(context.Context) ([]models.Pipeline, error) {
	return append([]models.Pipeline(nil), s.pipelines...), nil
}

func (s *stubProvider) KommoConnected(context.Context) (bool, error) { return s.kommo, nil }

func (s *stubProvider) Leads(_ context.Context, deviceIDs []string) ([]models.Lead, error) {
	s.leadQueries = append(s.leadQueries, deviceIDs)
	if len(deviceIDs) == 0 {
		return models.CloneLeads(s.leads), nil
	}
	wanted := make(map[string]struct{}, len(deviceIDs))
	for _, id := range deviceIDs {
		wanted[id] = struct{}{}
	}
	out := []models.Lead{}
	for _, lead := range s.leads {
		if lead.DeviceID == nil {
			continue
		}
		if _, ok := wanted[*lead.DeviceID]; ok {
			out = append(out, lead.Clone())
		}
	}
	return out, nil
}

func (s *stubProvider) UpdateLeadStage(_ context.Context, leadID, stageID string) error {
	if s.failMoves {
		return errors.New("stage transition rejected")
	}
	s.stageMoves = append(s.stageMoves, leadID+"->"+stageID)
	return nil
}

func (s *stubProvider) UpdateLead(_ context.Context, leadID string, fields map[string]any) (models.Lead, error) {
	s.leadUpdates = append(s.leadUpdates, fields)
	for i := range s.leads {
		if s.leads[i].ID != leadID {
			continue
		}
		lead := &s.leads[i]
		for key, value := range fields {
			str, _ := value.(string)
			switch key {
			case "name":
				lead.Name = str
			case "last_name":
				lead.LastName = str
			case "short_name":
				lead.ShortName = str
			case "phone":
				lead.Phone = str
			case "email":
				lead.Email = str
			case "company":
				lead.Company = str
			case "notes":
				lead.Notes = str
			case "age":
				if n, ok := value.(int); ok {
					age := n
					lead.Age = &age
				} else {
					lead.Age = nil
				}
			case "pipeline_id":
				id := str
				lead.PipelineID = &id
			case "stage_id":
				id := str
				lead.StageID = &id
			}
		}
		return lead.Clone(), nil
	}
	return models.Lead{ID: leadID}, nil
}

func (s *stubProvider) DeleteLead(_ context.Context, id string) error {
	s.deletedSingle = append(s.deletedSingle, id)
	s.removeLeads(map[string]struct{}{id: {}})
	return nil
}

func (s *stubProvider) DeleteLeadsBatch(_ context.Context, ids []string) error {
	s.deletedBatch = append(s.deletedBatch, ids...)
	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}
	s.removeLeads(gone)
	return nil
}

func (s *stubProvider) removeLeads(gone map[string]struct{}) {
	kept := s.leads[:0]
	for _, lead := range s.leads {
		if _, ok := gone[lead.ID]; !ok {
			kept = append(kept, lead)
		}
	}
	s.leads = kept
}

func (s *stubProvider) CreateStage(_ context.Context, pipelineID, name, color string) error {
	s.createdStages = append(s.createdStages, pipelineID+"/"+name+"/"+color)
	return nil
}

func (s *stubProvider) UpdateStage(_ context.Context, pipelineID, stageID, name, color string) error {
	s.createdStages = append(s.createdStages, pipelineID+"/"+stageID+"/"+name+"/"+color)
	return nil
}

// DeleteStage drops the stage and leaves its leads logically unassigned, the
// server-side contract the board relies on.
func (s *stubProvider) DeleteStage(_ context.Context, pipelineID, stageID string) error {
	s.createdStages = append(s.createdStages, "delete:"+pipelineID+"/"+stageID)
	for pi := range s.pipelines {
		if s.pipelines[pi].ID != pipelineID {
			continue
		}
		stages := s.pipelines[pi].Stages[:0]
		for _, stage := range s.pipelines[pi].Stages {
			if stage.ID != stageID {
				stages = append(stages, stage)
			}
		}
		s.pipelines[pi].Stages = stages
	}
	for li := range s.leads {
		if s.leads[li].StageID != nil && *s.leads[li].StageID == stageID {
			s.leads[li].StageID = nil
			s.leads[li].StageName = ""
		}
	}
	return nil
}

func (s *stubProvider) ReorderStages(_ context.Context, pipelineID string, orderedIDs []string) error {
	if s.failReorder {
		return errors.New("reorder rejected")
	}
	s.reorders = append(s.reorders, orderedIDs)
	for pi := range s.pipelines {
		if s.pipelines[pi].ID == pipelineID {
			board.ReindexStages(&s.pipelines[pi], orderedIDs)
		}
	}
	return nil
}

func (s *stubProvider) Observations(_ context.Context, leadID string, limit int) ([]models.Observation, error) {
	entries := append([]models.Observation(nil), s.obs[leadID]...)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *stubProvider) CreateObservation(_ context.Context, obs models.Observation) (models.Observation, error) {
	obs.ID = "created"
	s.createdObs = append(s.createdObs, obs)
	return obs, nil
}

func (s *stubProvider) DeleteObservation(_ context.Context, id string) error {
	s.deletedObs = append(s.deletedObs, id)
	return nil
}

func strptr(s string) *string { return &s }

func stubData() *stubProvider {
	return &stubProvider{
		pipelines: []models.Pipeline{
			{
				ID: "p1", AccountID: "acc1", Name: "Sales", IsDefault: true,
				Stages: []models.Stage{
					{ID: "s1", PipelineID: "p1", Name: "New", Position: 0},
					{ID: "s2", PipelineID: "p1", Name: "Won", Position: 1},
				},
			},
		},
		leads: []models.Lead{
			{
				ID: "l1", PipelineID: strptr("p1"), StageID: strptr("s1"),
				Name: "Maria", DeviceID: strptr("d1"),
				StructuredTags: []models.StructuredTag{{ID: "t1", Name: "vip"}},
			},
			{
				ID: "l2", PipelineID: strptr("p1"), StageID: strptr("s1"),
				Name: "Jorge", DeviceID: strptr("d2"),
				StructuredTags: []models.StructuredTag{{ID: "t2", Name: "activo"}},
			},
		},
		obs: map[string][]models.Observation{},
	}
}

func testModel(t *testing.T, provider Provider) *Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.API.AccountID = "acc1"
	cfg.Global.DataDir = t.TempDir()
	cfg.Global.ConfigDir = filepath.Join(cfg.Global.DataDir, "config")

	m := newModel(cfg, provider, nil, nil)
	t.Cleanup(m.Close)
	return m
}

// drain runs a command tree and feeds every resulting message back into the
// model, mimicking the bubbletea runtime synchronously.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if msg == nil {
		return
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			drain(t, m, sub)
		}
		return
	}
	_, next := m.Update(msg)
	drain(t, m, next)
}

func loadBoard(t *testing.T, m *Model) {
	t.Helper()
	drain(t, m, m.fetchBoardCmd())
	require.True(t, m.loaded)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(t *testing.T, m *Model, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, cmd := m.Update(key(k))
		drain(t, m, cmd)
	}
}

func TestBoardLoadsAndPartitions(t *testing.T) {
	m := testModel(t, stubData())
	loadBoard(t, m)

	assert.Equal(t, "p1", m.engine.Registry().ActiveID())
	b := m.engine.BoardView(nil)
	require.Len(t, b.Columns, 2)
	assert.Equal(t, 2, b.Columns[0].Count())
	assert.Equal(t, 0, b.Columns[1].Count())
}

func TestBoardDragDropSendsStageMove(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)

	press(t, m, "d", "l", "enter")

	require.Equal(t, []string{"l1->s2"}, provider.stageMoves)
	lead, _ := m.engine.Store().Get("l1")
	assert.Equal(t, "s2", *lead.StageID)
	assert.Equal(t, board.ModeIdle, m.engine.Mode().Kind())
}

func TestBoardDragDropRevertsOnRejection(t *testing.T) {
	provider := stubData()
	provider.failMoves = true
	m := testModel(t, provider)
	loadBoard(t, m)

	press(t, m, "d", "l", "enter")

	lead, _ := m.engine.Store().Get("l1")
	assert.Equal(t, "s1", *lead.StageID)
	assert.NotEmpty(t, m.statusErr)
}

func TestBoardDropOnOwnColumnSendsNothing(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)

	press(t, m, "d", "enter")

	assert.Empty(t, provider.stageMoves)
}

func TestBoardSelectionBulkDelete(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)

	press(t, m, "v", " ", "j", " ", "D", "y")

	assert.ElementsMatch(t, []string{"l1", "l2"}, provider.deletedBatch)
	assert.Equal(t, 0, m.engine.Store().Len())
	assert.Equal(t, board.ModeIdle, m.engine.Mode().Kind())
}

func TestBoardSelectionCancelKeepsLeads(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)

	press(t, m, "v", " ", "D", "n")

	assert.Empty(t, provider.deletedBatch)
	assert.Equal(t, 2, m.engine.Store().Len())
}

func TestBoardSearchDebounceDropsStaleGenerations(t *testing.T) {
	m := testModel(t, stubData())
	loadBoard(t, m)

	view := m.views[ViewBoard].(*boardView)
	view.searching = true
	view.search.Focus()
	view.search.SetValue("mar")

	stale := view.debounce.Bump()
	current := view.debounce.Bump()

	view.Update(searchDebounceMsg{generation: stale})
	assert.Empty(t, m.engine.Filter().Search)

	view.Update(searchDebounceMsg{generation: current})
	assert.Equal(t, "mar", m.engine.Filter().Search)
	assert.Len(t, m.engine.VisibleLeads(), 1)
}

func TestBoardHideStagePersistsPerAccount(t *testing.T) {
	m := testModel(t, stubData())
	loadBoard(t, m)

	press(t, m, "H")

	hidden := m.prefs.HiddenStages("acc1")
	assert.Contains(t, hidden, "s1")
	assert.Empty(t, m.prefs.HiddenStages("other-account"))

	b := m.engine.BoardView(m.hiddenStages())
	require.Len(t, b.Columns, 1)
	assert.Equal(t, "Won", b.Columns[0].Stage.Name)
}

func TestBoardLiveEventTriggersRefetch(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)

	provider.leads = append(provider.leads, models.Lead{
		ID: "l3", PipelineID: strptr("p1"), StageID: strptr("s2"), Name: "Ana",
	})

	_, cmd := m.Update(liveEventMsg{ok: true})
	drain(t, m, cmd)

	assert.Equal(t, 3, m.engine.Store().Len())
}

func TestBoardStageFilterNarrowsVisibleLeads(t *testing.T) {
	provider := stubData()
	provider.leads[1].StageID = strptr("s2")
	m := testModel(t, provider)
	loadBoard(t, m)

	// f opens the panel on the stage dimension; j moves to Won, space toggles.
	press(t, m, "f", "j", " ")

	visible := m.engine.VisibleLeads()
	require.Len(t, visible, 1)
	assert.Equal(t, "l2", visible[0].ID)

	// Toggling again restores everything.
	press(t, m, " ", "esc")
	assert.Len(t, m.engine.VisibleLeads(), 2)
}

func TestBoardTagFilterWildcardPattern(t *testing.T) {
	m := testModel(t, stubData())
	loadBoard(t, m)

	view := m.views[ViewBoard].(*boardView)
	press(t, m, "f", "tab") // tag dimension
	view.tagQuery.SetValue("vi%")

	options := view.filterOptions()
	require.Len(t, options, 1)
	assert.Equal(t, "vip", options[0].label)

	press(t, m, " ")
	visible := m.engine.VisibleLeads()
	require.Len(t, visible, 1)
	assert.Equal(t, "l1", visible[0].ID)
}

func TestBoardDeviceFilterNarrowsLeadQuery(t *testing.T) {
	provider := stubData()
	m := testModel(t, provider)
	loadBoard(t, m)

	press(t, m, "f", "tab", "tab", " ") // device dimension, toggle d1

	last := provider.leadQueries[len(provider.leadQueries)-1]
	assert.Equal(t, []string{"d1"}, last)

	visible := m.engine.VisibleLeads()
	require.Len(t, visible, 1)
	assert.Equal(t, "l1", visible[0].ID)
}

func TestBoardFilterClearResetsDimensions(t *testing.T) {
	m := testModel(t, stubData())
	loadBoard(t, m)

	press(t, m, "f", " ", "tab", " ", "x")

	assert.True(t, m.engine.Filter().IsEmpty())
	assert.Len(t, m.engine.VisibleLeads(), 2)
}

func TestBoardSidebarToggleStoredPerAccount(t *testing.T) {
	m := testModel(t, stubData())
	loadBoard(t, m)

	press(t, m, "b")
	assert.True(t, m.prefs.SidebarCollapsed("acc1"))
	assert.False(t, m.prefs.SidebarCollapsed("other-account"))

	press(t, m, "b")
	assert.False(t, m.prefs.SidebarCollapsed("acc1"))
}

func TestBoardStaleWarmStartIsIgnoredAfterRealFetch(t *testing.T) {
	m := testModel(t, stubData())
	loadBoard(t, m)

	_, cmd := m.Update(boardDataMsg{leads: []models.Lead{{ID: "old"}}, stale: true})
	drain(t, m, cmd)

	assert.Equal(t, 2, m.engine.Store().Len())
	assert.False(t, m.stale)
}

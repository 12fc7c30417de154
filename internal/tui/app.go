// Package tui implements the terminal pipeline board: the Kanban view,
// the lead detail panel, the observation history and stage administration.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/tOgg1/leadboard/internal/api"
	"github.com/tOgg1/leadboard/internal/board"
	"github.com/tOgg1/leadboard/internal/board/state"
	"github.com/tOgg1/leadboard/internal/config"
	"github.com/tOgg1/leadboard/internal/live"
	"github.com/tOgg1/leadboard/internal/logging"
	"github.com/tOgg1/leadboard/internal/models"
	"github.com/tOgg1/leadboard/internal/snapshot"
	"github.com/tOgg1/leadboard/internal/tui/styles"
)

// ViewID identifies one screen.
type ViewID string

const (
	ViewBoard        ViewID = "board"
	ViewDetail       ViewID = "detail"
	ViewObservations ViewID = "observations"
	ViewStageAdmin   ViewID = "stage-admin"
)

// Model is the root bubbletea model: it owns the data lifecycle (fetch,
// snapshot, live refetch) and routes everything else to the active view.
type Model struct {
	cfg      *config.Config
	provider Provider
	engine   *board.Engine
	prefs    *state.Manager
	snap     *snapshot.Store
	listener *live.Listener
	log      zerolog.Logger

	theme  styles.Theme
	width  int
	height int

	statusErr string
	loaded    bool
	stale     bool

	cancelListen context.CancelFunc

	viewStack []ViewID
	views     map[ViewID]viewModel
}

type viewModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int, theme styles.Theme) string
}

// NewModel wires the board against a live backend client.
func NewModel(cfg *config.Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	client, err := api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.API.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	listener := live.New(live.Config{
		URL:   client.WebsocketURL(),
		Token: client.Token(),
	})

	snap, err := snapshot.Open(cfg.SnapshotPath())
	if err != nil {
		// Non-fatal: the board runs without a warm start.
		log := logging.Component("tui")
		log.Warn().Err(err).Msg("snapshot cache unavailable")
		snap = nil
	}

	return newModel(cfg, client, listener, snap), nil
}

// newModel assembles the model from pre-built parts; tests call it directly
// with stubs.
func newModel(cfg *config.Config, provider Provider, listener *live.Listener, snap *snapshot.Store) *Model {
	prefs := state.New(cfg.PrefsPath())
	// Non-fatal: prefs fall back to in-memory defaults.
	_ = prefs.Load()
	prefs.AdoptLegacy(cfg.API.AccountID)

	m := &Model{
		cfg:       cfg,
		provider:  provider,
		engine:    board.NewEngine(board.NewStore(), board.NewRegistry()),
		prefs:     prefs,
		snap:      snap,
		listener:  listener,
		log:       logging.Component("tui"),
		theme:     styles.Named(cfg.TUI.Theme),
		viewStack: []ViewID{ViewBoard},
		views:     make(map[ViewID]viewModel),
	}
	m.initViews()
	return m
}

// Run starts the program.
func Run(cfg *config.Config) error {
	model, err := NewModel(cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// Close flushes prefs and tears down the push subscription.
func (m *Model) Close() {
	if m.cancelListen != nil {
		m.cancelListen()
	}
	if m.listener != nil {
		m.listener.Close()
	}
	if m.snap != nil {
		_ = m.snap.Close()
	}
	_ = m.prefs.Close()
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.warmStartCmd(), m.fetchBoardCmd()}

	if m.listener != nil {
		ctx, cancel := context.WithCancel(context.Background())
		m.cancelListen = cancel
		go m.listener.Run(ctx)
		cmds = append(cmds, m.listenCmd())
	}

	if view := m.activeView(); view != nil {
		cmds = append(cmds, view.Init())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil

	case boardDataMsg:
		return m, m.applyBoardData(typed)

	case liveEventMsg:
		if !typed.ok {
			return m, nil
		}
		// Push payloads are not trusted; refetch everything.
		return m, tea.Batch(m.fetchBoardCmd(), m.listenCmd())

	case moveResultMsg:
		if typed.err != nil {
			if typed.move.Revert != nil {
				typed.move.Revert()
			}
			m.statusErr = fmt.Sprintf("move failed: %v", typed.err)
			m.log.Warn().Err(typed.err).Str("lead_id", typed.move.LeadID).Msg("stage move rejected")
			return m, nil
		}
		m.statusErr = ""
		return m, nil

	case leadsDeletedMsg:
		if typed.err != nil {
			m.statusErr = fmt.Sprintf("delete failed: %v", typed.err)
			return m, nil
		}
		// Removed locally for instant feedback, then refetched to pick up
		// whatever the server actually deleted.
		m.engine.CompleteBulkDelete(typed.ids)
		m.statusErr = ""
		return m, m.fetchBoardCmd()

	case stageMutationMsg:
		if typed.err != nil {
			// Reorders apply locally before the request; refetch to
			// reconcile with whatever the server kept.
			m.statusErr = fmt.Sprintf("stage change failed: %v", typed.err)
			return m, m.fetchBoardCmd()
		}
		m.statusErr = ""
		return m, m.fetchBoardCmd()

	case openLeadMsg:
		if view := m.views[ViewDetail]; view != nil {
			if setter, ok := view.(interface {
				SetLead(string) tea.Cmd
			}); ok {
				m.pushView(ViewDetail)
				return m, setter.SetLead(typed.leadID)
			}
		}
		return m, nil

	case pushViewMsg:
		m.pushView(typed.id)
		if view := m.activeView(); view != nil {
			return m, view.Init()
		}
		return m, nil

	case popViewMsg:
		m.popView()
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(typed); handled {
			return m, cmd
		}
	}

	if active := m.activeView(); active != nil {
		return m, active.Update(msg)
	}
	return m, nil
}

func (m *Model) View() string {
	active := m.activeView()
	if active == nil {
		return "no active view"
	}
	header := m.renderHeader()
	footer := m.renderFooter()
	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}
	body := active.View(m.width, contentHeight, m.theme)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	// Text-entry views swallow everything; only ctrl+c stays global.
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	if m.inputActive() {
		return nil, false
	}

	switch msg.String() {
	case "q":
		if m.activeViewID() == ViewBoard {
			return tea.Quit, true
		}
		m.popView()
		return nil, true
	case "R":
		return m.fetchBoardCmd(), true
	}
	return nil, false
}

func (m *Model) inputActive() bool {
	if v, ok := m.activeView().(interface{ InputActive() bool }); ok {
		return v.InputActive()
	}
	return false
}

func (m *Model) activeView() viewModel {
	return m.views[m.activeViewID()]
}

func (m *Model) activeViewID() ViewID {
	if len(m.viewStack) == 0 {
		return ViewBoard
	}
	return m.viewStack[len(m.viewStack)-1]
}

func (m *Model) pushView(id ViewID) {
	if id == "" {
		return
	}
	if _, ok := m.views[id]; !ok {
		return
	}
	if m.activeViewID() == id {
		return
	}
	m.viewStack = append(m.viewStack, id)
}

func (m *Model) popView() {
	if len(m.viewStack) <= 1 {
		return
	}
	m.viewStack = m.viewStack[:len(m.viewStack)-1]
}

func (m *Model) initViews() {
	m.views[ViewBoard] = newBoardView(m)
	m.views[ViewDetail] = newDetailView(m)
	m.views[ViewObservations] = newObservationsView(m)
	m.views[ViewStageAdmin] = newStageAdminView(m)
}

// warmStartCmd paints the last snapshot while the real fetch is in flight.
func (m *Model) warmStartCmd() tea.Cmd {
	if m.snap == nil {
		return nil
	}
	snap := m.snap
	accountID := m.cfg.API.AccountID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		pipelines, _, err := snap.LoadPipelines(ctx, accountID)
		if err != nil {
			return nil
		}
		leads, _, err := snap.LoadLeads(ctx, accountID)
		if err != nil {
			return nil
		}
		return boardDataMsg{pipelines: pipelines, leads: leads, stale: true}
	}
}

// fetchBoardCmd refetches pipelines, the CRM connection state and the lead list. The
// device filter narrows the lead query server-side.
func (m *Model) fetchBoardCmd() tea.Cmd {
	provider := m.provider
	timeout := m.cfg.API.Timeout
	deviceIDs := m.engine.Filter().DeviceIDList()
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(timeout)
		defer cancel()

		pipelines, err := provider.Pipelines(ctx)
		if err != nil {
			return boardDataMsg{err: err}
		}
		kommo, err := provider.KommoConnected(ctx)
		if err != nil {
			// A failed connection check only affects default pipeline choice.
			kommo = false
		}
		leads, err := provider.Leads(ctx, deviceIDs)
		if err != nil {
			return boardDataMsg{err: err}
		}
		return boardDataMsg{pipelines: pipelines, kommo: kommo, leads: leads}
	}
}

func (m *Model) applyBoardData(msg boardDataMsg) tea.Cmd {
	if msg.err != nil {
		m.statusErr = fmt.Sprintf("fetch failed: %v", msg.err)
		m.log.Warn().Err(msg.err).Msg("board fetch failed")
		return nil
	}
	if msg.stale && m.loaded {
		// The real fetch already landed; the warm start is obsolete.
		return nil
	}

	m.engine.Registry().SetKommoConnected(msg.kommo)
	m.engine.Registry().Replace(msg.pipelines)
	if last := m.prefs.LastPipeline(m.cfg.API.AccountID); last != "" {
		m.engine.Registry().SetActive(last)
	}
	m.engine.Store().Replace(msg.leads)

	m.loaded = true
	m.stale = msg.stale
	if !msg.stale {
		m.statusErr = ""
		return m.saveSnapshotCmd(msg.pipelines, msg.leads)
	}
	return nil
}

func (m *Model) saveSnapshotCmd(pipelines []models.Pipeline, leads []models.Lead) tea.Cmd {
	if m.snap == nil {
		return nil
	}
	snap := m.snap
	accountID := m.cfg.API.AccountID
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := snap.SavePipelines(ctx, accountID, pipelines); err != nil {
			log.Debug().Err(err).Msg("pipeline snapshot save failed")
		}
		if err := snap.SaveLeads(ctx, accountID, leads); err != nil {
			log.Debug().Err(err).Msg("lead snapshot save failed")
		}
		return nil
	}
}

// listenCmd waits for the next push notification.
func (m *Model) listenCmd() tea.Cmd {
	if m.listener == nil {
		return nil
	}
	events := m.listener.Events()
	return func() tea.Msg {
		_, ok := <-events
		return liveEventMsg{ok: ok}
	}
}

func (m *Model) hiddenStages() map[string]struct{} {
	return m.prefs.HiddenStages(m.cfg.API.AccountID)
}

// contextWithTimeout pads the request timeout so the HTTP client's own
// deadline fires first and surfaces the richer transport error.
func contextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout+5*time.Second)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

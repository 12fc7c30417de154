// Package state persists per-user board preferences across sessions: hidden
// stage columns, sidebar collapse and the last viewed pipeline, namespaced by
// account id so switching accounts never leaks another account's layout.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	CurrentVersion = 2

	defaultDebounce = 1 * time.Second
)

// UIState is the on-disk schema.
type UIState struct {
	Version  int                     `json:"version"`
	Accounts map[string]AccountPrefs `json:"accounts,omitempty"` // account id -> prefs
}

// AccountPrefs holds one account's board preferences. Hidden stages are a
// render-only concern: hiding never moves leads.
type AccountPrefs struct {
	HiddenStages     []string `json:"hidden_stages,omitempty"`
	SidebarCollapsed bool     `json:"sidebar_collapsed,omitempty"`
	LastPipeline     string   `json:"last_pipeline,omitempty"`
}

// Manager owns the prefs file: mutations mark it dirty and a debounced timer
// flushes to disk, so rapid toggling costs one write.
type Manager struct {
	path     string
	lockPath string

	mu       sync.Mutex
	state    UIState
	dirty    bool
	timer    *time.Timer
	debounce time.Duration
}

// New creates a Manager for the given file path. An empty path disables
// persistence; the Manager still serves in-memory prefs.
func New(path string) *Manager {
	path = strings.TrimSpace(path)
	return &Manager{
		path:     path,
		lockPath: path + ".lock",
		state: UIState{
			Version:  CurrentVersion,
			Accounts: make(map[string]AccountPrefs),
		},
		debounce: defaultDebounce,
	}
}

func (m *Manager) Path() string { return m.path }

// Load reads the prefs file, migrating the legacy un-namespaced schema when
// found. A missing file is not an error.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		return nil
	}

	loaded, err := m.loadLocked()
	if err != nil {
		return err
	}
	m.state = loaded
	m.dirty = false
	return nil
}

// HiddenStages returns the account's hidden stage ids as a set.
func (m *Manager) HiddenStages(accountID string) map[string]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefs := m.state.Accounts[accountID]
	out := make(map[string]struct{}, len(prefs.HiddenStages))
	for _, id := range prefs.HiddenStages {
		out[id] = struct{}{}
	}
	return out
}

// ToggleStageHidden flips one stage's visibility for the account and returns
// the new hidden state.
func (m *Manager) ToggleStageHidden(accountID, stageID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stageID = strings.TrimSpace(stageID)
	if stageID == "" {
		return false
	}

	prefs := m.state.Accounts[accountID]
	for i, id := range prefs.HiddenStages {
		if id == stageID {
			prefs.HiddenStages = append(prefs.HiddenStages[:i], prefs.HiddenStages[i+1:]...)
			m.setPrefsLocked(accountID, prefs)
			return false
		}
	}
	prefs.HiddenStages = append(prefs.HiddenStages, stageID)
	sort.Strings(prefs.HiddenStages)
	m.setPrefsLocked(accountID, prefs)
	return true
}

// SetStageHidden forces one stage's visibility for the account.
func (m *Manager) SetStageHidden(accountID, stageID string, hidden bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stageID = strings.TrimSpace(stageID)
	if stageID == "" {
		return
	}

	prefs := m.state.Accounts[accountID]
	idx := -1
	for i, id := range prefs.HiddenStages {
		if id == stageID {
			idx = i
			break
		}
	}
	switch {
	case hidden && idx == -1:
		prefs.HiddenStages = append(prefs.HiddenStages, stageID)
		sort.Strings(prefs.HiddenStages)
	case !hidden && idx != -1:
		prefs.HiddenStages = append(prefs.HiddenStages[:idx], prefs.HiddenStages[idx+1:]...)
	default:
		return
	}
	m.setPrefsLocked(accountID, prefs)
}

// SidebarCollapsed reports the account's sidebar collapse flag.
func (m *Manager) SidebarCollapsed(accountID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Accounts[accountID].SidebarCollapsed
}

// SetSidebarCollapsed stores the account's sidebar collapse flag.
func (m *Manager) SetSidebarCollapsed(accountID string, collapsed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefs := m.state.Accounts[accountID]
	if prefs.SidebarCollapsed == collapsed {
		return
	}
	prefs.SidebarCollapsed = collapsed
	m.setPrefsLocked(accountID, prefs)
}

// LastPipeline returns the account's last viewed pipeline id.
func (m *Manager) LastPipeline(accountID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Accounts[accountID].LastPipeline
}

// SetLastPipeline stores the account's last viewed pipeline id.
func (m *Manager) SetLastPipeline(accountID, pipelineID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefs := m.state.Accounts[accountID]
	if prefs.LastPipeline == pipelineID {
		return
	}
	prefs.LastPipeline = pipelineID
	m.setPrefsLocked(accountID, prefs)
}

// Close stops the debounce timer and flushes pending changes.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	needsSave := m.dirty
	m.mu.Unlock()
	if !needsSave {
		return nil
	}
	return m.SaveNow()
}

// SaveNow flushes the current state to disk under the file lock.
func (m *Manager) SaveNow() error {
	m.mu.Lock()
	if m.path == "" {
		m.mu.Unlock()
		return nil
	}
	state := cloneState(m.state)
	m.dirty = false
	m.mu.Unlock()

	state.Version = CurrentVersion

	if err := withFileLock(m.lockPath, func() error {
		return writeAtomicJSON(m.path, state)
	}); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Manager) setPrefsLocked(accountID string, prefs AccountPrefs) {
	if m.state.Accounts == nil {
		m.state.Accounts = make(map[string]AccountPrefs)
	}
	m.state.Accounts[accountID] = prefs
	m.markDirtyLocked()
}

func (m *Manager) markDirtyLocked() {
	m.dirty = true
	if m.path == "" {
		return
	}
	if m.timer == nil {
		m.timer = time.AfterFunc(m.debounce, func() {
			_ = m.SaveNow()
		})
		return
	}
	_ = m.timer.Reset(m.debounce)
}

func (m *Manager) loadLocked() (UIState, error) {
	var out UIState
	if err := withFileLock(m.lockPath, func() error {
		payload, err := os.ReadFile(m.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				out = UIState{Version: CurrentVersion}
				return nil
			}
			return err
		}
		if len(payload) == 0 {
			out = UIState{Version: CurrentVersion}
			return nil
		}

		// First attempt: current schema.
		if err := json.Unmarshal(payload, &out); err == nil && out.Version > 1 {
			return nil
		}

		// Legacy schema: one flat hidden-stage list shared by every
		// account. Parked under the empty account key; the first account
		// to read adopts it.
		var legacy struct {
			HiddenStages []string `json:"hidden_stages,omitempty"`
		}
		if err := json.Unmarshal(payload, &legacy); err != nil {
			return err
		}
		out = UIState{Version: CurrentVersion}
		if len(legacy.HiddenStages) > 0 {
			out.Accounts = map[string]AccountPrefs{
				"": {HiddenStages: legacy.HiddenStages},
			}
		}
		return nil
	}); err != nil {
		return UIState{}, err
	}

	if out.Version <= 0 {
		out.Version = CurrentVersion
	}
	if out.Accounts == nil {
		out.Accounts = make(map[string]AccountPrefs)
	}
	return out, nil
}

// AdoptLegacy moves prefs parked under the empty account key to the given
// account, once.
func (m *Manager) AdoptLegacy(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if accountID == "" {
		return
	}
	legacy, ok := m.state.Accounts[""]
	if !ok {
		return
	}
	if _, claimed := m.state.Accounts[accountID]; !claimed {
		m.state.Accounts[accountID] = legacy
	}
	delete(m.state.Accounts, "")
	m.markDirtyLocked()
}

func withFileLock(lockPath string, fn func() error) error {
	if strings.TrimSpace(lockPath) == "" || lockPath == ".lock" {
		return fn()
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}()
	return fn()
}

func writeAtomicJSON(path string, state UIState) error {
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func cloneState(state UIState) UIState {
	out := state
	if state.Accounts != nil {
		out.Accounts = make(map[string]AccountPrefs, len(state.Accounts))
		for id, prefs := range state.Accounts {
			cloned := prefs
			cloned.HiddenStages = append([]string(nil), prefs.HiddenStages...)
			out.Accounts[id] = cloned
		}
	}
	return out
}

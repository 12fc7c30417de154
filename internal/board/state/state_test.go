package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempManager(t *testing.T) *Manager {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "ui-prefs.json"))
}

func TestManagerHiddenStagesRoundTrip(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.Load())

	assert.True(t, m.ToggleStageHidden("acc1", "s2"))
	assert.True(t, m.ToggleStageHidden("acc1", "s5"))
	require.NoError(t, m.SaveNow())

	reloaded := New(m.Path())
	require.NoError(t, reloaded.Load())

	hidden := reloaded.HiddenStages("acc1")
	assert.Len(t, hidden, 2)
	assert.Contains(t, hidden, "s2")
	assert.Contains(t, hidden, "s5")
}

func TestManagerHiddenStagesAreNamespacedByAccount(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.Load())

	m.ToggleStageHidden("acc1", "s2")

	assert.Empty(t, m.HiddenStages("acc2"))
	assert.Len(t, m.HiddenStages("acc1"), 1)
}

func TestManagerToggleUnhides(t *testing.T) {
	m := tempManager(t)

	assert.True(t, m.ToggleStageHidden("acc1", "s2"))
	assert.False(t, m.ToggleStageHidden("acc1", "s2"))
	assert.Empty(t, m.HiddenStages("acc1"))
}

func TestManagerSetStageHiddenIsIdempotent(t *testing.T) {
	m := tempManager(t)

	m.SetStageHidden("acc1", "s1", true)
	m.SetStageHidden("acc1", "s1", true)
	assert.Len(t, m.HiddenStages("acc1"), 1)

	m.SetStageHidden("acc1", "s1", false)
	m.SetStageHidden("acc1", "s1", false)
	assert.Empty(t, m.HiddenStages("acc1"))
}

func TestManagerSidebarAndLastPipeline(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.Load())

	m.SetSidebarCollapsed("acc1", true)
	m.SetLastPipeline("acc1", "p7")
	require.NoError(t, m.SaveNow())

	reloaded := New(m.Path())
	require.NoError(t, reloaded.Load())

	assert.True(t, reloaded.SidebarCollapsed("acc1"))
	assert.False(t, reloaded.SidebarCollapsed("acc2"))
	assert.Equal(t, "p7", reloaded.LastPipeline("acc1"))
}

func TestManagerMigratesLegacyFlatSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui-prefs.json")
	legacy := []byte(`{"hidden_stages":["s1","s9"]}`)
	require.NoError(t, os.WriteFile(path, legacy, 0o644))

	m := New(path)
	require.NoError(t, m.Load())

	// Parked until an account claims it.
	assert.Empty(t, m.HiddenStages("acc1"))

	m.AdoptLegacy("acc1")
	hidden := m.HiddenStages("acc1")
	assert.Len(t, hidden, 2)
	assert.Contains(t, hidden, "s1")

	// A second adoption by another account gets nothing.
	m.AdoptLegacy("acc2")
	assert.Empty(t, m.HiddenStages("acc2"))
}

func TestManagerMissingFileIsNotAnError(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.Load())
	assert.Empty(t, m.HiddenStages("acc1"))
}

func TestManagerEmptyPathDisablesPersistence(t *testing.T) {
	m := New("")
	require.NoError(t, m.Load())

	m.ToggleStageHidden("acc1", "s1")
	require.NoError(t, m.SaveNow())
	assert.Len(t, m.HiddenStages("acc1"), 1)
}

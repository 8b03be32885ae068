package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store := storage.NewInMemoryStore()
	m, err := NewManager(store, store)
	require.NoError(t, err)
	return m
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestManager_CreateThenGet(t *testing.T) {
	m := newTestManager(t)

	created, err := m.Create("s1", "hypertension", map[string]any{"depth": 2})
	require.NoError(t, err)
	assert.Equal(t, core.StatusRunning, created.Status)

	got, err := m.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusRunning, got.Status)
	assert.Equal(t, "initializing", got.Stage)
	assert.Equal(t, "hypertension", got.Query)
}

func TestManager_CreateDuplicate(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Create("s1", "q", nil)
	require.NoError(t, err)

	_, err = m.Create("s1", "other", nil)
	assert.ErrorIs(t, err, core.ErrDuplicateSession)

	// Original session is untouched.
	got, err := m.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "q", got.Query)
}

func TestManager_PauseOnlyWhenRunning(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("s1", "q", nil)
	require.NoError(t, err)

	require.NoError(t, m.Pause("s1"))

	// Second pause must fail and report the actual status.
	err = m.Pause("s1")
	var ite *core.InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, core.StatusPaused, ite.Current)
	assert.Equal(t, "pause", ite.Event)

	got, err := m.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaused, got.Status)
}

func TestManager_ResumeOnlyWhenPaused(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("s1", "q", nil)
	require.NoError(t, err)

	_, err = m.Resume("s1")
	assert.True(t, core.IsInvalidTransition(err), "resume on a running session must fail")

	require.NoError(t, m.Pause("s1"))
	resumed, err := m.Resume("s1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusRunning, resumed.Status)
}

func TestManager_UpdateProgressIsPartial(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("s1", "q", nil)
	require.NoError(t, err)

	require.NoError(t, m.UpdateProgress("s1", ProgressUpdate{
		PapersFound:    intPtr(10),
		PapersAnalyzed: intPtr(4),
	}))
	require.NoError(t, m.UpdateProgress("s1", ProgressUpdate{Stage: strPtr("analyzing")}))

	got, err := m.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "analyzing", got.Stage)
	assert.Equal(t, 10, got.PapersFound)
	assert.Equal(t, 4, got.PapersAnalyzed)
}

func TestManager_UpdateProgressUnknownSession(t *testing.T) {
	m := newTestManager(t)
	err := m.UpdateProgress("ghost", ProgressUpdate{Stage: strPtr("searching")})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestManager_TerminalStatesRejectTransitions(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("s1", "q", nil)
	require.NoError(t, err)

	require.NoError(t, m.Complete("s1"))

	got, err := m.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, got.Status)
	assert.Equal(t, "completed", got.Stage)

	assert.True(t, core.IsInvalidTransition(m.Pause("s1")))
	assert.True(t, core.IsInvalidTransition(m.Fail("s1", "late error")))
	assert.True(t, core.IsInvalidTransition(m.Complete("s1")))
}

func TestManager_FailRecordsError(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("s1", "q", nil)
	require.NoError(t, err)
	require.NoError(t, m.Pause("s1"))

	// Failing is allowed from paused as well as running.
	require.NoError(t, m.Fail("s1", "pubmed unavailable"))

	got, err := m.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, got.Status)
	assert.Equal(t, "failed: pubmed unavailable", got.Stage)
}

func TestManager_SetResults(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("s1", "q", nil)
	require.NoError(t, err)

	require.NoError(t, m.SetResults("s1", Results{
		SearchResults: map[string]any{"hits": 3},
		Report:        strPtr("final report"),
	}))

	got, err := m.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"hits": 3}, got.SearchResults)
	assert.Equal(t, "final report", got.Report)
	assert.Nil(t, got.DrugInteractions, "untouched result fields stay empty")
}

func TestManager_DeleteRemovesSession(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("s1", "q", nil)
	require.NoError(t, err)

	require.NoError(t, m.Delete("s1"))
	_, err = m.Get("s1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, m.Delete("s1"), core.ErrNotFound)
}

func TestManager_ListOrderingAndFilter(t *testing.T) {
	m := newTestManager(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := m.Create(id, "q", nil)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, m.Pause("b"))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, m.UpdateProgress("a", ProgressUpdate{Stage: strPtr("searching")}))

	all := m.List("")
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID, "most recently updated first")
	assert.Equal(t, "b", all[1].ID)

	paused := m.List(core.StatusPaused)
	require.Len(t, paused, 1)
	assert.Equal(t, "b", paused[0].ID)
}

func TestManager_Statistics(t *testing.T) {
	m := newTestManager(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := m.Create(id, "q", nil)
		require.NoError(t, err)
	}
	require.NoError(t, m.UpdateProgress("a", ProgressUpdate{PapersAnalyzed: intPtr(5)}))
	require.NoError(t, m.UpdateProgress("b", ProgressUpdate{PapersAnalyzed: intPtr(7)}))
	require.NoError(t, m.Complete("c"))

	stats := m.Statistics()
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 2, stats.ByStatus[core.StatusRunning])
	assert.Equal(t, 1, stats.ByStatus[core.StatusCompleted])
	assert.Equal(t, 12, stats.TotalPapersAnalyzed)
}

func TestManager_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	require.NoError(t, err)

	m1, err := NewManager(store, store)
	require.NoError(t, err)
	_, err = m1.Create("s1", "hypertension", map[string]any{"max_papers": float64(50)})
	require.NoError(t, err)
	require.NoError(t, m1.UpdateProgress("s1", ProgressUpdate{
		Stage:       strPtr("searching"),
		PapersFound: intPtr(10),
	}))
	require.NoError(t, m1.Pause("s1"))
	require.NoError(t, m1.SaveCheckpoint("s1", []byte("cursor-state")))

	// Simulated process restart: a fresh manager over the same directory.
	store2, err := storage.NewFileStore(dir)
	require.NoError(t, err)
	m2, err := NewManager(store2, store2)
	require.NoError(t, err)

	got, err := m2.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaused, got.Status)
	assert.Equal(t, "searching", got.Stage)
	assert.Equal(t, 10, got.PapersFound)
	assert.Equal(t, map[string]any{"max_papers": float64(50)}, got.Config)

	blob, err := m2.LoadCheckpoint("s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("cursor-state"), blob)

	resumed, err := m2.Resume("s1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusRunning, resumed.Status)
}

func TestManager_SaveCheckpointRequiresSession(t *testing.T) {
	m := newTestManager(t)
	err := m.SaveCheckpoint("ghost", []byte("x"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestManager_EndToEndScenario(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Create("s1", "hypertension", nil)
	require.NoError(t, err)

	require.NoError(t, m.UpdateProgress("s1", ProgressUpdate{
		Stage:       strPtr("searching"),
		PapersFound: intPtr(10),
	}))
	require.NoError(t, m.Pause("s1"))

	got, err := m.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaused, got.Status)
	assert.Equal(t, "searching", got.Stage)

	_, err = m.Resume("s1")
	require.NoError(t, err)
	got, err = m.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusRunning, got.Status)

	require.NoError(t, m.Complete("s1"))
	got, err = m.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, got.Status)
	assert.Equal(t, "completed", got.Stage)
}

func TestStore_LoadSkipsCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put(core.NewResearchSession("good", "q", nil)))

	// A record that cannot be decoded must not block rehydration.
	writeCorruptRecord(t, dir, "bad")

	m, err := NewManager(store, store)
	require.NoError(t, err)

	_, err = m.Get("good")
	require.NoError(t, err)
	_, err = m.Get("bad")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

package board

import (
	"sync"

	"github.com/tOgg1/leadboard/internal/models"
)

// Store is the client-side lead cache: the source of truth for rendering
// between refetches. Optimistic mutations return a revert closure that
// restores the pre-mutation record, so a failed request can be compensated
// instead of leaving the cache diverged from the backend.
type Store struct {
	mu    sync.RWMutex
	leads []models.Lead
	byID  map[string]int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

// Replace swaps the full lead list, as after a refetch.
func (s *Store) Replace(leads []models.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = models.CloneLeads(leads)
	s.reindexLocked()
}

// Leads returns a deep copy of the cached list.
func (s *Store) Leads() []models.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneLeads(s.leads)
}

// Len returns the cached lead count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads)
}

// Get returns a copy of the lead with the given id.
func (s *Store) Get(id string) (models.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return models.Lead{}, false
	}
	return s.leads[idx].Clone(), true
}

// Revert undoes one optimistic mutation. A no-op revert is returned where
// nothing changed.
type Revert func()

var nopRevert Revert = func() {}

// MoveToStage optimistically moves a lead to the given stage, updating the
// stage id and the denormalized display fields. Only the moved lead changes.
// The returned revert restores the lead's previous record if it still exists.
func (s *Store) MoveToStage(leadID string, stage models.Stage) (Revert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[leadID]
	if !ok {
		return nopRevert, false
	}

	previous := s.leads[idx].Clone()

	stageID := stage.ID
	s.leads[idx].StageID = &stageID
	s.leads[idx].StageName = stage.Name
	s.leads[idx].StageColor = stage.Color
	s.leads[idx].StagePosition = stage.Position

	return s.revertFor(leadID, previous), true
}

// MoveToPipeline optimistically performs a cross-pipeline move: the lead
// adopts the target pipeline and stage together.
func (s *Store) MoveToPipeline(leadID string, pipelineID string, stage models.Stage) (Revert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[leadID]
	if !ok {
		return nopRevert, false
	}

	previous := s.leads[idx].Clone()

	pid := pipelineID
	stageID := stage.ID
	s.leads[idx].PipelineID = &pid
	s.leads[idx].StageID = &stageID
	s.leads[idx].StageName = stage.Name
	s.leads[idx].StageColor = stage.Color
	s.leads[idx].StagePosition = stage.Position

	return s.revertFor(leadID, previous), true
}

// Update replaces a single lead's record, as after a field-edit response.
func (s *Store) Update(lead models.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[lead.ID]
	if !ok {
		return
	}
	s.leads[idx] = lead.Clone()
}

// Remove drops the given leads from the cache.
func (s *Store) Remove(ids ...string) {
	if len(ids) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := s.leads[:0]
	for _, lead := range s.leads {
		if _, gone := drop[lead.ID]; gone {
			continue
		}
		kept = append(kept, lead)
	}
	s.leads = kept
	s.reindexLocked()
}

func (s *Store) revertFor(leadID string, previous models.Lead) Revert {
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		idx, ok := s.byID[leadID]
		if !ok {
			// The lead vanished (remote delete settled first); nothing
			// to restore.
			return
		}
		s.leads[idx] = previous
	}
}

func (s *Store) reindexLocked() {
	s.byID = make(map[string]int, len(s.leads))
	for i := range s.leads {
		s.byID[s.leads[i].ID] = i
	}
}

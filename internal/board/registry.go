package board

import (
	"sync"

	"github.com/tOgg1/leadboard/internal/models"
)

// Registry holds the loaded pipelines and resolves which one is active.
// Selection priority: a connected external (Kommo) pipeline, then the account
// default, then the first loaded pipeline.
type Registry struct {
	mu             sync.RWMutex
	pipelines      []models.Pipeline
	activeID       string
	kommoConnected bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetKommoConnected records whether the account has an active external CRM
// link; it biases default pipeline resolution.
func (r *Registry) SetKommoConnected(connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kommoConnected = connected
	r.resolveActiveLocked()
}

// Replace swaps the pipeline list, as after a refetch. A previously selected
// active pipeline is kept if it still exists.
func (r *Registry) Replace(pipelines []models.Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines = clonePipelines(pipelines)
	r.resolveActiveLocked()
}

// Pipelines returns a copy of the loaded pipelines.
func (r *Registry) Pipelines() []models.Pipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clonePipelines(r.pipelines)
}

// SetActive switches the board to a specific pipeline. Unknown ids are
// ignored.
func (r *Registry) SetActive(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pipelines {
		if p.ID == id {
			r.activeID = id
			return
		}
	}
}

// Active returns the active pipeline, if any.
func (r *Registry) Active() (models.Pipeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.pipelines {
		if p.ID == r.activeID {
			return clonePipeline(p), true
		}
	}
	return models.Pipeline{}, false
}

// ActiveID returns the active pipeline id, or "" when none is loaded.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// ApplyStageOrder reindexes one pipeline's stages to the given id order,
// assigning dense positions. Used to apply a reorder locally while the request
// is in flight; a failed request refetches and overwrites this.
func (r *Registry) ApplyStageOrder(pipelineID string, orderedIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.pipelines {
		if r.pipelines[i].ID == pipelineID {
			ReindexStages(&r.pipelines[i], orderedIDs)
			return
		}
	}
}

// FindStage resolves a stage id, preferring the active pipeline's stage list
// and falling back to every loaded pipeline. The fallback supports leads
// whose pipeline differs from the one currently viewed.
func (r *Registry) FindStage(stageID string) (models.Stage, models.Pipeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if stageID == "" {
		return models.Stage{}, models.Pipeline{}, false
	}

	for _, p := range r.pipelines {
		if p.ID != r.activeID {
			continue
		}
		if stage, ok := p.StageByID(stageID); ok {
			return stage, clonePipeline(p), true
		}
	}

	for _, p := range r.pipelines {
		if p.ID == r.activeID {
			continue
		}
		if stage, ok := p.StageByID(stageID); ok {
			return stage, clonePipeline(p), true
		}
	}

	return models.Stage{}, models.Pipeline{}, false
}

func (r *Registry) resolveActiveLocked() {
	if len(r.pipelines) == 0 {
		r.activeID = ""
		return
	}

	// Keep an explicit selection while it still exists.
	if r.activeID != "" {
		for _, p := range r.pipelines {
			if p.ID == r.activeID {
				return
			}
		}
	}

	if r.kommoConnected {
		for _, p := range r.pipelines {
			if p.IsKommo {
				r.activeID = p.ID
				return
			}
		}
	}

	for _, p := range r.pipelines {
		if p.IsDefault {
			r.activeID = p.ID
			return
		}
	}

	r.activeID = r.pipelines[0].ID
}

func clonePipeline(p models.Pipeline) models.Pipeline {
	out := p
	out.Stages = append([]models.Stage(nil), p.Stages...)
	return out
}

func clonePipelines(pipelines []models.Pipeline) []models.Pipeline {
	if len(pipelines) == 0 {
		return nil
	}
	out := make([]models.Pipeline, len(pipelines))
	for i := range pipelines {
		out[i] = clonePipeline(pipelines[i])
	}
	return out
}

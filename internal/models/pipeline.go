package models

import (
	"sort"
	"time"
)

// Pipeline is a named, ordered set of stages for one account.
type Pipeline struct {
	// ID is the unique identifier for the pipeline.
	ID string `json:"id"`

	// AccountID is the owning account.
	AccountID string `json:"account_id"`

	// Name is the human-friendly pipeline name.
	Name string `json:"name"`

	// IsDefault marks the account's default pipeline. At most one pipeline
	// per account carries this flag.
	IsDefault bool `json:"is_default"`

	// IsKommo marks a pipeline mirrored from the external Kommo CRM. A
	// connected Kommo pipeline takes priority over the default for active
	// pipeline selection.
	IsKommo bool `json:"is_kommo"`

	// Stages is the ordered column list. Positions are dense 0..N-1.
	Stages []Stage `json:"stages"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stage is one ordered column of a pipeline.
type Stage struct {
	// ID is the unique identifier for the stage.
	ID string `json:"id"`

	// PipelineID is the pipeline this stage belongs to.
	PipelineID string `json:"pipeline_id"`

	// Name is the column label.
	Name string `json:"name"`

	// Color is the column accent color (hex or ANSI-256 token).
	Color string `json:"color"`

	// Position orders columns left-to-right, unique and contiguous within
	// a pipeline.
	Position int `json:"position"`

	// RecordCount is the server-computed total of leads in this stage. The
	// board renders filtered counts instead; this is kept for list views.
	RecordCount int `json:"record_count"`
}

// DefaultStageColor is the preset used when creating a stage without an
// explicit color.
const DefaultStageColor = "#4f8cff"

// Validate checks stage fields required before a create/edit request.
func (s *Stage) Validate() error {
	validation := &ValidationErrors{}
	if s.Name == "" {
		validation.AddMessage("name", "stage name is required")
	}
	return validation.Err()
}

// SortedStages returns the pipeline's stages ordered by position.
func (p *Pipeline) SortedStages() []Stage {
	out := append([]Stage(nil), p.Stages...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

// StageByID returns the stage with the given id, if present.
func (p *Pipeline) StageByID(id string) (Stage, bool) {
	if id == "" {
		return Stage{}, false
	}
	for _, stage := range p.Stages {
		if stage.ID == id {
			return stage, true
		}
	}
	return Stage{}, false
}

// HasDensePositions reports whether stage positions form a dense 0..N-1
// permutation.
func (p *Pipeline) HasDensePositions() bool {
	seen := make(map[int]bool, len(p.Stages))
	for _, stage := range p.Stages {
		if stage.Position < 0 || stage.Position >= len(p.Stages) {
			return false
		}
		if seen[stage.Position] {
			return false
		}
		seen[stage.Position] = true
	}
	return true
}

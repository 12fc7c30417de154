package tui

import (
	"context"

	"github.com/tOgg1/leadboard/internal/models"
)

// Provider is the backend surface the views depend on. *api.Client satisfies
// it; tests substitute stubs.
type Provider interface {
	Pipelines(ctx context.Context) ([]models.Pipeline, error)
	KommoConnected(ctx context.Context) (bool, error)

	Leads(ctx context.Context, deviceIDs []string) ([]models.Lead, error)
	UpdateLeadStage(ctx context.Context, leadID, stageID string) error
	UpdateLead(ctx context.Context, leadID string, fields map[string]any) (models.Lead, error)
	DeleteLead(ctx context.Context, leadID string) error
	DeleteLeadsBatch(ctx context.Context, ids []string) error

	CreateStage(ctx context.Context, pipelineID, name, color string) error
	UpdateStage(ctx context.Context, pipelineID, stageID, name, color string) error
	DeleteStage(ctx context.Context, pipelineID, stageID string) error
	ReorderStages(ctx context.Context, pipelineID string, orderedIDs []string) error

	Observations(ctx context.Context, leadID string, limit int) ([]models.Observation, error)
	CreateObservation(ctx context.Context, obs models.Observation) (models.Observation, error)
	DeleteObservation(ctx context.Context, id string) error
}

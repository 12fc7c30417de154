package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tOgg1/leadboard/internal/models"
)

type pipelinesResponse struct {
	Envelope
	Pipelines []models.Pipeline `json:"pipelines"`
}

type kommoConnectedResponse struct {
	Envelope
	Connected bool `json:"connected"`
}

// Pipelines fetches all pipelines with their nested stage lists.
func (c *Client) Pipelines(ctx context.Context) ([]models.Pipeline, error) {
	var resp pipelinesResponse
	if err := c.do(ctx, http.MethodGet, "/api/pipelines", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch pipelines: %w", err)
	}
	return resp.Pipelines, nil
}

// KommoConnected reports whether the account has an active Kommo CRM link.
// Used only to bias default pipeline selection.
func (c *Client) KommoConnected(ctx context.Context) (bool, error) {
	var resp kommoConnectedResponse
	if err := c.do(ctx, http.MethodGet, "/api/kommo/connected", nil, nil, &resp); err != nil {
		return false, fmt.Errorf("check kommo link: %w", err)
	}
	return resp.Connected, nil
}

// CreateStage appends a new stage to the pipeline.
func (c *Client) CreateStage(ctx context.Context, pipelineID, name, color string) error {
	body := map[string]any{"name": name, "color": color}
	path := fmt.Sprintf("/api/pipelines/%s/stages", url.PathEscape(pipelineID))
	if err := c.do(ctx, http.MethodPost, path, nil, body, nil); err != nil {
		return fmt.Errorf("create stage in pipeline %s: %w", pipelineID, err)
	}
	return nil
}

// UpdateStage renames and/or recolors an existing stage.
func (c *Client) UpdateStage(ctx context.Context, pipelineID, stageID, name, color string) error {
	body := map[string]any{"name": name, "color": color}
	path := fmt.Sprintf("/api/pipelines/%s/stages/%s", url.PathEscape(pipelineID), url.PathEscape(stageID))
	if err := c.do(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return fmt.Errorf("update stage %s: %w", stageID, err)
	}
	return nil
}

// DeleteStage removes a stage. Leads referencing it become unassigned on the
// server; callers refetch leads and pipelines afterwards.
func (c *Client) DeleteStage(ctx context.Context, pipelineID, stageID string) error {
	path := fmt.Sprintf("/api/pipelines/%s/stages/%s", url.PathEscape(pipelineID), url.PathEscape(stageID))
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete stage %s: %w", stageID, err)
	}
	return nil
}

// ReorderStages persists a full stage ordering for the pipeline.
func (c *Client) ReorderStages(ctx context.Context, pipelineID string, orderedIDs []string) error {
	body := map[string]any{"stage_ids": orderedIDs}
	path := fmt.Sprintf("/api/pipelines/%s/stages/reorder", url.PathEscape(pipelineID))
	if err := c.do(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return fmt.Errorf("reorder stages in pipeline %s: %w", pipelineID, err)
	}
	return nil
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tOgg1/leadboard/internal/models"
)

type leadsResponse struct {
	Envelope
	Leads []models.Lead `json:"leads"`
}

type leadResponse struct {
	Envelope
	Lead models.Lead `json:"lead"`
}

// Leads fetches the account's lead list. A non-empty deviceIDs narrows the
// result to leads owned by those devices.
func (c *Client) Leads(ctx context.Context, deviceIDs []string) ([]models.Lead, error) {
	query := url.Values{}
	if len(deviceIDs) > 0 {
		query.Set("device_ids", strings.Join(deviceIDs, ","))
	}

	var resp leadsResponse
	if err := c.do(ctx, http.MethodGet, "/api/leads", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch leads: %w", err)
	}
	return resp.Leads, nil
}

// UpdateLeadStage moves a lead to a stage within its current pipeline.
func (c *Client) UpdateLeadStage(ctx context.Context, leadID, stageID string) error {
	body := map[string]any{"stage_id": stageID}
	path := fmt.Sprintf("/api/leads/%s/stage", url.PathEscape(leadID))
	if err := c.do(ctx, http.MethodPatch, path, nil, body, nil); err != nil {
		return fmt.Errorf("move lead %s to stage %s: %w", leadID, stageID, err)
	}
	return nil
}

// UpdateLead applies a partial field map to a lead and returns the updated
// record. Nil values in fields clear the corresponding attribute.
func (c *Client) UpdateLead(ctx context.Context, leadID string, fields map[string]any) (models.Lead, error) {
	var resp leadResponse
	path := "/api/leads/" + url.PathEscape(leadID)
	if err := c.do(ctx, http.MethodPut, path, nil, fields, &resp); err != nil {
		return models.Lead{}, fmt.Errorf("update lead %s: %w", leadID, err)
	}
	return resp.Lead, nil
}

// DeleteLead removes a single lead.
func (c *Client) DeleteLead(ctx context.Context, leadID string) error {
	path := "/api/leads/" + url.PathEscape(leadID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete lead %s: %w", leadID, err)
	}
	return nil
}

// DeleteLeadsBatch removes all given leads in one request.
func (c *Client) DeleteLeadsBatch(ctx context.Context, ids []string) error {
	body := map[string]any{"ids": ids}
	if err := c.do(ctx, http.MethodDelete, "/api/leads/batch", nil, body, nil); err != nil {
		return fmt.Errorf("delete %d leads: %w", len(ids), err)
	}
	return nil
}

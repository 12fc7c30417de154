package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tOgg1/leadboard/internal/models"
)

type observationsResponse struct {
	Envelope
	Interactions []models.Observation `json:"interactions"`
}

type observationResponse struct {
	Envelope
	Interaction models.Observation `json:"interaction"`
}

// Observations fetches a lead's interaction log, newest first, capped at
// limit records.
func (c *Client) Observations(ctx context.Context, leadID string, limit int) ([]models.Observation, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp observationsResponse
	path := fmt.Sprintf("/api/leads/%s/interactions", url.PathEscape(leadID))
	if err := c.do(ctx, http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch observations for lead %s: %w", leadID, err)
	}
	return resp.Interactions, nil
}

// CreateObservation appends an interaction log entry. The observation is
// validated locally before any request is sent.
func (c *Client) CreateObservation(ctx context.Context, obs models.Observation) (models.Observation, error) {
	if err := obs.Validate(); err != nil {
		return models.Observation{}, err
	}

	var resp observationResponse
	if err := c.do(ctx, http.MethodPost, "/api/interactions", nil, obs, &resp); err != nil {
		return models.Observation{}, fmt.Errorf("create observation: %w", err)
	}
	return resp.Interaction, nil
}

// DeleteObservation removes an interaction log entry.
func (c *Client) DeleteObservation(ctx context.Context, id string) error {
	path := "/api/interactions/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete observation %s: %w", id, err)
	}
	return nil
}

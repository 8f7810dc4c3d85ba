package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"batteryeis/backend/services/eis-producer/internal/models"
)

// FaultError is a typed fault returned by the ingest service.
type FaultError struct {
	Type       string `json:"fault"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// IngestClient calls the ingest-service session endpoints.
type IngestClient struct {
	base *BaseClient
}

// NewIngestClient builds client.
func NewIngestClient(baseURL string, doer HTTPDoer) *IngestClient {
	return &IngestClient{base: NewBaseClient(baseURL, doer)}
}

// StartSession registers a session.
func (c *IngestClient) StartSession(ctx context.Context, meta models.SessionMeta) error {
	return c.call(ctx, "/sessions/start", meta, http.StatusAccepted, nil)
}

// PushSample sends one row and returns the acknowledgement.
func (c *IngestClient) PushSample(ctx context.Context, sample models.Sample) (*models.IngestionResponse, error) {
	var resp models.IngestionResponse
	if err := c.call(ctx, "/sessions/push", sample, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EndSession closes a session.
func (c *IngestClient) EndSession(ctx context.Context, meta models.SessionMeta) error {
	return c.call(ctx, "/sessions/end", meta, http.StatusAccepted, nil)
}

func (c *IngestClient) call(ctx context.Context, path string, body interface{}, want int, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	status, respBody, err := c.base.Post(ctx, path, payload)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}

	if status != want {
		var fault FaultError
		if json.Unmarshal(respBody, &fault) == nil && fault.Type != "" {
			fault.StatusCode = status
			return &fault
		}
		return fmt.Errorf("ingest %s: unexpected status %d", path, status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("ingest %s: decode response: %w", path, err)
	}
	return nil
}

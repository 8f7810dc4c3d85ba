package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"batteryeis/backend/services/ingest-service/internal/models"
	"batteryeis/backend/services/ingest-service/internal/service"
)

// Reply is written back for every sample frame. Exactly one of Response and Fault is set.
type Reply struct {
	RowIndex int                       `json:"row_index"`
	Response *models.IngestionResponse `json:"response,omitempty"`
	Fault    *models.FaultBody         `json:"fault,omitempty"`
}

// Pusher is the part of the ingestion service used by streams.
type Pusher interface {
	PushSample(ctx context.Context, sample *models.Sample) (*models.IngestionResponse, error)
}

// SampleProcessor decodes sample frames and pushes them.
type SampleProcessor struct {
	pusher Pusher
}

// NewSampleProcessor builds processor.
func NewSampleProcessor(pusher Pusher) *SampleProcessor {
	return &SampleProcessor{pusher: pusher}
}

// Process pushes one frame. Frames without session_id inherit the stream's session.
// Typed faults become fault replies; other errors are returned and the frame is skipped.
func (p *SampleProcessor) Process(ctx context.Context, sessionID string, raw []byte) ([]byte, error) {
	var sample models.Sample
	if err := json.Unmarshal(raw, &sample); err != nil {
		return json.Marshal(Reply{
			RowIndex: -1,
			Fault:    &models.FaultBody{Fault: service.FaultDataFormat, Message: "invalid json"},
		})
	}
	if sample.SessionID == "" {
		sample.SessionID = sessionID
	}

	resp, err := p.pusher.PushSample(ctx, &sample)
	if err != nil {
		name, message, ok := service.AsFault(err)
		if !ok {
			return nil, fmt.Errorf("push row %d: %w", sample.RowIndex, err)
		}
		return json.Marshal(Reply{RowIndex: sample.RowIndex, Fault: &models.FaultBody{Fault: name, Message: message}})
	}
	return json.Marshal(Reply{RowIndex: sample.RowIndex, Response: resp})
}

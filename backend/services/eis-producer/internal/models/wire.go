// Package models mirrors the ingest-service wire format.
package models

import "time"

// SessionMeta is the body of start and end calls.
type SessionMeta struct {
	SessionID string `json:"session_id"`
	BatteryID string `json:"battery_id"`
	TestID    string `json:"test_id"`
	SoC       int    `json:"soc"`
}

// Sample is the body of a push call.
type Sample struct {
	SessionID   string    `json:"session_id"`
	RowIndex    int       `json:"row_index"`
	FrequencyHz float64   `json:"frequency_hz"`
	ROhm        float64   `json:"r_ohm"`
	XOhm        float64   `json:"x_ohm"`
	TDegC       float64   `json:"t_degc"`
	RangeOhm    float64   `json:"range_ohm"`
	Timestamp   time.Time `json:"timestamp"`
}

// IngestionResponse is returned for every push that did not fault.
type IngestionResponse struct {
	Status           string  `json:"status"`
	SessionStatus    string  `json:"session_status"`
	WarningMessage   string  `json:"warning_message,omitempty"`
	TemperatureSpike bool    `json:"temperature_spike"`
	DeltaT           float64 `json:"delta_t"`
	SpikeDirection   string  `json:"spike_direction,omitempty"`
	CurrentT         float64 `json:"current_t"`
	FrequencyHz      float64 `json:"frequency_hz"`
	StateOfCharge    int     `json:"state_of_charge"`
}

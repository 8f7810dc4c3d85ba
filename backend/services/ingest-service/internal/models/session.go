package models

import "time"

// SessionMeta identifies one battery/test/state-of-charge ingestion run.
type SessionMeta struct {
	SessionID string `json:"session_id"`
	BatteryID string `json:"battery_id"`
	TestID    string `json:"test_id"`
	SoC       int    `json:"soc"`
}

// Sample is a single EIS measurement row.
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

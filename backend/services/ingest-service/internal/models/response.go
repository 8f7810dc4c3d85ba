package models

// Acknowledgement values.
const (
	StatusACK  = "ACK"
	StatusNACK = "NACK"
)

// Session status reported with every response.
const (
	SessionStatusActive = "active"
)

// Spike directions.
const (
	SpikeRise = "rise"
	SpikeFall = "fall"
)

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

// FaultBody carries a typed fault to remote callers.
type FaultBody struct {
	Fault   string `json:"fault"`
	Message string `json:"message"`
}

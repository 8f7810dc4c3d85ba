package service

import (
	"errors"
	"fmt"
)

// Fault names used on the wire.
const (
	FaultDataFormat = "DataFormatFault"
	FaultValidation = "ValidationFault"
)

// DataFormatFault reports a malformed or unknown request identity.
// Callers should not retry without correcting the request.
type DataFormatFault struct {
	Message string
	Err     error
}

func (f *DataFormatFault) Error() string {
	return fmt.Sprintf("data format fault: %s", f.Message)
}

func (f *DataFormatFault) Unwrap() error {
	return f.Err
}

// ValidationFault reports a sample that breaks row ordering or frequency rules.
// The session stays usable for the next row.
type ValidationFault struct {
	Message string
}

func (f *ValidationFault) Error() string {
	return fmt.Sprintf("validation fault: %s", f.Message)
}

// AsFault extracts the wire name and message of a typed fault.
func AsFault(err error) (name, message string, ok bool) {
	var df *DataFormatFault
	if errors.As(err, &df) {
		return FaultDataFormat, df.Message, true
	}
	var vf *ValidationFault
	if errors.As(err, &vf) {
		return FaultValidation, vf.Message, true
	}
	return "", "", false
}

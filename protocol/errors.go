package protocol

import (
	"errors"
	"fmt"
)

// ProtocolError represents an error status returned by the monitor.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// StatusCode is the error code from the monitor
	StatusCode byte
}

func (e *ProtocolError) Error() string {
	statusName := StatusName(e.StatusCode)
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, statusName, e.StatusCode)
}

// IsProtocolError returns true if err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// StatusName returns a human-readable name for a status code.
func StatusName(code byte) string {
	switch code {
	case StatusSuccess:
		return "success"
	case ErrLength:
		return "invalid length"
	case ErrData:
		return "invalid data"
	case ErrCommand:
		return "unrecognized command"
	case ErrChecksum:
		return "checksum mismatch"
	case ErrAddress:
		return "invalid address"
	case ErrBus:
		return "bus error"
	case ErrUnknown:
		return "unknown error"
	default:
		return fmt.Sprintf("unknown status code 0x%02X", code)
	}
}

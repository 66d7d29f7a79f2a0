package mavsdk

import (
	"errors"
	"fmt"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
)

// Result is the outcome code of an SDK request.
type Result int

const (
	ResultUnknown Result = iota
	ResultSuccess
	ResultNoSystem
	ResultConnectionError
	ResultConnectionURLInvalid
	ResultBusy
	ResultCommandDenied
	ResultTemporarilyRejected
	ResultTimeout
	ResultUnsupported
	ResultFailed
	ResultCancelled
	ResultInvalidArgument
	ResultNoSetpointSet
	ResultNoMissionAvailable
	ResultTooManyMissionItems
	ResultTransferCancelled
	ResultProtocolError
)

var resultNames = map[Result]string{
	ResultUnknown:              "Unknown",
	ResultSuccess:              "Success",
	ResultNoSystem:             "No System",
	ResultConnectionError:      "Connection Error",
	ResultConnectionURLInvalid: "Connection URL Invalid",
	ResultBusy:                 "Busy",
	ResultCommandDenied:        "Command Denied",
	ResultTemporarilyRejected:  "Temporarily Rejected",
	ResultTimeout:              "Timeout",
	ResultUnsupported:          "Unsupported",
	ResultFailed:               "Failed",
	ResultCancelled:            "Cancelled",
	ResultInvalidArgument:      "Invalid Argument",
	ResultNoSetpointSet:        "No Setpoint Set",
	ResultNoMissionAvailable:   "No Mission Available",
	ResultTooManyMissionItems:  "Too Many Mission Items",
	ResultTransferCancelled:    "Transfer Cancelled",
	ResultProtocolError:        "Protocol Error",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Error is returned by every SDK request that did not succeed.
type Error struct {
	Op     string // request that failed, e.g. "arm"
	Result Result
	Err    error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Result, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Result)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, result Result) error {
	return &Error{Op: op, Result: result}
}

// ResultOf extracts the result code carried by err. A nil error is
// ResultSuccess; an error that is not an *Error is ResultUnknown.
func ResultOf(err error) Result {
	if err == nil {
		return ResultSuccess
	}
	var mavErr *Error
	if errors.As(err, &mavErr) {
		return mavErr.Result
	}
	return ResultUnknown
}

func resultFromCommandAck(r common.MAV_RESULT) Result {
	switch r {
	case common.MAV_RESULT_ACCEPTED:
		return ResultSuccess
	case common.MAV_RESULT_TEMPORARILY_REJECTED:
		return ResultTemporarilyRejected
	case common.MAV_RESULT_DENIED:
		return ResultCommandDenied
	case common.MAV_RESULT_UNSUPPORTED:
		return ResultUnsupported
	case common.MAV_RESULT_CANCELLED:
		return ResultCancelled
	case common.MAV_RESULT_FAILED:
		return ResultFailed
	default:
		return ResultUnknown
	}
}

func resultFromMissionAck(r common.MAV_MISSION_RESULT) Result {
	switch r {
	case common.MAV_MISSION_ACCEPTED:
		return ResultSuccess
	case common.MAV_MISSION_NO_SPACE:
		return ResultTooManyMissionItems
	case common.MAV_MISSION_DENIED:
		return ResultCommandDenied
	case common.MAV_MISSION_UNSUPPORTED, common.MAV_MISSION_UNSUPPORTED_FRAME:
		return ResultUnsupported
	case common.MAV_MISSION_INVALID_SEQUENCE:
		return ResultProtocolError
	case common.MAV_MISSION_OPERATION_CANCELLED:
		return ResultTransferCancelled
	default:
		return ResultFailed
	}
}

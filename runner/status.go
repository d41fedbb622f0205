package runner

import (
	"fmt"
	"strings"
)

// Status defines the outcome of a single compiler invocation
type Status int

// Defines compiler invocation outcomes
const (
	// not initialized status (as error)
	StatusInvalid Status = iota

	// exit normally
	StatusSucceeded

	// exit with error
	StatusNonzeroExitStatus   // NZS
	StatusSignalled           // SIG
	StatusTimeLimitExceeded   // TLE
	StatusOutputLimitExceeded // OLE
	StatusFileError           // FE

	// internal error including: compiler not found, spawn failed, etc
	StatusInternalError
)

var statusToString = []string{
	"Invalid",
	"Succeeded",
	"Nonzero Exit Status",
	"Signalled",
	"Time Limit Exceeded",
	"Output Limit Exceeded",
	"File Error",
	"Internal Error",
}

// stringToStatus map string to corresponding Status
var stringToStatus = make(map[string]Status)

func (s Status) String() string {
	si := int(s)
	if si < 0 || si >= len(statusToString) {
		return statusToString[0] // invalid
	}
	return statusToString[si]
}

// StringToStatus convert string to Status
func StringToStatus(s string) (Status, error) {
	v, ok := stringToStatus[s]
	if !ok {
		return 0, fmt.Errorf("invalid string converting: %s", s)
	}
	return v, nil
}

// MarshalJSON encodes status into the string representation
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte("\"" + s.String() + "\""), nil
}

// UnmarshalJSON decodes status from the string representation
func (s *Status) UnmarshalJSON(b []byte) error {
	str := strings.Trim(string(b), "\"")
	v, err := StringToStatus(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func init() {
	for i, v := range statusToString {
		stringToStatus[v] = Status(i)
	}
}

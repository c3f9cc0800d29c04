package queue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CaptureEvent is the payload published when a new aerial image lands in
// object storage.
type CaptureEvent struct {
	S3Key      string `json:"s3Key"`
	S3Location string `json:"s3Location"`
	Bucket     string `json:"bucket"`
	// Timestamp is the capture time in ISO-8601 "YYYY-MM-DDTHH:MM:SS" form,
	// optionally with a fractional part and a trailing "Z".
	Timestamp string `json:"timestamp"`
	Metadata  struct {
		Location struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		} `json:"location"`
	} `json:"metadata"`
}

// MalformedMessageError reports a message body that cannot be processed. The
// message should be rejected without crashing the consumer; dead-lettering of
// repeat offenders is the queue's job.
type MalformedMessageError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *MalformedMessageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed message: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed message: %s", e.Reason)
}

// Unwrap returns the underlying error, if any.
func (e *MalformedMessageError) Unwrap() error {
	return e.Err
}

// ParseCaptureEvent decodes and validates a raw message body. Every field the
// ingestion pipeline depends on must be present.
func ParseCaptureEvent(body []byte) (*CaptureEvent, error) {
	var ev CaptureEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, &MalformedMessageError{Reason: "invalid JSON", Err: err}
	}

	switch {
	case ev.S3Key == "":
		return nil, &MalformedMessageError{Reason: "missing s3Key"}
	case ev.S3Location == "":
		return nil, &MalformedMessageError{Reason: "missing s3Location"}
	case ev.Bucket == "":
		return nil, &MalformedMessageError{Reason: "missing bucket"}
	case ev.Timestamp == "":
		return nil, &MalformedMessageError{Reason: "missing timestamp"}
	case ev.Metadata.Location.Latitude == nil || ev.Metadata.Location.Longitude == nil:
		return nil, &MalformedMessageError{Reason: "missing metadata.location"}
	}

	if _, _, err := splitTimestamp(ev.Timestamp); err != nil {
		return nil, err
	}
	return &ev, nil
}

// FlightID derives the deterministic flight identifier from the capture date.
func (ev *CaptureEvent) FlightID() string {
	date, _, _ := splitTimestamp(ev.Timestamp)
	return "flight-" + date
}

// CaptureDate returns the "YYYY-MM-DD" part of the capture timestamp.
func (ev *CaptureEvent) CaptureDate() string {
	date, _, _ := splitTimestamp(ev.Timestamp)
	return date
}

// TimeOfDay returns the "HH:MM:SS" part of the capture timestamp, with any
// fractional seconds and zone suffix stripped.
func (ev *CaptureEvent) TimeOfDay() string {
	_, tod, _ := splitTimestamp(ev.Timestamp)
	return tod
}

// Latitude returns the validated capture latitude.
func (ev *CaptureEvent) Latitude() float64 {
	return *ev.Metadata.Location.Latitude
}

// Longitude returns the validated capture longitude.
func (ev *CaptureEvent) Longitude() float64 {
	return *ev.Metadata.Location.Longitude
}

func splitTimestamp(ts string) (date, timeOfDay string, err error) {
	parts := strings.SplitN(ts, "T", 2)
	if len(parts) != 2 {
		return "", "", &MalformedMessageError{Reason: "timestamp missing date/time separator"}
	}
	date = parts[0]
	timeOfDay = strings.TrimSuffix(parts[1], "Z")
	if dot := strings.IndexByte(timeOfDay, '.'); dot >= 0 {
		timeOfDay = timeOfDay[:dot]
	}
	if len(date) != len("2006-01-02") || len(timeOfDay) != len("15:04:05") {
		return "", "", &MalformedMessageError{Reason: "timestamp not ISO-8601"}
	}
	return date, timeOfDay, nil
}

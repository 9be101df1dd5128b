package model

import "encoding/json"

// PaymentPending is the payment_status value that offers the pay-to-watch flow.
const PaymentPending = "pending"

// AccessStatus is the viewer's access snapshot returned by the streaming status API.
type AccessStatus struct {
	AccessGranted bool   `json:"access_granted"`
	PaymentStatus string `json:"payment_status"`
	Message       string `json:"message"`
	StreamURL     string `json:"stream_url,omitempty"`
}

// UnmarshalJSON accepts both access_granted and the has_access field emitted
// by the camera streaming API. A null stream_url decodes as empty.
func (s *AccessStatus) UnmarshalJSON(data []byte) error {
	var raw struct {
		AccessGranted *bool   `json:"access_granted"`
		HasAccess     *bool   `json:"has_access"`
		PaymentStatus string  `json:"payment_status"`
		Message       string  `json:"message"`
		StreamURL     *string `json:"stream_url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = AccessStatus{
		PaymentStatus: raw.PaymentStatus,
		Message:       raw.Message,
	}
	switch {
	case raw.AccessGranted != nil:
		s.AccessGranted = *raw.AccessGranted
	case raw.HasAccess != nil:
		s.AccessGranted = *raw.HasAccess
	}
	if raw.StreamURL != nil {
		s.StreamURL = *raw.StreamURL
	}
	return nil
}

// PaymentSession is the response of the payment-session endpoint.
type PaymentSession struct {
	InitPoint string `json:"init_point"`
	Error     string `json:"error,omitempty"`
}

// LiveStatus is the legacy "is live" response.
type LiveStatus struct {
	Live  bool   `json:"live"`
	Error string `json:"error,omitempty"`
}

// StateKind names which branch of the status mapping produced a ButtonState.
type StateKind string

const (
	StateGranted     StateKind = "granted"
	StatePending     StateKind = "pending"
	StateUnavailable StateKind = "unavailable"
	StateError       StateKind = "error"
	StateLive        StateKind = "live"
	StateNotStarted  StateKind = "not-started"
)

// ButtonState is what one button/message pair displays. Both pairs on the
// page always render the same value.
type ButtonState struct {
	Kind    StateKind
	Enabled bool
	Label   string
	Message string
}

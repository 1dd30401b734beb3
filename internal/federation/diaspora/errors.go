package diaspora

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is returned when a handle is neither user@host nor a profile URL
	ErrInvalidAddress = errors.New("invalid diaspora address")

	// ErrNotFound is returned when the pod does not know the person
	ErrNotFound = errors.New("diaspora person not found")

	// ErrCircuitOpen is returned when a pod has failed too often recently
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrUnsupportedNetwork is returned when asked to probe for another protocol
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrInvalidKey is returned when the published public key does not parse
	ErrInvalidKey = errors.New("invalid public key")
)

// Probe stages, used in ProbeError
const (
	StageWebfinger = "webfinger"
	StageHCard     = "hcard"
	StageKey       = "key"
)

// ProbeError describes a failed probe step against a pod
type ProbeError struct {
	Err   error
	Host  string
	Stage string
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("diaspora probe of %s failed at %s: %v", e.Host, e.Stage, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// statusError is a non-success HTTP status from a pod
type statusError struct {
	Body   string
	Status int
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code %d", e.Status)
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.Status, e.Body)
}

package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the external boundaries. Adapters wrap them so
// callers can branch with errors.Is.
var (
	// ErrFetch is a transport or non-2xx failure from the feed or enrichment source.
	ErrFetch = errors.New("fetch failure")
	// ErrParse is a malformed or unexpected response body.
	ErrParse = errors.New("parse failure")
	// ErrModelEndpoint means the language-model endpoint could not be reached
	// or answered with a non-2xx status.
	ErrModelEndpoint = errors.New("model endpoint failure")
	// ErrModelResponse means the model answered but its payload was unusable.
	ErrModelResponse = errors.New("model response failure")
	// ErrModelNoPayload is the ErrModelResponse case where the envelope had no payload.
	ErrModelNoPayload = fmt.Errorf("%w: empty or missing response payload", ErrModelResponse)
)

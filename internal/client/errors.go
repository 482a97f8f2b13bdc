package client

import "fmt"

// ResponseError is returned when the backend answered with a status >= 400.
// Message holds the server-provided message, if any.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// NoResponseError is returned when the request was sent but no response
// arrived: connection refused, timeout, cancellation.
type NoResponseError struct {
	Err error
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("no response from server: %v", e.Err)
}

func (e *NoResponseError) Unwrap() error { return e.Err }

// RequestError is returned when the request could not be built.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// ShapeError is returned when a response is valid JSON but not the expected
// sequence or record structure.
type ShapeError struct {
	Resource string // e.g. "bids", "traffic data"
	Want     string // "array" or "object"
	Got      string
	Err      error
}

func (e *ShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s data format: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("invalid %s data format: expected %s, got %s", e.Resource, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error { return e.Err }

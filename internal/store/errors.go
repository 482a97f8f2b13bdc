package store

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/bidwise/bidwise/internal/client"
)

// ErrNoProjects is returned by LoadInitial when the backend lists no projects.
var ErrNoProjects = errors.New("no projects found")

// ErrUnnamedProject is returned by LoadInitial when the first project has no name.
var ErrUnnamedProject = errors.New("first project does not have a valid name")

// ValidationError reports form input rejected before any request is made.
type ValidationError struct {
	Field   string
	Problem string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Problem
}

// User-facing messages.
const (
	MsgNoResponse = "No response received from the server."
	MsgUnknown    = "An unknown error occurred."
)

// Per-operation fallbacks used when the server gives no message.
const (
	fallbackInitial  = "Failed to fetch data from the server."
	fallbackProjects = "Failed to fetch projects."
	fallbackBids     = "Failed to fetch bids."
	fallbackTraffic  = "Failed to fetch traffic data."
	fallbackProgress = "Failed to fetch project progress."
	fallbackCreate   = "Failed to create project."
	fallbackStatus   = "Failed to update project status."
)

// Describe converts err into the single message shown to the user. fallback
// is used for error responses that carry no server message.
func Describe(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var (
		respErr  *client.ResponseError
		noResp   *client.NoResponseError
		reqErr   *client.RequestError
		shapeErr *client.ShapeError
		valErr   *ValidationError
	)
	switch {
	case errors.As(err, &respErr):
		if respErr.Message != "" {
			return respErr.Message
		}
		return fallback
	case errors.As(err, &noResp):
		return MsgNoResponse
	case errors.As(err, &reqErr):
		return reqErr.Err.Error()
	case errors.Is(err, ErrNoProjects), errors.Is(err, ErrUnnamedProject):
		return sentence(err.Error())
	case errors.As(err, &shapeErr):
		return fmt.Sprintf("Invalid %s data format.", shapeErr.Resource)
	case errors.As(err, &valErr):
		return sentence(valErr.Error())
	default:
		return MsgUnknown
	}
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	out := string(r)
	if !strings.HasSuffix(out, ".") {
		out += "."
	}
	return out
}

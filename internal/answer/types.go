package answer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Request is the body of POST /chat
type Request struct {
	Question string `json:"question"`
}

// Response is a successful /chat reply. Answer is nil when the service sent
// null or omitted it. Sources is kept raw because the service sends either
// a list (of records or bare strings) or newline-delimited text.
type Response struct {
	Answer  *string         `json:"answer"`
	Sources json.RawMessage `json:"sources,omitempty"`
}

// VersionInfo is returned by GET /api/version
type VersionInfo struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// ErrMalformedResponse is wrapped when a success response is not valid JSON
var ErrMalformedResponse = errors.New("malformed response")

// StatusError reports a non-success HTTP status from the service.
type StatusError struct {
	Code int
	// Body is the response body reduced to plain text, possibly empty.
	Body string
}

func (e *StatusError) Error() string {
	detail := e.Body
	if detail == "" {
		detail = http.StatusText(e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, detail)
}

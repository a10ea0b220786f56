package message

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Status codes a ledger node answers with.
const (
	StatusOK                  = http.StatusOK
	StatusBadRequest          = http.StatusBadRequest
	StatusPaymentRequired     = http.StatusPaymentRequired
	StatusNotFound            = http.StatusNotFound
	StatusInternalServerError = http.StatusInternalServerError
)

// StatusText returns a short description of a node status code.
func StatusText(code int) string {
	if s := http.StatusText(code); s != "" {
		return s
	}
	return "Unknown Status"
}

// Response is a node's answer. Message and Output are empty when absent.
// Output only appears on a successful OutputQuery and holds base64 ciphertext.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Output  string `json:"output,omitempty"`
}

// OK reports whether the node accepted the request.
func (r *Response) OK() bool {
	return r != nil && r.Status == StatusOK
}

// DecodeResponse parses a response body. Fields other than status, message and output
// are ignored.
func DecodeResponse(data []byte) (*Response, error) {
	var fields map[string]json.RawMessage
	if err := jsonCodec.Decode(data, &fields); err != nil {
		return nil, &MalformedResponseError{Reason: "not a JSON object", Err: err}
	}
	if fields == nil {
		return nil, &MalformedResponseError{Reason: "not a JSON object"}
	}

	raw, ok := fields["status"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, &MalformedResponseError{Reason: "missing status"}
	}
	var status int
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, &MalformedResponseError{Reason: "status is not an integer", Err: err}
	}

	resp := &Response{}
	if err := jsonCodec.Decode(data, resp); err != nil {
		return nil, &MalformedResponseError{Reason: "unexpected field type", Err: err}
	}
	resp.Status = status
	return resp, nil
}

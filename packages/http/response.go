package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"
)

type Response struct {
	StatusCode int
	Status     string // status text without the code, e.g. "Not Found"
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

// Snapshot is the structured view of a response that assertions query:
// $.status, $.statusText, $.headers.<lower-case name>, $.content.
type Snapshot struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Content    any               `json:"content"`
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// Data decodes the body as JSON when it is valid JSON and falls back to the
// raw text otherwise. Numbers decode as json.Number so ids keep their digits.
func (r *Response) Data() any {
	trimmed := bytes.TrimSpace(r.Body)
	if len(trimmed) == 0 {
		return r.BodyString()
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var result any
	if err := dec.Decode(&result); err != nil {
		return r.BodyString()
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return r.BodyString()
	}
	return result
}

func (r *Response) Snapshot() *Snapshot {
	return &Snapshot{
		Status:     r.StatusCode,
		StatusText: r.Status,
		Headers:    r.Headers,
		Content:    r.Data(),
	}
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

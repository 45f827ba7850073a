package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/abdul-hamid-achik/hitchain/packages/core/parser"
)

// Request is a fully specified HTTP call. Body is nil, a raw string, or a
// structured value that is sent as JSON.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body any) *Request {
	r.Body = body
	return r
}

// Header returns a header value, matching the name case-insensitively.
func (r *Request) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// SetBasicAuth sets the Authorization header, replacing any existing
// Authorization header regardless of its case.
func (r *Request) SetBasicAuth(username, password string) {
	for k := range r.Headers {
		if strings.EqualFold(k, "Authorization") {
			delete(r.Headers, k)
		}
	}
	creds := username + ":" + password
	r.Headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}

// Payload encodes the body. Strings are sent as they are; any other value is
// encoded as JSON and reported with an application/json content type.
func (r *Request) Payload() (io.Reader, string, error) {
	switch body := r.Body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return strings.NewReader(body), "", nil
	case []byte:
		return bytes.NewReader(body), "", nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("encoding request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// Compile turns a resolved request definition into a concrete call. It does
// no I/O.
func Compile(spec *parser.RequestSpec) *Request {
	method := strings.ToUpper(strings.TrimSpace(spec.Request.Method))
	if method == "" {
		method = "GET"
	}

	r := NewRequest(method, spec.Request.URL)

	for k, v := range spec.Request.Headers {
		r.SetHeader(k, v)
	}

	if spec.Auth != nil && spec.Auth.Basic != nil {
		r.SetBasicAuth(spec.Auth.Basic.Username, spec.Auth.Basic.Password)
	}

	r.URL = BuildURL(r.URL, spec.Request.QueryString)

	if pd := spec.Request.PostData; pd != nil {
		if pd.Params != nil {
			r.SetBody(pd.Params)
		} else if pd.Text != "" {
			r.SetBody(pd.Text)
		}
	}

	return r
}

// BuildURL adds every queryString entry as key=value to the URL's query.
// Lists become repeated keys.
func BuildURL(rawURL string, query map[string]any) string {
	if len(query) == 0 {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	for k, v := range query {
		switch vals := v.(type) {
		case []any:
			q.Del(k)
			for _, item := range vals {
				q.Add(k, queryValue(item))
			}
		default:
			q.Set(k, queryValue(v))
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func queryValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

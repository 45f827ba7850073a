package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitchain/packages/core/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "hello"}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Do(context.Background(), NewRequest("GET", server.URL+"/test"))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "application/json", resp.Headers["content-type"])
	assert.Equal(t, "application/json", resp.Header("Content-Type"))
	assert.Equal(t, map[string]any{"message": "hello"}, resp.Data())
}

func TestClient_PostStructuredBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name": "test"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Do(context.Background(), NewRequest("POST", server.URL).SetBody(map[string]any{"name": "test"}))

	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "Created", resp.Status)
	assert.Equal(t, map[string]any{"id": json.Number("123")}, resp.Data())
}

func TestClient_PostTextBodyKeepsContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "a,b", string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Do(context.Background(), NewRequest("POST", server.URL).SetHeader("Content-Type", "text/csv").SetBody("a,b"))

	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
	assert.Equal(t, "", resp.Data())
}

func TestClient_ClientErrorsAreResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`not here`))
	}))
	defer server.Close()

	resp, err := NewClient().Do(context.Background(), NewRequest("GET", server.URL))

	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "Not Found", resp.Status)
	assert.Equal(t, "not here", resp.Data())
}

func TestClient_ServerErrorIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	resp, err := NewClient().Do(context.Background(), NewRequest("GET", server.URL))

	assert.Nil(t, resp)
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 502, terr.StatusCode)
	require.NotNil(t, terr.Response)
	assert.Contains(t, err.Error(), "502 Bad Gateway")
}

func TestClient_ConnectionFailureIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient().Do(context.Background(), NewRequest("GET", url))

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Nil(t, terr.Response)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_WithTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithTimeout(50 * time.Millisecond))
	_, err := client.Do(context.Background(), NewRequest("GET", server.URL))

	assert.Error(t, err)
}

func TestClient_WithDefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "request-token", r.Header.Get("Authorization"))
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithDefaultHeaders(map[string]string{
		"Authorization": "default-token",
		"User-Agent":    "custom-agent",
	}))
	resp, err := client.Do(context.Background(), NewRequest("GET", server.URL).SetHeader("Authorization", "request-token"))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestClient_TLS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	t.Run("verifies certificates by default", func(t *testing.T) {
		client := NewClient()
		assert.True(t, client.ValidatesSSL())
		_, err := client.Do(context.Background(), NewRequest("GET", server.URL))
		var terr *TransportError
		assert.True(t, errors.As(err, &terr))
	})

	t.Run("insecure client accepts self-signed", func(t *testing.T) {
		client := NewClient(WithValidateSSL(false))
		assert.False(t, client.ValidatesSSL())
		resp, err := client.Do(context.Background(), NewRequest("GET", server.URL))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})
}

func TestClient_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithRateLimit(20))
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Do(context.Background(), NewRequest("GET", server.URL))
		require.NoError(t, err)
	}
	// burst of one: the second and third calls wait ~50ms each
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	client := NewClient(WithRateLimit(0.001))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// first token is available immediately; the second cannot arrive in time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	_, err := client.Do(ctx, NewRequest("GET", server.URL))
	require.NoError(t, err)
	_, err = client.Do(ctx, NewRequest("GET", server.URL))
	assert.Error(t, err)
}

func TestClient_FollowRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`final`))
			return
		}
		redirectCount++
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithFollowRedirects(true))
	resp, err := client.Do(context.Background(), NewRequest("GET", server.URL+"/redirect"))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "final", resp.BodyString())
	assert.Equal(t, 1, redirectCount)
}

func TestClient_NoFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithFollowRedirects(false))
	resp, err := client.Do(context.Background(), NewRequest("GET", server.URL+"/redirect"))

	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid http URL",
			url:     "http://example.com/path",
			wantErr: false,
		},
		{
			name:    "valid https URL",
			url:     "https://example.com/path",
			wantErr: false,
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing scheme",
			url:     "example.com/path",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			url:     "http:///path",
			wantErr: true,
			errMsg:  "URL must have a host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	t.Run("copies url, method and headers", func(t *testing.T) {
		req := Compile(&parser.RequestSpec{Request: parser.RequestDef{
			URL:     "http://api.test/users",
			Method:  "post",
			Headers: map[string]string{"X-Trace": "1"},
		}})
		assert.Equal(t, "POST", req.Method)
		assert.Equal(t, "http://api.test/users", req.URL)
		assert.Equal(t, "1", req.Headers["X-Trace"])
		assert.Nil(t, req.Body)
	})

	t.Run("method defaults to GET", func(t *testing.T) {
		req := Compile(&parser.RequestSpec{Request: parser.RequestDef{URL: "http://api.test"}})
		assert.Equal(t, "GET", req.Method)
	})

	t.Run("basic auth overrides authorization header", func(t *testing.T) {
		req := Compile(&parser.RequestSpec{
			Request: parser.RequestDef{
				URL:     "http://api.test",
				Method:  "GET",
				Headers: map[string]string{"authorization": "Bearer old"},
			},
			Auth: &parser.Auth{Basic: &parser.BasicAuth{Username: "user", Password: "pass"}},
		})
		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:pass"))
		assert.Equal(t, expected, req.Headers["Authorization"])
		assert.NotContains(t, req.Headers, "authorization")
		assert.Equal(t, expected, req.Header("AUTHORIZATION"))
	})

	t.Run("query string encodes key and value", func(t *testing.T) {
		req := Compile(&parser.RequestSpec{Request: parser.RequestDef{
			URL:         "http://api.test/search?lang=en",
			Method:      "GET",
			QueryString: map[string]any{"q": "go lang", "page": 2, "tag": []any{"a", "b"}},
		}})
		assert.Equal(t, "http://api.test/search?lang=en&page=2&q=go+lang&tag=a&tag=b", req.URL)
	})

	t.Run("params body", func(t *testing.T) {
		req := Compile(&parser.RequestSpec{Request: parser.RequestDef{
			URL:      "http://api.test",
			Method:   "POST",
			PostData: &parser.PostData{Params: map[string]any{"a": 1}},
		}})
		assert.Equal(t, map[string]any{"a": 1}, req.Body)
	})

	t.Run("text body", func(t *testing.T) {
		req := Compile(&parser.RequestSpec{Request: parser.RequestDef{
			URL:      "http://api.test",
			Method:   "POST",
			PostData: &parser.PostData{Text: "x"},
		}})
		assert.Equal(t, "x", req.Body)
	})

	t.Run("params win over text", func(t *testing.T) {
		req := Compile(&parser.RequestSpec{Request: parser.RequestDef{
			URL:      "http://api.test",
			Method:   "POST",
			PostData: &parser.PostData{Params: map[string]any{"a": 1}, Text: "x"},
		}})
		assert.Equal(t, map[string]any{"a": 1}, req.Body)
	})
}

func TestRequest_Payload(t *testing.T) {
	body, ct, err := (&Request{Body: map[string]any{"a": 1}}).Payload()
	require.NoError(t, err)
	assert.Equal(t, "application/json", ct)
	data, _ := io.ReadAll(body)
	assert.JSONEq(t, `{"a":1}`, string(data))

	body, ct, err = (&Request{Body: "raw"}).Payload()
	require.NoError(t, err)
	assert.Empty(t, ct)
	data, _ = io.ReadAll(body)
	assert.Equal(t, "raw", string(data))

	body, ct, err = (&Request{}).Payload()
	require.NoError(t, err)
	assert.Nil(t, body)
	assert.Empty(t, ct)

	_, _, err = (&Request{Body: map[string]any{"bad": make(chan int)}}).Payload()
	assert.Error(t, err)
}

func TestResponse_Snapshot(t *testing.T) {
	resp := &Response{
		StatusCode: 200,
		Status:     "OK",
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       []byte(`{"id": 9007199254740993}`),
	}
	snap := resp.Snapshot()
	assert.Equal(t, 200, snap.Status)
	assert.Equal(t, "OK", snap.StatusText)
	assert.Equal(t, map[string]any{"id": json.Number("9007199254740993")}, snap.Content)
}

func TestResponse_DataFallsBackToText(t *testing.T) {
	tests := []struct {
		body     string
		expected any
	}{
		{"plain text", "plain text"},
		{`{"a": 1} trailing`, `{"a": 1} trailing`},
		{`"quoted"`, "quoted"},
		{"", ""},
	}
	for _, tt := range tests {
		resp := &Response{Body: []byte(tt.body)}
		assert.Equal(t, tt.expected, resp.Data(), "body: %q", tt.body)
	}
}

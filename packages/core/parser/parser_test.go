package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse_Basic(t *testing.T) {
	input := `variables:
  baseUrl: https://api.example.com
allowInsecure: true
requests:
  register:
    request:
      url: <$ .baseUrl $>/register
      method: POST
    validate:
      - jsonpath: $.status
        expect: 201
  profile:
    delay: 250
    request:
      url: <$ .baseUrl $>/me
      method: GET
    validate:
      max_retries: 3
      checks:
        - jsonpath: $.content.id
          type: number
`

	file, err := Parse(input, "suite.yml")
	require.NoError(t, err)

	assert.Equal(t, "suite.yml", file.Path)
	assert.Equal(t, input, file.Raw)
	assert.True(t, file.AllowInsecure)
	assert.Equal(t, "https://api.example.com", file.Variables["baseUrl"])

	require.Len(t, file.Requests, 2)
	assert.Equal(t, "register", file.Requests[0].Name)
	assert.Equal(t, DefaultMaxRetries, file.Requests[0].MaxRetries)
	assert.Zero(t, file.Requests[0].Delay)

	assert.Equal(t, "profile", file.Requests[1].Name)
	assert.Equal(t, 3, file.Requests[1].MaxRetries)
	assert.Equal(t, 250*time.Millisecond, file.Requests[1].Delay)
}

func TestParse_KeepsDocumentOrder(t *testing.T) {
	input := `requests:
  zeta:
    request: {url: http://x, method: GET}
  alpha:
    request: {url: http://x, method: GET}
  mid:
    request: {url: http://x, method: GET}
`
	file, err := Parse(input, "order.yml")
	require.NoError(t, err)

	var names []string
	for _, p := range file.Requests {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestParse_TemplatedSettingsFallBackToDefaults(t *testing.T) {
	input := `requests:
  a:
    delay: <$ .wait $>
    request: {url: http://x, method: GET}
    validate:
      max_retries: <$ .retries $>
`
	file, err := Parse(input, "t.yml")
	require.NoError(t, err)
	require.Len(t, file.Requests, 1)
	assert.Equal(t, DefaultMaxRetries, file.Requests[0].MaxRetries)
	assert.Zero(t, file.Requests[0].Delay)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"empty", "", "empty document"},
		{"not a mapping", "- a\n- b\n", "document must be a mapping"},
		{"missing requests", "variables: {a: 1}\n", "missing requests"},
		{"requests not a mapping", "requests: [1, 2]\n", "requests must be a mapping"},
		{"invalid yaml", "requests: {a: [}\n", "yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, "bad.yml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)

			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestRequestSpec_Decode(t *testing.T) {
	input := `request:
  url: http://example.com
  method: post
  headers:
    X-Count: 3
  queryString:
    page: 2
  postData:
    params:
      a: 1
    text: ignored
auth:
  basic:
    username: user
    password: pass
validate:
  - jsonpath: $.status
    expect: 200
  - jsonpath: $.content.flag
    expect: false
  - jsonpath: $.content.id
    type: number
log: "true"
if:
  operand: 1
  equals: "1"
delay: 10
`
	var spec RequestSpec
	require.NoError(t, yaml.Unmarshal([]byte(input), &spec))

	assert.Equal(t, "http://example.com", spec.Request.URL)
	assert.Equal(t, "post", spec.Request.Method)
	assert.Equal(t, "3", spec.Request.Headers["X-Count"])
	assert.Equal(t, 2, spec.Request.QueryString["page"])
	require.NotNil(t, spec.Request.PostData)
	assert.Equal(t, map[string]any{"a": 1}, spec.Request.PostData.Params)
	assert.Equal(t, "ignored", spec.Request.PostData.Text)
	require.NotNil(t, spec.Auth)
	assert.Equal(t, "user", spec.Auth.Basic.Username)
	assert.True(t, bool(spec.Log))
	assert.Equal(t, 10, spec.Delay)
	assert.True(t, spec.If.Holds())

	require.Len(t, spec.Validate.Assertions, 3)
	assert.True(t, spec.Validate.Assertions[0].HasExpect)
	assert.Equal(t, 200, spec.Validate.Assertions[0].Expect)

	// expect: false is still an expectation
	assert.True(t, spec.Validate.Assertions[1].HasExpect)
	assert.Equal(t, false, spec.Validate.Assertions[1].Expect)

	assert.False(t, spec.Validate.Assertions[2].HasExpect)
	assert.Equal(t, "number", spec.Validate.Assertions[2].Type)
}

func TestCondition_Holds(t *testing.T) {
	var nilCond *Condition
	assert.True(t, nilCond.Holds())
	assert.True(t, (&Condition{Operand: "a", Equals: "a"}).Holds())
	assert.False(t, (&Condition{Operand: "a", Equals: "b"}).Holds())
	assert.True(t, (&Condition{Operand: true, Equals: "true"}).Holds())
}

func TestValidateSchema(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		file, err := Parse(`requests:
  a:
    request: {url: http://x, method: GET}
    validate:
      - jsonpath: $.status
        expect: 200
`, "ok.yml")
		require.NoError(t, err)
		assert.NoError(t, ValidateSchema(file))
	})

	t.Run("missing method", func(t *testing.T) {
		file, err := Parse(`requests:
  a:
    request: {url: http://x}
`, "bad.yml")
		require.NoError(t, err)
		err = ValidateSchema(file)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "method")
	})

	t.Run("assertion without jsonpath", func(t *testing.T) {
		file, err := Parse(`requests:
  a:
    request: {url: http://x, method: GET}
    validate:
      - expect: 200
`, "bad.yml")
		require.NoError(t, err)
		err = ValidateSchema(file)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jsonpath")
	})
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yml", "a.yaml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("requests: {}\n"), 0644))
	}

	files, err := CollectFiles([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}, files)

	_, err = CollectFiles([]string{filepath.Join(dir, "missing.yml")})
	assert.Error(t, err)
}

func TestLoadSuite(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "1.yml")
	second := filepath.Join(dir, "2.yml")
	require.NoError(t, os.WriteFile(first, []byte("variables: {a: 1}\nrequests: {}\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("requests: {}\n"), 0644))

	suite, err := LoadSuite([]string{second, first})
	require.NoError(t, err)
	require.Len(t, suite.Files, 2)
	assert.Equal(t, second, suite.Files[0].Path)
	assert.Equal(t, first, suite.Files[1].Path)
}

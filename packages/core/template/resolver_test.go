package template

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/hitchain/packages/core/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainedFile = `requests:
  register:
    request:
      url: <$ .baseUrl $>/register
      method: POST
  profile:
    request:
      url: <$ .baseUrl $>/users/<$ .register.id $>
      method: GET
      headers:
        Authorization: Bearer <$ JsonPath "$.register.token" $>
`

func TestResolver_ChainsResponsesAndVariables(t *testing.T) {
	st := state.NewStore()
	st.MergeVariables(map[string]any{"baseUrl": "http://api.test"})
	st.SetResponse("register", map[string]any{"id": 123, "token": "abc"})

	r := NewResolver()
	spec, err := r.Resolve(chainedFile, "profile", st)
	require.NoError(t, err)

	assert.Equal(t, "http://api.test/users/123", spec.Request.URL)
	assert.Equal(t, "GET", spec.Request.Method)
	assert.Equal(t, "Bearer abc", spec.Request.Headers["Authorization"])
}

func TestResolver_VariablesShadowResponses(t *testing.T) {
	st := state.NewStore()
	st.SetResponse("host", "from-response")
	st.MergeVariables(map[string]any{"host": "from-variable"})

	r := NewResolver()
	out, err := r.Render(`<$ .host $>`, st)
	require.NoError(t, err)
	assert.Equal(t, "from-variable", out)
}

func TestResolver_UndefinedVariable(t *testing.T) {
	st := state.NewStore()
	r := NewResolver()

	_, err := r.Resolve(chainedFile, "register", st)
	require.Error(t, err)

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, StageRender, terr.Stage)
	assert.Equal(t, "register", terr.Request)
}

func TestResolver_IgnoresLaterRequests(t *testing.T) {
	st := state.NewStore()
	st.MergeVariables(map[string]any{"baseUrl": "http://api.test"})

	r := NewResolver()
	spec, err := r.Resolve(chainedFile, "register", st)
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/register", spec.Request.URL)
	assert.Equal(t, "POST", spec.Request.Method)

	_, err = r.Resolve(chainedFile, "profile", st)
	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, StageRender, terr.Stage)
	assert.Contains(t, err.Error(), "register")
}

func TestResolver_IgnoresEarlierRequests(t *testing.T) {
	const file = `variables:
  baseUrl: http://api.test
requests:
  first:
    request:
      url: <$ .missing $>
      method: GET
  second:
    request:
      url: <$ .baseUrl $>/second
      method: GET
allowInsecure: true
`
	st := state.NewStore()
	st.MergeVariables(map[string]any{"baseUrl": "http://api.test"})

	spec, err := NewResolver().Resolve(file, "second", st)
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/second", spec.Request.URL)
}

func TestRequestSource(t *testing.T) {
	t.Run("cuts the named request", func(t *testing.T) {
		src, ok := requestSource(chainedFile, "register")
		require.True(t, ok)
		assert.Contains(t, src, "/register")
		assert.NotContains(t, src, "profile")
	})

	t.Run("last request stops at next top level key", func(t *testing.T) {
		src, ok := requestSource("requests:\n  a:\n    x: 1\nvariables:\n  v: 2\n", "a")
		require.True(t, ok)
		assert.Equal(t, "requests:\n  a:\n    x: 1\n", src)
	})

	t.Run("flow style is not cut", func(t *testing.T) {
		_, ok := requestSource("requests: {a: {x: 1}}\n", "a")
		assert.False(t, ok)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, ok := requestSource(chainedFile, "nope")
		assert.False(t, ok)
	})
}

func TestResolver_MalformedTemplate(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve("requests:\n  a: <$ if $>\n", "a", state.NewStore())

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, StageRender, terr.Stage)
}

func TestResolver_MissingRequest(t *testing.T) {
	st := state.NewStore()
	st.MergeVariables(map[string]any{"baseUrl": "http://api.test"})
	st.SetResponse("register", map[string]any{"id": 1, "token": "t"})

	r := NewResolver()
	_, err := r.Resolve(chainedFile, "nope", st)

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, StageLookup, terr.Stage)
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestResolver_RenderedDocumentNotYAML(t *testing.T) {
	st := state.NewStore()
	st.MergeVariables(map[string]any{"v": "[unclosed"})

	r := NewResolver()
	_, err := r.Resolve("requests:\n  a: <$ .v $>\n", "a", st)

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, StageParse, terr.Stage)
}

func TestResolver_Env(t *testing.T) {
	var warnings []string
	r := NewResolver(
		WithLookupEnv(func(name string) (string, bool) {
			if name == "API_KEY" {
				return "secret", true
			}
			return "", false
		}),
		WithWarnFunc(func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		}),
	)

	out, err := r.Render(`<$ Env "API_KEY" $>|<$ Env "MISSING" $>`, state.NewStore())
	require.NoError(t, err)
	assert.Equal(t, "secret|", out)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "MISSING")
}

func TestResolver_Faker(t *testing.T) {
	r := NewResolver()
	out, err := r.Render(`<$ Faker "internet.email" $>`, state.NewStore())
	require.NoError(t, err)
	assert.Contains(t, out, "@")

	_, err = r.Render(`<$ Faker "does.notexist" $>`, state.NewStore())
	assert.Error(t, err)
}

func TestResolver_JsonPath(t *testing.T) {
	st := state.NewStore()
	st.SetResponse("list", map[string]any{"items": []any{map[string]any{"id": 1234567}}})

	r := NewResolver()

	t.Run("large numbers print without exponent", func(t *testing.T) {
		out, err := r.Render(`<$ JsonPath "$.list.items[0].id" $>`, st)
		require.NoError(t, err)
		assert.Equal(t, "1234567", out)
	})

	t.Run("no match renders empty", func(t *testing.T) {
		out, err := r.Render(`[<$ JsonPath "$.list.missing" $>]`, st)
		require.NoError(t, err)
		assert.Equal(t, "[]", out)
	})

	t.Run("objects and arrays render as JSON", func(t *testing.T) {
		out, err := r.Render(`<$ JsonPath "$.list.items" $>|<$ JsonPath "$.list.items[0]" $>`, st)
		require.NoError(t, err)
		assert.Equal(t, `[{"id":1234567}]|{"id":1234567}`, out)
	})

	t.Run("reads only responses", func(t *testing.T) {
		st.MergeVariables(map[string]any{"onlyVar": "x"})
		out, err := r.Render(`[<$ JsonPath "$.onlyVar" $>]`, st)
		require.NoError(t, err)
		assert.Equal(t, "[]", out)
	})
}

func TestResolver_ToJSON(t *testing.T) {
	st := state.NewStore()
	st.SetResponse("user", map[string]any{"name": "ana"})

	const file = `requests:
  echo:
    request:
      url: http://api.test
      method: POST
      postData:
        params: <$ ToJSON .user $>
`
	r := NewResolver()
	spec, err := r.Resolve(file, "echo", st)
	require.NoError(t, err)
	require.NotNil(t, spec.Request.PostData)
	assert.Equal(t, map[string]any{"name": "ana"}, spec.Request.PostData.Params)
}

func TestError_Message(t *testing.T) {
	err := &Error{Request: "a", Stage: StageParse, Err: errors.New("boom")}
	assert.True(t, strings.HasPrefix(err.Error(), "template parse failed"))
	assert.Equal(t, "boom", errors.Unwrap(err).Error())
}

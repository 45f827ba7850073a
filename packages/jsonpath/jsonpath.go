package jsonpath

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	indexPattern  = regexp.MustCompile(`\[(\d+|\*)\]`)
	quotedPattern = regexp.MustCompile(`\[['"]([^'"]*)['"]\]`)
)

// ToGJSON converts a JSONPath expression such as "$.items[0].name" or
// "$['content-type']" into gjson dot notation ("items.0.name").
// The root "$" alone converts to the empty path.
func ToGJSON(path string) (string, error) {
	path = strings.TrimSpace(path)
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("recursive descent is not supported: %s", path)
	}

	path = strings.TrimPrefix(path, "$")

	path = quotedPattern.ReplaceAllStringFunc(path, func(m string) string {
		key := quotedPattern.FindStringSubmatch(m)[1]
		return "." + escapeKey(key)
	})

	path = indexPattern.ReplaceAllStringFunc(path, func(m string) string {
		idx := m[1 : len(m)-1]
		if idx == "*" {
			return ".#"
		}
		return "." + idx
	})

	path = strings.TrimPrefix(path, ".")
	path = strings.ReplaceAll(path, ".*", ".#")
	if path == "*" {
		path = "#"
	}
	return path, nil
}

func escapeKey(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "#", `\#`, "|", `\|`)
	return r.Replace(key)
}

// Query evaluates path against doc and returns the first matching value.
// doc may be any value that encodes to JSON. ok is false when nothing matched.
func Query(doc any, path string) (any, bool, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("encoding document: %w", err)
	}
	return QueryBytes(data, path)
}

// QueryBytes is Query over an already encoded JSON document.
func QueryBytes(data []byte, path string) (any, bool, error) {
	gpath, err := ToGJSON(path)
	if err != nil {
		return nil, false, err
	}

	if gpath == "" {
		result := gjson.ParseBytes(data)
		if !result.Exists() {
			return nil, false, nil
		}
		return result.Value(), true, nil
	}

	result := gjson.GetBytes(data, gpath)
	if !result.Exists() {
		return nil, false, nil
	}

	// Wildcards yield an array of matches; only the first one is wanted.
	if strings.Contains(gpath, "#") && result.IsArray() {
		matches := result.Array()
		if len(matches) == 0 {
			return nil, false, nil
		}
		return matches[0].Value(), true, nil
	}
	return result.Value(), true, nil
}

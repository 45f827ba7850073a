package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

func ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(content), path)
}

// Parse reads the unrendered document. Only the parts that are needed before
// rendering are interpreted: variables, allowInsecure and, per request, its
// name, retry budget and delay. Requests keep document order.
func Parse(input, filename string) (*File, error) {
	file := &File{
		Path:      filename,
		Raw:       input,
		Variables: make(map[string]any),
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(input), &doc); err != nil {
		return nil, &ParseError{File: filename, Message: err.Error()}
	}
	if len(doc.Content) == 0 {
		return nil, &ParseError{File: filename, Line: 1, Message: "empty document"}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{File: filename, Line: root.Line, Message: "document must be a mapping"}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "variables":
			if err := value.Decode(&file.Variables); err != nil {
				return nil, &ParseError{File: filename, Line: value.Line, Message: "variables: " + err.Error()}
			}
		case "allowInsecure":
			var insecure Flag
			if err := value.Decode(&insecure); err != nil {
				return nil, &ParseError{File: filename, Line: value.Line, Message: "allowInsecure: " + err.Error()}
			}
			file.AllowInsecure = bool(insecure)
		case "requests":
			plans, err := parsePlans(value)
			if err != nil {
				return nil, &ParseError{File: filename, Line: value.Line, Message: err.Error()}
			}
			file.Requests = plans
		}
	}

	if file.Requests == nil {
		return nil, &ParseError{File: filename, Line: root.Line, Message: "missing requests"}
	}

	return file, nil
}

func parsePlans(node *yaml.Node) ([]*Plan, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("requests must be a mapping of name to request")
	}

	plans := make([]*Plan, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, body := node.Content[i], node.Content[i+1]
		plan := &Plan{
			Name:       name.Value,
			MaxRetries: DefaultMaxRetries,
			Line:       name.Line,
		}
		if body.Kind == yaml.MappingNode {
			readPlanSettings(plan, body)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// readPlanSettings picks delay and validate.max_retries out of a raw request.
// Values that are still templates are left at their defaults.
func readPlanSettings(plan *Plan, body *yaml.Node) {
	for i := 0; i+1 < len(body.Content); i += 2 {
		key, value := body.Content[i], body.Content[i+1]
		switch key.Value {
		case "delay":
			if ms, err := strconv.Atoi(value.Value); err == nil && ms > 0 {
				plan.Delay = time.Duration(ms) * time.Millisecond
			}
		case "validate":
			if value.Kind != yaml.MappingNode {
				continue
			}
			for j := 0; j+1 < len(value.Content); j += 2 {
				if value.Content[j].Value != "max_retries" {
					continue
				}
				if n, err := strconv.Atoi(value.Content[j+1].Value); err == nil && n > 0 {
					plan.MaxRetries = n
				}
			}
		}
	}
}

// CollectFiles expands files and directories into an ordered list of test
// documents. Directory entries are sorted by path.
func CollectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		var found []string
		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && IsTestFile(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}

	return files, nil
}

func IsTestFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yml" || ext == ".yaml"
}

// LoadSuite parses every path in order.
func LoadSuite(paths []string) (*Suite, error) {
	suite := &Suite{}
	for _, path := range paths {
		file, err := ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		suite.Files = append(suite.Files, file)
	}
	return suite, nil
}

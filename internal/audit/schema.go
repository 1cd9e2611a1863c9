package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// frontmatterSchema describes the metadata block every post is expected
// to carry.
var frontmatterSchema = map[string]any{
	"type":     "object",
	"required": []string{"title", "category"},
	"properties": map[string]any{
		"title":    map[string]any{"type": "string", "minLength": 1},
		"date":     map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}`},
		"readTime": map[string]any{"type": "string"},
		"category": map[string]any{"type": "string", "minLength": 1},
	},
}

type schemaIssue struct {
	Location string
	Message  string
}

func (i schemaIssue) String() string {
	location := strings.TrimSpace(i.Location)
	if location == "" {
		location = "#"
	} else if !strings.HasPrefix(location, "#") {
		location = "#" + location
	}
	return fmt.Sprintf("%s: %s", location, i.Message)
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("frontmatter.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("frontmatter.json")
}

// validateFrontmatter checks raw against schema. raw is round-tripped
// through JSON so numbers and nested values have the shapes the validator
// expects.
func validateFrontmatter(schema *jsonschema.Schema, raw map[string]any) ([]schemaIssue, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var document any
	if err := json.Unmarshal(encoded, &document); err != nil {
		return nil, err
	}

	err = schema.Validate(document)
	if err == nil {
		return nil, nil
	}
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, err
	}
	return collectIssues(validationErr), nil
}

func collectIssues(err *jsonschema.ValidationError) []schemaIssue {
	issues := []schemaIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, schemaIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

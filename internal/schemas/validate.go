// Package schemas validates provider JSON output against embedded JSON
// Schema documents at the call boundary, so malformed model responses fail
// loudly with field paths instead of flowing downstream half-decoded.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed defs/*.schema.json
var defs embed.FS

// Name identifies one embedded schema document.
type Name string

const (
	TopicExtraction Name = "topic_extraction"
	Brief           Name = "brief"
	Draft           Name = "draft"
	CurrentData     Name = "current_data"
)

// ValidationError reports document-level failures with field paths.
type ValidationError struct {
	Schema Name
	Errors []FieldError
}

// FieldError is a single validation failure at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s validation failed:\n", ve.Schema)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// SchemaLoadError reports problems with the schema document itself.
type SchemaLoadError struct {
	Schema  Name
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Schema, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Schema, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

var (
	compileMu sync.Mutex
	compiled  = map[Name]*gojsonschema.Schema{}
)

func schemaFor(name Name) (*gojsonschema.Schema, error) {
	compileMu.Lock()
	defer compileMu.Unlock()
	if s, ok := compiled[name]; ok {
		return s, nil
	}
	raw, err := defs.ReadFile(fmt.Sprintf("defs/%s.schema.json", name))
	if err != nil {
		return nil, &SchemaLoadError{Schema: name, Message: "unknown schema", Cause: err}
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &SchemaLoadError{Schema: name, Message: "schema does not compile", Cause: err}
	}
	compiled[name] = schema
	return schema, nil
}

// Validate checks doc against the named embedded schema. It returns nil on
// success, *ValidationError on document failures, and *SchemaLoadError when
// the schema itself cannot be used.
func Validate(doc []byte, name Name) error {
	schema, err := schemaFor(name)
	if err != nil {
		return err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &ValidationError{Schema: name, Errors: []FieldError{
			{Field: "(root)", Message: fmt.Sprintf("document is not valid JSON: %v", err)},
		}}
	}
	if result.Valid() {
		return nil
	}
	ve := &ValidationError{Schema: name, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}

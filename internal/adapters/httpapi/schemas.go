package httpapi

import (
	"bytes"
	"embed"
	"errors"
	"fmt"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Request schemas are compiled once at init; a failure here is a build
// defect, not a runtime condition.
var (
	profileCreateSchema = mustCompileSchema("schemas/profile_create.json")
	profileUpdateSchema = mustCompileSchema("schemas/profile_update.json")
	eventWriteSchema    = mustCompileSchema("schemas/event_write.json")
)

func mustCompileSchema(name string) *santhosh.Schema {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}

	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return schema
}

func schemaViolations(err error) []string {
	var ve *santhosh.ValidationError
	if errors.As(err, &ve) {
		return collectValidationErrors(ve)
	}
	return []string{err.Error()}
}

func collectValidationErrors(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectValidationErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}

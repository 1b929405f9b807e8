package httpapi

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed sync_request.json
var syncRequestSchema []byte

const syncRequestSchemaURL = "https://gophnotes.dev/schemas/sync_request.json"

// compileSyncSchema returns the validator for POST /v1/sync bodies. Format
// keywords are asserted, so malformed timestamps are rejected here.
func compileSyncSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(syncRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("error parsing sync schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(syncRequestSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("error adding sync schema: %w", err)
	}
	return c.Compile(syncRequestSchemaURL)
}

func validate(schema *jsonschema.Schema, body []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return err
	}
	return schema.Validate(inst)
}

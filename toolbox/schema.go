package toolbox

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	santhosh "github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaBaseURL = "https://ckassist.invalid/tools/"

// reflectParameters builds the parameter schema for an argument struct.
// Only fields tagged jsonschema:"required" are required; descriptions,
// enums and defaults come from struct tags.
func reflectParameters(v any) json.RawMessage {
	r := &jsonschema.Reflector{
		Anonymous:                  true,
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(v)
	s.Version = ""
	data, err := json.Marshal(s)
	if err != nil {
		// Argument structs are static; a failure here is a programming error.
		panic(fmt.Sprintf("toolbox: marshal schema for %T: %v", v, err))
	}
	return data
}

// compileSchema compiles a tool's parameter schema into a validator.
func compileSchema(name string, params json.RawMessage) (*santhosh.Schema, error) {
	doc, err := santhosh.UnmarshalJSON(bytes.NewReader(params))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	url := schemaBaseURL + name + ".json"
	c := santhosh.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return sch, nil
}

// validateArgs checks raw JSON arguments against a compiled schema.
func validateArgs(sch *santhosh.Schema, args json.RawMessage) error {
	inst, err := santhosh.UnmarshalJSON(bytes.NewReader(args))
	if err != nil {
		return fmt.Errorf("json parse error: %w", err)
	}
	return sch.Validate(inst)
}

package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

const userListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "user": {
      "type": "object",
      "properties": {
        "email": {"type": "string"},
        "first_name": {"type": ["string", "null"]},
        "last_name": {"type": ["string", "null"]},
        "role": {"type": ["string", "null"]},
        "enabled": {"type": ["boolean", "null"]}
      }
    }
  },
  "oneOf": [
    {"type": "array", "items": {"$ref": "#/definitions/user"}},
    {"type": "object", "additionalProperties": {"$ref": "#/definitions/user"}}
  ]
}`

const siteListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "site": {
      "type": "object",
      "properties": {
        "county": {"type": ["string", "null"]},
        "name": {"type": "string"},
        "latitude": {"type": ["string", "number", "null"]},
        "longitude": {"type": ["string", "number", "null"]},
        "segment_length": {"type": ["string", "number", "null"]}
      }
    }
  },
  "oneOf": [
    {"type": "array", "items": {"$ref": "#/definitions/site"}},
    {"type": "object", "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/site"}}}
  ]
}`

const dataSetSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["collections", "volume"],
  "properties": {
    "collections": {"type": "array", "items": {"type": "object"}},
    "volume": {"type": "array", "items": {"type": "object"}}
  }
}`

const presignedSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["presignedUrl"],
  "properties": {
    "presignedUrl": {"type": "string", "minLength": 1}
  }
}`

const imageListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["url", "fileName"],
    "properties": {
      "url": {"type": "string"},
      "fileName": {"type": "string"}
    }
  }
}`

const uploadResultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "success": {"type": "boolean"},
    "fileUrl": {"type": "string"}
  }
}`

var (
	schemaMu    sync.Mutex
	schemaCache = map[string]*jsonschema.Schema{}
)

// compileSchema compiles a JSON schema string once and caches it.
func compileSchema(name, schema string) (*jsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	if s, ok := schemaCache[name]; ok {
		return s, nil
	}
	if !gjson.Valid(schema) {
		return nil, fmt.Errorf("invalid JSON schema %s", name)
	}

	url := "inline://" + name
	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = func(u string) (io.ReadCloser, error) {
		if u == url {
			return io.NopCloser(bytes.NewReader([]byte(schema))), nil
		}
		return nil, fmt.Errorf("unsupported schema ref: %s", u)
	}
	if err := compiler.AddResource(url, bytes.NewReader([]byte(schema))); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	schemaCache[name] = compiled
	return compiled, nil
}

// checkShape validates a result's JSON document against a named schema.
func checkShape(res *Result, name, schema string) error {
	if res.JSON() == nil {
		return ErrTextResponse.Msg("expected a JSON response, got text")
	}
	s, err := compileSchema(name, schema)
	if err != nil {
		return ErrResponseShape.MsgErr("unable to load response schema", err)
	}
	if err := s.Validate(res.Value); err != nil {
		return ErrResponseShape.MsgErr("unexpected "+name+" response", err)
	}
	return nil
}

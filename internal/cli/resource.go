package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"sigs.k8s.io/yaml"
)

// LoadResourceFromFile loads a YAML or JSON file and converts it to JSON
func LoadResourceFromFile(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}

	// YAML is a superset of JSON, so both go through the same conversion
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML to JSON: %v", err)
	}
	if !gjson.ValidBytes(jsonData) || !gjson.ParseBytes(jsonData).IsObject() {
		return nil, fmt.Errorf("%s must contain a single object", filename)
	}
	return jsonData, nil
}

// ApplySets patches doc with path=value assignments. Paths use gjson dot
// syntax. Values that parse as JSON (numbers, booleans, quoted strings,
// objects) are set as such; anything else is set as a string.
func ApplySets(doc []byte, sets []string) ([]byte, error) {
	if len(doc) == 0 {
		doc = []byte("{}")
	}
	for _, s := range sets {
		path, value, ok := strings.Cut(s, "=")
		path = strings.TrimSpace(path)
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid --set %q, expected path=value", s)
		}

		var err error
		if json.Valid([]byte(value)) {
			doc, err = sjson.SetRawBytes(doc, path, []byte(value))
		} else {
			doc, err = sjson.SetBytes(doc, path, value)
		}
		if err != nil {
			return nil, fmt.Errorf("unable to apply --set %q: %v", s, err)
		}
	}
	return doc, nil
}

// loadInput builds a request document from an optional file and --set
// assignments layered over base.
func loadInput(base []byte, file string, sets []string) ([]byte, error) {
	doc := base
	if file != "" {
		fromFile, err := LoadResourceFromFile(file)
		if err != nil {
			return nil, err
		}
		doc, err = mergeObjects(doc, fromFile)
		if err != nil {
			return nil, err
		}
	}
	return ApplySets(doc, sets)
}

// mergeObjects overlays the top level keys of top onto base.
func mergeObjects(base, top []byte) ([]byte, error) {
	if len(base) == 0 {
		return top, nil
	}
	out := base
	var err error
	gjson.ParseBytes(top).ForEach(func(key, value gjson.Result) bool {
		out, err = sjson.SetRawBytes(out, escapePath(key.String()), []byte(value.Raw))
		return err == nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to merge input: %v", err)
	}
	return out, nil
}

// escapePath escapes gjson path metacharacters in a literal key.
func escapePath(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}

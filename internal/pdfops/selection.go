package pdfops

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidSelection is returned when merge selections do not match the
// selection schema.
var ErrInvalidSelection = errors.New("invalid page selection")

// Keys are source indexes. Each value picks explicit pages or a range spec,
// never both.
const selectionSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "propertyNames": {"pattern": "^(0|[1-9][0-9]*)$"},
  "additionalProperties": {
    "type": "object",
    "additionalProperties": false,
    "properties": {
      "pages": {
        "type": "array",
        "minItems": 1,
        "items": {"type": "integer", "minimum": 1}
      },
      "ranges": {"type": "string", "minLength": 1}
    },
    "oneOf": [{"required": ["pages"]}, {"required": ["ranges"]}]
  }
}`

var selectionSchema = func() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("selections.json", strings.NewReader(selectionSchemaJSON)); err != nil {
		panic(fmt.Sprintf("load selections schema: %v", err))
	}
	return compiler.MustCompile("selections.json")
}()

// ParseSelections decodes the selections field of a merge request, e.g.
// {"0": {"pages": [1, 3]}, "1": {"ranges": "2-4"}}. Empty input selects
// every page of every source.
func ParseSelections(data []byte) (map[int]*PageSelection, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, newError("merge", "selections", string(data), "JSON object keyed by source index", fmt.Errorf("%w: %v", ErrInvalidSelection, err))
	}
	if err := selectionSchema.Validate(doc); err != nil {
		return nil, newError("merge", "selections", string(data), "JSON object keyed by source index", fmt.Errorf("%w: %s", ErrInvalidSelection, validationMessage(err)))
	}

	var raw map[string]*PageSelection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, newError("merge", "selections", string(data), "", fmt.Errorf("%w: %v", ErrInvalidSelection, err))
	}
	out := make(map[int]*PageSelection, len(raw))
	for k, sel := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			// propertyNames already restricts keys to digits.
			return nil, newError("merge", "selections", k, "source index", ErrInvalidSelection)
		}
		out[idx] = sel
	}
	return out, nil
}

func validationMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			if loc := strings.TrimPrefix(e.InstanceLocation, "/"); loc != "" {
				msgs = append(msgs, loc+": "+e.Message)
			} else {
				msgs = append(msgs, e.Message)
			}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

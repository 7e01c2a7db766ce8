package service

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StripUndefined renders v as a generic JSON tree with every null removed at any depth.
func StripUndefined(v interface{}) (interface{}, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var tree interface{}
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return stripNulls(tree), nil
}

func stripNulls(node interface{}) interface{} {
	switch typed := node.(type) {
	case map[string]interface{}:
		for key, value := range typed {
			if value == nil {
				delete(typed, key)
				continue
			}
			typed[key] = stripNulls(value)
		}
		return typed
	case []interface{}:
		kept := typed[:0]
		for _, value := range typed {
			if value == nil {
				continue
			}
			kept = append(kept, stripNulls(value))
		}
		return kept
	default:
		return node
	}
}

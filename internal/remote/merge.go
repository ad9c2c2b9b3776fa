package remote

import (
	"encoding/json"
	"fmt"
)

// mergeDocument overlays the top-level fields of patch onto base. Nested objects are
// replaced, not merged, matching a document-store "set with merge".
func mergeDocument(base, patch json.RawMessage) (json.RawMessage, error) {
	if len(base) == 0 {
		return patch, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil || fields == nil {
		// A stored value that is not an object is replaced outright
		return patch, nil
	}

	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	for k, v := range overlay {
		fields[k] = v
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged document: %w", err)
	}
	return merged, nil
}

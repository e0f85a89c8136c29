package favorites

import (
	"encoding/json"
	"fmt"

	"aniverse/catalog"
)

// Encode serializes the list as a JSON array. An empty list encodes as [].
func Encode(titles []catalog.Title) ([]byte, error) {
	if titles == nil {
		titles = []catalog.Title{}
	}
	b, err := json.Marshal(titles)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return b, nil
}

// Decode parses a stored list. JSON null decodes to an empty list and
// repeated identifiers keep only their first occurrence.
func Decode(data []byte) ([]catalog.Title, error) {
	var titles []catalog.Title
	if err := json.Unmarshal(data, &titles); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	out := make([]catalog.Title, 0, len(titles))
	for _, t := range titles {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: entry without an identifier", ErrCorrupt)
		}
		if indexOf(out, t.ID) >= 0 {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

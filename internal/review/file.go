package review

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// SaveFile writes the full review set to path as a pretty-printed JSON array
// of flat field mappings. This is the local fallback written when warehouse
// ingestion fails; its shape must round-trip exactly through LoadFile.
func SaveFile(path string, reviews []Review) error {
	out := make([]map[string]string, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, r.Fields())
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return eris.Wrap(err, "review: marshal fallback file")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "review: write fallback file %s", path)
	}
	return nil
}

// LoadFile reads a review set previously written by SaveFile.
func LoadFile(path string) ([]Review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "review: read fallback file %s", path)
	}

	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "review: decode fallback file %s", path)
	}

	reviews := make([]Review, 0, len(raw))
	for _, m := range raw {
		r, err := FromFields(m)
		if err != nil {
			return nil, eris.Wrapf(err, "review: fallback file %s", path)
		}
		reviews = append(reviews, r)
	}
	return reviews, nil
}

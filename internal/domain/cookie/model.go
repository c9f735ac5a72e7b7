package cookie

import "encoding/json"

// Cookie is one logged unit of progress. Timestamps are epoch
// milliseconds; ProjectID is nil for unassigned cookies.
type Cookie struct {
	ID        string  `json:"id"`
	ProjectID *string `json:"projectId"`
	Note      string  `json:"note"`
	Level     int64   `json:"level"`
	Timestamp int64   `json:"timestamp"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt,omitempty"`
}

// Encode marshals cookies back into store records.
func Encode(cookies []Cookie) []json.RawMessage {
	records := make([]json.RawMessage, len(cookies))
	for i, c := range cookies {
		data, err := json.Marshal(c)
		if err != nil {
			// A Cookie contains only marshalable fields.
			panic(err)
		}
		records[i] = data
	}
	return records
}

// decodeRecord parses a stored record into a loose map. Anything that is
// not a JSON object decodes as empty, and normalization rebuilds it.
func decodeRecord(rec json.RawMessage) map[string]any {
	m := map[string]any{}
	if err := json.Unmarshal(rec, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// asMap round-trips a cookie through JSON into a loose map, the form
// update merges operate on.
func asMap(c Cookie) map[string]any {
	data, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		panic(err)
	}
	return m
}

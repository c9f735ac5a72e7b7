package project

import "encoding/json"

// Project status values.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Project is a named, taggable tracked activity.
type Project struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Tags      []string `json:"tags"`
	Status    string   `json:"status"`
	CreatedAt int64    `json:"createdAt"`
}

// Decode parses the stored collection, filling defaults the legacy data
// sometimes lacks: nil tags read as empty, an empty status reads as
// active. Projects are not rewritten on read; defaults only apply to the
// decoded view.
func Decode(records []json.RawMessage) []Project {
	projects := make([]Project, 0, len(records))
	for _, rec := range records {
		var p Project
		if err := json.Unmarshal(rec, &p); err != nil {
			continue
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
		if p.Status == "" {
			p.Status = StatusActive
		}
		projects = append(projects, p)
	}
	return projects
}

// Encode marshals projects back into store records.
func Encode(projects []Project) []json.RawMessage {
	records := make([]json.RawMessage, len(projects))
	for i, p := range projects {
		data, err := json.Marshal(p)
		if err != nil {
			panic(err)
		}
		records[i] = data
	}
	return records
}

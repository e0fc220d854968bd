package store

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/distantorigin/mode-manager/internal/ruleset"
)

// entry is the JSON shape of a record. Pointers tell a missing field from an empty one.
type entry struct {
	Owner *string `json:"owner"`
	Repo  *string `json:"repo"`
	Tag   *string `json:"tag"`
	File  *string `json:"file"`
}

// EncodeJSON serializes records as an indented JSON array
func EncodeJSON(records []ruleset.Record) ([]byte, error) {
	entries := make([]entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, entry{
			Owner: &r.Owner,
			Repo:  &r.Repo,
			Tag:   &r.Tag,
			File:  &r.FileName,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ruleset list: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeJSON parses a JSON array of records. Comments and trailing commas are
// tolerated. Entries missing any of the four fields are dropped.
func DecodeJSON(data []byte) ([]ruleset.Record, error) {
	var entries []entry
	if err := json.Unmarshal(jsonc.ToJSON(data), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset list: %w", err)
	}

	records := make([]ruleset.Record, 0, len(entries))
	for _, e := range entries {
		if e.Owner == nil || e.Repo == nil || e.Tag == nil || e.File == nil {
			continue
		}
		records = append(records, ruleset.Record{
			Owner:    *e.Owner,
			Repo:     *e.Repo,
			Tag:      *e.Tag,
			FileName: *e.File,
		})
	}
	return records, nil
}

package store

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/distantorigin/mode-manager/internal/ruleset"
)

const (
	// FieldSep separates the four fields of a record (ASCII unit separator)
	FieldSep = '\x1f'
	// RecordSep separates records (ASCII record separator)
	RecordSep = '\x1e'
)

// ErrDelimiterInField is returned when a field holds a separator the legacy format cannot escape
var ErrDelimiterInField = errors.New("field contains a list delimiter")

// Format serializes records in the legacy delimited format
func Format(records []ruleset.Record) (string, error) {
	var b strings.Builder
	for i, r := range records {
		fields := [4]string{r.Owner, r.Repo, r.Tag, r.FileName}
		for _, f := range fields {
			if strings.ContainsRune(f, FieldSep) || strings.ContainsRune(f, RecordSep) {
				return "", fmt.Errorf("record %d (%s): %w", i, r.Slug(), ErrDelimiterInField)
			}
		}
		if i > 0 {
			b.WriteRune(RecordSep)
		}
		for j, f := range fields {
			if j > 0 {
				b.WriteRune(FieldSep)
			}
			b.WriteString(f)
		}
	}
	return b.String(), nil
}

// Parse lazily decodes the legacy delimited format.
// Sections with fewer than four fields are skipped.
func Parse(text string) iter.Seq[ruleset.Record] {
	return func(yield func(ruleset.Record) bool) {
		for section := range strings.SplitSeq(text, string(RecordSep)) {
			fields := strings.Split(section, string(FieldSep))
			if len(fields) < 4 {
				continue
			}
			r := ruleset.Record{
				Owner:    fields[0],
				Repo:     fields[1],
				Tag:      fields[2],
				FileName: fields[3],
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Load reads the record list at path. A missing file is an empty list.
func Load(path string) ([]ruleset.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ruleset list: %w", err)
	}
	return decode(path, data)
}

// Save writes the whole record list to path, replacing any previous content
func Save(path string, records []ruleset.Record) error {
	data, err := encode(path, records)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// Import replaces the list at dst with the records read from src
func Import(src, dst string) ([]ruleset.Record, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	records, err := decode(src, data)
	if err != nil {
		return nil, err
	}
	if err := Save(dst, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Export writes records to dst, choosing the format from its extension
func Export(dst string, records []ruleset.Record) error {
	return Save(dst, records)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func decode(path string, data []byte) ([]ruleset.Record, error) {
	if isJSON(path) {
		return DecodeJSON(data)
	}
	return slices.Collect(Parse(string(data))), nil
}

func encode(path string, records []ruleset.Record) ([]byte, error) {
	if isJSON(path) {
		return EncodeJSON(records)
	}
	text, err := Format(records)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// writeFile replaces path atomically so a failed write never truncates the list
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create list directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write ruleset list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write ruleset list: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save ruleset list: %w", err)
	}
	return nil
}

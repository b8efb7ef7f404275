package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/sheetscan/internal/sheets"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// fileSpec is the on-disk layout.
type fileSpec struct {
	Tables []tableSpec `yaml:"tables"`
}

type tableSpec struct {
	Key             string        `yaml:"key"`
	Label           string        `yaml:"label"`
	SpreadSheetID   string        `yaml:"spread_sheet_id"`
	SheetID         string        `yaml:"sheet_id"`
	TargetTable     string        `yaml:"target_table"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Columns         []columnSpec  `yaml:"columns"`
}

type columnSpec struct {
	Ordinal int    `yaml:"ordinal"`
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
}

// LoadFile reads and validates a catalog file.
func LoadFile(path string) ([]Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	tables, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return tables, nil
}

// Parse decodes and validates catalog YAML. Unknown fields are rejected so
// that a misspelt option does not silently fall back to a default.
func Parse(data []byte) ([]Table, error) {
	var spec fileSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}

	tables := make([]Table, len(spec.Tables))
	for i, ts := range spec.Tables {
		t := Table{
			Key:             strings.TrimSpace(ts.Key),
			Label:           ts.Label,
			SpreadSheetID:   strings.TrimSpace(ts.SpreadSheetID),
			SheetID:         strings.TrimSpace(ts.SheetID),
			TargetTable:     strings.TrimSpace(ts.TargetTable),
			RefreshInterval: ts.RefreshInterval,
			Columns:         make([]sheets.Column, len(ts.Columns)),
		}
		for j, cs := range ts.Columns {
			t.Columns[j] = sheets.Column{
				Ordinal: cs.Ordinal,
				Name:    strings.TrimSpace(cs.Name),
				Type:    sheets.ParseColumnType(cs.Type),
			}
		}
		tables[i] = t
	}

	if err := Validate(tables); err != nil {
		return nil, err
	}
	return tables, nil
}

// Validate checks every table and returns all failures in one error.
func Validate(tables []Table) error {
	var errs []string
	seen := make(map[string]bool, len(tables))

	for i, t := range tables {
		name := t.Key
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}

		switch {
		case t.Key == "":
			errs = append(errs, fmt.Sprintf("table %s: key is required", name))
		case !keyPattern.MatchString(t.Key):
			errs = append(errs, fmt.Sprintf("table %s: key must match %s", name, keyPattern))
		case seen[t.Key]:
			errs = append(errs, fmt.Sprintf("table %s: duplicate key", name))
		}
		seen[t.Key] = true

		if t.SpreadSheetID == "" {
			errs = append(errs, fmt.Sprintf("table %s: spread_sheet_id is required", name))
		}
		if t.RefreshInterval < 0 {
			errs = append(errs, fmt.Sprintf("table %s: refresh_interval must be non-negative", name))
		}
		if len(t.Columns) == 0 {
			errs = append(errs, fmt.Sprintf("table %s: at least one column is required", name))
			continue
		}
		if err := sheets.ValidateColumns(t.Columns); err != nil {
			errs = append(errs, fmt.Sprintf("table %s: %v", name, err))
		}
		for _, c := range t.Columns {
			if !c.Type.Supported() {
				errs = append(errs, fmt.Sprintf("table %s: column %s has unsupported type %q", name, c.Name, c.Type))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

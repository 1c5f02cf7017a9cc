// Package metascan extracts typed metadata values from text using a
// regex-driven property schema.
package metascan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema declares the properties a scan may produce.
type Schema struct {
	Properties map[string]Property `yaml:"properties" json:"properties"`
}

// Property declares one scannable value. Properties without aux data
// are never scanned and never defaulted.
type Property struct {
	Type    string   `yaml:"type" json:"type"`
	AuxData *AuxData `yaml:"aux_data,omitempty" json:"aux_data,omitempty"`
}

// AuxData holds the scan configuration for a property.
type AuxData struct {
	// ScanRegex is the pattern located in the text. A property without
	// one is skipped entirely.
	ScanRegex string `yaml:"scan_regex" json:"scan_regex"`

	// ScanReplace is an expansion template applied to each match to
	// extract the candidate substring; empty means the whole match.
	ScanReplace string `yaml:"scan_replace,omitempty" json:"scan_replace,omitempty"`

	// ScanOverwrite lets a scanned value replace a pre-existing key when
	// scanning into an existing record.
	ScanOverwrite bool `yaml:"scan_overwrite,omitempty" json:"scan_overwrite,omitempty"`
}

// LoadSchema parses a YAML (or JSON) schema document.
func LoadSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse metadata schema; %w", err)
	}
	return &s, nil
}

// Scan returns a record containing only the properties whose scan regex
// matched at least once. Keys with no match are absent, never null.
func Scan(text string, schema Schema) (map[string]any, error) {
	return ScanInto(text, schema, nil)
}

// ScanInto scans like Scan but starts from a copy of existing; a scanned
// value replaces a pre-existing key only when the property sets
// scan_overwrite. A malformed scan regex is a configuration error and
// fails the whole scan.
func ScanInto(text string, schema Schema, existing map[string]any) (map[string]any, error) {
	record := make(map[string]any, len(schema.Properties)+len(existing))
	for k, v := range existing {
		record[k] = v
	}

	for name, prop := range schema.Properties {
		aux := prop.AuxData
		if aux == nil || aux.ScanRegex == "" {
			continue
		}
		re, err := regexp.Compile(aux.ScanRegex)
		if err != nil {
			return nil, fmt.Errorf("property %q: invalid scan_regex; %w", name, err)
		}

		matches := re.FindAllStringSubmatchIndex(text, -1)
		if len(matches) == 0 {
			continue
		}

		template := aux.ScanReplace
		if template == "" {
			template = "$0"
		}
		candidate := string(re.ExpandString(nil, template, text, matches[0]))

		value, ok := coerce(candidate, prop.Type)
		if !ok {
			continue
		}
		if _, taken := record[name]; taken && !aux.ScanOverwrite {
			continue
		}
		record[name] = value
	}
	return record, nil
}

var truthyValues = map[string]bool{
	"true": true,
	"yes":  true,
	"y":    true,
	"1":    true,
}

// coerce converts the extracted text per the declared type. Numeric
// parse failures report !ok so the key is omitted entirely.
func coerce(raw, typ string) (any, bool) {
	switch typ {
	case "integer":
		n, err := strconv.ParseInt(stripThousands(raw), 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	case "number":
		f, err := strconv.ParseFloat(stripThousands(raw), 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case "boolean":
		return truthyValues[strings.ToLower(strings.TrimSpace(raw))], true
	default:
		return raw, true
	}
}

func stripThousands(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

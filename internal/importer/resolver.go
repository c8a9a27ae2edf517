package importer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader folds a header to NFKC, lower-cases it and collapses
// whitespace so that "Start  Date", " start date" and "START\u00a0DATE" compare equal.
func NormalizeHeader(h string) string {
	h = norm.NFKC.String(strings.TrimPrefix(h, "\ufeff"))
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// ResolveFields maps a header→cell row onto the schema's canonical fields.
// For each field the aliases are tried in order and the first non-blank cell
// wins; otherwise the field default applies; otherwise the value is nil.
func ResolveFields(row map[string]string, schema *Schema) RawValues {
	normalized := make(map[string]string, len(row))
	for header, cell := range row {
		key := NormalizeHeader(header)
		if existing, ok := normalized[key]; ok && strings.TrimSpace(existing) != "" {
			continue
		}
		normalized[key] = cell
	}

	values := make(RawValues, len(schema.Fields))
	for _, field := range schema.Fields {
		values[field.Name] = resolveField(normalized, field)
	}
	return values
}

func resolveField(row map[string]string, field Field) *string {
	for _, alias := range field.Aliases {
		cell, ok := row[NormalizeHeader(alias)]
		if !ok {
			continue
		}
		if strings.TrimSpace(cell) == "" {
			continue
		}
		v := cell
		return &v
	}
	if field.DefaultFunc != nil {
		v := field.DefaultFunc()
		return &v
	}
	if field.Default != "" {
		v := field.Default
		return &v
	}
	return nil
}

package importer

import (
	"fmt"
	"strings"
)

// PendingRef is a reference whose business key still has to be resolved to an id.
type PendingRef struct {
	Reference
	// Key is empty when an optional reference was left blank.
	Key string
}

// PreparedRow is a validated row ready for reference resolution and upsert.
type PreparedRow struct {
	Columns []string
	Values  []any
	Refs    []PendingRef
}

// PrepareRow resolves, derives, checks and normalises one CSV row. The returned
// error is always a *FieldError and describes a row-level problem.
func PrepareRow(schema *Schema, row map[string]string) (*PreparedRow, error) {
	raw := ResolveFields(row, schema)
	if schema.Prepare != nil {
		schema.Prepare(raw)
	}

	missing := make([]string, 0)
	for _, f := range schema.Fields {
		if f.Required && raw.Get(f.Name) == "" {
			missing = append(missing, f.Header())
		}
	}
	if len(missing) > 0 {
		return nil, &FieldError{
			Field:  strings.Join(missing, ","),
			Reason: fmt.Sprintf("Missing required fields (%s)", strings.Join(missing, ", ")),
		}
	}

	prepared := &PreparedRow{
		Columns: make([]string, 0, len(schema.Fields)),
		Values:  make([]any, 0, len(schema.Fields)),
	}
	for _, f := range schema.Fields {
		value, err := Normalize(f, raw[f.Name])
		if err != nil {
			return nil, err
		}
		if !f.Persisted() {
			continue
		}
		prepared.Columns = append(prepared.Columns, f.ColumnName())
		prepared.Values = append(prepared.Values, value)
	}

	for _, ref := range schema.References {
		key := raw.Get(ref.Field)
		if key == "" && !ref.Optional {
			field, _ := schema.Field(ref.Field)
			return nil, &FieldError{Field: ref.Field, Reason: fmt.Sprintf("Missing required fields (%s)", field.Header())}
		}
		prepared.Refs = append(prepared.Refs, PendingRef{Reference: ref, Key: key})
	}

	return prepared, nil
}

package importer

import "strings"

// FieldKind selects the normalisation applied to a raw cell.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindDate
	KindTime
	KindBool
	KindList
)

// SkipColumn marks a field that is read from the CSV but never persisted directly.
const SkipColumn = "-"

// Field describes one canonical column of an entity schema.
type Field struct {
	Name string
	// Column is the database column; empty means Name, SkipColumn means not persisted.
	Column string
	// Aliases are the accepted CSV headers in priority order. Aliases[0] is the display header.
	Aliases     []string
	Kind        FieldKind
	Required    bool
	Default     string
	DefaultFunc func() string
	Enum        []string
	// Label overrides the lower-cased display header in validation messages.
	Label string
}

// Header returns the display header used in templates and error messages.
func (f Field) Header() string {
	if len(f.Aliases) == 0 {
		return f.Name
	}
	return f.Aliases[0]
}

// ColumnName resolves the database column for the field.
func (f Field) ColumnName() string {
	if f.Column == "" {
		return f.Name
	}
	return f.Column
}

// Persisted reports whether the field maps to a column.
func (f Field) Persisted() bool {
	return f.Column != SkipColumn
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return strings.ToLower(f.Header())
}

// RefTarget names a table that business keys can be resolved against.
type RefTarget string

const (
	RefDepartment RefTarget = "department"
	RefProgram    RefTarget = "program"
	RefCourse     RefTarget = "course"
	RefStudent    RefTarget = "student"
	RefFaculty    RefTarget = "faculty"
)

// Reference turns a business key field into a foreign-key column.
type Reference struct {
	Field    string
	Column   string
	Target   RefTarget
	Optional bool
}

// RawValues holds resolved but not yet normalised cell values keyed by field name.
type RawValues map[string]*string

// Get returns the trimmed value or an empty string.
func (r RawValues) Get(name string) string {
	if v, ok := r[name]; ok && v != nil {
		return strings.TrimSpace(*v)
	}
	return ""
}

// Set stores a value for the field.
func (r RawValues) Set(name, value string) {
	r[name] = &value
}

// Schema is the static description of one importable entity.
type Schema struct {
	Key   string
	Label string
	Table string

	Fields     []Field
	References []Reference

	ConflictKey []string
	// UpdateColumns lists the columns refreshed on conflict. Nil means every non-key column.
	UpdateColumns []string

	// Prepare runs after field resolution and may derive missing values.
	Prepare func(RawValues)
}

// Field looks up a field by canonical name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Headers returns the display headers in template order.
func (s *Schema) Headers() []string {
	headers := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		headers = append(headers, f.Header())
	}
	return headers
}

// RequiredHeaders returns the display headers of every required field.
func (s *Schema) RequiredHeaders() []string {
	out := make([]string, 0)
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Header())
		}
	}
	return out
}

// Columns returns the persisted columns in field order followed by reference columns.
func (s *Schema) Columns() []string {
	cols := make([]string, 0, len(s.Fields)+len(s.References))
	for _, f := range s.Fields {
		if f.Persisted() {
			cols = append(cols, f.ColumnName())
		}
	}
	for _, ref := range s.References {
		cols = append(cols, ref.Column)
	}
	return cols
}

// UpdateSet returns the columns refreshed when the conflict key already exists.
func (s *Schema) UpdateSet() []string {
	if s.UpdateColumns != nil {
		return s.UpdateColumns
	}
	key := make(map[string]struct{}, len(s.ConflictKey))
	for _, k := range s.ConflictKey {
		key[k] = struct{}{}
	}
	out := make([]string, 0)
	for _, col := range s.Columns() {
		if _, ok := key[col]; !ok {
			out = append(out, col)
		}
	}
	return out
}

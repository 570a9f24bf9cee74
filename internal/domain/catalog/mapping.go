package catalog

import (
	"sort"
	"strings"
)

// FieldPatterns lists the header aliases accepted for one standard field
type FieldPatterns struct {
	Field   StandardField `json:"field"`
	Aliases []string      `json:"aliases"`
}

// PatternTable is an ordered list of field aliases. Order matters: fields
// earlier in the table claim matching headers first.
type PatternTable []FieldPatterns

// Fields returns the fields of the table in order
func (t PatternTable) Fields() []StandardField {
	fields := make([]StandardField, len(t))
	for i, fp := range t {
		fields[i] = fp.Field
	}
	return fields
}

// WithOverrides returns a copy of the table where each overridden field
// has its aliases replaced. Overridden fields missing from the table are
// appended in AllFields order. The receiver is never modified.
func (t PatternTable) WithOverrides(overrides map[StandardField][]string) PatternTable {
	out := make(PatternTable, 0, len(t)+len(overrides))
	seen := make(map[StandardField]bool, len(t))
	for _, fp := range t {
		aliases := fp.Aliases
		if o, ok := overrides[fp.Field]; ok && len(o) > 0 {
			aliases = o
		}
		out = append(out, FieldPatterns{Field: fp.Field, Aliases: append([]string(nil), aliases...)})
		seen[fp.Field] = true
	}
	for _, f := range AllFields() {
		if o, ok := overrides[f]; ok && len(o) > 0 && !seen[f] {
			out = append(out, FieldPatterns{Field: f, Aliases: append([]string(nil), o...)})
		}
	}
	return out
}

// ColumnMapping maps standard fields to the original headers of one table
type ColumnMapping map[StandardField]string

// Header returns the original header mapped to f
func (m ColumnMapping) Header(f StandardField) (string, bool) {
	h, ok := m[f]
	return h, ok
}

// Override returns a copy of the mapping with the given manual assignments
// applied. An empty header removes the field from the mapping.
func (m ColumnMapping) Override(overrides map[StandardField]string) ColumnMapping {
	out := make(ColumnMapping, len(m)+len(overrides))
	for f, h := range m {
		out[f] = h
	}
	for f, h := range overrides {
		if strings.TrimSpace(h) == "" {
			delete(out, f)
			continue
		}
		out[f] = h
	}
	return out
}

// Missing returns the fields of table that have no mapped header
func (m ColumnMapping) Missing(table PatternTable) []StandardField {
	var missing []StandardField
	for _, fp := range table {
		if _, ok := m[fp.Field]; !ok {
			missing = append(missing, fp.Field)
		}
	}
	return missing
}

// MappedHeaders returns the set of original headers in use
func (m ColumnMapping) MappedHeaders() map[string]bool {
	used := make(map[string]bool, len(m))
	for _, h := range m {
		used[h] = true
	}
	return used
}

// Labels returns the mapping keyed by field label
func (m ColumnMapping) Labels() map[string]string {
	out := make(map[string]string, len(m))
	for f, h := range m {
		out[string(f)] = h
	}
	return out
}

// SortedFields returns the mapped fields in AllFields order
func (m ColumnMapping) SortedFields() []StandardField {
	fields := make([]StandardField, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	order := make(map[StandardField]int)
	for i, f := range AllFields() {
		order[f] = i
	}
	sort.Slice(fields, func(i, j int) bool { return order[fields[i]] < order[fields[j]] })
	return fields
}

// DetectColumns infers which header of a table holds each field of the
// pattern table. An exact pass compares canonical forms for equality; a
// partial pass then lets still-unmapped fields claim a remaining header
// whose canonical form contains, or is contained in, an alias. Each header
// is assigned at most once and the result only depends on the inputs.
func DetectColumns(headers []string, table PatternTable) ColumnMapping {
	mapping := make(ColumnMapping, len(table))

	canonHeaders := make([]string, len(headers))
	for i, h := range headers {
		canonHeaders[i] = Canonicalize(h)
	}
	canonAliases := make([][]string, len(table))
	for i, fp := range table {
		for _, a := range fp.Aliases {
			if c := Canonicalize(a); c != "" {
				canonAliases[i] = append(canonAliases[i], c)
			}
		}
	}

	used := make([]bool, len(headers))

	for i, fp := range table {
		if _, done := mapping[fp.Field]; done {
			continue
		}
		for j, ch := range canonHeaders {
			if used[j] || ch == "" {
				continue
			}
			if containsExact(canonAliases[i], ch) {
				mapping[fp.Field] = headers[j]
				used[j] = true
				break
			}
		}
	}

	for i, fp := range table {
		if _, done := mapping[fp.Field]; done {
			continue
		}
		for j, ch := range canonHeaders {
			if used[j] || ch == "" {
				continue
			}
			if containsPartial(canonAliases[i], ch) {
				mapping[fp.Field] = headers[j]
				used[j] = true
				break
			}
		}
	}

	return mapping
}

func containsExact(aliases []string, header string) bool {
	for _, a := range aliases {
		if a == header {
			return true
		}
	}
	return false
}

func containsPartial(aliases []string, header string) bool {
	for _, a := range aliases {
		if strings.Contains(a, header) || strings.Contains(header, a) {
			return true
		}
	}
	return false
}

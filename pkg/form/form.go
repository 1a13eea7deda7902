// Package form holds the flat key/value state of the configuration form and
// its serialised forms.
package form

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Field names one form input
type Field string

// Values maps form fields to their raw text. Absent and empty fields are
// equivalent.
type Values map[Field]string

// Checkbox states
const (
	On  = "1"
	Off = "0"
)

const (
	recordSep = "|"
	pairSep   = "="
)

// Get returns the trimmed text of f
func (v Values) Get(f Field) string {
	return strings.TrimSpace(v[f])
}

// Has reports whether f carries a non-empty value
func (v Values) Has(f Field) bool {
	return v.Get(f) != ""
}

// Checked reports whether the checkbox f is set
func (v Values) Checked(f Field) bool {
	switch strings.ToLower(v.Get(f)) {
	case "1", "true", "on", "yes", "checked":
		return true
	}
	return false
}

// GetOr returns the text of f, or def when f is empty
func (v Values) GetOr(f Field, def string) string {
	if s := v.Get(f); s != "" {
		return s
	}
	return def
}

// WithPrefix returns the fields that start with prefix, with the prefix removed
func (v Values) WithPrefix(prefix string) Values {
	out := Values{}
	for f, s := range v {
		if rest, ok := strings.CutPrefix(string(f), prefix); ok {
			out[Field(rest)] = s
		}
	}
	return out
}

// Keys returns the field names in sorted order
func (v Values) Keys() []Field {
	keys := make([]Field, 0, len(v))
	for f := range v {
		keys = append(keys, f)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Merge copies every field of other into v, overwriting existing values
func (v Values) Merge(other Values) {
	for f, s := range other {
		v[f] = s
	}
}

// Encode serialises v as a pipe-delimited record of key=value pairs in key
// order. Empty values are dropped.
func Encode(v Values) (string, error) {
	var parts []string
	for _, f := range v.Keys() {
		s := v[f]
		if s == "" {
			continue
		}
		if strings.ContainsAny(string(f), recordSep+pairSep) || f == "" {
			return "", fmt.Errorf("invalid field name %q", f)
		}
		if strings.Contains(s, recordSep) {
			return "", fmt.Errorf("value of %s contains %q", f, recordSep)
		}
		parts = append(parts, string(f)+pairSep+s)
	}
	return strings.Join(parts, recordSep), nil
}

// Decode parses a record produced by Encode
func Decode(record string) (Values, error) {
	out := Values{}
	record = strings.TrimSpace(record)
	if record == "" {
		return out, nil
	}

	for i, part := range strings.Split(record, recordSep) {
		key, value, ok := strings.Cut(part, pairSep)
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("malformed pair %d: %q", i+1, part)
		}
		out[Field(strings.TrimSpace(key))] = value
	}
	return out, nil
}

// LoadTOML reads a form description from a TOML file. Nested tables are
// flattened with underscores, so [lvds.dtd.1] enabled = true becomes
// lvds_dtd_1_enabled = "1".
func LoadTOML(path string) (Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read form file: %w", err)
	}
	return ParseTOML(string(data))
}

// ParseTOML parses TOML form text
func ParseTOML(text string) (Values, error) {
	var doc map[string]interface{}
	if _, err := toml.Decode(text, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	out := Values{}
	if err := flatten(out, "", doc); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(out Values, prefix string, doc map[string]interface{}) error {
	for key, raw := range doc {
		name := key
		if prefix != "" {
			name = prefix + "_" + key
		}

		switch v := raw.(type) {
		case map[string]interface{}:
			if err := flatten(out, name, v); err != nil {
				return err
			}
		case string:
			out[Field(name)] = v
		case bool:
			if v {
				out[Field(name)] = On
			} else {
				out[Field(name)] = Off
			}
		case int64:
			out[Field(name)] = strconv.FormatInt(v, 10)
		case float64:
			out[Field(name)] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return fmt.Errorf("unsupported value for %s: %T", name, raw)
		}
	}
	return nil
}

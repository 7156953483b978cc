package values

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Print renders v as the database's human-readable structured literal,
// e.g. Integer(3), String("a"), Vector([Integer(1), Integer(2)]). Parse
// is its exact inverse for every non-Nil variant.
func Print(v Value) string {
	switch v.Kind {
	case KindChar:
		return fmt.Sprintf("Char(%q)", string(v.Char))
	case KindInteger:
		return fmt.Sprintf("Integer(%d)", v.Integer)
	case KindFloat:
		return fmt.Sprintf("Float(%s)", formatFloat(v.Float))
	case KindString:
		return fmt.Sprintf("String(%q)", v.Str)
	case KindUuid:
		return fmt.Sprintf("Uuid(%s)", v.Uuid.String())
	case KindBoolean:
		return fmt.Sprintf("Boolean(%t)", v.Bool)
	case KindVector:
		parts := make([]string, len(v.Vector))
		for i, e := range v.Vector {
			parts[i] = Print(e)
		}
		return fmt.Sprintf("Vector([%s])", strings.Join(parts, ", "))
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q: %s", k, Print(v.Map[k]))
		}
		return fmt.Sprintf("Map({%s})", strings.Join(parts, ", "))
	case KindHash:
		return fmt.Sprintf("Hash(%q)", v.Str)
	case KindPrecise:
		return fmt.Sprintf("Precise(%q)", v.Str)
	case KindDateTime:
		return fmt.Sprintf("DateTime(%s)", v.Time.Format(time.RFC3339Nano))
	case KindNil:
		return "Nil"
	default:
		return "Nil"
	}
}

// formatFloat renders a float64 losslessly enough that Parse(Print(x)) ==
// x holds for every finite value: strconv's shortest round-trippable
// representation, always carrying a decimal point so Integer and Float
// never print identically.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Parse reads one Print-formatted literal back into a Value. pkg/logio
// uses it to decode a day-log record's state column; QL map literals go
// through pkg/ql's own parser instead.
func Parse(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "Nil" {
		return Nil, nil
	}
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return Value{}, fmt.Errorf("values: malformed literal %q", s)
	}
	tag := s[:open]
	inner := s[open+1 : len(s)-1]

	switch tag {
	case "Char":
		str, err := unquote(inner)
		if err != nil {
			return Value{}, err
		}
		r := []rune(str)
		if len(r) != 1 {
			return Value{}, fmt.Errorf("values: Char must be one rune, got %q", str)
		}
		return Char(r[0]), nil
	case "Integer":
		i, err := strconv.ParseInt(inner, 10, 64)
		if err != nil {
			return Value{}, err
		}
		return Integer(i), nil
	case "Float":
		f, err := strconv.ParseFloat(inner, 64)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case "String":
		str, err := unquote(inner)
		if err != nil {
			return Value{}, err
		}
		return String(str), nil
	case "Uuid":
		id, err := uuid.Parse(inner)
		if err != nil {
			return Value{}, err
		}
		return UuidValue(id), nil
	case "Boolean":
		b, err := strconv.ParseBool(inner)
		if err != nil {
			return Value{}, err
		}
		return Boolean(b), nil
	case "Vector":
		elems, err := splitTopLevel(strings.TrimSuffix(strings.TrimPrefix(inner, "["), "]"))
		if err != nil {
			return Value{}, err
		}
		vec := make([]Value, 0, len(elems))
		for _, e := range elems {
			if strings.TrimSpace(e) == "" {
				continue
			}
			ev, err := Parse(strings.TrimSpace(e))
			if err != nil {
				return Value{}, err
			}
			vec = append(vec, ev)
		}
		return Vector(vec), nil
	case "Map":
		body := strings.TrimSuffix(strings.TrimPrefix(inner, "{"), "}")
		entries, err := splitTopLevel(body)
		if err != nil {
			return Value{}, err
		}
		m := map[string]Value{}
		for _, entry := range entries {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			idx := strings.Index(entry, ": ")
			if idx < 0 {
				return Value{}, fmt.Errorf("values: malformed map entry %q", entry)
			}
			key, err := unquote(entry[:idx])
			if err != nil {
				return Value{}, err
			}
			val, err := Parse(entry[idx+2:])
			if err != nil {
				return Value{}, err
			}
			m[key] = val
		}
		return Map(m), nil
	case "Hash":
		str, err := unquote(inner)
		if err != nil {
			return Value{}, err
		}
		return Hash(str), nil
	case "Precise":
		str, err := unquote(inner)
		if err != nil {
			return Value{}, err
		}
		return Precise(str), nil
	case "DateTime":
		t, err := time.Parse(time.RFC3339Nano, inner)
		if err != nil {
			return Value{}, err
		}
		return DateTime(t), nil
	default:
		return Value{}, fmt.Errorf("values: unknown variant tag %q", tag)
	}
}

func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	return strconv.Unquote(s)
}

// splitTopLevel splits a comma-separated list, respecting nested
// parens/brackets/braces/quotes so Vector/Map literals can nest.
func splitTopLevel(s string) ([]string, error) {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' && (i == 0 || s[i-1] != '\\'):
			inQuote = !inQuote
		case inQuote:
			// inside a quoted string, ignore structural characters
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		parts = append(parts, s[start:])
	}
	return parts, nil
}

package protocol

import "strings"

// IsNull reports whether a nullable positional argument (partition
// bounds, filter, group column) was left unset, per spec.md §4.6: the
// literal "null" or the empty string both mean "unset".
func IsNull(arg string) bool {
	return arg == "" || arg == "null"
}

// ParseColumnValue parses a single "col=val" cv-list entry.
func ParseColumnValue(token string) (column, value string, ok bool) {
	idx := strings.IndexByte(token, '=')
	if idx < 0 {
		return "", "", false
	}
	return token[:idx], token[idx+1:], true
}

// ParseCVListUnique parses the `col=val(&col=val)*` grammar into a
// column->value map, rejecting a repeated column name (spec.md §4.6:
// "Duplicate column names are rejected at INSERT"). A nil/empty map is
// returned for the "null" token.
func ParseCVListUnique(arg string) (map[string]string, error) {
	if IsNull(arg) {
		return nil, nil
	}

	result := make(map[string]string)
	for _, pair := range strings.Split(arg, "&") {
		col, val, ok := ParseColumnValue(pair)
		if !ok {
			return nil, WrongArg
		}
		if _, dup := result[col]; dup {
			return nil, WrongArg
		}
		result[col] = val
	}
	return result, nil
}

// ParseCVListFilter parses the same grammar into an ordered filter list
// where repeated column names are allowed and mean "any of these values"
// (spec.md §4.6).
func ParseCVListFilter(arg string) ([]ColumnValue, error) {
	if IsNull(arg) {
		return nil, nil
	}

	var result []ColumnValue
	for _, pair := range strings.Split(arg, "&") {
		col, val, ok := ParseColumnValue(pair)
		if !ok {
			return nil, WrongArg
		}
		result = append(result, ColumnValue{Column: col, Value: val})
	}
	return result, nil
}

// ColumnValue is one column/value pair of a parsed filter cv-list.
type ColumnValue struct {
	Column string
	Value  string
}

// FormatCVList renders a column->value map back into the `col=val&...`
// wire grammar, quoting the whole token when any value needs it so the
// result is always re-tokenizable as one argument. Used by the dump writer.
func FormatCVList(values map[string]string) string {
	if len(values) == 0 {
		return "null"
	}
	keys := sortedKeys(values)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(values[k])
	}
	return Quote(b.String())
}

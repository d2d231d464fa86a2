package protocol

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Reply encodings, per spec.md §6. Every function returns the full,
// already newline-terminated payload for one command's reply, ready to
// be enqueued on a session's outbound queue.

// ResultCode encodes a signed decimal result-code line.
func ResultCode(code int) []byte {
	return []byte(strconv.Itoa(code) + "\n")
}

// Scalar encodes an unsigned decimal counter/size line.
func Scalar(v uint64) []byte {
	return []byte(strconv.FormatUint(v, 10) + "\n")
}

// String encodes a single raw, printable, newline-terminated string.
func String(s string) []byte {
	return []byte(s + "\n")
}

// StringList encodes a size line followed by that many string lines.
// Entries are sorted for reproducible output (the wire spec leaves order
// unspecified).
func StringList(items []string) []byte {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", len(sorted))
	for _, s := range sorted {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// StrCountMap encodes a size line followed by "<str> <count>" lines.
func StrCountMap(m map[string]uint64) []byte {
	keys := sortedKeys(m)

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", len(keys))
	for _, k := range keys {
		fmt.Fprintf(&b, "%s %d\n", k, m[k])
	}
	return []byte(b.String())
}

// StrStrCountMap encodes a size line, then for each entry a string line
// followed by a str->count map.
func StrStrCountMap(m map[string]map[string]uint64) []byte {
	keys := sortedKeys(m)

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", len(keys))
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('\n')
		b.Write(StrCountMap(m[k]))
	}
	return []byte(b.String())
}

// StrStrSetMap encodes a size line, then for each entry a string line, a
// size line, then that many strings.
func StrStrSetMap(m map[string]map[string]struct{}) []byte {
	keys := sortedKeys(m)

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", len(keys))
	for _, k := range keys {
		set := m[k]
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)

		b.WriteString(k)
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%d\n", len(values))
		for _, v := range values {
			b.WriteString(v)
			b.WriteByte('\n')
		}
	}
	return []byte(b.String())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

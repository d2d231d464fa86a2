// Package partition implements the append-only, column-major aggregation
// store described in spec.md §4.2: per-column dictionaries, a value-id
// matrix, a parallel counter vector, and a composite-key row index giving
// O(1) insert-or-increment.
package partition

import (
	"encoding/binary"

	"github.com/expobrain/cubedb/internal/dictionary"
)

// Row is a single INSERT's payload, already parsed: a unique set of
// column->value pairs for one partition, plus the count to add.
type Row struct {
	Values map[string]string
	Count  uint64
}

// Filter is an ordered list of (column, value) pairs. A row matches a
// filter iff, for every column mentioned, at least one listed value for
// that column equals the row's id; a column not mentioned is
// unconstrained (spec.md §4.2).
type Filter []FilterPair

// FilterPair is one column/value entry of a Filter.
type FilterPair struct {
	Column string
	Value  string
}

// Partition owns per-column dictionaries, a column-major matrix of value
// ids, a parallel counter vector, and the composite-key row index.
type Partition struct {
	columnNames []string
	columnID    map[string]uint8
	dicts       []*dictionary.Dictionary
	columns     [][]uint16
	counters    []uint64
	rowIndex    map[string]int
}

// New returns an empty partition.
func New() *Partition {
	return &Partition{
		columnID: make(map[string]uint8),
		rowIndex: make(map[string]int),
	}
}

// ColumnCount returns the number of distinct columns observed so far.
func (p *Partition) ColumnCount() int { return len(p.columnNames) }

// RowCount returns the number of distinct rows stored so far.
func (p *Partition) RowCount() int { return len(p.counters) }

// HasColumn reports whether name has been observed in this partition.
func (p *Partition) HasColumn(name string) bool {
	_, ok := p.columnID[name]
	return ok
}

// Insert adds row.Count to the matching row's counter, creating the row
// (and any missing columns/dictionary entries) if needed. It returns
// false, leaving the partition entirely unchanged, if any value in row
// would overflow its column's dictionary.
func (p *Partition) Insert(row Row) bool {
	// Validate first so a dictionary-overflow failure never partially
	// mutates the partition (spec.md §4.2 atomicity requirement).
	for col, val := range row.Values {
		if id, ok := p.columnID[col]; ok {
			if !p.dicts[id].CanIntern(val) {
				return false
			}
		}
	}

	for col := range row.Values {
		p.ensureColumn(col)
	}

	ids := make([]uint16, p.ColumnCount())
	for i := range ids {
		ids[i] = dictionary.Unknown
	}
	for col, val := range row.Values {
		id := p.columnID[col]
		valueID, ok := p.dicts[id].Intern(val)
		if !ok {
			// Unreachable: validated above. Guards against a logic error
			// rather than a real runtime condition.
			return false
		}
		ids[id] = valueID
	}

	key := encodeKey(ids)
	if idx, ok := p.rowIndex[key]; ok {
		p.counters[idx] += row.Count
		return true
	}

	idx := p.RowCount()
	for c, v := range ids {
		p.columns[c] = append(p.columns[c], v)
	}
	p.counters = append(p.counters, 0)
	p.rowIndex[key] = idx
	p.counters[idx] += row.Count
	return true
}

// ensureColumn assigns name a column id if it doesn't have one yet,
// growing the column matrix and back-filling Unknown for every existing
// row, then rebuilding the row index so pre-existing rows stay reachable
// under the new, wider composite key (see SPEC_FULL.md's "Schema-growth
// correctness decision").
func (p *Partition) ensureColumn(name string) {
	if _, ok := p.columnID[name]; ok {
		return
	}
	id := uint8(p.ColumnCount())
	p.columnID[name] = id
	p.columnNames = append(p.columnNames, name)
	p.dicts = append(p.dicts, dictionary.New())

	col := make([]uint16, p.RowCount())
	for i := range col {
		col[i] = dictionary.Unknown
	}
	p.columns = append(p.columns, col)

	p.rekey()
}

// rekey rebuilds the composite-key row index from the current column
// vectors. Needed whenever the column count changes underneath
// previously inserted rows.
func (p *Partition) rekey() {
	p.rowIndex = make(map[string]int, p.RowCount())
	ids := make([]uint16, p.ColumnCount())
	for row := 0; row < p.RowCount(); row++ {
		for c := range ids {
			ids[c] = p.columns[c][row]
		}
		p.rowIndex[encodeKey(ids)] = row
	}
}

// encodeKey builds the length-prefixed composite key described in
// spec.md §4.2/§9: a byte holding the column count followed by two bytes
// per value id. Used directly as a Go map key, which gives us memcmp
// equality and a perfectly good hash for free.
func encodeKey(ids []uint16) string {
	buf := make([]byte, 1+2*len(ids))
	buf[0] = byte(len(ids))
	for i, id := range ids {
		binary.BigEndian.PutUint16(buf[1+2*i:], id)
	}
	return string(buf)
}

// convertFilter turns a Filter into a per-column set of acceptable value
// ids. ok is false if filter references a column unknown to this
// partition, in which case the partition must contribute zero matches
// rather than be treated as unconstrained.
func (p *Partition) convertFilter(filter Filter) (allowed map[uint8]map[uint16]struct{}, ok bool) {
	allowed = make(map[uint8]map[uint16]struct{})
	for _, pair := range filter {
		colID, known := p.columnID[pair.Column]
		if !known {
			return nil, false
		}
		set, ok := allowed[colID]
		if !ok {
			set = make(map[uint16]struct{})
			allowed[colID] = set
		}
		valID, ok := p.dicts[colID].Lookup(pair.Value)
		if !ok {
			valID = dictionary.FilterUnspecified
		}
		set[valID] = struct{}{}
	}
	return allowed, true
}

func (p *Partition) rowMatches(row int, allowed map[uint8]map[uint16]struct{}) bool {
	for col, set := range allowed {
		if len(set) == 0 {
			continue
		}
		if _, ok := set[p.columns[col][row]]; !ok {
			return false
		}
	}
	return true
}

// Count returns the sum of counters across rows matching filter (nil or
// empty means unconstrained).
func (p *Partition) Count(filter Filter) uint64 {
	allowed, ok := p.convertFilter(filter)
	if !ok {
		return 0
	}
	var total uint64
	for row := 0; row < p.RowCount(); row++ {
		if p.rowMatches(row, allowed) {
			total += p.counters[row]
		}
	}
	return total
}

// CountGrouped returns, for matching rows, the sum of counters bucketed
// by the string value of groupColumn. An unknown group column yields an
// empty map.
func (p *Partition) CountGrouped(filter Filter, groupColumn string) map[string]uint64 {
	result := make(map[string]uint64)

	groupID, ok := p.columnID[groupColumn]
	if !ok {
		return result
	}

	allowed, ok := p.convertFilter(filter)
	if !ok {
		return result
	}

	for row := 0; row < p.RowCount(); row++ {
		if !p.rowMatches(row, allowed) {
			continue
		}
		valID := p.columns[groupID][row]
		value, ok := p.dicts[groupID].Reverse(valID)
		if !ok {
			continue
		}
		result[value] += p.counters[row]
	}
	return result
}

// ExtendColumnValueSet adds every column name observed in this partition
// to dest, and every value ever interned for that column to dest[name].
func (p *Partition) ExtendColumnValueSet(dest map[string]map[string]struct{}) {
	for name, id := range p.columnID {
		set, ok := dest[name]
		if !ok {
			set = make(map[string]struct{})
			dest[name] = set
		}
		for _, v := range p.dicts[id].Values() {
			set[v] = struct{}{}
		}
	}
}

// RowVisitor receives one materialized row during ForEachRow.
type RowVisitor func(values map[string]string, count uint64)

// ForEachRow materializes one Row-shaped view per stored row (used by the
// dump writer). Unknown columns are omitted from the values map rather
// than emitted as a literal sentinel.
func (p *Partition) ForEachRow(visit RowVisitor) {
	for row := 0; row < p.RowCount(); row++ {
		values := make(map[string]string)
		for c, name := range p.columnNames {
			id := p.columns[c][row]
			if id == dictionary.Unknown {
				continue
			}
			if v, ok := p.dicts[c].Reverse(id); ok {
				values[name] = v
			}
		}
		visit(values, p.counters[row])
	}
}

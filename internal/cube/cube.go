// Package cube implements the mapping partition-name -> partition with
// lexicographic (locale-collated) range iteration described in
// spec.md §4.3.
package cube

import (
	"sort"

	"github.com/expobrain/cubedb/internal/partition"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// collator is locked to the root collation (language.Und) so partition
// ordering is reproducible across hosts and locales, per SPEC_FULL.md's
// resolution of the spec.md §9 "document a fixed collation" note.
var collator = collate.New(language.Und)

// Cube owns a named collection of partitions.
type Cube struct {
	partitions map[string]*partition.Partition
}

// New returns an empty cube.
func New() *Cube {
	return &Cube{partitions: make(map[string]*partition.Partition)}
}

// Insert finds or creates the named partition and delegates the insert.
func (c *Cube) Insert(partitionName string, row partition.Row) bool {
	p, ok := c.partitions[partitionName]
	if !ok {
		p = partition.New()
		c.partitions[partitionName] = p
	}
	return p.Insert(row)
}

// HasPartition reports whether name exists in this cube.
func (c *Cube) HasPartition(name string) bool {
	_, ok := c.partitions[name]
	return ok
}

// PartitionNames returns every partition name, collation-sorted.
func (c *Cube) PartitionNames() []string {
	names := make([]string, 0, len(c.partitions))
	for name := range c.partitions {
		names = append(names, name)
	}
	sortCollated(names)
	return names
}

func sortCollated(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return collator.CompareString(names[i], names[j]) < 0
	})
}

// inRange reports whether name falls in [from, to] under the locked
// collation; an empty bound is unconstrained on that side.
func inRange(name, from, to string) bool {
	if from != "" && collator.CompareString(name, from) < 0 {
		return false
	}
	if to != "" && collator.CompareString(name, to) > 0 {
		return false
	}
	return true
}

// namesInRange returns the collation-sorted partition names whose name
// falls within [from, to].
func (c *Cube) namesInRange(from, to string) []string {
	all := c.PartitionNames()
	out := make([]string, 0, len(all))
	for _, name := range all {
		if inRange(name, from, to) {
			out = append(out, name)
		}
	}
	return out
}

// ForEachPartition visits every partition, collation-sorted by name.
func (c *Cube) ForEachPartition(visit func(name string, p *partition.Partition)) {
	for _, name := range c.PartitionNames() {
		visit(name, c.partitions[name])
	}
}

// CountFromTo sums counts across partitions in [from, to] as a single
// scalar. groupColumn is not used here; grouped counts come from
// CountFromToGrouped.
func (c *Cube) CountFromTo(from, to string, filter partition.Filter, groupColumn string) uint64 {
	var total uint64
	for _, name := range c.namesInRange(from, to) {
		total += c.partitions[name].Count(filter)
	}
	return total
}

// CountFromToGrouped is the grouped counterpart of CountFromTo: it returns
// a value->count map for groupColumn, merging per-partition grouped maps
// by adding counters for equal keys.
func (c *Cube) CountFromToGrouped(from, to string, filter partition.Filter, groupColumn string) map[string]uint64 {
	result := make(map[string]uint64)
	for _, name := range c.namesInRange(from, to) {
		for k, v := range c.partitions[name].CountGrouped(filter, groupColumn) {
			result[k] += v
		}
	}
	return result
}

// PCountFromTo returns partition-name -> scalar count for every partition
// in [from, to].
func (c *Cube) PCountFromTo(from, to string, filter partition.Filter) map[string]uint64 {
	result := make(map[string]uint64)
	for _, name := range c.namesInRange(from, to) {
		result[name] = c.partitions[name].Count(filter)
	}
	return result
}

// PCountFromToGrouped returns partition-name -> (value -> count) for
// every partition in [from, to].
func (c *Cube) PCountFromToGrouped(from, to string, filter partition.Filter, groupColumn string) map[string]map[string]uint64 {
	result := make(map[string]map[string]uint64)
	for _, name := range c.namesInRange(from, to) {
		result[name] = c.partitions[name].CountGrouped(filter, groupColumn)
	}
	return result
}

// DeletePartitionFromTo drops every partition in [from, to] and returns
// how many were removed.
func (c *Cube) DeletePartitionFromTo(from, to string) int {
	names := c.namesInRange(from, to)
	for _, name := range names {
		delete(c.partitions, name)
	}
	return len(names)
}

// GetColumnsToValueSet unions the column/value sets of every partition in
// [from, to]. Empty from/to means every partition.
func (c *Cube) GetColumnsToValueSet(from, to string) map[string]map[string]struct{} {
	dest := make(map[string]map[string]struct{})
	for _, name := range c.namesInRange(from, to) {
		c.partitions[name].ExtendColumnValueSet(dest)
	}
	return dest
}

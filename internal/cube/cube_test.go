package cube

import (
	"testing"

	"github.com/expobrain/cubedb/internal/partition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertCreatesPartitionOnDemand(t *testing.T) {
	c := New()
	require.True(t, c.Insert("p1", partition.Row{Values: map[string]string{"col": "a"}, Count: 3}))
	assert.True(t, c.HasPartition("p1"))
	assert.False(t, c.HasPartition("p2"))
}

func TestCountFromToScalarRange(t *testing.T) {
	c := New()
	require.True(t, c.Insert("p1", partition.Row{Values: map[string]string{"col": "a"}, Count: 3}))
	require.True(t, c.Insert("p1", partition.Row{Values: map[string]string{"col": "a"}, Count: 5}))

	assert.EqualValues(t, 8, c.CountFromTo("p1", "p1", nil, ""))
}

func TestCountFromToGroupedMergesAcrossPartitions(t *testing.T) {
	c := New()
	require.True(t, c.Insert("p1", partition.Row{Values: map[string]string{"col": "a"}, Count: 3}))
	require.True(t, c.Insert("p2", partition.Row{Values: map[string]string{"col": "b"}, Count: 7}))

	got := c.CountFromToGrouped("p1", "p2", nil, "col")
	assert.Equal(t, map[string]uint64{"a": 3, "b": 7}, got)
}

func TestPCountFromTo(t *testing.T) {
	c := New()
	require.True(t, c.Insert("p1", partition.Row{Values: map[string]string{"col": "a"}, Count: 3}))
	require.True(t, c.Insert("p2", partition.Row{Values: map[string]string{"col": "b"}, Count: 7}))

	got := c.PCountFromTo("p1", "p2", nil)
	assert.Equal(t, map[string]uint64{"p1": 3, "p2": 7}, got)
}

func TestCountAndPCountAgree(t *testing.T) {
	c := New()
	require.True(t, c.Insert("p1", partition.Row{Values: map[string]string{"col": "a"}, Count: 3}))
	require.True(t, c.Insert("p2", partition.Row{Values: map[string]string{"col": "a"}, Count: 5}))
	require.True(t, c.Insert("p3", partition.Row{Values: map[string]string{"col": "a"}, Count: 7}))

	scalar := c.CountFromTo("p1", "p3", nil, "")

	var sum uint64
	for _, v := range c.PCountFromTo("p1", "p3", nil) {
		sum += v
	}
	assert.Equal(t, scalar, sum)
}

func TestRangeFromGreaterThanToSelectsNothing(t *testing.T) {
	c := New()
	require.True(t, c.Insert("p1", partition.Row{Values: map[string]string{"col": "a"}, Count: 3}))
	require.True(t, c.Insert("p2", partition.Row{Values: map[string]string{"col": "a"}, Count: 5}))

	assert.EqualValues(t, 0, c.CountFromTo("p2", "p1", nil, ""))
}

func TestEmptyCubeCountIsZero(t *testing.T) {
	c := New()
	assert.EqualValues(t, 0, c.CountFromTo("", "", nil, ""))
}

func TestDeletePartitionFromTo(t *testing.T) {
	c := New()
	require.True(t, c.Insert("p1", partition.Row{Values: map[string]string{"col": "a"}, Count: 1}))
	require.True(t, c.Insert("p2", partition.Row{Values: map[string]string{"col": "a"}, Count: 1}))

	n := c.DeletePartitionFromTo("p1", "p1")
	assert.Equal(t, 1, n)
	assert.False(t, c.HasPartition("p1"))
	assert.True(t, c.HasPartition("p2"))
}

func TestGetColumnsToValueSet(t *testing.T) {
	c := New()
	require.True(t, c.Insert("p1", partition.Row{Values: map[string]string{"col": "a"}, Count: 1}))
	require.True(t, c.Insert("p2", partition.Row{Values: map[string]string{"col": "b"}, Count: 1}))

	got := c.GetColumnsToValueSet("", "")
	require.Contains(t, got, "col")
	assert.Contains(t, got["col"], "a")
	assert.Contains(t, got["col"], "b")
}

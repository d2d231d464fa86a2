package cubedb

import (
	"testing"

	"github.com/expobrain/cubedb/internal/partition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCubeFailsIfExists(t *testing.T) {
	db := New()
	assert.True(t, db.AddCube("c1"))
	assert.False(t, db.AddCube("c1"))
}

func TestDeleteCubeFailsIfMissing(t *testing.T) {
	db := New()
	_, ok := db.DeleteCube("missing")
	assert.False(t, ok)

	require.True(t, db.AddCube("c1"))
	c, ok := db.DeleteCube("c1")
	assert.True(t, ok)
	assert.NotNil(t, c)

	_, ok = db.FindCube("c1")
	assert.False(t, ok)
}

func TestInsertAutoCreatesCube(t *testing.T) {
	db := New()
	ok := db.InsertAutoCreate("c1", "p1", partition.Row{
		Values: map[string]string{"col": "a"},
		Count:  3,
	})
	require.True(t, ok)

	c, ok := db.FindCube("c1")
	require.True(t, ok)
	assert.EqualValues(t, 3, c.CountFromTo("p1", "p1", nil, ""))
}

func TestCubeNamesSorted(t *testing.T) {
	db := New()
	require.True(t, db.AddCube("zeta"))
	require.True(t, db.AddCube("alpha"))

	assert.Equal(t, []string{"alpha", "zeta"}, db.CubeNames())
}

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCVListUnique(t *testing.T) {
	m, err := ParseCVListUnique("col=a&col2=x")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"col": "a", "col2": "x"}, m)
}

func TestParseCVListUniqueRejectsDuplicateColumn(t *testing.T) {
	_, err := ParseCVListUnique("col=a&col=b")
	require.Error(t, err)
	assert.Equal(t, WrongArg, err)
}

func TestParseCVListUniqueNull(t *testing.T) {
	m, err := ParseCVListUnique("null")
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = ParseCVListUnique("")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestParseCVListFilterAllowsDuplicateColumn(t *testing.T) {
	pairs, err := ParseCVListFilter("col=a&col=b")
	require.NoError(t, err)
	assert.Equal(t, []ColumnValue{{"col", "a"}, {"col", "b"}}, pairs)
}

func TestFormatCVListRoundTrips(t *testing.T) {
	s := FormatCVList(map[string]string{"col": "a", "col2": "x"})
	m, err := ParseCVListUnique(s)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"col": "a", "col2": "x"}, m)
}

func TestFormatCVListEmptyIsNull(t *testing.T) {
	assert.Equal(t, "null", FormatCVList(nil))
}

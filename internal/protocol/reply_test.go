package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScalarEncoding(t *testing.T) {
	assert.Equal(t, "8\n", string(Scalar(8)))
}

func TestResultCodeEncoding(t *testing.T) {
	assert.Equal(t, "0\n", string(ResultCode(OK)))
	assert.Equal(t, "-6\n", string(ResultCode(ErrObjExists)))
}

func TestStringListEncoding(t *testing.T) {
	got := StringList([]string{"b", "a"})
	assert.Equal(t, "2\na\nb\n", string(got))
}

func TestStrCountMapEncoding(t *testing.T) {
	got := StrCountMap(map[string]uint64{"a": 3, "b": 7})
	assert.Equal(t, "2\na 3\nb 7\n", string(got))
}

func TestStrStrCountMapEncoding(t *testing.T) {
	got := StrStrCountMap(map[string]map[string]uint64{
		"p1": {"a": 3},
		"p2": {"b": 7},
	})
	assert.Equal(t, "2\np1\n1\na 3\np2\n1\nb 7\n", string(got))
}

func TestStrStrSetMapEncoding(t *testing.T) {
	got := StrStrSetMap(map[string]map[string]struct{}{
		"col": {"a": {}, "b": {}},
	})
	assert.Equal(t, "1\ncol\n2\na\nb\n", string(got))
}

package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeSimple(t *testing.T) {
	args, err := Tokenize("COUNT c1 p1 p2 null col")
	require.NoError(t, err)
	assert.Equal(t, []string{"COUNT", "c1", "p1", "p2", "null", "col"}, args)
}

func TestTokenizeDoubleQuotesKeepSpaces(t *testing.T) {
	args, err := Tokenize(`INSERT c1 p1 "col=a b" 3`)
	require.NoError(t, err)
	assert.Equal(t, []string{"INSERT", "c1", "p1", "col=a b", "3"}, args)
}

func TestTokenizeHexEscape(t *testing.T) {
	args, err := Tokenize(`PING "\x41\x42"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"PING", "AB"}, args)
}

func TestTokenizeSingleQuotesNoEscapes(t *testing.T) {
	args, err := Tokenize(`PING 'a\nb'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"PING", `a\nb`}, args)
}

func TestTokenizeUnterminatedQuoteIsWrongArg(t *testing.T) {
	_, err := Tokenize(`PING "unterminated`)
	require.Error(t, err)
	assert.Equal(t, WrongArg, err)
}

func TestTokenizeQueryTooLong(t *testing.T) {
	_, err := Tokenize(strings.Repeat("a", MaxQueryBytes+1))
	require.Error(t, err)
	assert.Equal(t, QueryTooLong, err)
}

func TestCheckPrintableRejectsNonPrintable(t *testing.T) {
	args, err := Tokenize("PING \x01bad")
	require.NoError(t, err)
	assert.Equal(t, MalformedArg, CheckPrintable(args))
}

func TestCheckPrintableAcceptsPrintable(t *testing.T) {
	args, err := Tokenize("PING hello")
	require.NoError(t, err)
	assert.NoError(t, CheckPrintable(args))
}

func TestQuoteRoundTrips(t *testing.T) {
	for _, v := range []string{"plain", "with space", `with"quote`, "with&amp", "col=val"} {
		line := "INSERT c1 p1 col=" + Quote(v) + " 1"
		args, err := Tokenize(line)
		require.NoError(t, err)
		require.Len(t, args, 5)
		assert.Equal(t, "col="+v, args[3])
	}
}

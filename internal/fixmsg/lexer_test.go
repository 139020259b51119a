package fixmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexSohDelimited(t *testing.T) {
	raw := "8=FIX.4.4\x0135=AE\x01571=VB123\x0175=20250512\x01"

	fields := Lex(raw)

	require.Len(t, fields, 4)
	assert.Equal(t, Field{Tag: 8, Value: "FIX.4.4"}, fields[0])
	assert.Equal(t, "AE", fields.First(TagMsgType))
	assert.Equal(t, "VB123", fields.First(TagTradeReportID))
}

func TestLexPipeDelimited(t *testing.T) {
	fields := Lex("35=AE|571=VB123|75=20250512")

	require.Len(t, fields, 3)
	assert.Equal(t, "20250512", fields.First(TagTradeDate))
}

func TestLexSpaceDelimited(t *testing.T) {
	fields := Lex("35=AE 571=VB123 75=20250512")

	require.Len(t, fields, 3)
	assert.Equal(t, "VB123", fields.First(TagTradeReportID))
}

func TestLexDropsNonNumericTagsAndEmptyValues(t *testing.T) {
	fields := Lex("35=AE|abc=1|55=|=EUR|571=VB123")

	require.Len(t, fields, 2)
	assert.Equal(t, "AE", fields[0].Value)
	assert.Equal(t, "VB123", fields[1].Value)
}

func TestLexPreservesDuplicateTagsInOrder(t *testing.T) {
	fields := Lex("600=EUR/USD|624=B|600=EUR/USD|624=C")

	var legSides []string
	for _, f := range fields {
		if f.Tag == TagLegSide {
			legSides = append(legSides, f.Value)
		}
	}
	assert.Equal(t, []string{"B", "C"}, legSides)
}

func TestLexGarbageReturnsEmpty(t *testing.T) {
	assert.Empty(t, Lex("this is not a fix message"))
	assert.Empty(t, Lex(""))
	assert.Empty(t, Lex("   "))
}

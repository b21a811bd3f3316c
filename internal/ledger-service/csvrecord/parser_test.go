package csvrecord

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_QuotedFields(t *testing.T) {
	text := "Pick,Odds,Stake,Notes\n" +
		"\"Lakers -3.5, 1H\",-110,\"$1,000.00\",\"said \"\"lock\"\" twice\"\n"

	tbl, err := ParseString(text)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Empty(t, tbl.Errors)

	row := tbl.Rows[0]
	assert.Equal(t, 2, row.Line)
	assert.Equal(t, "Lakers -3.5, 1H", row.Get("Pick"))
	assert.Equal(t, "-110", row.Get("Odds"))
	assert.Equal(t, "$1,000.00", row.Get("Stake"))
	assert.Equal(t, `said "lock" twice`, row.Get("Notes"))
}

func TestParse_TrimsWhitespace(t *testing.T) {
	tbl, err := ParseString(" Pick , Odds \n  Over 8.5 ,  +105  \n")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pick", "Odds"}, tbl.Headers)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Over 8.5", tbl.Rows[0].Get("Pick"))
	assert.Equal(t, "+105", tbl.Rows[0].Get("Odds"))
}

func TestParse_BlankLinesSkipped(t *testing.T) {
	tbl, err := ParseString("a,b\n\n1,2\n   \n,\n3,4\n\n")
	require.NoError(t, err)
	assert.Empty(t, tbl.Errors)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, 3, tbl.Rows[0].Line)
	assert.Equal(t, 6, tbl.Rows[1].Line)
}

func TestParse_PadsAndTruncates(t *testing.T) {
	tbl, err := ParseString("a,b,c\n1\n1,2,3,4,5\n")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)

	assert.Equal(t, map[string]string{"a": "1", "b": "", "c": ""}, tbl.Rows[0].Values)
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": "3"}, tbl.Rows[1].Values)
}

func TestParse_UnterminatedQuoteOnlyDropsItsLine(t *testing.T) {
	text := strings.Join([]string{
		"pick,odds,stake",
		"Yankees ML,-150,1",
		`"Celtics unterminated,-110,1`,
		"Rangers ML,-110,1",
		"Oilers ML,+120,2",
		"Bruins ML,+130,3",
	}, "\n")

	tbl, err := ParseString(text)
	require.NoError(t, err)
	require.Len(t, tbl.Errors, 1)
	assert.Equal(t, 3, tbl.Errors[0].Line)
	assert.NotEmpty(t, tbl.Errors[0].Reason)

	require.Len(t, tbl.Rows, 4)
	assert.Equal(t, "Yankees ML", tbl.Rows[0].Get("pick"))
	assert.Equal(t, "Rangers ML", tbl.Rows[1].Get("pick"))
	assert.Equal(t, 4, tbl.Rows[1].Line)
	assert.Equal(t, "Oilers ML", tbl.Rows[2].Get("pick"))
	assert.Equal(t, "Bruins ML", tbl.Rows[3].Get("pick"))
	assert.Equal(t, "3", tbl.Rows[3].Get("stake"))
}

func TestParse_BareQuoteIsLiteral(t *testing.T) {
	tbl, err := ParseString("pick,odds,stake\nWemby 7'3\" tall rebounds o12.5,-110,1\r\nCeltics ML,+120,2\r\n")
	require.NoError(t, err)
	assert.Empty(t, tbl.Errors)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, `Wemby 7'3" tall rebounds o12.5`, tbl.Rows[0].Get("pick"))
	assert.Equal(t, "1", tbl.Rows[0].Get("stake"))
	assert.Equal(t, "2", tbl.Rows[1].Get("stake"))
}

func TestParse_ExtraneousQuoteIsRecorded(t *testing.T) {
	tbl, err := ParseString("pick,odds\n\"Lakers\"x,-110\nCeltics ML,+120\n")
	require.NoError(t, err)
	require.Len(t, tbl.Errors, 1)
	assert.Equal(t, 2, tbl.Errors[0].Line)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Celtics ML", tbl.Rows[0].Get("pick"))
}

func TestParse_BOMAndDuplicateHeaders(t *testing.T) {
	tbl, err := ParseString("\xEF\xBB\xBFpick,pick,odds\nfirst,second,-110\n")
	require.NoError(t, err)
	assert.Equal(t, "pick", tbl.Headers[0])
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "first", tbl.Rows[0].Get("pick"))
}

func TestParse_Empty(t *testing.T) {
	tbl, err := ParseString("")
	require.NoError(t, err)
	assert.Nil(t, tbl.Headers)
	assert.Empty(t, tbl.Rows)

	tbl, err = ParseString("pick,odds\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"pick", "odds"}, tbl.Headers)
	assert.Empty(t, tbl.Rows)
}

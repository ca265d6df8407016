package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

func TestDecodeRecords(t *testing.T) {
	recs, err := DecodeRecords([]byte(`[{"A":"x","B":2,"C":null,"D":{"k":1}},{"A":"y"}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "x", recs[0].Get("A").String())
	assert.Equal(t, "2", recs[0].Get("B").String())
	assert.True(t, recs[0].Get("C").IsEmpty())
	assert.Equal(t, `{"k":1}`, recs[0].Get("D").String())

	one, err := DecodeRecords([]byte(` {"A":"solo"} `))
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "solo", one[0].Get("A").String())
}

func TestDecodeRecordsRejects(t *testing.T) {
	for _, in := range []string{``, `42`, `"text"`, `[1,2]`, `[null]`, `{"A":`, `not json`} {
		_, err := DecodeRecords([]byte(in))
		assert.ErrorIs(t, err, ErrNotRecords, in)
	}
}

func TestMergeRecords(t *testing.T) {
	existing := types.FromStrings("AI_JSON_DATA", [][]string{{"Z", "A"}, {"1", "2"}})
	got := MergeRecords(existing, []types.Record{
		{"A": types.Text("3"), "M": types.Text("m")},
		{"B": types.Text("b")},
	})
	assert.Equal(t, [][]string{
		{"Z", "A", "B", "M"},
		{"1", "2", "", ""},
		{"", "3", "", "m"},
		{"", "", "b", ""},
	}, got.Strings())
	assert.Equal(t, 1, existing.Len(), "input untouched")
}

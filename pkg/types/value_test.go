package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKinds(t *testing.T) {
	assert.True(t, Empty().IsEmpty())
	assert.True(t, Text("").IsEmpty(), "empty text collapses to Empty")
	assert.Equal(t, KindText, Text("x").Kind())
	assert.True(t, DateOf(2024, time.December, 31).IsDate())
}

func TestValueString(t *testing.T) {
	tests := []struct {
		name        string
		v           Value
		wantDisplay string
		wantStorage string
	}{
		{"empty", Empty(), "", ""},
		{"text", Text("Nguyễn Văn A"), "Nguyễn Văn A", "Nguyễn Văn A"},
		{"date", DateOf(2024, time.March, 5), "05/03/2024", "2024-03-05"},
		{"invalid", Invalid("31/02/2024x"), "", "31/02/2024x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantDisplay, tt.v.String())
			assert.Equal(t, tt.wantStorage, tt.v.StorageString())
		})
	}
}

func TestDateTruncatesToDay(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	v := Date(time.Date(2024, time.January, 2, 23, 59, 0, 0, loc))
	got, ok := v.Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestMalformed(t *testing.T) {
	raw, ok := Invalid("not-a-date").Malformed()
	assert.True(t, ok)
	assert.Equal(t, "not-a-date", raw)

	_, ok = Empty().Malformed()
	assert.False(t, ok)

	_, ok = Text("x").Malformed()
	assert.False(t, ok)
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Invalid("junk").Equal(Empty()))
	assert.True(t, DateOf(2024, 1, 1).Equal(Date(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))))
	assert.False(t, Text("2024-01-01").Equal(DateOf(2024, 1, 1)))
	assert.False(t, Text("a").Equal(Text("b")))
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal([]Value{Text("a"), DateOf(2024, 12, 31), Empty()})
	require.NoError(t, err)
	assert.JSONEq(t, `["a","2024-12-31",""]`, string(data))

	var got []Value
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 3)
	assert.Equal(t, KindText, got[1].Kind(), "dates come back as text until parsed")
	assert.True(t, got[2].IsEmpty())
}

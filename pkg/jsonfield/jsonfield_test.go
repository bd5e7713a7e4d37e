package jsonfield

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, payload string) any {
	t.Helper()
	v, ok := Parse([]byte(payload))
	require.True(t, ok, "payload should parse: %s", payload)
	return v
}

func TestParse_Invalid(t *testing.T) {
	_, ok := Parse([]byte("not json"))
	assert.False(t, ok)

	_, ok = Parse([]byte{0xff, 0xfe})
	assert.False(t, ok)
}

func TestNumeric(t *testing.T) {
	v := mustParse(t, `{"W": 1500, "data": {"power": 1234.5}, "string_num": "42.5", "label": "meter"}`)

	got, ok := Numeric(v, "W")
	require.True(t, ok)
	assert.Equal(t, 1500.0, got)

	got, ok = Numeric(v, "data.power")
	require.True(t, ok)
	assert.Equal(t, 1234.5, got)

	got, ok = Numeric(v, "string_num")
	require.True(t, ok)
	assert.Equal(t, 42.5, got)

	_, ok = Numeric(v, "label")
	assert.False(t, ok)

	_, ok = Numeric(v, "nonexistent")
	assert.False(t, ok)

	_, ok = Numeric(v, "data.power.deeper")
	assert.False(t, ok)
}

func TestFlatten(t *testing.T) {
	v := mustParse(t, `{
		"name": "test",
		"value": 42,
		"active": true,
		"missing": null,
		"data": {"nested": "value"}
	}`)

	fields := Flatten(v)

	assert.Equal(t, TypeString, fields["name"])
	assert.Equal(t, TypeNumber, fields["value"])
	assert.Equal(t, TypeBoolean, fields["active"])
	assert.Equal(t, TypeNull, fields["missing"])
	assert.Equal(t, TypeObject, fields["data"])
	assert.Equal(t, TypeString, fields["data.nested"])
}

func TestFlatten_ArrayFirstElementOnly(t *testing.T) {
	v := mustParse(t, `{"readings": [{"v": 1}, {"v": "two"}]}`)

	fields := Flatten(v)

	assert.Equal(t, TypeArray, fields["readings"])
	assert.Equal(t, TypeObject, fields["readings[0]"])
	assert.Equal(t, TypeNumber, fields["readings[0].v"])
	// Second element never inspected
	assert.NotContains(t, fields, "readings[1]")
	assert.NotContains(t, fields, "readings[1].v")
}

func TestNumericFields(t *testing.T) {
	v := mustParse(t, `{"W": 1500, "V": 230.5, "type": "meter", "data": {"power": 1234}, "s": "7"}`)

	fields := NumericFields(v)

	paths := make(map[string]float64, len(fields))
	for _, f := range fields {
		paths[f.Path] = f.Value
	}

	assert.Equal(t, 1500.0, paths["W"])
	assert.Equal(t, 230.5, paths["V"])
	assert.Equal(t, 1234.0, paths["data.power"])
	assert.Equal(t, 7.0, paths["s"])
	assert.NotContains(t, paths, "type")
}

func TestTimestamp_Priority(t *testing.T) {
	v := mustParse(t, `{"ts": 1700000000, "t": 1}`)

	got, ok := Timestamp(v)
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1700000000000), got)
}

func TestTimestamp_MillisVsSeconds(t *testing.T) {
	// Above 10^12: already milliseconds
	v := mustParse(t, `{"timestamp": 1700000000123}`)
	got, ok := Timestamp(v)
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1700000000123), got)

	// Below: epoch seconds
	v = mustParse(t, `{"timestamp": 1700000000}`)
	got, ok = Timestamp(v)
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1700000000000), got)
}

func TestTimestamp_NumericString(t *testing.T) {
	v := mustParse(t, `{"time": "1700000000"}`)

	got, ok := Timestamp(v)
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1700000000000), got)
}

func TestTimestamp_Absent(t *testing.T) {
	_, ok := Timestamp(mustParse(t, `{"value": 12}`))
	assert.False(t, ok)

	// Present but not numeric: rejected, later candidates not consulted
	_, ok = Timestamp(mustParse(t, `{"timestamp": "yesterday", "ts": 1700000000}`))
	assert.False(t, ok)

	// Non-object payloads carry no timestamp
	_, ok = Timestamp(mustParse(t, `[1, 2, 3]`))
	assert.False(t, ok)
}

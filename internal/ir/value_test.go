package ir

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGo(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		in   any
		want IRValue
	}{
		{"nil", nil, IRNull{}},
		{"string", "bob", IRString("bob")},
		{"bytes", []byte("raw"), IRString("raw")},
		{"bool", true, IRBool(true)},
		{"int", 42, IRInt(42)},
		{"int8", int8(-3), IRInt(-3)},
		{"int32", int32(7), IRInt(7)},
		{"int64", int64(1 << 40), IRInt(1 << 40)},
		{"uint16", uint16(9), IRInt(9)},
		{"uint64", uint64(10), IRInt(10)},
		{"float32", float32(1.5), IRFloat(1.5)},
		{"float64", 2.25, IRFloat(2.25)},
		{"time", ts, IRString("2024-03-01T12:00:00Z")},
		{"already IR", IRInt(5), IRInt(5)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromGo(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFromGo_Errors(t *testing.T) {
	_, err := FromGo(struct{}{})
	assert.Error(t, err)

	_, err = FromGo(uint64(math.MaxUint64))
	assert.Error(t, err, "uint64 beyond int64 range must be rejected")
}

func TestToGo(t *testing.T) {
	assert.Nil(t, ToGo(IRNull{}))
	assert.Nil(t, ToGo(nil))
	assert.Equal(t, "x", ToGo(IRString("x")))
	assert.Equal(t, int64(3), ToGo(IRInt(3)))
	assert.Equal(t, 0.5, ToGo(IRFloat(0.5)))
	assert.Equal(t, false, ToGo(IRBool(false)))
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(IRNull{}))
	assert.False(t, IsNull(IRString("")))
	assert.False(t, IsNull(IRInt(0)))
}

func TestString(t *testing.T) {
	assert.Equal(t, "NULL", String(IRNull{}))
	assert.Equal(t, "12", String(IRInt(12)))
	assert.Equal(t, "1.5", String(IRFloat(1.5)))
	assert.Equal(t, "true", String(IRBool(true)))
	assert.Equal(t, "Bob", String(IRString("Bob")))
}

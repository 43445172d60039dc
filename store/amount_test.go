package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountScan(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected Amount
		wantErr  bool
	}{
		{name: "null", value: nil, expected: 0},
		{name: "integer", value: int64(42), expected: 42},
		{name: "text", value: "18446744073709551615", expected: math.MaxUint64},
		{name: "bytes", value: []byte("9223372036854775808"), expected: 1 << 63},
		{name: "negative integer", value: int64(-1), wantErr: true},
		{name: "negative text", value: "-1", wantErr: true},
		{name: "too large", value: "18446744073709551616", wantErr: true},
		{name: "float", value: 1.5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Amount(7)
			err := a.Scan(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, a)
		})
	}

	v, err := Amount(math.MaxUint64).Value()
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", v)
}

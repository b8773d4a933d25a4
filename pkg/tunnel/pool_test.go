package tunnel

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addrs(t *testing.T, ss ...string) []netip.Addr {
	t.Helper()
	out := make([]netip.Addr, len(ss))
	for i, s := range ss {
		out[i] = netip.MustParseAddr(s)
	}
	return out
}

func TestPool_Allocate(t *testing.T) {
	pool, err := NewPool("10.0.0.0/24", "10.0.0.5", "10.0.0.254")
	require.NoError(t, err)

	tests := []struct {
		name   string
		active []netip.Addr
		want   string
	}{
		{name: "empty", active: nil, want: "10.0.0.5"},
		{name: "first taken", active: addrs(t, "10.0.0.5"), want: "10.0.0.6"},
		{name: "gap is reused", active: addrs(t, "10.0.0.5", "10.0.0.7"), want: "10.0.0.6"},
		{name: "order does not matter", active: addrs(t, "10.0.0.6", "10.0.0.5"), want: "10.0.0.7"},
		{name: "reserved addresses ignored", active: addrs(t, "10.0.0.1", "10.0.0.2"), want: "10.0.0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pool.Allocate(tt.active)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestPool_Exhausted(t *testing.T) {
	pool, err := NewPool("10.0.0.0/24", "10.0.0.5", "10.0.0.7")
	require.NoError(t, err)

	_, err = pool.Allocate(addrs(t, "10.0.0.5", "10.0.0.6", "10.0.0.7"))
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestPool_SizeAndBits(t *testing.T) {
	pool, err := NewPool("10.0.0.0/24", "10.0.0.5", "10.0.0.254")
	require.NoError(t, err)

	assert.Equal(t, 250, pool.Size())
	assert.Equal(t, 24, pool.Bits())
}

func TestNewPool_Invalid(t *testing.T) {
	_, err := NewPool("10.0.0.0", "10.0.0.5", "10.0.0.254")
	assert.Error(t, err)

	_, err = NewPool("10.0.0.0/24", "10.0.1.5", "10.0.0.254")
	assert.Error(t, err)

	_, err = NewPool("10.0.0.0/24", "10.0.0.9", "10.0.0.8")
	assert.Error(t, err)
}

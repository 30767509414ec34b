package utils

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePort(t *testing.T) {
	for _, p := range []int{1, 80, 8500, 65535} {
		assert.NoError(t, ValidatePort(p), "port %d", p)
	}
	for _, p := range []int{-1, 0, 65536, 100000} {
		err := ValidatePort(p)
		assert.True(t, errors.Is(err, ErrInvalidPort), "port %d", p)
	}
}

func TestParsePort(t *testing.T) {
	port, err := ParsePort(" 8500\n")
	require.NoError(t, err)
	assert.Equal(t, 8500, port)

	for _, s := range []string{"", "abc", "0", "70000", "85.5"} {
		_, err := ParsePort(s)
		assert.ErrorIs(t, err, ErrInvalidPort, "input %q", s)
	}
}

func TestCheckPortListenable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port

	assert.False(t, CheckPortListenable(port))
	assert.True(t, CheckPortConnectable(port))

	l.Close()
	assert.True(t, CheckPortListenable(port))
	assert.False(t, CheckPortListenable(0))
}

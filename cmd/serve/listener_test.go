package serve

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListenAddr(t *testing.T) {
	assert.Equal(t, ListenAddr{Network: "tcp", Address: "127.0.0.1:8499"}, ParseListenAddr("127.0.0.1:8499"))
	assert.Equal(t, ListenAddr{Network: "unix", Address: "/run/handover.sock"}, ParseListenAddr("unix:/run/handover.sock"))
	assert.Equal(t, ListenAddr{Network: "unix", Address: "/run/handover.sock"}, ParseListenAddr("unix:///run/handover.sock"))
}

func TestCreateListeners(t *testing.T) {
	listeners, err := CreateListeners([]ListenAddr{{Network: "tcp", Address: "127.0.0.1:0"}})
	require.NoError(t, err)
	require.Len(t, listeners, 1)
	defer listeners[0].Close()

	// the port is taken now
	addr := listeners[0].Addr().String()
	again, err := CreateListeners([]ListenAddr{{Network: "tcp", Address: addr}})
	assert.Error(t, err)
	assert.Empty(t, again)
}

func TestCreateListenersUnixSocket(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets")
	}
	path := filepath.Join(t.TempDir(), "ctl.sock")
	first, err := CreateListeners([]ListenAddr{{Network: "unix", Address: path}})
	require.NoError(t, err)
	require.Len(t, first, 1)
	first[0].Close()

	// a stale socket file does not block the next start
	second, err := CreateListeners([]ListenAddr{{Network: "unix", Address: path}})
	require.NoError(t, err)
	require.Len(t, second, 1)
	second[0].Close()
}

package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSetsServerVariables(t *testing.T) {
	environ, err := Build([]string{"PATH=/usr/bin", "PORT=1", "NODE_ENV=development"}, 8500, "/opt/handover", nil)
	require.NoError(t, err)

	v, ok := Lookup(environ, "PORT")
	require.True(t, ok)
	assert.Equal(t, "8500", v)

	v, _ = Lookup(environ, "NODE_ENV")
	assert.Equal(t, "production", v)

	v, _ = Lookup(environ, "FRONTEND_URL")
	assert.Equal(t, "http://localhost:8500", v)

	v, _ = Lookup(environ, "PATH")
	assert.Equal(t, "/usr/bin", v)

	// no duplicate keys
	count := 0
	for _, kv := range environ {
		if len(kv) >= 5 && kv[:5] == "PORT=" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestBuildRendersExtraTemplates(t *testing.T) {
	extra := map[string]string{
		"api_base": "http://localhost:{{.Port}}/api",
		"data_dir": "{{.BaseDir}}/data",
	}
	environ, err := Build(nil, 9000, "/srv/app", extra)
	require.NoError(t, err)

	v, ok := Lookup(environ, "API_BASE")
	require.True(t, ok)
	assert.Equal(t, "http://localhost:9000/api", v)

	v, _ = Lookup(environ, "DATA_DIR")
	assert.Equal(t, "/srv/app/data", v)
}

func TestBuildRejectsBrokenTemplate(t *testing.T) {
	_, err := Build(nil, 9000, "", map[string]string{"x": "{{.Nope}}"})
	assert.Error(t, err)
}

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	level.Debug(l).Log("msg", "hidden")
	level.Info(l).Log("component", "test", "msg", "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, "component=test")
	assert.Contains(t, out, "msg=shown")
}

func TestNewAllowsDebug(t *testing.T) {
	var buf bytes.Buffer
	level.Debug(New(&buf, true)).Log("msg", "visible")
	assert.Contains(t, buf.String(), "level=debug")
}

func TestOpenAppendsToFile(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	path := filepath.Join(t.TempDir(), "mailtally.log")
	closer, err := Open(path, false)
	require.NoError(t, err)
	level.Info(Logger).Log("msg", "first")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=first")
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("a@x.com")
	assert.Equal(t, a, Fingerprint("a@x.com"))
	assert.NotEqual(t, a, Fingerprint("b@x.com"))
	assert.NotContains(t, a, "@")
}

package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
}

func TestFileSinkWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := NewZapLogger(Options{FilePath: path, Level: "info"})

	l.Debug("TEST", "hidden", nil)
	l.Info("TEST", "shown", map[string]interface{}{"session": SessionFingerprint("s1")})
	l.Error("TEST", "failed", map[string]interface{}{"error": "boom"})
	require.NoError(t, l.Sync())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "shown", lines[0]["message"])
	assert.Equal(t, "TEST", lines[0]["module"])
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "boom", lines[1]["error_ref"])
}

func TestSessionFingerprintIsStable(t *testing.T) {
	a := SessionFingerprint("session-1")
	assert.Len(t, a, 8)
	assert.Equal(t, a, SessionFingerprint("session-1"))
	assert.NotEqual(t, a, SessionFingerprint("session-2"))
}

package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	prevLevel, prevRedact := defaultLogger.level, defaultLogger.redactPII
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prevLevel)
		SetRedactPII(prevRedact)
	})
	return &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]string {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}

func TestRedactAddress(t *testing.T) {
	assert.Equal(t, "9***", RedactAddress("90 Lumon St."))
	assert.Equal(t, "", RedactAddress("  "))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel(" ERROR "))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestLogRedactsPII(t *testing.T) {
	buf := capture(t)
	SetLevel(INFO)
	SetRedactPII(true)

	Info("upsert", "email", "heyrhoades5@gmail.com", "street", "Lumon St.", "note", "from jbob23@yahoo.com")

	entry := lastEntry(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "upsert", entry["msg"])
	assert.Equal(t, "he***@gmail.com", entry["email"])
	assert.Equal(t, "L***", entry["street"])
	assert.Equal(t, "from jb***@yahoo.com", entry["note"])
}

func TestLogRespectsLevel(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	Info("dropped")
	assert.Empty(t, buf.String())

	Warn("kept", "county", "Sussex")
	entry := lastEntry(t, buf)
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "Sussex", entry["county"])
}

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer) Logger {
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	log := NewLogrusLogger(cfg)
	log.SetOutput(buf)
	return log
}

func TestLogrusLogger_WithFieldKeepsParentFields(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONLogger(&buf).WithField("component", "registry")

	log.Infof("group %s created", "lobby")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "group lobby created", line["message"])
	assert.Equal(t, "registry", line["component"])
	assert.Equal(t, "group-relay", line["service"])
}

func TestLogrusLogger_SetLevelOnDerivedLogger(t *testing.T) {
	var buf bytes.Buffer
	root := newJSONLogger(&buf)
	child := root.WithFields(Fields{"group_id": "lobby"})

	child.SetLevel(LevelWarn)
	root.Info("dropped")
	assert.Empty(t, buf.String())

	root.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	Configure(l, "debug", "production", &buf)

	l.WithField("record_id", "r1").Debug("Transition applied.")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Transition applied.", line["msg"])
	assert.Equal(t, "r1", line["record_id"])
	assert.Equal(t, "debug", line["level"])
}

func TestConfigure_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	Configure(l, "chatty", "development", &buf)

	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}
